package raft

import (
	"time"
)

type Leader struct {
	nextIndex     map[int]int // next log index to send to each peer
	matchIndex    map[int]int // highest index known replicated on each peer
	lastHeartbeat time.Time   // zero until the first broadcast
}

func newLeader(_ time.Time, s *NodeState) *Leader {
	l := &Leader{
		nextIndex:  make(map[int]int, len(s.peers)-1),
		matchIndex: make(map[int]int, len(s.peers)-1),
	}
	next := s.log.LastIndex() + 1
	for _, peer := range s.others() {
		l.nextIndex[peer] = next
		l.matchIndex[peer] = 0
	}
	s.leaderId = s.me
	s.logger.Infof("became leader for term %d, last index %d", s.currentTerm, s.log.LastIndex())
	return l
}

func (l *Leader) NextIndex(peer int) int { return l.nextIndex[peer] }
func (l *Leader) MatchIndex(peer int) int { return l.matchIndex[peer] }

func (l *Leader) transition(msg Message, now time.Time, s *NodeState) Role {
	if observeTerm(msg, s) {
		s.logger.Infof("saw term %d from %T, step down", msg.GetTerm(), msg)
		return newFollower(now, s)
	}
	return nil
}

func (l *Leader) handle(msg Message, now time.Time, s *NodeState) []Envelope {
	var out []Envelope
	if l.lastHeartbeat.IsZero() {
		// first call after winning: announce leadership right away
		out = l.broadcast(now, s)
	}
	switch m := msg.(type) {
	case *AppendEntriesResp:
		l.handleAppendEntriesResp(m, s)
	case *RequestVoteReq:
		out = append(out, s.envelope(m.CandidateId, s.handleRequestVote(m)))
	case *AppendEntriesReq:
		s.logger.Errorf("append from leader %d in our own term %d", m.LeaderId, m.Term)
		out = append(out, s.envelope(m.LeaderId, &AppendEntriesResp{Term: s.currentTerm, From: s.me}))
	}
	return out
}

// tick never leaves leadership: only a newer term ends it.
func (l *Leader) tick(time.Time, *NodeState) Role {
	return nil
}

func (l *Leader) tickMessages(now time.Time, s *NodeState) []Envelope {
	if l.lastHeartbeat.IsZero() || now.Sub(l.lastHeartbeat) >= s.heartbeat {
		return l.broadcast(now, s)
	}
	return nil
}
