package raft

import (
	"time"
)

type Follower struct {
	electionDeadline time.Time
}

func newFollower(now time.Time, s *NodeState) *Follower {
	f := &Follower{}
	f.resetDeadline(now, s)
	return f
}

func (f *Follower) ElectionDeadline() time.Time {
	return f.electionDeadline
}

func (f *Follower) resetDeadline(now time.Time, s *NodeState) {
	f.electionDeadline = now.Add(s.randElectionTimeout())
}

func (f *Follower) transition(msg Message, _ time.Time, s *NodeState) Role {
	observeTerm(msg, s)
	return nil
}

func (f *Follower) handle(msg Message, now time.Time, s *NodeState) []Envelope {
	switch m := msg.(type) {
	case *AppendEntriesReq:
		return []Envelope{s.envelope(m.LeaderId, f.handleAppendEntries(m, now, s))}
	case *RequestVoteReq:
		resp := s.handleRequestVote(m)
		if resp.VoteGranted {
			f.resetDeadline(now, s)
		}
		return []Envelope{s.envelope(m.CandidateId, resp)}
	default:
		// late responses addressed to a role we no longer hold
		return nil
	}
}

func (f *Follower) handleAppendEntries(req *AppendEntriesReq, now time.Time, s *NodeState) *AppendEntriesResp {
	resp := &AppendEntriesResp{Term: s.currentTerm, From: s.me}
	f.resetDeadline(now, s)
	s.leaderId = req.LeaderId

	if !wellFormed(req) {
		s.logger.Warnf("reject malformed append from %d: %v", req.LeaderId, req)
		return resp
	}

	// consistency check on the entry preceding the new ones
	if req.PrevLogIndex > 0 {
		term, ok := s.log.TermAt(req.PrevLogIndex)
		if !ok || term != req.PrevLogTerm {
			s.logger.Debugf("reject append from %d: prev %d/%d, have last index %d term %d",
				req.LeaderId, req.PrevLogIndex, req.PrevLogTerm, s.log.LastIndex(), term)
			return resp
		}
	}

	changed := false
	for i, entry := range req.Entries {
		index := req.PrevLogIndex + 1 + i
		if term, ok := s.log.TermAt(index); ok {
			if term == entry.Term {
				continue
			}
			// conflicting suffix: drop it and everything after
			s.logger.Debugf("truncate log from %d (term %d, leader has %d)", index, term, entry.Term)
			s.log.TruncateFrom(index)
		}
		s.log.Append(req.Entries[i:]...)
		changed = true
		break
	}
	if changed {
		s.saveState()
	}

	lastNew := req.PrevLogIndex + len(req.Entries)
	if req.LeaderCommit > s.commitIndex {
		s.advanceCommit(min(req.LeaderCommit, lastNew))
	}

	resp.Success = true
	resp.MatchIndex = lastNew
	return resp
}

// wellFormed checks that the entries are numbered right after PrevLogIndex
// with terms that never decrease and never exceed the leader's term.
func wellFormed(req *AppendEntriesReq) bool {
	if req.PrevLogIndex < 0 {
		return false
	}
	last := req.PrevLogTerm
	for i, entry := range req.Entries {
		if entry.Index != req.PrevLogIndex+1+i || entry.Term < last || entry.Term > req.Term {
			return false
		}
		last = entry.Term
	}
	return true
}

func (f *Follower) tick(now time.Time, s *NodeState) Role {
	if !now.Before(f.electionDeadline) {
		s.logger.Infof("election timeout at term %d", s.currentTerm)
		return startElection(now, s)
	}
	return nil
}

func (f *Follower) tickMessages(time.Time, *NodeState) []Envelope {
	return nil
}
