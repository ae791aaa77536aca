package raft

import (
	"time"
)

// broadcast sends every peer the entries it is missing, or an empty
// heartbeat when it is up to date, and rearms the heartbeat timer.
func (l *Leader) broadcast(now time.Time, s *NodeState) []Envelope {
	l.lastHeartbeat = now
	out := make([]Envelope, 0, len(l.nextIndex))
	for _, peer := range s.others() {
		out = append(out, s.envelope(peer, l.appendEntriesFor(peer, s)))
	}
	s.logger.Debugf("heartbeat term %d commit %d to %d peers", s.currentTerm, s.commitIndex, len(out))
	return out
}

func (l *Leader) appendEntriesFor(peer int, s *NodeState) *AppendEntriesReq {
	next := l.nextIndex[peer]
	prevLogIndex := next - 1
	prevLogTerm, _ := s.log.TermAt(prevLogIndex)
	return &AppendEntriesReq{
		Term:         s.currentTerm,
		LeaderId:     s.me,
		PrevLogIndex: prevLogIndex,
		PrevLogTerm:  prevLogTerm,
		Entries:      s.log.From(next),
		LeaderCommit: s.commitIndex,
	}
}

func (l *Leader) handleAppendEntriesResp(resp *AppendEntriesResp, s *NodeState) {
	if _, ok := l.nextIndex[resp.From]; !ok {
		s.logger.Warnf("append response from unknown member %d", resp.From)
		return
	}
	if !resp.Success {
		// back off one entry, the next heartbeat retries. A late rejection
		// never pushes next below what is known to match.
		if l.nextIndex[resp.From] > l.matchIndex[resp.From]+1 {
			l.nextIndex[resp.From]--
		}
		s.logger.Debugf("append rejected by %d, nextIndex now %d", resp.From, l.nextIndex[resp.From])
		return
	}
	// responses can arrive out of order, match never moves back
	if resp.MatchIndex > l.matchIndex[resp.From] {
		l.matchIndex[resp.From] = min(resp.MatchIndex, s.log.LastIndex())
	}
	l.nextIndex[resp.From] = l.matchIndex[resp.From] + 1
	l.advanceCommitIndex(s)
}

// advanceCommitIndex commits the highest current-term index held by a strict
// majority. Entries from earlier terms are committed only as a side effect.
func (l *Leader) advanceCommitIndex(s *NodeState) {
	for n := s.log.LastIndex(); n > s.commitIndex; n-- {
		term, _ := s.log.TermAt(n)
		if term != s.currentTerm {
			break
		}
		count := 1 // ourselves
		for _, match := range l.matchIndex {
			if match >= n {
				count++
			}
		}
		if s.isQuorum(count) {
			s.logger.Debugf("commit index %d -> %d (%d of %d)", s.commitIndex, n, count, s.ClusterSize())
			s.advanceCommit(n)
			return
		}
	}
}
