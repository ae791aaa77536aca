package raft

import (
	"sort"
	"time"
)

type Candidate struct {
	electionDeadline time.Time
	votesReceived    map[int]bool
	termStarted      int
	requested        bool // vote requests for termStarted already emitted
}

// newCandidate starts an election for a fresh term: bump the term, vote for
// ourselves and arm a new randomized deadline.
func newCandidate(now time.Time, s *NodeState) *Candidate {
	s.startTerm()
	c := &Candidate{
		electionDeadline: now.Add(s.randElectionTimeout()),
		votesReceived:    map[int]bool{s.me: true},
		termStarted:      s.currentTerm,
	}
	s.logger.Infof("start election for term %d, deadline %s", c.termStarted, c.electionDeadline.Format("15:04:05.000"))
	return c
}

// startElection begins a candidacy. When the self vote alone is a majority
// the node takes leadership in the same step.
func startElection(now time.Time, s *NodeState) Role {
	c := newCandidate(now, s)
	if s.isQuorum(len(c.votesReceived)) {
		s.logger.Infof("won election for term %d with votes %v", c.termStarted, c.Votes())
		return newLeader(now, s)
	}
	return c
}

func (c *Candidate) ElectionDeadline() time.Time { return c.electionDeadline }
func (c *Candidate) TermStarted() int { return c.termStarted }

// Votes returns the ids that granted a vote, ascending.
func (c *Candidate) Votes() []int {
	out := make([]int, 0, len(c.votesReceived))
	for id := range c.votesReceived {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func (c *Candidate) transition(msg Message, now time.Time, s *NodeState) Role {
	if observeTerm(msg, s) {
		return newFollower(now, s)
	}
	switch m := msg.(type) {
	case *AppendEntriesReq:
		// someone already won this term
		s.logger.Infof("leader %d found for term %d, step down", m.LeaderId, m.Term)
		return newFollower(now, s)
	case *RequestVoteResp:
		if !m.VoteGranted || m.Term != c.termStarted {
			return nil
		}
		if !s.isMember(m.From) {
			s.logger.Warnf("vote from unknown member %d", m.From)
			return nil
		}
		c.votesReceived[m.From] = true
		if s.isQuorum(len(c.votesReceived)) {
			s.logger.Infof("won election for term %d with votes %v", c.termStarted, c.Votes())
			return newLeader(now, s)
		}
		s.logger.Debugf("vote from %d, %d of %d", m.From, len(c.votesReceived), s.ClusterSize())
	}
	return nil
}

func (c *Candidate) handle(msg Message, _ time.Time, s *NodeState) []Envelope {
	out := c.requestVotes(s)
	switch m := msg.(type) {
	case *RequestVoteReq:
		// we voted for ourselves this term
		out = append(out, s.envelope(m.CandidateId, s.handleRequestVote(m)))
	case *AppendEntriesReq:
		out = append(out, s.envelope(m.LeaderId, &AppendEntriesResp{Term: s.currentTerm, From: s.me}))
	}
	return out
}

func (c *Candidate) tick(now time.Time, s *NodeState) Role {
	if s.isQuorum(len(c.votesReceived)) {
		return newLeader(now, s)
	}
	if !now.Before(c.electionDeadline) {
		s.logger.Infof("election for term %d timed out with votes %v", c.termStarted, c.Votes())
		return startElection(now, s)
	}
	return nil
}

func (c *Candidate) tickMessages(_ time.Time, s *NodeState) []Envelope {
	return c.requestVotes(s)
}

// requestVotes emits the RequestVote broadcast once per candidacy.
func (c *Candidate) requestVotes(s *NodeState) []Envelope {
	if c.requested {
		return nil
	}
	c.requested = true
	req := &RequestVoteReq{
		Term:         c.termStarted,
		CandidateId:  s.me,
		LastLogIndex: s.log.LastIndex(),
		LastLogTerm:  s.log.LastTerm(),
	}
	out := make([]Envelope, 0, len(s.peers)-1)
	for _, peer := range s.others() {
		out = append(out, s.envelope(peer, req))
	}
	return out
}
