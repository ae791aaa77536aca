package raft

import (
	"time"

	"go_raft_sim/raft/common"
)

// Role is the closed set of node roles: *Follower, *Candidate and *Leader.
// All methods are unexported so no other type can satisfy it.
type Role interface {
	// transition decides whether msg forces a role change. It may adopt a
	// newer term. nil means stay.
	transition(msg Message, now time.Time, s *NodeState) Role
	// handle runs against the role installed after transition.
	handle(msg Message, now time.Time, s *NodeState) []Envelope
	// tick checks timers. nil means stay.
	tick(now time.Time, s *NodeState) Role
	// tickMessages runs against the role installed after tick.
	tickMessages(now time.Time, s *NodeState) []Envelope
}

func statusOf(r Role) common.Status {
	switch r.(type) {
	case *Follower:
		return common.Follower
	case *Candidate:
		return common.Candidate
	case *Leader:
		return common.Leader
	default:
		panic("raft: unknown role")
	}
}

// observeTerm adopts a newer term carried by msg and reports whether it did.
func observeTerm(msg Message, s *NodeState) bool {
	if msg.GetTerm() > s.currentTerm {
		s.adoptTerm(msg.GetTerm())
		return true
	}
	return false
}
