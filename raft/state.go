package raft

import (
	"fmt"
	"math/rand"
	"time"

	"go_raft_sim/raft/common"
	"go_raft_sim/raft/state_machine_interface"

	log "github.com/sirupsen/logrus"
)

// NodeState outlives every role. Only the installed role mutates it, and
// only while Raft.Deliver or Raft.AdvanceTime is running.
type NodeState struct {
	me    int   // this node's id
	peers []int // every member id, this node included, ascending

	// persistent, recorded through persister on every change
	currentTerm int  // latest term this node has seen
	votedFor    int  // candidate voted for in currentTerm, NoVote if none
	log         *Log // replicated log, sentinel at index 0

	// volatile
	commitIndex int // highest index known committed
	lastApplied int // highest index handed to apply
	leaderId    int // leader of currentTerm as far as we know, NoVote if unknown

	electionMin time.Duration // election timeout lower bound
	electionMax time.Duration // election timeout upper bound
	heartbeat   time.Duration // leader heartbeat interval
	rng         *rand.Rand    // election timeout jitter

	persister state_machine_interface.Persister // hard state sink, may be nil
	apply     state_machine_interface.Apply     // committed command sink, may be nil
	logger    *log.Entry                        // carries the node field
}

func (s *NodeState) Id() int { return s.me }
func (s *NodeState) CurrentTerm() int { return s.currentTerm }
func (s *NodeState) VotedFor() int { return s.votedFor }
func (s *NodeState) CommitIndex() int { return s.commitIndex }
func (s *NodeState) LastApplied() int { return s.lastApplied }
func (s *NodeState) ClusterSize() int { return len(s.peers) }
func (s *NodeState) Log() *Log { return s.log }
func (s *NodeState) LeaderId() int { return s.leaderId }

func (s *NodeState) HardState() common.State {
	return common.State{
		Id:          s.me,
		CurrentTerm: s.currentTerm,
		VotedFor:    s.votedFor,
		LastIndex:   s.log.LastIndex(),
		LastTerm:    s.log.LastTerm(),
	}
}

// others returns every member except this node.
func (s *NodeState) others() []int {
	out := make([]int, 0, len(s.peers)-1)
	for _, id := range s.peers {
		if id != s.me {
			out = append(out, id)
		}
	}
	return out
}

func (s *NodeState) isMember(id int) bool {
	for _, p := range s.peers {
		if p == id {
			return true
		}
	}
	return false
}

// isQuorum reports whether n members form a strict majority.
func (s *NodeState) isQuorum(n int) bool {
	return n > len(s.peers)/2
}

// adoptTerm moves to a newer term and forgets the vote of the old one.
func (s *NodeState) adoptTerm(term int) {
	if term <= s.currentTerm {
		return
	}
	s.logger.Debugf("term %d -> %d", s.currentTerm, term)
	s.currentTerm = term
	s.votedFor = common.NoVote
	s.leaderId = common.NoVote
	s.saveState()
}

// startTerm is the candidate's self-vote for a brand new term.
func (s *NodeState) startTerm() {
	s.currentTerm++
	s.votedFor = s.me
	s.leaderId = common.NoVote
	s.saveState()
}

func (s *NodeState) voteFor(candidateId int) {
	if s.votedFor != common.NoVote && s.votedFor != candidateId {
		panic(fmt.Sprintf("raft: node %d already voted for %d in term %d", s.me, s.votedFor, s.currentTerm))
	}
	s.votedFor = candidateId
	s.saveState()
}

// appendCommand appends a command created by the leader in the current term.
func (s *NodeState) appendCommand(command string) common.LogEntry {
	entry := common.LogEntry{
		Command: command,
		Term:    s.currentTerm,
		Index:   s.log.LastIndex() + 1,
	}
	s.log.Append(entry)
	s.saveState()
	return entry
}

// advanceCommit raises commitIndex to n and applies the newly committed entries.
func (s *NodeState) advanceCommit(n int) {
	if n <= s.commitIndex {
		return
	}
	if n > s.log.LastIndex() {
		n = s.log.LastIndex()
	}
	s.commitIndex = n
	s.applyLog()
}

func (s *NodeState) randElectionTimeout() time.Duration {
	spread := s.electionMax - s.electionMin
	if spread <= 0 {
		return s.electionMin
	}
	return s.electionMin + time.Duration(s.rng.Int63n(int64(spread)+1))
}

func (s *NodeState) envelope(to int, msg Message) Envelope {
	return Envelope{From: s.me, To: to, Msg: msg}
}
