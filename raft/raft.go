package raft

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go_raft_sim/raft/common"
	"go_raft_sim/raft/state_machine_interface"

	log "github.com/sirupsen/logrus"
)

type Options struct {
	Id    int   // this node
	Peers []int // every member, this node included

	ElectionTimeoutMin time.Duration // lower bound of the randomized election timeout
	ElectionTimeoutMax time.Duration // upper bound, equal to the lower bound for a fixed timeout
	HeartbeatInterval  time.Duration // leader heartbeat period, below ElectionTimeoutMin

	Rand      *rand.Rand                        // timeout source, seeded from the clock when nil
	Persister state_machine_interface.Persister // optional hard state sink
	Apply     state_machine_interface.Apply     // optional committed command sink
	Logger    *log.Entry                        // defaults to the standard logger
}

// DefaultOptions uses the timeouts from common.
func DefaultOptions(id int, peers []int) Options {
	return Options{
		Id:                 id,
		Peers:              peers,
		ElectionTimeoutMin: common.ElectionBaseTimeout * time.Millisecond,
		ElectionTimeoutMax: (common.ElectionBaseTimeout + common.ElectionMaxExtraTimeout) * time.Millisecond,
		HeartbeatInterval:  common.HeartbeatInterval * time.Millisecond,
	}
}

func (o *Options) Validate() error {
	if len(o.Peers) == 0 {
		return fmt.Errorf("%w: no members", ErrInvalidConfig)
	}
	seen := make(map[int]bool, len(o.Peers))
	for _, id := range o.Peers {
		if id < 0 {
			return fmt.Errorf("%w: negative member id %d", ErrInvalidConfig, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate member id %d", ErrInvalidConfig, id)
		}
		seen[id] = true
	}
	if !seen[o.Id] {
		return fmt.Errorf("%w: node %d is not a member", ErrInvalidConfig, o.Id)
	}
	if o.ElectionTimeoutMin <= 0 || o.ElectionTimeoutMax < o.ElectionTimeoutMin {
		return fmt.Errorf("%w: election timeout range [%s, %s]", ErrInvalidConfig, o.ElectionTimeoutMin, o.ElectionTimeoutMax)
	}
	if o.HeartbeatInterval <= 0 || o.HeartbeatInterval >= o.ElectionTimeoutMin {
		return fmt.Errorf("%w: heartbeat %s must be below election timeout %s", ErrInvalidConfig, o.HeartbeatInterval, o.ElectionTimeoutMin)
	}
	return nil
}

// Raft is one cluster member: exactly one installed role plus the state
// that outlives it. Deliver and AdvanceTime are the only ways to drive it.
type Raft struct {
	me     int        // this node's id
	role   Role       // installed role, replaced only by install
	state  *NodeState // state shared by every role
	logger *log.Entry // carries the node field

	// last observed values, for the monotonicity checks
	seenTerm   int
	seenCommit int
}

func New(opts Options, now time.Time) (*Raft, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	logger = logger.WithField("node", opts.Id)

	peers := append([]int(nil), opts.Peers...)
	sort.Ints(peers)

	s := &NodeState{
		me:          opts.Id,
		peers:       peers,
		currentTerm: 0,
		votedFor:    common.NoVote,
		log:         NewLog(),
		leaderId:    common.NoVote,
		electionMin: opts.ElectionTimeoutMin,
		electionMax: opts.ElectionTimeoutMax,
		heartbeat:   opts.HeartbeatInterval,
		rng:         rng,
		persister:   opts.Persister,
		apply:       opts.Apply,
		logger:      logger,
	}
	r := &Raft{
		me:     opts.Id,
		state:  s,
		logger: logger,
	}
	r.role = newFollower(now, s)
	s.saveState()
	return r, nil
}

// Deliver hands one message to the node and returns what it sends back.
func (r *Raft) Deliver(msg Message, now time.Time) []Envelope {
	if msg.GetTerm() < r.state.currentTerm {
		r.logger.Debugf("drop stale %v at term %d", msg, r.state.currentTerm)
		return nil
	}
	if next := r.role.transition(msg, now, r.state); next != nil {
		r.install(next)
	}
	out := r.role.handle(msg, now, r.state)
	r.checkInvariants()
	return out
}

// AdvanceTime runs the timers and returns heartbeats or vote requests due at now.
func (r *Raft) AdvanceTime(now time.Time) []Envelope {
	if next := r.role.tick(now, r.state); next != nil {
		r.install(next)
	}
	out := r.role.tickMessages(now, r.state)
	r.checkInvariants()
	return out
}

func (r *Raft) install(next Role) {
	from, to := statusOf(r.role), statusOf(next)
	if from != to {
		r.logger.WithFields(log.Fields{
			"from": from.String(),
			"to":   to.String(),
			"term": r.state.currentTerm,
		}).Info("role change")
	}
	r.role = next
}

// checkInvariants panics when the node reaches a state no correct
// execution can produce.
func (r *Raft) checkInvariants() {
	s := r.state
	var problem string
	switch {
	case s.currentTerm < r.seenTerm:
		problem = fmt.Sprintf("term went back from %d to %d", r.seenTerm, s.currentTerm)
	case s.commitIndex < r.seenCommit:
		problem = fmt.Sprintf("commit index went back from %d to %d", r.seenCommit, s.commitIndex)
	case s.commitIndex > s.log.LastIndex():
		problem = fmt.Sprintf("commit index %d beyond last index %d", s.commitIndex, s.log.LastIndex())
	case s.lastApplied > s.commitIndex:
		problem = fmt.Sprintf("last applied %d beyond commit index %d", s.lastApplied, s.commitIndex)
	}
	if problem != "" {
		r.logger.Error(problem)
		panic("raft: " + problem)
	}
	r.seenTerm = s.currentTerm
	r.seenCommit = s.commitIndex
}

func (r *Raft) Id() int { return r.me }

func (r *Raft) Status() common.Status { return statusOf(r.role) }

func (r *Raft) IsLeader() bool { return r.Status() == common.Leader }

func (r *Raft) Term() int { return r.state.currentTerm }

func (r *Raft) VotedFor() int { return r.state.votedFor }

func (r *Raft) LeaderId() int { return r.state.leaderId }

func (r *Raft) CommitIndex() int { return r.state.commitIndex }

func (r *Raft) LastApplied() int { return r.state.lastApplied }

func (r *Raft) LastIndex() int { return r.state.log.LastIndex() }

// Entries returns a copy of the log without the sentinel.
func (r *Raft) Entries() []common.LogEntry { return r.state.log.Entries() }

// Role exposes the installed role for inspection.
func (r *Raft) Role() Role { return r.role }

// State exposes the node state for inspection.
func (r *Raft) State() *NodeState { return r.state }
