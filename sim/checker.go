package sim

import (
	"errors"
	"fmt"

	"go_raft_sim/raft/common"
)

var ErrViolation = errors.New("sim: safety violation")

// NodeView is what the checker sees of one node after an event.
type NodeView struct {
	Id          int
	Status      common.Status
	Term        int
	CommitIndex int
	Entries     []common.LogEntry // index i+1 at position i
	States      []common.State    // hard states saved since the previous view
}

type committedEntry struct {
	entry    common.LogEntry
	seenTerm int // highest term of the node that first showed it committed
}

// Checker accumulates history across views and reports the first
// execution that breaks a Raft safety property.
type Checker struct {
	leaders    map[int]int         // term -> leader id
	lastTerm   map[int]int         // node -> term
	lastCommit map[int]int         // node -> commit index
	votes      map[int]map[int]int // node -> term -> voted for
	committed  map[int]committedEntry
}

func NewChecker() *Checker {
	return &Checker{
		leaders:    make(map[int]int),
		lastTerm:   make(map[int]int),
		lastCommit: make(map[int]int),
		votes:      make(map[int]map[int]int),
		committed:  make(map[int]committedEntry),
	}
}

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrViolation, fmt.Sprintf(format, args...))
}

func sameEntry(a, b common.LogEntry) bool {
	return a.Index == b.Index && a.Term == b.Term && a.Command == b.Command
}

func (k *Checker) Check(views []NodeView) error {
	for _, v := range views {
		if err := k.checkNode(v); err != nil {
			return err
		}
	}
	for _, v := range views {
		if v.Status == common.Leader {
			if err := k.checkLeader(v); err != nil {
				return err
			}
		}
	}
	for i := range views {
		for j := i + 1; j < len(views); j++ {
			if err := checkLogMatching(views[i], views[j]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (k *Checker) checkNode(v NodeView) error {
	if v.Term < k.lastTerm[v.Id] {
		return violation("node %d term went back from %d to %d", v.Id, k.lastTerm[v.Id], v.Term)
	}
	if v.CommitIndex < k.lastCommit[v.Id] {
		return violation("node %d commit index went back from %d to %d", v.Id, k.lastCommit[v.Id], v.CommitIndex)
	}
	if v.CommitIndex > len(v.Entries) {
		return violation("node %d commit index %d beyond log length %d", v.Id, v.CommitIndex, len(v.Entries))
	}

	for _, st := range v.States {
		if st.VotedFor == common.NoVote {
			continue
		}
		byTerm, ok := k.votes[v.Id]
		if !ok {
			byTerm = make(map[int]int)
			k.votes[v.Id] = byTerm
		}
		if prev, ok := byTerm[st.CurrentTerm]; ok && prev != st.VotedFor {
			return violation("node %d voted for %d and %d in term %d", v.Id, prev, st.VotedFor, st.CurrentTerm)
		}
		byTerm[st.CurrentTerm] = st.VotedFor
	}

	// entries committed since the last view must agree with every other node
	for i := k.lastCommit[v.Id] + 1; i <= v.CommitIndex; i++ {
		entry := v.Entries[i-1]
		known, ok := k.committed[i]
		if !ok {
			k.committed[i] = committedEntry{entry: entry, seenTerm: v.Term}
			continue
		}
		if !sameEntry(known.entry, entry) {
			return violation("node %d committed %+v at index %d, another node committed %+v", v.Id, entry, i, known.entry)
		}
	}

	k.lastTerm[v.Id] = v.Term
	k.lastCommit[v.Id] = v.CommitIndex
	return nil
}

func (k *Checker) checkLeader(v NodeView) error {
	if prev, ok := k.leaders[v.Term]; ok && prev != v.Id {
		return violation("nodes %d and %d both leader in term %d", prev, v.Id, v.Term)
	}
	k.leaders[v.Term] = v.Id
	for index, c := range k.committed {
		if v.Term <= c.seenTerm {
			continue
		}
		if index > len(v.Entries) || !sameEntry(v.Entries[index-1], c.entry) {
			return violation("leader %d of term %d lacks committed entry %+v", v.Id, v.Term, c.entry)
		}
	}
	return nil
}

// checkLogMatching finds the highest index where both logs hold the same
// term and requires everything up to it to be identical.
func checkLogMatching(a, b NodeView) error {
	n := min(len(a.Entries), len(b.Entries))
	for i := n - 1; i >= 0; i-- {
		if a.Entries[i].Term != b.Entries[i].Term {
			continue
		}
		for j := 0; j <= i; j++ {
			if !sameEntry(a.Entries[j], b.Entries[j]) {
				return violation("nodes %d and %d agree at index %d but differ at index %d", a.Id, b.Id, i+1, j+1)
			}
		}
		return nil
	}
	return nil
}
