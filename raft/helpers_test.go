package raft

import (
	"fmt"
	"io"
	"math/rand"
	"testing"
	"time"

	"go_raft_sim/raft/common"

	log "github.com/sirupsen/logrus"
)

var t0 = time.Unix(1000, 0)

func quietEntry() *log.Entry {
	l := log.New()
	l.SetOutput(io.Discard)
	return log.NewEntry(l)
}

func members(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	return ids
}

func testOptions(id int, peers []int) Options {
	opts := DefaultOptions(id, peers)
	opts.Rand = rand.New(rand.NewSource(int64(id)))
	opts.Logger = quietEntry()
	return opts
}

func newTestNode(t *testing.T, id int, peers []int) *Raft {
	t.Helper()
	r, err := New(testOptions(id, peers), t0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

// logOf builds entries 1..n with the given terms.
func logOf(terms ...int) []common.LogEntry {
	out := make([]common.LogEntry, len(terms))
	for i, term := range terms {
		out[i] = common.LogEntry{Command: fmt.Sprintf("c%d", i+1), Term: term, Index: i + 1}
	}
	return out
}

func termsOf(entries []common.LogEntry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Term
	}
	return out
}

// setState puts a node at term with the given log, as a follower would be
// after earlier rounds.
func setState(r *Raft, term, votedFor int, terms ...int) {
	r.state.currentTerm = term
	r.state.votedFor = votedFor
	r.state.log = NewLogFrom(logOf(terms...))
	r.seenTerm = term
}

// makeLeader installs a fresh leader role at term.
func makeLeader(r *Raft, term int, terms ...int) *Leader {
	setState(r, term, r.me, terms...)
	l := newLeader(t0, r.state)
	r.role = l
	return l
}

func only(t *testing.T, out []Envelope) Envelope {
	t.Helper()
	if len(out) != 1 {
		t.Fatalf("expected one envelope, got %d: %v", len(out), out)
	}
	return out[0]
}

// deliverAll routes envelopes between nodes in FIFO order at a fixed time
// until nothing is left in flight.
func deliverAll(nodes map[int]*Raft, queue []Envelope, now time.Time) {
	for len(queue) > 0 {
		env := queue[0]
		queue = queue[1:]
		if n, ok := nodes[env.To]; ok {
			queue = append(queue, n.Deliver(env.Msg, now)...)
		}
	}
}
