package raft

import (
	"fmt"

	"go_raft_sim/raft/common"
)

// Log is the replicated log. Slot 0 holds a term-0 sentinel so that
// prevLogIndex 0 always matches.
type Log struct {
	entries []common.LogEntry
}

func NewLog() *Log {
	return &Log{entries: []common.LogEntry{{Term: 0, Index: 0}}}
}

// NewLogFrom builds a log from entries numbered 1..n.
func NewLogFrom(entries []common.LogEntry) *Log {
	l := NewLog()
	l.Append(entries...)
	return l
}

func (l *Log) LastIndex() int {
	return len(l.entries) - 1
}

func (l *Log) LastTerm() int {
	return l.entries[len(l.entries)-1].Term
}

// TermAt returns the term at index, or false when the log is shorter.
func (l *Log) TermAt(index int) (int, bool) {
	if index < 0 || index > l.LastIndex() {
		return 0, false
	}
	return l.entries[index].Term, true
}

func (l *Log) Entry(index int) (common.LogEntry, bool) {
	if index <= 0 || index > l.LastIndex() {
		return common.LogEntry{}, false
	}
	return l.entries[index], true
}

// From returns a copy of the entries from index through the end.
func (l *Log) From(index int) []common.LogEntry {
	if index < 1 {
		index = 1
	}
	if index > l.LastIndex() {
		return nil
	}
	out := make([]common.LogEntry, len(l.entries)-index)
	copy(out, l.entries[index:])
	return out
}

// Entries returns a copy of every real entry.
func (l *Log) Entries() []common.LogEntry {
	return l.From(1)
}

// Append adds entries at the end. Each entry must carry the next index.
func (l *Log) Append(entries ...common.LogEntry) {
	for _, e := range entries {
		if e.Index != l.LastIndex()+1 {
			panic(fmt.Sprintf("raft: append index %d after last index %d", e.Index, l.LastIndex()))
		}
		if e.Term < l.LastTerm() {
			panic(fmt.Sprintf("raft: append term %d after last term %d", e.Term, l.LastTerm()))
		}
		l.entries = append(l.entries, e)
	}
}

// TruncateFrom drops index and every entry after it.
func (l *Log) TruncateFrom(index int) {
	if index < 1 {
		panic("raft: truncate would drop the sentinel entry")
	}
	if index <= l.LastIndex() {
		l.entries = l.entries[:index]
	}
}

func (l *Log) Len() int {
	return len(l.entries) - 1
}
