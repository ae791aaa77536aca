package raft

import (
	"reflect"
	"testing"

	"go_raft_sim/raft/common"
)

func TestLogSentinel(t *testing.T) {
	l := NewLog()
	if l.LastIndex() != 0 || l.LastTerm() != 0 || l.Len() != 0 {
		t.Fatalf("empty log: got last %d/%d len %d, want 0/0 len 0", l.LastIndex(), l.LastTerm(), l.Len())
	}
	if term, ok := l.TermAt(0); !ok || term != 0 {
		t.Errorf("TermAt(0): got %d/%t, want 0/true", term, ok)
	}
	if _, ok := l.TermAt(1); ok {
		t.Error("TermAt(1) on empty log should fail")
	}
	if _, ok := l.Entry(0); ok {
		t.Error("Entry(0) should not expose the sentinel")
	}
	if got := l.Entries(); len(got) != 0 {
		t.Errorf("Entries: got %v, want none", got)
	}
}

func TestLogAppendTruncateFrom(t *testing.T) {
	l := NewLogFrom(logOf(1, 1, 2, 3))
	if l.LastIndex() != 4 || l.LastTerm() != 3 {
		t.Fatalf("last mismatch: got %d/%d, want 4/3", l.LastIndex(), l.LastTerm())
	}

	from := l.From(3)
	if got := termsOf(from); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Errorf("From(3): got terms %v, want [2 3]", got)
	}
	from[0].Command = "changed"
	if e, _ := l.Entry(3); e.Command != "c3" {
		t.Errorf("From must copy, entry 3 is now %q", e.Command)
	}
	if got := l.From(5); got != nil {
		t.Errorf("From past the end: got %v, want nil", got)
	}

	l.TruncateFrom(3)
	if got := termsOf(l.Entries()); !reflect.DeepEqual(got, []int{1, 1}) {
		t.Errorf("after truncate: got %v, want [1 1]", got)
	}
	l.TruncateFrom(10) // beyond the end is a no-op
	if l.LastIndex() != 2 {
		t.Errorf("last index mismatch: got %d, want 2", l.LastIndex())
	}
}

func TestLogRejectsBadAppends(t *testing.T) {
	tests := []struct {
		name  string
		entry common.LogEntry
	}{
		{"gap", common.LogEntry{Term: 2, Index: 4}},
		{"overwrite", common.LogEntry{Term: 2, Index: 2}},
		{"term goes back", common.LogEntry{Term: 1, Index: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLogFrom(logOf(1, 2))
			defer func() {
				if recover() == nil {
					t.Errorf("Append(%+v) did not panic", tt.entry)
				}
			}()
			l.Append(tt.entry)
		})
	}
}

func TestLogTruncateSentinelPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("TruncateFrom(0) did not panic")
		}
	}()
	NewLog().TruncateFrom(0)
}
