package storage

import (
	"errors"
	"testing"
)

func TestMemoryPersister(t *testing.T) {
	p := NewMemoryPersister()
	if _, err := p.ReadState(); !errors.Is(err, ErrNoState) {
		t.Fatalf("got %v, want ErrNoState", err)
	}

	buf := []byte("one")
	if err := p.SaveState(buf); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	buf[0] = 'X' // caller reuse must not leak into the record
	if err := p.SaveState([]byte("two")); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	got, err := p.ReadState()
	if err != nil {
		t.Fatalf("ReadState: %v", err)
	}
	if string(got) != "two" {
		t.Errorf("latest mismatch: got %q, want %q", got, "two")
	}
	if p.Len() != 2 {
		t.Errorf("len mismatch: got %d, want 2", p.Len())
	}
	all := p.HistorySince(0)
	if len(all) != 2 || string(all[0]) != "one" {
		t.Errorf("history mismatch: got %q", all)
	}
	if rest := p.HistorySince(2); rest != nil {
		t.Errorf("expected nothing after 2, got %q", rest)
	}
}
