package storage

import (
	"errors"
	"sync"
)

var ErrNoState = errors.New("storage: no state saved")

// MemoryPersister keeps every saved hard state in memory. The latest one
// is what ReadState returns; the full history is there for audits.
type MemoryPersister struct {
	mu      sync.Mutex
	history [][]byte
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (p *MemoryPersister) SaveState(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = append(p.history, append([]byte(nil), data...))
	return nil
}

func (p *MemoryPersister) ReadState() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.history) == 0 {
		return nil, ErrNoState
	}
	return append([]byte(nil), p.history[len(p.history)-1]...), nil
}

// HistorySince returns copies of the records saved after the first n.
func (p *MemoryPersister) HistorySince(n int) [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n >= len(p.history) {
		return nil
	}
	out := make([][]byte, 0, len(p.history)-n)
	for _, rec := range p.history[n:] {
		out = append(out, append([]byte(nil), rec...))
	}
	return out
}

func (p *MemoryPersister) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.history)
}
