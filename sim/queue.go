package sim

import (
	"container/heap"
	"time"

	"go_raft_sim/raft"
)

type EventKind int

const (
	EventDeliver EventKind = iota + 1 // hand Env to node Env.To
	EventTick                         // advance the clock of Node
)

type Event struct {
	At   time.Time
	Seq  uint64 // insertion order, breaks ties between equal At
	Kind EventKind
	Node int
	Env  raft.Envelope
}

type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if !h[i].At.Equal(h[j].At) {
		return h[i].At.Before(h[j].At)
	}
	return h[i].Seq < h[j].Seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(*Event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Queue releases events earliest first. Events due at the same instant come
// out in the order they were pushed.
type Queue struct {
	h   eventHeap
	seq uint64
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Push(e *Event) {
	q.seq++
	e.Seq = q.seq
	heap.Push(&q.h, e)
}

func (q *Queue) Pop() (*Event, bool) {
	if len(q.h) == 0 {
		return nil, false
	}
	return heap.Pop(&q.h).(*Event), true
}

func (q *Queue) Peek() (*Event, bool) {
	if len(q.h) == 0 {
		return nil, false
	}
	return q.h[0], true
}

func (q *Queue) Len() int {
	return len(q.h)
}
