package sim

import (
	"math/rand"
	"testing"
	"time"

	"go_raft_sim/raft"
)

func TestNetworkLatencyWithinRange(t *testing.T) {
	n := NewNetwork(5*time.Millisecond, 15*time.Millisecond, 0, rand.New(rand.NewSource(7)))
	now := time.Unix(100, 0)
	for i := 0; i < 200; i++ {
		at, ok := n.Route(raft.Envelope{From: 1, To: 2}, now)
		if !ok {
			t.Fatal("message lost with drop rate 0")
		}
		if d := at.Sub(now); d < 5*time.Millisecond || d > 15*time.Millisecond {
			t.Fatalf("latency %s outside [5ms, 15ms]", d)
		}
	}
}

func TestNetworkPartitionAndHeal(t *testing.T) {
	n := NewNetwork(time.Millisecond, time.Millisecond, 0, rand.New(rand.NewSource(1)))
	n.Partition([]int{1, 2}, []int{3, 4, 5})

	tests := []struct {
		a, b int
		want bool
	}{
		{1, 2, true},
		{3, 5, true},
		{1, 3, false},
		{5, 2, false},
		{4, 4, true},
	}
	for _, tt := range tests {
		if got := n.Connected(tt.a, tt.b); got != tt.want {
			t.Errorf("Connected(%d, %d): got %t, want %t", tt.a, tt.b, got, tt.want)
		}
	}
	if _, ok := n.Route(raft.Envelope{From: 2, To: 4}, time.Unix(0, 0)); ok {
		t.Error("message crossed the partition")
	}

	n.Heal()
	n.Isolate(3, []int{1, 2, 3, 4, 5})
	if n.Connected(1, 3) || n.Connected(3, 5) {
		t.Error("isolated node still connected")
	}
	if !n.Connected(1, 5) {
		t.Error("heal did not restore 1-5")
	}
}

func TestNetworkDropsEverythingAtFullRate(t *testing.T) {
	n := NewNetwork(time.Millisecond, time.Millisecond, 0, rand.New(rand.NewSource(1)))
	n.SetDropRate(1)
	for i := 0; i < 20; i++ {
		if _, ok := n.Route(raft.Envelope{From: 1, To: 2}, time.Unix(0, 0)); ok {
			t.Fatal("message delivered with drop rate 1")
		}
	}
}
