package sim

import (
	"math/rand"
	"time"

	"go_raft_sim/raft"
)

// Network decides when, and whether, an envelope arrives. Links are
// symmetric; a cut link loses everything sent over it.
type Network struct {
	latencyMin time.Duration
	latencyMax time.Duration
	dropRate   float64
	rng        *rand.Rand
	cut        map[[2]int]bool
}

func NewNetwork(latencyMin, latencyMax time.Duration, dropRate float64, rng *rand.Rand) *Network {
	return &Network{
		latencyMin: latencyMin,
		latencyMax: latencyMax,
		dropRate:   dropRate,
		rng:        rng,
		cut:        make(map[[2]int]bool),
	}
}

func link(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func (n *Network) Cut(a, b int) {
	n.cut[link(a, b)] = true
}

// Isolate cuts id off from every member in ids.
func (n *Network) Isolate(id int, ids []int) {
	for _, other := range ids {
		if other != id {
			n.Cut(id, other)
		}
	}
}

// Partition splits the members into groups that only talk among themselves.
func (n *Network) Partition(groups ...[]int) {
	for i, g := range groups {
		for _, h := range groups[i+1:] {
			for _, a := range g {
				for _, b := range h {
					n.Cut(a, b)
				}
			}
		}
	}
}

func (n *Network) Heal() {
	n.cut = make(map[[2]int]bool)
}

func (n *Network) Connected(a, b int) bool {
	return a == b || !n.cut[link(a, b)]
}

func (n *Network) SetDropRate(rate float64) {
	n.dropRate = rate
}

// Route returns the arrival time of env sent at now, or false when it is lost.
func (n *Network) Route(env raft.Envelope, now time.Time) (time.Time, bool) {
	if !n.Connected(env.From, env.To) {
		return time.Time{}, false
	}
	if n.dropRate > 0 && n.rng.Float64() < n.dropRate {
		return time.Time{}, false
	}
	latency := n.latencyMin
	if spread := n.latencyMax - n.latencyMin; spread > 0 {
		latency += time.Duration(n.rng.Int63n(int64(spread) + 1))
	}
	return now.Add(latency), true
}
