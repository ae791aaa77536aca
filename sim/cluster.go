package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go_raft_sim/raft"
	"go_raft_sim/raft/common"
	"go_raft_sim/server/storage"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrNoLeader = errors.New("sim: no leader")

type Options struct {
	Ids []int

	ElectionTimeoutMin time.Duration
	ElectionTimeoutMax time.Duration
	HeartbeatInterval  time.Duration
	TickInterval       time.Duration

	LatencyMin time.Duration
	LatencyMax time.Duration
	DropRate   float64

	Seed   int64
	Logger *log.Logger // defaults to the standard logger
}

// DefaultOptions describes a cluster of ids 1..size with the node defaults,
// a 10ms tick and 5-15ms of latency.
func DefaultOptions(size int) Options {
	ids := make([]int, size)
	for i := range ids {
		ids[i] = i + 1
	}
	node := raft.DefaultOptions(1, ids)
	return Options{
		Ids:                ids,
		ElectionTimeoutMin: node.ElectionTimeoutMin,
		ElectionTimeoutMax: node.ElectionTimeoutMax,
		HeartbeatInterval:  node.HeartbeatInterval,
		TickInterval:       10 * time.Millisecond,
		LatencyMin:         5 * time.Millisecond,
		LatencyMax:         15 * time.Millisecond,
		Seed:               1,
	}
}

// Cluster runs every node on one simulated clock. Nothing happens between
// events, so a run is reproducible from its seed.
type Cluster struct {
	RunId string

	start time.Time
	now   time.Time
	tick  time.Duration

	ids        []int
	nodes      map[int]*raft.Raft
	stores     map[int]*storage.Gomap
	persisters map[int]*storage.MemoryPersister
	audited    map[int]int // persister records already shown to the checker

	queue   *Queue
	net     *Network
	checker *Checker
	logger  *log.Entry

	delivered int
	dropped   int
}

func New(opts Options) (*Cluster, error) {
	if len(opts.Ids) == 0 {
		return nil, fmt.Errorf("%w: empty cluster", raft.ErrInvalidConfig)
	}
	if opts.TickInterval <= 0 {
		return nil, fmt.Errorf("%w: tick interval %s", raft.ErrInvalidConfig, opts.TickInterval)
	}
	if opts.LatencyMin < 0 || opts.LatencyMax < opts.LatencyMin {
		return nil, fmt.Errorf("%w: latency range [%s, %s]", raft.ErrInvalidConfig, opts.LatencyMin, opts.LatencyMax)
	}
	if opts.DropRate < 0 || opts.DropRate >= 1 {
		return nil, fmt.Errorf("%w: drop rate %v", raft.ErrInvalidConfig, opts.DropRate)
	}
	base := opts.Logger
	if base == nil {
		base = log.StandardLogger()
	}
	runId := uuid.New().String()
	start := time.Unix(0, 0).UTC()
	c := &Cluster{
		RunId:      runId,
		start:      start,
		now:        start,
		tick:       opts.TickInterval,
		ids:        append([]int(nil), opts.Ids...),
		nodes:      make(map[int]*raft.Raft, len(opts.Ids)),
		stores:     make(map[int]*storage.Gomap, len(opts.Ids)),
		persisters: make(map[int]*storage.MemoryPersister, len(opts.Ids)),
		audited:    make(map[int]int, len(opts.Ids)),
		queue:      NewQueue(),
		net:        NewNetwork(opts.LatencyMin, opts.LatencyMax, opts.DropRate, rand.New(rand.NewSource(opts.Seed))),
		checker:    NewChecker(),
		logger:     base.WithField("run", runId),
	}
	sort.Ints(c.ids)

	for _, id := range c.ids {
		store := storage.NewGomap(16)
		persister := storage.NewMemoryPersister()
		node, err := raft.New(raft.Options{
			Id:                 id,
			Peers:              c.ids,
			ElectionTimeoutMin: opts.ElectionTimeoutMin,
			ElectionTimeoutMax: opts.ElectionTimeoutMax,
			HeartbeatInterval:  opts.HeartbeatInterval,
			Rand:               rand.New(rand.NewSource(opts.Seed + int64(id))),
			Persister:          persister,
			Apply:              store,
			Logger:             c.logger,
		}, start)
		if err != nil {
			return nil, err
		}
		c.nodes[id] = node
		c.stores[id] = store
		c.persisters[id] = persister
		c.queue.Push(&Event{At: start.Add(c.tick), Kind: EventTick, Node: id})
	}
	c.logger.Infof("cluster of %d nodes, seed %d", len(c.ids), opts.Seed)
	return c, nil
}

func (c *Cluster) Now() time.Time { return c.now }

// Elapsed is the simulated time since the run started.
func (c *Cluster) Elapsed() time.Duration { return c.now.Sub(c.start) }

func (c *Cluster) Ids() []int { return append([]int(nil), c.ids...) }

func (c *Cluster) Node(id int) *raft.Raft { return c.nodes[id] }

func (c *Cluster) Store(id int) *storage.Gomap { return c.stores[id] }

func (c *Cluster) Network() *Network { return c.net }

func (c *Cluster) Delivered() int { return c.delivered }

func (c *Cluster) Dropped() int { return c.dropped }

// Step processes the next event. It returns false when nothing is queued.
func (c *Cluster) Step() bool {
	e, ok := c.queue.Pop()
	if !ok {
		return false
	}
	c.now = e.At
	switch e.Kind {
	case EventTick:
		out := c.nodes[e.Node].AdvanceTime(c.now)
		c.queue.Push(&Event{At: c.now.Add(c.tick), Kind: EventTick, Node: e.Node})
		c.send(out)
	case EventDeliver:
		c.delivered++
		c.logger.Debugf("deliver %d -> %d %v", e.Env.From, e.Env.To, e.Env.Msg)
		out := c.nodes[e.Env.To].Deliver(e.Env.Msg, c.now)
		c.send(out)
	}
	c.audit()
	return true
}

func (c *Cluster) send(envs []raft.Envelope) {
	for _, env := range envs {
		if _, ok := c.nodes[env.To]; !ok {
			c.logger.Warnf("drop envelope for %d: %v", env.To, raft.ErrUnknownPeer)
			continue
		}
		at, ok := c.net.Route(env, c.now)
		if !ok {
			c.dropped++
			c.logger.Debugf("lost %d -> %d %v", env.From, env.To, env.Msg)
			continue
		}
		c.queue.Push(&Event{At: at, Kind: EventDeliver, Env: env})
	}
}

func (c *Cluster) audit() {
	if err := c.checker.Check(c.views()); err != nil {
		c.logger.Error(err)
		panic(err)
	}
}

func (c *Cluster) views() []NodeView {
	out := make([]NodeView, 0, len(c.ids))
	for _, id := range c.ids {
		n := c.nodes[id]
		records := c.persisters[id].HistorySince(c.audited[id])
		c.audited[id] += len(records)
		states := make([]common.State, 0, len(records))
		for _, rec := range records {
			st, err := raft.DecodeState(rec)
			if err != nil {
				panic(err)
			}
			states = append(states, *st)
		}
		out = append(out, NodeView{
			Id:          id,
			Status:      n.Status(),
			Term:        n.Term(),
			CommitIndex: n.CommitIndex(),
			Entries:     n.Entries(),
			States:      states,
		})
	}
	return out
}

// RunUntil processes every event due at or before t and leaves the clock at t.
func (c *Cluster) RunUntil(t time.Time) {
	for {
		e, ok := c.queue.Peek()
		if !ok || e.At.After(t) {
			break
		}
		c.Step()
	}
	if t.After(c.now) {
		c.now = t
	}
}

func (c *Cluster) RunFor(d time.Duration) {
	c.RunUntil(c.now.Add(d))
}

// RunUntilLeader runs until some node is leader or limit elapses.
func (c *Cluster) RunUntilLeader(limit time.Duration) (int, bool) {
	deadline := c.now.Add(limit)
	for {
		if id, ok := c.Leader(); ok {
			return id, true
		}
		e, ok := c.queue.Peek()
		if !ok || e.At.After(deadline) {
			return 0, false
		}
		c.Step()
	}
}

// Leaders lists every node that currently believes it is leader. Stale
// leaders of older terms can linger until they hear of a newer term.
func (c *Cluster) Leaders() []int {
	var out []int
	for _, id := range c.ids {
		if c.nodes[id].IsLeader() {
			out = append(out, id)
		}
	}
	return out
}

// Leader returns the leader of the highest term.
func (c *Cluster) Leader() (int, bool) {
	best, term := 0, -1
	for _, id := range c.Leaders() {
		if t := c.nodes[id].Term(); t > term {
			best, term = id, t
		}
	}
	return best, term >= 0
}

// Propose appends command on the current leader.
func (c *Cluster) Propose(command string) (index int, term int, err error) {
	id, ok := c.Leader()
	if !ok {
		return 0, 0, ErrNoLeader
	}
	index, term, err = c.nodes[id].Propose(command, c.now)
	if err == nil {
		c.audit()
	}
	return index, term, err
}

// Summary logs where every node ended up.
func (c *Cluster) Summary() {
	for _, id := range c.ids {
		n := c.nodes[id]
		c.logger.WithFields(log.Fields{
			"node":         id,
			"status":       n.Status().String(),
			"term":         n.Term(),
			"commit_index": n.CommitIndex(),
			"last_applied": n.LastApplied(),
			"keys":         len(*c.stores[id]),
		}).Info("node summary")
	}
	c.logger.Infof("elapsed %s, delivered %d, lost %d", c.Elapsed(), c.delivered, c.dropped)
}
