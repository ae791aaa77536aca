package global

import (
	raft_sim "go_raft_sim"
	"go_raft_sim/raft"
	"go_raft_sim/server/storage"

	log "github.com/sirupsen/logrus"
)

var (
	Config        *raft_sim.Config         // loaded configuration
	R             *raft.Raft               // live node, -mode node only
	StorageEngine *storage.Gomap           // state machine behind R
	Persister     *storage.MemoryPersister // hard state of R
	Logger        = log.NewEntry(log.StandardLogger())
)

const (
	ModeSim  = "sim"  // every node in one process on a simulated clock
	ModeNode = "node" // one node, wall clock, grpc transport
)
