package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	raft_sim "go_raft_sim"
	"go_raft_sim/raft"
	"go_raft_sim/raft/rpc"
	"go_raft_sim/server/global"
	"go_raft_sim/server/storage"
	"go_raft_sim/sim"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file, defaults are used when empty")
	mode := flag.String("mode", global.ModeSim, "sim: whole cluster on a simulated clock, node: one live node over grpc")
	id := flag.Int("id", 1, "node id for -mode node")
	flag.Parse()

	if err := run(*configPath, *mode, *id); err != nil {
		log.Errorf("exit: %v", err)
		os.Exit(1)
	}
}

func run(configPath, mode string, id int) error {
	cfg := raft_sim.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = raft_sim.LoadConfig(configPath); err != nil {
			return err
		}
	}
	if err := cfg.SetupLogging(log.StandardLogger()); err != nil {
		return err
	}
	global.Config = cfg

	switch mode {
	case global.ModeSim:
		return runSim(cfg)
	case global.ModeNode:
		return runNode(cfg, id)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

func runSim(cfg *raft_sim.Config) error {
	opts := cfg.SimOptions()
	opts.Logger = log.StandardLogger()
	c, err := sim.New(opts)
	if err != nil {
		return err
	}
	global.Logger = log.WithField("run", c.RunId)

	duration := time.Duration(cfg.Sim.DurationMs) * time.Millisecond
	interval := time.Duration(cfg.Sim.CommandIntervalMs) * time.Millisecond
	for _, command := range cfg.Sim.Commands {
		if c.Elapsed() >= duration {
			break
		}
		c.RunFor(interval)
		index, term, err := c.Propose(command)
		if err != nil {
			global.Logger.Warnf("command %q not proposed: %v", command, err)
			continue
		}
		global.Logger.Infof("command %q at index %d term %d", command, index, term)
	}
	if rest := duration - c.Elapsed(); rest > 0 {
		c.RunFor(rest)
	}
	c.Summary()
	return nil
}

func runNode(cfg *raft_sim.Config, id int) error {
	addr, ok := cfg.Addr(id)
	if !ok {
		return fmt.Errorf("%w: %d", raft.ErrUnknownPeer, id)
	}
	logger := log.WithField("node", id)
	global.Logger = logger

	global.StorageEngine = storage.NewGomap(64)
	global.Persister = storage.NewMemoryPersister()
	opts := cfg.NodeOptions(id)
	opts.Apply = global.StorageEngine
	opts.Persister = global.Persister
	opts.Logger = log.NewEntry(log.StandardLogger())
	r, err := raft.New(opts, time.Now())
	if err != nil {
		return err
	}
	global.R = r

	peers := make(map[int]string, len(cfg.Nodes)-1)
	for _, n := range cfg.Nodes {
		if n.Id != id {
			peers[n.Id] = n.Addr
		}
	}
	transport, err := rpc.NewTransport(peers, time.Duration(cfg.HeartbeatIntervalMs)*time.Millisecond, logger)
	if err != nil {
		return err
	}
	defer transport.Close()

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := rpc.NewServer(id, 1024, logger)
	gs := grpc.NewServer()
	rpc.RegisterRaftRpcServer(gs, srv)
	go func() {
		if err := gs.Serve(lis); err != nil {
			logger.Errorf("grpc serve: %v", err)
		}
	}()
	defer gs.GracefulStop()
	logger.Infof("listening on %s, peers %v", addr, peers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return loop(ctx, cfg, r, srv, transport)
}

// loop owns r: every Deliver and AdvanceTime happens on this goroutine.
func loop(ctx context.Context, cfg *raft_sim.Config, r *raft.Raft, srv *rpc.Server, transport *rpc.Transport) error {
	ticker := time.NewTicker(time.Duration(cfg.Sim.TickIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	var commands <-chan time.Time
	if len(cfg.Sim.Commands) > 0 {
		t := time.NewTicker(time.Duration(cfg.Sim.CommandIntervalMs) * time.Millisecond)
		defer t.Stop()
		commands = t.C
	}
	next := 0

	send := func(out []raft.Envelope) {
		for _, env := range out {
			go func(env raft.Envelope) {
				if err := transport.Send(ctx, env); err != nil {
					global.Logger.Debugf("send to %d: %v", env.To, err)
				}
			}(env)
		}
	}

	for {
		select {
		case <-ctx.Done():
			global.Logger.WithFields(log.Fields{
				"status":       r.Status().String(),
				"term":         r.Term(),
				"commit_index": r.CommitIndex(),
				"keys":         len(*global.StorageEngine),
			}).Info("shutting down")
			return nil
		case now := <-ticker.C:
			send(r.AdvanceTime(now))
		case env := <-srv.Inbox():
			send(r.Deliver(env.Msg, time.Now()))
		case <-commands:
			if !r.IsLeader() || next >= len(cfg.Sim.Commands) {
				continue
			}
			index, term, err := r.Propose(cfg.Sim.Commands[next], time.Now())
			if err != nil {
				global.Logger.Warnf("propose: %v", err)
				continue
			}
			global.Logger.Infof("command %q at index %d term %d", cfg.Sim.Commands[next], index, term)
			next++
		}
	}
}
