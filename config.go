package raft_sim

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go_raft_sim/raft"
	"go_raft_sim/raft/common"
	"go_raft_sim/sim"

	log "github.com/sirupsen/logrus"
)

type NodeConfig struct {
	Id   int    `json:"id"`
	Addr string `json:"addr"` // host:port of the node's grpc listener
}

type SimConfig struct {
	DurationMs        int      `json:"duration_ms"`
	TickIntervalMs    int      `json:"tick_interval_ms"`
	LatencyMinMs      int      `json:"latency_min_ms"`
	LatencyMaxMs      int      `json:"latency_max_ms"`
	DropRate          float64  `json:"drop_rate"`
	Seed              int64    `json:"seed"`
	Commands          []string `json:"commands"`
	CommandIntervalMs int      `json:"command_interval_ms"`
}

type Config struct {
	Nodes                []NodeConfig `json:"nodes"`
	ElectionTimeoutMinMs int          `json:"election_timeout_min_ms"`
	ElectionTimeoutMaxMs int          `json:"election_timeout_max_ms"`
	HeartbeatIntervalMs  int          `json:"heartbeat_interval_ms"`
	Sim                  SimConfig    `json:"sim"`
	LogLevel             string       `json:"log_level"`
	LogFormat            string       `json:"log_format"`
}

func DefaultConfig() *Config {
	return &Config{
		Nodes: []NodeConfig{
			{Id: 1, Addr: "127.0.0.1:9001"},
			{Id: 2, Addr: "127.0.0.1:9002"},
			{Id: 3, Addr: "127.0.0.1:9003"},
		},
		ElectionTimeoutMinMs: common.ElectionBaseTimeout,
		ElectionTimeoutMaxMs: common.ElectionBaseTimeout + common.ElectionMaxExtraTimeout,
		HeartbeatIntervalMs:  common.HeartbeatInterval,
		Sim: SimConfig{
			DurationMs:        30000,
			TickIntervalMs:    10,
			LatencyMinMs:      5,
			LatencyMaxMs:      50,
			Seed:              1,
			CommandIntervalMs: 500,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadConfig reads a JSON file over the defaults. Fields missing from the
// file keep their default value.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("json.Unmarshal err: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Nodes) == 0 {
		return fmt.Errorf("%w: no nodes", raft.ErrInvalidConfig)
	}
	seen := make(map[int]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		if n.Id < 0 || seen[n.Id] {
			return fmt.Errorf("%w: bad or duplicate node id %d", raft.ErrInvalidConfig, n.Id)
		}
		seen[n.Id] = true
	}
	if c.ElectionTimeoutMinMs <= 0 || c.ElectionTimeoutMaxMs < c.ElectionTimeoutMinMs {
		return fmt.Errorf("%w: election timeout range [%d, %d]ms", raft.ErrInvalidConfig, c.ElectionTimeoutMinMs, c.ElectionTimeoutMaxMs)
	}
	if c.HeartbeatIntervalMs <= 0 || c.HeartbeatIntervalMs >= c.ElectionTimeoutMinMs {
		return fmt.Errorf("%w: heartbeat %dms must be below election timeout %dms", raft.ErrInvalidConfig, c.HeartbeatIntervalMs, c.ElectionTimeoutMinMs)
	}
	s := c.Sim
	if s.DurationMs <= 0 || s.TickIntervalMs <= 0 {
		return fmt.Errorf("%w: sim duration %dms tick %dms", raft.ErrInvalidConfig, s.DurationMs, s.TickIntervalMs)
	}
	if s.LatencyMinMs < 0 || s.LatencyMaxMs < s.LatencyMinMs {
		return fmt.Errorf("%w: latency range [%d, %d]ms", raft.ErrInvalidConfig, s.LatencyMinMs, s.LatencyMaxMs)
	}
	if s.DropRate < 0 || s.DropRate >= 1 {
		return fmt.Errorf("%w: drop rate %v not in [0, 1)", raft.ErrInvalidConfig, s.DropRate)
	}
	if len(s.Commands) > 0 && s.CommandIntervalMs <= 0 {
		return fmt.Errorf("%w: command interval %dms", raft.ErrInvalidConfig, s.CommandIntervalMs)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", raft.ErrInvalidConfig, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: log format %q", raft.ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

func (c *Config) Ids() []int {
	ids := make([]int, len(c.Nodes))
	for i, n := range c.Nodes {
		ids[i] = n.Id
	}
	return ids
}

func (c *Config) Addr(id int) (string, bool) {
	for _, n := range c.Nodes {
		if n.Id == id {
			return n.Addr, true
		}
	}
	return "", false
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func (c *Config) NodeOptions(id int) raft.Options {
	opts := raft.DefaultOptions(id, c.Ids())
	opts.ElectionTimeoutMin = ms(c.ElectionTimeoutMinMs)
	opts.ElectionTimeoutMax = ms(c.ElectionTimeoutMaxMs)
	opts.HeartbeatInterval = ms(c.HeartbeatIntervalMs)
	return opts
}

func (c *Config) SimOptions() sim.Options {
	return sim.Options{
		Ids:                c.Ids(),
		ElectionTimeoutMin: ms(c.ElectionTimeoutMinMs),
		ElectionTimeoutMax: ms(c.ElectionTimeoutMaxMs),
		HeartbeatInterval:  ms(c.HeartbeatIntervalMs),
		TickInterval:       ms(c.Sim.TickIntervalMs),
		LatencyMin:         ms(c.Sim.LatencyMinMs),
		LatencyMax:         ms(c.Sim.LatencyMaxMs),
		DropRate:           c.Sim.DropRate,
		Seed:               c.Sim.Seed,
	}
}

// SetupLogging applies the configured level and format to logger.
func (c *Config) SetupLogging(logger *log.Logger) error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	if c.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
