package raft_sim

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go_raft_sim/raft"

	log "github.com/sirupsen/logrus"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"nodes": [{"id": 1, "addr": "a:1"}, {"id": 2, "addr": "a:2"}, {"id": 3, "addr": "a:3"}, {"id": 4, "addr": "a:4"}, {"id": 5, "addr": "a:5"}],
		"heartbeat_interval_ms": 30,
		"sim": {"drop_rate": 0.2, "commands": ["SET a 1"], "seed": 42},
		"log_format": "json"
	}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got := cfg.Ids(); !reflect.DeepEqual(got, []int{1, 2, 3, 4, 5}) {
		t.Errorf("ids mismatch: got %v", got)
	}
	if addr, ok := cfg.Addr(4); !ok || addr != "a:4" {
		t.Errorf("addr mismatch: got %q/%t", addr, ok)
	}
	if _, ok := cfg.Addr(9); ok {
		t.Error("unknown id has an address")
	}

	opts := cfg.NodeOptions(2)
	if opts.Id != 2 || opts.HeartbeatInterval != 30*time.Millisecond || opts.ElectionTimeoutMin != 150*time.Millisecond {
		t.Errorf("node options mismatch: %+v", opts)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("node options invalid: %v", err)
	}

	so := cfg.SimOptions()
	if so.DropRate != 0.2 || so.Seed != 42 || so.TickInterval != 10*time.Millisecond {
		t.Errorf("sim options mismatch: %+v", so)
	}
	if cfg.Sim.DurationMs != 30000 || cfg.Sim.CommandIntervalMs != 500 {
		t.Errorf("sim defaults lost: %+v", cfg.Sim)
	}

	logger := log.New()
	if err := cfg.SetupLogging(logger); err != nil {
		t.Fatalf("SetupLogging: %v", err)
	}
	if _, ok := logger.Formatter.(*log.JSONFormatter); !ok || logger.GetLevel() != log.InfoLevel {
		t.Errorf("logger mismatch: %T %v", logger.Formatter, logger.GetLevel())
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no nodes", func(c *Config) { c.Nodes = nil }},
		{"duplicate id", func(c *Config) { c.Nodes[1].Id = c.Nodes[0].Id }},
		{"election range", func(c *Config) { c.ElectionTimeoutMaxMs = c.ElectionTimeoutMinMs - 1 }},
		{"heartbeat", func(c *Config) { c.HeartbeatIntervalMs = c.ElectionTimeoutMinMs }},
		{"tick", func(c *Config) { c.Sim.TickIntervalMs = 0 }},
		{"latency", func(c *Config) { c.Sim.LatencyMaxMs = -1 }},
		{"drop rate", func(c *Config) { c.Sim.DropRate = 1.5 }},
		{"commands without interval", func(c *Config) { c.Sim.Commands = []string{"SET a 1"}; c.Sim.CommandIntervalMs = 0 }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, raft.ErrInvalidConfig) {
				t.Fatalf("got %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v", err)
	}
	if _, err := LoadConfig(writeConfig(t, `{"nodes": [`)); err == nil {
		t.Error("truncated file loaded")
	}
	if _, err := LoadConfig(writeConfig(t, `{"drop_rate": 2, "sim": {"drop_rate": 2}}`)); !errors.Is(err, raft.ErrInvalidConfig) {
		t.Errorf("invalid file: got %v", err)
	}
}
