package raft

import (
	"encoding/json"
	"fmt"

	"go_raft_sim/raft/common"
	"go_raft_sim/raft/state_machine_interface"
)

// saveState records the hard state. It is called every time currentTerm,
// votedFor or the log changes, i.e. wherever a durable node would have to
// sync before answering.
func (s *NodeState) saveState() {
	if s.persister == nil {
		return
	}
	data, err := json.Marshal(s.HardState())
	if err != nil {
		panic(err)
	}
	if err := s.persister.SaveState(data); err != nil {
		panic(err)
	}
}

// DecodeState parses a hard state produced by saveState.
func DecodeState(data []byte) (*common.State, error) {
	var state common.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("json.Unmarshal err: %w", err)
	}
	return &state, nil
}

// ReadState returns the latest hard state recorded by p.
func ReadState(p state_machine_interface.Persister) (*common.State, error) {
	data, err := p.ReadState()
	if err != nil {
		return nil, err
	}
	return DecodeState(data)
}
