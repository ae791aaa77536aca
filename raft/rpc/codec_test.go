package rpc

import (
	"errors"
	"reflect"
	"testing"

	"go_raft_sim/raft"
	"go_raft_sim/raft/common"
)

func TestCodecKeepsMessageKind(t *testing.T) {
	tests := []struct {
		name string
		env  raft.Envelope
	}{
		{"request vote", raft.Envelope{From: 1, To: 2, Msg: &raft.RequestVoteReq{Term: 3, CandidateId: 1, LastLogIndex: 4, LastLogTerm: 2}}},
		{"vote granted", raft.Envelope{From: 2, To: 1, Msg: &raft.RequestVoteResp{Term: 3, VoteGranted: true, From: 2}}},
		{"append with entries", raft.Envelope{From: 1, To: 3, Msg: &raft.AppendEntriesReq{
			Term: 3, LeaderId: 1, PrevLogIndex: 1, PrevLogTerm: 1,
			Entries:      []common.LogEntry{{Command: "SET a 1", Term: 3, Index: 2}},
			LeaderCommit: 1,
		}}},
		{"append rejected", raft.Envelope{From: 3, To: 1, Msg: &raft.AppendEntriesResp{Term: 3, From: 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.env)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(got, tt.env) {
				t.Errorf("envelope mismatch: got %+v, want %+v", got, tt.env)
			}
		})
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"install_snapshot","from":1,"to":2,"msg":{}}`))
	if !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("got %v, want ErrUnknownMessage", err)
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Fatal("expected an error for malformed input")
	}
}
