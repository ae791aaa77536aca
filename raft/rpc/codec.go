package rpc

import (
	"encoding/json"
	"fmt"

	"go_raft_sim/raft"
)

const (
	typeRequestVote       = "request_vote"
	typeRequestVoteResp   = "request_vote_resp"
	typeAppendEntries     = "append_entries"
	typeAppendEntriesResp = "append_entries_resp"
)

type wireEnvelope struct {
	Type string          `json:"type"`
	From int             `json:"from"`
	To   int             `json:"to"`
	Msg  json.RawMessage `json:"msg"`
}

// Encode serializes an envelope for the wire.
func Encode(env raft.Envelope) ([]byte, error) {
	var kind string
	switch env.Msg.(type) {
	case *raft.RequestVoteReq:
		kind = typeRequestVote
	case *raft.RequestVoteResp:
		kind = typeRequestVoteResp
	case *raft.AppendEntriesReq:
		kind = typeAppendEntries
	case *raft.AppendEntriesResp:
		kind = typeAppendEntriesResp
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMessage, env.Msg)
	}
	msg, err := json.Marshal(env.Msg)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal err: %w", err)
	}
	return json.Marshal(wireEnvelope{Type: kind, From: env.From, To: env.To, Msg: msg})
}

func Decode(data []byte) (raft.Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return raft.Envelope{}, fmt.Errorf("json.Unmarshal err: %w", err)
	}
	var msg raft.Message
	switch w.Type {
	case typeRequestVote:
		msg = &raft.RequestVoteReq{}
	case typeRequestVoteResp:
		msg = &raft.RequestVoteResp{}
	case typeAppendEntries:
		msg = &raft.AppendEntriesReq{}
	case typeAppendEntriesResp:
		msg = &raft.AppendEntriesResp{}
	default:
		return raft.Envelope{}, fmt.Errorf("%w: %q", ErrUnknownMessage, w.Type)
	}
	if err := json.Unmarshal(w.Msg, msg); err != nil {
		return raft.Envelope{}, fmt.Errorf("json.Unmarshal %s err: %w", w.Type, err)
	}
	return raft.Envelope{From: w.From, To: w.To, Msg: msg}, nil
}
