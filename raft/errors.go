package raft

import "errors"

var (
	// ErrNotLeader is returned when a command is proposed to a node that is not the leader.
	ErrNotLeader = errors.New("raft: not the leader")

	// ErrInvalidConfig is returned when node options are inconsistent.
	ErrInvalidConfig = errors.New("raft: invalid configuration")

	// ErrUnknownPeer is returned when an envelope names a member outside the cluster.
	ErrUnknownPeer = errors.New("raft: unknown peer")
)
