package rpc

import "errors"

var (
	ErrUnknownMessage = errors.New("rpc: unknown message type")
	ErrInboxFull      = errors.New("rpc: inbox full")
)
