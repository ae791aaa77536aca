package rpc

import (
	"context"

	"go_raft_sim/raft"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Server decodes incoming envelopes into an inbox read by the node loop.
type Server struct {
	UnimplementedRaftRpcServer

	me     int
	inbox  chan raft.Envelope
	logger *log.Entry
}

func NewServer(me int, buffer int, logger *log.Entry) *Server {
	return &Server{
		me:     me,
		inbox:  make(chan raft.Envelope, buffer),
		logger: logger,
	}
}

func (s *Server) Inbox() <-chan raft.Envelope {
	return s.inbox
}

func (s *Server) Send(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	env, err := Decode(in.GetValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode envelope: %v", err)
	}
	if env.To != s.me {
		return nil, status.Errorf(codes.InvalidArgument, "envelope for %d delivered to %d", env.To, s.me)
	}
	select {
	case s.inbox <- env:
		return &emptypb.Empty{}, nil
	case <-ctx.Done():
		return nil, status.FromContextError(ctx.Err()).Err()
	default:
		// the node is behind, treat it as a lost message
		s.logger.Warnf("inbox full, drop %v from %d", env.Msg, env.From)
		return nil, status.Error(codes.ResourceExhausted, ErrInboxFull.Error())
	}
}
