package rpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go_raft_sim/raft"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// NewRpcClient opens a lazy connection to addr. Extra options are appended
// after the insecure transport credentials.
func NewRpcClient(addr string, opts ...grpc.DialOption) (RaftRpcClient, *grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		log.Errorf("connect addr %s failed: %v", addr, err)
		return nil, nil, err
	}
	return NewRaftRpcClient(conn), conn, nil
}

// Transport sends envelopes to the other members. Delivery is best effort:
// a failed send is the same as a lost message.
type Transport struct {
	mu      sync.Mutex
	peers   map[int]RaftRpcClient
	conns   []*grpc.ClientConn
	timeout time.Duration
	logger  *log.Entry
}

func NewTransport(addrs map[int]string, timeout time.Duration, logger *log.Entry, opts ...grpc.DialOption) (*Transport, error) {
	t := &Transport{
		peers:   make(map[int]RaftRpcClient, len(addrs)),
		timeout: timeout,
		logger:  logger,
	}
	for id, addr := range addrs {
		client, conn, err := NewRpcClient(addr, opts...)
		if err != nil {
			t.Close()
			return nil, fmt.Errorf("peer %d: %w", id, err)
		}
		t.peers[id] = client
		t.conns = append(t.conns, conn)
	}
	return t, nil
}

func (t *Transport) Send(ctx context.Context, env raft.Envelope) error {
	t.mu.Lock()
	client, ok := t.peers[env.To]
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", raft.ErrUnknownPeer, env.To)
	}
	data, err := Encode(env)
	if err != nil {
		return err
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	if _, err := client.Send(ctx, wrapperspb.Bytes(data)); err != nil {
		t.logger.Debugf("send %v to %d failed: %v", env.Msg, env.To, err)
		return err
	}
	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var first error
	for _, conn := range t.conns {
		if err := conn.Close(); err != nil && first == nil {
			first = err
		}
	}
	t.conns = nil
	t.peers = map[int]RaftRpcClient{}
	return first
}
