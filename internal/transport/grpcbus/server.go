package grpcbus

import (
	"context"
	"fmt"
	"io"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"raftelect/internal/logging"
	"raftelect/internal/transport"
)

// server is the gRPC-facing half of a Bus: it accepts one inbound
// Exchange stream per peer and feeds decoded envelopes into inbox,
// and answers the startup Barrier rendezvous.
type server struct {
	size  int
	inbox chan transport.Envelope
	log   *logging.Logger

	mu        sync.Mutex
	atBarrier int
	release   chan struct{}
}

func newServer(size int, inbox chan transport.Envelope, log *logging.Logger) *server {
	return &server{size: size, inbox: inbox, log: log, release: make(chan struct{})}
}

// exchange services one peer's outbound envelope stream for as long
// as that peer keeps the connection open. Each peer gets its own
// stream, so FIFO-per-link (spec.md §4.D) falls out of gRPC's own
// in-order delivery on a single stream.
func (s *server) exchange(stream grpc.ServerStream) error {
	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if err == io.EOF {
				return nil
			}
			s.log.Warning(fmt.Sprintf("grpcbus: peer stream closed: %v", err))
			return err
		}
		env, err := decodeEnvelope(msg)
		if err != nil {
			s.log.Warning(fmt.Sprintf("grpcbus: malformed envelope: %v", err))
			continue
		}
		select {
		case s.inbox <- env:
		default:
			s.log.Debug("grpcbus: inbox full, dropping message")
		}
	}
}

// barrier implements the cluster-wide rendezvous: the handling node
// (always rank 0 in practice, since every other rank dials rank 0 for
// this RPC) blocks every caller until size of them have checked in,
// then releases them all together.
func (s *server) barrier(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	s.mu.Lock()
	s.atBarrier++
	last := s.atBarrier == s.size
	release := s.release
	if last {
		s.atBarrier = 0
		s.release = make(chan struct{})
	}
	s.mu.Unlock()

	if last {
		close(release)
		return structpb.NewStruct(nil)
	}

	select {
	case <-release:
		return structpb.NewStruct(nil)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
