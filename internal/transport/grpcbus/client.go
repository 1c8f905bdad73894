package grpcbus

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"raftelect/internal/logging"
)

const outboxCapacity = 256

// peerLink owns the single client-streaming call this node uses to
// send envelopes to one peer. A dedicated goroutine drains outbox and
// writes to the stream, so Send (spec.md §4.D) never blocks its
// caller on network I/O.
type peerLink struct {
	rank   int
	addr   string
	outbox chan *structpb.Struct
	log    *logging.Logger

	mu   sync.Mutex
	conn *grpc.ClientConn
}

func newPeerLink(rank int, addr string, log *logging.Logger) *peerLink {
	p := &peerLink{rank: rank, addr: addr, outbox: make(chan *structpb.Struct, outboxCapacity), log: log}
	go p.run()
	return p
}

// run keeps re-dialing and re-opening the Exchange stream for as long
// as the process lives; a dead peer (per the failure oracle, or a
// genuine crash) just accumulates dropped sends until it returns,
// matching the non-goal of transport-level recovery guarantees.
func (p *peerLink) run() {
	for {
		conn, err := grpc.Dial(p.addr, grpc.WithInsecure(), grpc.WithBlock())
		if err != nil {
			p.log.Warning(fmt.Sprintf("grpcbus: dial rank %d (%s) failed: %v", p.rank, p.addr, err))
			continue
		}
		p.mu.Lock()
		p.conn = conn
		p.mu.Unlock()

		stream, err := conn.NewStream(context.Background(), &serviceDesc.Streams[0], serviceName+"/Exchange")
		if err != nil {
			p.log.Warning(fmt.Sprintf("grpcbus: open stream to rank %d failed: %v", p.rank, err))
			conn.Close()
			continue
		}

		p.drain(stream)
		conn.Close()
	}
}

func (p *peerLink) drain(stream grpc.ClientStream) {
	for msg := range p.outbox {
		if err := stream.SendMsg(msg); err != nil {
			p.log.Warning(fmt.Sprintf("grpcbus: send to rank %d failed: %v", p.rank, err))
			return
		}
	}
}

// enqueue is the non-blocking half of Send: a full outbox means the
// stream is backed up (or the peer link is between dial attempts), so
// the message is dropped rather than blocking the caller.
func (p *peerLink) enqueue(msg *structpb.Struct) {
	select {
	case p.outbox <- msg:
	default:
		p.log.Debug(fmt.Sprintf("grpcbus: outbox to rank %d full, dropping message", p.rank))
	}
}

func (p *peerLink) dialedConn() *grpc.ClientConn {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn
}
