package grpcbus

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/net/netutil"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"raftelect/internal/logging"
	"raftelect/internal/transport"
)

// Bus is the network transport.Bus implementation: a gRPC server
// accepting one Exchange stream per peer, plus one peerLink dialed to
// every other rank.
type Bus struct {
	rank int
	size int

	srv   *server
	grpcS *grpc.Server
	inbox chan transport.Envelope

	peers      map[int]*peerLink
	rankZero   string // address of rank 0, used for Barrier
	rankZeroID int
}

const inboxCapacity = 4096

// maxInboundConns bounds the listener's accepted connections to the
// number of peers, N-1 (or 1 for a single-node cluster), since only
// the N-1 other ranks dial in; beyond that a misbehaving or
// duplicate launcher would otherwise exhaust file descriptors.
func maxInboundConns(size int) int {
	if size <= 1 {
		return 1
	}
	return size - 1
}

// Dial constructs a Bus for rank, listening on listenAddr and dialing
// every address in peerAddrs (indexed by rank, peerAddrs[rank] is
// this node's own address and is skipped).
func Dial(rank int, listenAddr string, peerAddrs []string, log *logging.Logger) (*Bus, error) {
	size := len(peerAddrs)
	inbox := make(chan transport.Envelope, inboxCapacity)
	srv := newServer(size, inbox, log)

	lis, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("grpcbus: listen on %s: %w", listenAddr, err)
	}
	lis = netutil.LimitListener(lis, maxInboundConns(size))

	grpcS := grpc.NewServer()
	grpcS.RegisterService(&serviceDesc, srv)
	go func() {
		_ = grpcS.Serve(lis)
	}()

	b := &Bus{
		rank:       rank,
		size:       size,
		srv:        srv,
		grpcS:      grpcS,
		inbox:      inbox,
		peers:      make(map[int]*peerLink),
		rankZero:   peerAddrs[0],
		rankZeroID: 0,
	}
	for i, addr := range peerAddrs {
		if i == rank {
			continue
		}
		b.peers[i] = newPeerLink(i, addr, log)
	}
	return b, nil
}

func (b *Bus) Rank() int { return b.rank }
func (b *Bus) Size() int { return b.size }

func (b *Bus) Send(dest int, tag transport.MsgTag, term int64) {
	link, ok := b.peers[dest]
	if !ok {
		return
	}
	msg, err := encodeEnvelope(transport.Envelope{Source: b.rank, Tag: tag, Term: term})
	if err != nil {
		return
	}
	link.enqueue(msg)
}

func (b *Bus) Broadcast(tag transport.MsgTag, term int64) {
	for dest := range b.peers {
		b.Send(dest, tag, term)
	}
}

func (b *Bus) TryRecv() (transport.Envelope, bool) {
	select {
	case env := <-b.inbox:
		return env, true
	default:
		return transport.Envelope{}, false
	}
}

// Barrier calls the Barrier RPC against rank 0 (or, if this node is
// rank 0, answers it directly via the same rendezvous the server
// would use for remote callers).
func (b *Bus) Barrier(ctx context.Context) error {
	if b.rank == b.rankZeroID {
		_, err := b.srv.barrier(ctx, nil)
		return err
	}
	link, ok := b.peers[b.rankZeroID]
	if !ok {
		return fmt.Errorf("grpcbus: no link to rank 0")
	}
	for {
		if conn := link.dialedConn(); conn != nil {
			req, err := encodeRank(b.rank)
			if err != nil {
				return err
			}
			reply := new(structpb.Struct)
			err = conn.Invoke(ctx, serviceName+"/Barrier", req, reply)
			if err == nil {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// Close stops the gRPC server. Peer dial loops are best-effort and
// exit with the process.
func (b *Bus) Close() {
	b.grpcS.Stop()
}
