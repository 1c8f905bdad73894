// Package membus is the in-process Bus implementation used by tests
// and the cluster harness to run a whole cluster inside one process,
// without sockets. The same transport.Bus interface that
// transport/grpcbus satisfies over the network is satisfied here with
// nothing but buffered channels.
package membus

import (
	"context"
	"sync"

	"raftelect/internal/transport"
)

const inboxCapacity = 256

// Network is a shared in-process cluster of N buses. Construct one
// with New and take a Bus per rank from it.
type Network struct {
	size    int
	inboxes []chan transport.Envelope

	mu        sync.Mutex
	atBarrier int
	release   chan struct{}
}

// New builds a Network of size nodes, each with its own inbound
// queue, and returns the Bus for each rank.
func New(size int) []transport.Bus {
	n := &Network{
		size:    size,
		inboxes: make([]chan transport.Envelope, size),
		release: make(chan struct{}),
	}
	for i := range n.inboxes {
		n.inboxes[i] = make(chan transport.Envelope, inboxCapacity)
	}

	buses := make([]transport.Bus, size)
	for i := 0; i < size; i++ {
		buses[i] = &bus{net: n, rank: i}
	}
	return buses
}

// bus is one node's view of a Network.
type bus struct {
	net  *Network
	rank int
}

func (b *bus) Rank() int { return b.rank }
func (b *bus) Size() int { return b.net.size }

func (b *bus) Send(dest int, tag transport.MsgTag, term int64) {
	if dest < 0 || dest >= b.net.size || dest == b.rank {
		return
	}
	env := transport.Envelope{Source: b.rank, Tag: tag, Term: term}
	select {
	case b.net.inboxes[dest] <- env:
	default:
		// Best-effort: a full inbox means the destination is not
		// draining fast enough (or is "dead"); spec.md §4.D requires
		// Send to never block the caller, so the message is dropped.
	}
}

func (b *bus) Broadcast(tag transport.MsgTag, term int64) {
	for i := 0; i < b.net.size; i++ {
		if i != b.rank {
			b.Send(i, tag, term)
		}
	}
}

func (b *bus) TryRecv() (transport.Envelope, bool) {
	select {
	case env := <-b.net.inboxes[b.rank]:
		return env, true
	default:
		return transport.Envelope{}, false
	}
}

// Barrier blocks the calling goroutine until every rank in the
// Network has called Barrier, then releases all of them together.
func (b *bus) Barrier(ctx context.Context) error {
	n := b.net
	n.mu.Lock()
	n.atBarrier++
	last := n.atBarrier == n.size
	release := n.release
	if last {
		n.atBarrier = 0
		n.release = make(chan struct{})
	}
	n.mu.Unlock()

	if last {
		close(release)
		return nil
	}

	select {
	case <-release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
