// Package raft implements the per-node Raft role state machine of
// spec.md §4.F: Follower, Candidate, and Leader subroutines sharing
// term and vote bookkeeping, dispatched by a driver loop. Role
// transitions go through a table-driven statemachine, and the
// subroutines poll a transport rather than making synchronous RPC
// calls.
package raft

import (
	"fmt"
	"sync"
	"time"

	"raftelect/internal/clock"
	"raftelect/internal/failure"
	"raftelect/internal/logging"
	"raftelect/internal/randsrc"
	"raftelect/internal/transport"
)

// Fixed protocol constants (spec.md §4.F).
const (
	PollIntervalMs      = 10
	BroadcastIntervalMs = 1000
)

const noVote = -1

// TimeoutRange is the [min, max] election timeout window (spec.md §3).
type TimeoutRange struct {
	MinMs int
	MaxMs int
}

// Node is one cluster member's Raft state (spec.md §3). Exactly one
// goroutine — the one running Run — mutates role, term, and votedFor;
// the mutex exists only so GetState can be read safely from outside
// that goroutine (metrics, tests).
type Node struct {
	mu sync.Mutex

	rank Rank
	size int

	sm       *statemachine
	term     int64
	votedFor int // noVote, or a peer rank

	timeout TimeoutRange

	bus    transport.Bus
	rnd    *randsrc.Source
	clk    *clock.Clock
	log    *logging.Logger
	oracle *failure.Oracle

	stop     chan struct{}
	stopOnce sync.Once
}

// Rank is a node's index into [0, Size).
type Rank = int

// Config bundles the construction parameters a launcher supplies.
type Config struct {
	Timeout  TimeoutRange
	FailSpec failure.Spec
}

// New constructs a Node in the initial Follower role, term 0, no vote
// (spec.md §4.F "Initial state").
func New(bus transport.Bus, cfg Config, log *logging.Logger) *Node {
	clk := clock.New()
	rnd := randsrc.New()
	n := &Node{
		rank:     bus.Rank(),
		size:     bus.Size(),
		sm:       newStatemachine(),
		term:     0,
		votedFor: noVote,
		timeout:  cfg.Timeout,
		bus:      bus,
		rnd:      rnd,
		clk:      clk,
		log:      log,
		stop:     make(chan struct{}),
	}
	n.oracle = failure.New(cfg.FailSpec, rnd, clk, log)
	return n
}

// GetState returns the current term and whether this node believes
// itself to be the Leader.
func (n *Node) GetState() (term int64, isLeader bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.term, n.sm.current == Leader
}

// Role returns the node's current role. Intended for tests and
// metrics; the role subroutines themselves never call it (they are
// the single writer and already know their own role).
func (n *Node) Role() Role {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sm.current
}

// Stop asks Run's driver loop to return after its current subroutine
// returns. Safe to call more than once or concurrently. Intended for
// test harnesses; production nodes run forever per spec.md §4.F
// ("Terminal: none").
func (n *Node) Stop() {
	n.stopOnce.Do(func() { close(n.stop) })
}

// Run is the driver loop of spec.md §4.F: forever dispatch to the
// subroutine for the current role, then loop. There is no Dead role
// to fall into (spec.md §9 design note 2) — the failure oracle's
// pause happens from inside doLeader's loop, not here.
func (n *Node) Run() {
	for {
		select {
		case <-n.stop:
			return
		default:
		}

		role := n.Role()
		switch role {
		case Follower:
			n.log.Info("state changed to follower")
			n.doFollower()
		case Candidate:
			n.log.Info("state changed to candidate")
			n.doCandidate()
		case Leader:
			n.log.Info("state changed to leader")
			n.doLeader()
		default:
			n.log.Warning(fmt.Sprintf("unsupported node state found: %v", role))
			return
		}
	}
}

// adoptHigherTerm implements the universal pre-dispatch rule (spec.md
// §4.F): if t is strictly greater than the current term, adopt it and
// clear the vote. It does not change role; callers decide that.
// Returns whether the term was adopted.
func (n *Node) adoptHigherTerm(t int64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if t > n.term {
		n.term = t
		n.votedFor = noVote
		return true
	}
	return false
}

func (n *Node) currentTerm() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.term
}

func (n *Node) setRole(r Role) {
	n.mu.Lock()
	n.sm.next(r)
	n.mu.Unlock()
}

func (n *Node) drawTimeout() time.Duration {
	return time.Duration(n.rnd.Int(n.timeout.MinMs, n.timeout.MaxMs)) * time.Millisecond
}

func (n *Node) sleepPoll() {
	time.Sleep(PollIntervalMs * time.Millisecond)
}

// stopRequested reports whether Stop has been called. The role
// subroutines check it on every loop iteration so a test harness can
// simulate a node vanishing from the cluster without waiting for the
// subroutine's own timeout or broadcast logic to return naturally.
func (n *Node) stopRequested() bool {
	select {
	case <-n.stop:
		return true
	default:
		return false
	}
}
