package raft

import (
	"time"

	"raftelect/internal/failure"
	"raftelect/internal/transport"
)

// doLeader is the Leader subroutine of spec.md §4.F: periodic
// heartbeats, message dispatch, and the failure oracle's dead-time
// pause, which resumes the node in the same role it had before
// pausing (spec.md §4.E) — there is no separate Dead role to return
// to (spec.md §9 design note 2).
func (n *Node) doLeader() {
	// Due immediately, matching the Candidate subroutine's first
	// broadcast.
	lastBroadcast := n.clk.Now().Add(-BroadcastIntervalMs * time.Millisecond)

	for {
		if n.stopRequested() {
			return
		}

		if n.clk.ElapsedMs(lastBroadcast) >= BroadcastIntervalMs {
			n.log.Debug("broadcasting heartbeat")
			n.bus.Broadcast(transport.Heartbeat, n.currentTerm())
			lastBroadcast = n.clk.Now()
		}

		if env, ok := n.bus.TryRecv(); ok {
			if n.handleLeaderMessage(env) {
				return
			}
		}

		if n.oracle.Triggered() {
			n.log.Warning("node is DEAD")
			time.Sleep(failure.DeadTimeMs * time.Millisecond)
			n.log.Info("node is back online")
		}

		n.sleepPoll()
	}
}

// handleLeaderMessage returns true when the Leader subroutine should
// step down and return.
func (n *Node) handleLeaderMessage(env transport.Envelope) bool {
	oldTerm := n.currentTerm()
	adopted := n.adoptHigherTerm(env.Term)

	switch env.Tag {
	case transport.Heartbeat:
		switch {
		case adopted:
			n.setRole(Follower)
			return true
		case env.Term == oldTerm:
			n.log.Warning("received heartbeat from another node at the same term")
		default:
			n.log.Debug("ignoring stale heartbeat as leader")
		}

	case transport.VoteRequest:
		term := n.currentTerm()
		if env.Term >= term {
			n.mu.Lock()
			grantable := n.votedFor == noVote || n.votedFor == env.Source
			if grantable {
				n.term = env.Term
				n.votedFor = env.Source
			}
			grantTerm := n.term
			n.mu.Unlock()
			if grantable {
				n.bus.Send(env.Source, transport.VoteResponse, grantTerm)
				n.setRole(Follower)
				return true
			}
		}

	case transport.VoteResponse:
		if adopted {
			// Not reachable in a correct FIFO cluster (a VoteResponse
			// at a higher term implies a VoteRequest this node never
			// sent), but P5 requires any higher-term message to end
			// the Leader subroutine, so step down rather than keep
			// reporting isLeader=true at a term never won.
			n.setRole(Follower)
			return true
		}
		n.log.Debug("ignoring stale vote response as leader")

	default:
		n.log.Warning("unhandled message as leader")
	}

	return false
}
