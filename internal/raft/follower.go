package raft

import (
	"time"

	"raftelect/internal/transport"
)

// doFollower is the Follower subroutine of spec.md §4.F. It returns
// when the election timeout elapses (the driver then dispatches to
// Candidate); role is never changed to Candidate except through that
// timeout path.
func (n *Node) doFollower() {
	lastHeartbeat := n.clk.Now()
	timeout := n.drawTimeout()

	for {
		if n.stopRequested() {
			return
		}

		if env, ok := n.bus.TryRecv(); ok {
			n.handleFollowerMessage(env, &lastHeartbeat)
		}

		if n.clk.ElapsedMs(lastHeartbeat) > timeout.Milliseconds() {
			n.log.Warning("heartbeat timed out as follower")
			n.setRole(Candidate)
			return
		}

		n.sleepPoll()
	}
}

// handleFollowerMessage applies the universal pre-dispatch rule and
// then the Follower-specific handling of spec.md §4.F.
func (n *Node) handleFollowerMessage(env transport.Envelope, lastHeartbeat *time.Time) {
	n.adoptHigherTerm(env.Term)

	switch env.Tag {
	case transport.Heartbeat:
		n.log.Debug("received heartbeat as follower")
		if env.Term >= n.currentTerm() {
			n.log.Debug("received valid heartbeat as follower")
			*lastHeartbeat = n.clk.Now()
		}

	case transport.VoteRequest:
		n.log.Debug("received vote request as follower")
		if env.Term < n.currentTerm() {
			// Refused by silence: a stale candidate's request is
			// simply ignored, never granted (spec.md §9 design note 3
			// corrects the original's misleading log here).
			n.log.Debug("ignoring vote request with stale term as follower")
			return
		}
		n.mu.Lock()
		grantable := n.votedFor == noVote || n.votedFor == env.Source
		if grantable {
			n.votedFor = env.Source
		}
		term := n.term
		n.mu.Unlock()
		if grantable {
			n.bus.Send(env.Source, transport.VoteResponse, term)
			n.log.Debug("granted vote request as follower")
		}

	default:
		n.log.Warning("received unexpected message as follower")
	}
}
