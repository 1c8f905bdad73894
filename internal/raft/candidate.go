package raft

import (
	"time"

	"raftelect/internal/quorum"
	"raftelect/internal/transport"
)

// doCandidate is the Candidate subroutine of spec.md §4.F. It starts
// a new term, votes for itself, and either wins a majority (Leader),
// discovers a higher term or an established Leader (Follower), or
// times out unresolved (returns with role unchanged — the driver
// re-enters doCandidate, starting a fresh term; this is how split
// votes are resolved, per spec.md §9 design note 1 the elapsed time
// on the first loop iteration is measured from electionStart, never
// from an uninitialized duration).
func (n *Node) doCandidate() {
	n.mu.Lock()
	n.term++
	n.votedFor = n.rank
	term := n.term
	n.mu.Unlock()

	votes := make([]bool, n.size)
	votes[n.rank] = true
	if quorum.Majority(votes) {
		n.setRole(Leader)
		return
	}

	electionTime := n.drawTimeout()
	electionStart := n.clk.Now()
	// Due immediately: the first loop iteration always broadcasts.
	lastBroadcast := electionStart.Add(-BroadcastIntervalMs * time.Millisecond)

	for n.clk.ElapsedMs(electionStart) < electionTime.Milliseconds() {
		if n.stopRequested() {
			return
		}

		if n.clk.ElapsedMs(lastBroadcast) >= BroadcastIntervalMs {
			n.bus.Broadcast(transport.VoteRequest, term)
			lastBroadcast = n.clk.Now()
		}

		if env, ok := n.bus.TryRecv(); ok {
			if done := n.handleCandidateMessage(env, term, votes); done {
				return
			}
		}

		n.sleepPoll()
	}

	n.log.Debug("election timed out without a majority, retrying")
}

// handleCandidateMessage returns true when the Candidate subroutine
// should return (role has changed).
func (n *Node) handleCandidateMessage(env transport.Envelope, term int64, votes []bool) bool {
	if n.adoptHigherTerm(env.Term) {
		n.log.Info("received message with higher term as candidate")
		n.setRole(Follower)
		return true
	}

	switch env.Tag {
	case transport.Heartbeat:
		n.log.Debug("received heartbeat from a leader as candidate")
		if env.Term >= term {
			n.log.Warning("received heartbeat from an established leader as candidate")
			n.setRole(Follower)
			return true
		}

	case transport.VoteResponse:
		n.log.Debug("received vote as candidate")
		if env.Term == term {
			votes[env.Source] = true
			if quorum.Majority(votes) {
				n.setRole(Leader)
				return true
			}
		}

	case transport.VoteRequest:
		n.log.Debug("ignoring vote request as we are a candidate")

	default:
		n.log.Info("received unhandled message as candidate")
	}

	return false
}
