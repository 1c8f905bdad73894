// Package failure implements the boolean "should this node simulate
// being dead right now?" oracle (spec.md §4.E), grounded directly on
// original_source/src/raft.cc's simulate_failure.
package failure

import (
	"strconv"

	"raftelect/internal/clock"
	"raftelect/internal/logging"
	"raftelect/internal/randsrc"
)

// PollIntervalMs and DeadTimeMs are the two fixed failure-injection
// constants; the role state machine owns the poll loop itself.
// PollIntervalMs converts the per-second chance rate into a per-tick
// probability; DeadTimeMs is how long the Leader loop sleeps once the
// oracle triggers (the oracle itself does not use it).
const (
	PollIntervalMs = 10
	DeadTimeMs     = 60000
)

// Mode selects between the two failure specifications of spec.md §4.E.
type Mode int

const (
	// Chance triggers stochastically: Param is a per-second rate.
	Chance Mode = iota
	// Time triggers deterministically on every evaluation from Param
	// seconds after the Oracle was constructed onward.
	Time
)

// Spec is the immutable failure specification for one node.
type Spec struct {
	Mode  Mode
	Param float64
}

// Oracle evaluates a Spec against a random source and a clock.
type Oracle struct {
	spec  Spec
	rnd   *randsrc.Source
	clk   *clock.Clock
	start int64 // SinceOrigin() at construction, for Time mode
	log   *logging.Logger
}

// New constructs an Oracle. clk should be the same Clock the node
// uses elsewhere so that Time-mode elapsed seconds are measured
// consistently.
func New(spec Spec, rnd *randsrc.Source, clk *clock.Clock, log *logging.Logger) *Oracle {
	return &Oracle{spec: spec, rnd: rnd, clk: clk, start: clk.SinceOrigin(), log: log}
}

// Triggered evaluates the failure spec for the current poll tick. For
// Chance mode, the per-tick probability is Param * PollIntervalMs /
// 1000; a draw r < that probability triggers. For Time mode, it
// reports true whenever the whole seconds elapsed since construction
// are at least Param, so every call after that point triggers again.
func (o *Oracle) Triggered() bool {
	switch o.spec.Mode {
	case Chance:
		perTick := o.spec.Param * PollIntervalMs / 1000
		r := o.rnd.Unit()
		o.log.Debug(strconv.FormatFloat(o.spec.Param, 'g', -1, 64))
		o.log.Debug(strconv.FormatFloat(r, 'g', -1, 64))
		return r < perTick
	case Time:
		elapsedSeconds := (o.clk.SinceOrigin() - o.start) / 1000
		return float64(elapsedSeconds) >= o.spec.Param
	default:
		return false
	}
}

