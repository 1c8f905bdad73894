package raft

import (
	"os"
	"testing"
	"time"

	"raftelect/internal/failure"
	"raftelect/internal/logging"
	"raftelect/internal/transport/membus"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "raft-*.log")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return logging.New(f, logging.Debug)
}

func noFail() failure.Spec {
	return failure.Spec{Mode: failure.Chance, Param: 0}
}

func TestNewNodeStartsAsFollowerAtTermZero(t *testing.T) {
	buses := membus.New(1)
	n := New(buses[0], Config{Timeout: TimeoutRange{MinMs: 50, MaxMs: 100}, FailSpec: noFail()}, testLogger(t))

	if got := n.Role(); got != Follower {
		t.Fatalf("initial role = %v, want Follower", got)
	}
	term, isLeader := n.GetState()
	if term != 0 {
		t.Fatalf("initial term = %d, want 0", term)
	}
	if isLeader {
		t.Fatalf("new node reports itself as leader")
	}
}

func TestStopInterruptsFollowerLoop(t *testing.T) {
	buses := membus.New(1)
	n := New(buses[0], Config{Timeout: TimeoutRange{MinMs: 5000, MaxMs: 5000}, FailSpec: noFail()}, testLogger(t))

	done := make(chan struct{})
	go func() {
		n.Run()
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	n.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return within 1s of Stop despite a 5s election timeout")
	}
}

func TestStopInterruptsLeaderLoop(t *testing.T) {
	buses := membus.New(1)
	n := New(buses[0], Config{Timeout: TimeoutRange{MinMs: 5, MaxMs: 10}, FailSpec: noFail()}, testLogger(t))

	done := make(chan struct{})
	go func() {
		n.Run()
		close(done)
	}()

	// A lone node always wins its own election, so it reaches Leader
	// and loops there until Stop is observed.
	deadline := time.Now().Add(time.Second)
	for n.Role() != Leader && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if n.Role() != Leader {
		t.Fatalf("single node never became Leader")
	}

	n.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return within 1s of Stop while in doLeader")
	}
}
