package grpcbus

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"raftelect/internal/logging"
	"raftelect/internal/transport"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "grpcbus-*.log")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return logging.New(f, logging.Debug)
}

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func TestSendTryRecvOverNetwork(t *testing.T) {
	addrA := freePort(t)
	addrB := freePort(t)
	peers := []string{addrA, addrB}

	busA, err := Dial(0, addrA, peers, testLogger(t))
	if err != nil {
		t.Fatalf("Dial rank 0: %v", err)
	}
	defer busA.Close()

	busB, err := Dial(1, addrB, peers, testLogger(t))
	if err != nil {
		t.Fatalf("Dial rank 1: %v", err)
	}
	defer busB.Close()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		busA.Send(1, transport.Heartbeat, 3)
		if env, ok := busB.TryRecv(); ok {
			if env.Source != 0 || env.Tag != transport.Heartbeat || env.Term != 3 {
				t.Fatalf("got %+v", env)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("message never arrived within 5s")
}

func TestBarrierReleasesBothRanks(t *testing.T) {
	addrA := freePort(t)
	addrB := freePort(t)
	peers := []string{addrA, addrB}

	busA, err := Dial(0, addrA, peers, testLogger(t))
	if err != nil {
		t.Fatalf("Dial rank 0: %v", err)
	}
	defer busA.Close()

	busB, err := Dial(1, addrB, peers, testLogger(t))
	if err != nil {
		t.Fatalf("Dial rank 1: %v", err)
	}
	defer busB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 2)
	go func() { done <- busA.Barrier(ctx) }()
	go func() { done <- busB.Barrier(ctx) }()

	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("Barrier: %v", err)
		}
	}
}
