// Command raftnode launches one cluster member: it parses the launch
// configuration, opens its log file, constructs a transport (gRPC
// across the network, or an in-process bus for single-node local
// runs), waits at a cluster barrier, and runs the Raft role loop
// forever (spec.md §6, CLI; §4.F, Run).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"raftelect/internal/config"
	"raftelect/internal/logging"
	"raftelect/internal/raft"
	"raftelect/internal/transport"
	"raftelect/internal/transport/grpcbus"
	"raftelect/internal/transport/membus"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-1)
	}

	logFile, err := os.OpenFile(cfg.LogFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-1)
	}
	defer logFile.Close()
	log := logging.New(logFile, logging.Info)

	bus, closeBus, err := buildTransport(cfg, log)
	if err != nil {
		log.Critical(err.Error())
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-1)
	}
	if closeBus != nil {
		defer closeBus()
	}

	barrierCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := bus.Barrier(barrierCtx); err != nil {
		log.Critical(fmt.Sprintf("cluster barrier failed: %v", err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-1)
	}

	node := raft.New(bus, raft.Config{
		Timeout:  raft.TimeoutRange{MinMs: cfg.MinTimeoutMs, MaxMs: cfg.MaxTimeoutMs},
		FailSpec: cfg.FailSpec,
	}, log)

	node.Run()
}

// buildTransport picks membus for a single local process (no peer
// addresses given) or grpcbus for a networked cluster, per spec.md
// §6's CLI expansion.
func buildTransport(cfg config.Config, log *logging.Logger) (transport.Bus, func(), error) {
	if len(cfg.PeerAddrs) == 0 {
		buses := membus.New(1)
		return buses[0], nil, nil
	}

	listenAddr := cfg.PeerAddrs[cfg.Rank]
	bus, err := grpcbus.Dial(cfg.Rank, listenAddr, cfg.PeerAddrs, log)
	if err != nil {
		return nil, nil, err
	}
	return bus, bus.Close, nil
}
