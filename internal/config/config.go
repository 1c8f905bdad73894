// Package config parses and validates the launcher's command-line
// arguments (spec.md §6, CLI). It is deliberately small: four
// positional arguments, validated up front, so every other package
// can trust a Config's fields without re-checking them.
package config

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"raftelect/internal/failure"
)

// rankEnvVar is read when a peer address list is given on the command
// line: it tells this process which of those addresses is its own rank
// within a cluster launched by an external supervisor.
const rankEnvVar = "RAFT_RANK"

// Config is the fully validated launch configuration for one node.
type Config struct {
	MinTimeoutMs  int
	MaxTimeoutMs  int
	FailSpec      failure.Spec
	LogFilePrefix string

	// PeerAddrs is the optional trailing host:port list (expansion of
	// spec.md §6). Empty means: run a single-node, in-process cluster.
	PeerAddrs []string
	Rank      int
}

// Parse validates argv (excluding argv[0]) against spec.md §6's CLI
// shape plus this module's optional trailing peer address list.
func Parse(argv []string) (Config, error) {
	if len(argv) < 4 {
		return Config{}, fmt.Errorf("usage: <min_timeout_ms> <max_timeout_ms> <fail_chance> <log_file_prefix> [peer_addr...]")
	}

	minMs, err := strconv.Atoi(argv[0])
	if err != nil {
		return Config{}, fmt.Errorf("min_timeout_ms: %w", err)
	}
	maxMs, err := strconv.Atoi(argv[1])
	if err != nil {
		return Config{}, fmt.Errorf("max_timeout_ms: %w", err)
	}
	if minMs <= 0 || maxMs <= 0 {
		return Config{}, fmt.Errorf("min_timeout_ms and max_timeout_ms must be positive, got %d and %d", minMs, maxMs)
	}
	if minMs > maxMs {
		return Config{}, fmt.Errorf("min_timeout_ms (%d) must not exceed max_timeout_ms (%d)", minMs, maxMs)
	}

	failChance, err := strconv.ParseFloat(argv[2], 64)
	if err != nil {
		return Config{}, fmt.Errorf("fail_chance: %w", err)
	}
	if failChance < 0 {
		p := message.NewPrinter(language.English)
		return Config{}, fmt.Errorf(p.Sprintf("fail_chance must be non-negative, got %v", failChance))
	}

	prefix := argv[3]
	if prefix == "" {
		return Config{}, fmt.Errorf("log_file_prefix must not be empty")
	}

	cfg := Config{
		MinTimeoutMs:  minMs,
		MaxTimeoutMs:  maxMs,
		FailSpec:      failure.Spec{Mode: failure.Chance, Param: failChance},
		LogFilePrefix: prefix,
		PeerAddrs:     argv[4:],
	}

	if len(cfg.PeerAddrs) > 0 {
		rank, err := rankFromEnv()
		if err != nil {
			return Config{}, err
		}
		if rank < 0 || rank >= len(cfg.PeerAddrs) {
			return Config{}, fmt.Errorf("%s=%d is out of range for %d peer addresses", rankEnvVar, rank, len(cfg.PeerAddrs))
		}
		cfg.Rank = rank
	}

	return cfg, nil
}

func rankFromEnv() (int, error) {
	raw := os.Getenv(rankEnvVar)
	if raw == "" {
		return 0, fmt.Errorf("%s must be set when peer addresses are given", rankEnvVar)
	}
	rank, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", rankEnvVar, err)
	}
	return rank, nil
}

// LogFilePath is the per-rank log file path (expansion of spec.md §6:
// one log per node, named by prefix and rank so a cluster's logs never
// collide on disk).
func (c Config) LogFilePath() string {
	return fmt.Sprintf("%s%d.log", c.LogFilePrefix, c.Rank)
}
