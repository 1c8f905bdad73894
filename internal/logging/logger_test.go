package logging

import (
	"bufio"
	"os"
	"strings"
	"testing"
)

func tempLogFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "raftelect-*.log")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func readLines(t *testing.T, f *os.File) []string {
	t.Helper()
	if _, err := f.Seek(0, 0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func TestLogLineFormat(t *testing.T) {
	f := tempLogFile(t)
	logger := New(f, Debug)

	logger.Info("state changed to follower")

	lines := readLines(t, f)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %v", len(lines), lines)
	}

	parts := strings.SplitN(lines[0], ":", 3)
	if len(parts) != 3 {
		t.Fatalf("line %q does not have 3 colon-separated fields", lines[0])
	}
	if parts[1] != "INFO" {
		t.Errorf("level = %q, want INFO", parts[1])
	}
	if parts[2] != "state changed to follower" {
		t.Errorf("message = %q, want %q", parts[2], "state changed to follower")
	}
}

func TestMinLevelFiltersBelowThreshold(t *testing.T) {
	f := tempLogFile(t)
	logger := New(f, Info)

	logger.Debug("should not appear")
	logger.Info("should appear")

	lines := readLines(t, f)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "should appear") {
		t.Errorf("unexpected line: %q", lines[0])
	}
}

func TestAllSeverityNames(t *testing.T) {
	f := tempLogFile(t)
	logger := New(f, Debug)

	logger.Debug("d")
	logger.Info("i")
	logger.Warning("w")
	logger.Error("e")
	logger.Critical("c")

	lines := readLines(t, f)
	want := []string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %v", len(lines), len(want), lines)
	}
	for i, lvl := range want {
		if !strings.Contains(lines[i], ":"+lvl+":") {
			t.Errorf("line %d = %q, want level %s", i, lines[i], lvl)
		}
	}
}
