package failure

import (
	"os"
	"testing"

	"raftelect/internal/clock"
	"raftelect/internal/logging"
	"raftelect/internal/randsrc"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "oracle-*.log")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return logging.New(f, logging.Debug)
}

func TestChanceNeverTriggersAtZero(t *testing.T) {
	o := New(Spec{Mode: Chance, Param: 0}, randsrc.New(), clock.New(), testLogger(t))
	for i := 0; i < 1000; i++ {
		if o.Triggered() {
			t.Fatal("Triggered() returned true with Param=0")
		}
	}
}

func TestTimeModeTriggersAfterDeadline(t *testing.T) {
	o := New(Spec{Mode: Time, Param: 0}, randsrc.New(), clock.New(), testLogger(t))
	if !o.Triggered() {
		t.Fatal("Triggered() = false immediately after a 0-second deadline")
	}
}

func TestTimeModeDoesNotTriggerEarly(t *testing.T) {
	o := New(Spec{Mode: Time, Param: 3600}, randsrc.New(), clock.New(), testLogger(t))
	if o.Triggered() {
		t.Fatal("Triggered() = true well before the deadline")
	}
}
