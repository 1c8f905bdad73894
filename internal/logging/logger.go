// Package logging is the timestamped, severity-filtered line logger
// used by every node (spec.md §6, "Log line format"). It wraps
// logrus rather than writing raw fprintf-style lines, matching the
// logging library already present in this module's dependency graph,
// and adds a CRITICAL severity above logrus's built-in levels for the
// one case (spec.md §3, invariant breaches) that warrants it.
package logging

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"raftelect/internal/clock"
)

// Level mirrors the five severities of spec.md §6.
type Level int

const (
	Debug Level = iota
	Info
	Warning
	Error
	Critical
)

// logrus has no level more severe than Panic, and we never want this
// logger's Critical calls to panic or exit the process (spec.md §7:
// the core never crashes on a locally observable anomaly) — so
// Critical is mapped onto logrus.PanicLevel and only ever reached via
// Logger.Log, never via logrus's Panic()/Fatal() convenience methods.
// logrus still panics after writing any PanicLevel entry, Log included,
// so emit recovers from that panic once the line has been written.
var levelToLogrus = map[Level]logrus.Level{
	Debug:    logrus.DebugLevel,
	Info:     logrus.InfoLevel,
	Warning:  logrus.WarnLevel,
	Error:    logrus.ErrorLevel,
	Critical: logrus.PanicLevel,
}

var logrusToName = map[logrus.Level]string{
	logrus.PanicLevel: "CRITICAL",
	logrus.ErrorLevel: "ERROR",
	logrus.WarnLevel:  "WARNING",
	logrus.InfoLevel:  "INFO",
	logrus.DebugLevel: "DEBUG",
}

// lineFormatter renders exactly "<elapsed_ms>:<LEVEL>:<message>\n",
// with elapsed_ms measured from the logger's construction time.
type lineFormatter struct {
	clk *clock.Clock
}

func (f *lineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	name, ok := logrusToName[entry.Level]
	if !ok {
		name = "INFO"
	}
	line := fmt.Sprintf("%d:%s:%s\n", f.clk.SinceOrigin(), name, entry.Message)
	return []byte(line), nil
}

// Logger is a timestamped, severity-filtered line writer. Writes are
// flushed (and, for a regular file, fsynced) after every line.
type Logger struct {
	base *logrus.Logger
	clk  *clock.Clock
	file *os.File // nil unless Out is a plain *os.File
}

// New constructs a Logger writing to file, filtering out any line
// below minLevel. The elapsed-time origin starts now.
func New(file *os.File, minLevel Level) *Logger {
	clk := clock.New()
	base := logrus.New()
	base.SetOutput(file)
	base.SetFormatter(&lineFormatter{clk: clk})
	base.SetLevel(levelToLogrus[minLevel])
	return &Logger{base: base, clk: clk, file: file}
}

func (l *Logger) emit(level Level, msg string) {
	func() {
		if level == Critical {
			// The line is already written when logrus panics on a
			// PanicLevel entry; swallow the panic and carry on.
			defer func() { _ = recover() }()
		}
		l.base.Log(levelToLogrus[level], msg)
	}()
	if l.file != nil {
		// fsync after every line: a node that "dies" mid-write (the
		// failure oracle's simulated crash) must not lose log lines
		// already flushed to the OS, since P1-P5 are checked from
		// merged logs after the run.
		_ = unix.Fsync(int(l.file.Fd()))
	}
}

func (l *Logger) Debug(msg string)    { l.emit(Debug, msg) }
func (l *Logger) Info(msg string)     { l.emit(Info, msg) }
func (l *Logger) Warning(msg string)  { l.emit(Warning, msg) }
func (l *Logger) Error(msg string)    { l.emit(Error, msg) }
func (l *Logger) Critical(msg string) { l.emit(Critical, msg) }
