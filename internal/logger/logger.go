// Package logger provides the process-wide leveled logger used by the data
// sources, the clustering pipeline and both front-ends.
//
// Verbosity levels (in increasing order):
//
//	Error < Info < Debug < Trace
//
// Example usage:
//
//	logger.SetVerbosity(2) // Debug
//	logger.Infof("analyzing %s exp=%s", ticker, expiry)
//	logger.Debugf("calls=%d puts=%d", len(calls), len(puts))
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level represents a logging verbosity level.
// Higher values mean more verbose logging.
type Level int

const (
	Error Level = iota // Error logs only failures surfaced to the user.
	Info               // Info logs pipeline stages and server lifecycle.
	Debug              // Debug logs requests and intermediate counts.
	Trace              // Trace logs per-page and per-leg details.
)

// current holds the active verbosity level.
// Only messages with level <= current are logged.
var current Level = Info

func init() {
	// stderr keeps log lines out of CLI output that may be piped.
	log.SetOutput(os.Stderr)

	//   2026/01/25 15:42:10 pipeline.go:87 [INFO]  analyzing SPY exp=2026-02-20
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

// SetVerbosity sets the global logging verbosity.
// Values outside [Error, Trace] are clamped.
func SetVerbosity(v int) {
	switch {
	case v < int(Error):
		v = int(Error)
	case v > int(Trace):
		v = int(Trace)
	}
	current = Level(v)
}

// Verbosity reports the active level.
func Verbosity() Level {
	return current
}

// SetOutput redirects log output, mostly for tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// ParseLevel maps a level name ("error", "info", "debug", "trace") to a Level.
// Unknown names fall back to Info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return Error
	case "debug":
		return Debug
	case "trace":
		return Trace
	default:
		return Info
	}
}

func (l Level) String() string {
	switch l {
	case Error:
		return "error"
	case Info:
		return "info"
	case Debug:
		return "debug"
	case Trace:
		return "trace"
	}
	return "unknown"
}

func logf(l Level, prefix, format string, args ...any) {
	if current >= l {
		// calldepth 3 reports the caller of Errorf/Infof/... rather than this helper.
		_ = log.Output(3, prefix+sprintf(format, args...))
	}
}

// Errorf logs an error-level message.
func Errorf(format string, args ...any) {
	logf(Error, "[ERROR] ", format, args...)
}

// Infof logs an informational message.
func Infof(format string, args ...any) {
	logf(Info, "[INFO]  ", format, args...)
}

// Debugf logs debugging information.
func Debugf(format string, args ...any) {
	logf(Debug, "[DEBUG] ", format, args...)
}

// Tracef logs very detailed execution traces.
// Use this sparingly due to high volume.
func Tracef(format string, args ...any) {
	logf(Trace, "[TRACE] ", format, args...)
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
