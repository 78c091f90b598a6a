// Package debug provides conditional debug logging for treekit.
//
// Debug logging is enabled by setting the TREEKIT_DEBUG environment variable:
//
//	TREEKIT_DEBUG=1 treekit view nodes.json 2>trace.log
//
// When enabled, debug messages are written to stderr with timestamps.
// When disabled (default), all debug functions are no-ops.
//
// Usage:
//
//	import "github.com/vanderheijden86/treekit/pkg/debug"
//
//	func render() {
//	    debug.Log("rendered range %s", r)
//	    debug.LogTiming("render", elapsed)
//	}
package debug

import (
	"io"
	"log"
	"os"
	"time"
)

const (
	envVar = "TREEKIT_DEBUG"
	prefix = "[TREEKIT_DEBUG] "
)

var (
	// enabled is true when TREEKIT_DEBUG env var is set
	enabled bool
	// logger writes to stderr with [TREEKIT_DEBUG] prefix
	logger *log.Logger
)

func init() {
	if os.Getenv(envVar) != "" {
		enabled = true
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// SetOutput redirects debug output, e.g. into a log file while the TUI
// owns the terminal.
func SetOutput(w io.Writer) {
	if logger == nil {
		logger = log.New(w, prefix, log.Ltime|log.Lmicroseconds)
		return
	}
	logger.SetOutput(w)
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogIf writes a debug message only if the condition is true.
func LogIf(cond bool, format string, args ...any) {
	if !enabled || !cond {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %v", name, d)
}

// Dump logs a value with its type for debugging complex structures.
func Dump(name string, v any) {
	if !enabled {
		return
	}
	logger.Printf("%s: %T = %+v", name, v, v)
}
