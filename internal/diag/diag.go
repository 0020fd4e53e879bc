// Package diag hosts the runtime's single diagnostic stream and the
// assertion helper used to fail fast on programming errors.
package diag

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = zerolog.Nop()
)

// Enable switches the package logger from the silent default to a
// human-readable console writer. swan.Run calls this when PRINT_VERSION
// asks for runtime chatter; library callers otherwise see nothing on
// stderr.
func Enable() {
	mu.Lock()
	defer mu.Unlock()
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}).
		With().Timestamp().Logger()
}

// Log returns the current logger, safe to call concurrently.
func Log() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &logger
}

// ErrProgramming marks a panic raised by Assert as a violated runtime
// invariant rather than a user task error, so the worker loop's recover can
// tell the two apart when deciding what to log.
type ErrProgramming struct{ Msg string }

func (e *ErrProgramming) Error() string { return e.Msg }

// Assert aborts the process (via panic, caught once at the worker loop
// boundary and re-raised) when cond is false. Used for programming
// errors: wrong mode, double-release of a version, stealing a dummy
// frame, and similar violated preconditions.
func Assert(cond bool, msg string) {
	if cond {
		return
	}
	// Note: zerolog's Fatal level calls os.Exit itself; we want our own
	// panic/recover path (see worker.Worker.runFrame) so the process aborts
	// through one consistent code path instead of two. Error level still
	// gets the failure onto the diagnostic stream.
	Log().Error().Str("component", "assert").Msg(msg)
	panic(&ErrProgramming{Msg: msg})
}
