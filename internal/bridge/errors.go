package bridge

import (
	"errors"
	"fmt"
)

// Sentinel errors for the bridge package.
var (
	// ErrNoSession is returned when an operation requires a live session
	// and none is registered under the given name.
	ErrNoSession = errors.New("no live session")

	// ErrSupervisorClosed is returned when the supervisor has been closed.
	ErrSupervisorClosed = errors.New("supervisor is closed")
)

// SpawnError reports that a REPL subprocess could not be launched.
// Spawn failures are surfaced to the caller and never retried.
type SpawnError struct {
	// Program is the executable that failed to launch.
	Program string

	// Err is the underlying launch failure.
	Err error
}

// Error implements the error interface.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Program, e.Err)
}

// Unwrap returns the underlying error.
func (e *SpawnError) Unwrap() error {
	return e.Err
}
