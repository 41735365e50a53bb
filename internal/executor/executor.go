// Package executor starts the wrapped program as a child process, drains its
// output streams, and guarantees every child is reaped.
package executor

import (
	"errors"
	"time"
)

// Errors returned in Run.Err when a process could not be started.
var (
	ErrClosed          = errors.New("executor is shut down")
	ErrProgramNotFound = errors.New("program not found")
)

// State describes how an invocation ended.
type State int

const (
	// StateExited means the process ran and exited on its own.
	StateExited State = iota
	// StateKilled means the process was terminated by the executor, either
	// because its deadline passed or because its context was cancelled.
	StateKilled
	// StateStartFailed means no process was ever started.
	StateStartFailed
)

// String returns a lowercase name for the state.
func (s State) String() string {
	switch s {
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	case StateStartFailed:
		return "start_failed"
	default:
		return "unknown"
	}
}

// Run is the outcome of a single invocation. It is created once by
// Invoker.Invoke and never mutated afterwards.
type Run struct {
	State    State
	ExitCode int  // valid when State == StateExited
	Deadline bool // StateKilled: true if the deadline fired, false if cancelled
	Err      error
	PID      int
	Started  time.Time
	Finished time.Time
	Stdout   Output
	Stderr   Output
}

// Duration returns the wall time from start to finish.
func (r Run) Duration() time.Duration {
	if r.Started.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}
