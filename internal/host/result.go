package host

import (
	"errors"
	"fmt"
	"time"
)

// State is the lifecycle state of a single invocation.
type State string

const (
	StateIdle        State = "idle"
	StateSpawning    State = "spawning"
	StateRunning     State = "running"
	StateCompleted   State = "completed"
	StateTimedOut    State = "timed_out"
	StateSpawnFailed State = "spawn_failed"
	StateCancelled   State = "cancelled"
)

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateTimedOut, StateSpawnFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// Result is the outcome of Supervisor.Run.
type Result struct {
	State    State
	PID      int
	ExitCode int
	// Signal names the signal that killed the child, if any.
	Signal  string
	Elapsed time.Duration
}

// Success reports a completed run with exit code zero.
func (r Result) Success() bool {
	return r.State == StateCompleted && r.ExitCode == 0 && r.Signal == ""
}

// Err returns *ExitError for a completed run that exited non-zero or was
// signalled, and nil otherwise.
func (r Result) Err() error {
	if r.State != StateCompleted || r.Success() {
		return nil
	}
	return &ExitError{Code: r.ExitCode, Signal: r.Signal}
}

var (
	ErrSpawnFailed  = errors.New("host: spawn failed")
	ErrTimeout      = errors.New("host: timed out")
	ErrAbnormalExit = errors.New("host: abnormal exit")
)

// SpawnError wraps the reason the child process could not be created.
type SpawnError struct {
	Binary string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("host: spawn %s: %v", e.Binary, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

func (e *SpawnError) Is(target error) bool { return target == ErrSpawnFailed }

// TimeoutError is returned when the child outlived its allotted duration.
type TimeoutError struct {
	Binary  string
	Timeout time.Duration
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("host: %s timed out after %v (limit %v)", e.Binary, e.Elapsed.Round(time.Millisecond), e.Timeout)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// ExitError carries the raw status of a child that did not exit cleanly.
type ExitError struct {
	Code   int
	Signal string
}

func (e *ExitError) Error() string {
	if e.Signal != "" {
		return fmt.Sprintf("host: native host killed by signal %s", e.Signal)
	}
	return fmt.Sprintf("host: native host exited with status %d", e.Code)
}

func (e *ExitError) Is(target error) bool { return target == ErrAbnormalExit }
