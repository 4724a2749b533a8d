package purfectest

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoProcess is returned by process-control operations when no child has
// been spawned on the terminal.
var ErrNoProcess = errors.New("no process spawned")

// ErrProcessRunning is returned by Spawn when a child is already attached to
// the terminal and has not exited.
var ErrProcessRunning = errors.New("process already running")

// DimensionError reports a terminal or screen constructed or resized with a
// zero axis.
type DimensionError struct {
	Cols int
	Rows int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("invalid terminal dimensions %dx%d: both axes must be nonzero", e.Cols, e.Rows)
}

// SpawnError wraps a failure to start the child process.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// TimeoutError is returned when a wait operation exceeds its deadline. It
// carries the full decoded screen at the moment of the timeout so test
// failures are diagnosable without re-running.
type TimeoutError struct {
	Description string
	Timeout     time.Duration
	Elapsed     time.Duration
	Iterations  int
	CursorRow   int
	CursorCol   int
	ScreenDump  string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %v (%d iterations): %s; cursor at (%d, %d)\nscreen:\n%s",
		e.Elapsed, e.Iterations, e.Description, e.CursorRow, e.CursorCol, e.ScreenDump)
}

// ProcessExitedError is returned once the child process has terminated and
// the awaited condition still does not hold against the final drained
// output. It is distinct from TimeoutError: the child is gone, so no amount
// of further waiting can help.
type ProcessExitedError struct {
	Status     *ExitStatus
	Elapsed    time.Duration
	ScreenDump string
}

func (e *ProcessExitedError) Error() string {
	status := "unknown"
	if e.Status != nil {
		status = e.Status.String()
	}
	return fmt.Sprintf("process exited (%s) after %v before condition was met\nscreen:\n%s",
		status, e.Elapsed, e.ScreenDump)
}

// GraphicsValidationError reports a graphics bounds or presence assertion
// failure, naming the offending regions and the area they were checked
// against.
type GraphicsValidationError struct {
	Message string
}

func (e *GraphicsValidationError) Error() string { return e.Message }
