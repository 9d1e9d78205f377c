package orchestrator

import (
	"errors"
	"fmt"
)

// Domain errors for the orchestrator package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, orchestrator.ErrShowInterrupted) {
//	    // graceful stop, not a failure
//	}
var (
	// ErrShowNotFound is returned when a named show is not registered.
	ErrShowNotFound = errors.New("orchestrator: show not found")

	// ErrShowInterrupted is returned when a run is stopped by Stop,
	// preemption, or context cancellation.
	ErrShowInterrupted = errors.New("orchestrator: show interrupted")
)

// EventExecutionError wraps a failing command with its event's context.
type EventExecutionError struct {
	// Event is the failing event's description.
	Event string

	// Err is the underlying command failure. For batches it is the
	// first captured failure, annotated with its slot index.
	Err error
}

func (e *EventExecutionError) Error() string {
	return fmt.Sprintf("orchestrator: event %q failed: %v", e.Event, e.Err)
}

func (e *EventExecutionError) Unwrap() error {
	return e.Err
}
