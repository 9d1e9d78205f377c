package timeline

import (
	"context"
	"fmt"
	"time"
)

// Command is a single unit of work scheduled on a timeline.
//
// Commands receive a context for cancellation and return an error on
// failure. The timeline treats commands as opaque: device triggers,
// audio cues and lighting effects are all just commands.
type Command func(ctx context.Context) error

// Event schedules one or more commands at a fixed offset from show start.
//
// An event with two or more commands is a batch: its commands are
// dispatched concurrently and their results collected in order. Async
// events run directly on the scheduler; sync events run through the
// executor's bounded worker pool.
//
// Events are immutable once constructed.
type Event struct {
	// Offset is the scheduled time relative to show start.
	Offset time.Duration

	// Commands holds the work to dispatch. Always at least one entry.
	Commands []Command

	// Description labels the event for hooks and logging.
	Description string

	// Async selects cooperative dispatch instead of the worker pool.
	Async bool

	// seq is the insertion sequence number, used to keep sorts stable.
	seq int
}

// NewEvent creates an event at the given offset.
//
// Returns ErrInvalidTimestamp for negative offsets and ErrNoCommands
// when commands is empty.
func NewEvent(offset time.Duration, commands []Command, description string, async bool) (Event, error) {
	if offset < 0 {
		return Event{}, fmt.Errorf("%w: %v is negative", ErrInvalidTimestamp, offset)
	}
	if len(commands) == 0 {
		return Event{}, ErrNoCommands
	}

	// Copy so later mutation of the caller's slice cannot reach the event.
	cmds := make([]Command, len(commands))
	copy(cmds, commands)

	return Event{
		Offset:      offset,
		Commands:    cmds,
		Description: description,
		Async:       async,
	}, nil
}

// Batch reports whether the event dispatches more than one command.
func (e Event) Batch() bool {
	return len(e.Commands) > 1
}

// String returns a short human-readable form for logging.
func (e Event) String() string {
	mode := "sync"
	if e.Async {
		mode = "async"
	}
	return fmt.Sprintf("event %q at %v (%s, %d commands)", e.Description, e.Offset, mode, len(e.Commands))
}
