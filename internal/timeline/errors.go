package timeline

import "errors"

// Domain errors for the timeline package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, timeline.ErrInvalidTimestamp) {
//	    // handle out-of-range event
//	}
var (
	// ErrInvalidTimestamp is returned when an event offset is negative
	// or exceeds the timeline's bound.
	ErrInvalidTimestamp = errors.New("timeline: invalid timestamp")

	// ErrNoCommands is returned when an event is built without commands.
	ErrNoCommands = errors.New("timeline: event has no commands")
)
