package show

import (
	"errors"
	"fmt"
	"time"

	"github.com/jhickman/showrunner/internal/timeline"
)

// ErrInvalidDuration is returned when a show is created with a negative
// duration.
var ErrInvalidDuration = errors.New("show: invalid duration")

// Show is a named, duration-bounded collection of timed events.
//
// The name is the show's unique key within an orchestrator. The duration
// is the upper bound for event offsets; the owned timeline enforces it.
// Metadata is opaque to the core and carried through to hooks.
type Show struct {
	name        string
	duration    time.Duration
	description string
	metadata    map[string]any
	timeline    *timeline.Timeline
}

// TimedCommand is one entry in a bulk builder call.
type TimedCommand struct {
	At          time.Duration
	Command     timeline.Command
	Description string
}

// Option configures a Show at construction.
type Option func(*Show)

// WithDescription sets the show's human-readable description.
func WithDescription(desc string) Option {
	return func(s *Show) { s.description = desc }
}

// WithMetadata attaches opaque key/value metadata to the show.
func WithMetadata(md map[string]any) Option {
	return func(s *Show) { s.metadata = md }
}

// New creates a show with the given name and duration.
//
// Returns ErrInvalidDuration when duration is negative. A zero duration
// is valid and admits only events at offset 0.
func New(name string, duration time.Duration, opts ...Option) (*Show, error) {
	if duration < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDuration, duration)
	}

	s := &Show{
		name:     name,
		duration: duration,
		timeline: timeline.New(duration),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the show's unique name.
func (s *Show) Name() string { return s.name }

// Duration returns the show's duration, the upper bound for event offsets.
func (s *Show) Duration() time.Duration { return s.duration }

// Description returns the show's description.
func (s *Show) Description() string { return s.description }

// Metadata returns the show's opaque metadata map. May be nil.
func (s *Show) Metadata() map[string]any { return s.metadata }

// Timeline returns the show's owned timeline.
func (s *Show) Timeline() *timeline.Timeline { return s.timeline }

// Events returns the show's events in sorted order.
func (s *Show) Events() []timeline.Event {
	return s.timeline.SortedEvents()
}

// AddSyncEvent schedules a single blocking command at the given offset.
func (s *Show) AddSyncEvent(at time.Duration, cmd timeline.Command, description string) error {
	return s.add(at, []timeline.Command{cmd}, description, false)
}

// AddAsyncEvent schedules a single cooperative command at the given offset.
func (s *Show) AddAsyncEvent(at time.Duration, cmd timeline.Command, description string) error {
	return s.add(at, []timeline.Command{cmd}, description, true)
}

// AddSyncBatch schedules an ordered batch of blocking commands at the
// given offset. The batch is dispatched concurrently on the worker pool
// when the show runs.
func (s *Show) AddSyncBatch(at time.Duration, cmds []timeline.Command, description string) error {
	return s.add(at, cmds, description, false)
}

// AddAsyncBatch schedules an ordered batch of cooperative commands at
// the given offset.
func (s *Show) AddAsyncBatch(at time.Duration, cmds []timeline.Command, description string) error {
	return s.add(at, cmds, description, true)
}

// AddSyncEvents adds a list of single sync events in one call.
//
// The add stops at the first invalid entry; earlier entries remain on
// the timeline.
func (s *Show) AddSyncEvents(entries []TimedCommand) error {
	for _, e := range entries {
		if err := s.AddSyncEvent(e.At, e.Command, e.Description); err != nil {
			return fmt.Errorf("adding %q: %w", e.Description, err)
		}
	}
	return nil
}

// AddAsyncEvents adds a list of single async events in one call.
func (s *Show) AddAsyncEvents(entries []TimedCommand) error {
	for _, e := range entries {
		if err := s.AddAsyncEvent(e.At, e.Command, e.Description); err != nil {
			return fmt.Errorf("adding %q: %w", e.Description, err)
		}
	}
	return nil
}

func (s *Show) add(at time.Duration, cmds []timeline.Command, description string, async bool) error {
	ev, err := timeline.NewEvent(at, cmds, description, async)
	if err != nil {
		return err
	}
	return s.timeline.Add(ev)
}

// String returns a short human-readable form for logging.
func (s *Show) String() string {
	return fmt.Sprintf("show %q (%v, %d events)", s.name, s.duration, s.timeline.Len())
}
