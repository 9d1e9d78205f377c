package timeline

import (
	"fmt"
	"iter"
	"sort"
	"sync"
	"time"
)

// Timeline is a bounded, insertion-ordered multiset of events.
//
// The bound is fixed at construction: events with offsets outside
// [0, maxOffset] are rejected by Add. Sorting is lazy; Add is O(1) and
// SortedEvents sorts a snapshot on demand.
//
// Thread Safety: all methods are safe for concurrent use.
type Timeline struct {
	mu        sync.RWMutex
	events    []Event
	maxOffset time.Duration
	nextSeq   int
}

// New creates an empty timeline accepting offsets in [0, maxOffset].
func New(maxOffset time.Duration) *Timeline {
	return &Timeline{maxOffset: maxOffset}
}

// MaxOffset returns the upper bound for event offsets.
func (t *Timeline) MaxOffset() time.Duration {
	return t.maxOffset
}

// Add appends an event to the timeline.
//
// Returns ErrInvalidTimestamp when the event's offset lies outside
// [0, maxOffset]. Insertion order is retained so that equal-offset
// events sort stably.
func (t *Timeline) Add(ev Event) error {
	if ev.Offset < 0 || ev.Offset > t.maxOffset {
		return fmt.Errorf("%w: %v outside [0, %v]", ErrInvalidTimestamp, ev.Offset, t.maxOffset)
	}
	if len(ev.Commands) == 0 {
		return ErrNoCommands
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	ev.seq = t.nextSeq
	t.nextSeq++
	t.events = append(t.events, ev)
	return nil
}

// SortedEvents returns all events in non-decreasing offset order.
//
// Equal offsets keep their relative insertion order. The returned slice
// is a copy; callers may iterate it repeatedly or concurrently with
// further Adds.
func (t *Timeline) SortedEvents() []Event {
	t.mu.RLock()
	sorted := make([]Event, len(t.events))
	copy(sorted, t.events)
	t.mu.RUnlock()

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})
	return sorted
}

// All returns a lazy, restartable iterator over events in sorted order.
//
// The iteration order matches SortedEvents. The sequence is finite and
// can be ranged over any number of times.
func (t *Timeline) All() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for _, ev := range t.SortedEvents() {
			if !yield(ev) {
				return
			}
		}
	}
}

// EventsAt returns events whose offset lies within [at-tolerance, at+tolerance].
//
// Results are in sorted order.
func (t *Timeline) EventsAt(at, tolerance time.Duration) []Event {
	return t.EventsBetween(at-tolerance, at+tolerance)
}

// EventsBetween returns events with from <= offset <= to, both ends
// inclusive, in sorted order.
func (t *Timeline) EventsBetween(from, to time.Duration) []Event {
	var out []Event
	for _, ev := range t.SortedEvents() {
		if ev.Offset >= from && ev.Offset <= to {
			out = append(out, ev)
		}
	}
	return out
}

// Clear removes all events.
func (t *Timeline) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
}

// Len returns the number of events in the timeline.
func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.events)
}
