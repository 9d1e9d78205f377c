// Package timeline provides the ordered event store for Showrunner.
//
// A Timeline is an insertion-ordered multiset of Events, each scheduling
// one or more commands at a fixed offset from show start. The store is
// bounded: events outside [0, maxOffset] are rejected at insertion.
//
// # Key Types
//
//   - Command: a cancellable unit of work (func(ctx) error)
//   - Event: one or more commands scheduled at an offset
//   - Timeline: the bounded, sortable event container
//
// # Ordering
//
// SortedEvents and All always yield events in non-decreasing offset
// order. Events with equal offsets keep their relative insertion order
// (stable sort), so show authors can rely on build order for ties.
//
// # Thread Safety
//
// Timeline is safe for concurrent use, although in practice a timeline
// is built before a run begins and only read during execution.
package timeline
