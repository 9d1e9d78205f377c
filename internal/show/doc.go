// Package show defines the Show type: a named, duration-bounded
// collection of timed events.
//
// A show owns a timeline whose events must fall within [0, duration].
// Builder methods add single events, batches, and bulk lists in either
// sync (worker pool) or async (cooperative) dispatch mode. The timeline
// is built before a run begins and treated as read-only during
// execution.
//
// # Usage
//
//	s, _ := show.New("opening-night", 90*time.Second)
//	_ = s.AddSyncEvent(0, igniteFlares, "flares")
//	_ = s.AddSyncBatch(5*time.Second, []timeline.Command{spots, wash}, "front lights")
//	_ = s.AddAsyncEvent(10*time.Second, fadeHouseLights, "house fade")
package show
