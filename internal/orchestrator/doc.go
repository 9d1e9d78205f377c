// Package orchestrator drives show execution for Showrunner.
//
// The Orchestrator owns a registry of shows and runs at most one of
// them at a time. A run walks the show's timeline in offset order,
// waiting out the gap to each event against absolute elapsed time and
// dispatching the event's commands through the executor. Lifecycle
// hooks fire around every transition.
//
// # Run lifecycle
//
//	Idle → Running → {Completed, Failed, Interrupted, Denied} → Idle
//
//	1. Concurrency guard: a second Run while a show is running is
//	   refused as a logged no-op; RunPreempting stops the running show
//	   first and waits for its post-show hook.
//	2. Gating: CanRun may deny the run; anything ambiguous or failing
//	   fails open (the show runs), with the anomaly logged.
//	3. PreShow: its failure aborts the run before any event fires.
//	4. Timeline: events in offset order, with a stop checkpoint before
//	   each wait and each dispatch. Waits are cancellable.
//	5. PostShow: exactly once per run attempt, unconditionally.
//
// # Cancellation
//
// Stop requests are honoured only at checkpoints, never inside an
// in-flight command. Stop returns after the interrupted run's PostShow
// hook has completed, so callers observe cleanup as finished. The
// running/interrupted flags are atomics so that a signal-driven caller
// never takes a lock.
//
// # Thread Safety
//
// All exported methods are safe for concurrent use.
package orchestrator
