// Package executor dispatches show commands with bounded concurrency.
//
// Two dispatch modes exist:
//
//   - Sync: the command is expected to block. It runs inside a bounded
//     worker pool (a weighted semaphore) so that blocking work cannot
//     exhaust the process. The caller waits for completion.
//   - Async: the command is expected to be cooperative. It runs directly
//     on the Go scheduler with no pool slot; a long-running async
//     command delays nothing but its own batch siblings' collection.
//
// Batch variants fan an ordered command list out concurrently and
// collect per-slot results preserving input order. A failing command is
// captured in its slot; siblings are never aborted. The caller decides
// how to treat captured failures.
//
// # Thread Safety
//
// All methods are safe for concurrent use. After Shutdown, every
// Execute call fails with ErrShutDown.
package executor
