package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/jhickman/showrunner/internal/timeline"
)

// ErrShutDown is returned by every Execute call after Shutdown.
var ErrShutDown = errors.New("executor: shut down")

// DefaultMaxWorkers is the worker pool capacity used when New is given
// a non-positive value.
const DefaultMaxWorkers = 20

// Executor dispatches commands with a bounded worker pool for blocking
// work and direct goroutines for cooperative work.
type Executor struct {
	pool *semaphore.Weighted

	mu       sync.RWMutex
	shutdown bool
}

// New creates an executor whose sync worker pool admits maxWorkers
// concurrent commands. Non-positive values select DefaultMaxWorkers.
func New(maxWorkers int) *Executor {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return &Executor{
		pool: semaphore.NewWeighted(int64(maxWorkers)),
	}
}

// ExecuteSync runs a blocking command on the worker pool and waits for
// it to finish. The command's failure is propagated unchanged.
//
// Blocks while the pool is saturated; ctx cancellation aborts the wait.
func (e *Executor) ExecuteSync(ctx context.Context, cmd timeline.Command) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if err := e.pool.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquiring worker: %w", err)
	}
	defer e.pool.Release(1)

	return cmd(ctx)
}

// ExecuteAsync runs a cooperative command directly, without a pool slot,
// and waits for it to finish. The command's failure is propagated
// unchanged.
//
// A long-running async command stalls only its caller; this is the
// accepted cost of the cooperative model.
func (e *Executor) ExecuteAsync(ctx context.Context, cmd timeline.Command) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return cmd(ctx)
}

// ExecuteSyncBatch fans the ordered command list out concurrently on the
// worker pool.
//
// The result slice preserves input order: results[i] is the outcome of
// commands[i]. A failing command is captured in its slot and never
// aborts its siblings.
func (e *Executor) ExecuteSyncBatch(ctx context.Context, cmds []timeline.Command) []error {
	return e.batch(ctx, cmds, e.runPooled)
}

// ExecuteAsyncBatch fans the ordered command list out as plain
// goroutines, with the same order-preserving result contract as
// ExecuteSyncBatch.
func (e *Executor) ExecuteAsyncBatch(ctx context.Context, cmds []timeline.Command) []error {
	return e.batch(ctx, cmds, func(ctx context.Context, cmd timeline.Command) error {
		return cmd(ctx)
	})
}

func (e *Executor) batch(ctx context.Context, cmds []timeline.Command, run func(context.Context, timeline.Command) error) []error {
	if len(cmds) == 0 {
		return nil
	}

	results := make([]error, len(cmds))
	if err := e.checkOpen(); err != nil {
		for i := range results {
			results[i] = err
		}
		return results
	}

	var wg sync.WaitGroup
	for i, cmd := range cmds {
		wg.Add(1)
		go func(idx int, c timeline.Command) {
			defer wg.Done()
			results[idx] = run(ctx, c)
		}(i, cmd)
	}
	wg.Wait()

	return results
}

func (e *Executor) runPooled(ctx context.Context, cmd timeline.Command) error {
	if err := e.pool.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquiring worker: %w", err)
	}
	defer e.pool.Release(1)
	return cmd(ctx)
}

// Shutdown stops the executor from accepting new work. In-flight
// commands run to completion. Idempotent.
func (e *Executor) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shutdown = true
}

func (e *Executor) checkOpen() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.shutdown {
		return ErrShutDown
	}
	return nil
}
