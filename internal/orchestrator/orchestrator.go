package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhickman/showrunner/internal/executor"
	"github.com/jhickman/showrunner/internal/show"
	"github.com/jhickman/showrunner/internal/timeline"
)

// Logger defines the logging interface for the orchestrator.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Metrics receives timing observations from runs. Implementations must
// not block; the orchestrator calls them inline on the run path.
type Metrics interface {
	// RecordEventTiming reports an event's scheduled offset and the
	// actual elapsed time at which it was dispatched.
	RecordEventTiming(showName, event string, scheduled, actual time.Duration)

	// RecordRun reports a finished run attempt.
	RecordRun(showName string, status RunStatus, duration time.Duration, eventsFired int)
}

// Orchestrator runs shows: it owns the registry, the run state machine,
// and hook invocation. At most one show runs at a time.
type Orchestrator struct {
	hooks   Hooks
	exec    *executor.Executor
	logger  Logger
	repo    Repository
	metrics Metrics

	showsMu sync.RWMutex
	shows   map[string]*show.Show

	// running and interrupted are atomics so a signal-driven Stop never
	// takes a lock.
	running     atomic.Bool
	interrupted atomic.Bool
	current     atomic.Pointer[runHandle]
}

// runHandle is the transient state of one run attempt. It is created at
// run entry and discarded at exit.
type runHandle struct {
	show *show.Show

	stopRequested atomic.Bool
	stopCh        chan struct{} // closed on stop request, cancels waits
	stopOnce      sync.Once
	done          chan struct{} // closed after PostShow completes
}

func newRunHandle(s *show.Show) *runHandle {
	return &runHandle{
		show:   s,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// requestStop flags the run for termination at its next checkpoint.
// Safe to call from any goroutine, any number of times.
func (h *runHandle) requestStop() {
	h.stopRequested.Store(true)
	h.stopOnce.Do(func() { close(h.stopCh) })
}

// Option configures an Orchestrator at construction.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator's logger.
func WithLogger(l Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithRepository enables run-history persistence.
func WithRepository(r Repository) Option {
	return func(o *Orchestrator) { o.repo = r }
}

// WithMetrics enables timing metrics.
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an orchestrator dispatching through exec.
func New(exec *executor.Executor, hooks Hooks, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		hooks:  hooks,
		exec:   exec,
		logger: noopLogger{},
		shows:  make(map[string]*show.Show),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// AddShow registers a show under its name, replacing any previous show
// with the same name.
func (o *Orchestrator) AddShow(s *show.Show) {
	o.showsMu.Lock()
	o.shows[s.Name()] = s
	o.showsMu.Unlock()
	o.logger.Info("show added", "show", s.Name(), "events", s.Timeline().Len())
}

// GetShow returns the registered show with the given name.
func (o *Orchestrator) GetShow(name string) (*show.Show, error) {
	o.showsMu.RLock()
	defer o.showsMu.RUnlock()
	s, ok := o.shows[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrShowNotFound, name)
	}
	return s, nil
}

// RemoveShow unregisters a show. Removing an unknown name is a no-op.
func (o *Orchestrator) RemoveShow(name string) {
	o.showsMu.Lock()
	defer o.showsMu.Unlock()
	delete(o.shows, name)
}

// ShowNames returns the registered show names in sorted order.
func (o *Orchestrator) ShowNames() []string {
	o.showsMu.RLock()
	defer o.showsMu.RUnlock()
	names := make([]string, 0, len(o.shows))
	for name := range o.shows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRunning reports whether a show is currently running.
func (o *Orchestrator) IsRunning() bool {
	return o.running.Load()
}

// CurrentShow returns the running show, or nil. The orchestrator holds
// no ownership over the returned show.
func (o *Orchestrator) CurrentShow() *show.Show {
	if h := o.current.Load(); h != nil {
		return h.show
	}
	return nil
}

// Run executes the named show. If another show is already running the
// call is refused as a logged no-op.
//
// Returns ErrShowNotFound for unknown names, ErrShowInterrupted when
// the run is stopped, and the wrapped failure when pre-show or an event
// fails. A gating denial is not an error.
func (o *Orchestrator) Run(ctx context.Context, name string, rc RunContext) error {
	return o.run(ctx, name, rc, false)
}

// RunPreempting executes the named show, first stopping any running
// show and waiting for its PostShow hook to complete.
func (o *Orchestrator) RunPreempting(ctx context.Context, name string, rc RunContext) error {
	return o.run(ctx, name, rc, true)
}

func (o *Orchestrator) run(ctx context.Context, name string, rc RunContext, preempt bool) error {
	s, err := o.GetShow(name)
	if err != nil {
		return err
	}
	if rc == nil {
		rc = RunContext{}
	}

	// Concurrency guard / preemption. The CAS is the single admission
	// point; losing it means another show holds the running slot.
	for !o.running.CompareAndSwap(false, true) {
		if !preempt {
			o.logger.Warn("show already running, refusing",
				"requested", name,
				"running", o.currentShowName(),
			)
			return nil
		}
		if h := o.current.Load(); h != nil {
			o.logger.Info("preempting running show",
				"running", h.show.Name(),
				"requested", name,
			)
			h.requestStop()
			<-h.done
		}
	}

	h := newRunHandle(s)
	o.current.Store(h)
	o.interrupted.Store(false)

	started := time.Now().UTC()
	rec := &RunRecord{
		ID:          GenerateID(),
		ShowName:    s.Name(),
		StartedAt:   started,
		Status:      StatusRunning,
		EventsTotal: s.Timeline().Len(),
	}
	o.createRecord(ctx, rec)

	o.logger.Info("show starting",
		"show", s.Name(),
		"run_id", rec.ID,
		"duration", s.Duration(),
		"events", rec.EventsTotal,
	)

	runErr := o.executeRun(ctx, h, s, rc, rec)

	// PostShow: exactly once per attempt, unconditionally, before the
	// handle's done channel closes so Stop and preemption observe
	// cleanup as finished.
	o.firePostShow(ctx, s, rc)

	o.finishRecord(ctx, rec, runErr, started)
	o.logger.Info("show finished",
		"show", s.Name(),
		"run_id", rec.ID,
		"status", rec.Status,
		"events_fired", rec.EventsFired,
	)

	o.current.Store(nil)
	o.running.Store(false)
	close(h.done)

	return runErr
}

// executeRun performs gating, pre-show and the timeline walk. It never
// invokes PostShow; the caller owns that. On failure, OnError has
// already fired exactly once.
func (o *Orchestrator) executeRun(ctx context.Context, h *runHandle, s *show.Show, rc RunContext, rec *RunRecord) error {
	allowed, reason := o.gate(ctx, s, rc)
	if !allowed {
		o.logger.Info("show denied by gate", "show", s.Name(), "reason", reason)
		rec.Status = StatusDenied
		rec.DenyReason = &reason
		return nil
	}

	if o.hooks.PreShow != nil {
		o.logger.Debug("running pre-show hook", "show", s.Name())
		if err := o.hooks.PreShow(ctx, s, rc); err != nil {
			wrapped := fmt.Errorf("pre-show hook: %w", err)
			o.fireOnError(ctx, wrapped, nil, s, rc)
			rec.Status = StatusFailed
			return wrapped
		}
	}

	return o.runTimeline(ctx, h, s, rc, rec)
}

// runTimeline walks the show's events in offset order.
//
// Each wait is computed against absolute elapsed time, not the previous
// event, so a late event does not delay the rest of the show by the same
// amount. Stop requests are honoured at the checkpoint before each wait
// and each dispatch, never mid-command.
func (o *Orchestrator) runTimeline(ctx context.Context, h *runHandle, s *show.Show, rc RunContext, rec *RunRecord) error {
	events := s.Events()
	if len(events) == 0 {
		o.logger.Warn("show has no events", "show", s.Name())
		rec.Status = StatusCompleted
		return nil
	}

	start := time.Now()

	for _, ev := range events {
		// Checkpoint: end the loop without executing remaining events.
		if h.stopRequested.Load() || ctx.Err() != nil {
			return o.interrupt(s, rec)
		}

		if wait := ev.Offset - time.Since(start); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-h.stopCh:
				timer.Stop()
				return o.interrupt(s, rec)
			case <-ctx.Done():
				timer.Stop()
				return o.interrupt(s, rec)
			}
		}

		o.logger.Debug("dispatching event",
			"show", s.Name(),
			"event", ev.Description,
			"offset", ev.Offset,
			"async", ev.Async,
			"batch", ev.Batch(),
		)

		err := o.dispatch(ctx, ev)
		if o.metrics != nil {
			o.metrics.RecordEventTiming(s.Name(), ev.Description, ev.Offset, time.Since(start))
		}

		if err != nil {
			wrapped := &EventExecutionError{Event: ev.Description, Err: err}
			o.logger.Error("event execution failed",
				"show", s.Name(),
				"event", ev.Description,
				"error", err,
			)
			o.fireOnError(ctx, wrapped, &ev, s, rc)
			rec.Status = StatusFailed
			return wrapped
		}

		rec.EventsFired++
		o.fireOnEvent(ctx, ev, s, rc)
	}

	rec.Status = StatusCompleted
	return nil
}

func (o *Orchestrator) interrupt(s *show.Show, rec *RunRecord) error {
	o.logger.Info("timeline execution stopped", "show", s.Name())
	rec.Status = StatusInterrupted
	return fmt.Errorf("%w: %q", ErrShowInterrupted, s.Name())
}

// dispatch routes an event to the executor per its async/batch shape.
// For batches the first captured failure is returned, annotated with
// its slot; completed siblings are not rolled back.
func (o *Orchestrator) dispatch(ctx context.Context, ev timeline.Event) error {
	if ev.Batch() {
		var results []error
		if ev.Async {
			results = o.exec.ExecuteAsyncBatch(ctx, ev.Commands)
		} else {
			results = o.exec.ExecuteSyncBatch(ctx, ev.Commands)
		}
		for i, err := range results {
			if err != nil {
				return fmt.Errorf("batch command %d: %w", i, err)
			}
		}
		return nil
	}

	if ev.Async {
		return o.exec.ExecuteAsync(ctx, ev.Commands[0])
	}
	return o.exec.ExecuteSync(ctx, ev.Commands[0])
}

// gate normalises the CanRun verdict. This is the single place where
// ambiguity becomes fail-open: a hook error or an indeterminate result
// allows the run, with the anomaly logged. Availability beats a
// misbehaving gate.
func (o *Orchestrator) gate(ctx context.Context, s *show.Show, rc RunContext) (allowed bool, reason string) {
	if o.hooks.CanRun == nil {
		return true, ""
	}

	res, err := o.hooks.CanRun(ctx, s, rc)
	if err != nil {
		o.logger.Warn("gate hook failed, failing open", "show", s.Name(), "error", err)
		return true, ""
	}

	switch res.Decision {
	case DecisionAllow:
		return true, ""
	case DecisionDeny:
		return false, res.Reason
	default:
		o.logger.Warn("gate returned indeterminate result, failing open", "show", s.Name())
		return true, ""
	}
}

// Rotate runs the named shows in sequence. With repeat it loops until
// interrupted. The rotation aborts immediately when an interruption is
// observed or any run fails.
func (o *Orchestrator) Rotate(ctx context.Context, names []string, repeat bool, rc RunContext) error {
	iteration := 0
	for {
		iteration++
		o.logger.Info("rotation iteration starting", "iteration", iteration)

		for _, name := range names {
			if o.interrupted.Load() || ctx.Err() != nil {
				o.logger.Info("rotation interrupted", "iteration", iteration)
				return nil
			}
			if err := o.Run(ctx, name, rc); err != nil {
				return fmt.Errorf("rotation show %q: %w", name, err)
			}
		}

		if !repeat {
			return nil
		}
		o.logger.Info("rotation iteration complete", "iteration", iteration)
	}
}

// Stop requests a graceful stop of the running show and blocks until
// that show's PostShow hook has completed. Without a running show it is
// a logged no-op.
//
// The request is honoured at the run's next checkpoint; an in-flight
// command is never forcibly preempted.
func (o *Orchestrator) Stop() {
	h := o.current.Load()
	if h == nil {
		o.logger.Warn("no show is currently running")
		return
	}

	o.logger.Info("stopping show", "show", h.show.Name())
	o.interrupted.Store(true)
	h.requestStop()
	<-h.done
}

// Shutdown stops any running show and shuts the executor down.
func (o *Orchestrator) Shutdown() {
	o.logger.Info("shutting down orchestrator")
	if o.current.Load() != nil {
		o.Stop()
	}
	o.exec.Shutdown()
}

func (o *Orchestrator) currentShowName() string {
	if h := o.current.Load(); h != nil {
		return h.show.Name()
	}
	return ""
}

// ─── Hook isolation ─────────────────────────────────────────────────────────

func (o *Orchestrator) fireOnEvent(ctx context.Context, ev timeline.Event, s *show.Show, rc RunContext) {
	if o.hooks.OnEvent == nil {
		return
	}
	if err := o.hooks.OnEvent(ctx, ev, s, rc); err != nil {
		o.logger.Error("event hook failed", "show", s.Name(), "event", ev.Description, "error", err)
	}
}

func (o *Orchestrator) fireOnError(ctx context.Context, runErr error, ev *timeline.Event, s *show.Show, rc RunContext) {
	if o.hooks.OnError == nil {
		return
	}
	if err := o.hooks.OnError(ctx, runErr, ev, s, rc); err != nil {
		o.logger.Error("error hook failed", "show", s.Name(), "error", err)
	}
}

func (o *Orchestrator) firePostShow(ctx context.Context, s *show.Show, rc RunContext) {
	if o.hooks.PostShow == nil {
		return
	}
	o.logger.Debug("running post-show hook", "show", s.Name())
	if err := o.hooks.PostShow(ctx, s, rc); err != nil {
		o.logger.Error("post-show hook failed", "show", s.Name(), "error", err)
	}
}

// ─── Run history ────────────────────────────────────────────────────────────

func (o *Orchestrator) createRecord(ctx context.Context, rec *RunRecord) {
	if o.repo == nil {
		return
	}
	if err := o.repo.CreateRun(ctx, rec); err != nil {
		// Running the show matters more than recording it.
		o.logger.Error("failed to create run record", "run_id", rec.ID, "error", err)
	}
}

func (o *Orchestrator) finishRecord(ctx context.Context, rec *RunRecord, runErr error, started time.Time) {
	completed := time.Now().UTC()
	rec.CompletedAt = &completed
	duration := int(completed.Sub(started).Milliseconds())
	rec.DurationMS = &duration

	if runErr != nil && rec.Status == StatusRunning {
		rec.Status = StatusFailed
	}
	if runErr != nil && !errors.Is(runErr, ErrShowInterrupted) {
		msg := runErr.Error()
		rec.Error = &msg
	}
	if rec.Status == StatusRunning {
		rec.Status = StatusCompleted
	}

	if o.metrics != nil {
		o.metrics.RecordRun(rec.ShowName, rec.Status, completed.Sub(started), rec.EventsFired)
	}
	if o.repo == nil {
		return
	}
	if err := o.repo.UpdateRun(ctx, rec); err != nil {
		o.logger.Error("failed to update run record", "run_id", rec.ID, "error", err)
	}
}
