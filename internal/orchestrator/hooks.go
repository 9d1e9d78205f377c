package orchestrator

import (
	"context"

	"github.com/jhickman/showrunner/internal/show"
	"github.com/jhickman/showrunner/internal/timeline"
)

// RunContext is opaque key/value data passed through to every hook of a
// run. The orchestrator never inspects it.
type RunContext map[string]any

// Decision is the outcome of a CanRun gate.
type Decision int

const (
	// DecisionIndeterminate is the zero value; it is normalised to
	// allow (fail-open) with the anomaly logged.
	DecisionIndeterminate Decision = iota

	// DecisionAllow lets the run proceed.
	DecisionAllow

	// DecisionDeny suppresses the run's events. PostShow still fires.
	DecisionDeny
)

// GateResult is a CanRun verdict with an optional human-readable reason
// for denials.
type GateResult struct {
	Decision Decision
	Reason   string
}

// Allow returns an allowing gate result.
func Allow() GateResult {
	return GateResult{Decision: DecisionAllow}
}

// Deny returns a denying gate result with the given reason.
func Deny(reason string) GateResult {
	return GateResult{Decision: DecisionDeny, Reason: reason}
}

// Hooks holds the optional lifecycle callbacks invoked around a run.
// Any field may be nil.
//
// Failure isolation: OnEvent, OnError and PostShow failures are logged
// and never alter control flow. PreShow failure aborts the run before
// any event executes. CanRun failure fails open.
type Hooks struct {
	// PreShow runs before the timeline starts.
	PreShow func(ctx context.Context, s *show.Show, rc RunContext) error

	// PostShow runs exactly once per run attempt, unconditionally.
	PostShow func(ctx context.Context, s *show.Show, rc RunContext) error

	// OnEvent runs after each successfully dispatched event.
	OnEvent func(ctx context.Context, ev timeline.Event, s *show.Show, rc RunContext) error

	// OnError runs once per run failure, before PostShow. For event
	// failures ev carries the failing event; for pre-show failures ev
	// is nil.
	OnError func(ctx context.Context, err error, ev *timeline.Event, s *show.Show, rc RunContext) error

	// CanRun gates the run. A nil hook allows. The returned error and
	// DecisionIndeterminate both normalise to allow; see gate().
	CanRun func(ctx context.Context, s *show.Show, rc RunContext) (GateResult, error)
}
