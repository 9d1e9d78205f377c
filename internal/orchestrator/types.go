package orchestrator

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the terminal state of a run attempt.
type RunStatus string

const (
	StatusRunning     RunStatus = "running"
	StatusCompleted   RunStatus = "completed"
	StatusFailed      RunStatus = "failed"
	StatusInterrupted RunStatus = "interrupted"
	StatusDenied      RunStatus = "denied"
)

// RunRecord is the audit record of a single run attempt.
//
// One record is created when the attempt starts and updated when it
// reaches a terminal status. Records are persisted through a
// Repository when one is configured; a nil repository disables history.
type RunRecord struct {
	ID          string     `json:"id"`
	ShowName    string     `json:"show_name"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      RunStatus  `json:"status"`

	// Event counts
	EventsTotal int `json:"events_total"`
	EventsFired int `json:"events_fired"`

	// DenyReason is set when gating denied the run.
	DenyReason *string `json:"deny_reason,omitempty"`

	// Error describes the failure for failed runs.
	Error *string `json:"error,omitempty"`

	// DurationMS is the total attempt duration in milliseconds.
	DurationMS *int `json:"duration_ms,omitempty"`
}

// GenerateID creates a new UUID for a run record.
func GenerateID() string {
	return uuid.New().String()
}
