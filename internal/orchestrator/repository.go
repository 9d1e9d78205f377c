package orchestrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when a run record ID does not exist.
var ErrRunNotFound = errors.New("orchestrator: run not found")

// Repository defines the interface for run-history persistence.
// This abstraction allows different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	CreateRun(ctx context.Context, rec *RunRecord) error
	UpdateRun(ctx context.Context, rec *RunRecord) error
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, showName string, limit int) ([]RunRecord, error)
}

// runColumns is the SELECT column list for run queries.
const runColumns = `id, show_name, started_at, completed_at, status,
			events_total, events_fired, deny_reason, error, duration_ms`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreateRun inserts a new run record.
func (r *SQLiteRepository) CreateRun(ctx context.Context, rec *RunRecord) error {
	query := `
		INSERT INTO show_runs (
			id, show_name, started_at, completed_at, status,
			events_total, events_fired, deny_reason, error, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.ShowName,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		formatTimePtr(rec.CompletedAt),
		string(rec.Status),
		rec.EventsTotal,
		rec.EventsFired,
		rec.DenyReason,
		rec.Error,
		rec.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("inserting run record: %w", err)
	}
	return nil
}

// UpdateRun updates an existing run record.
func (r *SQLiteRepository) UpdateRun(ctx context.Context, rec *RunRecord) error {
	query := `
		UPDATE show_runs SET
			completed_at = ?, status = ?, events_total = ?, events_fired = ?,
			deny_reason = ?, error = ?, duration_ms = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		formatTimePtr(rec.CompletedAt),
		string(rec.Status),
		rec.EventsTotal,
		rec.EventsFired,
		rec.DenyReason,
		rec.Error,
		rec.DurationMS,
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("updating run record: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %q", ErrRunNotFound, rec.ID)
	}
	return nil
}

// GetRun retrieves a run record by ID.
func (r *SQLiteRepository) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM show_runs WHERE id = ?`

	rec, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("querying run by id: %w", err)
	}
	return rec, nil
}

// ListRuns retrieves the most recent runs for a show, newest first.
// A non-positive limit returns all runs.
func (r *SQLiteRepository) ListRuns(ctx context.Context, showName string, limit int) ([]RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM show_runs WHERE show_name = ? ORDER BY started_at DESC`
	args := []any{showName}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return records, nil
}

// scanner abstracts sql.Row and sql.Rows for scanRun.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*RunRecord, error) {
	var (
		rec         RunRecord
		startedAt   string
		completedAt sql.NullString
		status      string
	)

	err := s.Scan(
		&rec.ID,
		&rec.ShowName,
		&startedAt,
		&completedAt,
		&status,
		&rec.EventsTotal,
		&rec.EventsFired,
		&rec.DenyReason,
		&rec.Error,
		&rec.DurationMS,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = RunStatus(status)
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing completed_at: %w", err)
		}
		rec.CompletedAt = &t
	}
	return &rec, nil
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}
