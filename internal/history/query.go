// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sigongjoa/math-translation-study/pkg/types"
)

// defaultLimit bounds list queries when the caller does not set one.
const defaultLimit = 50

// RunRecord is one runner invocation as stored in the database.
type RunRecord struct {
	ID         string     `json:"id" yaml:"id"`
	StartedAt  time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Translated int        `json:"translated" yaml:"translated"`
	Skipped    int        `json:"skipped" yaml:"skipped"`
	Failed     int        `json:"failed" yaml:"failed"`
}

// AttemptRecord is one unit attempt within a run.
type AttemptRecord struct {
	RunID      string           `json:"run_id" yaml:"run_id"`
	UnitID     string           `json:"unit_id" yaml:"unit_id"`
	Status     types.UnitStatus `json:"status" yaml:"status"`
	Input      string           `json:"input,omitempty" yaml:"input,omitempty"`
	ExitCode   int              `json:"exit_code" yaml:"exit_code"`
	Message    string           `json:"message,omitempty" yaml:"message,omitempty"`
	RecordedAt time.Time        `json:"recorded_at" yaml:"recorded_at"`
	DurationMS int64            `json:"duration_ms" yaml:"duration_ms"`
}

// QueryOptions holds filters for attempt queries.
type QueryOptions struct {
	// UnitID filters by unit.
	UnitID string

	// Statuses filters by one or more outcome statuses.
	Statuses []types.UnitStatus

	// Limit bounds result count. Zero uses the default.
	Limit int
}

// ListRuns returns runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, translated, skipped, failed
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			r        RunRecord
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Translated, &r.Skipped, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		if finished.Valid {
			if t, err := time.Parse(time.RFC3339, finished.String); err == nil {
				r.FinishedAt = &t
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListAttempts returns unit attempts matching the filters, newest first.
func (s *Store) ListAttempts(ctx context.Context, opts QueryOptions) ([]AttemptRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT run_id, unit_id, status, input, exit_code, message, recorded_at, duration_ms
		 FROM attempts WHERE 1=1`)

	if opts.UnitID != "" {
		qb.WriteString(` AND unit_id = ?`)
		args = append(args, opts.UnitID)
	}
	if len(opts.Statuses) > 0 {
		qb.WriteString(` AND status IN (?` + strings.Repeat(", ?", len(opts.Statuses)-1) + `)`)
		for _, st := range opts.Statuses {
			args = append(args, string(st))
		}
	}

	qb.WriteString(` ORDER BY recorded_at DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying attempts: %w", err)
	}
	defer rows.Close()

	var attempts []AttemptRecord
	for rows.Next() {
		var (
			a        AttemptRecord
			status   string
			input    sql.NullString
			message  sql.NullString
			recorded string
		)
		if err := rows.Scan(&a.RunID, &a.UnitID, &status, &input, &a.ExitCode, &message, &recorded, &a.DurationMS); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		a.Status = types.UnitStatus(status)
		if input.Valid {
			a.Input = input.String
		}
		if message.Valid {
			a.Message = message.String
		}
		a.RecordedAt, _ = time.Parse(time.RFC3339, recorded)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Failures returns attempts that did not complete, newest first.
func (s *Store) Failures(ctx context.Context, opts QueryOptions) ([]AttemptRecord, error) {
	opts.Statuses = []types.UnitStatus{types.UnitFailed, types.UnitUnresolved}
	return s.ListAttempts(ctx, opts)
}
