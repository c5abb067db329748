// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sigongjoa/math-translation-study/internal/runlog"
)

// Scanner buffer bounds; pipeline output lines can get long.
const (
	scanBufSize = 64 * 1024
	scanBufMax  = 1024 * 1024
)

// errMalformedEvent marks an event line whose payload is unusable.
var errMalformedEvent = errors.New("malformed event payload")

// ImportSummary holds counts from a log import.
type ImportSummary struct {
	Imported  int
	Duplicate int
	Malformed int
}

// Total returns the number of event lines processed.
func (s ImportSummary) Total() int {
	return s.Imported + s.Duplicate + s.Malformed
}

// ImportLog reads structured events from the run log at logPath and
// records them. Pipeline output lines are not events and are passed
// over; lines that carry the event prefix but fail to parse count as
// malformed. Importing the same log again records nothing new.
func (s *Store) ImportLog(ctx context.Context, logPath string, w io.Writer) (ImportSummary, error) {
	f, err := os.Open(logPath)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("opening log %s: %w", logPath, err)
	}
	defer f.Close()

	var summary ImportSummary
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, scanBufSize), scanBufMax)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		line := scanner.Text()
		if !runlog.IsEventLine(line) {
			continue
		}
		e, ok := runlog.ParseLine(line)
		if !ok {
			summary.Malformed++
			continue
		}
		if e.Kind == runlog.EventUnitStart {
			// Start events carry no durable state; unit_end has it all.
			continue
		}

		imported, err := s.record(ctx, e)
		switch {
		case errors.Is(err, errMalformedEvent):
			summary.Malformed++
		case err != nil:
			return summary, fmt.Errorf("recording %s event: %w", e.Kind, err)
		case imported:
			summary.Imported++
		default:
			summary.Duplicate++
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("reading log %s: %w", logPath, err)
	}

	fmt.Fprintf(w, "imported: %d, duplicate: %d, malformed: %d\n",
		summary.Imported, summary.Duplicate, summary.Malformed)
	return summary, nil
}

// record stores one event, reporting whether it created or advanced a
// row. Idempotency comes from the schema: replays affect nothing.
func (s *Store) record(ctx context.Context, e runlog.Event) (bool, error) {
	switch e.Kind {
	case runlog.EventRunStart:
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO runs (id, started_at) VALUES (?, ?)
			 ON CONFLICT(id) DO NOTHING`,
			e.RunID, e.Time.Format(time.RFC3339))
		if err != nil {
			return false, err
		}
		return oneRow(res)

	case runlog.EventUnitEnd:
		// A truncated log can lose its run_start. Keep the attempt
		// anyway under a stub run row.
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO runs (id, started_at) VALUES (?, ?)`,
			e.RunID, e.Time.Format(time.RFC3339)); err != nil {
			return false, err
		}
		res, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO attempts
			 (run_id, unit_id, status, input, exit_code, message, recorded_at, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.RunID, e.UnitID, string(e.Status), e.Input, e.ExitCode, e.Message,
			e.Time.Format(time.RFC3339), e.Duration.Milliseconds())
		if err != nil {
			return false, err
		}
		return oneRow(res)

	case runlog.EventRunEnd:
		var translated, skipped, failed int
		if _, err := fmt.Sscanf(e.Message, "translated=%d skipped=%d failed=%d",
			&translated, &skipped, &failed); err != nil {
			return false, errMalformedEvent
		}
		res, err := s.db.ExecContext(ctx,
			`UPDATE runs SET finished_at = ?, translated = ?, skipped = ?, failed = ?
			 WHERE id = ? AND finished_at IS NULL`,
			e.Time.Format(time.RFC3339), translated, skipped, failed, e.RunID)
		if err != nil {
			return false, err
		}
		return oneRow(res)
	}
	return false, errMalformedEvent
}

func oneRow(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
