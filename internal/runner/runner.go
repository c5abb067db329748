// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runner sequences work units through the translation pipeline.
// Units run one at a time and a failure never aborts the batch. Completed
// units are skipped, so a restart picks up where the last run stopped.
// See docs/ARCHITECTURE § Job Runner.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sigongjoa/math-translation-study/internal/runlog"
	"github.com/sigongjoa/math-translation-study/pkg/types"
)

// completionMarker is the file the pipeline writes last. Its presence in
// a unit's output directory marks the unit complete.
const completionMarker = "metadata.json"

// Pipeline runs the external translation process for one unit, writing
// the process output to logw.
type Pipeline interface {
	Invoke(ctx context.Context, unit types.WorkUnit, inputPath string, logw io.Writer) (int, error)
}

// BatchResult holds the outcome of a batch run.
type BatchResult struct {
	Translated int
	Skipped    int
	Failed     int
	Results    []types.UnitResult
}

// Total returns the number of units processed.
func (r BatchResult) Total() int {
	return r.Translated + r.Skipped + r.Failed
}

// HasFailures reports whether any unit failed or could not resolve input.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// FailedResults returns the results of units that did not complete.
func (r BatchResult) FailedResults() []types.UnitResult {
	var failed []types.UnitResult
	for _, res := range r.Results {
		if res.Status == types.UnitFailed || res.Status == types.UnitUnresolved {
			failed = append(failed, res)
		}
	}
	return failed
}

// AllUnresolved reports whether every processed unit failed input
// resolution. A batch like that never invoked the pipeline at all,
// which callers treat as a startup failure rather than unit failures.
func (r BatchResult) AllUnresolved() bool {
	if len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if res.Status != types.UnitUnresolved {
			return false
		}
	}
	return true
}

// Runner executes work units sequentially.
type Runner struct {
	cfg  types.RunConfig
	pipe Pipeline
	log  *runlog.Writer
}

// New returns a Runner. log may be nil, in which case pipeline output is
// discarded and no events are recorded.
func New(cfg types.RunConfig, pipe Pipeline, log *runlog.Writer) *Runner {
	return &Runner{cfg: cfg, pipe: pipe, log: log}
}

// Complete reports whether a unit's output directory holds the
// completion marker.
func Complete(unit types.WorkUnit) bool {
	_, err := os.Stat(filepath.Join(unit.OutputDir, completionMarker))
	return err == nil
}

// RunUnit processes a single unit, printing its status line to w.
func (r *Runner) RunUnit(ctx context.Context, unit types.WorkUnit, w io.Writer) types.UnitResult {
	res := types.UnitResult{
		UnitID:    unit.ID,
		ExitCode:  -1,
		StartedAt: time.Now().UTC(),
	}

	if Complete(unit) {
		res.Status = types.UnitSkipped
		fmt.Fprintf(w, "skipped: %s (already complete)\n", unit.ID)
		r.logEnd(res)
		return res
	}

	if unit.InputPattern != "" {
		input, err := ResolveInput(r.cfg.InputDir, unit.InputPattern, unit.ID)
		if err != nil {
			res.Status = types.UnitUnresolved
			res.Reason = err.Error()
			fmt.Fprintf(w, "failed:  %s (%v)\n", unit.ID, err)
			r.logEnd(res)
			return res
		}
		res.InputPath = input
	}

	if err := os.MkdirAll(unit.OutputDir, 0o755); err != nil {
		res.Status = types.UnitFailed
		res.Reason = err.Error()
		fmt.Fprintf(w, "failed:  %s (%v)\n", unit.ID, err)
		r.logEnd(res)
		return res
	}

	fmt.Fprintf(w, "translating: %s (%s)\n", unit.ID, describeScope(unit, res.InputPath))
	r.logEvent(runlog.Event{
		Kind:     runlog.EventUnitStart,
		UnitID:   unit.ID,
		ExitCode: -1,
		Input:    res.InputPath,
	})

	code, err := r.pipe.Invoke(ctx, unit, res.InputPath, r.logWriter())
	res.ExitCode = code
	res.Duration = time.Since(res.StartedAt)

	if err != nil {
		res.Status = types.UnitFailed
		res.Reason = err.Error()
		fmt.Fprintf(w, "failed:  %s (%v)\n", unit.ID, err)
	} else {
		res.Status = types.UnitTranslated
		fmt.Fprintf(w, "translated: %s\n", unit.ID)
	}
	r.logEnd(res)
	return res
}

// RunBatch processes units in manifest order, printing per-unit status to
// w and a summary line at the end. A cancelled context stops the batch
// before the next unit starts.
func (r *Runner) RunBatch(ctx context.Context, units []types.WorkUnit, w io.Writer) BatchResult {
	var result BatchResult
	result.Results = make([]types.UnitResult, 0, len(units))

	r.logEvent(runlog.Event{
		Kind:     runlog.EventRunStart,
		ExitCode: -1,
		Message:  fmt.Sprintf("units=%d model=%s input_dir=%s", len(units), r.cfg.Model, r.cfg.InputDir),
	})

	for _, unit := range units {
		if ctx.Err() != nil {
			fmt.Fprintf(w, "interrupted: stopping before unit %s\n", unit.ID)
			break
		}
		res := r.RunUnit(ctx, unit, w)
		result.Results = append(result.Results, res)
		switch res.Status {
		case types.UnitTranslated:
			result.Translated++
		case types.UnitSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d translated, %d skipped, %d failed (total: %d)\n",
		result.Translated, result.Skipped, result.Failed, result.Total())
	for _, res := range result.FailedResults() {
		fmt.Fprintf(w, "  failed unit %s: %s\n", res.UnitID, res.Reason)
	}

	r.logEvent(runlog.Event{
		Kind:     runlog.EventRunEnd,
		ExitCode: -1,
		Message: fmt.Sprintf("translated=%d skipped=%d failed=%d",
			result.Translated, result.Skipped, result.Failed),
	})
	return result
}

// describeScope renders what the unit covers for the status line.
func describeScope(unit types.WorkUnit, inputPath string) string {
	switch {
	case inputPath != "":
		return inputPath
	case unit.Pages != nil:
		return fmt.Sprintf("pages %d-%d", unit.Pages.Start, unit.Pages.End)
	default:
		return "part " + unit.Part
	}
}

func (r *Runner) logWriter() io.Writer {
	if r.log == nil {
		return io.Discard
	}
	return r.log
}

// logEvent appends an event to the run log. Append failures must not
// abort a run.
func (r *Runner) logEvent(e runlog.Event) {
	if r.log == nil {
		return
	}
	_ = r.log.Event(e)
}

func (r *Runner) logEnd(res types.UnitResult) {
	r.logEvent(runlog.Event{
		Kind:     runlog.EventUnitEnd,
		UnitID:   res.UnitID,
		Status:   res.Status,
		ExitCode: res.ExitCode,
		Input:    res.InputPath,
		Duration: res.Duration,
		Message:  res.Reason,
	})
}
