// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package progress reports how far a translation run has gotten. All
// checks are read-only and advisory. A progress check never fails: when
// a source cannot be read the snapshot carries a warning instead.
// See docs/ARCHITECTURE § Progress Monitor.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sigongjoa/math-translation-study/internal/runlog"
	"github.com/sigongjoa/math-translation-study/pkg/types"
)

// DefaultTailLines is how much recent log activity a check shows.
const DefaultTailLines = 20

// Collect gathers a point-in-time snapshot of run progress.
func Collect(cfg types.MonitorConfig) types.ProgressSnapshot {
	snap := types.ProgressSnapshot{
		CheckedAt:        time.Now().UTC(),
		ExpectedSections: cfg.ExpectedSections,
	}

	tailLines := cfg.TailLines
	if tailLines <= 0 {
		tailLines = DefaultTailLines
	}

	if _, err := os.Stat(cfg.LogPath); err == nil {
		snap.LogPresent = true
	} else if !os.IsNotExist(err) {
		snap.Warnings = append(snap.Warnings, fmt.Sprintf("stat log: %v", err))
	}

	if snap.LogPresent {
		lines, err := runlog.Tail(cfg.LogPath, tailLines)
		if err != nil {
			snap.Warnings = append(snap.Warnings, err.Error())
		}
		snap.LogTail = lines
	}

	count, err := countSections(cfg.SectionsDir)
	if err != nil {
		snap.Warnings = append(snap.Warnings, err.Error())
	}
	snap.CompletedSections = count

	if cfg.ProcessPattern != "" {
		snap.Pipeline = IsRunning(cfg.ProcessPattern)
	}
	return snap
}

// countSections counts section JSON files. A directory the pipeline has
// not created yet simply means no sections are done.
func countSections(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading sections dir %s: %w", dir, err)
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) == ".json" {
			n++
		}
	}
	return n, nil
}

// Render prints a snapshot in the console layout.
func Render(w io.Writer, snap types.ProgressSnapshot) {
	fmt.Fprintf(w, "Translation progress (checked %s)\n\n", snap.CheckedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "sections: %d / %d completed\n", snap.CompletedSections, snap.ExpectedSections)
	if snap.Pipeline != "" {
		fmt.Fprintf(w, "pipeline: %s\n", livenessText(snap.Pipeline))
	}

	switch {
	case !snap.LogPresent:
		fmt.Fprint(w, "\nno activity yet (log not found)\n")
	case len(snap.LogTail) == 0:
		fmt.Fprint(w, "\nno activity yet (log is empty)\n")
	default:
		fmt.Fprintf(w, "\nlast %d log lines:\n", len(snap.LogTail))
		for _, line := range snap.LogTail {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	if len(snap.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warn := range snap.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warn)
		}
	}
}

func livenessText(l types.Liveness) string {
	switch l {
	case types.LivenessRunning:
		return "running"
	case types.LivenessStopped:
		return "not running"
	default:
		return "unknown"
	}
}
