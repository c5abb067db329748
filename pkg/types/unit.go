// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// UnitStatus indicates the outcome of a work unit attempt.
type UnitStatus string

const (
	UnitPending    UnitStatus = "pending"
	UnitTranslated UnitStatus = "translated"
	UnitSkipped    UnitStatus = "skipped"
	UnitUnresolved UnitStatus = "unresolved"
	UnitFailed     UnitStatus = "failed"
)

// PageRange selects a contiguous span of source pages (0-indexed, inclusive).
type PageRange struct {
	// Start is the first page to translate.
	Start int `json:"start" yaml:"start"`

	// End is the last page to translate. Must not precede Start.
	End int `json:"end" yaml:"end"`
}

// WorkUnit is one independently translatable chunk of the source book.
type WorkUnit struct {
	// ID identifies the unit in logs, status lines, and retry arguments
	// (e.g. "02").
	ID string `json:"id" yaml:"id"`

	// InputPattern is a glob resolved against the input directory to find
	// the unit's PDF (e.g. "PCM_part_02_*.pdf"). When several files match,
	// the lexicographically first one is used.
	InputPattern string `json:"input_pattern,omitempty" yaml:"input_pattern,omitempty"`

	// OutputDir receives the pipeline's artifacts for this unit. Each unit
	// owns its directory exclusively.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Part is the part label forwarded to the pipeline (e.g. "II").
	// Derived from ID when empty.
	Part string `json:"part,omitempty" yaml:"part,omitempty"`

	// Pages translates a page span of the master PDF instead of a split
	// file. Mutually exclusive with InputPattern.
	Pages *PageRange `json:"pages,omitempty" yaml:"pages,omitempty"`
}

// UnitResult records the outcome of one work unit attempt.
type UnitResult struct {
	// UnitID identifies the attempted unit.
	UnitID string `json:"unit_id" yaml:"unit_id"`

	// Status is the attempt outcome.
	Status UnitStatus `json:"status" yaml:"status"`

	// InputPath is the resolved input PDF. Empty in page-range mode and
	// when resolution failed.
	InputPath string `json:"input_path,omitempty" yaml:"input_path,omitempty"`

	// ExitCode is the pipeline's exit code, or -1 when it did not run.
	ExitCode int `json:"exit_code" yaml:"exit_code"`

	// Reason describes a skip or failure in one line.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	// StartedAt is when the attempt began.
	StartedAt time.Time `json:"started_at" yaml:"started_at"`

	// Duration is how long the attempt took.
	Duration time.Duration `json:"duration" yaml:"duration"`
}
