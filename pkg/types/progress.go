// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Liveness reports whether a pipeline process appears to be running.
// The answer is advisory: it races with process start and exit.
type Liveness string

const (
	LivenessRunning Liveness = "running"
	LivenessStopped Liveness = "stopped"
	LivenessUnknown Liveness = "unknown"
)

// ProgressSnapshot is a point-in-time view of translation progress,
// assembled entirely from filesystem reads. It has no lifecycle; every
// check produces a fresh snapshot.
type ProgressSnapshot struct {
	// CheckedAt is when the snapshot was taken.
	CheckedAt time.Time `json:"checked_at" yaml:"checked_at"`

	// LogPresent reports whether the run log exists yet.
	LogPresent bool `json:"log_present" yaml:"log_present"`

	// LogTail holds the last lines of the run log, oldest first.
	LogTail []string `json:"log_tail,omitempty" yaml:"log_tail,omitempty"`

	// CompletedSections is the number of section files found.
	CompletedSections int `json:"completed_sections" yaml:"completed_sections"`

	// ExpectedSections is the configured section total.
	ExpectedSections int `json:"expected_sections" yaml:"expected_sections"`

	// Pipeline is the advisory process liveness.
	Pipeline Liveness `json:"pipeline" yaml:"pipeline"`

	// Warnings lists reads that could not be completed. The snapshot
	// stays usable; affected fields hold zero values.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}
