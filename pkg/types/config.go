// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunConfig holds the settings for one batch run. It is fixed before the
// first unit starts; changing models or paths means starting a new run.
type RunConfig struct {
	// PipelineCommand is the external pipeline executable to invoke.
	PipelineCommand string `json:"pipeline_command" yaml:"pipeline_command"`

	// InputDir is the directory holding the split source PDFs.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// LogPath is the append-only run log shared with progress checks.
	LogPath string `json:"log_path" yaml:"log_path"`

	// Model is the primary translation model identifier (e.g. "gemma2:9b").
	Model string `json:"model" yaml:"model"`

	// SupplementModel generates supplementary explanations.
	SupplementModel string `json:"supplement_model" yaml:"supplement_model"`

	// VerifyModel checks translated sections.
	VerifyModel string `json:"verify_model" yaml:"verify_model"`

	// ResearchModel answers verification research queries.
	ResearchModel string `json:"research_model" yaml:"research_model"`

	// VerifyTypes lists the verification passes to request
	// (e.g. formula, semantic, logic, research).
	VerifyTypes []string `json:"verify_types" yaml:"verify_types"`

	// UnitTimeout bounds a single pipeline invocation. Zero means no limit.
	UnitTimeout time.Duration `json:"unit_timeout" yaml:"unit_timeout"`
}

// MonitorConfig holds the settings for a progress check.
type MonitorConfig struct {
	// LogPath is the run log to tail.
	LogPath string `json:"log_path" yaml:"log_path"`

	// SectionsDir is the directory whose *.json files count as completed
	// sections (e.g. "output_part_02/sections").
	SectionsDir string `json:"sections_dir" yaml:"sections_dir"`

	// ExpectedSections is the section total for the watched output.
	ExpectedSections int `json:"expected_sections" yaml:"expected_sections"`

	// TailLines is how many trailing log lines to show.
	TailLines int `json:"tail_lines" yaml:"tail_lines"`

	// ProcessPattern is the substring used to spot a live pipeline
	// process. Empty skips the liveness probe.
	ProcessPattern string `json:"process_pattern" yaml:"process_pattern"`
}
