// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Manifest declares the work units of a translation run plus the shared
// paths they resolve against.
type Manifest struct {
	// InputDir is the directory holding the split source PDFs.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// LogPath is the append-only run log.
	LogPath string `json:"log_path" yaml:"log_path"`

	// ExpectedSections is the section total used by progress checks.
	ExpectedSections int `json:"expected_sections" yaml:"expected_sections"`

	// Units lists the work units in run order.
	Units []WorkUnit `json:"units" yaml:"units"`
}
