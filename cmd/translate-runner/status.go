// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sigongjoa/math-translation-study/internal/manifest"
	"github.com/sigongjoa/math-translation-study/internal/pipeline"
	"github.com/sigongjoa/math-translation-study/internal/progress"
	"github.com/sigongjoa/math-translation-study/pkg/types"
)

const (
	defaultOutputDir = "output"
	sectionsSubdir   = "sections"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show translation progress",
	Long: `Status prints a point-in-time progress snapshot: recent log activity,
completed section count, and whether a pipeline process appears to be
running. Every check is read-only, and a status check never fails: a
source that cannot be read becomes a warning in the output instead.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	progress.Render(os.Stdout, progress.Collect(monitorConfigFromFlags(cmd)))
	return nil
}

// --- shared helpers ---

// addMonitorFlags registers the flags shared by status, watch, and serve.
func addMonitorFlags(cmd *cobra.Command) {
	cmd.Flags().String("manifest", defaultManifestPath, "work unit manifest")
	cmd.Flags().String("log", manifest.DefaultLogPath, "run log to tail")
	cmd.Flags().String("output", defaultOutputDir, "output directory holding sections/")
	cmd.Flags().Int("expected", manifest.DefaultExpectedSections, "expected section count")
	cmd.Flags().Int("tail", progress.DefaultTailLines, "log lines to show")
	cmd.Flags().String("process", defaultPipelineCommand, "pipeline process name to look for (empty skips the check)")
}

// monitorConfigFromFlags assembles the monitor configuration. A broken
// manifest must not break a progress check, so manifest problems fall
// back to the built-in defaults with a warning.
func monitorConfigFromFlags(cmd *cobra.Command) types.MonitorConfig {
	m, err := loadManifest(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (using built-in units)\n", err)
		m = manifest.Default()
	}

	cfg := types.MonitorConfig{
		LogPath:          stringSetting(cmd, "log"),
		SectionsDir:      filepath.Join(stringSetting(cmd, "output"), sectionsSubdir),
		ExpectedSections: intSetting(cmd, "expected"),
		TailLines:        intSetting(cmd, "tail"),
	}
	if !settingOverridden(cmd, "log") && m.LogPath != "" {
		cfg.LogPath = m.LogPath
	}
	if !settingOverridden(cmd, "expected") && m.ExpectedSections > 0 {
		cfg.ExpectedSections = m.ExpectedSections
	}
	if pattern := stringSetting(cmd, "process"); pattern != "" {
		cfg.ProcessPattern = pipeline.Signature(pattern)
	}
	return cfg
}

func init() {
	addMonitorFlags(statusCmd)
	rootCmd.AddCommand(statusCmd)
}
