// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sigongjoa/math-translation-study/internal/manifest"
	"github.com/sigongjoa/math-translation-study/internal/pipeline"
	"github.com/sigongjoa/math-translation-study/internal/runlog"
	"github.com/sigongjoa/math-translation-study/internal/runner"
	"github.com/sigongjoa/math-translation-study/pkg/types"
)

// Defaults mirror the translate-pipeline CLI contract.
const (
	defaultPipelineCommand = "translate-pipeline"
	defaultModel           = "gemma2:9b"
	defaultSupplementModel = "qwen2.5-coder:7b"
	defaultVerifyModel     = "qwen3:14b"
	defaultResearchModel   = "deepseek-r1:7b"
	defaultVerifyTypes     = "formula,semantic,logic,research"
	defaultManifestPath    = "units.yaml"
)

var runCmd = &cobra.Command{
	Use:   "run [unit-ids...]",
	Short: "Run translation units through the pipeline",
	Long: `Run processes work units in manifest order, invoking the external
translation pipeline once per unit and blocking until it exits. A unit
whose output directory already holds the completion marker is skipped,
so an interrupted batch can simply be run again. A failing unit is
reported and the batch moves on.

With no arguments every manifest unit runs; pass unit ids for a subset.
The command exits zero as long as all selected units were attempted.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	units, m, err := selectUnits(cmd, args)
	if err != nil {
		return err
	}
	return executeBatch(cmd, m, units)
}

// executeBatch drives a batch and reports the outcome. Unit failures do
// not become command errors; they stay visible in the summary, the exit
// path is reserved for setup problems.
func executeBatch(cmd *cobra.Command, m *types.Manifest, units []types.WorkUnit) error {
	if len(units) == 0 {
		return fmt.Errorf("no units selected")
	}
	cfg := runConfigFromFlags(cmd, m)

	logw, err := runlog.Open(cfg.LogPath, runlog.NewRunID())
	if err != nil {
		return err
	}
	defer logw.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("run %s: %d unit(s)\n", logw.RunID(), len(units))

	r := runner.New(cfg, pipeline.New(cfg), logw)
	result := r.RunBatch(ctx, units, os.Stdout)

	if result.AllUnresolved() {
		return fmt.Errorf("no inputs resolved under %s: check the input directory", cfg.InputDir)
	}
	if result.HasFailures() {
		ids := make([]string, 0, result.Failed)
		for _, res := range result.FailedResults() {
			ids = append(ids, res.UnitID)
		}
		fmt.Printf("\nrerun failed units with: translate-runner retry %s\n", strings.Join(ids, " "))
	}
	return nil
}

// --- shared helpers ---

// addPipelineFlags registers the flags shared by run and retry.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("manifest", defaultManifestPath, "work unit manifest")
	cmd.Flags().String("pipeline", defaultPipelineCommand, "pipeline command to invoke")
	cmd.Flags().String("input-dir", manifest.DefaultInputDir, "directory holding the split source PDFs")
	cmd.Flags().String("log", manifest.DefaultLogPath, "run log path")
	cmd.Flags().String("model", defaultModel, "primary translation model")
	cmd.Flags().String("supplement-model", defaultSupplementModel, "supplement generation model")
	cmd.Flags().String("verify-model", defaultVerifyModel, "verification model")
	cmd.Flags().String("research-model", defaultResearchModel, "research model")
	cmd.Flags().String("verify-types", defaultVerifyTypes, "comma-separated verification passes")
	cmd.Flags().Duration("timeout", 0, "per-unit timeout (0 = none)")
}

// loadManifest reads the unit manifest. An explicit --manifest must
// exist; the default path falls back to the built-in units when absent.
func loadManifest(cmd *cobra.Command) (*types.Manifest, error) {
	path := stringSetting(cmd, "manifest")
	if cmd.Flags().Changed("manifest") {
		return manifest.Load(path)
	}
	return manifest.LoadOrDefault(path)
}

func selectUnits(cmd *cobra.Command, args []string) ([]types.WorkUnit, *types.Manifest, error) {
	m, err := loadManifest(cmd)
	if err != nil {
		return nil, nil, err
	}
	if len(args) == 0 {
		return m.Units, m, nil
	}
	units, err := manifest.Select(m, args)
	if err != nil {
		return nil, nil, err
	}
	return units, m, nil
}

// runConfigFromFlags assembles the run configuration. Manifest values
// for the input directory and log win over flag defaults but never over
// an explicit flag, config file, or environment setting.
func runConfigFromFlags(cmd *cobra.Command, m *types.Manifest) types.RunConfig {
	cfg := types.RunConfig{
		PipelineCommand: stringSetting(cmd, "pipeline"),
		InputDir:        stringSetting(cmd, "input-dir"),
		LogPath:         stringSetting(cmd, "log"),
		Model:           stringSetting(cmd, "model"),
		SupplementModel: stringSetting(cmd, "supplement-model"),
		VerifyModel:     stringSetting(cmd, "verify-model"),
		ResearchModel:   stringSetting(cmd, "research-model"),
		VerifyTypes:     splitCSV(stringSetting(cmd, "verify-types")),
		UnitTimeout:     durationSetting(cmd, "timeout"),
	}
	if m != nil {
		if !settingOverridden(cmd, "input-dir") && m.InputDir != "" {
			cfg.InputDir = m.InputDir
		}
		if !settingOverridden(cmd, "log") && m.LogPath != "" {
			cfg.LogPath = m.LogPath
		}
	}
	return cfg
}

func init() {
	addPipelineFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}
