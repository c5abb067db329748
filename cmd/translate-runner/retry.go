// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sigongjoa/math-translation-study/internal/manifest"
	"github.com/sigongjoa/math-translation-study/internal/runner"
)

var retryCmd = &cobra.Command{
	Use:   "retry <unit-ids...>",
	Short: "Clear failed units and run them again",
	Long: `Retry removes the named units' output directories and runs them
through the pipeline again. Clearing first matters: a unit that failed
partway leaves partial output behind, and the pipeline must start from
a clean directory. Other units' outputs are never touched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRetry,
}

func runRetry(cmd *cobra.Command, args []string) error {
	m, err := loadManifest(cmd)
	if err != nil {
		return err
	}
	units, err := manifest.Select(m, args)
	if err != nil {
		return err
	}

	for _, unit := range units {
		if err := runner.ClearUnit(unit.OutputDir); err != nil {
			return err
		}
		fmt.Printf("cleared: %s\n", unit.OutputDir)
	}

	return executeBatch(cmd, m, units)
}

func init() {
	addPipelineFlags(retryCmd)
	rootCmd.AddCommand(retryCmd)
}
