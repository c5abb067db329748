// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigongjoa/math-translation-study/internal/runner"
	"github.com/sigongjoa/math-translation-study/pkg/types"
)

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List work units and their completion state",
	Long: `Units prints every manifest unit with its resolved input and whether
its output already carries the completion marker. The check is the same
one the runner uses to decide what to skip.`,
	RunE: runUnits,
}

func runUnits(cmd *cobra.Command, args []string) error {
	m, err := loadManifest(cmd)
	if err != nil {
		return err
	}
	cfg := runConfigFromFlags(cmd, m)

	fmt.Fprintf(os.Stdout, "%-6s  %-10s  %-24s  %s\n", "Unit", "State", "Output", "Input")
	for _, unit := range m.Units {
		state := "pending"
		if runner.Complete(unit) {
			state = "complete"
		}
		fmt.Fprintf(os.Stdout, "%-6s  %-10s  %-24s  %s\n",
			unit.ID, state, unit.OutputDir, describeInput(cfg, unit))
	}
	return nil
}

func describeInput(cfg types.RunConfig, unit types.WorkUnit) string {
	if unit.Pages != nil {
		return fmt.Sprintf("pages %d-%d", unit.Pages.Start, unit.Pages.End)
	}
	input, err := runner.ResolveInput(cfg.InputDir, unit.InputPattern, unit.ID)
	if err != nil {
		return fmt.Sprintf("unresolved (%s)", unit.InputPattern)
	}
	return input
}

func init() {
	addPipelineFlags(unitsCmd)
	rootCmd.AddCommand(unitsCmd)
}
