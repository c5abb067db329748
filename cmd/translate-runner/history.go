// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sigongjoa/math-translation-study/internal/history"
	"github.com/sigongjoa/math-translation-study/internal/manifest"
)

const defaultHistoryDir = "history"

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the run history database (import, list, failures, export)",
	Long: `History keeps a SQLite record of past runs, built by importing the
translation log. The runner itself never writes here: importing is an
explicit step, and importing the same log twice records nothing new.`,
}

// --- import subcommand ---

var historyImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import run events from the translation log",
	Long: `Import parses structured event lines out of the translation log and
records them. Pipeline output interleaved in the log is passed over.
Re-importing after more runs picks up only the new events.`,
	RunE: runHistoryImport,
}

func runHistoryImport(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.ImportLog(context.Background(), stringSetting(cmd, "log"), os.Stdout)
	return err
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(context.Background(), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded. Import the translation log first.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-19s  %-9s  %s\n", "Run", "Started", "Elapsed", "Outcome")
	for _, r := range runs {
		elapsed := "-"
		if r.FinishedAt != nil {
			elapsed = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-19s  %-9s  %d translated, %d skipped, %d failed\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), elapsed,
			r.Translated, r.Skipped, r.Failed)
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(runs))
	return nil
}

// --- failures subcommand ---

var historyFailuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "List unit attempts that did not complete",
	Long: `Failures lists failed and unresolved attempts across all recorded
runs, newest first. Filter with --unit to follow one unit's history.`,
	RunE: runHistoryFailures,
}

func runHistoryFailures(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	unitID, _ := cmd.Flags().GetString("unit")
	limit, _ := cmd.Flags().GetInt("limit")

	failures, err := store.Failures(context.Background(), history.QueryOptions{
		UnitID: unitID,
		Limit:  limit,
	})
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(failures)
	}

	if len(failures) == 0 {
		fmt.Println("No failures recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-6s  %-12s  %-5s  %-19s  %s\n", "Unit", "Status", "Exit", "Recorded", "Reason")
	for _, f := range failures {
		fmt.Fprintf(os.Stdout, "%-6s  %-12s  %-5d  %-19s  %s\n",
			f.UnitID, f.Status, f.ExitCode, f.RecordedAt.Format("2006-01-02 15:04:05"), f.Message)
	}
	fmt.Fprintf(os.Stdout, "\n%d failures\n", len(failures))
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the run history to YAML or JSON",
	RunE:  runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	format, _ := cmd.Flags().GetString("format")
	dir := historyDir(cmd)

	switch format {
	case "yaml", "":
		path := filepath.Join(dir, "export.yaml")
		if err := store.ExportYAML(context.Background(), path); err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", path)
	case "json":
		path := filepath.Join(dir, "export.json")
		if err := store.ExportJSON(context.Background(), path); err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", path)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	return nil
}

// --- shared helpers ---

func historyDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("history-dir")
	if dir == "" {
		dir = defaultHistoryDir
	}
	return dir
}

func openHistory(cmd *cobra.Command) (*history.Store, error) {
	return history.NewStore(historyDir(cmd))
}

func init() {
	// Shared flag on the parent command, inherited by subcommands.
	historyCmd.PersistentFlags().String("history-dir", defaultHistoryDir, "directory holding the run history database")

	// Import flags.
	historyImportCmd.Flags().String("log", manifest.DefaultLogPath, "translation log to import")

	// List flags.
	historyListCmd.Flags().Int("limit", 0, "maximum runs to list (0 = default)")
	historyListCmd.Flags().Bool("json", false, "output as JSON")

	// Failures flags.
	historyFailuresCmd.Flags().String("unit", "", "filter by unit id")
	historyFailuresCmd.Flags().Int("limit", 0, "maximum attempts to list (0 = default)")
	historyFailuresCmd.Flags().Bool("json", false, "output as JSON")

	// Export flags.
	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	// Wire subcommands.
	historyCmd.AddCommand(historyImportCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyFailuresCmd)
	historyCmd.AddCommand(historyExportCmd)

	rootCmd.AddCommand(historyCmd)
}
