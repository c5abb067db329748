package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sigongjoa/math-translation-study/internal/progress"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously show translation progress",
	Long: `Watch re-renders the status snapshot at a fixed interval until
interrupted. Like status, it only reads; the pipeline never notices
being watched.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	interval, _ := cmd.Flags().GetDuration("interval")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress.Watch(ctx, monitorConfigFromFlags(cmd), interval, os.Stdout)
	return nil
}

func init() {
	addMonitorFlags(watchCmd)
	watchCmd.Flags().Duration("interval", progress.DefaultWatchInterval, "refresh interval")

	rootCmd.AddCommand(watchCmd)
}
