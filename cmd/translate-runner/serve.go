// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sigongjoa/math-translation-study/internal/statusapi"
)

const defaultListenAddr = ":8787"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve progress snapshots over HTTP",
	Long: `Serve exposes the status snapshot as JSON on /status, with /healthz
for liveness probes. The server holds no state; every request reads the
log and output directories fresh, exactly like the status command.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := stringSetting(cmd, "listen")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("serving status on %s\n", addr)
	err := statusapi.New(monitorConfigFromFlags(cmd)).ListenAndServe(ctx, addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func init() {
	addMonitorFlags(serveCmd)
	serveCmd.Flags().String("listen", defaultListenAddr, "listen address")

	rootCmd.AddCommand(serveCmd)
}
