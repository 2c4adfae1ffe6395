// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/decision-engine/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background task dispatcher",
	Long: `Worker polls the task queue and executes queued decision pipelines.
Failed tasks are retried with exponential backoff; tasks that exhaust
their attempts are buried and the decision is marked failed.

Runs until interrupted (SIGINT/SIGTERM).`,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().Duration("poll-interval", 0, "queue polling cadence (default 1s)")

	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg := engineConfig(cmd)
	if v, _ := cmd.Flags().GetDuration("poll-interval"); v > 0 {
		cfg.Worker.PollInterval = v
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	d := worker.New(cfg.Worker, st, newEngine(cfg, st), slog.Default())
	d.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	fmt.Fprintf(cmd.ErrOrStderr(), "received %s, shutting down\n", sig)

	d.Stop()
	return nil
}
