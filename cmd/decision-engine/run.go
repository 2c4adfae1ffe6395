// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pdiddy/decision-engine/internal/worker"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process all queued decisions once and exit",
	Long: `Run drains the task queue inline: every eligible queued decision is
processed through the full pipeline, then the command exits. Tasks whose
retry backoff has not elapsed are left for a later run or the worker.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := engineConfig(cmd)
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		d := worker.New(cfg.Worker, st, newEngine(cfg, st), slog.Default())
		d.Drain(cmd.Context())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
