// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pdiddy/decision-engine/internal/ingest"
	"github.com/pdiddy/decision-engine/internal/worker"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [batch files...]",
	Short: "Submit batches of raw inputs for decision processing",
	Long: `Ingest reads batch files (YAML or JSON) of raw inputs, validates them,
persists every input, and queues one decision per batch. Each accepted
batch prints its decision id for later inspection with "decisions show".

By default processing happens in the background worker; pass --process to
run the pipeline inline and exit when the queue is drained.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Bool("process", false, "process queued work inline instead of leaving it for the worker")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more batch files")
	}

	cfg := engineConfig(cmd)
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := ingest.New(st, slog.Default())

	ctx := cmd.Context()
	var failed int
	for _, path := range args {
		decisionID, err := svc.SubmitFile(ctx, path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("accepted: %s -> decision %s\n", path, decisionID)
	}

	if process, _ := cmd.Flags().GetBool("process"); process {
		d := worker.New(cfg.Worker, st, newEngine(cfg, st), slog.Default())
		d.Drain(ctx)
	}

	if failed > 0 {
		return fmt.Errorf("%d batch file(s) failed ingestion", failed)
	}
	return nil
}
