// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/decision-engine/internal/ingest"
	"github.com/pdiddy/decision-engine/internal/worker"
	"github.com/pdiddy/decision-engine/pkg/types"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a synthetic incident scenario end to end",
	Long: `Demo ingests a synthetic ops incident (an enterprise-customer outage
ticket, a CPU saturation spike against a steady baseline, and a competitor
market signal), runs the pipeline inline, and prints the decision.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

// demoInputs builds a latency-spike incident: thirty quiet CPU samples,
// one saturated outlier, an enterprise outage ticket, and a market signal
// that raises scoring volatility.
func demoInputs() []types.RawInput {
	base := time.Now().UTC().Add(-30 * time.Minute)
	inputs := make([]types.RawInput, 0, 34)

	for i := 0; i < 30; i++ {
		inputs = append(inputs, types.RawInput{
			Kind:         types.KindMetric,
			SourceSystem: "prometheus",
			Timestamp:    base.Add(time.Duration(i) * 30 * time.Second),
			Metric:       &types.Metric{Name: "cpu_usage_percent", Value: 42, Unit: "percent"},
		})
	}
	inputs = append(inputs, types.RawInput{
		Kind:         types.KindMetric,
		SourceSystem: "prometheus",
		Timestamp:    base.Add(16 * time.Minute),
		Metric:       &types.Metric{Name: "cpu_usage_percent", Value: 98, Unit: "percent"},
	})

	inputs = append(inputs, types.RawInput{
		Kind:         types.KindTicket,
		SourceSystem: "zendesk",
		Timestamp:    base.Add(17 * time.Minute),
		Ticket: &types.Ticket{
			TicketID:     "T-9921",
			Priority:     types.PriorityCritical,
			CustomerTier: types.TierEnterprise,
			TextContent:  "Checkout latency through the roof, orders timing out",
		},
	})

	impact := 0.4
	inputs = append(inputs, types.RawInput{
		Kind:         types.KindMarketSignal,
		SourceSystem: "pricewatch",
		Timestamp:    base.Add(18 * time.Minute),
		MarketSignal: &types.MarketSignal{
			SignalType:   "promo_launch",
			CompetitorID: "acme-retail",
			ImpactScore:  &impact,
		},
	})

	return inputs
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg := engineConfig(cmd)
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	svc := ingest.New(st, slog.Default())
	decisionID, err := svc.Submit(ctx, "demo", demoInputs())
	if err != nil {
		return err
	}

	d := worker.New(cfg.Worker, st, newEngine(cfg, st), slog.Default())
	d.Drain(ctx)

	decision, err := st.Fetch(ctx, decisionID)
	if err != nil {
		return err
	}

	fmt.Printf("Decision %s\n", decision.ID)
	fmt.Printf("  Status:     %s\n", resultField(*decision, "status"))
	fmt.Printf("  Approval:   %s\n", resultField(*decision, "approval"))
	fmt.Printf("  Confidence: %.2f\n", decision.Confidence)
	if decision.Explanation != nil {
		fmt.Printf("  Summary:    %s\n", decision.Explanation.Summary)
	}
	fmt.Printf("\nInspect the full trail with: decision-engine decisions show %s --audit\n", decision.ID)
	return nil
}
