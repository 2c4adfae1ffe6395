// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/decision-engine/internal/governance"
	"github.com/pdiddy/decision-engine/internal/store"
	"github.com/pdiddy/decision-engine/pkg/types"
)

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "Inspect and review persisted decisions",
	Long: `Decisions lists persisted decisions, shows a single decision with its
explanation and audit trail, and records human review outcomes for
decisions routed to review.`,
}

// --- list subcommand ---

var decisionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent decisions, newest first",
	RunE:  runDecisionsList,
}

func runDecisionsList(cmd *cobra.Command, args []string) error {
	cfg := engineConfig(cmd)
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	decisions, err := st.List(context.Background(), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(decisions)
	}

	if len(decisions) == 0 {
		fmt.Println("No decisions found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-24s  %-14s  %-10s  %s\n",
		"ID", "Status", "Approval", "Confidence", "Created")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, d := range decisions {
		fmt.Fprintf(os.Stdout, "%-36s  %-24s  %-14s  %-10.2f  %s\n",
			d.ID, resultField(d, "status"), resultField(d, "approval"),
			d.Confidence, d.CreatedAt.Format(time.RFC3339))
	}

	fmt.Fprintf(os.Stdout, "\n%d decisions\n", len(decisions))
	return nil
}

func resultField(d types.Decision, key string) string {
	if v, ok := d.Result[key].(string); ok {
		return v
	}
	return "-"
}

// --- show subcommand ---

var decisionsShowCmd = &cobra.Command{
	Use:   "show <decision-id>",
	Short: "Show one decision with its explanation",
	Long: `Show prints a decision's result, explanation, and confidence. With
--audit the full audit trail is included: every input that fed the
decision, every reasoning step, and the score breakdown.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecisionsShow,
}

func runDecisionsShow(cmd *cobra.Command, args []string) error {
	cfg := engineConfig(cmd)
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	decision, err := st.Fetch(context.Background(), args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("decision %s not found", args[0])
	}
	if err != nil {
		return err
	}

	out := map[string]any{"decision": decision}

	if withAudit, _ := cmd.Flags().GetBool("audit"); withAudit {
		audit, err := st.FetchAuditLog(context.Background(), decision.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if audit != nil {
			out["audit"] = audit
		}
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("Decision %s (created %s)\n", decision.ID, decision.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  Status:     %s\n", resultField(*decision, "status"))
	fmt.Printf("  Approval:   %s\n", resultField(*decision, "approval"))
	fmt.Printf("  Confidence: %.2f\n", decision.Confidence)
	if decision.Explanation != nil {
		fmt.Printf("  Summary:    %s\n", decision.Explanation.Summary)
		for name, weight := range decision.Explanation.FactorWeights {
			fmt.Printf("    %-20s %.2f\n", name, weight)
		}
	}
	if audit, ok := out["audit"].(*types.AuditLog); ok {
		fmt.Printf("\nAudit trail (%d inputs, %d reasoning steps):\n",
			len(audit.InputsUsed), len(audit.AgentChain))
		for _, step := range audit.AgentChain {
			fmt.Printf("  [%s] (%.2f) %s\n", step.Agent, step.Confidence, step.ThoughtProcess)
		}
		fmt.Printf("  Narrative: %s\n", audit.FinalNarrative)
	}
	return nil
}

// --- review subcommand ---

var decisionsReviewCmd = &cobra.Command{
	Use:   "review <decision-id>",
	Short: "Record a human review outcome",
	Long: `Review records a human verdict on a decision. Approving sets the
decision to manually_approved; rejecting sets it to rejected and feeds a
negative calibration signal back to governance. Rejecting a decision that
was auto-approved is flagged as a critical automation failure.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecisionsReview,
}

func runDecisionsReview(cmd *cobra.Command, args []string) error {
	verdict, _ := cmd.Flags().GetString("outcome")
	var status types.ApprovalStatus
	switch verdict {
	case "approve", "approved":
		status = types.StatusManuallyApproved
	case "reject", "rejected":
		status = types.StatusRejected
	default:
		return fmt.Errorf("unsupported outcome %q: use approve or reject", verdict)
	}

	cfg := engineConfig(cmd)
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	decision, err := st.Fetch(ctx, args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("decision %s not found", args[0])
	}
	if err != nil {
		return err
	}

	priorStatus := types.ApprovalStatus(resultField(*decision, "approval"))
	if priorStatus.Reviewed() {
		return fmt.Errorf("decision %s already has a recorded review outcome (%s)", decision.ID, priorStatus)
	}
	reviewer, _ := cmd.Flags().GetString("reviewer")
	notes, _ := cmd.Flags().GetString("notes")

	outcome := types.ReviewOutcome{
		DecisionID:    decision.ID,
		ReviewerID:    reviewer,
		Status:        status,
		FeedbackNotes: notes,
		Timestamp:     time.Now().UTC(),
	}
	if err := st.SaveReviewOutcome(ctx, outcome); err != nil {
		return err
	}

	decision.Result["approval"] = string(status)
	if err := st.Update(ctx, decision.ID, decision.Result, decision.Explanation, decision.Confidence); err != nil {
		return err
	}

	gov := governance.New(cfg.Governance, &governance.LoggingSink{Log: slog.Default()}, slog.Default())
	gov.ProcessFeedback(priorStatus, outcome)

	fmt.Printf("Decision %s: %s -> %s\n", decision.ID, priorStatus, status)
	return nil
}

func init() {
	decisionsListCmd.Flags().Int("limit", 20, "maximum decisions to list")
	decisionsListCmd.Flags().Bool("json", false, "output as JSON")

	decisionsShowCmd.Flags().Bool("audit", false, "include the full audit trail")
	decisionsShowCmd.Flags().Bool("json", false, "output as JSON")

	decisionsReviewCmd.Flags().String("outcome", "", "review outcome: approve or reject")
	decisionsReviewCmd.Flags().String("reviewer", "", "reviewer identifier")
	decisionsReviewCmd.Flags().String("notes", "", "feedback notes")
	decisionsReviewCmd.MarkFlagRequired("outcome")

	decisionsCmd.AddCommand(decisionsListCmd)
	decisionsCmd.AddCommand(decisionsShowCmd)
	decisionsCmd.AddCommand(decisionsReviewCmd)

	rootCmd.AddCommand(decisionsCmd)
}
