// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine wires the decision pipeline end to end: normalize raw
// inputs, run batch statistics, thread the four reasoning stages, score,
// govern, and synthesize the audit trail. The computation itself is pure
// and synchronous; persistence and remote inference are injected
// collaborators touched only at the boundary, so re-running an
// invocation for the same decision id is always safe.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pdiddy/decision-engine/internal/agents"
	"github.com/pdiddy/decision-engine/internal/explain"
	"github.com/pdiddy/decision-engine/internal/governance"
	"github.com/pdiddy/decision-engine/internal/inference"
	"github.com/pdiddy/decision-engine/internal/normalize"
	"github.com/pdiddy/decision-engine/internal/scoring"
	"github.com/pdiddy/decision-engine/internal/signal"
	"github.com/pdiddy/decision-engine/pkg/types"
)

// Persistence is the slice of the decision store the engine needs. The
// engine never creates records; the caller owns the placeholder.
type Persistence interface {
	Update(ctx context.Context, decisionID string, result map[string]any, explanation *types.Explanation, confidence float64) error
	SaveAuditLog(ctx context.Context, audit types.AuditLog) error
}

// Narrator is the optional remote-inference surface. A nil or disabled
// narrator leaves the deterministic narrative untouched.
type Narrator interface {
	EnhanceNarrative(ctx context.Context, in inference.NarrativeInput) string
}

// Outcome is the full artifact set of one pipeline run.
type Outcome struct {
	DecisionID  string
	Approval    types.ApprovalStatus
	Verdict     agents.Verdict
	Urgency     string
	Score       types.DecisionScore
	Trends      map[string]types.Trend
	Audit       types.AuditLog
	Explanation types.Explanation
}

// Engine orchestrates one decision per Run call. Stateless aside from
// immutable configuration; concurrent runs need no locking.
type Engine struct {
	signals   *signal.Engine
	pipeline  *agents.Pipeline
	scorer    *scoring.Engine
	governor  *governance.Engine
	explainer *explain.Engine
	narrator  Narrator
	store     Persistence
	log       *slog.Logger
}

// New assembles an Engine. store may be nil for dry runs; narrator may be
// nil when inference is disabled.
func New(cfg types.EngineConfig, store Persistence, narrator Narrator, sink governance.FeedbackSink, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		signals:   signal.New(cfg.Signal),
		pipeline:  agents.NewPipeline(),
		scorer:    scoring.New(),
		governor:  governance.New(cfg.Governance, sink, log),
		explainer: explain.New(),
		narrator:  narrator,
		store:     store,
		log:       log,
	}
}

// Governor exposes the governance engine for feedback processing.
func (e *Engine) Governor() *governance.Engine {
	return e.governor
}

// Run executes the full pipeline for one decision. On a stage failure the
// decision record is marked failed with the error text and the error is
// returned so the task layer's retry policy can act. Nothing is persisted
// before the terminal write: an aborted invocation leaves the decision
// observably in its prior state rather than half-updated.
func (e *Engine) Run(ctx context.Context, decisionID string, inputs []types.RawInput) (*Outcome, error) {
	e.log.Info("pipeline run started", "decision_id", decisionID, "inputs", len(inputs))

	outcome, err := e.compute(ctx, decisionID, inputs)
	if err != nil {
		e.markFailed(ctx, decisionID, err)
		return nil, err
	}

	if e.store != nil {
		result := map[string]any{
			"status":         string(outcome.Verdict.FinalDecision),
			"approval":       string(outcome.Approval),
			"urgency":        outcome.Urgency,
			"execution_plan": outcome.Verdict.ExecutionPlan,
			"impact_metrics": outcome.Verdict.Impact,
		}
		if err := e.store.Update(ctx, decisionID, result, &outcome.Explanation, outcome.Explanation.ConfidenceScore); err != nil {
			return nil, fmt.Errorf("persisting decision: %w", err)
		}
		if err := e.store.SaveAuditLog(ctx, outcome.Audit); err != nil {
			return nil, fmt.Errorf("persisting audit log: %w", err)
		}
	}

	e.log.Info("pipeline run finished",
		"decision_id", decisionID,
		"action", outcome.Verdict.FinalDecision,
		"approval", outcome.Approval,
		"score", outcome.Score.TotalScore)
	return outcome, nil
}

// compute is the deterministic core: no persistence, no side effects
// beyond the opportunistic narrative polish.
func (e *Engine) compute(ctx context.Context, decisionID string, inputs []types.RawInput) (*Outcome, error) {
	signals := normalize.Batch(inputs)
	signals = e.signals.DetectAnomalies(signals)
	clusters := e.signals.ClusterSignals(signals)
	trends := e.signals.DetectTrends(signals)

	agentCtx := &agents.Context{Clusters: clusters, Trends: trends}
	steps, err := e.pipeline.Run(agentCtx)
	if err != nil {
		return nil, err
	}
	if agentCtx.Verdict == nil {
		return nil, fmt.Errorf("pipeline produced no verdict")
	}

	features := mergeFeatures(signals)
	finalConfidence := steps[len(steps)-1].Confidence
	score := e.scorer.CalculateScore(features, finalConfidence)
	approval := e.governor.EvaluateApproval(score)

	audit := e.explainer.CreateAuditTrail(decisionID, signals, steps, score)
	if e.narrator != nil && agentCtx.Analysis != nil {
		polished := e.narrator.EnhanceNarrative(ctx, inference.NarrativeInput{
			Narrative: audit.FinalNarrative,
			Action:    string(agentCtx.Verdict.FinalDecision),
			Issues:    agentCtx.Analysis.IdentifiedIssues,
		})
		if polished != "" {
			audit.FinalNarrative = polished
		}
	}

	urgency := ""
	if agentCtx.Proposal != nil {
		urgency = agentCtx.Proposal.Urgency
	}

	return &Outcome{
		DecisionID:  decisionID,
		Approval:    approval,
		Verdict:     *agentCtx.Verdict,
		Urgency:     urgency,
		Score:       score,
		Trends:      trends,
		Audit:       audit,
		Explanation: e.explainer.GenerateExplanation(audit),
	}, nil
}

// markFailed records a computation failure on the decision. A failed
// persistence write here only logs: the original pipeline error is the
// one that must surface to the retry layer.
func (e *Engine) markFailed(ctx context.Context, decisionID string, cause error) {
	e.log.Error("pipeline run failed", "decision_id", decisionID, "err", cause)
	if e.store == nil {
		return
	}
	result := map[string]any{
		"status": types.ResultFailed,
		"error":  cause.Error(),
	}
	if err := e.store.Update(ctx, decisionID, result, nil, 0); err != nil {
		e.log.Error("recording failure state", "decision_id", decisionID, "err", err)
	}
}

// mergeFeatures folds per-signal feature vectors into one batch vector,
// keeping the maximum per key so the strongest commercial, urgency, and
// volatility signals dominate scoring.
func mergeFeatures(signals []types.NormalizedSignal) map[string]float64 {
	merged := make(map[string]float64)
	for _, s := range signals {
		for k, v := range s.FeatureVector {
			if cur, ok := merged[k]; !ok || v > cur {
				merged[k] = v
			}
		}
	}
	return merged
}
