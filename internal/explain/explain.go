// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package explain assembles the audit trail for a decision and derives
// the user-facing explanation. The trail answers three questions: exactly
// which data fed the decision, which reasoning steps ran, and how
// confident the result is. Narrative synthesis is fully deterministic;
// remote inference, when enabled, only polishes the wording afterwards.
package explain

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/decision-engine/pkg/types"
)

// Engine builds audit artifacts. Stateless; safe for concurrent use.
type Engine struct{}

// New returns an explainer Engine.
func New() *Engine { return &Engine{} }

// CreateAuditTrail synthesizes the complete trail for one decision. The
// narrative is derived from the final (supervisor) reasoning step and the
// score; no remote call is involved on this path.
func (e *Engine) CreateAuditTrail(decisionID string, inputs []types.NormalizedSignal, steps []types.AgentReasoning, score types.DecisionScore) types.AuditLog {
	traces := make([]types.InputTrace, 0, len(inputs))
	for _, in := range inputs {
		traces = append(traces, types.InputTrace{
			InputID:       in.Raw.ID,
			Source:        in.Source,
			CanonicalType: in.CanonicalType,
		})
	}

	return types.AuditLog{
		DecisionID:     decisionID,
		Timestamp:      time.Now().UTC(),
		InputsUsed:     traces,
		AgentChain:     steps,
		Score:          score,
		FinalNarrative: narrative(steps, score),
	}
}

// GenerateExplanation converts a full audit log into the lightweight
// user-facing explanation: one weight per score component plus the mean
// interval confidence.
func (e *Engine) GenerateExplanation(audit types.AuditLog) types.Explanation {
	weights := make(map[string]float64, len(audit.Score.Components))
	for _, c := range audit.Score.Components {
		weights[c.Name] = c.Value
	}

	return types.Explanation{
		Summary:         audit.FinalNarrative,
		FactorWeights:   weights,
		ConfidenceScore: audit.Score.IntervalMean(),
	}
}

func narrative(steps []types.AgentReasoning, score types.DecisionScore) string {
	finalDecision := "See details"
	evidence := "none"
	if len(steps) > 0 {
		last := steps[len(steps)-1]
		if d, ok := last.Conclusion["final_decision"].(string); ok && d != "" {
			finalDecision = d
		}
		if len(last.EvidenceUsed) > 0 {
			evidence = strings.Join(last.EvidenceUsed, ", ")
		}
	}

	return fmt.Sprintf("Decision reached with %.1f score (Confidence: [%.1f, %.1f]). Primary reason: %s. Key evidence: %s.",
		score.TotalScore, score.ConfidenceInterval[0], score.ConfidenceInterval[1], finalDecision, evidence)
}
