// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scoring converts feature weights and pipeline confidence into a
// calibrated 0-100 score with an uncertainty interval. Confidence is a
// first-class output: reviewers behave differently at 80% than at 99%,
// so the interval widens honestly as confidence drops or volatility rises.
package scoring

import "github.com/pdiddy/decision-engine/pkg/types"

// Uncertainty source flags attached to a score. Governance policies match
// against these exact strings.
const (
	FlagHighVolatility = "High Market Volatility Detected"
	FlagLowConfidence  = "Agent Reasoning Low Confidence"
	FlagUnknownImpact  = "Unknown Impact Magnitude"
)

// Engine computes decision scores. Stateless; safe for concurrent use.
type Engine struct{}

// New returns a scoring Engine.
func New() *Engine { return &Engine{} }

// CalculateScore derives a calibrated score from a feature vector and the
// agent pipeline's confidence. Component weights are fixed by policy:
// commercial value 0.4, urgency 0.4, stability 0.2.
func (e *Engine) CalculateScore(features map[string]float64, agentConfidence float64) types.DecisionScore {
	commercialValue := features["commercial_value"]
	urgency := features["urgency"]
	volatility := features["market_volatility"]

	components := []types.ScoreComponent{
		{Name: "Commercial Value", Value: commercialValue, Weight: 0.4},
		{Name: "Urgency", Value: urgency, Weight: 0.4},
		{Name: "Stability", Value: 1 - volatility, Weight: 0.2, UncertaintyFlag: volatility > 0.7},
	}

	var rawScore float64
	for _, c := range components {
		rawScore += c.Value * c.Weight
	}

	// Calibration: start from the pipeline's semantic confidence and
	// penalize it for data uncertainty. Lower calibrated confidence means
	// a wider interval; perfect confidence collapses it to a point.
	calibrated := agentConfidence * (1 - volatility*0.5)
	margin := (1 - calibrated) * 0.5
	low := max(0, rawScore-margin)
	high := min(1, rawScore+margin)

	var flags []string
	if volatility > 0.6 {
		flags = append(flags, FlagHighVolatility)
	}
	if agentConfidence < 0.7 {
		flags = append(flags, FlagLowConfidence)
	}
	if commercialValue == 0 && urgency == 0 {
		flags = append(flags, FlagUnknownImpact)
	}

	return types.DecisionScore{
		TotalScore:         rawScore * 100,
		ConfidenceInterval: [2]float64{low * 100, high * 100},
		UncertaintySources: flags,
		Components:         components,
	}
}
