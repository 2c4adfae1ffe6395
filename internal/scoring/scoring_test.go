// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/decision-engine/pkg/types"
)

func baseFeatures() map[string]float64 {
	return map[string]float64{
		"commercial_value":  0.5,
		"urgency":           0.8,
		"market_volatility": 0.2,
	}
}

func width(s types.DecisionScore) float64 {
	return s.ConfidenceInterval[1] - s.ConfidenceInterval[0]
}

func TestCalculateScoreHighConfidenceScenario(t *testing.T) {
	score := New().CalculateScore(baseFeatures(), 0.9)

	assert.Greater(t, score.TotalScore, 50.0)
	assert.Less(t, width(score), 20.0)
	assert.NotContains(t, score.UncertaintySources, FlagHighVolatility)
}

func TestCalculateScoreHighVolatilityScenario(t *testing.T) {
	features := baseFeatures()
	features["market_volatility"] = 0.9

	score := New().CalculateScore(features, 0.9)

	assert.Contains(t, score.UncertaintySources, FlagHighVolatility)
	assert.Greater(t, width(score), 20.0)
}

func TestCalculateScoreBoundsAlwaysHold(t *testing.T) {
	cases := []struct {
		name       string
		features   map[string]float64
		confidence float64
	}{
		{"all zero", map[string]float64{}, 0},
		{"max everything", map[string]float64{"commercial_value": 1, "urgency": 1, "market_volatility": 1}, 1},
		{"no volatility full confidence", map[string]float64{"commercial_value": 1, "urgency": 1}, 1},
		{"midrange", baseFeatures(), 0.5},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			score := New().CalculateScore(tt.features, tt.confidence)

			assert.GreaterOrEqual(t, score.TotalScore, 0.0)
			assert.LessOrEqual(t, score.TotalScore, 100.0)
			assert.GreaterOrEqual(t, score.ConfidenceInterval[0], 0.0)
			assert.LessOrEqual(t, score.ConfidenceInterval[0], score.ConfidenceInterval[1])
			assert.LessOrEqual(t, score.ConfidenceInterval[1], 100.0)
		})
	}
}

func TestIntervalWidensMonotonicallyWithVolatility(t *testing.T) {
	prev := -1.0
	for _, vol := range []float64{0, 0.2, 0.4, 0.6, 0.8, 1.0} {
		features := baseFeatures()
		features["market_volatility"] = vol

		w := width(New().CalculateScore(features, 0.9))
		assert.GreaterOrEqual(t, w, prev, "interval must never narrow as volatility rises (vol=%g)", vol)
		prev = w
	}
}

func TestIntervalWidensAsConfidenceDrops(t *testing.T) {
	prev := -1.0
	for _, conf := range []float64{1.0, 0.9, 0.7, 0.5, 0.3} {
		w := width(New().CalculateScore(baseFeatures(), conf))
		assert.GreaterOrEqual(t, w, prev, "interval must never narrow as confidence drops (conf=%g)", conf)
		prev = w
	}
}

func TestPerfectConfidenceCollapsesInterval(t *testing.T) {
	features := map[string]float64{"commercial_value": 0.5, "urgency": 0.5}

	score := New().CalculateScore(features, 1.0)
	assert.InDelta(t, 0, width(score), 1e-9)
}

func TestUncertaintyFlagsAreAdditive(t *testing.T) {
	score := New().CalculateScore(map[string]float64{"market_volatility": 0.8}, 0.5)

	assert.Contains(t, score.UncertaintySources, FlagHighVolatility)
	assert.Contains(t, score.UncertaintySources, FlagLowConfidence)
	assert.Contains(t, score.UncertaintySources, FlagUnknownImpact)
}

func TestStabilityComponentFlaggedUncertain(t *testing.T) {
	features := baseFeatures()
	features["market_volatility"] = 0.8

	score := New().CalculateScore(features, 0.9)

	var stability *types.ScoreComponent
	for i := range score.Components {
		if score.Components[i].Name == "Stability" {
			stability = &score.Components[i]
		}
	}
	assert.NotNil(t, stability)
	assert.True(t, stability.UncertaintyFlag)
	assert.InDelta(t, 0.2, stability.Value, 1e-9)
}

func TestComponentWeightsFixedByPolicy(t *testing.T) {
	score := New().CalculateScore(baseFeatures(), 0.9)

	var total float64
	for _, c := range score.Components {
		total += c.Weight
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}
