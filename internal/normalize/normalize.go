// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize converts variant raw inputs into canonical signals.
// Normalization is what makes "server load" and "customer anger" rankable
// against each other: every input lands on the same 0-1 priority scale
// with a named feature vector, and the raw payload rides along for audit.
package normalize

import (
	"fmt"

	"github.com/pdiddy/decision-engine/pkg/types"
)

// priorityBase maps qualitative ticket priorities to base scores.
var priorityBase = map[types.PriorityLabel]float64{
	types.PriorityLow:      0.2,
	types.PriorityMedium:   0.5,
	types.PriorityHigh:     0.8,
	types.PriorityCritical: 1.0,
}

// tierBoost maps customer tiers to priority boosts.
var tierBoost = map[types.CustomerTier]float64{
	types.TierStandard:   0.0,
	types.TierPremium:    0.1,
	types.TierEnterprise: 0.2,
}

// cpuMetricName is the only metric currently mapped to a non-zero
// priority; other metrics contribute context features only.
const cpuMetricName = "cpu_usage_percent"

// Normalize converts one raw input into its canonical signal form. It is a
// pure mapping with no error path: upstream validation guarantees the
// variant matching in.Kind is populated and type-correct.
func Normalize(in types.RawInput) types.NormalizedSignal {
	switch in.Kind {
	case types.KindMetric:
		return normalizeMetric(in)
	case types.KindMarketSignal:
		return normalizeMarketSignal(in)
	default:
		return normalizeTicket(in)
	}
}

// Batch normalizes a sequence of raw inputs in order.
func Batch(inputs []types.RawInput) []types.NormalizedSignal {
	out := make([]types.NormalizedSignal, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, Normalize(in))
	}
	return out
}

func normalizeTicket(in types.RawInput) types.NormalizedSignal {
	base := priorityBase[in.Ticket.Priority]
	boost := tierBoost[in.Ticket.CustomerTier]

	return types.NormalizedSignal{
		Source:             fmt.Sprintf("ticket:%s", in.SourceSystem),
		Timestamp:          in.Timestamp,
		CanonicalType:      types.TypeUrgentEvent,
		NormalizedPriority: clamp01(base + boost),
		FeatureVector: map[string]float64{
			"urgency":          base,
			"commercial_value": boost * 5,
		},
		Raw: in,
	}
}

func normalizeMetric(in types.RawInput) types.NormalizedSignal {
	// Only percentage-style CPU metrics map onto the urgency scale.
	var priority float64
	if in.Metric.Name == cpuMetricName {
		priority = clamp01(in.Metric.Value / 100)
	}

	return types.NormalizedSignal{
		Source:             fmt.Sprintf("metric:%s", in.SourceSystem),
		Timestamp:          in.Timestamp,
		CanonicalType:      types.TypeContextSignal,
		NormalizedPriority: priority,
		FeatureVector: map[string]float64{
			"system_stress": priority,
			"impact":        0.5, // default medium impact for infra metrics
		},
		Raw: in,
	}
}

func normalizeMarketSignal(in types.RawInput) types.NormalizedSignal {
	// A missing impact score means the upstream system could not assess
	// severity; default to the midpoint rather than zero.
	priority := 0.5
	volatility := 0.0
	if in.MarketSignal.ImpactScore != nil {
		priority = *in.MarketSignal.ImpactScore
		volatility = *in.MarketSignal.ImpactScore
	}

	return types.NormalizedSignal{
		Source:             fmt.Sprintf("market:%s", in.SourceSystem),
		Timestamp:          in.Timestamp,
		CanonicalType:      types.TypeExternalSignal,
		NormalizedPriority: clamp01(priority),
		FeatureVector: map[string]float64{
			"market_volatility": volatility,
		},
		Raw: in,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
