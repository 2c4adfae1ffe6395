// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package signal computes batch statistics over normalized signals:
// anomaly flagging, temporal clustering, and trend classification.
// Everything here is deterministic arithmetic, so an "anomaly" verdict
// always traces back to specific math rather than a model's hunch.
package signal

import (
	"math"
	"sort"
	"strings"

	"github.com/pdiddy/decision-engine/pkg/types"
)

// Engine runs the deterministic signal stage. Stateless aside from its
// immutable configuration; safe for concurrent use.
type Engine struct {
	cfg types.SignalConfig
}

// New returns an Engine, filling zero config fields with defaults.
func New(cfg types.SignalConfig) *Engine {
	if cfg.ClusterWindow <= 0 {
		cfg.ClusterWindow = types.DefaultEngineConfig().Signal.ClusterWindow
	}
	if cfg.AnomalyMinBatch <= 0 {
		cfg.AnomalyMinBatch = types.DefaultEngineConfig().Signal.AnomalyMinBatch
	}
	if cfg.AnomalyZThreshold <= 0 {
		cfg.AnomalyZThreshold = types.DefaultEngineConfig().Signal.AnomalyZThreshold
	}
	return &Engine{cfg: cfg}
}

// DetectAnomalies flags statistical outliers by z-score on normalized
// priority, appending is_anomaly and anomaly_z_score features in place.
// Batches smaller than the configured minimum, and zero-variance batches,
// pass through unchanged.
//
// The threshold is deliberately precision-biased: in operational systems
// false positives mean alert fatigue, so a marginal case is left unflagged
// rather than flooding downstream stages with noise.
func (e *Engine) DetectAnomalies(batch []types.NormalizedSignal) []types.NormalizedSignal {
	if len(batch) < e.cfg.AnomalyMinBatch {
		return batch
	}

	var sum float64
	for _, s := range batch {
		sum += s.NormalizedPriority
	}
	mean := sum / float64(len(batch))

	var variance float64
	for _, s := range batch {
		d := s.NormalizedPriority - mean
		variance += d * d
	}
	variance /= float64(len(batch))
	stdDev := math.Sqrt(variance)

	if stdDev == 0 {
		return batch
	}

	for i := range batch {
		z := (batch[i].NormalizedPriority - mean) / stdDev
		if math.Abs(z) > e.cfg.AnomalyZThreshold {
			batch[i].FeatureVector[types.FeatureIsAnomaly] = 1
			batch[i].FeatureVector[types.FeatureAnomalyZ] = z
		} else {
			batch[i].FeatureVector[types.FeatureIsAnomaly] = 0
		}
	}

	return batch
}

// ClusterSignals groups signals by canonical type, then splits each type
// group into temporal clusters. The window is anchored at the current
// cluster's start timestamp: the first signal past the window closes the
// cluster and anchors a new one. Clusters never mix canonical types, and
// the output is a non-overlapping partition of the input.
func (e *Engine) ClusterSignals(signals []types.NormalizedSignal) []types.SignalCluster {
	byType := make(map[types.CanonicalType][]types.NormalizedSignal)
	var typeOrder []types.CanonicalType
	for _, s := range signals {
		if _, seen := byType[s.CanonicalType]; !seen {
			typeOrder = append(typeOrder, s.CanonicalType)
		}
		byType[s.CanonicalType] = append(byType[s.CanonicalType], s)
	}

	var clusters []types.SignalCluster
	for _, ct := range typeOrder {
		group := byType[ct]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})

		current := types.SignalCluster{CanonicalType: ct}
		start := group[0].Timestamp

		for _, s := range group {
			if s.Timestamp.Sub(start) <= e.cfg.ClusterWindow {
				current.Signals = append(current.Signals, s)
				continue
			}
			clusters = append(clusters, current)
			current = types.SignalCluster{CanonicalType: ct, Signals: []types.NormalizedSignal{s}}
			start = s.Timestamp
		}

		if len(current.Signals) > 0 {
			clusters = append(clusters, current)
		}
	}

	return clusters
}

// DetectTrends classifies the direction of each metric source's priority
// stream by comparing the mean of the first half against the mean of the
// second half. Sources with fewer than three points are marked
// insufficient_data.
func (e *Engine) DetectTrends(signals []types.NormalizedSignal) map[string]types.Trend {
	bySource := make(map[string][]float64)
	for _, s := range signals {
		if !strings.Contains(s.Source, "metric:") {
			continue
		}
		bySource[s.Source] = append(bySource[s.Source], s.NormalizedPriority)
	}

	trends := make(map[string]types.Trend, len(bySource))
	for source, values := range bySource {
		if len(values) < 3 {
			trends[source] = types.TrendInsufficientData
			continue
		}

		half := len(values) / 2
		first := mean(values[:half])
		second := mean(values[half:])

		switch {
		case second > first*1.1:
			trends[source] = types.TrendRising
		case second < first*0.9:
			trends[source] = types.TrendFalling
		default:
			trends[source] = types.TrendStable
		}
	}

	return trends
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
