// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package signal

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/decision-engine/pkg/types"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func sig(source string, ct types.CanonicalType, prio float64, at time.Time) types.NormalizedSignal {
	return types.NormalizedSignal{
		Source:             source,
		Timestamp:          at,
		CanonicalType:      ct,
		NormalizedPriority: prio,
		FeatureVector:      map[string]float64{},
	}
}

// --- DetectAnomalies ---

func TestDetectAnomaliesSmallBatchIsNoOp(t *testing.T) {
	e := New(types.SignalConfig{})

	batch := []types.NormalizedSignal{
		sig("a", types.TypeContextSignal, 0.1, t0),
		sig("b", types.TypeContextSignal, 0.9, t0),
		sig("c", types.TypeContextSignal, 0.5, t0),
		sig("d", types.TypeContextSignal, 0.2, t0),
	}

	out := e.DetectAnomalies(batch)
	for _, s := range out {
		assert.Empty(t, s.FeatureVector, "feature vectors must be untouched under the minimum batch size")
	}
}

func TestDetectAnomaliesZeroVarianceIsNoOp(t *testing.T) {
	e := New(types.SignalConfig{})

	var batch []types.NormalizedSignal
	for i := 0; i < 6; i++ {
		batch = append(batch, sig(fmt.Sprintf("s%d", i), types.TypeContextSignal, 0.5, t0))
	}

	out := e.DetectAnomalies(batch)
	for _, s := range out {
		assert.NotContains(t, s.FeatureVector, types.FeatureIsAnomaly)
	}
}

func TestDetectAnomaliesFlagsThreeSigmaOutlier(t *testing.T) {
	e := New(types.SignalConfig{})

	// 30 tightly grouped points plus one extreme outlier pushes the
	// outlier's |z| past 3.
	var batch []types.NormalizedSignal
	for i := 0; i < 30; i++ {
		batch = append(batch, sig(fmt.Sprintf("s%d", i), types.TypeContextSignal, 0.5, t0))
	}
	batch = append(batch, sig("outlier", types.TypeContextSignal, 1.0, t0))

	out := e.DetectAnomalies(batch)

	last := out[len(out)-1]
	assert.Equal(t, 1.0, last.FeatureVector[types.FeatureIsAnomaly])
	assert.Greater(t, last.FeatureVector[types.FeatureAnomalyZ], 3.0)

	for _, s := range out[:len(out)-1] {
		assert.Equal(t, 0.0, s.FeatureVector[types.FeatureIsAnomaly])
		assert.NotContains(t, s.FeatureVector, types.FeatureAnomalyZ)
	}
}

func TestDetectAnomaliesOnlyAppendsFeatures(t *testing.T) {
	e := New(types.SignalConfig{})

	var batch []types.NormalizedSignal
	for i := 0; i < 6; i++ {
		s := sig(fmt.Sprintf("s%d", i), types.TypeContextSignal, float64(i)/10, t0)
		s.FeatureVector["urgency"] = 0.4
		batch = append(batch, s)
	}

	out := e.DetectAnomalies(batch)
	for _, s := range out {
		assert.Equal(t, 0.4, s.FeatureVector["urgency"], "existing features must survive")
	}
}

// --- ClusterSignals ---

func TestClusterSignalsNeverMixesTypes(t *testing.T) {
	e := New(types.SignalConfig{ClusterWindow: 10 * time.Minute})

	signals := []types.NormalizedSignal{
		sig("a", types.TypeUrgentEvent, 0.5, t0),
		sig("b", types.TypeUrgentEvent, 0.5, t0),
		sig("c", types.TypeContextSignal, 0.5, t0),
	}

	clusters := e.ClusterSignals(signals)
	require.Len(t, clusters, 2)

	total := 0
	for _, c := range clusters {
		total += len(c.Signals)
		for _, s := range c.Signals {
			assert.Equal(t, c.CanonicalType, s.CanonicalType)
		}
	}
	assert.Equal(t, len(signals), total, "clustering must partition the input")
}

func TestClusterSignalsWindowAnchoredAtClusterStart(t *testing.T) {
	// Five signals 10 minutes apart with a 10-minute window. The window is
	// anchored at the cluster start, so only the first two share a
	// cluster; each later signal re-anchors.
	e := New(types.SignalConfig{ClusterWindow: 10 * time.Minute})

	var signals []types.NormalizedSignal
	for i := 0; i < 5; i++ {
		signals = append(signals, sig("a", types.TypeUrgentEvent, 0.5, t0.Add(time.Duration(i)*10*time.Minute)))
	}

	clusters := e.ClusterSignals(signals)
	require.Len(t, clusters, 3)
	assert.Len(t, clusters[0].Signals, 2)
	assert.Len(t, clusters[1].Signals, 2)
	assert.Len(t, clusters[2].Signals, 1)
}

func TestClusterSignalsSingleWideWindow(t *testing.T) {
	e := New(types.SignalConfig{ClusterWindow: time.Hour})

	var signals []types.NormalizedSignal
	for i := 0; i < 5; i++ {
		signals = append(signals, sig("a", types.TypeUrgentEvent, 0.5, t0.Add(time.Duration(i)*10*time.Minute)))
	}

	clusters := e.ClusterSignals(signals)
	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Signals, 5)
}

func TestClusterSignalsSortsWithinType(t *testing.T) {
	e := New(types.SignalConfig{ClusterWindow: time.Hour})

	signals := []types.NormalizedSignal{
		sig("late", types.TypeUrgentEvent, 0.5, t0.Add(30*time.Minute)),
		sig("early", types.TypeUrgentEvent, 0.5, t0),
	}

	clusters := e.ClusterSignals(signals)
	require.Len(t, clusters, 1)
	assert.Equal(t, "early", clusters[0].Signals[0].Source)
}

func TestClusterSignalsEmptyInput(t *testing.T) {
	e := New(types.SignalConfig{})
	assert.Empty(t, e.ClusterSignals(nil))
}

// --- DetectTrends ---

func TestDetectTrends(t *testing.T) {
	e := New(types.SignalConfig{})

	mk := func(source string, values ...float64) []types.NormalizedSignal {
		var out []types.NormalizedSignal
		for i, v := range values {
			out = append(out, sig(source, types.TypeContextSignal, v, t0.Add(time.Duration(i)*time.Minute)))
		}
		return out
	}

	tests := []struct {
		name    string
		signals []types.NormalizedSignal
		want    types.Trend
	}{
		{"rising", mk("metric:web", 0.2, 0.2, 0.6, 0.8), types.TrendRising},
		{"falling", mk("metric:web", 0.8, 0.8, 0.3, 0.2), types.TrendFalling},
		{"stable", mk("metric:web", 0.5, 0.5, 0.5, 0.5), types.TrendStable},
		{"insufficient data", mk("metric:web", 0.5, 0.9), types.TrendInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trends := e.DetectTrends(tt.signals)
			assert.Equal(t, tt.want, trends["metric:web"])
		})
	}
}

func TestDetectTrendsIgnoresNonMetricSources(t *testing.T) {
	e := New(types.SignalConfig{})

	signals := []types.NormalizedSignal{
		sig("ticket:zendesk", types.TypeUrgentEvent, 0.2, t0),
		sig("ticket:zendesk", types.TypeUrgentEvent, 0.5, t0),
		sig("ticket:zendesk", types.TypeUrgentEvent, 0.9, t0),
	}

	assert.Empty(t, e.DetectTrends(signals))
}
