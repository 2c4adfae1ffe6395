// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CanonicalType is the normalized category a raw input is classified into.
// Clusters never mix canonical types.
type CanonicalType string

const (
	TypeUrgentEvent    CanonicalType = "urgent_event"
	TypeContextSignal  CanonicalType = "context_signal"
	TypeExternalSignal CanonicalType = "external_signal"
)

// Feature vector keys appended by the signal stage. Anomaly detection only
// adds keys; it never removes the normalizer's.
const (
	FeatureIsAnomaly = "is_anomaly"
	FeatureAnomalyZ  = "anomaly_z_score"
)

// NormalizedSignal is the canonical internal form of any raw input. It
// makes otherwise-incomparable inputs (server load vs customer anger)
// rankable on one scale.
type NormalizedSignal struct {
	// Source identifies the origin, prefixed with the input kind
	// (e.g. "ticket:zendesk", "metric:prometheus").
	Source string `json:"source" yaml:"source"`

	Timestamp     time.Time     `json:"timestamp" yaml:"timestamp"`
	CanonicalType CanonicalType `json:"canonical_type" yaml:"canonical_type"`

	// NormalizedPriority is a 0-1 urgency/impact score, always clamped.
	NormalizedPriority float64 `json:"normalized_priority" yaml:"normalized_priority"`

	// FeatureVector holds open-ended named features ready for scoring.
	FeatureVector map[string]float64 `json:"feature_vector" yaml:"feature_vector"`

	// Raw is the original input, retained verbatim for the audit trail.
	Raw RawInput `json:"raw_data" yaml:"raw_data"`
}

// SignalCluster is an ordered group of signals sharing a canonical type,
// bounded by temporal proximity to the cluster's first signal.
type SignalCluster struct {
	CanonicalType CanonicalType      `json:"canonical_type" yaml:"canonical_type"`
	Signals       []NormalizedSignal `json:"signals" yaml:"signals"`
}

// Trend classifies the direction of a per-source metric stream.
type Trend string

const (
	TrendRising           Trend = "rising"
	TrendFalling          Trend = "falling"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)
