// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// InputKind tags the variant carried by a RawInput.
type InputKind string

const (
	KindTicket       InputKind = "ticket"
	KindMetric       InputKind = "metric"
	KindMarketSignal InputKind = "market_signal"
)

// CustomerTier categorizes the account behind a support ticket.
type CustomerTier string

const (
	TierStandard   CustomerTier = "standard"
	TierPremium    CustomerTier = "premium"
	TierEnterprise CustomerTier = "enterprise"
)

// PriorityLabel is the qualitative priority on a support ticket.
type PriorityLabel string

const (
	PriorityLow      PriorityLabel = "low"
	PriorityMedium   PriorityLabel = "medium"
	PriorityHigh     PriorityLabel = "high"
	PriorityCritical PriorityLabel = "critical"
)

// Ticket is an incoming customer support ticket.
type Ticket struct {
	TicketID     string            `json:"ticket_id" yaml:"ticket_id"`
	CustomerTier CustomerTier      `json:"customer_tier" yaml:"customer_tier"`
	Priority     PriorityLabel     `json:"priority_label" yaml:"priority_label"`
	TextContent  string            `json:"text_content" yaml:"text_content"`
	Metadata     map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Metric is an operational measurement (server load, latency, error rate).
type Metric struct {
	Name  string            `json:"metric_name" yaml:"metric_name"`
	Value float64           `json:"value" yaml:"value"`
	Unit  string            `json:"unit" yaml:"unit"`
	Tags  map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// MarketSignal is an external market event (competitor price change,
// promo launch, stock-out).
type MarketSignal struct {
	SignalType   string `json:"signal_type" yaml:"signal_type"`
	CompetitorID string `json:"competitor_id" yaml:"competitor_id"`

	// ImpactScore is an optional 0-1 severity estimate. Nil means the
	// upstream system could not assess impact.
	ImpactScore *float64 `json:"impact_score,omitempty" yaml:"impact_score,omitempty"`

	Details map[string]string `json:"details,omitempty" yaml:"details,omitempty"`
}

// RawInput is a tagged variant holding exactly one of Ticket, Metric, or
// MarketSignal. Upstream validation guarantees the variant matching Kind
// is populated; the engine performs no re-validation.
type RawInput struct {
	ID           string    `json:"id" yaml:"id"`
	Kind         InputKind `json:"kind" yaml:"kind"`
	SourceSystem string    `json:"source_system" yaml:"source_system"`
	Timestamp    time.Time `json:"timestamp" yaml:"timestamp"`

	Ticket       *Ticket       `json:"ticket,omitempty" yaml:"ticket,omitempty"`
	Metric       *Metric       `json:"metric,omitempty" yaml:"metric,omitempty"`
	MarketSignal *MarketSignal `json:"market_signal,omitempty" yaml:"market_signal,omitempty"`
}
