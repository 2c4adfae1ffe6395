// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest accepts raw operational inputs and queues them for
// decision processing. It is the validation boundary: everything past
// Submit may assume each input's tagged variant is populated and
// type-correct.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/decision-engine/internal/worker"
	"github.com/pdiddy/decision-engine/pkg/types"
)

// Batch is the on-disk representation of an ingestion request: a set of
// raw inputs that should be decided together.
type Batch struct {
	RequestID string           `yaml:"request_id,omitempty"`
	Inputs    []types.RawInput `yaml:"inputs"`
}

// Store is the persistence surface ingestion needs.
type Store interface {
	SaveDataPoint(ctx context.Context, in types.RawInput) error
	CreatePlaceholder(ctx context.Context, decisionID, requestID string) error
	EnqueueTask(ctx context.Context, decisionID string, payload any) error
}

// Service validates and persists incoming batches.
type Service struct {
	store Store
	log   *slog.Logger
}

// New creates an ingestion service.
func New(store Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, log: log}
}

// Submit validates a batch, persists every input, creates the decision
// placeholder, and enqueues the pipeline task. Returns the decision id
// the caller can poll. Inputs missing an id or timestamp are completed
// in place; a kind/variant mismatch rejects the whole batch.
func (s *Service) Submit(ctx context.Context, requestID string, inputs []types.RawInput) (string, error) {
	if len(inputs) == 0 {
		return "", fmt.Errorf("batch contains no inputs")
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}

	now := time.Now().UTC()
	for i := range inputs {
		if err := validate(&inputs[i], now); err != nil {
			return "", fmt.Errorf("input %d: %w", i, err)
		}
	}

	for _, in := range inputs {
		if err := s.store.SaveDataPoint(ctx, in); err != nil {
			return "", fmt.Errorf("persisting input %s: %w", in.ID, err)
		}
	}

	decisionID := uuid.NewString()
	if err := s.store.CreatePlaceholder(ctx, decisionID, requestID); err != nil {
		return "", fmt.Errorf("creating decision record: %w", err)
	}
	if err := s.store.EnqueueTask(ctx, decisionID, worker.TaskPayload{Inputs: inputs}); err != nil {
		return "", fmt.Errorf("enqueueing pipeline task: %w", err)
	}

	s.log.Info("batch accepted", "request_id", requestID, "decision_id", decisionID, "inputs", len(inputs))
	return decisionID, nil
}

// SubmitFile reads a batch file and submits it.
func (s *Service) SubmitFile(ctx context.Context, path string) (string, error) {
	batch, err := ReadBatchFile(path)
	if err != nil {
		return "", err
	}
	return s.Submit(ctx, batch.RequestID, batch.Inputs)
}

// ReadBatchFile loads an ingestion batch from a YAML (or JSON) file.
func ReadBatchFile(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading batch file: %w", err)
	}
	var batch Batch
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("parsing batch file: %w", err)
	}
	return &batch, nil
}

// validate checks one input and fills defaults. The variant must match
// the declared kind exactly: one populated, the other two nil.
func validate(in *types.RawInput, now time.Time) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = now
	}
	if in.SourceSystem == "" {
		return fmt.Errorf("source_system is required")
	}

	switch in.Kind {
	case types.KindTicket:
		if in.Ticket == nil {
			return fmt.Errorf("kind %q requires a ticket body", in.Kind)
		}
		if in.Metric != nil || in.MarketSignal != nil {
			return fmt.Errorf("kind %q carries extra variants", in.Kind)
		}
		if _, ok := priorityLabels[in.Ticket.Priority]; !ok {
			return fmt.Errorf("unknown priority_label %q", in.Ticket.Priority)
		}
		if _, ok := customerTiers[in.Ticket.CustomerTier]; !ok {
			return fmt.Errorf("unknown customer_tier %q", in.Ticket.CustomerTier)
		}
	case types.KindMetric:
		if in.Metric == nil {
			return fmt.Errorf("kind %q requires a metric body", in.Kind)
		}
		if in.Ticket != nil || in.MarketSignal != nil {
			return fmt.Errorf("kind %q carries extra variants", in.Kind)
		}
		if in.Metric.Name == "" {
			return fmt.Errorf("metric_name is required")
		}
	case types.KindMarketSignal:
		if in.MarketSignal == nil {
			return fmt.Errorf("kind %q requires a market_signal body", in.Kind)
		}
		if in.Ticket != nil || in.Metric != nil {
			return fmt.Errorf("kind %q carries extra variants", in.Kind)
		}
		if s := in.MarketSignal.ImpactScore; s != nil && (*s < 0 || *s > 1) {
			return fmt.Errorf("impact_score %g outside [0, 1]", *s)
		}
	default:
		return fmt.Errorf("unknown kind %q", in.Kind)
	}
	return nil
}

var priorityLabels = map[types.PriorityLabel]struct{}{
	types.PriorityLow:      {},
	types.PriorityMedium:   {},
	types.PriorityHigh:     {},
	types.PriorityCritical: {},
}

var customerTiers = map[types.CustomerTier]struct{}{
	types.TierStandard:   {},
	types.TierPremium:    {},
	types.TierEnterprise: {},
}
