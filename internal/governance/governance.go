// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package governance decides whether a scored recommendation can proceed
// automatically or needs human eyes. The automation boundary is policy:
// models fail catastrophically in unprecedented situations, so anything
// volatile or mediocre falls back to review, never the other way around.
package governance

import (
	"log/slog"
	"slices"

	"github.com/pdiddy/decision-engine/pkg/types"
)

// FeedbackSink receives calibration signals derived from human review
// outcomes. Implementations decide what to do with them (log, emit to an
// optimization service); the governance engine only classifies.
type FeedbackSink interface {
	// RecordRejection is called when a human rejects a needs_review
	// recommendation: a negative-calibration signal for future ranking.
	RecordRejection(outcome types.ReviewOutcome)

	// RecordCriticalFailure is called when a human rejects a decision
	// that was auto-approved: a post-hoc failure requiring escalation.
	RecordCriticalFailure(outcome types.ReviewOutcome)
}

// Engine is the approval state machine. Stateless aside from its
// immutable policy; safe for concurrent use.
type Engine struct {
	policy types.GovernancePolicy
	sink   FeedbackSink
	log    *slog.Logger
}

// New returns a governance Engine. A nil sink discards feedback after
// logging it; a nil logger falls back to slog.Default.
func New(policy types.GovernancePolicy, sink FeedbackSink, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{policy: policy, sink: sink, log: log}
}

// EvaluateApproval maps a score to an approval verdict. Force-review
// flags are checked first and cannot be outscored; otherwise the score
// and mean interval confidence must both clear the policy thresholds.
// Evaluation never fails: any state not explicitly auto-approvable is
// needs_review, the conservative default.
func (e *Engine) EvaluateApproval(score types.DecisionScore) types.ApprovalStatus {
	for _, flag := range score.UncertaintySources {
		if slices.Contains(e.policy.ForceReviewFlags, flag) {
			e.log.Info("governance force-review", "flag", flag)
			return types.StatusNeedsReview
		}
	}

	if score.TotalScore >= e.policy.AutoApproveMinScore &&
		score.IntervalMean() >= e.policy.AutoApproveMinConfidence {
		return types.StatusAutoApproved
	}

	return types.StatusNeedsReview
}

// ProcessFeedback records a human review outcome. Rejections are routed
// to the feedback sink: a rejected recommendation is a negative
// calibration signal, and a rejection of a previously auto-approved
// decision is a critical failure event.
//
// priorStatus is the automated verdict the human overrode.
func (e *Engine) ProcessFeedback(priorStatus types.ApprovalStatus, outcome types.ReviewOutcome) {
	e.log.Info("processing review feedback",
		"decision_id", outcome.DecisionID,
		"reviewer", outcome.ReviewerID,
		"status", outcome.Status)

	if outcome.Status != types.StatusRejected {
		return
	}

	if priorStatus == types.StatusAutoApproved {
		e.log.Error("auto-approved decision rejected post-hoc",
			"decision_id", outcome.DecisionID)
		if e.sink != nil {
			e.sink.RecordCriticalFailure(outcome)
		}
		return
	}

	if e.sink != nil {
		e.sink.RecordRejection(outcome)
	}
}

// LoggingSink is a FeedbackSink that records calibration signals to the
// structured log. It stands in until a real optimization backend exists.
type LoggingSink struct {
	Log *slog.Logger
}

func (s *LoggingSink) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

// RecordRejection logs a negative calibration signal.
func (s *LoggingSink) RecordRejection(outcome types.ReviewOutcome) {
	s.logger().Warn("negative calibration signal",
		"decision_id", outcome.DecisionID,
		"notes", outcome.FeedbackNotes)
}

// RecordCriticalFailure logs a post-hoc automation failure.
func (s *LoggingSink) RecordCriticalFailure(outcome types.ReviewOutcome) {
	s.logger().Error("critical automation failure",
		"decision_id", outcome.DecisionID,
		"notes", outcome.FeedbackNotes)
}
