// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// AgentReasoning is the structured output of one reasoning stage.
// Immutable after creation; instances only ever accumulate on the
// AuditLog for their decision.
type AgentReasoning struct {
	// Agent names the stage that produced this step.
	Agent string `json:"agent" yaml:"agent"`

	// ThoughtProcess is the human-readable rationale.
	ThoughtProcess string `json:"thought_process" yaml:"thought_process"`

	// EvidenceUsed lists citations backing the conclusion. Never empty.
	EvidenceUsed []string `json:"evidence_used" yaml:"evidence_used"`

	// Confidence is the stage's 0-1 self-assessment.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Conclusion carries the stage's named outputs. The schema varies
	// per stage; it is recorded verbatim in the audit trail.
	Conclusion map[string]any `json:"conclusion" yaml:"conclusion"`
}

// ScoreComponent is one weighted factor of a DecisionScore.
type ScoreComponent struct {
	Name   string  `json:"name" yaml:"name"`
	Value  float64 `json:"value" yaml:"value"`   // 0-1, normalized
	Weight float64 `json:"weight" yaml:"weight"` // 0-1, fixed by policy

	// UncertaintyFlag marks the value as low-confidence.
	UncertaintyFlag bool `json:"uncertainty_flag" yaml:"uncertainty_flag"`
}

// DecisionScore is the calibrated score for a decision. Confidence is a
// first-class output: a wide interval tells reviewers the engine is
// honestly unsure rather than falsely certain.
type DecisionScore struct {
	// TotalScore is the weighted component sum scaled to 0-100.
	TotalScore float64 `json:"total_score" yaml:"total_score"`

	// ConfidenceInterval is the [low, high] estimate on the same 0-100
	// scale, with 0 <= low <= high <= 100.
	ConfidenceInterval [2]float64 `json:"confidence_interval" yaml:"confidence_interval,flow"`

	// UncertaintySources explains why the engine is unsure.
	UncertaintySources []string `json:"uncertainty_sources" yaml:"uncertainty_sources"`

	Components []ScoreComponent `json:"components" yaml:"components"`
}

// IntervalMean returns the midpoint of the confidence interval on a 0-1 scale.
func (s DecisionScore) IntervalMean() float64 {
	return (s.ConfidenceInterval[0] + s.ConfidenceInterval[1]) / 2 / 100
}

// ApprovalStatus is the governance verdict for a decision. Terminal once a
// human outcome is recorded; needs_review is the only non-terminal
// automated state.
type ApprovalStatus string

const (
	StatusAutoApproved     ApprovalStatus = "auto_approved"
	StatusNeedsReview      ApprovalStatus = "needs_review"
	StatusRejected         ApprovalStatus = "rejected"
	StatusManuallyApproved ApprovalStatus = "manually_approved"
)

// Reviewed reports whether a human outcome has been recorded. A reviewed
// status is terminal and cannot be overwritten by a later review;
// auto_approved and needs_review remain open to human override.
func (s ApprovalStatus) Reviewed() bool {
	return s == StatusRejected || s == StatusManuallyApproved
}

// ReviewOutcome records a human verdict on a recommendation.
type ReviewOutcome struct {
	DecisionID    string         `json:"decision_id" yaml:"decision_id"`
	ReviewerID    string         `json:"reviewer_id" yaml:"reviewer_id"`
	Status        ApprovalStatus `json:"status" yaml:"status"`
	FeedbackNotes string         `json:"feedback_notes,omitempty" yaml:"feedback_notes,omitempty"`
	Timestamp     time.Time      `json:"timestamp" yaml:"timestamp"`
}

// InputTrace records one source input that fed a decision.
type InputTrace struct {
	InputID       string        `json:"input_id" yaml:"input_id"`
	Source        string        `json:"source" yaml:"source"`
	CanonicalType CanonicalType `json:"canonical_type" yaml:"canonical_type"`
}

// AuditLog is the full trail for a single decision: exactly which data fed
// it, which reasoning steps ran, and how confident the result is. Created
// once per decision and immutable thereafter.
type AuditLog struct {
	DecisionID string    `json:"decision_id" yaml:"decision_id"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`

	InputsUsed []InputTrace     `json:"inputs_used" yaml:"inputs_used"`
	AgentChain []AgentReasoning `json:"agent_chain" yaml:"agent_chain"`
	Score      DecisionScore    `json:"score_details" yaml:"score_details"`

	// FinalNarrative is the synthesized human-readable summary.
	FinalNarrative string `json:"final_narrative" yaml:"final_narrative"`
}

// Explanation is the user-facing digest of an audit log.
type Explanation struct {
	Summary         string             `json:"summary" yaml:"summary"`
	FactorWeights   map[string]float64 `json:"factor_weights" yaml:"factor_weights"`
	ConfidenceScore float64            `json:"confidence_score" yaml:"confidence_score"`
}

// Decision result statuses observed by external callers. A decision cycles
// processing -> (terminal action | failed); partial stage output is never
// visible.
const (
	ResultProcessing = "processing"
	ResultFailed     = "failed"
)

// Decision is the persisted output entity. The caller creates it as a
// "processing" placeholder before the engine runs; the engine computes the
// fields that turn it into a terminal populated record.
type Decision struct {
	ID        string         `json:"id" yaml:"id"`
	RequestID string         `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	Rank      int            `json:"rank" yaml:"rank"`
	Result    map[string]any `json:"result" yaml:"result"`

	Explanation *Explanation `json:"explanation,omitempty" yaml:"explanation,omitempty"`

	// Confidence is the mean interval confidence, denormalized for listing.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
