// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import "github.com/pdiddy/decision-engine/pkg/types"

// Action is a concrete operational response proposed by the pipeline.
type Action string

const (
	ActionDeclareSev1 Action = "DECLARE_SEV1_INCIDENT"
	ActionInvestigate Action = "INVESTIGATE"
	ActionMonitor     Action = "MONITOR"
)

// Analysis is the signal stage's output: semantic issues extracted from
// raw clusters.
type Analysis struct {
	IdentifiedIssues []string
	MaxSeverity      float64
}

// Proposal is the decision stage's output: a concrete action from the
// triage playbook.
type Proposal struct {
	Action  Action
	Details string
	Urgency string
}

// Critique is the critic stage's output. Approval is recorded for the
// audit trail; the supervisor does not currently consult it (pending
// product confirmation of the intended wiring).
type Critique struct {
	Risks    []string
	Approval bool
}

// Verdict is the supervisor stage's final synthesis.
type Verdict struct {
	FinalDecision Action
	ExecutionPlan string
	RiskSummary   string
	Status        string
	Impact        ImpactMetrics
}

// ImpactMetrics is the heuristic ROI estimate attached to a verdict.
type ImpactMetrics struct {
	SavedMinutes  float64 `json:"saved_minutes" yaml:"saved_minutes"`
	RiskReduction float64 `json:"risk_score" yaml:"risk_score"`
}

// Context is the state threaded through the pipeline. Each stage reads
// the fields of earlier stages and writes exactly one field of its own,
// so stages cannot silently clobber each other's outputs.
type Context struct {
	Clusters []types.SignalCluster
	Trends   map[string]types.Trend

	Analysis *Analysis
	Proposal *Proposal
	Critique *Critique
	Verdict  *Verdict
}
