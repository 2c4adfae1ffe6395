// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agents runs the four-stage sequential reasoning pipeline:
// analyze signals, propose an action, critique it, and synthesize a final
// verdict. Each stage is a deterministic pure function of the accumulated
// context and emits a structured reasoning record, so a full pipeline
// re-run for the same decision is always safe.
package agents

import (
	"fmt"

	"github.com/pdiddy/decision-engine/pkg/types"
)

// criticalThreshold is the normalized priority at which a signal is
// treated as a critical finding by the analysis stage.
const criticalThreshold = 0.8

// Agent is one reasoning stage. Run reads earlier stages' results from
// the context, writes its own, and returns the reasoning record destined
// for the audit trail.
type Agent interface {
	Name() string
	Run(ctx *Context) (types.AgentReasoning, error)
}

// Pipeline executes a fixed ordered list of agents.
type Pipeline struct {
	stages []Agent
}

// NewPipeline returns the standard four-stage pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{stages: []Agent{
		&SignalAgent{},
		&DecisionAgent{},
		&CriticAgent{},
		&SupervisorAgent{},
	}}
}

// Run executes the stages strictly in sequence. The first stage error
// aborts the remainder; steps completed so far are returned alongside the
// error so the caller can record a partial trail in the failure report.
func (p *Pipeline) Run(ctx *Context) ([]types.AgentReasoning, error) {
	steps := make([]types.AgentReasoning, 0, len(p.stages))
	for _, stage := range p.stages {
		step, err := stage.Run(ctx)
		if err != nil {
			return steps, fmt.Errorf("agent %s: %w", stage.Name(), err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// --- stage 1: the analyst ---

// SignalAgent scans normalized clusters for high-priority signals and
// extracts semantic issues from them.
type SignalAgent struct{}

func (a *SignalAgent) Name() string { return "SignalAnalyst" }

func (a *SignalAgent) Run(ctx *Context) (types.AgentReasoning, error) {
	var issues, evidence []string
	var maxPriority float64

	for _, cluster := range ctx.Clusters {
		for _, point := range cluster.Signals {
			if point.NormalizedPriority > maxPriority {
				maxPriority = point.NormalizedPriority
			}
			if point.NormalizedPriority >= criticalThreshold {
				issues = append(issues, fmt.Sprintf("Critical signal in %s cluster: %s (Score: %.2f)",
					cluster.CanonicalType, point.Source, point.NormalizedPriority))
				evidence = append(evidence, fmt.Sprintf("%s=%g", point.Source, point.NormalizedPriority))
			}
		}
	}

	// Confidence scales with the strongest signal seen.
	confidence := min(0.99, 0.7+0.2*maxPriority)

	if len(issues) == 0 {
		issues = []string{"No critical anomalies detected. System operating within normal parameters."}
		confidence = 0.9
	}
	if len(evidence) == 0 {
		evidence = []string{"All systems nominal"}
	}

	ctx.Analysis = &Analysis{IdentifiedIssues: issues, MaxSeverity: maxPriority}

	return types.AgentReasoning{
		Agent: a.Name(),
		ThoughtProcess: fmt.Sprintf("Scanned %d clusters. Found %d critical issues. Max priority detected: %.2f.",
			len(ctx.Clusters), len(issues), maxPriority),
		EvidenceUsed: evidence,
		Confidence:   confidence,
		Conclusion: map[string]any{
			"identified_issues": issues,
			"max_severity":      maxPriority,
		},
	}, nil
}

// --- stage 2: the strategist ---

// DecisionAgent maps the analysis severity onto the triage playbook.
type DecisionAgent struct{}

func (a *DecisionAgent) Name() string { return "DecisionMaker" }

func (a *DecisionAgent) Run(ctx *Context) (types.AgentReasoning, error) {
	if ctx.Analysis == nil {
		return types.AgentReasoning{}, fmt.Errorf("no analysis available")
	}
	severity := ctx.Analysis.MaxSeverity

	var action Action
	var details, urgency string
	switch {
	case severity >= 0.9:
		action = ActionDeclareSev1
		details = "Initiate War Room, page on-call, and prepare communication templates."
		urgency = "Critical"
	case severity >= 0.7:
		action = ActionInvestigate
		details = "Assign ticket to next available SRE. Check dashboard for correlation."
		urgency = "High"
	default:
		action = ActionMonitor
		details = "Log variance for future trend analysis. No immediate intervention."
		urgency = "Low"
	}

	ctx.Proposal = &Proposal{Action: action, Details: details, Urgency: urgency}

	return types.AgentReasoning{
		Agent:          a.Name(),
		ThoughtProcess: fmt.Sprintf("Mapping max severity %.2f to triage matrix.", severity),
		EvidenceUsed:   []string{"Ops Runbook v4.2 - Triage Matrix"},
		Confidence:     0.9,
		Conclusion: map[string]any{
			"proposed_action": string(action),
			"action_details":  details,
			"urgency":         urgency,
		},
	}, nil
}

// --- stage 3: the skeptic ---

// CriticAgent hunts for flaws in the proposed action. A deliberately
// risk-averse stage counters the tendency of the proposal stage to accept
// the first plausible path.
type CriticAgent struct{}

func (a *CriticAgent) Name() string { return "RiskOfficer" }

func (a *CriticAgent) Run(ctx *Context) (types.AgentReasoning, error) {
	if ctx.Proposal == nil {
		return types.AgentReasoning{}, fmt.Errorf("no proposal available")
	}

	risks := []string{}
	switch ctx.Proposal.Action {
	case ActionDeclareSev1:
		risks = append(risks,
			"Risk of 'Cry Wolf' if signal is transient.",
			"High engineering cost of mobilization.")
	case ActionMonitor:
		risks = append(risks, "Potential for hidden cascading failure.")
	}

	ctx.Critique = &Critique{Risks: risks, Approval: true}

	return types.AgentReasoning{
		Agent: a.Name(),
		ThoughtProcess: fmt.Sprintf("Validating '%s' against risk appetite. Urgency is %s.",
			ctx.Proposal.Action, ctx.Proposal.Urgency),
		EvidenceUsed: []string{"Risk Policy: Alert Fatigue vs Uptime"},
		Confidence:   0.95,
		Conclusion: map[string]any{
			"risks":    risks,
			"approval": true,
		},
	}, nil
}

// --- stage 4: the judge ---

// SupervisorAgent adopts the proposal as the final decision and attaches
// a heuristic impact estimate.
type SupervisorAgent struct{}

func (a *SupervisorAgent) Name() string { return "ChiefDecisionOfficer" }

// impactTable maps each final action to its estimated ROI.
var impactTable = map[Action]ImpactMetrics{
	ActionDeclareSev1: {SavedMinutes: 45, RiskReduction: 8.5},
	ActionInvestigate: {SavedMinutes: 15, RiskReduction: 4.0},
	ActionMonitor:     {SavedMinutes: 5, RiskReduction: 2.0},
}

func (a *SupervisorAgent) Run(ctx *Context) (types.AgentReasoning, error) {
	if ctx.Proposal == nil || ctx.Critique == nil {
		return types.AgentReasoning{}, fmt.Errorf("missing proposal or critique")
	}

	impact := impactTable[ctx.Proposal.Action]
	riskSummary := fmt.Sprintf("%v", ctx.Critique.Risks)

	ctx.Verdict = &Verdict{
		FinalDecision: ctx.Proposal.Action,
		ExecutionPlan: ctx.Proposal.Details,
		RiskSummary:   riskSummary,
		Status:        "APPROVED",
		Impact:        impact,
	}

	return types.AgentReasoning{
		Agent: a.Name(),
		ThoughtProcess: fmt.Sprintf("Synthesizing proposal '%s' with identified risks. Impact estimated: %gm saved.",
			ctx.Proposal.Action, impact.SavedMinutes),
		EvidenceUsed: []string{"SignalAnalysis", "StrategicProposal", "RiskAssessment", "ROIHeuristicTable"},
		Confidence:   0.92,
		Conclusion: map[string]any{
			"final_decision": string(ctx.Proposal.Action),
			"execution_plan": ctx.Proposal.Details,
			"risk_summary":   riskSummary,
			"status":         "APPROVED",
			"impact_metrics": map[string]float64{
				"saved_minutes": impact.SavedMinutes,
				"risk_score":    impact.RiskReduction,
			},
		},
	}, nil
}
