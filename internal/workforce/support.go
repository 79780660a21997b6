package workforce

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/directord/internal/audit"
	"github.com/fyrsmithlabs/directord/internal/state"
	"github.com/fyrsmithlabs/directord/internal/worker"
)

// Support covers ticket triage, complaint mining, and churn signals.
type Support struct{}

// NewSupport creates the support worker.
func NewSupport() *Support { return &Support{} }

func (s *Support) Name() string    { return "support" }
func (s *Support) Version() string { return version }

// Process handles support tasks. Churn analysis is the specialty.
func (s *Support) Process(ctx context.Context, task worker.Task, store worker.StoreHandle, data worker.DataHandle, trail worker.AuditHandle) (worker.Output, error) {
	if err := ctx.Err(); err != nil {
		return worker.Output{}, err
	}

	tickets := data.TicketSummary()
	citations := []audit.Citation{
		worker.Citation("database", "support.ticket_summary", "support queue metrics", tickets.Total),
		worker.Citation("database", "support.churn_flags", "tickets flagged as churn signals", tickets.ChurnRiskFlags),
	}

	switch task.Kind {
	case worker.TaskChurnAnalysis:
		return s.churnAnalysis(task, data, trail, citations), nil
	case worker.TaskRetentionStrategy, worker.TaskRetentionCampaign, worker.TaskBudgetPlanning,
		worker.TaskProcessOptimization, worker.TaskHiringPlan, worker.TaskGeneral:
		return generalOutput(s.Name(), task, citations), nil
	default:
		return worker.Output{}, fmt.Errorf("support: unsupported task kind %q", task.Kind)
	}
}

func (s *Support) churnAnalysis(task worker.Task, data worker.DataHandle, trail worker.AuditHandle, citations []audit.Citation) worker.Output {
	tickets := data.TicketSummary()
	flagged := tickets.ChurnRiskFlags

	recommendations := []worker.Recommendation{
		{
			Title:          "Predictive Churn Intervention",
			Description:    fmt.Sprintf("Deploy early warning system for %d customers showing churn signals", flagged),
			ExpectedImpact: fmt.Sprintf("Prevent 45%% of predicted churn = %d customers", int(float64(flagged)*0.45)),
			ActionItems: []string{
				"Build churn prediction model from support signals",
				"Create automated alert system for high-risk customers",
				"Design intervention playbook by risk level",
				"Deploy proactive outreach within 24h of risk detection",
			},
		},
		{
			Title:          "Root Cause Analysis: Complaint Mining",
			Description:    fmt.Sprintf("Mine %d tickets to identify systemic issues driving churn", tickets.Total),
			ExpectedImpact: "Address top 3 issues affecting 60% of complaints",
			ActionItems: []string{
				"Analyze patterns in billing disputes",
				"Review claims complaints for process gaps",
				"Investigate policy change friction",
				"Create action plans for top complaint drivers",
			},
		},
		{
			Title:          "Satisfaction Recovery Program",
			Description:    fmt.Sprintf("Target dissatisfied customers for recovery (current avg satisfaction: %.1f/10)", tickets.AvgSatisfaction),
			ExpectedImpact: "Recover 30% of dissatisfied customers",
			ActionItems: []string{
				"Identify dissatisfied customers from surveys",
				"Create personalized recovery offers",
				"Assign dedicated recovery specialists",
				"Track recovery success rates",
			},
		},
	}

	confidence := worker.AssessConfidence(0.90, 2, true)

	trail.LogDecision(audit.LogRequest{
		Worker:          s.Name(),
		WorkerVersion:   version,
		Kind:            audit.KindRecommendation,
		DirectiveID:     task.DirectiveID,
		Decision:        fmt.Sprintf("Recommend predictive churn intervention covering %d flagged customers", flagged),
		Rationale:       fmt.Sprintf("%d of %d tickets carry churn risk flags; support signals historically lead churn by 30-60 days.", flagged, tickets.Total),
		ConfidenceScore: confidence,
		Citations:       citations,
		DataSources:     []string{"support"},
		Assumptions: []string{
			"Support signals remain a leading indicator of churn",
			"Intervention capacity covers the flagged population",
		},
	})

	return worker.Output{
		Worker:          s.Name(),
		TaskID:          task.ID,
		TaskKind:        task.Kind,
		Summary:         "Churn signal detection with predictive intervention program",
		Recommendations: recommendations,
		Confidence:      confidence,
		Citations:       citations,
		WhatWouldChangeMind: []string{
			"Churn signal model validation shows under 70% accuracy",
			"Customer survey data contradicts ticket-based analysis",
			"New complaint categories emerge not captured in current data",
		},
		BudgetImpact:    200_000,
		HeadcountImpact: 6,
		TimelineDays:    60,
		Risks: []string{
			"False positives in churn prediction may annoy customers",
			"Intervention offers may train customers to complain",
			"Resource constraints may limit intervention reach",
		},
		Dependencies: []string{
			"ML platform for churn prediction",
			"CRM integration for customer 360 view",
			"Agent training program completion",
		},
		ResourceRequests: []worker.ResourceRequest{
			{Resource: "data_engineers", Amount: 1, Priority: state.PriorityHigh},
		},
		TimelinePlan: &worker.TimelinePlan{
			CompletionDays: 60,
			Deliverables:   []worker.Deliverable{{Name: "churn_model", Day: 30}},
		},
	}
}
