package workforce

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/directord/internal/audit"
	"github.com/fyrsmithlabs/directord/internal/state"
	"github.com/fyrsmithlabs/directord/internal/worker"
)

// Operations covers process optimization, SLA management, and automation.
type Operations struct{}

// NewOperations creates the operations worker.
func NewOperations() *Operations { return &Operations{} }

func (o *Operations) Name() string    { return "operations" }
func (o *Operations) Version() string { return version }

// Process handles operations tasks. Process optimization is the specialty.
func (o *Operations) Process(ctx context.Context, task worker.Task, store worker.StoreHandle, data worker.DataHandle, trail worker.AuditHandle) (worker.Output, error) {
	if err := ctx.Err(); err != nil {
		return worker.Output{}, err
	}

	tickets := data.TicketSummary()
	summary := data.CustomerSummary()
	citations := []audit.Citation{
		worker.Citation("database", "support.ticket_summary", "support queue metrics", tickets.Total),
		worker.Citation("database", "crm.customer_summary", "customer volume for capacity planning", summary.Total),
	}

	switch task.Kind {
	case worker.TaskProcessOptimization:
		return o.processOptimization(task, data, trail, tickets.AvgResolutionHours, citations), nil
	case worker.TaskRetentionStrategy, worker.TaskRetentionCampaign, worker.TaskBudgetPlanning,
		worker.TaskChurnAnalysis, worker.TaskHiringPlan, worker.TaskGeneral:
		return generalOutput(o.Name(), task, citations), nil
	default:
		return worker.Output{}, fmt.Errorf("operations: unsupported task kind %q", task.Kind)
	}
}

func (o *Operations) processOptimization(task worker.Task, data worker.DataHandle, trail worker.AuditHandle, resolutionHours float64, citations []audit.Citation) worker.Output {
	recommendations := []worker.Recommendation{
		{
			Title: "Claims Processing Acceleration",
			Description: fmt.Sprintf("Reduce claims resolution time from %.1f hours to under 12 hours through process redesign and automation",
				resolutionHours),
			ExpectedImpact: "15-point NPS improvement, 3% retention lift",
			ActionItems: []string{
				"Implement straight-through processing for simple claims",
				"Deploy document classification",
				"Create exception-only review workflow",
				"Enable customer self-service status tracking",
			},
		},
		{
			Title:          "Onboarding Experience Redesign",
			Description:    "Streamline new customer onboarding to improve early engagement",
			ExpectedImpact: "25% reduction in early-stage churn (first 90 days)",
			ActionItems: []string{
				"Map current onboarding journey and pain points",
				"Create personalized onboarding tracks by segment",
				"Implement progress tracking and milestone celebrations",
				"Deploy proactive check-ins at days 30, 60, 90",
			},
		},
		{
			Title:          "Renewal Process Automation",
			Description:    "Automate renewal workflows to reduce friction and manual errors",
			ExpectedImpact: "8% improvement in renewal rates, 40% reduction in processing time",
			ActionItems: []string{
				"Build renewal prediction model",
				"Create automated renewal quote generation",
				"Implement digital renewal acceptance",
				"Deploy retention offer triggers for at-risk renewals",
			},
		},
	}

	confidence := worker.AssessConfidence(0.85, 2, true)

	trail.LogDecision(audit.LogRequest{
		Worker:          o.Name(),
		WorkerVersion:   version,
		Kind:            audit.KindRecommendation,
		DirectiveID:     task.DirectiveID,
		Decision:        "Recommend process redesign across claims, onboarding, and renewals",
		Rationale:       fmt.Sprintf("Average resolution of %.1f hours and renewal friction are the largest operational churn drivers in the ticket data.", resolutionHours),
		ConfidenceScore: confidence,
		Citations:       citations,
		DataSources:     []string{"support", "crm"},
		Assumptions: []string{
			"Core systems expose the integration points automation needs",
			"Staff capacity absorbs change management alongside daily work",
		},
	})

	return worker.Output{
		Worker:          o.Name(),
		TaskID:          task.ID,
		TaskKind:        task.Kind,
		Summary:         "Process optimization across claims, onboarding, and renewal workflows",
		Recommendations: recommendations,
		Confidence:      confidence,
		Citations:       citations,
		WhatWouldChangeMind: []string{
			"Process mining reveals different bottleneck than expected",
			"Technology constraints prevent proposed automation",
			"Regulatory requirements limit process changes",
		},
		BudgetImpact:    350_000,
		HeadcountImpact: 0,
		TimelineDays:    120,
		Risks: []string{
			"Process changes may disrupt service during transition",
			"Automation may require significant IT resources",
			"Change management challenges with staff",
		},
		Dependencies: []string{
			"BPM platform implementation",
			"Integration with core insurance systems",
			"Staff training and change management",
		},
		ResourceRequests: []worker.ResourceRequest{
			{Resource: "data_engineers", Amount: 1, Priority: state.PriorityMedium},
		},
		TimelinePlan: &worker.TimelinePlan{
			CompletionDays: 120,
			Deliverables:   []worker.Deliverable{{Name: "workflow_automation", Day: 90}},
		},
	}
}
