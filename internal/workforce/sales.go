package workforce

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/directord/internal/audit"
	"github.com/fyrsmithlabs/directord/internal/enterprise"
	"github.com/fyrsmithlabs/directord/internal/state"
	"github.com/fyrsmithlabs/directord/internal/worker"
)

// Sales covers pipeline planning, retention strategy, and customer success.
type Sales struct{}

// NewSales creates the sales worker.
func NewSales() *Sales { return &Sales{} }

func (s *Sales) Name() string    { return "sales" }
func (s *Sales) Version() string { return version }

// Process handles sales tasks. Retention strategy is the specialty; other
// known kinds fall back to a general output.
func (s *Sales) Process(ctx context.Context, task worker.Task, store worker.StoreHandle, data worker.DataHandle, trail worker.AuditHandle) (worker.Output, error) {
	if err := ctx.Err(); err != nil {
		return worker.Output{}, err
	}

	summary := data.CustomerSummary()
	atRisk := data.CustomersByChurnRisk(0.7)
	citations := []audit.Citation{
		worker.Citation("database", "crm.customer_summary", "customer base aggregates", summary.Total),
		worker.Citation("database", "crm.churn_risk", "customers with churn risk at or above 0.7", len(atRisk)),
	}

	switch task.Kind {
	case worker.TaskRetentionStrategy:
		return s.retentionStrategy(task, data, trail, summary, atRisk, citations), nil
	case worker.TaskRetentionCampaign, worker.TaskBudgetPlanning, worker.TaskProcessOptimization,
		worker.TaskChurnAnalysis, worker.TaskHiringPlan, worker.TaskGeneral:
		return generalOutput(s.Name(), task, citations), nil
	default:
		return worker.Output{}, fmt.Errorf("sales: unsupported task kind %q", task.Kind)
	}
}

func (s *Sales) retentionStrategy(task worker.Task, data worker.DataHandle, trail worker.AuditHandle,
	summary enterprise.CustomerSummary, atRisk []enterprise.Customer, citations []audit.Citation) worker.Output {

	current := data.RetentionRate()
	targetRate := current + task.Target

	var atRiskRevenue float64
	for _, c := range atRisk {
		atRiskRevenue += c.Premium
	}
	citations = append(citations,
		worker.Citation("calculation", "crm.at_risk_revenue", "annual premium held by at-risk customers", atRiskRevenue))

	recommendations := []worker.Recommendation{
		{
			Title: "Proactive Outreach to At-Risk Segments",
			Description: fmt.Sprintf("Deploy retention specialists to %d high-risk customers representing $%.0f in annual premium",
				len(atRisk), atRiskRevenue),
			ExpectedImpact: fmt.Sprintf("Prevent 40%% of expected churn = %d customers retained", int(float64(len(atRisk))*0.4)),
			ActionItems: []string{
				"Segment high-risk customers by reason (price, service, coverage)",
				"Create tailored retention offers for each segment",
				"Assign dedicated CSMs to critical accounts",
				"Implement 90-day check-in program",
			},
		},
		{
			Title:          "Customer Success Expansion",
			Description:    "Expand customer success team to provide proactive service",
			ExpectedImpact: "15% improvement in satisfaction scores, 5% retention lift",
			ActionItems: []string{
				"Hire 8 additional Customer Success Managers",
				"Implement health scoring system",
				"Create automated milestone celebrations",
			},
		},
		{
			Title:          "Loyalty Rewards Program",
			Description:    "Introduce tenure-based benefits to reward long-term customers",
			ExpectedImpact: "3-5% retention improvement among 2+ year customers",
			ActionItems: []string{
				"Design 3-tier loyalty program (Silver, Gold, Platinum)",
				"Partner with wellness providers for health insurance",
				"Communicate benefits through personalized campaigns",
			},
		},
	}

	confidence := worker.AssessConfidence(0.85, 2, true)

	trail.LogDecision(audit.LogRequest{
		Worker:        s.Name(),
		WorkerVersion: version,
		Kind:          audit.KindRecommendation,
		DirectiveID:   task.DirectiveID,
		Decision:      fmt.Sprintf("Recommend 3-pronged retention strategy targeting %.0f%% retention rate", targetRate*100),
		Rationale: fmt.Sprintf("Analysis of %d customers reveals %d at high churn risk. Proactive outreach has historically prevented 40%% of churn in similar scenarios.",
			summary.Total, len(atRisk)),
		ConfidenceScore: confidence,
		Citations:       citations,
		DataSources:     []string{"crm"},
		Assumptions: []string{
			"40% of churn is preventable through proactive outreach",
			"CSM hiring completes within program timeline",
		},
	})

	return worker.Output{
		Worker:          s.Name(),
		TaskID:          task.ID,
		TaskKind:        task.Kind,
		Summary:         fmt.Sprintf("Three-pronged retention strategy targeting %.0f%% retention", targetRate*100),
		Recommendations: recommendations,
		Confidence:      confidence,
		Citations:       citations,
		WhatWouldChangeMind: []string{
			"Churn risk assessment changes by more than 20%",
			"Competitor launches aggressive poaching campaign",
			"Customer satisfaction data contradicts current analysis",
		},
		BudgetImpact:    450_000,
		HeadcountImpact: 8,
		TimelineDays:    90,
		Risks: []string{
			"Retention offers may be matched by competitors",
			"Hiring timeline may delay program launch",
			"Customer segments may be misidentified",
		},
		Dependencies: []string{
			"Customer success platform implementation",
			"CRM data enrichment for churn scoring",
		},
		BudgetRequest: &worker.BudgetRequest{
			Department: "sales",
			Amount:     450_000,
			Purpose:    "customer success expansion",
			Priority:   state.PriorityHigh,
		},
		TimelinePlan: &worker.TimelinePlan{
			CompletionDays: 90,
			Dependencies:   []string{"retention_campaign_playbook"},
			Deliverables:   []worker.Deliverable{{Name: "customer_success_playbook", Day: 45}},
		},
	}
}
