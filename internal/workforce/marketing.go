package workforce

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/directord/internal/audit"
	"github.com/fyrsmithlabs/directord/internal/state"
	"github.com/fyrsmithlabs/directord/internal/worker"
)

// Marketing covers campaign strategy, channel allocation, and attribution.
type Marketing struct{}

// NewMarketing creates the marketing worker.
func NewMarketing() *Marketing { return &Marketing{} }

func (m *Marketing) Name() string    { return "marketing" }
func (m *Marketing) Version() string { return version }

// Process handles marketing tasks. Retention campaigns are the specialty.
func (m *Marketing) Process(ctx context.Context, task worker.Task, store worker.StoreHandle, data worker.DataHandle, trail worker.AuditHandle) (worker.Output, error) {
	if err := ctx.Err(); err != nil {
		return worker.Output{}, err
	}

	summary := data.CustomerSummary()
	tickets := data.TicketSummary()
	citations := []audit.Citation{
		worker.Citation("database", "crm.customer_summary", "customer segmentation for targeting", summary.Total),
		worker.Citation("database", "support.churn_flags", "tickets flagged as churn signals", tickets.ChurnRiskFlags),
	}

	switch task.Kind {
	case worker.TaskRetentionCampaign:
		return m.retentionCampaign(task, data, trail, citations), nil
	case worker.TaskRetentionStrategy, worker.TaskBudgetPlanning, worker.TaskProcessOptimization,
		worker.TaskChurnAnalysis, worker.TaskHiringPlan, worker.TaskGeneral:
		return generalOutput(m.Name(), task, citations), nil
	default:
		return worker.Output{}, fmt.Errorf("marketing: unsupported task kind %q", task.Kind)
	}
}

func (m *Marketing) retentionCampaign(task worker.Task, data worker.DataHandle, trail worker.AuditHandle, citations []audit.Citation) worker.Output {
	atRisk := len(data.CustomersByChurnRisk(0.7))
	cac := data.CAC()
	citations = append(citations,
		worker.Citation("database", "finance.cac", "current blended customer acquisition cost", cac))

	recommendations := []worker.Recommendation{
		{
			Title: "At-Risk Customer Win-Back Campaign",
			Description: fmt.Sprintf("Multi-channel campaign targeting %d at-risk customers with personalized retention offers",
				atRisk),
			ExpectedImpact: fmt.Sprintf("Retain %d customers (35%% of at-risk)", int(float64(atRisk)*0.35)),
			ActionItems: []string{
				"Segment at-risk customers by churn reason (price, service, coverage gaps)",
				"Develop personalized email sequence (5 touches over 30 days)",
				"Create direct mail piece for high-value at-risk segments",
				"Deploy retargeting ads for digital-only customers",
				"Set up SMS alerts for critical renewal dates",
			},
		},
		{
			Title:          "Advocate Amplification Program",
			Description:    "Leverage satisfied customers for referrals and testimonials",
			ExpectedImpact: "15% increase in referral leads, improved brand sentiment",
			ActionItems: []string{
				"Identify NPS promoters (score 9-10)",
				"Create referral incentive program",
				"Develop customer story content library",
				"Launch review generation campaign",
			},
		},
		{
			Title:          "Lifecycle Marketing Automation",
			Description:    "Deploy automated nurture campaigns at key lifecycle moments",
			ExpectedImpact: "20% improvement in engagement, 3% retention lift",
			ActionItems: []string{
				"Map customer journey touchpoints",
				"Build welcome series for new customers",
				"Create renewal reminder sequence (90, 60, 30 days)",
				"Develop cross-sell campaigns for additional policies",
			},
		},
	}

	confidence := worker.AssessConfidence(0.80, 3, true)

	trail.LogDecision(audit.LogRequest{
		Worker:          m.Name(),
		WorkerVersion:   version,
		Kind:            audit.KindRecommendation,
		DirectiveID:     task.DirectiveID,
		Decision:        fmt.Sprintf("Recommend multi-channel retention campaign reaching %d at-risk customers", atRisk),
		Rationale:       "Churn-flagged support tickets and CRM risk scores identify a reachable at-risk segment; win-back campaigns of this shape retained 35% in prior programs.",
		ConfidenceScore: confidence,
		Citations:       citations,
		DataSources:     []string{"crm", "support", "finance"},
		Assumptions: []string{
			"Email deliverability stays above 95%",
			"Channel mix performance matches last two quarters",
			"Creative production completes before launch window",
		},
	})

	return worker.Output{
		Worker:          m.Name(),
		TaskID:          task.ID,
		TaskKind:        task.Kind,
		Summary:         "Multi-channel win-back and lifecycle campaign program",
		Recommendations: recommendations,
		Confidence:      confidence,
		Citations:       citations,
		WhatWouldChangeMind: []string{
			"Customer segmentation data shows different at-risk profiles",
			"Channel performance data contradicts current allocation",
			"Budget constraints require significant reduction",
		},
		BudgetImpact:    850_000,
		HeadcountImpact: 3,
		TimelineDays:    45,
		Risks: []string{
			"Email deliverability issues may reduce campaign reach",
			"Competitor may launch counter-campaign",
			"Creative fatigue may reduce engagement over time",
		},
		Dependencies: []string{
			"Marketing automation platform configuration",
			"Customer data platform segmentation",
			"Creative asset production",
		},
		BudgetRequest: &worker.BudgetRequest{
			Department: "marketing",
			Amount:     850_000,
			Purpose:    "retention campaigns",
			Priority:   state.PriorityHigh,
		},
		TimelinePlan: &worker.TimelinePlan{
			CompletionDays: 45,
			Dependencies:   []string{"churn_model"},
			Deliverables:   []worker.Deliverable{{Name: "retention_campaign_playbook", Day: 30}},
		},
		Stance: &worker.Stance{
			Lever:     "cac",
			Direction: "maintain",
			Position:  "hold blended CAC flat while shifting spend toward retention",
		},
	}
}
