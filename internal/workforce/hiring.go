package workforce

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/directord/internal/audit"
	"github.com/fyrsmithlabs/directord/internal/worker"
)

// benefitsLoad is the multiplier applied to base salary cost for benefits
// and employer overhead.
const benefitsLoad = 1.25

// hiringNeed is one role in the reference hiring plan. Counts follow the
// other workers' staffing requests.
type hiringNeed struct {
	Role       string
	Count      int
	Department string
	Salary     float64
}

var retentionHiringNeeds = []hiringNeed{
	{Role: "Customer Success Manager", Count: 8, Department: "sales", Salary: 90_000},
	{Role: "Support Specialist", Count: 6, Department: "support", Salary: 55_000},
	{Role: "Claims Processor", Count: 4, Department: "operations", Salary: 52_000},
	{Role: "Data Analyst", Count: 2, Department: "operations", Salary: 85_000},
}

// Hiring covers hiring plans, workforce strategy, and recruiting compliance.
type Hiring struct{}

// NewHiring creates the hiring worker.
func NewHiring() *Hiring { return &Hiring{} }

func (h *Hiring) Name() string    { return "hiring" }
func (h *Hiring) Version() string { return version }

// Process handles workforce tasks. Hiring plans are the specialty.
func (h *Hiring) Process(ctx context.Context, task worker.Task, store worker.StoreHandle, data worker.DataHandle, trail worker.AuditHandle) (worker.Output, error) {
	if err := ctx.Err(); err != nil {
		return worker.Output{}, err
	}

	headcount := data.HeadcountByDepartment()
	var total int
	for _, n := range headcount {
		total += n
	}
	citations := []audit.Citation{
		worker.Citation("database", "hris.headcount", "current headcount by department", total),
	}

	switch task.Kind {
	case worker.TaskHiringPlan:
		return h.hiringPlan(task, trail, citations), nil
	case worker.TaskRetentionStrategy, worker.TaskRetentionCampaign, worker.TaskBudgetPlanning,
		worker.TaskProcessOptimization, worker.TaskChurnAnalysis, worker.TaskGeneral:
		return generalOutput(h.Name(), task, citations), nil
	default:
		return worker.Output{}, fmt.Errorf("hiring: unsupported task kind %q", task.Kind)
	}
}

func (h *Hiring) hiringPlan(task worker.Task, trail worker.AuditHandle, citations []audit.Citation) worker.Output {
	var totalHires int
	var baseCost float64
	actionItems := make([]string, 0, len(retentionHiringNeeds)+3)
	for _, need := range retentionHiringNeeds {
		totalHires += need.Count
		baseCost += float64(need.Count) * need.Salary
		actionItems = append(actionItems,
			fmt.Sprintf("Hire %d %ss ($%.0f avg)", need.Count, need.Role, need.Salary))
	}
	actionItems = append(actionItems,
		"Launch referral bonus program to accelerate sourcing",
		"Partner with 3 recruitment agencies for specialized roles",
		"Implement structured interview process for consistency",
	)
	loadedCost := baseCost * benefitsLoad
	citations = append(citations,
		worker.Citation("calculation", "hris.hiring_cost", "fully loaded hiring cost incl. benefits", loadedCost))

	recommendations := []worker.Recommendation{
		{
			Title:          fmt.Sprintf("Retention Initiative Hiring Plan: %d FTE", totalHires),
			Description:    "Strategic hiring to staff the retention improvement goal",
			ExpectedImpact: "Enable retention programs across customer-facing teams",
			ActionItems:    actionItems,
		},
		{
			Title:          "Talent Acquisition Strategy",
			Description:    "Multi-channel sourcing strategy to fill roles in 60-75 days",
			ExpectedImpact: "Reduce time-to-fill by 20%, improve quality of hire",
			ActionItems: []string{
				"Post on insurance industry job boards",
				"Activate employee referral program",
				"Source from competitor talent pools",
				"Partner with universities for entry-level pipeline",
			},
		},
		{
			Title:          "Onboarding Excellence Program",
			Description:    "Structured 90-day onboarding to ensure new hire success",
			ExpectedImpact: "85% new hire retention at 1 year, faster time-to-productivity",
			ActionItems: []string{
				"Create role-specific onboarding tracks",
				"Assign onboarding buddies for each new hire",
				"Implement 30-60-90 day check-ins",
			},
		},
		{
			Title:          "Compliance & Risk Management",
			Description:    "Ensure all hiring meets insurance industry regulatory requirements",
			ExpectedImpact: "100% compliance on customer-facing roles",
			ActionItems: []string{
				"Background checks for all customer-facing roles",
				"Verify insurance licenses where required",
				"Document hiring decisions for audit trail",
			},
		},
	}

	confidence := worker.AssessConfidence(0.85, 2, true)

	trail.LogDecision(audit.LogRequest{
		Worker:          h.Name(),
		WorkerVersion:   version,
		Kind:            audit.KindRecommendation,
		DirectiveID:     task.DirectiveID,
		Decision:        fmt.Sprintf("Recommend hiring %d FTE at $%.0f fully loaded cost", totalHires, loadedCost),
		Rationale:       "Counts follow the staffing the sales, support, and operations plans require; cost carries the standard benefits load.",
		ConfidenceScore: confidence,
		Citations:       citations,
		DataSources:     []string{"hris"},
		Assumptions: []string{
			"Talent market fills specialized roles within 75 days",
			"Salary bands hold against market movement",
		},
	})

	return worker.Output{
		Worker:          h.Name(),
		TaskID:          task.ID,
		TaskKind:        task.Kind,
		Summary:         fmt.Sprintf("%d FTE hiring plan at $%.0f fully loaded", totalHires, loadedCost),
		Recommendations: recommendations,
		Confidence:      confidence,
		Citations:       citations,
		WhatWouldChangeMind: []string{
			"Market data shows significantly different salary expectations",
			"Talent availability much lower than forecasted",
			"Budget constraints require over 30% reduction in hiring",
			"Regulatory changes affect licensing requirements",
		},
		BudgetImpact:    loadedCost,
		HeadcountImpact: totalHires,
		TimelineDays:    75,
		Risks: []string{
			"Competitive talent market may extend hiring timelines",
			"Salary expectations may exceed budgeted amounts",
			"New hire quality may vary affecting program success",
			"Regulatory licensing delays for insurance roles",
		},
		Dependencies: []string{
			"Budget approval for headcount",
			"Hiring manager availability for interviews",
			"Compliance review of job descriptions",
		},
	}
}
