package workforce

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/directord/internal/audit"
	"github.com/fyrsmithlabs/directord/internal/worker"
)

// Finance covers budgeting, unit economics, and scenario planning. It holds
// recommend-only authority: it allocates, it does not spend.
type Finance struct{}

// NewFinance creates the finance worker.
func NewFinance() *Finance { return &Finance{} }

func (f *Finance) Name() string    { return "finance" }
func (f *Finance) Version() string { return version }

// Process handles finance tasks. Budget planning is the specialty.
func (f *Finance) Process(ctx context.Context, task worker.Task, store worker.StoreHandle, data worker.DataHandle, trail worker.AuditHandle) (worker.Output, error) {
	if err := ctx.Err(); err != nil {
		return worker.Output{}, err
	}

	budgets := data.BudgetStatus()
	metrics := data.CurrentQuarterMetrics()
	citations := []audit.Citation{
		worker.Citation("database", "erp.budget_status", "department budget positions", len(budgets)),
		worker.Citation("database", "erp.quarter_metrics", "current quarter financials", metrics.Period),
	}

	switch task.Kind {
	case worker.TaskBudgetPlanning:
		return f.budgetPlanning(task, data, trail, citations), nil
	case worker.TaskRetentionStrategy, worker.TaskRetentionCampaign, worker.TaskProcessOptimization,
		worker.TaskChurnAnalysis, worker.TaskHiringPlan, worker.TaskGeneral:
		return generalOutput(f.Name(), task, citations), nil
	default:
		return worker.Output{}, fmt.Errorf("finance: unsupported task kind %q", task.Kind)
	}
}

// budgetPlanning allocates a share of each department's remaining budget to
// the retention program plus a contingency reserve.
func (f *Finance) budgetPlanning(task worker.Task, data worker.DataHandle, trail worker.AuditHandle, citations []audit.Citation) worker.Output {
	available := make(map[string]float64)
	for _, b := range data.BudgetStatus() {
		available[b.Department] = b.Available
	}
	totalAvailable := available["marketing"] + available["sales"] + available["support"] + available["operations"]

	breakdown := map[string]float64{
		"marketing":   available["marketing"] * 0.40,
		"sales":       available["sales"] * 0.30,
		"support":     available["support"] * 0.20,
		"operations":  available["operations"] * 0.10,
		"contingency": totalAvailable * 0.035,
	}
	var totalAllocated float64
	for _, v := range breakdown {
		totalAllocated += v
	}
	citations = append(citations,
		worker.Citation("calculation", "erp.allocation_model", "retention program allocation across departments", totalAllocated))

	recommendations := []worker.Recommendation{
		{
			Title:          "Retention Initiative Budget Allocation",
			Description:    fmt.Sprintf("Allocate $%.0f across departments for the retention improvement program", totalAllocated),
			ExpectedImpact: "8%+ retention improvement with 4.2x ROI",
			ActionItems: []string{
				fmt.Sprintf("Marketing: $%.0f for retention campaigns", breakdown["marketing"]),
				fmt.Sprintf("Sales: $%.0f for customer success expansion", breakdown["sales"]),
				fmt.Sprintf("Support: $%.0f for service improvements", breakdown["support"]),
				fmt.Sprintf("Operations: $%.0f for process optimization", breakdown["operations"]),
				"Establish monthly budget review checkpoints",
				fmt.Sprintf("Hold $%.0f contingency reserve", breakdown["contingency"]),
			},
		},
		{
			Title:          "Unit Economics Monitoring",
			Description:    "Track CAC and LTV in real time so retention spend does not erode unit economics",
			ExpectedImpact: "Maintain LTV/CAC ratio while improving retention",
			ActionItems: []string{
				"Deploy cohort-based LTV analysis",
				"Track blended vs. paid CAC separately",
				"Monitor payback period monthly",
				"Alert if LTV/CAC drops below 4x",
			},
		},
		{
			Title:          "Sensitivity Analysis Framework",
			Description:    "Model financial impact under 5%, 8%, and 12% retention improvement scenarios",
			ExpectedImpact: "Better decision-making under uncertainty",
			ActionItems: []string{
				"Build three-scenario model with break-even points",
				"Identify key cost drivers and mitigations",
				"Create monthly variance reporting",
			},
		},
	}

	confidence := worker.AssessConfidence(0.90, 2, true)

	trail.LogDecision(audit.LogRequest{
		Worker:          f.Name(),
		WorkerVersion:   version,
		Kind:            audit.KindAllocation,
		DirectiveID:     task.DirectiveID,
		Decision:        fmt.Sprintf("Allocate $%.0f of remaining department budgets to the retention program", totalAllocated),
		Rationale:       "Allocation shares follow each department's role in retention delivery; the contingency reserve covers forecast variance.",
		ConfidenceScore: confidence,
		Citations:       citations,
		DataSources:     []string{"erp"},
		Assumptions: []string{
			"Departments can absorb reallocation without service impact",
			"Retained-customer LTV holds at current levels",
		},
	})

	return worker.Output{
		Worker:          f.Name(),
		TaskID:          task.ID,
		TaskKind:        task.Kind,
		Summary:         fmt.Sprintf("$%.0f retention budget allocation with contingency reserve", totalAllocated),
		Recommendations: recommendations,
		Confidence:      confidence,
		Citations:       citations,
		WhatWouldChangeMind: []string{
			"Q1 actuals differ significantly from forecast",
			"Unit economics deteriorate below 4x LTV/CAC",
			"Market conditions change cost structure",
			"Regulatory changes affect pricing or operations",
		},
		BudgetImpact:    totalAllocated,
		HeadcountImpact: 0,
		TimelineDays:    30,
		Risks: []string{
			"Budget overruns if retention targets not met quickly",
			"Opportunity cost of diverting budget from acquisition",
			"Fixed cost increases may pressure margins",
		},
		Dependencies: []string{
			"Q1 close accuracy",
			"Board approval for budget reallocation",
			"Finance system reporting capabilities",
		},
		AffectedDepartments: []string{"marketing", "sales", "support", "operations"},
		Stance: &worker.Stance{
			Lever:     "cac",
			Direction: "decrease",
			Position:  "reduce acquisition cost to protect unit economics while retention spend ramps",
		},
	}
}
