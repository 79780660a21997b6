package conflict

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/directord/internal/state"
	"github.com/fyrsmithlabs/directord/internal/worker"
)

func marketingBudget(limit, usage float64) Inputs {
	return Inputs{DepartmentBudgets: map[string]state.Constraint{
		"marketing": {
			ID:           "BUDGET-marketing",
			Category:     state.CategoryBudget,
			LimitValue:   limit,
			CurrentUsage: usage,
			HardLimit:    true,
		},
	}}
}

func TestEngine_DetectBudgetOverallocation(t *testing.T) {
	e := NewEngine(nil, nil)

	outputs := []worker.Output{
		{Worker: "marketing", BudgetRequest: &worker.BudgetRequest{
			Department: "marketing", Amount: 3_000_000, Purpose: "retention campaigns", Priority: state.PriorityHigh,
		}},
		{Worker: "sales", BudgetRequest: &worker.BudgetRequest{
			Department: "marketing", Amount: 2_000_000, Purpose: "co-marketing events", Priority: state.PriorityMedium,
		}},
	}

	// 8M limit at 50% usage leaves 4M available against 5M requested.
	conflicts := e.Detect(context.Background(), outputs, marketingBudget(8_000_000, 4_000_000))
	require.Len(t, conflicts, 1)

	c := conflicts[0]
	assert.Equal(t, KindBudgetOverallocation, c.Kind)
	assert.Equal(t, SeverityHigh, c.Severity)
	assert.Equal(t, []string{"marketing", "sales"}, c.Workers)

	ev := c.Evidence.(BudgetEvidence)
	require.Len(t, ev.Overruns, 1)
	assert.Equal(t, 5_000_000.0, ev.Overruns[0].Requested)
	assert.Equal(t, 4_000_000.0, ev.Overruns[0].Available)
	assert.Equal(t, 1_000_000.0, ev.Overruns[0].Shortfall)
}

func TestEngine_DetectBudgetWithinAvailable(t *testing.T) {
	e := NewEngine(nil, nil)

	outputs := []worker.Output{
		{Worker: "marketing", BudgetRequest: &worker.BudgetRequest{
			Department: "marketing", Amount: 850_000, Priority: state.PriorityHigh,
		}},
	}

	conflicts := e.Detect(context.Background(), outputs, marketingBudget(8_000_000, 4_000_000))
	assert.Empty(t, conflicts)
}

func TestEngine_DetectTimelineUnmetDependency(t *testing.T) {
	e := NewEngine(nil, nil)

	outputs := []worker.Output{
		{Worker: "marketing", TimelinePlan: &worker.TimelinePlan{
			CompletionDays: 45,
			Dependencies:   []string{"churn_model"},
		}},
		{Worker: "operations", TimelinePlan: &worker.TimelinePlan{
			CompletionDays: 120,
			Deliverables:   []worker.Deliverable{{Name: "workflow_audit", Day: 30}},
		}},
	}

	conflicts := e.Detect(context.Background(), outputs, Inputs{})
	require.Len(t, conflicts, 1)

	c := conflicts[0]
	assert.Equal(t, KindTimelineConflict, c.Kind)
	assert.Equal(t, SeverityMedium, c.Severity)

	ev := c.Evidence.(TimelineEvidence)
	require.Len(t, ev.Unmet, 1)
	assert.Equal(t, "churn_model", ev.Unmet[0].DependsOn)
	assert.Equal(t, "marketing", ev.Unmet[0].Worker)
}

func TestEngine_DetectTimelineSatisfiedDependency(t *testing.T) {
	e := NewEngine(nil, nil)

	outputs := []worker.Output{
		{Worker: "marketing", TimelinePlan: &worker.TimelinePlan{
			Dependencies: []string{"churn_model"},
		}},
		{Worker: "support", TimelinePlan: &worker.TimelinePlan{
			Deliverables: []worker.Deliverable{{Name: "churn_model", Day: 20}},
		}},
	}

	assert.Empty(t, e.Detect(context.Background(), outputs, Inputs{}))
}

func TestEngine_DetectStrategicMisalignment(t *testing.T) {
	e := NewEngine(nil, nil)

	outputs := []worker.Output{
		{Worker: "marketing", Stance: &worker.Stance{
			Lever: "cac", Direction: "increase", Position: "spend more per lead for higher quality",
		}},
		{Worker: "finance", Stance: &worker.Stance{
			Lever: "cac", Direction: "decrease", Position: "reduce acquisition cost to protect unit economics",
		}},
	}

	conflicts := e.Detect(context.Background(), outputs, Inputs{})
	require.Len(t, conflicts, 1)

	c := conflicts[0]
	assert.Equal(t, KindStrategicMisalignment, c.Kind)
	assert.Equal(t, SeverityCritical, c.Severity)
	assert.Equal(t, []string{"finance", "marketing"}, c.Workers)

	ev := c.Evidence.(StrategyEvidence)
	require.Len(t, ev.Contradictions, 1)
	assert.Equal(t, "cac", ev.Contradictions[0].Lever)
	assert.Len(t, ev.Contradictions[0].Positions, 2)
}

func TestEngine_DetectStanceSameDirectionNoConflict(t *testing.T) {
	e := NewEngine(nil, nil)

	outputs := []worker.Output{
		{Worker: "marketing", Stance: &worker.Stance{Lever: "cac", Direction: "decrease"}},
		{Worker: "finance", Stance: &worker.Stance{Lever: "cac", Direction: "decrease"}},
	}

	assert.Empty(t, e.Detect(context.Background(), outputs, Inputs{}))
}

func TestEngine_DetectResourceContention(t *testing.T) {
	e := NewEngine(nil, nil)

	outputs := []worker.Output{
		{Worker: "marketing", ResourceRequests: []worker.ResourceRequest{
			{Resource: "data_engineers", Amount: 2, Priority: state.PriorityHigh},
		}},
		{Worker: "operations", ResourceRequests: []worker.ResourceRequest{
			{Resource: "data_engineers", Amount: 2, Priority: state.PriorityMedium},
		}},
	}

	conflicts := e.Detect(context.Background(), outputs, Inputs{})
	require.Len(t, conflicts, 1)

	c := conflicts[0]
	assert.Equal(t, KindResourceContention, c.Kind)
	ev := c.Evidence.(ResourceEvidence)
	require.Len(t, ev.Contentions, 1)
	assert.Equal(t, 4.0, ev.Contentions[0].TotalRequested)
}

func TestEngine_DetectResourceSingleRequesterNoConflict(t *testing.T) {
	e := NewEngine(nil, nil)

	outputs := []worker.Output{
		{Worker: "marketing", ResourceRequests: []worker.ResourceRequest{
			{Resource: "data_engineers", Amount: 5, Priority: state.PriorityHigh},
		}},
	}

	assert.Empty(t, e.Detect(context.Background(), outputs, Inputs{}))
}

func TestEngine_DetectDeterministic(t *testing.T) {
	e := NewEngine(nil, nil)

	outputs := []worker.Output{
		{Worker: "marketing",
			BudgetRequest: &worker.BudgetRequest{Department: "marketing", Amount: 5_000_000, Priority: state.PriorityHigh},
			Stance:        &worker.Stance{Lever: "cac", Direction: "increase"}},
		{Worker: "finance",
			Stance: &worker.Stance{Lever: "cac", Direction: "decrease"}},
	}
	in := marketingBudget(8_000_000, 4_000_000)

	first := e.Detect(context.Background(), outputs, in)
	second := e.Detect(context.Background(), outputs, in)
	assert.Equal(t, first, second)

	require.Len(t, first, 2)
	assert.Equal(t, "CONF-001", first[0].ID)
	assert.Equal(t, KindBudgetOverallocation, first[0].Kind)
	assert.Equal(t, "CONF-002", first[1].ID)
	assert.Equal(t, KindStrategicMisalignment, first[1].Kind)
}

func TestEngine_ResolveBudgetByPriority(t *testing.T) {
	e := NewEngine(nil, nil)

	conflicts := []Conflict{{
		ID:       "CONF-001",
		Kind:     KindBudgetOverallocation,
		Severity: SeverityHigh,
		Evidence: BudgetEvidence{Overruns: []BudgetOverrun{{
			Department: "marketing",
			Requested:  5_000_000,
			Available:  4_000_000,
			Shortfall:  1_000_000,
			Requests: []BudgetClaim{
				{Worker: "sales", Amount: 2_000_000, Priority: state.PriorityMedium},
				{Worker: "marketing", Amount: 3_000_000, Priority: state.PriorityCritical},
			},
		}}},
	}}

	unresolved, summary := e.Resolve(context.Background(), conflicts)

	require.Len(t, unresolved, 1, "shortfall leaves the conflict unresolved")
	require.Len(t, summary.Resolutions, 1)

	res := summary.Resolutions[0]
	assert.False(t, res.Resolved)
	assert.True(t, res.RequiresEscalation)
	require.Len(t, res.Allocations, 2)

	// Critical request funded first, medium takes the remainder.
	assert.Equal(t, "marketing", res.Allocations[0].Worker)
	assert.Equal(t, 3_000_000.0, res.Allocations[0].Granted)
	assert.Equal(t, "fully_funded", res.Allocations[0].Status)
	assert.Equal(t, "sales", res.Allocations[1].Worker)
	assert.Equal(t, 1_000_000.0, res.Allocations[1].Granted)
	assert.Equal(t, "partially_funded", res.Allocations[1].Status)
}

func TestEngine_ResolveStrategicNeverAutoResolved(t *testing.T) {
	e := NewEngine(nil, nil)

	conflicts := []Conflict{{
		ID:       "CONF-001",
		Kind:     KindStrategicMisalignment,
		Severity: SeverityCritical,
		Evidence: StrategyEvidence{Contradictions: []Contradiction{{
			Lever: "cac",
			Positions: []Position{
				{Worker: "marketing", Direction: "increase"},
				{Worker: "finance", Direction: "decrease"},
			},
		}}},
	}}

	unresolved, summary := e.Resolve(context.Background(), conflicts)

	require.Len(t, unresolved, 1)
	assert.True(t, summary.Resolutions[0].RequiresEscalation)
	assert.Len(t, summary.Resolutions[0].Options, 2)
	require.NotNil(t, unresolved[0].Resolution)
	assert.False(t, unresolved[0].Resolution.Resolved)
}

func TestEngine_ResolveTimelineAndResource(t *testing.T) {
	e := NewEngine(nil, nil)

	conflicts := []Conflict{
		{ID: "CONF-001", Kind: KindTimelineConflict, Evidence: TimelineEvidence{}},
		{ID: "CONF-002", Kind: KindResourceContention, Evidence: ResourceEvidence{}},
	}

	unresolved, summary := e.Resolve(context.Background(), conflicts)

	assert.Empty(t, unresolved)
	assert.Equal(t, 0, summary.Unresolved)
	assert.Equal(t, "critical_path_adjustment", summary.Resolutions[0].Strategy)
	assert.Equal(t, "time_phasing", summary.Resolutions[1].Strategy)
}

func TestAlignmentReport(t *testing.T) {
	assert.Equal(t, StatusAligned, AlignmentReport(nil).Status)

	resolved := &Resolution{Resolved: true}
	minor := AlignmentReport([]Conflict{
		{ID: "CONF-001", Severity: SeverityMedium, Resolution: resolved},
	})
	assert.Equal(t, StatusMinorConflicts, minor.Status)
	assert.Empty(t, minor.Unresolved)

	needs := AlignmentReport([]Conflict{
		{ID: "CONF-001", Severity: SeverityCritical},
		{ID: "CONF-002", Severity: SeverityHigh, Resolution: resolved},
	})
	assert.Equal(t, StatusNeedsResolution, needs.Status)
	assert.Equal(t, []string{"CONF-001"}, needs.Unresolved)
	assert.Equal(t, 1, needs.BySeverity[SeverityCritical])
	assert.Equal(t, 1, needs.BySeverity[SeverityHigh])
}
