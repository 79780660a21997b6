package orchestrator

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/directord/internal/audit"
	"github.com/fyrsmithlabs/directord/internal/conflict"
	"github.com/fyrsmithlabs/directord/internal/governance"
	"github.com/fyrsmithlabs/directord/internal/intent"
)

// Stage is a directive's position in the processing pipeline. Stages only
// move forward; a directive can never return to an earlier stage.
type Stage string

const (
	StageReceived          Stage = "received"
	StageIntentParsed      Stage = "intent_parsed"
	StageTasksDispatched   Stage = "tasks_dispatched"
	StageOutputsCollected  Stage = "outputs_collected"
	StageConflictsResolved Stage = "conflicts_resolved"
	StageGovernanceChecked Stage = "governance_checked"
	StageFinalized         Stage = "finalized"
)

var stageRank = map[Stage]int{
	StageReceived:          0,
	StageIntentParsed:      1,
	StageTasksDispatched:   2,
	StageOutputsCollected:  3,
	StageConflictsResolved: 4,
	StageGovernanceChecked: 5,
	StageFinalized:         6,
}

// Directive is one business directive moving through the pipeline.
type Directive struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	Intent    intent.Intent `json:"intent"`
	Stage     Stage         `json:"stage"`
	CreatedAt time.Time     `json:"created_at"`
}

// advance moves the directive to the next stage. Any transition that is not
// exactly one stage forward is an error.
func (d *Directive) advance(next Stage) error {
	if stageRank[next] != stageRank[d.Stage]+1 {
		return fmt.Errorf("orchestrator: directive %s cannot move from %s to %s", d.ID, d.Stage, next)
	}
	d.Stage = next
	return nil
}

// DepartmentPlan is one worker's contribution to the decision package.
type DepartmentPlan struct {
	Worker            string  `json:"worker"`
	Summary           string  `json:"summary"`
	TopRecommendation string  `json:"top_recommendation,omitempty"`
	Confidence        float64 `json:"confidence"`
	BudgetImpact      float64 `json:"budget_impact"`
	HeadcountImpact   int     `json:"headcount_impact"`
	TimelineDays      int     `json:"timeline_days"`
	Degraded          bool    `json:"degraded,omitempty"`
}

// StrategicOption is one way to execute the directive, scaled from the full
// program down to a minimum version.
type StrategicOption struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Budget       float64 `json:"budget"`
	Headcount    int     `json:"headcount"`
	TimelineDays int     `json:"timeline_days"`
	RiskLevel    string  `json:"risk_level"`
}

// KPI is one measurable outcome the decision package commits to, with how
// and how often it is tracked.
type KPI struct {
	Name        string `json:"name"`
	Current     string `json:"current"`
	Target      string `json:"target"`
	Measurement string `json:"measurement"`
}

// Escalation is one output flagged for executive review.
type Escalation struct {
	Worker    string `json:"worker"`
	Reason    string `json:"reason"`
	RequestID string `json:"request_id,omitempty"`
}

// DecisionPackage is the finalized result of one directive: consolidated
// plans, rollups, strategic options, and the governance and audit record.
type DecisionPackage struct {
	DirectiveID string        `json:"directive_id"`
	Intent      intent.Intent `json:"intent"`
	GeneratedAt time.Time     `json:"generated_at"`

	Plans []DepartmentPlan `json:"plans"`

	TotalBudget           float64            `json:"total_budget"`
	TotalHeadcount        int                `json:"total_headcount"`
	TimelineDays          int                `json:"timeline_days"`
	BudgetByDepartment    map[string]float64 `json:"budget_by_department"`
	HeadcountByDepartment map[string]int     `json:"headcount_by_department"`

	Options     []StrategicOption `json:"options"`
	Recommended string            `json:"recommended"`

	Risks        []string `json:"risks,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Assumptions  []string `json:"assumptions,omitempty"`
	KPIs         []KPI    `json:"kpis,omitempty"`

	Conflicts   []conflict.Conflict `json:"conflicts,omitempty"`
	Resolutions conflict.Summary    `json:"resolutions"`
	Alignment   conflict.Report     `json:"alignment"`

	Escalations []Escalation       `json:"escalations,omitempty"`
	Approvals   governance.Summary `json:"approvals"`
	Audit       audit.Report       `json:"audit"`
}
