// Package worker defines the contract between the orchestrator and the
// functional workers it coordinates.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/directord/internal/audit"
	"github.com/fyrsmithlabs/directord/internal/enterprise"
	"github.com/fyrsmithlabs/directord/internal/state"
)

// TaskKind is the closed set of task variants a worker can receive. Callers
// switch exhaustively on it; unknown kinds are an error, not a silent no-op.
type TaskKind string

const (
	TaskRetentionStrategy   TaskKind = "retention_strategy"
	TaskRetentionCampaign   TaskKind = "retention_campaign"
	TaskBudgetPlanning      TaskKind = "budget_planning"
	TaskProcessOptimization TaskKind = "process_optimization"
	TaskChurnAnalysis       TaskKind = "churn_analysis"
	TaskHiringPlan          TaskKind = "hiring_plan"
	TaskGeneral             TaskKind = "general"
)

// Task is one unit of work dispatched to a worker.
type Task struct {
	ID          string
	Kind        TaskKind
	DirectiveID string
	Description string
	Objective   string
	Metric      string
	Target      float64
	Constraints []string
	Priority    state.Priority
}

// Recommendation is one concrete proposal in a worker's output.
type Recommendation struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	ExpectedImpact string   `json:"expected_impact"`
	ActionItems    []string `json:"action_items,omitempty"`
}

// BudgetRequest asks for spend against a department budget.
type BudgetRequest struct {
	Department string         `json:"department"`
	Amount     float64        `json:"amount"`
	Purpose    string         `json:"purpose"`
	Priority   state.Priority `json:"priority"`
}

// ResourceRequest asks for a shared scarce resource.
type ResourceRequest struct {
	Resource string         `json:"resource"`
	Amount   float64        `json:"amount"`
	Priority state.Priority `json:"priority"`
}

// Deliverable is a named artifact a worker commits to produce.
type Deliverable struct {
	Name string `json:"name"`
	Day  int    `json:"day"`
}

// TimelinePlan declares a worker's schedule, what it needs from others, and
// what it will produce.
type TimelinePlan struct {
	CompletionDays int           `json:"completion_days"`
	Dependencies   []string      `json:"dependencies,omitempty"`
	Deliverables   []Deliverable `json:"deliverables,omitempty"`
}

// Stance is a worker's position on a strategic lever. Two stances on the same
// lever pulling in opposite directions are a strategic conflict.
type Stance struct {
	Lever     string `json:"lever"`
	Direction string `json:"direction"`
	Position  string `json:"position"`
}

// Output is the standardized result of one task.
type Output struct {
	Worker          string           `json:"worker"`
	TaskID          string           `json:"task_id"`
	TaskKind        TaskKind         `json:"task_kind"`
	Summary         string           `json:"summary"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	Confidence      float64          `json:"confidence"`

	Citations           []audit.Citation `json:"citations,omitempty"`
	Assumptions         []string         `json:"assumptions,omitempty"`
	WhatWouldChangeMind []string         `json:"what_would_change_mind,omitempty"`

	BudgetImpact    float64 `json:"budget_impact"`
	HeadcountImpact int     `json:"headcount_impact"`
	TimelineDays    int     `json:"timeline_days"`

	Risks        []string `json:"risks,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`

	RequiresPolicyChange bool     `json:"requires_policy_change,omitempty"`
	AffectedDepartments  []string `json:"affected_departments,omitempty"`

	BudgetRequest    *BudgetRequest    `json:"budget_request,omitempty"`
	ResourceRequests []ResourceRequest `json:"resource_requests,omitempty"`
	TimelinePlan     *TimelinePlan     `json:"timeline_plan,omitempty"`
	Stance           *Stance           `json:"stance,omitempty"`

	Degraded bool `json:"degraded,omitempty"`
}

// StoreHandle is the slice of the state store a worker may touch.
type StoreHandle interface {
	Store(kind state.EntryKind, source string, payload state.Payload, opts state.StoreOptions) string
	Query(f state.Filter) []state.Entry
	GetGoal(id string) (state.Goal, error)
	ConstraintsByCategory(c state.Category) []state.Constraint
}

// DataHandle is the enterprise data surface workers cite from.
type DataHandle interface {
	BudgetStatus() []enterprise.DepartmentBudget
	CustomerSummary() enterprise.CustomerSummary
	CustomersByChurnRisk(threshold float64) []enterprise.Customer
	HighValueCustomers(minPremium float64) []enterprise.Customer
	TicketSummary() enterprise.TicketSummary
	PipelineValue() float64
	Campaigns() []enterprise.Campaign
	CampaignROI(id string) float64
	HeadcountByDepartment() map[string]int
	CurrentQuarterMetrics() enterprise.QuarterMetrics
	RetentionRate() float64
	CAC() float64
}

// AuditHandle is the slice of the audit trail a worker may touch.
type AuditHandle interface {
	LogDecision(req audit.LogRequest) *audit.Record
}

// Worker produces recommendations for tasks in its functional domain.
type Worker interface {
	Name() string
	Version() string
	Process(ctx context.Context, task Task, store StoreHandle, data DataHandle, trail AuditHandle) (Output, error)
}

// degradedConfidence is the floor score assigned when a worker fails and a
// placeholder output stands in for its contribution.
const degradedConfidence = 0.1

// Degraded builds the placeholder output for a failed worker so the rest of
// the directive can still complete.
func Degraded(name string, task Task, err error) Output {
	return Output{
		Worker:     name,
		TaskID:     task.ID,
		TaskKind:   task.Kind,
		Summary:    fmt.Sprintf("%s did not complete task %s", name, task.ID),
		Confidence: degradedConfidence,
		Risks:      []string{fmt.Sprintf("%s unavailable: %v", name, err)},
		Degraded:   true,
	}
}

// AssessConfidence scores a recommendation from data quality, the number of
// assumptions made, and whether a historical precedent exists. Each
// assumption costs 0.05 up to a cap of 0.3; precedent adds 0.1. The result
// is clamped to [0, 1].
func AssessConfidence(dataQuality float64, assumptions int, precedent bool) float64 {
	score := dataQuality

	penalty := float64(assumptions) * 0.05
	if penalty > 0.3 {
		penalty = 0.3
	}
	score -= penalty

	if precedent {
		score += 0.1
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Citation builds an audit citation for a data source query.
func Citation(sourceType, sourceID, description string, value any) audit.Citation {
	return audit.Citation{
		SourceType:  sourceType,
		SourceID:    sourceID,
		Description: description,
		Value:       value,
		Timestamp:   time.Now(),
	}
}
