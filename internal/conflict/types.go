package conflict

import "github.com/fyrsmithlabs/directord/internal/state"

// Kind is the closed set of cross-worker conflict categories.
type Kind string

const (
	KindBudgetOverallocation  Kind = "budget_overallocation"
	KindResourceContention    Kind = "resource_contention"
	KindStrategicMisalignment Kind = "strategic_misalignment"
	KindTimelineConflict      Kind = "timeline_conflict"
	KindDependencyUnmet       Kind = "dependency_unmet"
	KindPriorityConflict      Kind = "priority_conflict"
)

// Severity grades a conflict's impact.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Evidence is the closed set of typed conflict evidence. Exactly one variant
// exists per detectable kind.
type Evidence interface {
	conflictKind() Kind
}

// BudgetClaim is one worker's spend request against a department budget.
type BudgetClaim struct {
	Worker   string         `json:"worker"`
	Amount   float64        `json:"amount"`
	Purpose  string         `json:"purpose"`
	Priority state.Priority `json:"priority"`
}

// BudgetOverrun is one department whose requests exceed available funds.
type BudgetOverrun struct {
	Department string        `json:"department"`
	Requested  float64       `json:"requested"`
	Available  float64       `json:"available"`
	Shortfall  float64       `json:"shortfall"`
	Requests   []BudgetClaim `json:"requests"`
}

// BudgetEvidence backs a budget overallocation conflict.
type BudgetEvidence struct {
	Overruns []BudgetOverrun `json:"overruns"`
}

func (BudgetEvidence) conflictKind() Kind { return KindBudgetOverallocation }

// UnmetDependency is a declared dependency with no matching deliverable.
type UnmetDependency struct {
	Worker    string `json:"worker"`
	DependsOn string `json:"depends_on"`
	NeededBy  int    `json:"needed_by_day,omitempty"`
}

// TimelineEvidence backs a timeline conflict.
type TimelineEvidence struct {
	Unmet []UnmetDependency `json:"unmet_dependencies"`
}

func (TimelineEvidence) conflictKind() Kind { return KindTimelineConflict }

// Position is one worker's stance in a contradiction.
type Position struct {
	Worker    string `json:"worker"`
	Direction string `json:"direction"`
	Statement string `json:"statement"`
}

// Contradiction is a set of opposing positions on one strategic lever.
type Contradiction struct {
	Lever     string     `json:"lever"`
	Positions []Position `json:"positions"`
}

// StrategyEvidence backs a strategic misalignment conflict.
type StrategyEvidence struct {
	Contradictions []Contradiction `json:"contradictions"`
}

func (StrategyEvidence) conflictKind() Kind { return KindStrategicMisalignment }

// ResourceClaim is one worker's request for a shared resource.
type ResourceClaim struct {
	Worker   string         `json:"worker"`
	Amount   float64        `json:"amount"`
	Priority state.Priority `json:"priority"`
}

// Contention is one resource requested beyond its availability.
type Contention struct {
	Resource       string          `json:"resource"`
	TotalRequested float64         `json:"total_requested"`
	Requests       []ResourceClaim `json:"requests"`
}

// ResourceEvidence backs a resource contention conflict.
type ResourceEvidence struct {
	Contentions []Contention `json:"contentions"`
}

func (ResourceEvidence) conflictKind() Kind { return KindResourceContention }

// Conflict is one detected cross-worker contradiction.
type Conflict struct {
	ID          string      `json:"id"`
	Kind        Kind        `json:"kind"`
	Severity    Severity    `json:"severity"`
	Workers     []string    `json:"workers"`
	Description string      `json:"description"`
	Evidence    Evidence    `json:"evidence"`
	Resolution  *Resolution `json:"resolution,omitempty"`
}

// Allocation is one worker's share of a priority-ordered budget split.
type Allocation struct {
	Department string  `json:"department"`
	Worker     string  `json:"worker"`
	Granted    float64 `json:"granted"`
	Requested  float64 `json:"requested"`
	Status     string  `json:"status"` // fully_funded, partially_funded, unfunded
}

// Resolution records the outcome of a resolution attempt.
type Resolution struct {
	ConflictID         string       `json:"conflict_id"`
	Resolved           bool         `json:"resolved"`
	Description        string       `json:"description"`
	Strategy           string       `json:"strategy,omitempty"`
	Allocations        []Allocation `json:"allocations,omitempty"`
	Options            []Position   `json:"options,omitempty"`
	RequiresEscalation bool         `json:"requires_escalation"`
}

// Summary aggregates a resolution pass.
type Summary struct {
	Resolutions []Resolution `json:"resolutions"`
	Unresolved  int          `json:"unresolved"`
}

// AlignmentStatus is the overall cross-functional verdict.
type AlignmentStatus string

const (
	StatusAligned         AlignmentStatus = "ALIGNED"
	StatusMinorConflicts  AlignmentStatus = "MINOR_CONFLICTS"
	StatusNeedsResolution AlignmentStatus = "NEEDS_RESOLUTION"
)

// Report summarizes alignment across all detected conflicts.
type Report struct {
	Status     AlignmentStatus  `json:"status"`
	Detected   int              `json:"conflicts_detected"`
	BySeverity map[Severity]int `json:"by_severity,omitempty"`
	Unresolved []string         `json:"unresolved,omitempty"`
	Message    string           `json:"message"`
}
