package state

import "time"

// EntryKind categorizes entries in the store.
type EntryKind string

const (
	KindGoal         EntryKind = "goal"
	KindConstraint   EntryKind = "constraint"
	KindWorkerOutput EntryKind = "worker_output"
	KindDecision     EntryKind = "decision"
	KindAlert        EntryKind = "alert"
	KindContext      EntryKind = "context"
)

// Priority levels for store entries, ordered low to critical.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var priorityRank = map[Priority]int{
	PriorityLow:      0,
	PriorityMedium:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}

// AtLeast reports whether p is at or above min in priority order.
func (p Priority) AtLeast(min Priority) bool {
	return priorityRank[p] >= priorityRank[min]
}

// Payload is the closed set of typed entry contents. Exactly one variant
// exists per EntryKind; the store never holds untyped maps.
type Payload interface {
	Kind() EntryKind
}

// GoalPayload mirrors a goal at the time it was recorded.
type GoalPayload struct {
	GoalID      string     `json:"goal_id"`
	Description string     `json:"description"`
	Target      float64    `json:"target"`
	Current     float64    `json:"current"`
	Unit        string     `json:"unit"`
	Status      GoalStatus `json:"status"`
	Deadline    time.Time  `json:"deadline"`
}

func (GoalPayload) Kind() EntryKind { return KindGoal }

// ConstraintPayload mirrors a constraint at the time it was recorded.
type ConstraintPayload struct {
	ConstraintID string   `json:"constraint_id"`
	Category     Category `json:"category"`
	Description  string   `json:"description"`
	Limit        float64  `json:"limit"`
	Current      float64  `json:"current"`
	Unit         string   `json:"unit"`
	HardLimit    bool     `json:"hard_limit"`
}

func (ConstraintPayload) Kind() EntryKind { return KindConstraint }

// OutputPayload holds a worker's structured output for one task.
type OutputPayload struct {
	Worker          string   `json:"worker"`
	TaskID          string   `json:"task_id"`
	TaskKind        string   `json:"task_kind"`
	Confidence      float64  `json:"confidence"`
	BudgetImpact    float64  `json:"budget_impact"`
	HeadcountImpact int      `json:"headcount_impact"`
	Summary         string   `json:"summary"`
	Risks           []string `json:"risks,omitempty"`
}

func (OutputPayload) Kind() EntryKind { return KindWorkerOutput }

// DecisionPayload references a finalized decision package or audit record.
type DecisionPayload struct {
	DirectiveID string `json:"directive_id"`
	Summary     string `json:"summary"`
	Detail      any    `json:"detail,omitempty"`
}

func (DecisionPayload) Kind() EntryKind { return KindDecision }

// AlertPayload records a constraint violation or other anomaly.
type AlertPayload struct {
	AlertType    string  `json:"alert_type"`
	ConstraintID string  `json:"constraint_id,omitempty"`
	Limit        float64 `json:"limit,omitempty"`
	Attempted    float64 `json:"attempted,omitempty"`
	Message      string  `json:"message,omitempty"`
}

func (AlertPayload) Kind() EntryKind { return KindAlert }

// ContextPayload carries free-form cross-component context.
type ContextPayload struct {
	Message string `json:"message"`
	Detail  any    `json:"detail,omitempty"`
}

func (ContextPayload) Kind() EntryKind { return KindContext }

// Entry is a single timestamped record in the store. Entries are immutable
// once stored; supersession creates a new entry referencing the old id.
type Entry struct {
	ID         string    `json:"id"`
	Kind       EntryKind `json:"kind"`
	Source     string    `json:"source"`
	Payload    Payload   `json:"payload"`
	Timestamp  time.Time `json:"timestamp"`
	Priority   Priority  `json:"priority"`
	Tags       []string  `json:"tags,omitempty"`
	References []string  `json:"references,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the entry is past its expiry at the given instant.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && e.ExpiresAt.Before(now)
}

// GoalStatus tracks goal lifecycle. Goals are never deleted, only superseded
// by a status transition.
type GoalStatus string

const (
	GoalActive   GoalStatus = "active"
	GoalAtRisk   GoalStatus = "at_risk"
	GoalAchieved GoalStatus = "achieved"
	GoalMissed   GoalStatus = "missed"
)

// KeyResult is an ordered sub-target of a goal.
type KeyResult struct {
	Description string  `json:"description"`
	Target      float64 `json:"target"`
	Current     float64 `json:"current"`
}

// Goal is a structured company goal.
type Goal struct {
	ID                string      `json:"id"`
	Description       string      `json:"description"`
	TargetValue       float64     `json:"target_value"`
	CurrentValue      float64     `json:"current_value"`
	Unit              string      `json:"unit"`
	Deadline          time.Time   `json:"deadline"`
	Owner             string      `json:"owner"`
	Status            GoalStatus  `json:"status"`
	AssociatedWorkers []string    `json:"associated_workers,omitempty"`
	KeyResults        []KeyResult `json:"key_results,omitempty"`
}

// Category classifies constraints.
type Category string

const (
	CategoryBudget     Category = "budget"
	CategoryHeadcount  Category = "headcount"
	CategoryRegulatory Category = "regulatory"
	CategoryTechnical  Category = "technical"
	CategoryTime       Category = "time"
)

// Constraint is a business constraint. A hard limit can never be committed
// above its limit value; soft limits are exceedable with approval.
type Constraint struct {
	ID           string   `json:"id"`
	Category     Category `json:"category"`
	Description  string   `json:"description"`
	LimitValue   float64  `json:"limit_value"`
	CurrentUsage float64  `json:"current_usage"`
	Unit         string   `json:"unit"`
	HardLimit    bool     `json:"hard_limit"`
	Owner        string   `json:"owner"`
}

// Available returns the headroom left under the constraint's limit.
func (c Constraint) Available() float64 {
	return c.LimitValue - c.CurrentUsage
}

// Filter selects entries in Query. Zero values mean "no filter".
type Filter struct {
	Kind        EntryKind
	Source      string
	Tags        []string
	MinPriority Priority
	Since       time.Time
}

// Snapshot is an exported view of store state.
type Snapshot struct {
	Timestamp   time.Time    `json:"timestamp"`
	EntryCount  int          `json:"entry_count"`
	Goals       []Goal       `json:"goals"`
	Constraints []Constraint `json:"constraints"`
	Recent      []Entry      `json:"recent_entries"`
}
