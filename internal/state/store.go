// Package state provides the shared store of goals, constraints, and
// timestamped context entries visible to every component.
package state

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/directord/internal/state"

// ErrNotFound is returned when an entry, goal, or constraint id is unknown.
var ErrNotFound = fmt.Errorf("state: not found")

// Observer receives every entry as it is stored. Observers run synchronously
// under the store lock; a panicking observer is captured and logged, never
// propagated. This is explicit policy, not an accident.
type Observer func(Entry)

// Store is the exclusive owner of all entries. Components hold ids, never
// direct references. All mutation and compound reads run under one lock;
// correctness over throughput.
type Store struct {
	mu          sync.Mutex
	entries     map[string]Entry
	order       []string
	goals       map[string]*Goal
	constraints map[string]*Constraint
	observers   []Observer
	counter     int

	logger       *zap.Logger
	storeCounter metric.Int64Counter
	alertCounter metric.Int64Counter
}

// NewStore creates an empty store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		entries:     make(map[string]Entry),
		goals:       make(map[string]*Goal),
		constraints: make(map[string]*Constraint),
		logger:      logger,
	}

	meter := otel.Meter(instrumentationName)
	var err error
	s.storeCounter, err = meter.Int64Counter(
		"directord.state.entries_total",
		metric.WithDescription("Total entries stored"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		logger.Warn("failed to create entry counter", zap.Error(err))
	}
	s.alertCounter, err = meter.Int64Counter(
		"directord.state.alerts_total",
		metric.WithDescription("Total alert entries raised"),
		metric.WithUnit("{alert}"),
	)
	if err != nil {
		logger.Warn("failed to create alert counter", zap.Error(err))
	}

	return s
}

// nextID generates a monotonically increasing entry id. Caller must hold mu.
func (s *Store) nextID() string {
	s.counter++
	return fmt.Sprintf("MEM-%s-%06d", time.Now().Format("20060102"), s.counter)
}

// StoreOptions carries the optional attributes of a new entry.
type StoreOptions struct {
	Priority   Priority
	Tags       []string
	References []string
	ExpiresIn  time.Duration
}

// Store inserts a new entry and returns its id. Id generation and insertion
// are atomic; registered observers are notified before return.
func (s *Store) Store(kind EntryKind, source string, payload Payload, opts StoreOptions) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeLocked(kind, source, payload, opts)
}

// storeLocked inserts an entry. Caller must hold mu.
func (s *Store) storeLocked(kind EntryKind, source string, payload Payload, opts StoreOptions) string {
	if opts.Priority == "" {
		opts.Priority = PriorityMedium
	}

	entry := Entry{
		ID:         s.nextID(),
		Kind:       kind,
		Source:     source,
		Payload:    payload,
		Timestamp:  time.Now(),
		Priority:   opts.Priority,
		Tags:       opts.Tags,
		References: opts.References,
	}
	if opts.ExpiresIn > 0 {
		entry.ExpiresAt = entry.Timestamp.Add(opts.ExpiresIn)
	}

	s.entries[entry.ID] = entry
	s.order = append(s.order, entry.ID)

	if s.storeCounter != nil {
		s.storeCounter.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("kind", string(kind))))
	}

	s.notifyLocked(entry)
	return entry.ID
}

// notifyLocked invokes all observers for an entry, capturing panics so a
// failing observer can never abort the store operation.
func (s *Store) notifyLocked(entry Entry) {
	for _, obs := range s.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Warn("store observer panicked",
						zap.String("entry_id", entry.ID),
						zap.Any("panic", r))
				}
			}()
			obs(entry)
		}()
	}
}

// Subscribe registers an observer for new entries.
func (s *Store) Subscribe(obs Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, obs)
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	return entry, nil
}

// Supersede stores a replacement entry referencing the old one. The original
// entry is left untouched; there is no in-place content mutation.
func (s *Store) Supersede(oldID string, payload Payload, opts StoreOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.entries[oldID]
	if !ok {
		return "", fmt.Errorf("entry %s: %w", oldID, ErrNotFound)
	}
	opts.References = append(opts.References, oldID)
	return s.storeLocked(old.Kind, old.Source, payload, opts), nil
}

// Query returns entries matching the filter, newest first. Expired entries
// are excluded but not purged; SweepExpired removes them.
func (s *Store) Query(f Filter) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var results []Entry
	for _, id := range s.order {
		entry := s.entries[id]
		if entry.Expired(now) {
			continue
		}
		if f.Kind != "" && entry.Kind != f.Kind {
			continue
		}
		if f.Source != "" && entry.Source != f.Source {
			continue
		}
		if len(f.Tags) > 0 && !hasAllTags(entry.Tags, f.Tags) {
			continue
		}
		if f.MinPriority != "" && !entry.Priority.AtLeast(f.MinPriority) {
			continue
		}
		if !f.Since.IsZero() && entry.Timestamp.Before(f.Since) {
			continue
		}
		results = append(results, entry)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})
	return results
}

func hasAllTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// AddGoal registers a goal and records a goal entry.
func (s *Store) AddGoal(goal Goal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := goal
	s.goals[goal.ID] = &g

	s.storeLocked(KindGoal, "system", GoalPayload{
		GoalID:      goal.ID,
		Description: goal.Description,
		Target:      goal.TargetValue,
		Current:     goal.CurrentValue,
		Unit:        goal.Unit,
		Status:      goal.Status,
		Deadline:    goal.Deadline,
	}, StoreOptions{
		Priority: PriorityHigh,
		Tags:     []string{"goal", string(goal.Status)},
	})
}

// GetGoal returns a copy of the goal with the given id.
func (s *Store) GetGoal(id string) (Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[id]
	if !ok {
		return Goal{}, fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	return *g, nil
}

// ActiveGoals returns all goals with active status, ordered by id.
func (s *Store) ActiveGoals() []Goal {
	s.mu.Lock()
	defer s.mu.Unlock()

	var goals []Goal
	for _, g := range s.goals {
		if g.Status == GoalActive {
			goals = append(goals, *g)
		}
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].ID < goals[j].ID })
	return goals
}

// UpdateGoalProgress sets the goal's current value.
func (s *Store) UpdateGoalProgress(id string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[id]
	if !ok {
		return fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	g.CurrentValue = value
	return nil
}

// AddConstraint registers a constraint and records a constraint entry.
func (s *Store) AddConstraint(c Constraint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cc := c
	s.constraints[c.ID] = &cc

	priority := PriorityMedium
	if c.HardLimit {
		priority = PriorityHigh
	}

	s.storeLocked(KindConstraint, "system", ConstraintPayload{
		ConstraintID: c.ID,
		Category:     c.Category,
		Description:  c.Description,
		Limit:        c.LimitValue,
		Current:      c.CurrentUsage,
		Unit:         c.Unit,
		HardLimit:    c.HardLimit,
	}, StoreOptions{
		Priority: priority,
		Tags:     []string{"constraint", string(c.Category)},
	})
}

// GetConstraint returns a copy of the constraint with the given id.
func (s *Store) GetConstraint(id string) (Constraint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.constraints[id]
	if !ok {
		return Constraint{}, fmt.Errorf("constraint %s: %w", id, ErrNotFound)
	}
	return *c, nil
}

// ConstraintsByCategory returns all constraints in a category, ordered by id.
func (s *Store) ConstraintsByCategory(cat Category) []Constraint {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Constraint
	for _, c := range s.constraints {
		if c.Category == cat {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateConstraintUsage commits a new usage value. A hard-limit constraint
// rejects any usage above its limit: the update is a no-op, exactly one
// critical alert entry is raised, and false is returned.
func (s *Store) UpdateConstraintUsage(id string, newUsage float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.constraints[id]
	if !ok {
		return false, fmt.Errorf("constraint %s: %w", id, ErrNotFound)
	}

	if c.HardLimit && newUsage > c.LimitValue {
		s.storeLocked(KindAlert, "system", AlertPayload{
			AlertType:    "constraint_violation",
			ConstraintID: id,
			Limit:        c.LimitValue,
			Attempted:    newUsage,
		}, StoreOptions{
			Priority: PriorityCritical,
			Tags:     []string{"alert", "constraint_violation"},
		})
		if s.alertCounter != nil {
			s.alertCounter.Add(context.Background(), 1,
				metric.WithAttributes(attribute.String("constraint_id", id)))
		}
		s.logger.Warn("hard limit violation rejected",
			zap.String("constraint_id", id),
			zap.Float64("limit", c.LimitValue),
			zap.Float64("attempted", newUsage))
		return false, nil
	}

	c.CurrentUsage = newUsage
	return true, nil
}

// SweepExpired removes expired entries and returns the count removed.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	kept := s.order[:0]
	for _, id := range s.order {
		if s.entries[id].Expired(now) {
			delete(s.entries, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}

// Snapshot exports the current store state: all goals and constraints plus
// the 20 most recent unexpired entries.
func (s *Store) Snapshot() Snapshot {
	goals := s.allGoals()
	constraints := s.allConstraints()

	recent := s.Query(Filter{})
	if len(recent) > 20 {
		recent = recent[:20]
	}

	s.mu.Lock()
	count := len(s.entries)
	s.mu.Unlock()

	return Snapshot{
		Timestamp:   time.Now(),
		EntryCount:  count,
		Goals:       goals,
		Constraints: constraints,
		Recent:      recent,
	}
}

func (s *Store) allGoals() []Goal {
	s.mu.Lock()
	defer s.mu.Unlock()

	goals := make([]Goal, 0, len(s.goals))
	for _, g := range s.goals {
		goals = append(goals, *g)
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].ID < goals[j].ID })
	return goals
}

func (s *Store) allConstraints() []Constraint {
	s.mu.Lock()
	defer s.mu.Unlock()

	constraints := make([]Constraint, 0, len(s.constraints))
	for _, c := range s.constraints {
		constraints = append(constraints, *c)
	}
	sort.Slice(constraints, func(i, j int) bool { return constraints[i].ID < constraints[j].ID })
	return constraints
}
