package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AssignsMonotonicIDs(t *testing.T) {
	s := NewStore(nil)

	id1 := s.Store(KindContext, "test", ContextPayload{Message: "first"}, StoreOptions{})
	id2 := s.Store(KindContext, "test", ContextPayload{Message: "second"}, StoreOptions{})

	assert.NotEqual(t, id1, id2)
	assert.Less(t, id1, id2)
}

func TestStore_GetUnknownID(t *testing.T) {
	s := NewStore(nil)

	_, err := s.Get("MEM-00000000-000001")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_QueryFilters(t *testing.T) {
	s := NewStore(nil)

	s.Store(KindContext, "sales", ContextPayload{Message: "a"}, StoreOptions{
		Priority: PriorityLow,
		Tags:     []string{"retention"},
	})
	s.Store(KindAlert, "system", AlertPayload{Message: "b"}, StoreOptions{
		Priority: PriorityCritical,
		Tags:     []string{"alert", "retention"},
	})
	s.Store(KindContext, "finance", ContextPayload{Message: "c"}, StoreOptions{
		Priority: PriorityHigh,
	})

	assert.Len(t, s.Query(Filter{Kind: KindContext}), 2)
	assert.Len(t, s.Query(Filter{Source: "sales"}), 1)
	assert.Len(t, s.Query(Filter{Tags: []string{"retention"}}), 2)
	assert.Len(t, s.Query(Filter{Tags: []string{"alert", "retention"}}), 1)
	assert.Len(t, s.Query(Filter{MinPriority: PriorityHigh}), 2)
	assert.Len(t, s.Query(Filter{}), 3)
}

func TestStore_QueryNewestFirst(t *testing.T) {
	s := NewStore(nil)

	s.Store(KindContext, "test", ContextPayload{Message: "old"}, StoreOptions{})
	time.Sleep(5 * time.Millisecond)
	s.Store(KindContext, "test", ContextPayload{Message: "new"}, StoreOptions{})

	results := s.Query(Filter{Kind: KindContext})
	require.Len(t, results, 2)
	assert.Equal(t, "new", results[0].Payload.(ContextPayload).Message)
	assert.Equal(t, "old", results[1].Payload.(ContextPayload).Message)
}

func TestStore_ExpiredEntriesExcludedButNotPurged(t *testing.T) {
	s := NewStore(nil)

	id := s.Store(KindContext, "test", ContextPayload{Message: "ephemeral"}, StoreOptions{
		ExpiresIn: time.Nanosecond,
	})
	time.Sleep(time.Millisecond)

	assert.Empty(t, s.Query(Filter{Kind: KindContext}))

	// Still retrievable by id until the sweep.
	_, err := s.Get(id)
	require.NoError(t, err)

	assert.Equal(t, 1, s.SweepExpired())
	_, err = s.Get(id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Supersede(t *testing.T) {
	s := NewStore(nil)

	oldID := s.Store(KindContext, "test", ContextPayload{Message: "v1"}, StoreOptions{})
	newID, err := s.Supersede(oldID, ContextPayload{Message: "v2"}, StoreOptions{})
	require.NoError(t, err)

	entry, err := s.Get(newID)
	require.NoError(t, err)
	assert.Contains(t, entry.References, oldID)
	assert.Equal(t, KindContext, entry.Kind)

	// Original untouched.
	old, err := s.Get(oldID)
	require.NoError(t, err)
	assert.Equal(t, "v1", old.Payload.(ContextPayload).Message)
}

func TestStore_ObserverPanicDoesNotAbortStore(t *testing.T) {
	s := NewStore(nil)

	var seen []string
	s.Subscribe(func(Entry) { panic("observer exploded") })
	s.Subscribe(func(e Entry) { seen = append(seen, e.ID) })

	id := s.Store(KindContext, "test", ContextPayload{Message: "ok"}, StoreOptions{})

	_, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, seen, "later observers still run")
}

func TestStore_Goals(t *testing.T) {
	s := NewStore(nil)

	goal := Goal{
		ID:           "GOAL-001",
		Description:  "Improve customer retention rate",
		TargetValue:  0.92,
		CurrentValue: 0.84,
		Unit:         "percentage",
		Deadline:     time.Now().Add(90 * 24 * time.Hour),
		Owner:        "ceo",
		Status:       GoalActive,
	}
	s.AddGoal(goal)

	got, err := s.GetGoal("GOAL-001")
	require.NoError(t, err)
	assert.Equal(t, 0.84, got.CurrentValue)

	require.NoError(t, s.UpdateGoalProgress("GOAL-001", 0.87))
	got, err = s.GetGoal("GOAL-001")
	require.NoError(t, err)
	assert.Equal(t, 0.87, got.CurrentValue)

	active := s.ActiveGoals()
	require.Len(t, active, 1)

	// AddGoal records a goal entry as a side effect.
	assert.Len(t, s.Query(Filter{Kind: KindGoal}), 1)
}

func TestStore_HardLimitRejectedWithSingleAlert(t *testing.T) {
	s := NewStore(nil)

	s.AddConstraint(Constraint{
		ID:           "BUDGET-marketing",
		Category:     CategoryBudget,
		Description:  "Marketing department budget",
		LimitValue:   8_000_000,
		CurrentUsage: 4_000_000,
		Unit:         "USD",
		HardLimit:    true,
		Owner:        "cfo",
	})

	ok, err := s.UpdateConstraintUsage("BUDGET-marketing", 8_000_001)
	require.NoError(t, err)
	assert.False(t, ok)

	// Usage unchanged, exactly one alert raised.
	c, err := s.GetConstraint("BUDGET-marketing")
	require.NoError(t, err)
	assert.Equal(t, 4_000_000.0, c.CurrentUsage)

	alerts := s.Query(Filter{Kind: KindAlert})
	require.Len(t, alerts, 1)
	payload := alerts[0].Payload.(AlertPayload)
	assert.Equal(t, "constraint_violation", payload.AlertType)
	assert.Equal(t, 8_000_001.0, payload.Attempted)
	assert.Equal(t, PriorityCritical, alerts[0].Priority)
}

func TestStore_SoftLimitExceedable(t *testing.T) {
	s := NewStore(nil)

	s.AddConstraint(Constraint{
		ID:           "BUDGET-sales",
		Category:     CategoryBudget,
		LimitValue:   5_000_000,
		CurrentUsage: 2_500_000,
		HardLimit:    false,
	})

	ok, err := s.UpdateConstraintUsage("BUDGET-sales", 5_100_000)
	require.NoError(t, err)
	assert.True(t, ok)

	c, err := s.GetConstraint("BUDGET-sales")
	require.NoError(t, err)
	assert.Equal(t, 5_100_000.0, c.CurrentUsage)
	assert.Empty(t, s.Query(Filter{Kind: KindAlert}))
}

func TestStore_HardLimitAtExactLimitAllowed(t *testing.T) {
	s := NewStore(nil)

	s.AddConstraint(Constraint{
		ID:         "HC-support",
		Category:   CategoryHeadcount,
		LimitValue: 50,
		HardLimit:  true,
	})

	ok, err := s.UpdateConstraintUsage("HC-support", 50)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_ConstraintsByCategory(t *testing.T) {
	s := NewStore(nil)

	s.AddConstraint(Constraint{ID: "BUDGET-b", Category: CategoryBudget})
	s.AddConstraint(Constraint{ID: "BUDGET-a", Category: CategoryBudget})
	s.AddConstraint(Constraint{ID: "REG-1", Category: CategoryRegulatory})

	budgets := s.ConstraintsByCategory(CategoryBudget)
	require.Len(t, budgets, 2)
	assert.Equal(t, "BUDGET-a", budgets[0].ID, "sorted by id")
}

func TestStore_Snapshot(t *testing.T) {
	s := NewStore(nil)

	s.AddGoal(Goal{ID: "GOAL-001", Status: GoalActive})
	s.AddConstraint(Constraint{ID: "BUDGET-a", Category: CategoryBudget})
	s.Store(KindContext, "test", ContextPayload{Message: "x"}, StoreOptions{})

	snap := s.Snapshot()
	assert.Equal(t, 3, snap.EntryCount)
	assert.Len(t, snap.Goals, 1)
	assert.Len(t, snap.Constraints, 1)
	assert.NotEmpty(t, snap.Recent)
}
