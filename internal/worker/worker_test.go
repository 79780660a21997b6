package worker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssessConfidence(t *testing.T) {
	tests := []struct {
		name        string
		dataQuality float64
		assumptions int
		precedent   bool
		want        float64
	}{
		{"clean data no assumptions", 0.9, 0, false, 0.9},
		{"each assumption costs 0.05", 0.9, 2, false, 0.8},
		{"penalty capped at 0.3", 0.9, 10, false, 0.6},
		{"precedent adds 0.1", 0.8, 0, true, 0.9},
		{"clamped to 1", 0.95, 0, true, 1.0},
		{"clamped to 0", 0.1, 6, false, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssessConfidence(tt.dataQuality, tt.assumptions, tt.precedent)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestDegraded(t *testing.T) {
	task := Task{ID: "TASK-001", Kind: TaskRetentionStrategy, DirectiveID: "DIR-001"}
	out := Degraded("sales", task, errors.New("data source timeout"))

	assert.True(t, out.Degraded)
	assert.Equal(t, "sales", out.Worker)
	assert.Equal(t, "TASK-001", out.TaskID)
	assert.Equal(t, TaskRetentionStrategy, out.TaskKind)
	assert.Equal(t, 0.1, out.Confidence)
	assert.Empty(t, out.Recommendations)
	assert.Contains(t, out.Risks[0], "data source timeout")
}
