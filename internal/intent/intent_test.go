package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternParser_RetentionDirective(t *testing.T) {
	p := NewPatternParser()

	in, err := p.Parse("Improve customer retention by 8% this quarter without increasing CAC")
	require.NoError(t, err)

	assert.Equal(t, ObjectiveImproveRetention, in.Objective)
	assert.Equal(t, MetricRetentionRate, in.Metric)
	assert.Equal(t, 0.08, in.TargetValue)
	assert.Equal(t, "no CAC increase allowed", in.Constraint)
	assert.Len(t, in.AffectedWorkers, 6)
}

func TestPatternParser_RetentionWithoutFigure(t *testing.T) {
	p := NewPatternParser()

	in, err := p.Parse("We need to improve retention within existing budget")
	require.NoError(t, err)

	assert.Equal(t, ObjectiveImproveRetention, in.Objective)
	assert.Equal(t, 0.08, in.TargetValue, "default target when no figure is named")
	assert.Equal(t, "within existing budget", in.Constraint)
}

func TestPatternParser_GeneralDirective(t *testing.T) {
	p := NewPatternParser()

	in, err := p.Parse("Expand into the commercial insurance segment")
	require.NoError(t, err)

	assert.Equal(t, ObjectiveGeneral, in.Objective)
	assert.Equal(t, "none specified", in.Constraint)
}

func TestPatternParser_EmptyDirective(t *testing.T) {
	p := NewPatternParser()

	_, err := p.Parse("   ")
	require.Error(t, err)
}

func TestPatternParser_TargetPercentVariants(t *testing.T) {
	p := NewPatternParser()

	in, err := p.Parse("Lift retention 12% by year end")
	require.NoError(t, err)
	assert.Equal(t, 0.12, in.TargetValue)
}
