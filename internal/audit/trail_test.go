package audit

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logTestDecision(t *Trail, worker string, score float64) *Record {
	return t.LogDecision(LogRequest{
		Worker:          worker,
		WorkerVersion:   "1.0.0",
		Kind:            KindRecommendation,
		DirectiveID:     "DIR-TEST",
		Decision:        "Approve $150K marketing budget increase",
		Rationale:       "ROI analysis shows 3.2x return on historical campaign data",
		ConfidenceScore: score,
		Citations: []Citation{{
			SourceType:  "database",
			SourceID:    "campaign_roi_q3",
			Description: "Q3 campaign performance metrics",
			Value:       3.2,
			Timestamp:   time.Now(),
		}},
		DataSources: []string{"marketing_db"},
	})
}

func TestTierForScore(t *testing.T) {
	tests := []struct {
		score float64
		want  ConfidenceTier
	}{
		{0.95, TierVeryHigh},
		{0.90, TierVeryHigh},
		{0.85, TierHigh},
		{0.80, TierHigh},
		{0.70, TierMedium},
		{0.65, TierMedium},
		{0.55, TierLow},
		{0.50, TierLow},
		{0.49, TierVeryLow},
		{0.0, TierVeryLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierForScore(tt.score), "score %v", tt.score)
	}
}

func TestTrail_HashValidAfterCreation(t *testing.T) {
	trail := NewTrail(nil)
	rec := logTestDecision(trail, "finance", 0.85)

	assert.NotEmpty(t, rec.Hash)
	assert.Len(t, rec.Hash, 16)
	assert.True(t, trail.VerifyIntegrity(rec.ID))
}

func TestTrail_HashValidAfterOutcomeUpdate(t *testing.T) {
	trail := NewTrail(nil)
	rec := logTestDecision(trail, "finance", 0.85)

	require.NoError(t, trail.UpdateOutcome(rec.ID, "implemented", "rolled out in Q2"))
	assert.True(t, trail.VerifyIntegrity(rec.ID), "outcome fields are outside the hash")

	got, err := trail.Record(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "implemented", got.Outcome)
	assert.False(t, got.OutcomeTimestamp.IsZero())
}

func TestTrail_TamperDetection(t *testing.T) {
	trail := NewTrail(nil)
	rec := logTestDecision(trail, "finance", 0.85)

	// Simulate out-of-band tampering with the stored decision text.
	trail.mu.Lock()
	trail.records[rec.ID].Decision = "Approve $950K marketing budget increase"
	trail.mu.Unlock()

	assert.False(t, trail.VerifyIntegrity(rec.ID))
}

func TestTrail_VerifyUnknownRecord(t *testing.T) {
	trail := NewTrail(nil)
	assert.False(t, trail.VerifyIntegrity("AUD-00000000-000001"))
}

func TestTrail_AddApprovalIdempotent(t *testing.T) {
	trail := NewTrail(nil)
	rec := trail.LogDecision(LogRequest{
		Worker:            "finance",
		Kind:              KindRecommendation,
		DirectiveID:       "DIR-TEST",
		Decision:          "reallocate budget",
		ConfidenceScore:   0.8,
		RequiredApprovals: []string{"cfo", "cmo"},
	})

	require.NoError(t, trail.AddApproval(rec.ID, "cfo"))
	require.NoError(t, trail.AddApproval(rec.ID, "cfo"))

	got, err := trail.Record(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"cfo"}, got.ObtainedApprovals)
	assert.True(t, trail.VerifyIntegrity(rec.ID), "approvals are outside the hash")
}

func TestTrail_PendingApprovals(t *testing.T) {
	trail := NewTrail(nil)
	rec := trail.LogDecision(LogRequest{
		Worker:            "finance",
		Kind:              KindRecommendation,
		DirectiveID:       "DIR-TEST",
		Decision:          "reallocate budget",
		ConfidenceScore:   0.8,
		RequiredApprovals: []string{"cfo", "cmo"},
	})
	trail.LogDecision(LogRequest{
		Worker:          "sales",
		Kind:            KindRecommendation,
		DirectiveID:     "DIR-TEST",
		Decision:        "no approvals needed",
		ConfidenceScore: 0.9,
	})

	pending := trail.PendingApprovals()
	require.Len(t, pending, 1)
	assert.Equal(t, rec.ID, pending[0].ID)

	// Partial approval still pending.
	require.NoError(t, trail.AddApproval(rec.ID, "cfo"))
	assert.Len(t, trail.PendingApprovals(), 1)

	require.NoError(t, trail.AddApproval(rec.ID, "cmo"))
	assert.Empty(t, trail.PendingApprovals())
}

func TestTrail_Indexes(t *testing.T) {
	trail := NewTrail(nil)
	trail.LogDecision(LogRequest{Worker: "sales", DirectiveID: "DIR-1", Kind: KindRecommendation, Decision: "a", ConfidenceScore: 0.8})
	trail.LogDecision(LogRequest{Worker: "sales", DirectiveID: "DIR-2", Kind: KindForecast, Decision: "b", ConfidenceScore: 0.7})
	trail.LogDecision(LogRequest{Worker: "finance", DirectiveID: "DIR-1", Kind: KindAllocation, Decision: "c", ConfidenceScore: 0.9})

	assert.Len(t, trail.RecordsByDirective("DIR-1"), 2)
	assert.Len(t, trail.RecordsByDirective("DIR-2"), 1)
	assert.Len(t, trail.RecordsByWorker("sales"), 2)
	assert.Empty(t, trail.RecordsByWorker("support"))
}

func TestTrail_Escalated(t *testing.T) {
	trail := NewTrail(nil)
	trail.LogDecision(LogRequest{Worker: "sales", DirectiveID: "DIR-1", Kind: KindEscalation, Decision: "a", ConfidenceScore: 0.5, EscalatedTo: "ceo"})
	trail.LogDecision(LogRequest{Worker: "finance", DirectiveID: "DIR-1", Kind: KindRecommendation, Decision: "b", ConfidenceScore: 0.9})

	escalated := trail.Escalated()
	require.Len(t, escalated, 1)
	assert.Equal(t, "ceo", escalated[0].EscalatedTo)
}

func TestTrail_UnknownIDOperations(t *testing.T) {
	trail := NewTrail(nil)

	require.ErrorIs(t, trail.UpdateOutcome("missing", "x", ""), ErrNotFound)
	require.ErrorIs(t, trail.AddApproval("missing", "cfo"), ErrNotFound)
	_, err := trail.Record("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTrail_GenerateReport(t *testing.T) {
	trail := NewTrail(nil)
	trail.LogDecision(LogRequest{Worker: "sales", DirectiveID: "DIR-1", Kind: KindRecommendation, Decision: "a", ConfidenceScore: 0.9})
	trail.LogDecision(LogRequest{Worker: "finance", DirectiveID: "DIR-1", Kind: KindRecommendation, Decision: "b", ConfidenceScore: 0.7, RequiredApprovals: []string{"cfo"}})
	trail.LogDecision(LogRequest{Worker: "support", DirectiveID: "DIR-1", Kind: KindEscalation, Decision: "c", ConfidenceScore: 0.5, EscalatedTo: "ceo"})

	report := trail.GenerateReport(ReportFilter{})
	assert.Equal(t, 3, report.TotalDecisions)
	assert.Equal(t, 2, report.ByKind[KindRecommendation])
	assert.Equal(t, 1, report.ByKind[KindEscalation])
	assert.Equal(t, 1, report.ByConfidence[TierVeryHigh])
	assert.Equal(t, 1, report.ByConfidence[TierMedium])
	assert.Equal(t, 1, report.ByConfidence[TierLow])
	assert.InDelta(t, 0.7, report.MeanConfidence, 1e-9)
	assert.Equal(t, 1, report.PendingApprovals)
	assert.Equal(t, 1, report.Escalated)
	assert.Equal(t, []string{"finance", "sales", "support"}, report.Workers)

	byWorker := trail.GenerateReport(ReportFilter{Worker: "sales"})
	assert.Equal(t, 1, byWorker.TotalDecisions)

	empty := trail.GenerateReport(ReportFilter{Worker: "nobody"})
	assert.Equal(t, 0, empty.TotalDecisions)

	// A directive filter only counts that directive's records.
	trail.LogDecision(LogRequest{Worker: "sales", DirectiveID: "DIR-2", Kind: KindForecast, Decision: "d", ConfidenceScore: 0.8})
	byDirective := trail.GenerateReport(ReportFilter{DirectiveID: "DIR-1"})
	assert.Equal(t, 3, byDirective.TotalDecisions)
	assert.Equal(t, 1, trail.GenerateReport(ReportFilter{DirectiveID: "DIR-2"}).TotalDecisions)
}

func TestTrail_CallbackPanicSwallowed(t *testing.T) {
	trail := NewTrail(nil)

	var seen int
	trail.Subscribe(func(*Record) { panic("callback exploded") })
	trail.Subscribe(func(*Record) { seen++ })

	rec := logTestDecision(trail, "finance", 0.85)
	assert.Equal(t, 1, seen)
	assert.True(t, trail.VerifyIntegrity(rec.ID))
}

func TestTrail_ExportJSON(t *testing.T) {
	trail := NewTrail(nil)
	logTestDecision(trail, "finance", 0.85)
	logTestDecision(trail, "sales", 0.75)

	var buf bytes.Buffer
	require.NoError(t, trail.ExportJSON(&buf))

	var payload struct {
		RecordCount int      `json:"record_count"`
		Records     []Record `json:"records"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	assert.Equal(t, 2, payload.RecordCount)
	require.Len(t, payload.Records, 2)
	assert.NotEmpty(t, payload.Records[0].Hash)
}

func TestTrail_ReturnedRecordIsACopy(t *testing.T) {
	trail := NewTrail(nil)
	rec := logTestDecision(trail, "finance", 0.85)

	rec.Decision = "mutated by caller"
	assert.True(t, trail.VerifyIntegrity(rec.ID), "caller mutation must not reach the trail")
}
