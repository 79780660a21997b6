package governance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/directord/internal/worker"
)

func TestEngine_CheckPermission(t *testing.T) {
	e := NewEngine(nil, nil)

	t.Run("spending over limit requires approval", func(t *testing.T) {
		res := e.CheckPermission("sales", "discount", 30_000)
		assert.False(t, res.Allowed)
		assert.True(t, res.RequiresApproval)
		assert.Equal(t, "orchestrator", res.Approver)
	})

	t.Run("action within authority", func(t *testing.T) {
		res := e.CheckPermission("marketing", "campaign_launch", 80_000)
		assert.True(t, res.Allowed)
		assert.False(t, res.RequiresApproval)
	})

	t.Run("missing permission requires approval", func(t *testing.T) {
		res := e.CheckPermission("support", "budget_request", 100)
		assert.False(t, res.Allowed)
		assert.True(t, res.RequiresApproval)
	})

	t.Run("unknown worker has no authority", func(t *testing.T) {
		res := e.CheckPermission("intern", "budget_request", 100)
		assert.False(t, res.Allowed)
		assert.True(t, res.RequiresApproval)
	})

	t.Run("orchestrator spending is unlimited", func(t *testing.T) {
		res := e.CheckPermission("orchestrator", "budget_request", 10_000_000)
		assert.True(t, res.Allowed)
	})
}

func TestEngine_RequestApproval_AutoApproveStrictlyBelow(t *testing.T) {
	e := NewEngine(nil, nil)

	under := e.RequestApproval("marketing", "budget", "incremental ad spend", 49_999, nil)
	assert.Equal(t, StatusAutoApproved, under.Status)
	assert.Equal(t, "system", under.Approver)

	// The boundary does not auto-approve.
	boundary := e.RequestApproval("marketing", "budget", "at the threshold", 50_000, nil)
	assert.Equal(t, StatusPending, boundary.Status)

	over := e.RequestApproval("marketing", "budget", "major campaign", 850_000, nil)
	assert.Equal(t, StatusPending, over.Status)
}

func TestEngine_RequestApproval_UnknownTypeStaysPending(t *testing.T) {
	e := NewEngine(nil, nil)

	req := e.RequestApproval("operations", "data_migration", "move CRM data", 1_000, nil)
	assert.Equal(t, StatusPending, req.Status)
}

func TestEngine_ApproveLifecycle(t *testing.T) {
	e := NewEngine(nil, nil)

	req := e.RequestApproval("marketing", "budget", "major campaign", 850_000, nil)
	require.Equal(t, StatusPending, req.Status)

	approved, err := e.Approve(req.ID, "executive", []string{"report ROI monthly"})
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, "executive", approved.Approver)
	assert.Equal(t, []string{"report ROI monthly"}, approved.Conditions)

	// Terminal transitions are one-shot.
	_, err = e.Reject(req.ID, "executive", "changed mind")
	require.ErrorIs(t, err, ErrTerminal)
	_, err = e.Approve(req.ID, "executive", nil)
	require.ErrorIs(t, err, ErrTerminal)
	_, err = e.Escalate(req.ID, "second thoughts")
	require.ErrorIs(t, err, ErrTerminal)
}

func TestEngine_RejectAndEscalate(t *testing.T) {
	e := NewEngine(nil, nil)

	r1 := e.RequestApproval("sales", "budget", "deal desk fund", 200_000, nil)
	rejected, err := e.Reject(r1.ID, "executive", "not aligned with quarter priorities")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Equal(t, "not aligned with quarter priorities", rejected.RejectionReason)

	r2 := e.RequestApproval("hr", "hiring", "12 new support agents", 12, nil)
	escalated, err := e.Escalate(r2.ID, "headcount plan exceeds authority")
	require.NoError(t, err)
	assert.Equal(t, StatusEscalated, escalated.Status)
	assert.Equal(t, "executive", escalated.Approver)
}

func TestEngine_UnknownRequest(t *testing.T) {
	e := NewEngine(nil, nil)

	_, err := e.Approve("REQ-9999", "executive", nil)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = e.Request("REQ-9999")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEngine_PendingRequestsAndSummary(t *testing.T) {
	e := NewEngine(nil, nil)

	e.RequestApproval("marketing", "budget", "small spend", 10_000, nil) // auto
	p1 := e.RequestApproval("marketing", "budget", "big spend", 850_000, nil)
	p2 := e.RequestApproval("hr", "hiring", "5 engineers", 5, nil)

	pending := e.PendingRequests()
	require.Len(t, pending, 2)
	assert.Equal(t, p1.ID, pending[0].ID, "oldest first")

	_, err := e.Approve(p2.ID, "executive", nil)
	require.NoError(t, err)

	s := e.ApprovalSummary()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Pending)
	assert.Equal(t, 1, s.AutoApproved)
	assert.Equal(t, 1, s.ByStatus[StatusApproved])
}

func TestEngine_ShouldEscalate(t *testing.T) {
	e := NewEngine(nil, nil)

	tests := []struct {
		name   string
		out    worker.Output
		want   bool
		reason string
	}{
		{
			name:   "low confidence",
			out:    worker.Output{Confidence: 0.55},
			want:   true,
			reason: "confidence below threshold (60%)",
		},
		{
			name: "confidence at threshold passes",
			out:  worker.Output{Confidence: 0.60},
			want: false,
		},
		{
			name:   "budget impact",
			out:    worker.Output{Confidence: 0.9, BudgetImpact: 850_000},
			want:   true,
			reason: "budget impact exceeds $500000",
		},
		{
			name:   "policy change",
			out:    worker.Output{Confidence: 0.9, RequiresPolicyChange: true},
			want:   true,
			reason: "requires policy change",
		},
		{
			name:   "headcount",
			out:    worker.Output{Confidence: 0.9, HeadcountImpact: 25},
			want:   true,
			reason: "headcount impact exceeds 20 FTE",
		},
		{
			name: "departments",
			out: worker.Output{Confidence: 0.9,
				AffectedDepartments: []string{"sales", "marketing", "support", "operations"}},
			want:   true,
			reason: "affects more than 3 departments",
		},
		{
			name: "clean output",
			out:  worker.Output{Confidence: 0.9, BudgetImpact: 100_000, HeadcountImpact: 2},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := e.ShouldEscalate(tt.out)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestEngine_ShouldEscalate_RuleOrder(t *testing.T) {
	e := NewEngine(nil, nil)

	// Confidence wins when several rules match.
	out := worker.Output{Confidence: 0.3, BudgetImpact: 2_000_000, HeadcountImpact: 50}
	got, reason := e.ShouldEscalate(out)
	assert.True(t, got)
	assert.Equal(t, "confidence below threshold (60%)", reason)
}
