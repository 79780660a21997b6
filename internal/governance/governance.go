// Package governance enforces authority boundaries: worker permissions,
// approval workflows, auto-approval thresholds, and escalation rules.
package governance

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/directord/internal/worker"
)

const instrumentationName = "github.com/fyrsmithlabs/directord/internal/governance"

var (
	// ErrNotFound is returned for operations on an unknown request id.
	ErrNotFound = fmt.Errorf("governance: request not found")
	// ErrTerminal is returned when a request already reached a terminal
	// status. Terminal transitions happen exactly once.
	ErrTerminal = fmt.Errorf("governance: request already decided")
)

// AuthorityLevel is what a worker is allowed to do on its own.
type AuthorityLevel string

const (
	LevelRead      AuthorityLevel = "read"
	LevelRecommend AuthorityLevel = "recommend"
	LevelAct       AuthorityLevel = "act"
	LevelApprove   AuthorityLevel = "approve"
)

// ApprovalStatus tracks an approval request's lifecycle. Pending is the only
// non-terminal status.
type ApprovalStatus string

const (
	StatusPending      ApprovalStatus = "pending"
	StatusApproved     ApprovalStatus = "approved"
	StatusRejected     ApprovalStatus = "rejected"
	StatusEscalated    ApprovalStatus = "escalated"
	StatusAutoApproved ApprovalStatus = "auto_approved"
)

// Profile is one worker's authority envelope.
type Profile struct {
	Level         AuthorityLevel
	CanApprove    []string
	SpendingLimit float64
	HiringLimit   int
}

// ApprovalRequest is one request for sign-off.
type ApprovalRequest struct {
	ID               string            `json:"id"`
	Requester        string            `json:"requester"`
	Approver         string            `json:"approver"`
	RequestType      string            `json:"request_type"`
	Description      string            `json:"description"`
	Amount           float64           `json:"amount,omitempty"`
	Details          map[string]string `json:"details,omitempty"`
	Status           ApprovalStatus    `json:"status"`
	Conditions       []string          `json:"conditions,omitempty"`
	RejectionReason  string            `json:"rejection_reason,omitempty"`
	EscalationReason string            `json:"escalation_reason,omitempty"`
}

// PermissionResult answers a permission check.
type PermissionResult struct {
	Allowed          bool   `json:"allowed"`
	RequiresApproval bool   `json:"requires_approval"`
	AutoApproved     bool   `json:"auto_approved,omitempty"`
	Approver         string `json:"approver,omitempty"`
	Reason           string `json:"reason"`
}

// Summary aggregates all approval requests.
type Summary struct {
	Total        int                    `json:"total_requests"`
	ByStatus     map[ApprovalStatus]int `json:"by_status,omitempty"`
	Pending      int                    `json:"pending"`
	AutoApproved int                    `json:"auto_approved"`
}

// Config holds auto-approval limits and escalation thresholds.
type Config struct {
	// AutoApprove maps request type to the amount strictly below which the
	// request is approved without review. An amount equal to the limit
	// still requires sign-off.
	AutoApprove map[string]float64

	EscalateConfidenceBelow  float64
	EscalateBudgetAbove      float64
	EscalateHeadcountAbove   int
	EscalateDepartmentsAbove int

	Profiles map[string]Profile
}

// DefaultConfig returns the reference authority model.
func DefaultConfig() *Config {
	return &Config{
		AutoApprove: map[string]float64{
			"budget":          50_000,
			"hiring":          3,
			"vendor_contract": 25_000,
		},
		EscalateConfidenceBelow:  0.60,
		EscalateBudgetAbove:      500_000,
		EscalateHeadcountAbove:   20,
		EscalateDepartmentsAbove: 3,
		Profiles: map[string]Profile{
			"orchestrator": {
				Level:         LevelApprove,
				CanApprove:    []string{"budget", "hiring", "policy_change", "strategy"},
				SpendingLimit: -1, // unlimited
			},
			"sales": {
				Level:         LevelAct,
				CanApprove:    []string{"discount_under_10_percent"},
				SpendingLimit: 25_000,
				HiringLimit:   2,
			},
			"marketing": {
				Level:         LevelAct,
				CanApprove:    []string{"campaign_under_budget"},
				SpendingLimit: 100_000,
				HiringLimit:   1,
			},
			"finance": {
				Level:         LevelRecommend,
				CanApprove:    []string{"budget_reallocation_under_50k"},
				SpendingLimit: 0,
			},
			"operations": {
				Level:         LevelAct,
				CanApprove:    []string{"vendor_under_25k"},
				SpendingLimit: 25_000,
				HiringLimit:   5,
			},
			"support": {
				Level:         LevelRecommend,
				CanApprove:    []string{"refund_under_500"},
				SpendingLimit: 500,
			},
			"hiring": {
				Level:      LevelAct,
				CanApprove: []string{"job_posting", "interview_process"},
			},
		},
	}
}

// actionPermissions maps action names to the permission they require.
var actionPermissions = map[string]string{
	"budget_request":  "budget",
	"hiring_request":  "hiring",
	"vendor_contract": "vendor_contract",
	"campaign_launch": "campaign_under_budget",
	"discount":        "discount_under_10_percent",
	"refund":          "refund_under_500",
}

// Engine runs the governance checks. All mutation runs under a single lock.
type Engine struct {
	mu       sync.Mutex
	cfg      *Config
	requests map[string]*ApprovalRequest
	order    []string
	counter  int

	logger          *zap.Logger
	approvalCounter metric.Int64Counter
}

// NewEngine creates a governance engine.
func NewEngine(cfg *Config, logger *zap.Logger) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		cfg:      cfg,
		requests: make(map[string]*ApprovalRequest),
		logger:   logger,
	}

	meter := otel.Meter(instrumentationName)
	var err error
	e.approvalCounter, err = meter.Int64Counter(
		"directord.governance.approval_requests_total",
		metric.WithDescription("Approval request status transitions"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		logger.Warn("failed to create approval counter", zap.Error(err))
	}

	return e
}

// CheckPermission reports whether a worker may perform an action on its own.
// Unknown workers hold read-only authority.
func (e *Engine) CheckPermission(workerName, action string, amount float64) PermissionResult {
	profile, known := e.cfg.Profiles[workerName]

	if amount > 0 && !known {
		return PermissionResult{
			RequiresApproval: true,
			Approver:         "orchestrator",
			Reason:           fmt.Sprintf("unknown worker %q has no spending authority", workerName),
		}
	}
	if amount > 0 && profile.SpendingLimit >= 0 && amount > profile.SpendingLimit {
		return PermissionResult{
			RequiresApproval: true,
			Approver:         "orchestrator",
			Reason:           fmt.Sprintf("amount $%.0f exceeds worker spending limit of $%.0f", amount, profile.SpendingLimit),
		}
	}

	required := action
	if mapped, ok := actionPermissions[action]; ok {
		required = mapped
	}

	for _, can := range profile.CanApprove {
		if can != required {
			continue
		}
		if limit, ok := e.cfg.AutoApprove[required]; ok && amount > 0 && amount < limit {
			return PermissionResult{
				Allowed:      true,
				AutoApproved: true,
				Reason:       fmt.Sprintf("under auto-approval threshold of $%.0f", limit),
			}
		}
		return PermissionResult{Allowed: true, Reason: "worker has authority"}
	}

	return PermissionResult{
		RequiresApproval: true,
		Approver:         "orchestrator",
		Reason:           fmt.Sprintf("worker does not hold %s permission", required),
	}
}

// RequestApproval files an approval request. Amounts strictly below the
// request type's auto-approval limit are approved immediately; an amount at
// the boundary stays pending.
func (e *Engine) RequestApproval(requester, requestType, description string, amount float64, details map[string]string) *ApprovalRequest {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.counter++
	req := &ApprovalRequest{
		ID:          fmt.Sprintf("REQ-%04d", e.counter),
		Requester:   requester,
		RequestType: requestType,
		Description: description,
		Amount:      amount,
		Details:     details,
	}

	if limit, ok := e.cfg.AutoApprove[requestType]; ok && amount > 0 && amount < limit {
		req.Status = StatusAutoApproved
		req.Approver = "system"
	} else {
		req.Status = StatusPending
		req.Approver = "orchestrator"
	}

	e.requests[req.ID] = req
	e.order = append(e.order, req.ID)

	e.recordStatus(req)
	e.logger.Info("approval requested",
		zap.String("id", req.ID),
		zap.String("requester", requester),
		zap.String("type", requestType),
		zap.Float64("amount", amount),
		zap.String("status", string(req.Status)))

	return copyRequest(req)
}

// Approve moves a pending request to approved, optionally with conditions.
func (e *Engine) Approve(id, approver string, conditions []string) (*ApprovalRequest, error) {
	return e.transition(id, func(req *ApprovalRequest) {
		req.Status = StatusApproved
		req.Approver = approver
		req.Conditions = append(req.Conditions, conditions...)
	})
}

// Reject moves a pending request to rejected with a reason.
func (e *Engine) Reject(id, approver, reason string) (*ApprovalRequest, error) {
	return e.transition(id, func(req *ApprovalRequest) {
		req.Status = StatusRejected
		req.Approver = approver
		req.RejectionReason = reason
	})
}

// Escalate hands a pending request to the executive with a reason.
func (e *Engine) Escalate(id, reason string) (*ApprovalRequest, error) {
	return e.transition(id, func(req *ApprovalRequest) {
		req.Status = StatusEscalated
		req.Approver = "executive"
		req.EscalationReason = reason
	})
}

func (e *Engine) transition(id string, apply func(*ApprovalRequest)) (*ApprovalRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	req, ok := e.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("request %s is %s: %w", id, req.Status, ErrTerminal)
	}

	apply(req)
	e.recordStatus(req)
	return copyRequest(req), nil
}

// Request returns the request with the given id.
func (e *Engine) Request(id string) (*ApprovalRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	req, ok := e.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	return copyRequest(req), nil
}

// PendingRequests returns all requests awaiting a decision, oldest first.
func (e *Engine) PendingRequests() []*ApprovalRequest {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []*ApprovalRequest
	for _, id := range e.order {
		if req := e.requests[id]; req.Status == StatusPending {
			out = append(out, copyRequest(req))
		}
	}
	return out
}

// ApprovalSummary aggregates all requests by status.
func (e *Engine) ApprovalSummary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Summary{
		Total:    len(e.order),
		ByStatus: make(map[ApprovalStatus]int),
	}
	for _, id := range e.order {
		req := e.requests[id]
		s.ByStatus[req.Status]++
	}
	s.Pending = s.ByStatus[StatusPending]
	s.AutoApproved = s.ByStatus[StatusAutoApproved]
	return s
}

// ShouldEscalate applies the escalation rules to a worker output in fixed
// order and returns the first matching reason.
func (e *Engine) ShouldEscalate(out worker.Output) (bool, string) {
	cfg := e.cfg

	if out.Confidence < cfg.EscalateConfidenceBelow {
		return true, fmt.Sprintf("confidence below threshold (%.0f%%)", cfg.EscalateConfidenceBelow*100)
	}
	if out.BudgetImpact > cfg.EscalateBudgetAbove {
		return true, fmt.Sprintf("budget impact exceeds $%.0f", cfg.EscalateBudgetAbove)
	}
	if out.RequiresPolicyChange {
		return true, "requires policy change"
	}
	if out.HeadcountImpact > cfg.EscalateHeadcountAbove {
		return true, fmt.Sprintf("headcount impact exceeds %d FTE", cfg.EscalateHeadcountAbove)
	}
	if len(out.AffectedDepartments) > cfg.EscalateDepartmentsAbove {
		return true, fmt.Sprintf("affects more than %d departments", cfg.EscalateDepartmentsAbove)
	}
	return false, ""
}

func (e *Engine) recordStatus(req *ApprovalRequest) {
	if e.approvalCounter == nil {
		return
	}
	e.approvalCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("type", req.RequestType),
			attribute.String("status", string(req.Status))))
}

func copyRequest(req *ApprovalRequest) *ApprovalRequest {
	cp := *req
	cp.Conditions = append([]string(nil), req.Conditions...)
	if req.Details != nil {
		cp.Details = make(map[string]string, len(req.Details))
		for k, v := range req.Details {
			cp.Details[k] = v
		}
	}
	return &cp
}
