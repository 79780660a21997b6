package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// DecisionKind categorizes decisions recorded in the trail.
type DecisionKind string

const (
	KindRecommendation DecisionKind = "recommendation"
	KindApproval       DecisionKind = "approval"
	KindRejection      DecisionKind = "rejection"
	KindEscalation     DecisionKind = "escalation"
	KindAllocation     DecisionKind = "allocation"
	KindForecast       DecisionKind = "forecast"
	KindStrategy       DecisionKind = "strategy"
)

// ConfidenceTier buckets a numeric confidence score.
type ConfidenceTier string

const (
	TierVeryLow  ConfidenceTier = "very_low"
	TierLow      ConfidenceTier = "low"
	TierMedium   ConfidenceTier = "medium"
	TierHigh     ConfidenceTier = "high"
	TierVeryHigh ConfidenceTier = "very_high"
)

// TierForScore maps a 0-1 confidence score onto its tier.
func TierForScore(score float64) ConfidenceTier {
	switch {
	case score >= 0.90:
		return TierVeryHigh
	case score >= 0.80:
		return TierHigh
	case score >= 0.65:
		return TierMedium
	case score >= 0.50:
		return TierLow
	default:
		return TierVeryLow
	}
}

// Citation references the data behind a decision. Every numeric claim in a
// decision must carry at least one.
type Citation struct {
	SourceType  string    `json:"source_type"` // database, document, calculation, assumption, external
	SourceID    string    `json:"source_id"`
	Description string    `json:"description"`
	Value       any       `json:"value"`
	Timestamp   time.Time `json:"timestamp"`
}

// Record is one decision in the audit trail. Identity, decision text,
// rationale, and hash are immutable after creation; only the outcome fields
// and obtained approvals may change.
type Record struct {
	ID            string       `json:"id"`
	Timestamp     time.Time    `json:"timestamp"`
	Worker        string       `json:"worker"`
	WorkerVersion string       `json:"worker_version"`
	Kind          DecisionKind `json:"kind"`
	DirectiveID   string       `json:"directive_id"`

	Decision        string         `json:"decision"`
	Rationale       string         `json:"rationale"`
	Confidence      ConfidenceTier `json:"confidence"`
	ConfidenceScore float64        `json:"confidence_score"`

	Citations           []Citation `json:"citations,omitempty"`
	DataSources         []string   `json:"data_sources,omitempty"`
	Assumptions         []string   `json:"assumptions,omitempty"`
	WhatWouldChangeMind string     `json:"what_would_change_mind,omitempty"`
	KeyUncertainties    []string   `json:"key_uncertainties,omitempty"`

	RequiredApprovals []string `json:"required_approvals,omitempty"`
	ObtainedApprovals []string `json:"obtained_approvals,omitempty"`
	EscalatedTo       string   `json:"escalated_to,omitempty"`

	Outcome          string    `json:"outcome,omitempty"`
	OutcomeTimestamp time.Time `json:"outcome_timestamp,omitempty"`
	OutcomeNotes     string    `json:"outcome_notes,omitempty"`

	Hash string `json:"hash"`
}

// ComputeHash derives the integrity hash over the record's immutable core.
// The stored hash must always equal this recomputation for a trustworthy
// record.
func (r *Record) ComputeHash() string {
	content := fmt.Sprintf("%s:%s:%s:%s",
		r.ID, r.Timestamp.Format(time.RFC3339Nano), r.Worker, r.Decision)
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}

// PendingApproval reports whether any required approver has not yet signed.
func (r *Record) PendingApproval() bool {
	for _, req := range r.RequiredApprovals {
		obtained := false
		for _, got := range r.ObtainedApprovals {
			if got == req {
				obtained = true
				break
			}
		}
		if !obtained {
			return true
		}
	}
	return false
}

// Report summarizes a slice of the trail.
type Report struct {
	TotalDecisions   int                    `json:"total_decisions"`
	Start            time.Time              `json:"start,omitempty"`
	End              time.Time              `json:"end,omitempty"`
	ByKind           map[DecisionKind]int   `json:"by_kind,omitempty"`
	ByConfidence     map[ConfidenceTier]int `json:"by_confidence,omitempty"`
	MeanConfidence   float64                `json:"mean_confidence"`
	PendingApprovals int                    `json:"pending_approvals"`
	Escalated        int                    `json:"escalated"`
	Workers          []string               `json:"workers,omitempty"`
}

// LogRequest carries the fields of a new decision record.
type LogRequest struct {
	Worker              string
	WorkerVersion       string
	Kind                DecisionKind
	DirectiveID         string
	Decision            string
	Rationale           string
	ConfidenceScore     float64
	Citations           []Citation
	DataSources         []string
	Assumptions         []string
	WhatWouldChangeMind string
	KeyUncertainties    []string
	RequiredApprovals   []string
	EscalatedTo         string
}
