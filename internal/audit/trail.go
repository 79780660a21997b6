// Package audit provides the append-only, hash-verified trail of worker
// decisions with citations and approval tracking.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/directord/internal/audit"

// ErrNotFound is returned for operations on an unknown record id.
var ErrNotFound = fmt.Errorf("audit: record not found")

// Callback receives every new record. Callbacks are best-effort: a panicking
// callback is captured and logged, never propagated.
type Callback func(*Record)

// Trail is the audit log. Records are never reordered or renumbered after
// creation; all mutation runs under a single lock.
type Trail struct {
	mu             sync.Mutex
	records        map[string]*Record
	order          []string
	directiveIndex map[string][]string
	workerIndex    map[string][]string
	callbacks      []Callback
	counter        int

	logger          *zap.Logger
	decisionCounter metric.Int64Counter
}

// NewTrail creates an empty audit trail.
func NewTrail(logger *zap.Logger) *Trail {
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &Trail{
		records:        make(map[string]*Record),
		directiveIndex: make(map[string][]string),
		workerIndex:    make(map[string][]string),
		logger:         logger,
	}

	meter := otel.Meter(instrumentationName)
	var err error
	t.decisionCounter, err = meter.Int64Counter(
		"directord.audit.decisions_total",
		metric.WithDescription("Total decisions logged"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		logger.Warn("failed to create decision counter", zap.Error(err))
	}

	return t
}

// LogDecision appends a new record, computes its confidence tier and
// integrity hash, and indexes it by directive and worker.
func (t *Trail) LogDecision(req LogRequest) *Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counter++
	rec := &Record{
		ID:                  fmt.Sprintf("AUD-%s-%06d", time.Now().Format("20060102"), t.counter),
		Timestamp:           time.Now(),
		Worker:              req.Worker,
		WorkerVersion:       req.WorkerVersion,
		Kind:                req.Kind,
		DirectiveID:         req.DirectiveID,
		Decision:            req.Decision,
		Rationale:           req.Rationale,
		Confidence:          TierForScore(req.ConfidenceScore),
		ConfidenceScore:     req.ConfidenceScore,
		Citations:           req.Citations,
		DataSources:         req.DataSources,
		Assumptions:         req.Assumptions,
		WhatWouldChangeMind: req.WhatWouldChangeMind,
		KeyUncertainties:    req.KeyUncertainties,
		RequiredApprovals:   req.RequiredApprovals,
		EscalatedTo:         req.EscalatedTo,
	}
	rec.Hash = rec.ComputeHash()

	t.records[rec.ID] = rec
	t.order = append(t.order, rec.ID)
	t.directiveIndex[req.DirectiveID] = append(t.directiveIndex[req.DirectiveID], rec.ID)
	t.workerIndex[req.Worker] = append(t.workerIndex[req.Worker], rec.ID)

	if t.decisionCounter != nil {
		t.decisionCounter.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("kind", string(req.Kind))))
	}

	for _, cb := range t.callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.logger.Warn("audit callback panicked",
						zap.String("record_id", rec.ID),
						zap.Any("panic", r))
				}
			}()
			cb(rec)
		}()
	}

	return t.copyLocked(rec)
}

// copyLocked returns a defensive copy so callers cannot mutate trail state.
func (t *Trail) copyLocked(rec *Record) *Record {
	cp := *rec
	cp.Citations = append([]Citation(nil), rec.Citations...)
	cp.ObtainedApprovals = append([]string(nil), rec.ObtainedApprovals...)
	return &cp
}

// Subscribe registers a callback for new records.
func (t *Trail) Subscribe(cb Callback) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callbacks = append(t.callbacks, cb)
}

// Record returns the record with the given id.
func (t *Trail) Record(id string) (*Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[id]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	return t.copyLocked(rec), nil
}

// UpdateOutcome sets the outcome fields, the only mutable content on a
// record after creation.
func (t *Trail) UpdateOutcome(id, outcome, notes string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[id]
	if !ok {
		return fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	rec.Outcome = outcome
	rec.OutcomeTimestamp = time.Now()
	rec.OutcomeNotes = notes
	return nil
}

// AddApproval records an obtained approval. Adding the same approver twice
// is a no-op.
func (t *Trail) AddApproval(id, approver string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[id]
	if !ok {
		return fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	for _, got := range rec.ObtainedApprovals {
		if got == approver {
			return nil
		}
	}
	rec.ObtainedApprovals = append(rec.ObtainedApprovals, approver)
	return nil
}

// RecordsByDirective returns all records for a directive, in creation order.
func (t *Trail) RecordsByDirective(directiveID string) []*Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.collectLocked(t.directiveIndex[directiveID])
}

// RecordsByWorker returns all records from a worker, in creation order.
func (t *Trail) RecordsByWorker(worker string) []*Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.collectLocked(t.workerIndex[worker])
}

func (t *Trail) collectLocked(ids []string) []*Record {
	out := make([]*Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := t.records[id]; ok {
			out = append(out, t.copyLocked(rec))
		}
	}
	return out
}

// PendingApprovals returns records with at least one required approver who
// has not signed.
func (t *Trail) PendingApprovals() []*Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []*Record
	for _, id := range t.order {
		if rec := t.records[id]; rec.PendingApproval() {
			out = append(out, t.copyLocked(rec))
		}
	}
	return out
}

// Escalated returns records that were escalated.
func (t *Trail) Escalated() []*Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []*Record
	for _, id := range t.order {
		if rec := t.records[id]; rec.EscalatedTo != "" {
			out = append(out, t.copyLocked(rec))
		}
	}
	return out
}

// VerifyIntegrity recomputes the record's hash and compares it to the stored
// value. Corruption is reported, never repaired.
func (t *Trail) VerifyIntegrity(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[id]
	if !ok {
		return false
	}
	return rec.Hash == rec.ComputeHash()
}

// ReportFilter scopes a report. Zero values mean "no filter".
type ReportFilter struct {
	Start       time.Time
	End         time.Time
	Worker      string
	DirectiveID string
}

// GenerateReport summarizes the trail within the filter.
func (t *Trail) GenerateReport(f ReportFilter) Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	var selected []*Record
	for _, id := range t.order {
		rec := t.records[id]
		if !f.Start.IsZero() && rec.Timestamp.Before(f.Start) {
			continue
		}
		if !f.End.IsZero() && rec.Timestamp.After(f.End) {
			continue
		}
		if f.Worker != "" && rec.Worker != f.Worker {
			continue
		}
		if f.DirectiveID != "" && rec.DirectiveID != f.DirectiveID {
			continue
		}
		selected = append(selected, rec)
	}

	report := Report{TotalDecisions: len(selected)}
	if len(selected) == 0 {
		return report
	}

	report.ByKind = make(map[DecisionKind]int)
	report.ByConfidence = make(map[ConfidenceTier]int)
	workers := make(map[string]struct{})

	var sum float64
	report.Start = selected[0].Timestamp
	report.End = selected[0].Timestamp
	for _, rec := range selected {
		report.ByKind[rec.Kind]++
		report.ByConfidence[rec.Confidence]++
		sum += rec.ConfidenceScore
		workers[rec.Worker] = struct{}{}
		if rec.PendingApproval() {
			report.PendingApprovals++
		}
		if rec.EscalatedTo != "" {
			report.Escalated++
		}
		if rec.Timestamp.Before(report.Start) {
			report.Start = rec.Timestamp
		}
		if rec.Timestamp.After(report.End) {
			report.End = rec.Timestamp
		}
	}
	report.MeanConfidence = sum / float64(len(selected))

	for w := range workers {
		report.Workers = append(report.Workers, w)
	}
	sort.Strings(report.Workers)

	return report
}

// ExportJSON writes all records to w in creation order.
func (t *Trail) ExportJSON(w io.Writer) error {
	t.mu.Lock()
	records := t.collectLocked(t.order)
	t.mu.Unlock()

	payload := struct {
		ExportedAt  time.Time `json:"exported_at"`
		RecordCount int       `json:"record_count"`
		Records     []*Record `json:"records"`
	}{
		ExportedAt:  time.Now(),
		RecordCount: len(records),
		Records:     records,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
