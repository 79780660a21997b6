// Package conflict detects and resolves contradictions between worker
// outputs before a decision package reaches the executive.
package conflict

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/directord/internal/state"
	"github.com/fyrsmithlabs/directord/internal/worker"
)

const instrumentationName = "github.com/fyrsmithlabs/directord/internal/conflict"

// Config holds detection thresholds.
type Config struct {
	// ResourceThreshold is the total units of one shared resource that can
	// be requested before contention is flagged.
	ResourceThreshold float64
}

// DefaultConfig returns the reference thresholds.
func DefaultConfig() *Config {
	return &Config{ResourceThreshold: 3}
}

// Inputs carries the store-derived context detection runs against.
type Inputs struct {
	// DepartmentBudgets maps department name to its budget constraint.
	// Available headroom is the constraint's limit minus current usage.
	DepartmentBudgets map[string]state.Constraint
}

// Engine runs detection and resolution. Detection is pure: the same outputs
// and inputs always produce the same conflicts in the same order.
type Engine struct {
	cfg    *Config
	logger *zap.Logger

	conflictCounter metric.Int64Counter
}

// NewEngine creates a conflict engine.
func NewEngine(cfg *Config, logger *zap.Logger) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{cfg: cfg, logger: logger}

	meter := otel.Meter(instrumentationName)
	var err error
	e.conflictCounter, err = meter.Int64Counter(
		"directord.conflict.detected_total",
		metric.WithDescription("Total conflicts detected"),
		metric.WithUnit("{conflict}"),
	)
	if err != nil {
		logger.Warn("failed to create conflict counter", zap.Error(err))
	}

	return e
}

var opposing = map[string]string{
	"increase":   "decrease",
	"decrease":   "increase",
	"expand":     "reduce",
	"reduce":     "expand",
	"accelerate": "delay",
	"delay":      "accelerate",
}

// Detect analyzes worker outputs and returns all conflicts found. Passes run
// in a fixed order (budget, timeline, strategic, resource) and iterate in
// sorted order, so ids are stable across runs.
func (e *Engine) Detect(ctx context.Context, outputs []worker.Output, in Inputs) []Conflict {
	var conflicts []Conflict
	next := func() string { return fmt.Sprintf("CONF-%03d", len(conflicts)+1) }

	if c := e.detectBudget(outputs, in); c != nil {
		c.ID = next()
		conflicts = append(conflicts, *c)
	}
	if c := e.detectTimeline(outputs); c != nil {
		c.ID = next()
		conflicts = append(conflicts, *c)
	}
	if c := e.detectStrategic(outputs); c != nil {
		c.ID = next()
		conflicts = append(conflicts, *c)
	}
	if c := e.detectResource(outputs); c != nil {
		c.ID = next()
		conflicts = append(conflicts, *c)
	}

	for _, c := range conflicts {
		if e.conflictCounter != nil {
			e.conflictCounter.Add(ctx, 1,
				metric.WithAttributes(attribute.String("kind", string(c.Kind))))
		}
		e.logger.Info("conflict detected",
			zap.String("id", c.ID),
			zap.String("kind", string(c.Kind)),
			zap.String("severity", string(c.Severity)),
			zap.Strings("workers", c.Workers))
	}

	return conflicts
}

func (e *Engine) detectBudget(outputs []worker.Output, in Inputs) *Conflict {
	claims := make(map[string][]BudgetClaim)
	for _, out := range outputs {
		req := out.BudgetRequest
		if req == nil {
			continue
		}
		claims[req.Department] = append(claims[req.Department], BudgetClaim{
			Worker:   out.Worker,
			Amount:   req.Amount,
			Purpose:  req.Purpose,
			Priority: req.Priority,
		})
	}

	var overruns []BudgetOverrun
	var totalShortfall float64
	for _, dept := range sortedKeys(claims) {
		var requested float64
		for _, c := range claims[dept] {
			requested += c.Amount
		}
		available := in.DepartmentBudgets[dept].Available()
		if requested > available {
			overruns = append(overruns, BudgetOverrun{
				Department: dept,
				Requested:  requested,
				Available:  available,
				Shortfall:  requested - available,
				Requests:   claims[dept],
			})
			totalShortfall += requested - available
		}
	}
	if len(overruns) == 0 {
		return nil
	}

	workers := make(map[string]struct{})
	for _, o := range overruns {
		for _, r := range o.Requests {
			workers[r.Worker] = struct{}{}
		}
	}
	return &Conflict{
		Kind:        KindBudgetOverallocation,
		Severity:    SeverityHigh,
		Workers:     sortedKeys(workers),
		Description: fmt.Sprintf("budget requests exceed available funds by $%.0f across %d department(s)", totalShortfall, len(overruns)),
		Evidence:    BudgetEvidence{Overruns: overruns},
	}
}

func (e *Engine) detectTimeline(outputs []worker.Output) *Conflict {
	type dep struct {
		worker    string
		dependsOn string
		neededBy  int
	}
	var deps []dep
	delivered := make(map[string]struct{})
	for _, out := range outputs {
		plan := out.TimelinePlan
		if plan == nil {
			continue
		}
		for _, d := range plan.Dependencies {
			deps = append(deps, dep{worker: out.Worker, dependsOn: d, neededBy: plan.CompletionDays})
		}
		for _, d := range plan.Deliverables {
			delivered[d.Name] = struct{}{}
		}
	}

	var unmet []UnmetDependency
	for _, d := range deps {
		if _, ok := delivered[d.dependsOn]; !ok {
			unmet = append(unmet, UnmetDependency{Worker: d.worker, DependsOn: d.dependsOn, NeededBy: d.neededBy})
		}
	}
	if len(unmet) == 0 {
		return nil
	}
	sort.Slice(unmet, func(i, j int) bool {
		if unmet[i].Worker != unmet[j].Worker {
			return unmet[i].Worker < unmet[j].Worker
		}
		return unmet[i].DependsOn < unmet[j].DependsOn
	})

	workers := make(map[string]struct{})
	var names []string
	for _, u := range unmet {
		workers[u.Worker] = struct{}{}
		names = append(names, u.DependsOn)
	}
	return &Conflict{
		Kind:        KindTimelineConflict,
		Severity:    SeverityMedium,
		Workers:     sortedKeys(workers),
		Description: fmt.Sprintf("unmet dependencies: %v", names),
		Evidence:    TimelineEvidence{Unmet: unmet},
	}
}

func (e *Engine) detectStrategic(outputs []worker.Output) *Conflict {
	byLever := make(map[string][]Position)
	for _, out := range outputs {
		s := out.Stance
		if s == nil {
			continue
		}
		byLever[s.Lever] = append(byLever[s.Lever], Position{
			Worker:    out.Worker,
			Direction: s.Direction,
			Statement: s.Position,
		})
	}

	var contradictions []Contradiction
	for _, lever := range sortedKeys(byLever) {
		positions := byLever[lever]
		antagonistic := false
		for i := 0; i < len(positions) && !antagonistic; i++ {
			for j := i + 1; j < len(positions); j++ {
				if opposing[positions[i].Direction] == positions[j].Direction {
					antagonistic = true
					break
				}
			}
		}
		if antagonistic {
			contradictions = append(contradictions, Contradiction{Lever: lever, Positions: positions})
		}
	}
	if len(contradictions) == 0 {
		return nil
	}

	workers := make(map[string]struct{})
	for _, c := range contradictions {
		for _, p := range c.Positions {
			workers[p.Worker] = struct{}{}
		}
	}
	return &Conflict{
		Kind:        KindStrategicMisalignment,
		Severity:    SeverityCritical,
		Workers:     sortedKeys(workers),
		Description: fmt.Sprintf("contradictory strategic directions on %d lever(s)", len(contradictions)),
		Evidence:    StrategyEvidence{Contradictions: contradictions},
	}
}

func (e *Engine) detectResource(outputs []worker.Output) *Conflict {
	claims := make(map[string][]ResourceClaim)
	for _, out := range outputs {
		for _, req := range out.ResourceRequests {
			claims[req.Resource] = append(claims[req.Resource], ResourceClaim{
				Worker:   out.Worker,
				Amount:   req.Amount,
				Priority: req.Priority,
			})
		}
	}

	var contentions []Contention
	for _, resource := range sortedKeys(claims) {
		requests := claims[resource]
		if len(requests) < 2 {
			continue
		}
		var total float64
		for _, r := range requests {
			total += r.Amount
		}
		if total > e.cfg.ResourceThreshold {
			contentions = append(contentions, Contention{
				Resource:       resource,
				TotalRequested: total,
				Requests:       requests,
			})
		}
	}
	if len(contentions) == 0 {
		return nil
	}

	workers := make(map[string]struct{})
	var names []string
	for _, c := range contentions {
		names = append(names, c.Resource)
		for _, r := range c.Requests {
			workers[r.Worker] = struct{}{}
		}
	}
	return &Conflict{
		Kind:        KindResourceContention,
		Severity:    SeverityMedium,
		Workers:     sortedKeys(workers),
		Description: fmt.Sprintf("resource contention: %v", names),
		Evidence:    ResourceEvidence{Contentions: contentions},
	}
}

var priorityRank = map[state.Priority]int{
	state.PriorityCritical: 0,
	state.PriorityHigh:     1,
	state.PriorityMedium:   2,
	state.PriorityLow:      3,
}

// Resolve attempts to settle each conflict and attaches the resolution to it.
// Strategic misalignment is never auto-resolved; budget shortfalls that
// survive priority-ordered allocation require escalation. The returned slice
// holds the conflicts still unresolved.
func (e *Engine) Resolve(ctx context.Context, conflicts []Conflict) ([]Conflict, Summary) {
	var unresolved []Conflict
	summary := Summary{}

	for i := range conflicts {
		c := &conflicts[i]

		var res Resolution
		switch c.Kind {
		case KindBudgetOverallocation:
			res = e.resolveBudget(c)
		case KindResourceContention:
			res = Resolution{
				Resolved:    true,
				Strategy:    "time_phasing",
				Description: "resources scheduled sequentially by priority",
			}
		case KindTimelineConflict:
			res = Resolution{
				Resolved:    true,
				Strategy:    "critical_path_adjustment",
				Description: "timeline adjusted to respect dependencies",
			}
		case KindStrategicMisalignment:
			res = e.resolveStrategic(c)
		case KindPriorityConflict:
			res = Resolution{
				Resolved:    true,
				Strategy:    "impact_ranking",
				Description: "priorities ranked by strategic impact",
			}
		default:
			res = Resolution{
				Resolved:           false,
				Description:        fmt.Sprintf("no resolution strategy for %s", c.Kind),
				RequiresEscalation: true,
			}
		}
		res.ConflictID = c.ID
		c.Resolution = &res
		summary.Resolutions = append(summary.Resolutions, res)

		if !res.Resolved {
			unresolved = append(unresolved, *c)
		}
	}
	summary.Unresolved = len(unresolved)

	return unresolved, summary
}

// resolveBudget allocates each overrun department's available funds to
// requests in priority order, highest first. Whatever cannot be funded is the
// shortfall that goes to the executive.
func (e *Engine) resolveBudget(c *Conflict) Resolution {
	ev, ok := c.Evidence.(BudgetEvidence)
	if !ok {
		return Resolution{Resolved: false, Description: "missing budget evidence", RequiresEscalation: true}
	}

	var allocations []Allocation
	var shortfall float64
	for _, overrun := range ev.Overruns {
		requests := append([]BudgetClaim(nil), overrun.Requests...)
		sort.SliceStable(requests, func(i, j int) bool {
			return priorityRank[requests[i].Priority] < priorityRank[requests[j].Priority]
		})

		remaining := overrun.Available
		for _, req := range requests {
			a := Allocation{
				Department: overrun.Department,
				Worker:     req.Worker,
				Requested:  req.Amount,
			}
			switch {
			case req.Amount <= remaining:
				a.Granted = req.Amount
				a.Status = "fully_funded"
				remaining -= req.Amount
			case remaining > 0:
				a.Granted = remaining
				a.Status = "partially_funded"
				shortfall += req.Amount - remaining
				remaining = 0
			default:
				a.Status = "unfunded"
				shortfall += req.Amount
			}
			allocations = append(allocations, a)
		}
	}

	if shortfall > 0 {
		return Resolution{
			Resolved:           false,
			Strategy:           "priority_allocation",
			Description:        fmt.Sprintf("budget allocated by priority; $%.0f unfunded requires escalation", shortfall),
			Allocations:        allocations,
			RequiresEscalation: true,
		}
	}
	return Resolution{
		Resolved:    true,
		Strategy:    "priority_allocation",
		Description: "all requests funded within available budget",
		Allocations: allocations,
	}
}

func (e *Engine) resolveStrategic(c *Conflict) Resolution {
	res := Resolution{
		Resolved:           false,
		Description:        "strategic misalignment requires executive decision",
		RequiresEscalation: true,
	}
	if ev, ok := c.Evidence.(StrategyEvidence); ok {
		for _, contradiction := range ev.Contradictions {
			res.Options = append(res.Options, contradiction.Positions...)
		}
	}
	return res
}

// AlignmentReport summarizes cross-functional alignment for a detected set.
func AlignmentReport(conflicts []Conflict) Report {
	if len(conflicts) == 0 {
		return Report{Status: StatusAligned, Message: "all workers in alignment"}
	}

	r := Report{
		Detected:   len(conflicts),
		BySeverity: make(map[Severity]int),
	}
	for _, c := range conflicts {
		r.BySeverity[c.Severity]++
		if c.Resolution == nil || !c.Resolution.Resolved {
			r.Unresolved = append(r.Unresolved, c.ID)
		}
	}

	if critical := r.BySeverity[SeverityCritical]; critical > 0 {
		r.Status = StatusNeedsResolution
		r.Message = fmt.Sprintf("%d critical conflict(s) require attention", critical)
	} else {
		r.Status = StatusMinorConflicts
		r.Message = "minor conflicts auto-resolved"
	}
	return r
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
