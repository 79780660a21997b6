// Package orchestrator coordinates a directive end to end: intent parsing,
// task decomposition, concurrent worker dispatch, conflict resolution,
// governance checks, and assembly of the final decision package.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/directord/internal/audit"
	"github.com/fyrsmithlabs/directord/internal/conflict"
	"github.com/fyrsmithlabs/directord/internal/enterprise"
	"github.com/fyrsmithlabs/directord/internal/governance"
	"github.com/fyrsmithlabs/directord/internal/intent"
	"github.com/fyrsmithlabs/directord/internal/state"
	"github.com/fyrsmithlabs/directord/internal/worker"
)

const instrumentationName = "github.com/fyrsmithlabs/directord/internal/orchestrator"

// orchestratorName identifies the orchestrator as an actor in the audit
// trail and the governance authority model.
const orchestratorName = "orchestrator"

// Config scales the strategic options offered in every decision package.
type Config struct {
	PhasedBudgetShare  float64
	PhasedTimelineDays int
	MVPBudgetShare     float64
	MVPTimelineDays    int
}

// DefaultConfig returns the reference option scaling.
func DefaultConfig() *Config {
	return &Config{
		PhasedBudgetShare:  0.60,
		PhasedTimelineDays: 180,
		MVPBudgetShare:     0.30,
		MVPTimelineDays:    45,
	}
}

// Deps are the collaborators an orchestrator is built from. All construction
// is explicit; there are no package-level instances.
type Deps struct {
	Store      *state.Store
	Trail      *audit.Trail
	Conflicts  *conflict.Engine
	Governance *governance.Engine
	Parser     intent.Parser
	Data       *enterprise.DataSource
	Workers    map[string]worker.Worker
}

// Orchestrator runs directives through the staged pipeline. Directive
// bookkeeping runs under a single lock; worker dispatch does not hold it.
type Orchestrator struct {
	mu         sync.Mutex
	cfg        *Config
	store      *state.Store
	trail      *audit.Trail
	conflicts  *conflict.Engine
	gov        *governance.Engine
	parser     intent.Parser
	data       *enterprise.DataSource
	workers    map[string]worker.Worker
	directives map[string]*Directive
	order      []string
	counter    int

	logger           *zap.Logger
	tracer           trace.Tracer
	directiveCounter metric.Int64Counter
}

// New creates an orchestrator. Every dependency in deps is required.
func New(cfg *Config, deps Deps, logger *zap.Logger) (*Orchestrator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	switch {
	case deps.Store == nil:
		return nil, fmt.Errorf("orchestrator: state store is required")
	case deps.Trail == nil:
		return nil, fmt.Errorf("orchestrator: audit trail is required")
	case deps.Conflicts == nil:
		return nil, fmt.Errorf("orchestrator: conflict engine is required")
	case deps.Governance == nil:
		return nil, fmt.Errorf("orchestrator: governance engine is required")
	case deps.Parser == nil:
		return nil, fmt.Errorf("orchestrator: intent parser is required")
	case deps.Data == nil:
		return nil, fmt.Errorf("orchestrator: enterprise data source is required")
	case len(deps.Workers) == 0:
		return nil, fmt.Errorf("orchestrator: at least one worker is required")
	}

	o := &Orchestrator{
		cfg:        cfg,
		store:      deps.Store,
		trail:      deps.Trail,
		conflicts:  deps.Conflicts,
		gov:        deps.Governance,
		parser:     deps.Parser,
		data:       deps.Data,
		workers:    deps.Workers,
		directives: make(map[string]*Directive),
		logger:     logger,
		tracer:     otel.Tracer(instrumentationName),
	}

	meter := otel.Meter(instrumentationName)
	var err error
	o.directiveCounter, err = meter.Int64Counter(
		"directord.orchestrator.directives_total",
		metric.WithDescription("Directives processed to completion"),
		metric.WithUnit("{directive}"),
	)
	if err != nil {
		logger.Warn("failed to create directive counter", zap.Error(err))
	}

	return o, nil
}

// SeedEnterprise registers the company goal and the per-department budget
// constraints derived from the enterprise data source. Budget constraints
// are soft: overruns surface as conflicts, not hard rejections.
func (o *Orchestrator) SeedEnterprise() {
	current := o.data.RetentionRate()
	o.store.AddGoal(state.Goal{
		ID:           "GOAL-001",
		Description:  "Improve customer retention rate",
		TargetValue:  0.92,
		CurrentValue: current,
		Unit:         "rate",
		Deadline:     time.Now().AddDate(0, 0, 90),
		Owner:        orchestratorName,
		Status:       state.GoalActive,
		AssociatedWorkers: []string{
			"sales", "marketing", "finance", "operations", "support", "hiring",
		},
		KeyResults: []state.KeyResult{
			{Description: "Reduce churn rate", Target: 0.08, Current: 1 - current},
			{Description: "Raise NPS", Target: 45, Current: 32},
		},
	})

	for _, b := range o.data.BudgetStatus() {
		o.store.AddConstraint(state.Constraint{
			ID:           "BUDGET-" + b.Department,
			Category:     state.CategoryBudget,
			Description:  fmt.Sprintf("%s annual budget", b.Department),
			LimitValue:   b.Annual,
			CurrentUsage: b.Spent,
			Unit:         "usd",
			HardLimit:    false,
			Owner:        b.Department,
		})
	}
}

// retentionTasks maps each worker to its task in the retention program.
var retentionTasks = map[string]worker.TaskKind{
	"sales":      worker.TaskRetentionStrategy,
	"marketing":  worker.TaskRetentionCampaign,
	"finance":    worker.TaskBudgetPlanning,
	"operations": worker.TaskProcessOptimization,
	"support":    worker.TaskChurnAnalysis,
	"hiring":     worker.TaskHiringPlan,
}

// ProcessDirective runs one directive through every stage and returns the
// decision package. Worker failures degrade their slice of the package
// instead of failing the directive.
func (o *Orchestrator) ProcessDirective(ctx context.Context, text string) (*DecisionPackage, error) {
	d := o.register(text)

	ctx, span := o.tracer.Start(ctx, "orchestrator.process_directive",
		trace.WithAttributes(attribute.String("directive_id", d.ID)))
	defer span.End()

	o.store.Store(state.KindContext, orchestratorName, state.ContextPayload{
		Message: "directive received",
		Detail:  text,
	}, state.StoreOptions{Priority: state.PriorityHigh, Tags: []string{"directive", d.ID}})

	in, err := o.parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse directive %s: %w", d.ID, err)
	}
	if err := o.advance(d.ID, StageIntentParsed, func(dir *Directive) { dir.Intent = in }); err != nil {
		return nil, err
	}

	tasks, assignees := o.decompose(d.ID, in)
	if err := o.advance(d.ID, StageTasksDispatched, nil); err != nil {
		return nil, err
	}

	outputs := o.dispatch(ctx, tasks, assignees)
	for _, out := range outputs {
		o.store.Store(state.KindWorkerOutput, out.Worker, state.OutputPayload{
			Worker:          out.Worker,
			TaskID:          out.TaskID,
			TaskKind:        string(out.TaskKind),
			Confidence:      out.Confidence,
			BudgetImpact:    out.BudgetImpact,
			HeadcountImpact: out.HeadcountImpact,
			Summary:         out.Summary,
			Risks:           out.Risks,
		}, state.StoreOptions{Tags: []string{"output", d.ID}})
	}
	if err := o.advance(d.ID, StageOutputsCollected, nil); err != nil {
		return nil, err
	}

	// Resolve annotates the detected conflicts in place; the package and the
	// alignment report see all of them, escalation only the unresolved ones.
	detected := o.conflicts.Detect(ctx, outputs, conflict.Inputs{
		DepartmentBudgets: o.departmentBudgets(),
	})
	unresolved, resolutions := o.conflicts.Resolve(ctx, detected)
	if err := o.advance(d.ID, StageConflictsResolved, nil); err != nil {
		return nil, err
	}

	escalations := o.checkGovernance(d.ID, outputs, unresolved)
	if err := o.advance(d.ID, StageGovernanceChecked, nil); err != nil {
		return nil, err
	}

	pkg := o.assemble(d.ID, in, outputs, detected, resolutions, escalations)
	if err := o.advance(d.ID, StageFinalized, nil); err != nil {
		return nil, err
	}

	o.store.Store(state.KindDecision, orchestratorName, state.DecisionPayload{
		DirectiveID: d.ID,
		Summary:     fmt.Sprintf("decision package: $%.0f, %d FTE, %d days, %s recommended", pkg.TotalBudget, pkg.TotalHeadcount, pkg.TimelineDays, pkg.Recommended),
		Detail:      pkg,
	}, state.StoreOptions{Priority: state.PriorityHigh, Tags: []string{"decision", d.ID}})

	if o.directiveCounter != nil {
		o.directiveCounter.Add(ctx, 1,
			metric.WithAttributes(attribute.String("objective", in.Objective)))
	}
	o.logger.Info("directive finalized",
		zap.String("directive_id", d.ID),
		zap.Float64("total_budget", pkg.TotalBudget),
		zap.Int("total_headcount", pkg.TotalHeadcount),
		zap.Int("escalations", len(pkg.Escalations)),
		zap.String("alignment", string(pkg.Alignment.Status)))

	return pkg, nil
}

// register creates the directive record in the received stage.
func (o *Orchestrator) register(text string) Directive {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.counter++
	d := &Directive{
		ID:        fmt.Sprintf("DIR-%03d", o.counter),
		Text:      text,
		Stage:     StageReceived,
		CreatedAt: time.Now(),
	}
	o.directives[d.ID] = d
	o.order = append(o.order, d.ID)
	return *d
}

// advance moves a directive forward one stage, applying mutate first.
func (o *Orchestrator) advance(id string, next Stage, mutate func(*Directive)) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	d, ok := o.directives[id]
	if !ok {
		return fmt.Errorf("orchestrator: unknown directive %s", id)
	}
	if mutate != nil {
		mutate(d)
	}
	return d.advance(next)
}

// Directive returns a copy of the directive record.
func (o *Orchestrator) Directive(id string) (Directive, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	d, ok := o.directives[id]
	if !ok {
		return Directive{}, fmt.Errorf("orchestrator: unknown directive %s", id)
	}
	return *d, nil
}

// Directives returns all directive records, oldest first.
func (o *Orchestrator) Directives() []Directive {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Directive, 0, len(o.order))
	for _, id := range o.order {
		out = append(out, *o.directives[id])
	}
	return out
}

// decompose turns an intent into one task per affected worker, returning
// tasks and their assignees index-aligned. Retention directives get the
// specialty task for each worker; anything else gets a general task.
func (o *Orchestrator) decompose(directiveID string, in intent.Intent) ([]worker.Task, []string) {
	names := make([]string, 0, len(in.AffectedWorkers))
	for _, name := range in.AffectedWorkers {
		if _, ok := o.workers[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	tasks := make([]worker.Task, 0, len(names))
	for i, name := range names {
		kind := worker.TaskGeneral
		if in.Objective == intent.ObjectiveImproveRetention {
			if k, ok := retentionTasks[name]; ok {
				kind = k
			}
		}
		tasks = append(tasks, worker.Task{
			ID:          fmt.Sprintf("%s-T%02d", directiveID, i+1),
			Kind:        kind,
			DirectiveID: directiveID,
			Description: in.Prompt,
			Objective:   in.Objective,
			Metric:      in.Metric,
			Target:      in.TargetValue,
			Constraints: []string{in.Constraint},
			Priority:    state.PriorityHigh,
		})
	}
	return tasks, names
}

// dispatch runs every task concurrently and collects the outputs in task
// order. A worker error or panic becomes a degraded output.
func (o *Orchestrator) dispatch(ctx context.Context, tasks []worker.Task, assignees []string) []worker.Output {
	outputs := make([]worker.Output, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task worker.Task, w worker.Worker) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					o.logger.Error("worker panicked",
						zap.String("worker", w.Name()),
						zap.String("task_id", task.ID),
						zap.Any("panic", r))
					outputs[i] = worker.Degraded(w.Name(), task, fmt.Errorf("panic: %v", r))
				}
			}()

			out, err := w.Process(ctx, task, o.store, o.data, o.trail)
			if err != nil {
				o.logger.Warn("worker failed",
					zap.String("worker", w.Name()),
					zap.String("task_id", task.ID),
					zap.Error(err))
				outputs[i] = worker.Degraded(w.Name(), task, err)
				return
			}
			outputs[i] = out
		}(i, task, o.workers[assignees[i]])
	}
	wg.Wait()

	return outputs
}

// departmentBudgets reads the seeded budget constraints keyed by department.
func (o *Orchestrator) departmentBudgets() map[string]state.Constraint {
	budgets := make(map[string]state.Constraint)
	for _, c := range o.store.ConstraintsByCategory(state.CategoryBudget) {
		budgets[c.Owner] = c
	}
	return budgets
}

// checkGovernance applies the escalation rules to every output and records
// each hit as an audit escalation plus a pending approval request. Unresolved
// conflicts flagged for escalation are recorded against the orchestrator.
func (o *Orchestrator) checkGovernance(directiveID string, outputs []worker.Output, unresolved []conflict.Conflict) []Escalation {
	var escalations []Escalation

	for _, out := range outputs {
		escalate, reason := o.gov.ShouldEscalate(out)
		if !escalate {
			continue
		}
		req := o.gov.RequestApproval(out.Worker, "escalation",
			fmt.Sprintf("%s: %s", out.Summary, reason), out.BudgetImpact,
			map[string]string{"directive_id": directiveID, "task_id": out.TaskID})
		o.trail.LogDecision(audit.LogRequest{
			Worker:          orchestratorName,
			WorkerVersion:   "1.0.0",
			Kind:            audit.KindEscalation,
			DirectiveID:     directiveID,
			Decision:        fmt.Sprintf("Escalate %s output for executive review", out.Worker),
			Rationale:       reason,
			ConfidenceScore: out.Confidence,
			EscalatedTo:     "executive",
		})
		escalations = append(escalations, Escalation{
			Worker:    out.Worker,
			Reason:    reason,
			RequestID: req.ID,
		})
	}

	for _, c := range unresolved {
		if c.Resolution == nil || !c.Resolution.RequiresEscalation {
			continue
		}
		o.trail.LogDecision(audit.LogRequest{
			Worker:          orchestratorName,
			WorkerVersion:   "1.0.0",
			Kind:            audit.KindEscalation,
			DirectiveID:     directiveID,
			Decision:        fmt.Sprintf("Escalate unresolved %s conflict %s", c.Kind, c.ID),
			Rationale:       c.Description,
			ConfidenceScore: 0.5,
			EscalatedTo:     "executive",
		})
		escalations = append(escalations, Escalation{
			Worker: orchestratorName,
			Reason: fmt.Sprintf("unresolved %s conflict: %s", c.Kind, c.Description),
		})
	}

	return escalations
}

// assemble builds the decision package from everything the pipeline produced
// and logs the final strategy decision.
func (o *Orchestrator) assemble(directiveID string, in intent.Intent, outputs []worker.Output,
	conflicts []conflict.Conflict, resolutions conflict.Summary, escalations []Escalation) *DecisionPackage {

	plans := make([]DepartmentPlan, 0, len(outputs))
	budgetByDept := make(map[string]float64)
	headcountByDept := make(map[string]int)
	var totalBudget float64
	var totalHeadcount, timeline int
	var confidenceSum float64
	var risks, deps, assumptions []string

	for _, out := range outputs {
		plan := DepartmentPlan{
			Worker:          out.Worker,
			Summary:         out.Summary,
			Confidence:      out.Confidence,
			BudgetImpact:    out.BudgetImpact,
			HeadcountImpact: out.HeadcountImpact,
			TimelineDays:    out.TimelineDays,
			Degraded:        out.Degraded,
		}
		if len(out.Recommendations) > 0 {
			plan.TopRecommendation = out.Recommendations[0].Title
		}
		plans = append(plans, plan)

		budgetByDept[out.Worker] += out.BudgetImpact
		headcountByDept[out.Worker] += out.HeadcountImpact
		totalBudget += out.BudgetImpact
		totalHeadcount += out.HeadcountImpact
		if out.TimelineDays > timeline {
			timeline = out.TimelineDays
		}
		confidenceSum += out.Confidence
		risks = append(risks, out.Risks...)
		deps = append(deps, out.Dependencies...)
		assumptions = append(assumptions, out.Assumptions...)
	}

	options := []StrategicOption{
		{
			Name:         "full_program",
			Description:  "Execute every department plan at full scale in parallel",
			Budget:       totalBudget,
			Headcount:    totalHeadcount,
			TimelineDays: timeline,
			RiskLevel:    "medium",
		},
		{
			Name:         "phased_rollout",
			Description:  "Start with the highest-impact initiatives, expand on results",
			Budget:       totalBudget * o.cfg.PhasedBudgetShare,
			Headcount:    int(float64(totalHeadcount) * o.cfg.PhasedBudgetShare),
			TimelineDays: o.cfg.PhasedTimelineDays,
			RiskLevel:    "low",
		},
		{
			Name:         "minimum_viable",
			Description:  "Quick wins only: outreach, win-back, and claims acceleration",
			Budget:       totalBudget * o.cfg.MVPBudgetShare,
			Headcount:    int(float64(totalHeadcount) * o.cfg.MVPBudgetShare),
			TimelineDays: o.cfg.MVPTimelineDays,
			RiskLevel:    "high",
		},
	}

	current := o.data.RetentionRate()
	cac := o.data.CAC()
	tickets := o.data.TicketSummary()
	kpis := []KPI{
		{
			Name:        "Retention Rate",
			Current:     fmt.Sprintf("%.0f%%", current*100),
			Target:      fmt.Sprintf("%.0f%%", (current+in.TargetValue)*100),
			Measurement: "Quarterly cohort analysis",
		},
		{
			Name:        "Churn Rate",
			Current:     fmt.Sprintf("%.0f%%", (1-current)*100),
			Target:      fmt.Sprintf("%.0f%%", (1-current-in.TargetValue)*100),
			Measurement: "Monthly tracking",
		},
		{
			Name:        "Customer Satisfaction (NPS)",
			Current:     "32",
			Target:      "45",
			Measurement: "Monthly surveys",
		},
		{
			Name:        "Support Resolution Time",
			Current:     fmt.Sprintf("%.1f hours", tickets.AvgResolutionHours),
			Target:      "12 hours",
			Measurement: "Weekly average",
		},
		{
			Name:        "CAC",
			Current:     fmt.Sprintf("$%.0f", cac),
			Target:      fmt.Sprintf("$%.0f (maintain)", cac),
			Measurement: "Monthly blended CAC",
		},
	}

	meanConfidence := 0.0
	if len(outputs) > 0 {
		meanConfidence = confidenceSum / float64(len(outputs))
	}

	o.trail.LogDecision(audit.LogRequest{
		Worker:          orchestratorName,
		WorkerVersion:   "1.0.0",
		Kind:            audit.KindStrategy,
		DirectiveID:     directiveID,
		Decision:        fmt.Sprintf("Recommend phased rollout: $%.0f, %d FTE, %d days", options[1].Budget, options[1].Headcount, options[1].TimelineDays),
		Rationale:       "Phased rollout caps downside while the highest-impact initiatives prove out; full program remains available on early results.",
		ConfidenceScore: meanConfidence,
		DataSources:     []string{"worker_outputs"},
	})

	return &DecisionPackage{
		DirectiveID:           directiveID,
		Intent:                in,
		GeneratedAt:           time.Now(),
		Plans:                 plans,
		TotalBudget:           totalBudget,
		TotalHeadcount:        totalHeadcount,
		TimelineDays:          timeline,
		BudgetByDepartment:    budgetByDept,
		HeadcountByDepartment: headcountByDept,
		Options:               options,
		Recommended:           "phased_rollout",
		Risks:                 dedup(risks),
		Dependencies:          dedup(deps),
		Assumptions:           dedup(assumptions),
		KPIs:                  kpis,
		Conflicts:             conflicts,
		Resolutions:           resolutions,
		Alignment:             conflict.AlignmentReport(conflicts),
		Escalations:           escalations,
		Approvals:             o.gov.ApprovalSummary(),
		Audit:                 o.trail.GenerateReport(audit.ReportFilter{DirectiveID: directiveID}),
	}
}

// dedup removes duplicates preserving first-seen order.
func dedup(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
