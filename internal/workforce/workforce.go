// Package workforce holds the reference functional workers for the insurance
// enterprise: sales, marketing, finance, operations, support, and hiring.
// Each worker reads the enterprise data source, cites every figure it uses,
// and logs its decision to the audit trail.
package workforce

import (
	"github.com/fyrsmithlabs/directord/internal/audit"
	"github.com/fyrsmithlabs/directord/internal/worker"
)

// version reported by all reference workers.
const version = "1.0.0"

// All returns the full reference worker set keyed by worker name.
func All() map[string]worker.Worker {
	return map[string]worker.Worker{
		"sales":      NewSales(),
		"marketing":  NewMarketing(),
		"finance":    NewFinance(),
		"operations": NewOperations(),
		"support":    NewSupport(),
		"hiring":     NewHiring(),
	}
}

// generalOutput is the fallback for task kinds outside a worker's specialty:
// no recommendations, midpoint confidence.
func generalOutput(name string, task worker.Task, citations []audit.Citation) worker.Output {
	return worker.Output{
		Worker:              name,
		TaskID:              task.ID,
		TaskKind:            task.Kind,
		Summary:             "no specialized handling for this task kind",
		Confidence:          0.5,
		Citations:           citations,
		WhatWouldChangeMind: []string{"more specific task requirements provided"},
	}
}
