package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/directord/internal/orchestrator"
)

var runCmd = &cobra.Command{
	Use:   "run [directive]",
	Short: "Process a directive and print the decision package",
	Long: `Process a directive through the full pipeline and print the resulting
decision package.

Examples:
  # Run the reference retention directive
  directord run

  # Run a custom directive
  directord run "Improve customer retention by 12% within budget"

  # Emit the package as JSON
  directord run --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	pkg, err := a.orch.ProcessDirective(cmd.Context(), directiveArg(args))
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pkg)
	}

	renderPackage(pkg)
	return nil
}

func renderPackage(pkg *orchestrator.DecisionPackage) {
	fmt.Printf("Directive %s: %s\n", pkg.DirectiveID, pkg.Intent.Prompt)
	fmt.Printf("Objective %s, target %.0f%%, constraint: %s\n\n",
		pkg.Intent.Objective, pkg.Intent.TargetValue*100, pkg.Intent.Constraint)

	plans := table.NewWriter()
	plans.SetOutputMirror(os.Stdout)
	plans.SetStyle(table.StyleLight)
	plans.SetTitle("Department Plans")
	plans.AppendHeader(table.Row{"Worker", "Summary", "Budget", "FTE", "Days", "Confidence"})
	for _, p := range pkg.Plans {
		summary := p.Summary
		if p.Degraded {
			summary = text.FgRed.Sprint(summary)
		}
		plans.AppendRow(table.Row{
			p.Worker, summary,
			fmt.Sprintf("$%.0f", p.BudgetImpact),
			p.HeadcountImpact, p.TimelineDays,
			fmt.Sprintf("%.2f", p.Confidence),
		})
	}
	plans.AppendFooter(table.Row{
		"total", "",
		fmt.Sprintf("$%.0f", pkg.TotalBudget),
		pkg.TotalHeadcount, pkg.TimelineDays, "",
	})
	plans.Render()

	options := table.NewWriter()
	options.SetOutputMirror(os.Stdout)
	options.SetStyle(table.StyleLight)
	options.SetTitle("Strategic Options")
	options.AppendHeader(table.Row{"Option", "Budget", "FTE", "Days", "Risk", ""})
	for _, opt := range pkg.Options {
		marker := ""
		if opt.Name == pkg.Recommended {
			marker = text.FgGreen.Sprint("recommended")
		}
		options.AppendRow(table.Row{
			opt.Name,
			fmt.Sprintf("$%.0f", opt.Budget),
			opt.Headcount, opt.TimelineDays, opt.RiskLevel, marker,
		})
	}
	options.Render()

	fmt.Printf("\nAlignment: %s", pkg.Alignment.Status)
	if pkg.Alignment.Message != "" {
		fmt.Printf(" (%s)", pkg.Alignment.Message)
	}
	fmt.Println()

	if len(pkg.Escalations) > 0 {
		esc := table.NewWriter()
		esc.SetOutputMirror(os.Stdout)
		esc.SetStyle(table.StyleLight)
		esc.SetTitle("Escalations")
		esc.AppendHeader(table.Row{"Worker", "Reason", "Request"})
		for _, e := range pkg.Escalations {
			esc.AppendRow(table.Row{e.Worker, e.Reason, e.RequestID})
		}
		esc.Render()
	}

	if len(pkg.KPIs) > 0 {
		fmt.Println("\nKPIs:")
		for _, k := range pkg.KPIs {
			fmt.Printf("  - %s: %s to %s (%s)\n", k.Name, k.Current, k.Target, k.Measurement)
		}
	}

	fmt.Printf("\nAudit: %d decisions, mean confidence %.2f, %d escalated\n",
		pkg.Audit.TotalDecisions, pkg.Audit.MeanConfidence, pkg.Audit.Escalated)
}
