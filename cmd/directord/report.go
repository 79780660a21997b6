package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report [directive]",
	Short: "Process a directive and print its audit trail",
	Long: `Process a directive through the full pipeline and print the audit trail
it produced: every decision record with its confidence tier and integrity
status, plus the trail summary.

Examples:
  directord report
  directord report --json
  directord report "Improve customer retention by 12%"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
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
		return a.trail.ExportJSON(os.Stdout)
	}

	records := a.trail.RecordsByDirective(pkg.DirectiveID)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("Audit Trail for %s", pkg.DirectiveID))
	t.AppendHeader(table.Row{"ID", "Worker", "Kind", "Confidence", "Decision", "Integrity"})
	for _, rec := range records {
		integrity := "ok"
		if !a.trail.VerifyIntegrity(rec.ID) {
			integrity = "TAMPERED"
		}
		t.AppendRow(table.Row{rec.ID, rec.Worker, rec.Kind, rec.Confidence, rec.Decision, integrity})
	}
	t.Render()

	report := pkg.Audit
	fmt.Printf("\n%d decisions, mean confidence %.2f, %d pending approval, %d escalated\n",
		report.TotalDecisions, report.MeanConfidence, report.PendingApprovals, report.Escalated)
	fmt.Printf("Workers: %v\n", report.Workers)
	return nil
}
