package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cricstats/go-cricket-metrics/internal/report"
)

var runCmd = &cobra.Command{
	Use:   "run <data-dir>",
	Short: "Run the full batch: load, compute KPIs, train",
	Long: `Execute the whole pipeline in one shot: load the entity CSVs from
the given directory, recompute the KPI snapshot, and train the
match-winner classifier. Exits non-zero on any fatal load or training
failure.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	p, err := openPipeline()
	if err != nil {
		return fmt.Errorf("open pipeline: %w", err)
	}
	defer p.Close()

	summary, err := p.Run(args[0])
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	fmt.Fprintf(os.Stdout, "\n=== Load Summary ===\n\n")
	report.PrintLoadSummary(os.Stdout, summary.Loads)

	fmt.Fprintf(os.Stdout, "\n=== Team KPIs ===\n\n")
	report.PrintTeamKPIs(os.Stdout, summary.Report.Teams)

	report.PrintTrainingReport(os.Stdout, summary.Training)
	return nil
}
