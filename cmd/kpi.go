package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cricstats/go-cricket-metrics/internal/report"
)

var kpiTopN int

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Compute and display team and player KPIs",
	Args:  cobra.NoArgs,
	RunE:  runKPI,
}

func init() {
	kpiCmd.Flags().IntVar(&kpiTopN, "top", 10, "number of players per table")
}

func runKPI(cmd *cobra.Command, args []string) error {
	p, err := openPipeline()
	if err != nil {
		return fmt.Errorf("open pipeline: %w", err)
	}
	defer p.Close()

	r, err := p.KPIReport()
	if err != nil {
		return fmt.Errorf("compute kpis: %w", err)
	}
	if len(r.Teams) == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'cricstats load <data-dir>' first.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Team KPIs ===\n\n")
	report.PrintTeamKPIs(os.Stdout, r.Teams)
	report.PrintPlayerKPIs(os.Stdout, r.Players, kpiTopN)

	if len(r.Orphans) > 0 {
		fmt.Fprintf(os.Stdout, "\n%d referential problem(s), affected rows excluded:\n", len(r.Orphans))
		for _, o := range r.Orphans {
			fmt.Fprintf(os.Stdout, "  ! %s\n", o)
		}
	}
	return nil
}
