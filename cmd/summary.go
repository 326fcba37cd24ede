package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cricstats/go-cricket-metrics/internal/report"
	"github.com/cricstats/go-cricket-metrics/internal/storage"
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate statistics about the stored dataset: row counts per
table, team count, date range, and the current standings.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	ov, err := db.GetOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.Matches == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'cricstats load <data-dir>' first.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(os.Stdout, "  Matches      : %d (%d with a result)\n", ov.Matches, ov.WithWinner)
	fmt.Fprintf(os.Stdout, "  Deliveries   : %d\n", ov.Deliveries)
	fmt.Fprintf(os.Stdout, "  Players      : %d\n", ov.Players)
	fmt.Fprintf(os.Stdout, "  Venues       : %d\n", ov.Venues)
	fmt.Fprintf(os.Stdout, "  Teams        : %d\n", ov.Teams)
	fmt.Fprintf(os.Stdout, "  Date range   : %s → %s\n", ov.FirstDate, ov.LastDate)

	standings, err := db.ListStandings()
	if err != nil {
		return fmt.Errorf("list standings: %w", err)
	}
	if len(standings) > 0 {
		fmt.Fprintf(os.Stdout, "\n--- Standings ---\n\n")
		report.PrintStandings(os.Stdout, standings)
	}
	return nil
}
