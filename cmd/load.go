package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cricstats/go-cricket-metrics/internal/report"
)

var loadCmd = &cobra.Command{
	Use:   "load <data-dir>",
	Short: "Load the entity CSV files from a directory into the store",
	Long: `Load matches.csv, deliveries.csv, players.csv, standings.csv, and
venues.csv (optional) from the given directory. Loads are idempotent:
re-loading the same files produces the same store contents.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	p, err := openPipeline()
	if err != nil {
		return fmt.Errorf("open pipeline: %w", err)
	}
	defer p.Close()

	results, err := p.Load(args[0])
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	fmt.Fprintf(os.Stdout, "\n=== Load Summary ===\n\n")
	report.PrintLoadSummary(os.Stdout, results)
	return nil
}
