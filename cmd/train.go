package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cricstats/go-cricket-metrics/internal/report"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the match-winner classifier on stored matches",
	Args:  cobra.NoArgs,
	RunE:  runTrain,
}

func runTrain(cmd *cobra.Command, args []string) error {
	p, err := openPipeline()
	if err != nil {
		return fmt.Errorf("open pipeline: %w", err)
	}
	defer p.Close()

	r, err := p.Train()
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	report.PrintTrainingReport(os.Stdout, r)
	return nil
}
