package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cricstats/go-cricket-metrics/internal/model"
	"github.com/cricstats/go-cricket-metrics/internal/report"
)

var (
	predictTossWinner   string
	predictTossDecision string
	predictVenue        string
)

var predictCmd = &cobra.Command{
	Use:   "predict <team1> <team2>",
	Short: "Predict the winner of a hypothetical match",
	Args:  cobra.ExactArgs(2),
	RunE:  runPredict,
}

func init() {
	predictCmd.Flags().StringVar(&predictTossWinner, "toss-winner", "", "team that won the toss (defaults to team1)")
	predictCmd.Flags().StringVar(&predictTossDecision, "toss-decision", model.TossBat, "toss decision: bat or field")
	predictCmd.Flags().StringVar(&predictVenue, "venue", "", "venue name (required)")
	predictCmd.MarkFlagRequired("venue")
}

func runPredict(cmd *cobra.Command, args []string) error {
	team1, team2 := args[0], args[1]
	tossWinner := predictTossWinner
	if tossWinner == "" {
		tossWinner = team1
	}

	p, err := openPipeline()
	if err != nil {
		return fmt.Errorf("open pipeline: %w", err)
	}
	defer p.Close()

	pred, err := p.Predict(team1, team2, tossWinner, predictTossDecision, predictVenue)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}
	report.PrintPrediction(os.Stdout, team1, team2, pred)
	return nil
}
