package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cricstats/go-cricket-metrics/internal/pipeline"
)

var (
	dbPath      string
	modelPath   string
	maxSkipRate float64
	minTrain    int
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "cricstats",
	Short: "Cricket match analytics tool",
	Long:  "Load tabular cricket-match data, compute team/player KPIs, and predict match winners.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultDB := filepath.Join(mustUserHome(), ".cricstats", "cricket.db")
	defaultModel := filepath.Join(mustUserHome(), ".cricstats", "model.json")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&modelPath, "model", defaultModel, "path to model artifact")
	rootCmd.PersistentFlags().Float64Var(&maxSkipRate, "max-skip-rate", 0, "abort a table load at this skipped-row fraction (default 1.0)")
	rootCmd.PersistentFlags().IntVar(&minTrain, "min-train-matches", 0, "minimum decided matches required to train (default 10)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable structured debug logging")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(kpiCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(summaryCmd)
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// openPipeline creates the db directory if needed and opens a pipeline
// with the shared flags applied.
func openPipeline() (*pipeline.Pipeline, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	log := zap.NewNop()
	if verbose {
		var err error
		log, err = zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}
	return pipeline.Open(pipeline.Config{
		DBPath:          dbPath,
		ArtifactPath:    modelPath,
		MaxSkipRate:     maxSkipRate,
		MinTrainMatches: minTrain,
		Logger:          log,
	})
}
