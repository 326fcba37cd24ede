// Package pipeline wires the loader, KPI engine, feature builder, and
// predictor around one store handle and one optional loaded model, so
// independent pipelines can run without shared hidden state.
package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cricstats/go-cricket-metrics/internal/feature"
	"github.com/cricstats/go-cricket-metrics/internal/kpi"
	"github.com/cricstats/go-cricket-metrics/internal/loader"
	"github.com/cricstats/go-cricket-metrics/internal/model"
	"github.com/cricstats/go-cricket-metrics/internal/predict"
	"github.com/cricstats/go-cricket-metrics/internal/storage"
)

// Config configures one pipeline instance.
type Config struct {
	DBPath       string
	ArtifactPath string
	// MaxSkipRate is the loader's abort threshold; 0 means the default.
	MaxSkipRate float64
	// MinTrainMatches overrides the predictor minimum; 0 means the default.
	MinTrainMatches int
	Logger          *zap.Logger
}

// Pipeline owns one store handle and one optional loaded model.
type Pipeline struct {
	db        *storage.DB
	loader    *loader.Loader
	engine    *kpi.Engine
	predictor *predict.Predictor
	log       *zap.Logger
}

// Open opens the store, builds all components, and loads a previously
// trained model artifact when one exists.
func Open(cfg Config) (*Pipeline, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	loadOpts := loader.DefaultOptions()
	loadOpts.Logger = log
	if cfg.MaxSkipRate > 0 {
		loadOpts.MaxSkipRate = cfg.MaxSkipRate
	}

	predOpts := predict.DefaultOptions()
	predOpts.ArtifactPath = cfg.ArtifactPath
	if cfg.MinTrainMatches > 0 {
		predOpts.MinTrainMatches = cfg.MinTrainMatches
	}

	p := &Pipeline{
		db:        db,
		loader:    loader.New(db, loadOpts),
		engine:    kpi.New(db, log),
		predictor: predict.New(predOpts, log),
		log:       log,
	}
	if err := p.predictor.Load(); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

// Close releases the store handle.
func (p *Pipeline) Close() error {
	return p.db.Close()
}

// DB exposes the store handle for read-only consumers.
func (p *Pipeline) DB() *storage.DB {
	return p.db
}

// ModelVersion returns the loaded model version, empty if untrained.
func (p *Pipeline) ModelVersion() string {
	return p.predictor.Version()
}

// Load runs the ETL over a data directory.
func (p *Pipeline) Load(dir string) ([]loader.LoadResult, error) {
	return p.loader.LoadDir(dir)
}

// Loader exposes the ETL component.
func (p *Pipeline) Loader() *loader.Loader {
	return p.loader
}

// KPIReport recomputes the KPI snapshot from current store contents.
func (p *Pipeline) KPIReport() (*model.KPIReport, error) {
	return p.engine.ComputeReport()
}

// Builder derives a feature builder from the current snapshot.
func (p *Pipeline) Builder() (*feature.Builder, error) {
	report, err := p.engine.ComputeReport()
	if err != nil {
		return nil, err
	}
	matches, err := p.db.ListMatches()
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return feature.NewBuilder(report, matches), nil
}

// Train fits the classifier on all stored decided matches.
func (p *Pipeline) Train() (*model.TrainingReport, error) {
	matches, err := p.db.ListMatches()
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	b, err := p.Builder()
	if err != nil {
		return nil, err
	}
	return p.predictor.Train(matches, b)
}

// Predict serves one winner prediction from the loaded model.
func (p *Pipeline) Predict(team1, team2, tossWinner, tossDecision, venue string) (*model.Prediction, error) {
	b, err := p.Builder()
	if err != nil {
		return nil, err
	}
	return p.predictor.Predict(b, team1, team2, tossWinner, tossDecision, venue)
}

// RunSummary is the output of one batch Run.
type RunSummary struct {
	Loads    []loader.LoadResult
	Report   *model.KPIReport
	Training *model.TrainingReport
}

// Run executes the batch: ETL, KPI snapshot, then training.
func (p *Pipeline) Run(dir string) (*RunSummary, error) {
	loads, err := p.Load(dir)
	if err != nil {
		return nil, err
	}
	report, err := p.KPIReport()
	if err != nil {
		return nil, err
	}
	training, err := p.Train()
	if err != nil {
		return nil, err
	}
	return &RunSummary{Loads: loads, Report: report, Training: training}, nil
}
