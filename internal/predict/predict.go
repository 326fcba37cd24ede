// Package predict trains a tree-ensemble classifier on historical
// match feature vectors and serves winner predictions with confidence
// scores. The fitted model and its categorical encoders are persisted
// as one atomically replaced artifact.
package predict

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cricstats/go-cricket-metrics/internal/feature"
	"github.com/cricstats/go-cricket-metrics/internal/model"
)

// ErrModelNotTrained is returned by Predict before any successful
// training run has produced an artifact.
var ErrModelNotTrained = errors.New("model not trained")

// InsufficientDataError reports too few decided matches to train
// meaningfully. A failed train never touches an existing artifact.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient training data: %d matches with a winner, need at least %d", e.Have, e.Need)
}

// Options configures a Predictor.
type Options struct {
	// MinTrainMatches is the minimum number of matches with a non-null
	// winner required to train.
	MinTrainMatches int
	// HoldoutFraction of training rows held out for the accuracy
	// estimate. With fewer than minEvalRows held-out rows the estimate
	// degrades to in-sample and EvalRows records the full row count.
	HoldoutFraction float64
	Forest          ForestOptions
	ArtifactPath    string
}

// minEvalRows is the smallest holdout considered meaningful.
const minEvalRows = 5

// DefaultOptions returns the predictor defaults.
func DefaultOptions() Options {
	return Options{
		MinTrainMatches: 10,
		HoldoutFraction: 0.2,
		Forest:          DefaultForestOptions(),
	}
}

// Predictor owns at most one loaded model artifact.
// State machine: untrained → trained → (retrain) trained.
type Predictor struct {
	opts     Options
	log      *zap.Logger
	artifact *Artifact
}

// New creates a Predictor. A nil logger disables logging.
func New(opts Options, log *zap.Logger) *Predictor {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MinTrainMatches <= 0 {
		opts.MinTrainMatches = 10
	}
	if opts.HoldoutFraction <= 0 || opts.HoldoutFraction >= 1 {
		opts.HoldoutFraction = 0.2
	}
	return &Predictor{opts: opts, log: log}
}

// Load reads a previously persisted artifact from the configured path.
// Missing artifact is not an error; the predictor stays untrained.
func (p *Predictor) Load() error {
	if p.opts.ArtifactPath == "" {
		return nil
	}
	a, err := LoadArtifact(p.opts.ArtifactPath)
	if err != nil {
		return err
	}
	if a == nil {
		return nil
	}
	if err := checkFeatureNames(a.FeatureNames); err != nil {
		return err
	}
	p.artifact = a
	p.log.Info("model artifact loaded",
		zap.String("version", a.Version),
		zap.Time("created_at", a.CreatedAt))
	return nil
}

// Trained reports whether a model artifact is loaded.
func (p *Predictor) Trained() bool {
	return p.artifact != nil
}

// Version returns the loaded artifact's model version, empty if untrained.
func (p *Predictor) Version() string {
	if p.artifact == nil {
		return ""
	}
	return p.artifact.Version
}

// Train builds one feature vector and label per decided historical
// match, fits the forest, evaluates on a deterministic holdout, refits
// on all rows, and atomically publishes the new artifact.
func (p *Predictor) Train(matches []model.Match, b *feature.Builder) (*model.TrainingReport, error) {
	var (
		X [][]float64
		y []int
	)
	decided := 0
	for _, m := range matches {
		if !m.HasWinner() {
			continue
		}
		decided++
		vec, err := b.Build(m.Team1, m.Team2, m.TossWinner, m.TossDecision, m.Venue)
		if err != nil {
			p.log.Warn("training row skipped", zap.Int("match", m.ID), zap.Error(err))
			continue
		}
		label := 0
		if m.Winner == m.Team1 {
			label = 1
		}
		X = append(X, vec)
		y = append(y, label)
	}
	if decided < p.opts.MinTrainMatches {
		return nil, &InsufficientDataError{Have: decided, Need: p.opts.MinTrainMatches}
	}
	if len(X) < p.opts.MinTrainMatches {
		return nil, &InsufficientDataError{Have: len(X), Need: p.opts.MinTrainMatches}
	}

	// Deterministic shuffle, then hold out the tail for evaluation.
	rng := rand.New(rand.NewSource(p.opts.Forest.Seed))
	order := rng.Perm(len(X))
	sX := make([][]float64, len(X))
	sy := make([]int, len(y))
	for i, j := range order {
		sX[i], sy[i] = X[j], y[j]
	}

	evalN := int(float64(len(sX)) * p.opts.HoldoutFraction)
	var accuracy float64
	var evalRows int
	if evalN >= minEvalRows {
		trainX, trainY := sX[:len(sX)-evalN], sy[:len(sy)-evalN]
		evalX, evalY := sX[len(sX)-evalN:], sy[len(sy)-evalN:]
		f := FitForest(trainX, trainY, p.opts.Forest)
		accuracy = accuracyOf(f, evalX, evalY)
		evalRows = evalN
	}

	// Final model is fit on everything.
	f := FitForest(sX, sy, p.opts.Forest)
	if evalRows == 0 {
		accuracy = accuracyOf(f, sX, sy)
		evalRows = len(sX)
	}

	artifact := &Artifact{
		Version:      uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		FeatureNames: feature.Names,
		Encoders:     buildEncoders(b),
		Forest:       f,
	}
	if p.opts.ArtifactPath != "" {
		if err := SaveArtifact(p.opts.ArtifactPath, artifact); err != nil {
			return nil, err
		}
	}
	p.artifact = artifact

	importances := make(map[string]float64, len(feature.Names))
	for i, name := range feature.Names {
		importances[name] = f.Importances[i]
	}
	report := &model.TrainingReport{
		ModelVersion:       artifact.Version,
		Accuracy:           accuracy,
		TrainRows:          len(sX),
		EvalRows:           evalRows,
		FeatureImportances: importances,
	}
	p.log.Info("model trained",
		zap.String("version", report.ModelVersion),
		zap.Float64("accuracy", report.Accuracy),
		zap.Int("train_rows", report.TrainRows),
		zap.Int("eval_rows", report.EvalRows))
	return report, nil
}

// Predict names the winner of a hypothetical matchup with the class
// probability of the predicted label. The result is label-symmetric:
// the forest is evaluated on the vector and its mirror and the two
// probabilities are averaged, so swapping team1/team2 (holding the real
// toss outcome fixed) names the same winner with the same confidence.
func (p *Predictor) Predict(b *feature.Builder, team1, team2, tossWinner, tossDecision, venue string) (*model.Prediction, error) {
	if p.artifact == nil {
		return nil, ErrModelNotTrained
	}
	vec, err := b.Build(team1, team2, tossWinner, tossDecision, venue)
	if err != nil {
		return nil, err
	}
	if err := p.artifact.Encoders.Knows(team1, team2, venue, tossDecision); err != nil {
		return nil, err
	}

	pTeam1 := (p.artifact.Forest.PredictProb(vec) + 1 - p.artifact.Forest.PredictProb(vec.Mirror())) / 2

	winner, confidence := team1, pTeam1
	if pTeam1 < 0.5 {
		winner, confidence = team2, 1-pTeam1
	} else if pTeam1 == 0.5 && team2 < team1 {
		// Exact tie: break by name so relabeled calls agree.
		winner = team2
	}
	return &model.Prediction{Winner: winner, Confidence: confidence}, nil
}

func accuracyOf(f *Forest, X [][]float64, y []int) float64 {
	if len(X) == 0 {
		return 0
	}
	correct := 0
	for i, x := range X {
		label := 0
		if f.PredictProb(x) >= 0.5 {
			label = 1
		}
		if label == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(X))
}

func buildEncoders(b *feature.Builder) Encoders {
	enc := Encoders{
		Teams:         make(map[string]int),
		Venues:        make(map[string]int),
		TossDecisions: map[string]int{model.TossBat: 0, model.TossField: 1},
	}
	for i, t := range b.Teams() {
		enc.Teams[t] = i
	}
	for i, v := range b.Venues() {
		enc.Venues[v] = i
	}
	return enc
}

func checkFeatureNames(names []string) error {
	if len(names) != len(feature.Names) {
		return fmt.Errorf("artifact has %d features, this build expects %d; retrain", len(names), len(feature.Names))
	}
	for i, n := range names {
		if n != feature.Names[i] {
			return fmt.Errorf("artifact feature %d is %q, this build expects %q; retrain", i, n, feature.Names[i])
		}
	}
	return nil
}
