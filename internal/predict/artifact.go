package predict

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Encoders holds the categorical levels the model was trained with.
// They are persisted inside the artifact, never as a separate file, so
// model and encoders can never drift apart.
type Encoders struct {
	Teams         map[string]int `json:"teams"`
	Venues        map[string]int `json:"venues"`
	TossDecisions map[string]int `json:"toss_decisions"`
}

// Knows reports whether every categorical input was present at training.
func (e *Encoders) Knows(team1, team2, venue, tossDecision string) error {
	if _, ok := e.TossDecisions[tossDecision]; !ok {
		return fmt.Errorf("toss decision %q was not seen at training", tossDecision)
	}
	for _, team := range []string{team1, team2} {
		if _, ok := e.Teams[team]; !ok {
			return fmt.Errorf("team %q was not seen at training; retrain before predicting it", team)
		}
	}
	if _, ok := e.Venues[venue]; !ok {
		return fmt.Errorf("venue %q was not seen at training; retrain before predicting it", venue)
	}
	return nil
}

// Artifact is the single persisted training output: fitted forest plus
// its encoders, keyed by a model version.
type Artifact struct {
	Version      string    `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	FeatureNames []string  `json:"feature_names"`
	Encoders     Encoders  `json:"encoders"`
	Forest       *Forest   `json:"forest"`
}

// SaveArtifact publishes the artifact atomically: it is written to a
// temp file in the target directory and renamed into place, so readers
// see either the old model or the new one in full, never a partial file.
func SaveArtifact(path string, a *Artifact) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*.json")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}

// LoadArtifact reads a previously saved artifact. Returns (nil, nil)
// when no artifact exists at the path.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	if a.Forest == nil {
		return nil, fmt.Errorf("artifact %s has no fitted model", path)
	}
	return &a, nil
}
