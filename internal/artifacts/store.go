// Package artifacts persists trained models and the model card as flat
// files: one JSON file per candidate, a best-model alias, and
// model_card.json. Writes are atomic (temp file + rename) so a crashed
// training run never leaves a partially written artifact for the service to
// load. Reads happen once, at service startup.
package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/edupredict/studentperf/internal/ml"
)

const (
	bestModelFile = "best_model.json"
	modelCardFile = "model_card.json"
)

// ErrArtifactMissing reports an absent model or card file. The service maps
// it to the Unloaded state rather than crashing.
var ErrArtifactMissing = errors.New("model artifact not found")

// ModelCard is the training run's metadata: immutable once written,
// read-only at serving time.
type ModelCard struct {
	TrainingDate      string                        `json:"training_date"`
	BestModel         string                        `json:"best_model"`
	FeatureNames      []string                      `json:"feature_names"`
	ModelResults      map[string]ml.Evaluation      `json:"model_results"`
	FeatureImportance map[string]map[string]float64 `json:"feature_importance"`
}

// Store reads and writes artifacts under a single directory so the model
// and its card load as one logical unit.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) writeJSON(filename string, v interface{}) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, filename+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", filename, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, filename)); err != nil {
		return fmt.Errorf("failed to publish %s: %w", filename, err)
	}
	return nil
}

func (s *Store) readJSON(filename string, v interface{}) error {
	path := filepath.Join(s.dir, filename)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	return nil
}

// SaveModel writes one candidate pipeline under its model name.
func (s *Store) SaveModel(name string, pipeline *ml.Pipeline) error {
	return s.writeJSON(name+".json", pipeline)
}

// SaveBestModel writes the selected pipeline under the best-model alias.
func (s *Store) SaveBestModel(pipeline *ml.Pipeline) error {
	return s.writeJSON(bestModelFile, pipeline)
}

// SaveCard writes the model card.
func (s *Store) SaveCard(card *ModelCard) error {
	return s.writeJSON(modelCardFile, card)
}

// LoadBestModel reads the best-model alias.
func (s *Store) LoadBestModel() (*ml.Pipeline, error) {
	var pipeline ml.Pipeline
	if err := s.readJSON(bestModelFile, &pipeline); err != nil {
		return nil, err
	}
	return &pipeline, nil
}

// LoadCard reads the model card.
func (s *Store) LoadCard() (*ModelCard, error) {
	var card ModelCard
	if err := s.readJSON(modelCardFile, &card); err != nil {
		return nil, err
	}
	return &card, nil
}
