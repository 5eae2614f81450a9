package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupredict/studentperf/internal/ml"
)

func fittedPipeline(t *testing.T) *ml.Pipeline {
	t.Helper()
	X := [][]float64{{0, 1}, {0.5, 2}, {4, 1}, {4.5, 2}}
	y := []int{0, 0, 1, 1}
	p := ml.NewPipeline(ml.NewLogisticRegression(), true)
	require.NoError(t, p.Fit(X, y, nil))
	return p
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	p := fittedPipeline(t)

	require.NoError(t, store.SaveBestModel(p))
	require.NoError(t, store.SaveModel("logistic_regression", p))

	card := &ModelCard{
		TrainingDate: "2026-08-31T12:00:00Z",
		BestModel:    "logistic_regression",
		FeatureNames: []string{"a", "b"},
		ModelResults: map[string]ml.Evaluation{
			"logistic_regression": {Accuracy: 0.9, F1: 0.88},
		},
		FeatureImportance: map[string]map[string]float64{
			"logistic_regression": {"a": 0.7, "b": 0.3},
		},
	}
	require.NoError(t, store.SaveCard(card))

	gotModel, err := store.LoadBestModel()
	require.NoError(t, err)
	assert.Equal(t, "logistic_regression", gotModel.Kind())
	for _, x := range [][]float64{{0.2, 1.5}, {4.2, 1.5}} {
		assert.InDelta(t, p.PredictProba(x)[1], gotModel.PredictProba(x)[1], 1e-12)
	}

	gotCard, err := store.LoadCard()
	require.NoError(t, err)
	assert.Equal(t, card, gotCard)
}

func TestStoreMissingArtifacts(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "empty"))

	_, err := store.LoadBestModel()
	assert.ErrorIs(t, err, ErrArtifactMissing)

	_, err = store.LoadCard()
	assert.ErrorIs(t, err, ErrArtifactMissing)
}

func TestStoreWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, store.SaveBestModel(fittedPipeline(t)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "best_model.json", entries[0].Name())
}

func TestStoreCorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model_card.json"), []byte("{not json"), 0o644))

	_, err := NewStore(dir).LoadCard()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrArtifactMissing)
}
