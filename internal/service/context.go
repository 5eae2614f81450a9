// Package service implements the inference HTTP API. All handlers read from
// an immutable Context constructed once at startup; there is no hot reload,
// so no locking is needed around the model.
package service

import (
	"log/slog"

	"github.com/edupredict/studentperf/internal/artifacts"
	"github.com/edupredict/studentperf/internal/ml"
)

// Context is the process-wide serving state: the loaded model pipeline and
// its card. A nil model means the service is in the Unloaded state and
// stays there until restart.
type Context struct {
	Model *ml.Pipeline
	Card  *artifacts.ModelCard
}

// Loaded reports whether prediction endpoints can serve.
func (sc *Context) Loaded() bool {
	return sc != nil && sc.Model != nil && sc.Card != nil
}

// Load attempts the one startup transition from Unloaded to Loaded. A
// missing artifact is logged and leaves the service Unloaded rather than
// failing startup: health and error responses handle the rest.
func Load(store *artifacts.Store) *Context {
	card, err := store.LoadCard()
	if err != nil {
		slog.Error("Model card not loaded", "error", err)
		return &Context{}
	}
	model, err := store.LoadBestModel()
	if err != nil {
		slog.Error("Model not loaded", "error", err)
		return &Context{}
	}

	slog.Info("Model loaded",
		"model", card.BestModel,
		"training_date", card.TrainingDate,
		"features", len(card.FeatureNames))
	return &Context{Model: model, Card: card}
}
