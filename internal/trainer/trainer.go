// Package trainer orchestrates the offline training run: feature
// engineering over the labeled dataset, candidate fitting, held-out
// evaluation, and best-model selection by F1 score. The heavy lifting lives
// in internal/ml; this package is bookkeeping.
package trainer

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/edupredict/studentperf/internal/artifacts"
	"github.com/edupredict/studentperf/internal/dataset"
	"github.com/edupredict/studentperf/internal/features"
	"github.com/edupredict/studentperf/internal/ml"
	"github.com/edupredict/studentperf/internal/types"
)

// Config controls reproducibility and candidate registration.
type Config struct {
	Seed         int64
	TestFraction float64
	// KernelSampleLimit disables the kernel candidate at or above this many
	// training rows; its kernel matrix is quadratic in the sample count.
	KernelSampleLimit int
}

// DefaultConfig uses seed 42, an 80/20 split, and registers the kernel
// model only under 1000 training samples.
func DefaultConfig() Config {
	return Config{Seed: 42, TestFraction: 0.2, KernelSampleLimit: 1000}
}

// Result is everything a training run produces.
type Result struct {
	Card      *artifacts.ModelCard
	Best      *ml.Pipeline
	Pipelines map[string]*ml.Pipeline
}

type candidate struct {
	name     string
	pipeline *ml.Pipeline
	weights  func(y []int) []float64
}

// Train fits all candidates on the labeled rows and selects the best by F1.
// Candidate order is fixed, and on an exact F1 tie the earlier candidate
// wins, so repeated runs pick the same model.
func Train(rows []dataset.LabeledRecord, cfg Config) (*Result, error) {
	if len(rows) == 0 {
		return nil, errors.New("trainer: empty dataset")
	}

	records := make([]types.StudentRecord, len(rows))
	y := make([]int, len(rows))
	for i, row := range rows {
		records[i] = row.StudentRecord
		if row.FinalResult == "Pass" {
			y[i] = 1
		}
	}

	featureNames := features.TrainingNames(records)
	X, err := features.Matrix(records, featureNames)
	if err != nil {
		return nil, fmt.Errorf("trainer: feature engineering failed: %w", err)
	}

	trainIdx, testIdx := ml.StratifiedSplit(y, cfg.TestFraction, cfg.Seed)
	trainX, trainY := ml.Subset(X, y, trainIdx)
	testX, testY := ml.Subset(X, y, testIdx)

	slog.Info("Training candidates",
		"samples", len(rows),
		"features", len(featureNames),
		"train", len(trainX),
		"test", len(testX))

	candidates := []candidate{
		{
			name:     "logistic_regression",
			pipeline: ml.NewPipeline(ml.NewLogisticRegression(), true),
			weights:  ml.BalancedWeights,
		},
		{
			name:     "random_forest",
			pipeline: ml.NewPipeline(ml.NewRandomForest(cfg.Seed), false),
			weights:  ml.BalancedWeights,
		},
		{
			name:     "gradient_boosting",
			pipeline: ml.NewPipeline(ml.NewGradientBoosting(), false),
			weights:  ml.ScalePosWeights,
		},
	}
	if len(trainX) < cfg.KernelSampleLimit {
		candidates = append(candidates, candidate{
			name:     "svm",
			pipeline: ml.NewPipeline(ml.NewRBFClassifier(), true),
			weights:  ml.BalancedWeights,
		})
	}

	result := &Result{
		Pipelines: make(map[string]*ml.Pipeline, len(candidates)),
		Card: &artifacts.ModelCard{
			TrainingDate:      time.Now().Format(time.RFC3339),
			FeatureNames:      featureNames,
			ModelResults:      make(map[string]ml.Evaluation, len(candidates)),
			FeatureImportance: make(map[string]map[string]float64, len(candidates)),
		},
	}

	bestF1 := -1.0
	for _, cand := range candidates {
		start := time.Now()
		if err := cand.pipeline.Fit(trainX, trainY, cand.weights(trainY)); err != nil {
			return nil, fmt.Errorf("trainer: fitting %s failed: %w", cand.name, err)
		}

		eval := evaluateOn(cand.pipeline, testX, testY)
		result.Pipelines[cand.name] = cand.pipeline
		result.Card.ModelResults[cand.name] = eval
		if imp := importanceMap(cand.pipeline, featureNames); imp != nil {
			result.Card.FeatureImportance[cand.name] = imp
		}

		slog.Info("Candidate evaluated",
			"model", cand.name,
			"accuracy", eval.Accuracy,
			"roc_auc", eval.ROCAUC,
			"f1", eval.F1,
			"duration_ms", time.Since(start).Milliseconds())

		if eval.F1 > bestF1 {
			bestF1 = eval.F1
			result.Card.BestModel = cand.name
			result.Best = cand.pipeline
		}
	}

	slog.Info("Best model selected", "model", result.Card.BestModel, "f1", bestF1)
	return result, nil
}

func evaluateOn(p *ml.Pipeline, X [][]float64, y []int) ml.Evaluation {
	preds := make([]int, len(X))
	scores := make([]float64, len(X))
	for i, row := range X {
		preds[i] = p.Predict(row)
		scores[i] = p.PredictProba(row)[1]
	}
	return ml.Evaluate(y, preds, scores)
}

func importanceMap(p *ml.Pipeline, featureNames []string) map[string]float64 {
	imp := p.FeatureImportances()
	if imp == nil {
		return nil
	}
	out := make(map[string]float64, len(featureNames))
	for j, name := range featureNames {
		if j < len(imp) {
			out[name] = imp[j]
		}
	}
	return out
}

// Persist writes every candidate, the best-model alias and the card to the
// store.
func Persist(store *artifacts.Store, result *Result) error {
	for name, pipeline := range result.Pipelines {
		if err := store.SaveModel(name, pipeline); err != nil {
			return err
		}
	}
	if err := store.SaveBestModel(result.Best); err != nil {
		return err
	}
	return store.SaveCard(result.Card)
}
