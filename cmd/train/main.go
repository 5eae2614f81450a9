package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/edupredict/studentperf/internal/artifacts"
	"github.com/edupredict/studentperf/internal/dataset"
	"github.com/edupredict/studentperf/internal/trainer"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	dataPath := flag.String("data", "sample_students.csv", "training dataset CSV")
	modelsDir := flag.String("models", "models", "artifact output directory")
	seed := flag.Int64("seed", 42, "split and estimator seed")
	flag.Parse()

	rows, err := dataset.LoadLabeledFile(*dataPath)
	if err != nil {
		slog.Error("Failed to load dataset", "path", *dataPath, "error", err)
		os.Exit(1)
	}

	passCount := 0
	for _, row := range rows {
		if row.FinalResult == "Pass" {
			passCount++
		}
	}
	slog.Info("Dataset loaded",
		"path", *dataPath,
		"samples", len(rows),
		"pass_rate", float64(passCount)/float64(len(rows)))

	cfg := trainer.DefaultConfig()
	cfg.Seed = *seed

	result, err := trainer.Train(rows, cfg)
	if err != nil {
		slog.Error("Training failed", "error", err)
		os.Exit(1)
	}

	store := artifacts.NewStore(*modelsDir)
	if err := trainer.Persist(store, result); err != nil {
		slog.Error("Failed to persist artifacts", "error", err)
		os.Exit(1)
	}

	best := result.Card.ModelResults[result.Card.BestModel]
	slog.Info("Training complete",
		"models_dir", *modelsDir,
		"best_model", result.Card.BestModel,
		"f1", best.F1,
		"roc_auc", best.ROCAUC)
}
