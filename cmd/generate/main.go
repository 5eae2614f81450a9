package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/edupredict/studentperf/internal/dataset"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	n := flag.Int("n", 250, "number of students to generate")
	out := flag.String("out", "sample_students.csv", "output CSV path")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	gen := dataset.NewGenerator(*seed)
	rows := gen.Generate(*n)

	if err := dataset.WriteCSV(*out, rows); err != nil {
		slog.Error("Failed to write dataset", "path", *out, "error", err)
		os.Exit(1)
	}

	passCount := 0
	categories := map[string]int{}
	for _, row := range rows {
		if row.FinalResult == "Pass" {
			passCount++
		}
		categories[row.TargetCategory]++
	}

	slog.Info("Dataset generated",
		"path", *out,
		"students", len(rows),
		"pass_rate", float64(passCount)/float64(len(rows)),
		"grade_distribution", categories)
}
