package service

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/edupredict/studentperf/internal/features"
	"github.com/edupredict/studentperf/internal/types"
)

// factorScale inflates impact scores for display. Part of the wire contract
// for the explanation heuristic; do not change without versioning clients.
const factorScale = 10

// RiskLevel buckets the Pass probability. Thresholds are exclusive: exactly
// 0.7 is medium and exactly 0.4 is high.
func RiskLevel(probability float64) string {
	switch {
	case probability > 0.7:
		return "low"
	case probability > 0.4:
		return "medium"
	default:
		return "high"
	}
}

// displayName turns a feature field name into its display label
// ("internal_marks_avg" -> "Internal Marks Avg").
func displayName(feature string) string {
	words := strings.Split(feature, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// TopFactors computes the simplified contribution explanation: each
// engineered value times the stored importance of the best model, scaled
// for display, sorted by absolute impact, truncated to three. This is a
// display heuristic, not an attribution method.
// Features without an importance entry are skipped, so models exposing no
// importances yield an empty list.
func TopFactors(vec []float64, featureNames []string, importance map[string]float64) []types.TopFactor {
	factors := make([]types.TopFactor, 0, len(featureNames))
	for i, name := range featureNames {
		imp, ok := importance[name]
		if !ok || i >= len(vec) {
			continue
		}
		factors = append(factors, types.TopFactor{
			Feature: displayName(name),
			Impact:  vec[i] * imp * factorScale,
		})
	}

	sort.SliceStable(factors, func(a, b int) bool {
		return math.Abs(factors[a].Impact) > math.Abs(factors[b].Impact)
	})
	if len(factors) > 3 {
		factors = factors[:3]
	}
	return factors
}

// predictOne runs the full single-prediction flow for one record.
func (sc *Context) predictOne(rec types.StudentRecord) (types.PredictionResult, error) {
	vec, err := features.Vector(rec, sc.Card.FeatureNames)
	if err != nil {
		return types.PredictionResult{}, err
	}

	label := sc.Model.Predict(vec)
	proba := sc.Model.PredictProba(vec)
	pPass := proba[1]

	prediction := "Fail"
	confidence := proba[0]
	if label == 1 {
		prediction = "Pass"
		confidence = pPass
	}

	// Explanation uses imputed values so absent optional fields contribute
	// their training-median impact instead of NaN.
	importance := sc.Card.FeatureImportance[sc.Card.BestModel]
	factors := TopFactors(sc.Model.Imputer.TransformRow(vec), sc.Card.FeatureNames, importance)

	studentID := rec.StudentID
	if studentID == "" {
		studentID = "unknown"
	}

	return types.PredictionResult{
		StudentID:    studentID,
		Prediction:   prediction,
		Probability:  pPass,
		Confidence:   confidence,
		RiskLevel:    RiskLevel(pPass),
		TopFactors:   factors,
		Timestamp:    time.Now().Format(time.RFC3339),
		ModelVersion: sc.Card.BestModel,
	}, nil
}
