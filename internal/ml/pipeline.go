// Package ml holds the candidate classifiers and the shared fitting
// machinery around them: median imputation, standardization, stratified
// splitting, evaluation metrics and JSON model persistence.
//
// All estimators train on dense float64 matrices where NaN marks a missing
// value; the pipeline imputer resolves NaNs before any model sees them.
// Labels are binary: 1 = Pass, 0 = Fail. PredictProba returns
// [p_fail, p_pass].
package ml

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Classifier is a trainable binary classifier.
type Classifier interface {
	// Kind is the stable model identifier used in artifacts and the card.
	Kind() string
	Fit(X [][]float64, y []int, sampleWeight []float64) error
	Predict(x []float64) int
	// PredictProba returns [p_fail, p_pass]; the two always sum to 1.
	PredictProba(x []float64) [2]float64
	// FeatureImportances returns per-feature importance magnitudes, or nil
	// for models that expose neither importances nor coefficients.
	FeatureImportances() []float64
}

// MedianImputer replaces NaN cells with the per-column training median.
type MedianImputer struct {
	Medians []float64 `json:"medians"`
}

// Fit computes per-column medians over non-NaN values.
func (m *MedianImputer) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("imputer: empty training matrix")
	}
	cols := len(X[0])
	m.Medians = make([]float64, cols)
	buf := make([]float64, 0, len(X))

	for j := 0; j < cols; j++ {
		buf = buf[:0]
		for i := range X {
			if !math.IsNaN(X[i][j]) {
				buf = append(buf, X[i][j])
			}
		}
		if len(buf) == 0 {
			m.Medians[j] = 0
			continue
		}
		sort.Float64s(buf)
		m.Medians[j] = stat.Quantile(0.5, stat.Empirical, buf, nil)
	}
	return nil
}

// Transform fills NaNs in place-safe copies of each row.
func (m *MedianImputer) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range X {
		out[i] = m.TransformRow(X[i])
	}
	return out
}

// TransformRow fills NaNs in a single row, returning a copy.
func (m *MedianImputer) TransformRow(x []float64) []float64 {
	row := make([]float64, len(x))
	for j, v := range x {
		if math.IsNaN(v) && j < len(m.Medians) {
			row[j] = m.Medians[j]
		} else {
			row[j] = v
		}
	}
	return row
}

// StandardScaler centers and scales features to unit variance. Used only in
// front of scale-sensitive classifiers.
type StandardScaler struct {
	Means  []float64 `json:"means"`
	Stddev []float64 `json:"stddev"`
}

// Fit computes per-column mean and standard deviation.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("scaler: empty training matrix")
	}
	cols := len(X[0])
	s.Means = make([]float64, cols)
	s.Stddev = make([]float64, cols)

	col := make([]float64, len(X))
	for j := 0; j < cols; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Means[j] = mean
		s.Stddev[j] = std
	}
	return nil
}

// Transform standardizes every row.
func (s *StandardScaler) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range X {
		out[i] = s.TransformRow(X[i])
	}
	return out
}

// TransformRow standardizes a single row, returning a copy.
func (s *StandardScaler) TransformRow(x []float64) []float64 {
	row := make([]float64, len(x))
	for j, v := range x {
		row[j] = (v - s.Means[j]) / s.Stddev[j]
	}
	return row
}

// Pipeline is imputer + optional scaler + classifier, fitted and applied as
// one unit so training and serving see identical preprocessing.
type Pipeline struct {
	Imputer *MedianImputer
	Scaler  *StandardScaler
	Model   Classifier
}

// NewPipeline wires a classifier behind a median imputer, plus a standard
// scaler when scaled is true.
func NewPipeline(model Classifier, scaled bool) *Pipeline {
	p := &Pipeline{Imputer: &MedianImputer{}, Model: model}
	if scaled {
		p.Scaler = &StandardScaler{}
	}
	return p
}

// Kind reports the wrapped model's identifier.
func (p *Pipeline) Kind() string { return p.Model.Kind() }

// Fit fits preprocessing on X, then the classifier on the transformed data.
func (p *Pipeline) Fit(X [][]float64, y []int, sampleWeight []float64) error {
	if len(X) != len(y) {
		return fmt.Errorf("pipeline: %d rows but %d labels", len(X), len(y))
	}
	if err := p.Imputer.Fit(X); err != nil {
		return err
	}
	Xt := p.Imputer.Transform(X)
	if p.Scaler != nil {
		if err := p.Scaler.Fit(Xt); err != nil {
			return err
		}
		Xt = p.Scaler.Transform(Xt)
	}
	return p.Model.Fit(Xt, y, sampleWeight)
}

func (p *Pipeline) transformRow(x []float64) []float64 {
	row := p.Imputer.TransformRow(x)
	if p.Scaler != nil {
		row = p.Scaler.TransformRow(row)
	}
	return row
}

// Predict classifies one raw (unimputed, unscaled) vector.
func (p *Pipeline) Predict(x []float64) int {
	return p.Model.Predict(p.transformRow(x))
}

// PredictProba returns [p_fail, p_pass] for one raw vector.
func (p *Pipeline) PredictProba(x []float64) [2]float64 {
	return p.Model.PredictProba(p.transformRow(x))
}

// FeatureImportances passes through the wrapped model's importances.
func (p *Pipeline) FeatureImportances() []float64 {
	return p.Model.FeatureImportances()
}

// BalancedWeights mirrors class_weight="balanced": each sample is weighted
// n / (2 * count(class)), so both classes contribute equally overall.
func BalancedWeights(y []int) []float64 {
	var pos, neg int
	for _, label := range y {
		if label == 1 {
			pos++
		} else {
			neg++
		}
	}
	n := float64(len(y))
	w := make([]float64, len(y))
	for i, label := range y {
		if label == 1 {
			w[i] = n / (2 * math.Max(1, float64(pos)))
		} else {
			w[i] = n / (2 * math.Max(1, float64(neg)))
		}
	}
	return w
}

// ScalePosWeights weights positive samples by neg/pos, the boosted-tree
// analogue of scale_pos_weight.
func ScalePosWeights(y []int) []float64 {
	var pos, neg int
	for _, label := range y {
		if label == 1 {
			pos++
		} else {
			neg++
		}
	}
	scale := 1.0
	if pos > 0 {
		scale = float64(neg) / float64(pos)
	}
	w := make([]float64, len(y))
	for i, label := range y {
		if label == 1 {
			w[i] = scale
		} else {
			w[i] = 1
		}
	}
	return w
}
