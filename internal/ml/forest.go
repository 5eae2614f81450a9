package ml

import (
	"errors"
	"math"
	"math/rand"
)

// RandomForest bags class-weighted CART trees over bootstrap samples with
// sqrt-feature subsampling, averaging leaf distributions for probabilities.
type RandomForest struct {
	NumTrees        int   `json:"num_trees"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	Seed            int64 `json:"seed"`

	Trees       []*DecisionTree `json:"trees"`
	Importances []float64       `json:"importances"`
}

// NewRandomForest returns the default configuration: 100 trees, depth 10,
// min split 5.
func NewRandomForest(seed int64) *RandomForest {
	return &RandomForest{NumTrees: 100, MaxDepth: 10, MinSamplesSplit: 5, Seed: seed}
}

// Kind implements Classifier.
func (f *RandomForest) Kind() string { return "random_forest" }

// Fit trains the ensemble. Deterministic for a fixed seed: each tree gets a
// derived seed and its own bootstrap sample.
func (f *RandomForest) Fit(X [][]float64, y []int, sampleWeight []float64) error {
	n := len(X)
	if n == 0 {
		return errors.New("forest: empty training matrix")
	}
	d := len(X[0])
	maxFeatures := int(math.Max(1, math.Round(math.Sqrt(float64(d)))))

	w := sampleWeight
	if w == nil {
		w = make([]float64, n)
		for i := range w {
			w[i] = 1
		}
	}

	rng := rand.New(rand.NewSource(f.Seed))
	f.Trees = make([]*DecisionTree, 0, f.NumTrees)
	f.Importances = make([]float64, d)

	bootX := make([][]float64, n)
	bootY := make([]int, n)
	bootW := make([]float64, n)

	for t := 0; t < f.NumTrees; t++ {
		for i := 0; i < n; i++ {
			src := rng.Intn(n)
			bootX[i] = X[src]
			bootY[i] = y[src]
			bootW[i] = w[src]
		}

		tree := &DecisionTree{
			MaxDepth:        f.MaxDepth,
			MinSamplesSplit: f.MinSamplesSplit,
			MaxFeatures:     maxFeatures,
			Seed:            rng.Int63(),
		}
		if err := tree.Fit(bootX, bootY, bootW); err != nil {
			return err
		}
		f.Trees = append(f.Trees, tree)

		for j, imp := range tree.Importances {
			f.Importances[j] += imp
		}
	}

	var total float64
	for _, v := range f.Importances {
		total += v
	}
	if total > 0 {
		for j := range f.Importances {
			f.Importances[j] /= total
		}
	}
	return nil
}

// Predict implements Classifier.
func (f *RandomForest) Predict(x []float64) int {
	p := f.PredictProba(x)
	if p[1] >= 0.5 {
		return 1
	}
	return 0
}

// PredictProba averages leaf distributions across trees.
func (f *RandomForest) PredictProba(x []float64) [2]float64 {
	if len(f.Trees) == 0 {
		return [2]float64{0.5, 0.5}
	}
	var pPass float64
	for _, tree := range f.Trees {
		pPass += tree.PredictProba(x)[1]
	}
	pPass /= float64(len(f.Trees))
	return [2]float64{1 - pPass, pPass}
}

// FeatureImportances returns tree-averaged impurity importances.
func (f *RandomForest) FeatureImportances() []float64 { return f.Importances }
