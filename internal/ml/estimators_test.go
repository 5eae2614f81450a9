package ml

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobs builds a two-cluster dataset separable on both features.
func blobs(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, 0, 2*n)
	y := make([]int, 0, 2*n)
	for i := 0; i < n; i++ {
		X = append(X, []float64{rng.NormFloat64()*0.5 - 2, rng.NormFloat64()*0.5 - 2})
		y = append(y, 0)
		X = append(X, []float64{rng.NormFloat64()*0.5 + 2, rng.NormFloat64()*0.5 + 2})
		y = append(y, 1)
	}
	return X, y
}

func trainAccuracy(t *testing.T, model Classifier, scaled bool) float64 {
	t.Helper()
	X, y := blobs(60, 42)

	p := NewPipeline(model, scaled)
	require.NoError(t, p.Fit(X, y, BalancedWeights(y)))

	correct := 0
	for i := range X {
		if p.Predict(X[i]) == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(X))
}

func TestClassifiersLearnSeparableData(t *testing.T) {
	tests := []struct {
		name   string
		model  Classifier
		scaled bool
	}{
		{name: "logistic regression", model: NewLogisticRegression(), scaled: true},
		{name: "decision tree", model: &DecisionTree{MaxDepth: 5, MinSamplesSplit: 2}, scaled: false},
		{name: "random forest", model: NewRandomForest(42), scaled: false},
		{name: "gradient boosting", model: NewGradientBoosting(), scaled: false},
		{name: "rbf kernel", model: NewRBFClassifier(), scaled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := trainAccuracy(t, tt.model, tt.scaled)
			assert.GreaterOrEqual(t, acc, 0.95, "training accuracy on separable blobs")
		})
	}
}

func TestPredictProbaSumsToOne(t *testing.T) {
	X, y := blobs(40, 7)

	models := []struct {
		name   string
		model  Classifier
		scaled bool
	}{
		{"logistic_regression", NewLogisticRegression(), true},
		{"random_forest", NewRandomForest(1), false},
		{"gradient_boosting", NewGradientBoosting(), false},
		{"svm", NewRBFClassifier(), true},
	}

	for _, m := range models {
		t.Run(m.name, func(t *testing.T) {
			p := NewPipeline(m.model, m.scaled)
			require.NoError(t, p.Fit(X, y, nil))
			for _, x := range [][]float64{{-2, -2}, {2, 2}, {0, 0}} {
				proba := p.PredictProba(x)
				assert.InDelta(t, 1, proba[0]+proba[1], 1e-9)
				assert.GreaterOrEqual(t, proba[1], 0.0)
				assert.LessOrEqual(t, proba[1], 1.0)
			}
		})
	}
}

func TestFeatureImportances(t *testing.T) {
	X, y := blobs(50, 3)

	forest := NewRandomForest(42)
	p := NewPipeline(forest, false)
	require.NoError(t, p.Fit(X, y, nil))

	imp := p.FeatureImportances()
	require.Len(t, imp, 2)
	var sum float64
	for _, v := range imp {
		assert.GreaterOrEqual(t, v, 0.0)
		sum += v
	}
	assert.InDelta(t, 1, sum, 1e-9)
}

func TestRBFClassifierHasNoImportances(t *testing.T) {
	X, y := blobs(20, 3)
	rbf := NewRBFClassifier()
	require.NoError(t, rbf.Fit(X, y, nil))
	assert.Nil(t, rbf.FeatureImportances())
}

func TestRandomForestDeterministicForSeed(t *testing.T) {
	X, y := blobs(40, 11)

	fit := func() *RandomForest {
		f := NewRandomForest(42)
		require.NoError(t, f.Fit(X, y, nil))
		return f
	}
	a, b := fit(), fit()

	probe := []float64{0.5, -0.5}
	assert.Equal(t, a.PredictProba(probe), b.PredictProba(probe))
	assert.Equal(t, a.FeatureImportances(), b.FeatureImportances())
}

func TestPipelineSerializationRoundTrip(t *testing.T) {
	X, y := blobs(40, 5)

	kinds := []struct {
		model  Classifier
		scaled bool
	}{
		{NewLogisticRegression(), true},
		{&DecisionTree{MaxDepth: 4, MinSamplesSplit: 2}, false},
		{NewRandomForest(42), false},
		{NewGradientBoosting(), false},
		{NewRBFClassifier(), true},
	}

	probes := [][]float64{{-2, -2}, {2, 2}, {-0.3, 1.4}, {1.1, -0.8}}

	for _, k := range kinds {
		t.Run(k.model.Kind(), func(t *testing.T) {
			p := NewPipeline(k.model, k.scaled)
			require.NoError(t, p.Fit(X, y, BalancedWeights(y)))

			data, err := json.Marshal(p)
			require.NoError(t, err)

			var restored Pipeline
			require.NoError(t, json.Unmarshal(data, &restored))
			assert.Equal(t, p.Kind(), restored.Kind())

			for _, x := range probes {
				assert.InDelta(t, p.PredictProba(x)[1], restored.PredictProba(x)[1], 1e-12)
				assert.Equal(t, p.Predict(x), restored.Predict(x))
			}
		})
	}
}

func TestPipelineUnmarshalUnknownModel(t *testing.T) {
	var p Pipeline
	err := json.Unmarshal([]byte(`{"model_type":"perceptron","model":{}}`), &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown model type")
}
