package ml

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// RBFClassifier is the kernel-based candidate: regularized kernel logistic
// regression with an RBF kernel over the standardized training set. It keeps
// every training row as a support point, so the trainer only registers it
// for small datasets. Exposes no feature importances.
type RBFClassifier struct {
	Gamma        float64 `json:"gamma"` // 0 means 1/num_features at fit time
	LearningRate float64 `json:"learning_rate"`
	MaxIter      int     `json:"max_iter"`
	L2           float64 `json:"l2"`

	Support   [][]float64 `json:"support"`
	Alpha     []float64   `json:"alpha"`
	Intercept float64     `json:"intercept"`
}

// NewRBFClassifier returns the default configuration.
func NewRBFClassifier() *RBFClassifier {
	return &RBFClassifier{LearningRate: 0.5, MaxIter: 500, L2: 1e-3}
}

// Kind implements Classifier. Artifacts and the model card name the kernel
// candidate "svm".
func (r *RBFClassifier) Kind() string { return "svm" }

func rbf(a, b []float64, gamma float64) float64 {
	var dist2 float64
	for j := range a {
		diff := a[j] - b[j]
		dist2 += diff * diff
	}
	return math.Exp(-gamma * dist2)
}

// Fit trains dual coefficients by gradient descent on weighted logistic
// loss over the precomputed kernel matrix.
func (r *RBFClassifier) Fit(X [][]float64, y []int, sampleWeight []float64) error {
	n := len(X)
	if n == 0 {
		return errors.New("rbf: empty training matrix")
	}
	if r.MaxIter == 0 {
		*r = *NewRBFClassifier()
	}
	if r.Gamma == 0 {
		r.Gamma = 1 / float64(len(X[0]))
	}

	r.Support = make([][]float64, n)
	for i, row := range X {
		r.Support[i] = append([]float64(nil), row...)
	}

	K := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		K.Set(i, i, 1)
		for j := i + 1; j < n; j++ {
			k := rbf(X[i], X[j], r.Gamma)
			K.Set(i, j, k)
			K.Set(j, i, k)
		}
	}

	w := sampleWeight
	if w == nil {
		w = make([]float64, n)
		for i := range w {
			w[i] = 1
		}
	}
	wSum := floats.Sum(w)

	alpha := mat.NewVecDense(n, nil)
	intercept := 0.0
	z := mat.NewVecDense(n, nil)
	resid := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(n, nil)

	for iter := 0; iter < r.MaxIter; iter++ {
		z.MulVec(K, alpha)
		var gradB float64
		for i := 0; i < n; i++ {
			p := sigmoid(z.AtVec(i) + intercept)
			res := w[i] * (p - float64(y[i]))
			resid.SetVec(i, res)
			gradB += res
		}
		// K is symmetric, so K^T resid == K resid.
		grad.MulVec(K, resid)
		grad.ScaleVec(1/wSum, grad)
		grad.AddScaledVec(grad, r.L2, alpha)

		alpha.AddScaledVec(alpha, -r.LearningRate, grad)
		intercept -= r.LearningRate * gradB / wSum
	}

	r.Alpha = make([]float64, n)
	for i := 0; i < n; i++ {
		r.Alpha[i] = alpha.AtVec(i)
	}
	r.Intercept = intercept
	return nil
}

func (r *RBFClassifier) decision(x []float64) float64 {
	z := r.Intercept
	for i, sv := range r.Support {
		z += r.Alpha[i] * rbf(x, sv, r.Gamma)
	}
	return z
}

// Predict implements Classifier.
func (r *RBFClassifier) Predict(x []float64) int {
	if sigmoid(r.decision(x)) >= 0.5 {
		return 1
	}
	return 0
}

// PredictProba implements Classifier.
func (r *RBFClassifier) PredictProba(x []float64) [2]float64 {
	p := sigmoid(r.decision(x))
	return [2]float64{1 - p, p}
}

// FeatureImportances returns nil: dual coefficients over an RBF kernel have
// no per-feature reading.
func (r *RBFClassifier) FeatureImportances() []float64 { return nil }
