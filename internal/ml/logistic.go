package ml

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LogisticRegression is the linear baseline: L2-regularized logistic
// regression fitted by full-batch gradient descent on standardized inputs.
type LogisticRegression struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`

	// Hyperparameters; zero values get defaults in Fit.
	LearningRate float64 `json:"learning_rate"`
	MaxIter      int     `json:"max_iter"`
	L2           float64 `json:"l2"`
	Tol          float64 `json:"tol"`
}

// NewLogisticRegression returns a baseline configuration.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{LearningRate: 0.1, MaxIter: 1000, L2: 1e-3, Tol: 1e-6}
}

// Kind implements Classifier.
func (lr *LogisticRegression) Kind() string { return "logistic_regression" }

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

// Fit minimizes weighted logistic loss with L2 penalty on the coefficients
// (intercept unpenalized).
func (lr *LogisticRegression) Fit(X [][]float64, y []int, sampleWeight []float64) error {
	n := len(X)
	if n == 0 {
		return errors.New("logistic: empty training matrix")
	}
	d := len(X[0])
	if lr.MaxIter == 0 {
		*lr = *NewLogisticRegression()
	}

	flat := make([]float64, 0, n*d)
	for _, row := range X {
		flat = append(flat, row...)
	}
	Xm := mat.NewDense(n, d, flat)

	w := sampleWeight
	if w == nil {
		w = make([]float64, n)
		for i := range w {
			w[i] = 1
		}
	}
	var wSum float64
	for _, wi := range w {
		wSum += wi
	}

	coef := mat.NewVecDense(d, nil)
	intercept := 0.0

	grad := mat.NewVecDense(d, nil)
	resid := mat.NewVecDense(n, nil)
	z := mat.NewVecDense(n, nil)

	for iter := 0; iter < lr.MaxIter; iter++ {
		z.MulVec(Xm, coef)
		var gradB float64
		for i := 0; i < n; i++ {
			p := sigmoid(z.AtVec(i) + intercept)
			r := w[i] * (p - float64(y[i]))
			resid.SetVec(i, r)
			gradB += r
		}
		grad.MulVec(Xm.T(), resid)
		grad.ScaleVec(1/wSum, grad)
		grad.AddScaledVec(grad, lr.L2, coef)
		gradB /= wSum

		coef.AddScaledVec(coef, -lr.LearningRate, grad)
		intercept -= lr.LearningRate * gradB

		if mat.Norm(grad, 2) < lr.Tol && math.Abs(gradB) < lr.Tol {
			break
		}
	}

	lr.Coef = make([]float64, d)
	for j := 0; j < d; j++ {
		lr.Coef[j] = coef.AtVec(j)
	}
	lr.Intercept = intercept
	return nil
}

func (lr *LogisticRegression) decision(x []float64) float64 {
	z := lr.Intercept
	for j, c := range lr.Coef {
		z += c * x[j]
	}
	return z
}

// Predict implements Classifier.
func (lr *LogisticRegression) Predict(x []float64) int {
	if sigmoid(lr.decision(x)) >= 0.5 {
		return 1
	}
	return 0
}

// PredictProba implements Classifier.
func (lr *LogisticRegression) PredictProba(x []float64) [2]float64 {
	p := sigmoid(lr.decision(x))
	return [2]float64{1 - p, p}
}

// FeatureImportances returns absolute coefficient magnitudes.
func (lr *LogisticRegression) FeatureImportances() []float64 {
	imp := make([]float64, len(lr.Coef))
	for j, c := range lr.Coef {
		imp[j] = math.Abs(c)
	}
	return imp
}
