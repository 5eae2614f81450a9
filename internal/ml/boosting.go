package ml

import (
	"errors"
	"math"
	"sort"
)

// regNode is a node of the small regression trees boosted by
// GradientBoosting. Leaves carry an additive log-odds step.
type regNode struct {
	Leaf      bool     `json:"leaf"`
	Feature   int      `json:"feature,omitempty"`
	Threshold float64  `json:"threshold,omitempty"`
	Left      *regNode `json:"left,omitempty"`
	Right     *regNode `json:"right,omitempty"`
	Value     float64  `json:"value"`
}

func (n *regNode) eval(x []float64) float64 {
	node := n
	for node != nil && !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	if node == nil {
		return 0
	}
	return node.Value
}

// GradientBoosting fits shallow regression trees to the logistic-loss
// gradient, one stage at a time. Each leaf applies the Newton step
// sum(residual) / sum(p(1-p)) common to binary boosted-tree packages.
type GradientBoosting struct {
	NumStages       int     `json:"num_stages"`
	LearningRate    float64 `json:"learning_rate"`
	MaxDepth        int     `json:"max_depth"`
	MinSamplesSplit int     `json:"min_samples_split"`

	BasePrediction float64    `json:"base_prediction"`
	Stages         []*regNode `json:"stages"`
	Importances    []float64  `json:"importances"`
}

// NewGradientBoosting returns the default configuration: 100 stages,
// learning rate 0.1, depth 6.
func NewGradientBoosting() *GradientBoosting {
	return &GradientBoosting{NumStages: 100, LearningRate: 0.1, MaxDepth: 6, MinSamplesSplit: 2}
}

// Kind implements Classifier.
func (g *GradientBoosting) Kind() string { return "gradient_boosting" }

// Fit trains the staged ensemble on weighted logistic loss.
func (g *GradientBoosting) Fit(X [][]float64, y []int, sampleWeight []float64) error {
	n := len(X)
	if n == 0 {
		return errors.New("boosting: empty training matrix")
	}
	d := len(X[0])
	g.Importances = make([]float64, d)

	w := sampleWeight
	if w == nil {
		w = make([]float64, n)
		for i := range w {
			w[i] = 1
		}
	}

	var posW, totW float64
	for i, label := range y {
		totW += w[i]
		if label == 1 {
			posW += w[i]
		}
	}
	if posW == 0 || posW == totW {
		// Degenerate single-class data; constant prediction.
		g.BasePrediction = math.Log(math.Max(posW, 1e-9) / math.Max(totW-posW, 1e-9))
		return nil
	}
	g.BasePrediction = math.Log(posW / (totW - posW))

	score := make([]float64, n)
	for i := range score {
		score[i] = g.BasePrediction
	}

	residual := make([]float64, n)
	hessian := make([]float64, n)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	g.Stages = make([]*regNode, 0, g.NumStages)
	for stage := 0; stage < g.NumStages; stage++ {
		for i := 0; i < n; i++ {
			p := sigmoid(score[i])
			residual[i] = float64(y[i]) - p
			hessian[i] = p * (1 - p)
		}

		root := g.growReg(X, residual, hessian, w, idx, 0)
		g.Stages = append(g.Stages, root)

		for i := 0; i < n; i++ {
			score[i] += g.LearningRate * root.eval(X[i])
		}
	}

	var total float64
	for _, v := range g.Importances {
		total += v
	}
	if total > 0 {
		for j := range g.Importances {
			g.Importances[j] /= total
		}
	}
	return nil
}

func leafValue(residual, hessian, w []float64, idx []int) float64 {
	var num, den float64
	for _, i := range idx {
		num += w[i] * residual[i]
		den += w[i] * hessian[i]
	}
	if den < 1e-12 {
		return 0
	}
	return num / den
}

func (g *GradientBoosting) growReg(X [][]float64, residual, hessian, w []float64, idx []int, depth int) *regNode {
	node := &regNode{Leaf: true, Value: leafValue(residual, hessian, w, idx)}
	if depth >= g.MaxDepth || len(idx) < g.MinSamplesSplit {
		return node
	}

	var sumW, sumWR, sumWR2 float64
	for _, i := range idx {
		sumW += w[i]
		sumWR += w[i] * residual[i]
		sumWR2 += w[i] * residual[i] * residual[i]
	}
	if sumW == 0 {
		return node
	}
	parentSSE := sumWR2 - sumWR*sumWR/sumW

	type split struct {
		feature   int
		threshold float64
		decrease  float64
		found     bool
	}
	var best split

	d := len(X[0])
	sorted := make([]int, len(idx))
	for feature := 0; feature < d; feature++ {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool {
			return X[sorted[a]][feature] < X[sorted[b]][feature]
		})

		var lW, lWR, lWR2 float64
		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			lW += w[i]
			lWR += w[i] * residual[i]
			lWR2 += w[i] * residual[i] * residual[i]

			cur, next := X[i][feature], X[sorted[k+1]][feature]
			if cur == next {
				continue
			}

			rW := sumW - lW
			if lW == 0 || rW == 0 {
				continue
			}
			leftSSE := lWR2 - lWR*lWR/lW
			rightSSE := (sumWR2 - lWR2) - (sumWR-lWR)*(sumWR-lWR)/rW
			decrease := parentSSE - leftSSE - rightSSE

			if decrease > best.decrease {
				best = split{feature: feature, threshold: (cur + next) / 2, decrease: decrease, found: true}
			}
		}
	}

	if !best.found {
		return node
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if X[i][best.feature] <= best.threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	if len(leftIdx) == 0 || len(rightIdx) == 0 {
		return node
	}

	g.Importances[best.feature] += best.decrease

	node.Leaf = false
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Value = 0
	node.Left = g.growReg(X, residual, hessian, w, leftIdx, depth+1)
	node.Right = g.growReg(X, residual, hessian, w, rightIdx, depth+1)
	return node
}

func (g *GradientBoosting) decision(x []float64) float64 {
	score := g.BasePrediction
	for _, stage := range g.Stages {
		score += g.LearningRate * stage.eval(x)
	}
	return score
}

// Predict implements Classifier.
func (g *GradientBoosting) Predict(x []float64) int {
	if sigmoid(g.decision(x)) >= 0.5 {
		return 1
	}
	return 0
}

// PredictProba implements Classifier.
func (g *GradientBoosting) PredictProba(x []float64) [2]float64 {
	p := sigmoid(g.decision(x))
	return [2]float64{1 - p, p}
}

// FeatureImportances returns normalized split-gain importances.
func (g *GradientBoosting) FeatureImportances() []float64 { return g.Importances }
