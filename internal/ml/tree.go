package ml

import (
	"errors"
	"math/rand"
	"sort"
)

// TreeNode is one node of a CART tree. Leaves carry the weighted class
// distribution; internal nodes carry the split.
type TreeNode struct {
	Leaf      bool       `json:"leaf"`
	Feature   int        `json:"feature,omitempty"`
	Threshold float64    `json:"threshold,omitempty"`
	Left      *TreeNode  `json:"left,omitempty"`
	Right     *TreeNode  `json:"right,omitempty"`
	Proba     [2]float64 `json:"proba,omitempty"`
}

// DecisionTree is a weighted-Gini CART classifier. It is both a usable
// candidate on its own and the base learner bagged by RandomForest.
type DecisionTree struct {
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	MaxFeatures     int   `json:"max_features"` // 0 means all features
	Seed            int64 `json:"seed"`

	Root        *TreeNode `json:"root"`
	Importances []float64 `json:"importances"`
	NumFeatures int       `json:"num_features"`
}

// Kind implements Classifier.
func (t *DecisionTree) Kind() string { return "decision_tree" }

type splitResult struct {
	feature   int
	threshold float64
	decrease  float64
	leftIdx   []int
	rightIdx  []int
	found     bool
}

func weightedGini(posW, totW float64) float64 {
	if totW == 0 {
		return 0
	}
	p := posW / totW
	return 2 * p * (1 - p)
}

// Fit grows the tree on X/y with optional sample weights.
func (t *DecisionTree) Fit(X [][]float64, y []int, sampleWeight []float64) error {
	if len(X) == 0 {
		return errors.New("tree: empty training matrix")
	}
	t.NumFeatures = len(X[0])
	t.Importances = make([]float64, t.NumFeatures)

	w := sampleWeight
	if w == nil {
		w = make([]float64, len(X))
		for i := range w {
			w[i] = 1
		}
	}

	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewSource(t.Seed))
	t.Root = t.grow(X, y, w, idx, 0, rng)

	var total float64
	for _, v := range t.Importances {
		total += v
	}
	if total > 0 {
		for j := range t.Importances {
			t.Importances[j] /= total
		}
	}
	return nil
}

func (t *DecisionTree) grow(X [][]float64, y []int, w []float64, idx []int, depth int, rng *rand.Rand) *TreeNode {
	var posW, totW float64
	for _, i := range idx {
		totW += w[i]
		if y[i] == 1 {
			posW += w[i]
		}
	}

	node := &TreeNode{Leaf: true}
	if totW > 0 {
		node.Proba = [2]float64{(totW - posW) / totW, posW / totW}
	} else {
		node.Proba = [2]float64{0.5, 0.5}
	}

	if depth >= t.MaxDepth || len(idx) < t.MinSamplesSplit || posW == 0 || posW == totW {
		return node
	}

	best := t.bestSplit(X, y, w, idx, posW, totW, rng)
	if !best.found {
		return node
	}

	t.Importances[best.feature] += best.decrease

	node.Leaf = false
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = t.grow(X, y, w, best.leftIdx, depth+1, rng)
	node.Right = t.grow(X, y, w, best.rightIdx, depth+1, rng)
	return node
}

func (t *DecisionTree) bestSplit(X [][]float64, y []int, w []float64, idx []int, posW, totW float64, rng *rand.Rand) splitResult {
	parentGini := weightedGini(posW, totW)

	candidates := make([]int, t.NumFeatures)
	for j := range candidates {
		candidates[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < t.NumFeatures {
		rng.Shuffle(len(candidates), func(a, b int) {
			candidates[a], candidates[b] = candidates[b], candidates[a]
		})
		candidates = candidates[:t.MaxFeatures]
	}

	var best splitResult
	sorted := make([]int, len(idx))

	for _, feature := range candidates {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool {
			return X[sorted[a]][feature] < X[sorted[b]][feature]
		})

		var leftPos, leftTot float64
		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			leftTot += w[i]
			if y[i] == 1 {
				leftPos += w[i]
			}

			cur, next := X[i][feature], X[sorted[k+1]][feature]
			if cur == next {
				continue
			}

			rightTot := totW - leftTot
			rightPos := posW - leftPos
			childGini := (leftTot*weightedGini(leftPos, leftTot) + rightTot*weightedGini(rightPos, rightTot)) / totW
			decrease := totW * (parentGini - childGini)

			if decrease > best.decrease {
				best = splitResult{
					feature:   feature,
					threshold: (cur + next) / 2,
					decrease:  decrease,
					found:     true,
				}
			}
		}
	}

	if !best.found {
		return best
	}
	for _, i := range idx {
		if X[i][best.feature] <= best.threshold {
			best.leftIdx = append(best.leftIdx, i)
		} else {
			best.rightIdx = append(best.rightIdx, i)
		}
	}
	if len(best.leftIdx) == 0 || len(best.rightIdx) == 0 {
		best.found = false
	}
	return best
}

func (t *DecisionTree) leaf(x []float64) *TreeNode {
	node := t.Root
	for node != nil && !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node
}

// Predict implements Classifier.
func (t *DecisionTree) Predict(x []float64) int {
	p := t.PredictProba(x)
	if p[1] >= 0.5 {
		return 1
	}
	return 0
}

// PredictProba implements Classifier.
func (t *DecisionTree) PredictProba(x []float64) [2]float64 {
	node := t.leaf(x)
	if node == nil {
		return [2]float64{0.5, 0.5}
	}
	return node.Proba
}

// FeatureImportances returns normalized impurity-decrease importances.
func (t *DecisionTree) FeatureImportances() []float64 { return t.Importances }
