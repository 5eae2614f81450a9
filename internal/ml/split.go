package ml

import "math/rand"

// StratifiedSplit partitions row indices into train and test sets,
// preserving the class balance of y in both. Deterministic for a fixed
// seed; within each split the original row order is preserved so repeated
// runs produce identical folds.
func StratifiedSplit(y []int, testFraction float64, seed int64) (trainIdx, testIdx []int) {
	rng := rand.New(rand.NewSource(seed))

	byClass := map[int][]int{}
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	isTest := make([]bool, len(y))
	for _, label := range []int{0, 1} {
		idx := byClass[label]
		shuffled := append([]int(nil), idx...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		take := int(float64(len(shuffled))*testFraction + 0.5)
		if take == len(shuffled) && take > 0 {
			take-- // never empty a class out of the training split
		}
		for _, i := range shuffled[:take] {
			isTest[i] = true
		}
	}

	for i := range y {
		if isTest[i] {
			testIdx = append(testIdx, i)
		} else {
			trainIdx = append(trainIdx, i)
		}
	}
	return trainIdx, testIdx
}

// Subset gathers rows of X and y by index.
func Subset(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	subX := make([][]float64, len(idx))
	subY := make([]int, len(idx))
	for k, i := range idx {
		subX[k] = X[i]
		subY[k] = y[i]
	}
	return subX, subY
}
