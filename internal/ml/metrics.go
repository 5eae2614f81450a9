package ml

import (
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Evaluation holds the held-out metrics for one candidate. The confusion
// matrix is [[tn, fp], [fn, tp]].
type Evaluation struct {
	Accuracy        float64   `json:"accuracy"`
	ROCAUC          float64   `json:"roc_auc"`
	Precision       float64   `json:"precision"`
	Recall          float64   `json:"recall"`
	F1              float64   `json:"f1_score"`
	ConfusionMatrix [2][2]int `json:"confusion_matrix"`
}

// Evaluate computes binary classification metrics with Pass (1) as the
// positive class. scores are p_pass values aligned with yTrue.
func Evaluate(yTrue, yPred []int, scores []float64) Evaluation {
	var ev Evaluation
	n := len(yTrue)
	if n == 0 {
		return ev
	}

	var tp, tn, fp, fn int
	for i := 0; i < n; i++ {
		switch {
		case yTrue[i] == 1 && yPred[i] == 1:
			tp++
		case yTrue[i] == 0 && yPred[i] == 0:
			tn++
		case yTrue[i] == 0 && yPred[i] == 1:
			fp++
		default:
			fn++
		}
	}

	ev.ConfusionMatrix = [2][2]int{{tn, fp}, {fn, tp}}
	ev.Accuracy = float64(tp+tn) / float64(n)
	if tp+fp > 0 {
		ev.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		ev.Recall = float64(tp) / float64(tp+fn)
	}
	if ev.Precision+ev.Recall > 0 {
		ev.F1 = 2 * ev.Precision * ev.Recall / (ev.Precision + ev.Recall)
	}
	ev.ROCAUC = rocAUC(yTrue, scores)
	return ev
}

// rocAUC integrates the ROC curve via gonum. Returns 0 for single-class
// truth, where the curve is undefined.
func rocAUC(yTrue []int, scores []float64) float64 {
	n := len(yTrue)
	var pos int
	for _, label := range yTrue {
		if label == 1 {
			pos++
		}
	}
	if pos == 0 || pos == n {
		return 0
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return scores[order[a]] < scores[order[b]]
	})

	sorted := make([]float64, n)
	classes := make([]bool, n)
	for rank, i := range order {
		sorted[rank] = scores[i]
		classes[rank] = yTrue[i] == 1
	}

	tpr, fpr, _ := stat.ROC(nil, sorted, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}
