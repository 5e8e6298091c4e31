package classifier

import (
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// AUC returns the area under the ROC curve of scores against binary labels.
// ok is false when the labels contain a single class or lengths disagree.
func AUC(scores []float64, labels []float64) (auc float64, ok bool) {
	if len(scores) == 0 || len(scores) != len(labels) {
		return 0, false
	}

	y := append([]float64(nil), scores...)
	classes := make([]bool, len(labels))
	positives := 0
	for i, label := range labels {
		classes[i] = label == 1
		if classes[i] {
			positives++
		}
	}
	if positives == 0 || positives == len(labels) {
		return 0, false
	}

	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	auc = integrate.Trapezoidal(fpr, tpr)
	if math.IsNaN(auc) {
		return 0, false
	}
	return auc, true
}
