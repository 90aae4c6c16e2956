package train

// Metrics holds the per-fold evaluation scores. Precision, recall and F1 are
// macro-averaged over the classes; classes with no support contribute zero.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`

	// Confusion counts predictions per class pair: rows are the ground
	// truth, columns the predicted class.
	Confusion [][]int `json:"confusion"`
}

// Evaluate scores integer predictions against ground truth over a fixed
// number of classes. Labels outside [0, numClasses) are ignored.
func Evaluate(groundTruth, predicted []int, numClasses int) Metrics {
	confusion := make([][]int, numClasses)
	for i := range confusion {
		confusion[i] = make([]int, numClasses)
	}

	correct, total := 0, 0
	for i := range groundTruth {
		truth, pred := groundTruth[i], predicted[i]
		if truth < 0 || truth >= numClasses || pred < 0 || pred >= numClasses {
			continue
		}
		confusion[truth][pred]++
		total++
		if truth == pred {
			correct++
		}
	}

	m := Metrics{Confusion: confusion}
	if total == 0 {
		return m
	}
	m.Accuracy = float64(correct) / float64(total)

	var precisionSum, recallSum, f1Sum float64
	for class := range numClasses {
		tp := confusion[class][class]
		predictedCount, truthCount := 0, 0
		for other := range numClasses {
			predictedCount += confusion[other][class]
			truthCount += confusion[class][other]
		}

		var precision, recall float64
		if predictedCount > 0 {
			precision = float64(tp) / float64(predictedCount)
		}
		if truthCount > 0 {
			recall = float64(tp) / float64(truthCount)
		}
		precisionSum += precision
		recallSum += recall
		if precision+recall > 0 {
			f1Sum += 2 * precision * recall / (precision + recall)
		}
	}

	n := float64(numClasses)
	m.Precision = precisionSum / n
	m.Recall = recallSum / n
	m.F1 = f1Sum / n
	return m
}

// PredictedClasses collapses probability rows to their most likely class.
func PredictedClasses(probabilities [][]float64) []int {
	classes := make([]int, len(probabilities))
	for i, row := range probabilities {
		best := 0
		for j, p := range row {
			if p > row[best] {
				best = j
			}
		}
		classes[i] = best
	}
	return classes
}
