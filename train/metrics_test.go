package train

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluatePerfectPredictions(t *testing.T) {
	truth := []int{0, 1, 2, 0, 1, 2}
	m := Evaluate(truth, truth, 3)

	if m.Accuracy != 1 || m.Precision != 1 || m.Recall != 1 || m.F1 != 1 {
		t.Fatalf("perfect predictions scored %+v", m)
	}
	for i := range 3 {
		if m.Confusion[i][i] != 2 {
			t.Errorf("diagonal[%d] = %d, want 2", i, m.Confusion[i][i])
		}
	}
}

func TestEvaluateMixedPredictions(t *testing.T) {
	truth := []int{0, 0, 1, 1}
	pred := []int{0, 1, 1, 1}
	m := Evaluate(truth, pred, 2)

	if !almostEqual(m.Accuracy, 0.75) {
		t.Errorf("accuracy %g, want 0.75", m.Accuracy)
	}
	// Class 0: precision 1/1, recall 1/2. Class 1: precision 2/3, recall 2/2.
	if !almostEqual(m.Precision, (1.0+2.0/3.0)/2) {
		t.Errorf("precision %g, want %g", m.Precision, (1.0+2.0/3.0)/2)
	}
	if !almostEqual(m.Recall, (0.5+1.0)/2) {
		t.Errorf("recall %g, want 0.75", m.Recall)
	}

	f0 := 2 * 1.0 * 0.5 / (1.0 + 0.5)
	f1 := 2 * (2.0 / 3.0) * 1.0 / (2.0/3.0 + 1.0)
	if !almostEqual(m.F1, (f0+f1)/2) {
		t.Errorf("f1 %g, want %g", m.F1, (f0+f1)/2)
	}

	if m.Confusion[0][1] != 1 {
		t.Errorf("confusion[0][1] = %d, want 1", m.Confusion[0][1])
	}
}

func TestEvaluateAbsentClass(t *testing.T) {
	truth := []int{0, 0}
	pred := []int{0, 0}
	m := Evaluate(truth, pred, 2)

	if m.Accuracy != 1 {
		t.Errorf("accuracy %g, want 1", m.Accuracy)
	}
	// Class 1 has no support and no predictions: contributes zero, does not NaN.
	if math.IsNaN(m.Precision) || math.IsNaN(m.Recall) || math.IsNaN(m.F1) {
		t.Fatalf("absent class produced NaN: %+v", m)
	}
	if !almostEqual(m.Precision, 0.5) {
		t.Errorf("precision %g, want 0.5", m.Precision)
	}
}

func TestEvaluateEmpty(t *testing.T) {
	m := Evaluate(nil, nil, 2)
	if m.Accuracy != 0 || m.F1 != 0 {
		t.Fatalf("empty evaluation scored %+v", m)
	}
}

func TestPredictedClasses(t *testing.T) {
	probs := [][]float64{
		{0.1, 0.7, 0.2},
		{0.5, 0.3, 0.2},
		{0.2, 0.2, 0.6},
	}
	got := PredictedClasses(probs)
	want := []int{1, 0, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("prediction %d = %d, want %d", i, got[i], want[i])
		}
	}
}
