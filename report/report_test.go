package report

import (
	"strings"
	"testing"

	"github.com/echolab/songbird/nn"
	"github.com/echolab/songbird/train"
)

func sampleReport() *train.Report {
	return &train.Report{
		RunID: "b2f1c9e4",
		Model: "MLP",
		Folds: 2,
		Metrics: []train.MetricSummary{
			{Name: "Acc.", Value: 0.9, Std: 0.05},
			{Name: "Prec.", Value: 0.88, Std: 0.04},
			{Name: "Rec.", Value: 0.87, Std: 0.06},
			{Name: "F1.", Value: 0.875, Std: 0.05},
		},
		Confusion: train.ConfusionReport{
			Title:      "MLP mean confusion matrix",
			ClassNames: []string{"Class 0", "Class 1"},
			Matrix:     [][]int{{9, 1}, {2, 8}},
		},
		Histories: []train.NamedHistory{
			{Name: "MLP fold 1", History: &nn.History{Loss: []float64{0.7, 0.4}, Accuracy: []float64{0.6, 0.9}}},
			{Name: "MLP fold 2", History: &nn.History{Loss: []float64{0.8, 0.5}, Accuracy: []float64{0.5, 0.85}}},
		},
	}
}

func TestRenderContainsAllSections(t *testing.T) {
	out := NewRenderer(DefaultTheme).Render(sampleReport())

	for _, want := range []string{
		"MLP cross-validation",
		"b2f1c9e4",
		"Acc.", "Prec.", "Rec.", "F1.",
		"0.9000",
		"MLP mean confusion matrix",
		"Class 0", "Class 1",
		"MLP fold 1", "MLP fold 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered report missing %q", want)
		}
	}
}

func TestRenderReportsFailedFolds(t *testing.T) {
	rep := sampleReport()
	rep.FailedFolds = 1
	out := NewRenderer(DefaultTheme).Render(rep)
	if !strings.Contains(out, "1 failed") {
		t.Error("rendered report does not mention the failed fold")
	}
}

func TestRenderHoldout(t *testing.T) {
	out := NewRenderer(DefaultTheme).RenderHoldout(&train.HoldoutResult{
		Metrics: train.Metrics{Accuracy: 0.75, Precision: 0.7, Recall: 0.72, F1: 0.71},
	})
	for _, want := range []string{"Holdout evaluation", "0.7500"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered holdout missing %q", want)
		}
	}
}
