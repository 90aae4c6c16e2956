package nn

import (
	"math"
	"math/rand"
	"testing"
)

// separableData returns two well-separated 2-D clusters, one per class.
func separableData(rng *rand.Rand, perClass int) (x [][]float64, y []int) {
	for class := range 2 {
		center := 3.0
		if class == 1 {
			center = -3.0
		}
		for range perClass {
			x = append(x, []float64{
				center + rng.NormFloat64()*0.3,
				-center + rng.NormFloat64()*0.3,
			})
			y = append(y, class)
		}
	}
	return x, y
}

func denseNet(seed int64) *Network {
	rng := rand.New(rand.NewSource(seed))
	w := GlorotParam(rng, 2, 2)
	b := NewParam(2)
	forward := func(ctx *Context, x *Tensor) *Tensor {
		return AddBias(MatMul(Flatten(x), w), b)
	}
	return NewNetwork("test", forward, []*Tensor{w, b}, seed)
}

func TestFitLearnsSeparableClasses(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	x, y := separableData(rng, 20)

	net := denseNet(1)
	history, err := net.Fit(x, y, []int{2}, FitOptions{
		Epochs:    20,
		BatchSize: 4,
		Optimizer: "adam",
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(history.Loss) != 20 || len(history.Accuracy) != 20 {
		t.Fatalf("history has %d loss and %d accuracy entries, want 20 each",
			len(history.Loss), len(history.Accuracy))
	}

	first, last := history.Loss[0], history.Loss[len(history.Loss)-1]
	if last >= first {
		t.Errorf("loss did not decrease: %g -> %g", first, last)
	}
	if acc := history.Accuracy[len(history.Accuracy)-1]; acc < 0.9 {
		t.Errorf("final training accuracy %g, want >= 0.9 on separable data", acc)
	}
}

func TestFitRecordsValidationHistory(t *testing.T) {
	rng := rand.New(rand.NewSource(100))
	x, y := separableData(rng, 10)
	valX, valY := separableData(rng, 5)

	net := denseNet(2)
	history, err := net.Fit(x, y, []int{2}, FitOptions{
		Epochs:    3,
		BatchSize: 4,
		Optimizer: "sgd",
		ValX:      valX,
		ValY:      valY,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(history.ValLoss) != 3 || len(history.ValAccuracy) != 3 {
		t.Fatalf("validation history lengths %d/%d, want 3/3",
			len(history.ValLoss), len(history.ValAccuracy))
	}
}

func TestFitRejectsBadInput(t *testing.T) {
	net := denseNet(3)

	if _, err := net.Fit(nil, nil, []int{2}, FitOptions{Epochs: 1}); err == nil {
		t.Error("expected error for empty training data")
	}
	if _, err := net.Fit([][]float64{{1, 2}}, []int{0, 1}, []int{2}, FitOptions{Epochs: 1}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
	if _, err := net.Fit([][]float64{{1, 2}}, []int{0}, []int{2}, FitOptions{}); err == nil {
		t.Error("expected error for zero epochs")
	}
	if _, err := net.Fit([][]float64{{1, 2}}, []int{0}, []int{2}, FitOptions{Epochs: 1, Optimizer: "momentum"}); err == nil {
		t.Error("expected error for unknown optimizer")
	}
}

func TestPredictReturnsDistributions(t *testing.T) {
	net := denseNet(4)
	probs := net.Predict([][]float64{{1, -1}, {-2, 2}}, []int{2})

	if len(probs) != 2 {
		t.Fatalf("got %d predictions, want 2", len(probs))
	}
	for i, row := range probs {
		total := 0.0
		for _, p := range row {
			if p < 0 || p > 1 {
				t.Fatalf("prediction %d has probability %g outside [0, 1]", i, p)
			}
			total += p
		}
		if math.Abs(total-1) > 1e-9 {
			t.Fatalf("prediction %d sums to %g", i, total)
		}
	}
}

func TestAdamMinimizesQuadratic(t *testing.T) {
	w := NewParam(1)
	target := 5.0

	opt := NewAdam(0.1)
	lossAt := func() float64 { return (w.Data[0] - target) * (w.Data[0] - target) }

	initial := lossAt()
	for range 200 {
		// d/dw of (w-target)^2, fed directly.
		w.Grad[0] = 2 * (w.Data[0] - target)
		opt.Step([]*Tensor{w}, 1)
	}
	if final := lossAt(); final >= initial/100 {
		t.Fatalf("adam failed to converge: loss %g -> %g", initial, final)
	}
}

func TestOptimizerStepZeroesGradients(t *testing.T) {
	w := NewParam(2)
	w.Grad[0], w.Grad[1] = 1, -1

	opt, err := NewOptimizer("sgd")
	if err != nil {
		t.Fatal(err)
	}
	opt.Step([]*Tensor{w}, 0.5)

	if w.Grad[0] != 0 || w.Grad[1] != 0 {
		t.Fatalf("gradients not cleared after step: %v", w.Grad)
	}
}

func TestNumParams(t *testing.T) {
	net := denseNet(5)
	if got := net.NumParams(); got != 6 {
		t.Fatalf("NumParams = %d, want 6 (2x2 weights + 2 biases)", got)
	}
}
