package nn

import (
	"fmt"
	"math/rand"

	"github.com/echolab/songbird/logging"
)

// Context carries per-pass state into a forward function.
type Context struct {
	Train bool
	RNG   *rand.Rand
}

// Forward maps one input sample to class logits [1, numClasses].
type Forward func(ctx *Context, x *Tensor) *Tensor

// Network is a trained or trainable model: a forward function over a set of
// parameter tensors. Builders assemble the forward closure; the network owns
// the fit/predict loop.
type Network struct {
	Name string

	forward Forward
	params  []*Tensor
	rng     *rand.Rand
	logger  logging.Logger
}

// NewNetwork wraps a forward function and its parameters. The seed drives
// batch shuffling and dropout masks.
func NewNetwork(name string, forward Forward, params []*Tensor, seed int64) *Network {
	return &Network{
		Name:    name,
		forward: forward,
		params:  params,
		rng:     rand.New(rand.NewSource(seed)),
		logger: logging.WithFields(logging.Fields{
			"component": "network",
			"model":     name,
		}),
	}
}

// NumParams returns the total number of trainable scalars.
func (n *Network) NumParams() int {
	total := 0
	for _, p := range n.params {
		total += len(p.Data)
	}
	return total
}

// Summary logs the model name and parameter count.
func (n *Network) Summary() {
	n.logger.Info("model summary", logging.Fields{
		"tensors":    len(n.params),
		"parameters": n.NumParams(),
	})
}

// History records per-epoch training metrics. Validation slices are empty
// when no validation data was supplied.
type History struct {
	Loss        []float64 `json:"loss"`
	Accuracy    []float64 `json:"accuracy"`
	ValLoss     []float64 `json:"val_loss"`
	ValAccuracy []float64 `json:"val_accuracy"`
}

// FitOptions configures one training run.
type FitOptions struct {
	Epochs    int
	BatchSize int
	Optimizer string
	ValX      [][]float64
	ValY      []int
}

// Fit trains the network with softmax cross-entropy. Each sample in x is a
// flat tensor of the given per-sample shape; y holds the class indices.
func (n *Network) Fit(x [][]float64, y []int, shape []int, opts FitOptions) (*History, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("no training samples")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("feature/label length mismatch: %d vs %d", len(x), len(y))
	}
	if opts.Epochs < 1 {
		return nil, fmt.Errorf("epochs must be >= 1, got %d", opts.Epochs)
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 32
	}

	opt, err := NewOptimizer(opts.Optimizer)
	if err != nil {
		return nil, err
	}

	history := &History{}
	indices := make([]int, len(x))
	for i := range indices {
		indices[i] = i
	}

	ctx := &Context{Train: true, RNG: n.rng}

	for epoch := range opts.Epochs {
		n.rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		epochLoss := 0.0
		correct := 0
		for batchStart := 0; batchStart < len(indices); batchStart += opts.BatchSize {
			batch := indices[batchStart:min(batchStart+opts.BatchSize, len(indices))]

			for _, idx := range batch {
				input := NewTensor(shape, x[idx])
				logits := n.forward(ctx, input)
				loss := SoftmaxCrossEntropy(Flatten(logits), y[idx])
				epochLoss += loss.Value()
				if argmax(logits.Data) == y[idx] {
					correct++
				}
				loss.Backward()
			}

			opt.Step(n.params, 1/float64(len(batch)))
		}

		history.Loss = append(history.Loss, epochLoss/float64(len(x)))
		history.Accuracy = append(history.Accuracy, float64(correct)/float64(len(x)))

		fields := logging.Fields{
			"epoch":    epoch + 1,
			"epochs":   opts.Epochs,
			"loss":     history.Loss[epoch],
			"accuracy": history.Accuracy[epoch],
		}

		if len(opts.ValX) > 0 {
			valLoss, valAcc := n.evaluate(opts.ValX, opts.ValY, shape)
			history.ValLoss = append(history.ValLoss, valLoss)
			history.ValAccuracy = append(history.ValAccuracy, valAcc)
			fields["val_loss"] = valLoss
			fields["val_accuracy"] = valAcc
		}

		n.logger.Info("epoch complete", fields)
	}

	return history, nil
}

// evaluate computes mean loss and accuracy without training.
func (n *Network) evaluate(x [][]float64, y []int, shape []int) (loss, accuracy float64) {
	ctx := &Context{Train: false, RNG: n.rng}
	correct := 0
	for i := range x {
		logits := n.forward(ctx, NewTensor(shape, x[i]))
		l := SoftmaxCrossEntropy(Flatten(logits), y[i])
		loss += l.Value()
		if argmax(logits.Data) == y[i] {
			correct++
		}
	}
	return loss / float64(len(x)), float64(correct) / float64(len(x))
}

// Predict returns the per-class probability distribution for every sample.
func (n *Network) Predict(x [][]float64, shape []int) [][]float64 {
	ctx := &Context{Train: false, RNG: n.rng}
	probs := make([][]float64, len(x))
	for i := range x {
		logits := n.forward(ctx, NewTensor(shape, x[i]))
		p := make([]float64, len(logits.Data))
		softmaxInto(p, logits.Data)
		probs[i] = p
	}
	return probs
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
