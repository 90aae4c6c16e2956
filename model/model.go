// Package model assembles the four classifier families on top of the nn
// engine. Every family hides behind the same Builder contract, so the
// cross-validation trainer is agnostic to which one it drives.
package model

import (
	"fmt"
	"math/rand"

	"github.com/echolab/songbird/config"
	"github.com/echolab/songbird/nn"
)

// Builder constructs a fresh, untrained network for a per-sample tensor
// shape. Builders are reused across folds; every Build call returns an
// independent model with freshly initialized weights.
type Builder interface {
	Family() config.Family
	Name() string
	Build(sampleShape []int) (*nn.Network, error)
}

// New returns the builder for the configured family.
func New(cfg config.Settings) (Builder, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	switch cfg.Family {
	case config.FamilyTransformer:
		return &transformerBuilder{cfg: cfg}, nil
	case config.FamilyLSTM:
		return &lstmBuilder{cfg: cfg}, nil
	case config.FamilyMLP:
		return &mlpBuilder{cfg: cfg}, nil
	case config.FamilyResidual:
		return &residualBuilder{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("no builder for family %q", cfg.Family)
	}
}

// weight initialization seed; fresh models per fold start from identical
// weights so runs are reproducible
const initSeed = 42

func activation(name string) (func(*nn.Tensor) *nn.Tensor, error) {
	switch name {
	case "relu":
		return nn.ReLU, nil
	case "tanh":
		return nn.Tanh, nil
	case "sigmoid":
		return nn.Sigmoid, nil
	case "linear", "":
		return func(t *nn.Tensor) *nn.Tensor { return t }, nil
	default:
		return nil, fmt.Errorf("unknown activation %q", name)
	}
}

// dense is one fully connected layer: y = act(xW + b).
type dense struct {
	w *nn.Tensor
	b *nn.Tensor
}

func newDense(rng *rand.Rand, in, out int) *dense {
	return &dense{
		w: nn.GlorotParam(rng, in, out),
		b: nn.NewParam(out),
	}
}

func (d *dense) apply(x *nn.Tensor) *nn.Tensor {
	return nn.AddBias(nn.MatMul(x, d.w), d.b)
}

func (d *dense) params() []*nn.Tensor {
	return []*nn.Tensor{d.w, d.b}
}
