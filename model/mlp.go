package model

import (
	"fmt"
	"math/rand"

	"github.com/echolab/songbird/config"
	"github.com/echolab/songbird/nn"
)

// mlpBuilder stacks dense layers with dropout over the flattened raw-segment
// features.
type mlpBuilder struct {
	cfg config.Settings
}

func (b *mlpBuilder) Family() config.Family { return config.FamilyMLP }
func (b *mlpBuilder) Name() string          { return "MLP" }

func (b *mlpBuilder) Build(sampleShape []int) (*nn.Network, error) {
	if len(sampleShape) < 1 {
		return nil, fmt.Errorf("mlp: empty sample shape")
	}
	act, err := activation(b.cfg.IntermediaryActivation)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(initSeed))
	inputSize := nn.Size(sampleShape)

	var params []*nn.Tensor
	var hidden []*dense
	in := inputSize
	for _, units := range b.cfg.HiddenUnits {
		layer := newDense(rng, in, units)
		hidden = append(hidden, layer)
		params = append(params, layer.params()...)
		in = units
	}
	head := newDense(rng, in, b.cfg.NumberClasses)
	params = append(params, head.params()...)

	dropout := b.cfg.DropoutRate

	forward := func(ctx *nn.Context, x *nn.Tensor) *nn.Tensor {
		flow := nn.Flatten(x)
		for _, layer := range hidden {
			flow = act(layer.apply(flow))
			flow = nn.Dropout(flow, dropout, ctx.RNG, ctx.Train)
		}
		return head.apply(flow)
	}

	return nn.NewNetwork(b.Name(), forward, params, initSeed), nil
}
