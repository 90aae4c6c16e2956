package model

import (
	"fmt"
	"math/rand"

	"github.com/echolab/songbird/config"
	"github.com/echolab/songbird/nn"
)

// residualBuilder assembles the convolutional family: per block two same-
// padded convolutions, a channel-concatenation shortcut from the block
// input, max pooling and dropout, then a flattened dense head.
type residualBuilder struct {
	cfg config.Settings
}

// convBlock is one residual block's kernels.
type convBlock struct {
	w1, b1 *nn.Tensor
	w2, b2 *nn.Tensor
}

func (b *residualBuilder) Family() config.Family { return config.FamilyResidual }
func (b *residualBuilder) Name() string          { return "Residual" }

func (b *residualBuilder) Build(sampleShape []int) (*nn.Network, error) {
	if len(sampleShape) != 3 {
		return nil, fmt.Errorf("residual: want a [height, width, channels] sample shape, got %v", sampleShape)
	}
	if b.cfg.ConvolutionalPadding != "same" {
		return nil, fmt.Errorf("residual: unsupported padding %q", b.cfg.ConvolutionalPadding)
	}
	act, err := activation(b.cfg.IntermediaryActivation)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(initSeed))
	kernel := b.cfg.KernelSize
	pool := b.cfg.PoolingSize

	height, width, channels := sampleShape[0], sampleShape[1], sampleShape[2]

	var params []*nn.Tensor
	var blocks []*convBlock
	for _, filters := range b.cfg.FiltersPerBlock {
		block := &convBlock{
			w1: nn.GlorotParam(rng, kernel, kernel, channels, filters),
			b1: nn.NewParam(filters),
			w2: nn.GlorotParam(rng, kernel, kernel, filters, filters),
			b2: nn.NewParam(filters),
		}
		blocks = append(blocks, block)
		params = append(params, block.w1, block.b1, block.w2, block.b2)

		// Concatenation shortcut keeps the block input's channels.
		channels += filters
		height /= pool
		width /= pool
		if height < 1 || width < 1 {
			return nil, fmt.Errorf("residual: input %v too small for %d pooled blocks",
				sampleShape, len(b.cfg.FiltersPerBlock))
		}
	}

	head := newDense(rng, height*width*channels, b.cfg.NumberClasses)
	params = append(params, head.params()...)

	dropout := b.cfg.DropoutRate

	forward := func(ctx *nn.Context, x *nn.Tensor) *nn.Tensor {
		flow := x
		for _, block := range blocks {
			shortcut := flow
			flow = act(nn.Conv2D(flow, block.w1, block.b1))
			flow = act(nn.Conv2D(flow, block.w2, block.b2))
			flow = nn.ConcatChannels(flow, shortcut)
			flow = nn.MaxPool2D(flow, pool)
			flow = nn.Dropout(flow, dropout, ctx.RNG, ctx.Train)
		}
		return head.apply(nn.Flatten(flow))
	}

	return nn.NewNetwork(b.Name(), forward, params, initSeed), nil
}
