package model

import (
	"fmt"
	"math/rand"

	"github.com/echolab/songbird/config"
	"github.com/echolab/songbird/nn"
)

// lstmBuilder stacks recurrent layers over the raw-segment sequence, pools
// over time and classifies with a dense head. Every layer returns its full
// hidden sequence; the pooling collapses the time axis.
type lstmBuilder struct {
	cfg config.Settings
}

// lstmCell holds the weights of one recurrent layer: input and recurrent
// kernels over the four gates (input, forget, cell, output) plus bias.
type lstmCell struct {
	units int
	wx    *nn.Tensor // [in, 4*units]
	wh    *nn.Tensor // [units, 4*units]
	b     *nn.Tensor // [4*units]
}

func newLSTMCell(rng *rand.Rand, in, units int) *lstmCell {
	return &lstmCell{
		units: units,
		wx:    nn.GlorotParam(rng, in, 4*units),
		wh:    nn.GlorotParam(rng, units, 4*units),
		b:     nn.NewParam(4 * units),
	}
}

func (c *lstmCell) params() []*nn.Tensor {
	return []*nn.Tensor{c.wx, c.wh, c.b}
}

// apply unrolls the cell over the sequence x [T,in], returning [T,units].
func (c *lstmCell) apply(x *nn.Tensor, cellAct, gateAct func(*nn.Tensor) *nn.Tensor) *nn.Tensor {
	steps := x.Shape[0]
	u := c.units

	h := nn.Zeros(1, u)
	cell := nn.Zeros(1, u)

	outputs := make([]*nn.Tensor, steps)
	for t := range steps {
		xt := nn.SliceRows(x, t, t+1)
		z := nn.AddBias(nn.Add(nn.MatMul(xt, c.wx), nn.MatMul(h, c.wh)), c.b)

		i := gateAct(nn.SliceCols(z, 0, u))
		f := gateAct(nn.SliceCols(z, u, 2*u))
		g := cellAct(nn.SliceCols(z, 2*u, 3*u))
		o := gateAct(nn.SliceCols(z, 3*u, 4*u))

		cell = nn.Add(nn.Mul(f, cell), nn.Mul(i, g))
		h = nn.Mul(o, nn.Tanh(cell))
		outputs[t] = h
	}

	return nn.ConcatRows(outputs...)
}

func (b *lstmBuilder) Family() config.Family { return config.FamilyLSTM }
func (b *lstmBuilder) Name() string          { return "LSTM" }

func (b *lstmBuilder) Build(sampleShape []int) (*nn.Network, error) {
	if len(sampleShape) != 2 {
		return nil, fmt.Errorf("lstm: want a [steps, features] sample shape, got %v", sampleShape)
	}
	cellAct, err := activation(b.cfg.IntermediaryActivation)
	if err != nil {
		return nil, err
	}
	gateAct, err := activation(b.cfg.RecurrentActivation)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(initSeed))

	var params []*nn.Tensor
	var cells []*lstmCell
	in := sampleShape[1]
	for _, units := range b.cfg.HiddenUnits {
		cell := newLSTMCell(rng, in, units)
		cells = append(cells, cell)
		params = append(params, cell.params()...)
		in = units
	}
	head := newDense(rng, in, b.cfg.NumberClasses)
	params = append(params, head.params()...)

	dropout := b.cfg.DropoutRate

	forward := func(ctx *nn.Context, x *nn.Tensor) *nn.Tensor {
		flow := x
		for _, cell := range cells {
			flow = cell.apply(flow, cellAct, gateAct)
			flow = nn.Dropout(flow, dropout, ctx.RNG, ctx.Train)
		}
		flow = nn.MeanRows(flow)
		return head.apply(flow)
	}

	return nn.NewNetwork(b.Name(), forward, params, initSeed), nil
}
