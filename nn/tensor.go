// Package nn is a small reverse-mode tensor engine: enough layer primitives
// (dense, convolution, recurrent steps, attention building blocks,
// normalization, dropout, pooling) to assemble the classifier families, an
// Adam/SGD optimizer, and a fit/predict loop with per-epoch history.
package nn

import (
	"fmt"
	"math"
	"math/rand"
)

// Tensor is a dense numeric array with an optional gradient. Tensors created
// by ops record their parents and a backward closure; Backward replays the
// recorded graph in reverse topological order.
type Tensor struct {
	Shape []int
	Data  []float64
	Grad  []float64

	parents  []*Tensor
	backward func()
	requires bool
}

// NewTensor wraps data in a tensor with the given shape. The data is not
// copied and gradients are not tracked.
func NewTensor(shape []int, data []float64) *Tensor {
	if len(data) != Size(shape) {
		panic(fmt.Sprintf("nn: shape %v needs %d values, got %d", shape, Size(shape), len(data)))
	}
	return &Tensor{Shape: shape, Data: data}
}

// Zeros returns a zero-filled tensor without gradient tracking.
func Zeros(shape ...int) *Tensor {
	return &Tensor{Shape: shape, Data: make([]float64, Size(shape))}
}

// NewParam returns a zero-initialized trainable tensor.
func NewParam(shape ...int) *Tensor {
	return &Tensor{
		Shape:    shape,
		Data:     make([]float64, Size(shape)),
		Grad:     make([]float64, Size(shape)),
		requires: true,
	}
}

// GlorotParam returns a trainable tensor initialized with Glorot-uniform
// noise, using fanIn/fanOut derived from the first and last dimensions.
func GlorotParam(rng *rand.Rand, shape ...int) *Tensor {
	t := NewParam(shape...)
	fanIn := shape[0]
	fanOut := shape[len(shape)-1]
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	for i := range t.Data {
		t.Data[i] = (rng.Float64()*2 - 1) * limit
	}
	return t
}

// Size returns the element count of a shape.
func Size(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Rows and Cols read a 2-D tensor's dimensions.
func (t *Tensor) Rows() int { return t.Shape[0] }
func (t *Tensor) Cols() int { return t.Shape[1] }

// result builds an op output tensor. Gradient tracking is inherited from the
// parents; backward is only retained when some parent needs gradients.
func result(shape []int, data []float64, back func(), parents ...*Tensor) *Tensor {
	t := &Tensor{Shape: shape, Data: data}
	for _, p := range parents {
		if p.requires {
			t.requires = true
			break
		}
	}
	if t.requires {
		t.Grad = make([]float64, len(data))
		t.parents = parents
		t.backward = back
	}
	return t
}

// Backward runs reverse-mode differentiation from t, which must be scalar.
// Gradients accumulate into every reachable tensor with tracking enabled.
func (t *Tensor) Backward() {
	if Size(t.Shape) != 1 {
		panic("nn: Backward requires a scalar tensor")
	}
	if !t.requires {
		return
	}

	// Topological order via depth-first search.
	var order []*Tensor
	visited := map[*Tensor]bool{}
	var visit func(*Tensor)
	visit = func(n *Tensor) {
		if visited[n] || !n.requires {
			return
		}
		visited[n] = true
		for _, p := range n.parents {
			visit(p)
		}
		order = append(order, n)
	}
	visit(t)

	t.Grad[0] = 1
	for i := len(order) - 1; i >= 0; i-- {
		if order[i].backward != nil {
			order[i].backward()
		}
	}
}

// ZeroGrad clears the gradient buffer.
func (t *Tensor) ZeroGrad() {
	for i := range t.Grad {
		t.Grad[i] = 0
	}
}

// Value returns the single element of a scalar tensor.
func (t *Tensor) Value() float64 {
	return t.Data[0]
}
