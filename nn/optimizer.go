package nn

import (
	"fmt"
	"math"
)

// Optimizer updates trainable tensors from their accumulated gradients.
// Step consumes the gradients (scaled by scale, typically 1/batchSize) and
// zeroes them afterwards.
type Optimizer interface {
	Step(params []*Tensor, scale float64)
	Name() string
}

// NewOptimizer resolves an optimizer identifier ("adam", "sgd") with its
// conventional default learning rate.
func NewOptimizer(name string) (Optimizer, error) {
	switch name {
	case "adam", "":
		return NewAdam(0.001), nil
	case "sgd":
		return &SGD{LearningRate: 0.01}, nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", name)
	}
}

// SGD is plain stochastic gradient descent.
type SGD struct {
	LearningRate float64
}

func (s *SGD) Name() string { return "sgd" }

func (s *SGD) Step(params []*Tensor, scale float64) {
	for _, p := range params {
		for i := range p.Data {
			p.Data[i] -= s.LearningRate * p.Grad[i] * scale
		}
		p.ZeroGrad()
	}
}

// Adam implements the Adam optimizer with bias-corrected first and second
// moment estimates.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	step int
	m    map[*Tensor][]float64
	v    map[*Tensor][]float64
}

// NewAdam creates an Adam optimizer with the usual beta/epsilon defaults.
func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
		m:            make(map[*Tensor][]float64),
		v:            make(map[*Tensor][]float64),
	}
}

func (a *Adam) Name() string { return "adam" }

func (a *Adam) Step(params []*Tensor, scale float64) {
	a.step++
	c1 := 1 - math.Pow(a.Beta1, float64(a.step))
	c2 := 1 - math.Pow(a.Beta2, float64(a.step))

	for _, p := range params {
		m, ok := a.m[p]
		if !ok {
			m = make([]float64, len(p.Data))
			a.m[p] = m
		}
		v, ok := a.v[p]
		if !ok {
			v = make([]float64, len(p.Data))
			a.v[p] = v
		}

		for i := range p.Data {
			g := p.Grad[i] * scale
			m[i] = a.Beta1*m[i] + (1-a.Beta1)*g
			v[i] = a.Beta2*v[i] + (1-a.Beta2)*g*g
			mhat := m[i] / c1
			vhat := v[i] / c2
			p.Data[i] -= a.LearningRate * mhat / (math.Sqrt(vhat) + a.Epsilon)
		}
		p.ZeroGrad()
	}
}
