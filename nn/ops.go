package nn

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// MatMul multiplies a [m,k] by b [k,n].
func MatMul(a, b *Tensor) *Tensor {
	if len(a.Shape) != 2 || len(b.Shape) != 2 || a.Shape[1] != b.Shape[0] {
		panic(fmt.Sprintf("nn: MatMul shape mismatch %v x %v", a.Shape, b.Shape))
	}
	m, k, n := a.Shape[0], a.Shape[1], b.Shape[1]

	A := mat.NewDense(m, k, a.Data)
	B := mat.NewDense(k, n, b.Data)
	C := mat.NewDense(m, n, nil)
	C.Mul(A, B)

	var out *Tensor
	out = result([]int{m, n}, C.RawMatrix().Data, func() {
		G := mat.NewDense(m, n, out.Grad)
		if a.requires {
			dA := mat.NewDense(m, k, nil)
			dA.Mul(G, B.T())
			addInto(a.Grad, dA.RawMatrix().Data)
		}
		if b.requires {
			dB := mat.NewDense(k, n, nil)
			dB.Mul(A.T(), G)
			addInto(b.Grad, dB.RawMatrix().Data)
		}
	}, a, b)
	return out
}

// Transpose returns aᵀ for a 2-D tensor.
func Transpose(a *Tensor) *Tensor {
	m, n := a.Shape[0], a.Shape[1]
	data := make([]float64, m*n)
	for i := range m {
		for j := range n {
			data[j*m+i] = a.Data[i*n+j]
		}
	}
	var out *Tensor
	out = result([]int{n, m}, data, func() {
		for i := range m {
			for j := range n {
				a.Grad[i*n+j] += out.Grad[j*m+i]
			}
		}
	}, a)
	return out
}

// Add sums two tensors of identical shape.
func Add(a, b *Tensor) *Tensor {
	if Size(a.Shape) != Size(b.Shape) {
		panic(fmt.Sprintf("nn: Add shape mismatch %v + %v", a.Shape, b.Shape))
	}
	data := make([]float64, len(a.Data))
	for i := range data {
		data[i] = a.Data[i] + b.Data[i]
	}
	var out *Tensor
	out = result(a.Shape, data, func() {
		if a.requires {
			addInto(a.Grad, out.Grad)
		}
		if b.requires {
			addInto(b.Grad, out.Grad)
		}
	}, a, b)
	return out
}

// AddBias adds a length-n bias vector to every row of x [m,n].
func AddBias(x, bias *Tensor) *Tensor {
	m, n := x.Shape[0], x.Shape[1]
	data := make([]float64, len(x.Data))
	for i := range m {
		for j := range n {
			data[i*n+j] = x.Data[i*n+j] + bias.Data[j]
		}
	}
	var out *Tensor
	out = result(x.Shape, data, func() {
		if x.requires {
			addInto(x.Grad, out.Grad)
		}
		if bias.requires {
			for i := range m {
				for j := range n {
					bias.Grad[j] += out.Grad[i*n+j]
				}
			}
		}
	}, x, bias)
	return out
}

// Mul multiplies two tensors of identical shape element-wise.
func Mul(a, b *Tensor) *Tensor {
	if Size(a.Shape) != Size(b.Shape) {
		panic(fmt.Sprintf("nn: Mul shape mismatch %v * %v", a.Shape, b.Shape))
	}
	data := make([]float64, len(a.Data))
	for i := range data {
		data[i] = a.Data[i] * b.Data[i]
	}
	var out *Tensor
	out = result(a.Shape, data, func() {
		for i := range out.Grad {
			if a.requires {
				a.Grad[i] += out.Grad[i] * b.Data[i]
			}
			if b.requires {
				b.Grad[i] += out.Grad[i] * a.Data[i]
			}
		}
	}, a, b)
	return out
}

// Scale multiplies every element by s.
func Scale(a *Tensor, s float64) *Tensor {
	data := make([]float64, len(a.Data))
	for i := range data {
		data[i] = a.Data[i] * s
	}
	var out *Tensor
	out = result(a.Shape, data, func() {
		for i := range out.Grad {
			a.Grad[i] += out.Grad[i] * s
		}
	}, a)
	return out
}

// unary applies f element-wise; df(x, y) is the derivative given input and output.
func unary(a *Tensor, f func(float64) float64, df func(x, y float64) float64) *Tensor {
	data := make([]float64, len(a.Data))
	for i, v := range a.Data {
		data[i] = f(v)
	}
	var out *Tensor
	out = result(a.Shape, data, func() {
		for i := range out.Grad {
			a.Grad[i] += out.Grad[i] * df(a.Data[i], out.Data[i])
		}
	}, a)
	return out
}

// ReLU applies max(0, x) element-wise.
func ReLU(a *Tensor) *Tensor {
	return unary(a, func(x float64) float64 {
		return math.Max(0, x)
	}, func(x, _ float64) float64 {
		if x > 0 {
			return 1
		}
		return 0
	})
}

// Tanh applies tanh element-wise.
func Tanh(a *Tensor) *Tensor {
	return unary(a, math.Tanh, func(_, y float64) float64 {
		return 1 - y*y
	})
}

// Sigmoid applies the logistic function element-wise.
func Sigmoid(a *Tensor) *Tensor {
	return unary(a, func(x float64) float64 {
		return 1 / (1 + math.Exp(-x))
	}, func(_, y float64) float64 {
		return y * (1 - y)
	})
}

// Softmax normalizes each row of a 2-D tensor (or the whole of a 1-D tensor)
// into a probability distribution.
func Softmax(a *Tensor) *Tensor {
	rows, cols := 1, len(a.Data)
	if len(a.Shape) == 2 {
		rows, cols = a.Shape[0], a.Shape[1]
	}

	data := make([]float64, len(a.Data))
	for r := range rows {
		row := a.Data[r*cols : (r+1)*cols]
		out := data[r*cols : (r+1)*cols]
		softmaxInto(out, row)
	}

	var out *Tensor
	out = result(a.Shape, data, func() {
		for r := range rows {
			y := out.Data[r*cols : (r+1)*cols]
			g := out.Grad[r*cols : (r+1)*cols]
			dot := 0.0
			for j := range cols {
				dot += g[j] * y[j]
			}
			for j := range cols {
				a.Grad[r*cols+j] += y[j] * (g[j] - dot)
			}
		}
	}, a)
	return out
}

func softmaxInto(dst, src []float64) {
	maxv := src[0]
	for _, v := range src[1:] {
		if v > maxv {
			maxv = v
		}
	}
	sum := 0.0
	for j, v := range src {
		dst[j] = math.Exp(v - maxv)
		sum += dst[j]
	}
	for j := range dst {
		dst[j] /= sum
	}
}

// LayerNorm normalizes each row of x [m,n] to zero mean and unit variance,
// then applies the learned gamma/beta affine.
func LayerNorm(x, gamma, beta *Tensor, eps float64) *Tensor {
	m, n := x.Shape[0], x.Shape[1]
	data := make([]float64, len(x.Data))
	xhat := make([]float64, len(x.Data))
	invStd := make([]float64, m)
	means := make([]float64, m)

	for i := range m {
		row := x.Data[i*n : (i+1)*n]
		mu := 0.0
		for _, v := range row {
			mu += v
		}
		mu /= float64(n)
		variance := 0.0
		for _, v := range row {
			variance += (v - mu) * (v - mu)
		}
		variance /= float64(n)
		is := 1 / math.Sqrt(variance+eps)
		means[i] = mu
		invStd[i] = is
		for j, v := range row {
			h := (v - mu) * is
			xhat[i*n+j] = h
			data[i*n+j] = gamma.Data[j]*h + beta.Data[j]
		}
	}

	var out *Tensor
	out = result(x.Shape, data, func() {
		for i := range m {
			var sumDh, sumDhH float64
			for j := range n {
				dh := out.Grad[i*n+j] * gamma.Data[j]
				sumDh += dh
				sumDhH += dh * xhat[i*n+j]
			}
			for j := range n {
				g := out.Grad[i*n+j]
				if gamma.requires {
					gamma.Grad[j] += g * xhat[i*n+j]
				}
				if beta.requires {
					beta.Grad[j] += g
				}
				if x.requires {
					dh := g * gamma.Data[j]
					x.Grad[i*n+j] += invStd[i] / float64(n) *
						(float64(n)*dh - sumDh - xhat[i*n+j]*sumDhH)
				}
			}
		}
	}, x, gamma, beta)
	return out
}

// ConcatRows stacks 2-D tensors with equal column counts along the row axis.
func ConcatRows(ts ...*Tensor) *Tensor {
	n := ts[0].Shape[1]
	rows := 0
	for _, t := range ts {
		if t.Shape[1] != n {
			panic("nn: ConcatRows column mismatch")
		}
		rows += t.Shape[0]
	}

	data := make([]float64, 0, rows*n)
	for _, t := range ts {
		data = append(data, t.Data...)
	}

	var out *Tensor
	out = result([]int{rows, n}, data, func() {
		offset := 0
		for _, t := range ts {
			if t.requires {
				addInto(t.Grad, out.Grad[offset:offset+len(t.Data)])
			}
			offset += len(t.Data)
		}
	}, ts...)
	return out
}

// ConcatCols joins 2-D tensors with equal row counts along the column axis.
func ConcatCols(ts ...*Tensor) *Tensor {
	m := ts[0].Shape[0]
	cols := 0
	for _, t := range ts {
		if t.Shape[0] != m {
			panic("nn: ConcatCols row mismatch")
		}
		cols += t.Shape[1]
	}

	data := make([]float64, m*cols)
	offset := 0
	for _, t := range ts {
		w := t.Shape[1]
		for i := range m {
			copy(data[i*cols+offset:i*cols+offset+w], t.Data[i*w:(i+1)*w])
		}
		offset += w
	}

	var out *Tensor
	out = result([]int{m, cols}, data, func() {
		offset := 0
		for _, t := range ts {
			w := t.Shape[1]
			if t.requires {
				for i := range m {
					for j := range w {
						t.Grad[i*w+j] += out.Grad[i*cols+offset+j]
					}
				}
			}
			offset += w
		}
	}, ts...)
	return out
}

// SliceRows returns rows [from, to) of a 2-D tensor.
func SliceRows(a *Tensor, from, to int) *Tensor {
	n := a.Shape[1]
	data := make([]float64, (to-from)*n)
	copy(data, a.Data[from*n:to*n])

	var out *Tensor
	out = result([]int{to - from, n}, data, func() {
		addInto(a.Grad[from*n:to*n], out.Grad)
	}, a)
	return out
}

// SliceCols returns columns [from, to) of a 2-D tensor.
func SliceCols(a *Tensor, from, to int) *Tensor {
	m, n := a.Shape[0], a.Shape[1]
	w := to - from
	data := make([]float64, m*w)
	for i := range m {
		copy(data[i*w:(i+1)*w], a.Data[i*n+from:i*n+to])
	}

	var out *Tensor
	out = result([]int{m, w}, data, func() {
		for i := range m {
			for j := range w {
				a.Grad[i*n+from+j] += out.Grad[i*w+j]
			}
		}
	}, a)
	return out
}

// MeanRows averages a 2-D tensor over its rows, yielding a [1,n] tensor
// (global average pooling over the sequence axis).
func MeanRows(a *Tensor) *Tensor {
	m, n := a.Shape[0], a.Shape[1]
	data := make([]float64, n)
	for i := range m {
		for j := range n {
			data[j] += a.Data[i*n+j]
		}
	}
	for j := range data {
		data[j] /= float64(m)
	}

	var out *Tensor
	out = result([]int{1, n}, data, func() {
		for i := range m {
			for j := range n {
				a.Grad[i*n+j] += out.Grad[j] / float64(m)
			}
		}
	}, a)
	return out
}

// Reshape reinterprets a tensor with a new shape of equal size.
func Reshape(a *Tensor, shape ...int) *Tensor {
	if Size(shape) != Size(a.Shape) {
		panic(fmt.Sprintf("nn: cannot reshape %v to %v", a.Shape, shape))
	}
	data := make([]float64, len(a.Data))
	copy(data, a.Data)

	var out *Tensor
	out = result(shape, data, func() {
		addInto(a.Grad, out.Grad)
	}, a)
	return out
}

// Flatten reshapes a tensor to a single row [1,n].
func Flatten(a *Tensor) *Tensor {
	return Reshape(a, 1, Size(a.Shape))
}

// Dropout zeroes elements with probability rate during training, scaling the
// survivors by 1/(1-rate). Outside training it is the identity.
func Dropout(a *Tensor, rate float64, rng *rand.Rand, train bool) *Tensor {
	if !train || rate <= 0 {
		return a
	}

	keep := 1 - rate
	mask := make([]float64, len(a.Data))
	data := make([]float64, len(a.Data))
	for i := range mask {
		if rng.Float64() < keep {
			mask[i] = 1 / keep
			data[i] = a.Data[i] * mask[i]
		}
	}

	var out *Tensor
	out = result(a.Shape, data, func() {
		for i := range out.Grad {
			a.Grad[i] += out.Grad[i] * mask[i]
		}
	}, a)
	return out
}

// SoftmaxCrossEntropy fuses a softmax over the logits with the sparse
// categorical cross-entropy against the true label, returning a scalar loss.
func SoftmaxCrossEntropy(logits *Tensor, label int) *Tensor {
	probs := make([]float64, len(logits.Data))
	softmaxInto(probs, logits.Data)

	const tiny = 1e-12
	loss := -math.Log(math.Max(probs[label], tiny))

	var out *Tensor
	out = result([]int{1}, []float64{loss}, func() {
		g := out.Grad[0]
		for i := range probs {
			delta := probs[i]
			if i == label {
				delta -= 1
			}
			logits.Grad[i] += g * delta
		}
	}, logits)
	return out
}

func addInto(dst, src []float64) {
	for i := range src {
		dst[i] += src[i]
	}
}
