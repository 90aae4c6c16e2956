package nn

import (
	"fmt"
	"math"
)

// Conv2D convolves x [H,W,C] with kernels w [kh,kw,C,F] plus bias b [F],
// stride 1 with "same" zero padding, giving [H,W,F]. Odd kernel sizes only.
func Conv2D(x, w, b *Tensor) *Tensor {
	if len(x.Shape) != 3 || len(w.Shape) != 4 {
		panic(fmt.Sprintf("nn: Conv2D wants [H,W,C] and [kh,kw,C,F], got %v and %v", x.Shape, w.Shape))
	}
	H, W, C := x.Shape[0], x.Shape[1], x.Shape[2]
	kh, kw, F := w.Shape[0], w.Shape[1], w.Shape[3]
	if w.Shape[2] != C {
		panic(fmt.Sprintf("nn: Conv2D channel mismatch: input %d, kernel %d", C, w.Shape[2]))
	}
	ph, pw := kh/2, kw/2

	xAt := func(i, j, c int) float64 { return x.Data[(i*W+j)*C+c] }
	wAt := func(u, v, c, f int) float64 { return w.Data[((u*kw+v)*C+c)*F+f] }

	data := make([]float64, H*W*F)
	for i := range H {
		for j := range W {
			for f := range F {
				sum := b.Data[f]
				for u := range kh {
					si := i + u - ph
					if si < 0 || si >= H {
						continue
					}
					for v := range kw {
						sj := j + v - pw
						if sj < 0 || sj >= W {
							continue
						}
						for c := range C {
							sum += xAt(si, sj, c) * wAt(u, v, c, f)
						}
					}
				}
				data[(i*W+j)*F+f] = sum
			}
		}
	}

	var out *Tensor
	out = result([]int{H, W, F}, data, func() {
		for i := range H {
			for j := range W {
				for f := range F {
					g := out.Grad[(i*W+j)*F+f]
					if g == 0 {
						continue
					}
					if b.requires {
						b.Grad[f] += g
					}
					for u := range kh {
						si := i + u - ph
						if si < 0 || si >= H {
							continue
						}
						for v := range kw {
							sj := j + v - pw
							if sj < 0 || sj >= W {
								continue
							}
							for c := range C {
								if w.requires {
									w.Grad[((u*kw+v)*C+c)*F+f] += g * xAt(si, sj, c)
								}
								if x.requires {
									x.Grad[(si*W+sj)*C+c] += g * wAt(u, v, c, f)
								}
							}
						}
					}
				}
			}
		}
	}, x, w, b)
	return out
}

// MaxPool2D downsamples x [H,W,C] by taking the maximum over non-overlapping
// pool x pool regions. Trailing rows/columns that do not fill a region are
// dropped.
func MaxPool2D(x *Tensor, pool int) *Tensor {
	H, W, C := x.Shape[0], x.Shape[1], x.Shape[2]
	oh, ow := H/pool, W/pool
	if oh < 1 || ow < 1 {
		panic(fmt.Sprintf("nn: MaxPool2D pool %d too large for input %v", pool, x.Shape))
	}

	data := make([]float64, oh*ow*C)
	argmax := make([]int, oh*ow*C)
	for i := range oh {
		for j := range ow {
			for c := range C {
				best := math.Inf(-1)
				bestIdx := 0
				for u := range pool {
					for v := range pool {
						idx := ((i*pool+u)*W+(j*pool+v))*C + c
						if x.Data[idx] > best {
							best = x.Data[idx]
							bestIdx = idx
						}
					}
				}
				data[(i*ow+j)*C+c] = best
				argmax[(i*ow+j)*C+c] = bestIdx
			}
		}
	}

	var out *Tensor
	out = result([]int{oh, ow, C}, data, func() {
		for i, src := range argmax {
			x.Grad[src] += out.Grad[i]
		}
	}, x)
	return out
}

// ConcatChannels joins 3-D tensors with identical spatial dimensions along
// the channel axis (the residual family's concatenation shortcut).
func ConcatChannels(ts ...*Tensor) *Tensor {
	H, W := ts[0].Shape[0], ts[0].Shape[1]
	channels := 0
	for _, t := range ts {
		if t.Shape[0] != H || t.Shape[1] != W {
			panic("nn: ConcatChannels spatial mismatch")
		}
		channels += t.Shape[2]
	}

	data := make([]float64, H*W*channels)
	offset := 0
	for _, t := range ts {
		c := t.Shape[2]
		for p := range H * W {
			copy(data[p*channels+offset:p*channels+offset+c], t.Data[p*c:(p+1)*c])
		}
		offset += c
	}

	var out *Tensor
	out = result([]int{H, W, channels}, data, func() {
		offset := 0
		for _, t := range ts {
			c := t.Shape[2]
			if t.requires {
				for p := range H * W {
					for k := range c {
						t.Grad[p*c+k] += out.Grad[p*channels+offset+k]
					}
				}
			}
			offset += c
		}
	}, ts...)
	return out
}
