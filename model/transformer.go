package model

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/echolab/songbird/config"
	"github.com/echolab/songbird/nn"
)

// transformerBuilder assembles the patch transformer: linear patch
// projection, a learned classification token plus positional embeddings,
// pre-norm encoder blocks with multi-head self-attention and a dense
// sublayer (both residual), then pooled classification.
type transformerBuilder struct {
	cfg config.Settings
}

// attentionHead holds one head's query/key/value projections.
type attentionHead struct {
	wq, wk, wv *nn.Tensor
}

// encoderBlock holds the parameters of one transformer encoder block.
type encoderBlock struct {
	ln1Gamma, ln1Beta *nn.Tensor
	ln2Gamma, ln2Beta *nn.Tensor
	heads             []*attentionHead
	wo                *nn.Tensor // output projection [heads*headSize, dim]
	ff                *dense
}

func (b *transformerBuilder) Family() config.Family { return config.FamilyTransformer }
func (b *transformerBuilder) Name() string          { return "AST" }

func (b *transformerBuilder) Build(sampleShape []int) (*nn.Network, error) {
	if len(sampleShape) != 3 {
		return nil, fmt.Errorf("transformer: want a [patches, height, width] sample shape, got %v", sampleShape)
	}
	act, err := activation(b.cfg.IntermediaryActivation)
	if err != nil {
		return nil, err
	}

	numPatches := sampleShape[0]
	patchSize := sampleShape[1] * sampleShape[2]
	dim := b.cfg.ProjectionDimension
	headSize := b.cfg.HeadSize
	numHeads := b.cfg.NumberHeads
	eps := b.cfg.NormalizationEpsilon
	dropout := b.cfg.DropoutRate

	rng := rand.New(rand.NewSource(initSeed))
	var params []*nn.Tensor
	track := func(ts ...*nn.Tensor) {
		params = append(params, ts...)
	}

	projection := newDense(rng, patchSize, dim)
	track(projection.params()...)

	clsToken := nn.GlorotParam(rng, 1, dim)
	posEmbedding := nn.GlorotParam(rng, numPatches+1, dim)
	track(clsToken, posEmbedding)

	blocks := make([]*encoderBlock, b.cfg.NumberBlocks)
	for i := range blocks {
		block := &encoderBlock{
			ln1Gamma: onesParam(dim),
			ln1Beta:  nn.NewParam(dim),
			ln2Gamma: onesParam(dim),
			ln2Beta:  nn.NewParam(dim),
			wo:       nn.GlorotParam(rng, numHeads*headSize, dim),
			ff:       newDense(rng, dim, dim),
		}
		for range numHeads {
			head := &attentionHead{
				wq: nn.GlorotParam(rng, dim, headSize),
				wk: nn.GlorotParam(rng, dim, headSize),
				wv: nn.GlorotParam(rng, dim, headSize),
			}
			block.heads = append(block.heads, head)
			track(head.wq, head.wk, head.wv)
		}
		track(block.ln1Gamma, block.ln1Beta, block.ln2Gamma, block.ln2Beta, block.wo)
		track(block.ff.params()...)
		blocks[i] = block
	}

	finalGamma := onesParam(dim)
	finalBeta := nn.NewParam(dim)
	track(finalGamma, finalBeta)

	head := newDense(rng, dim, b.cfg.NumberClasses)
	track(head.params()...)

	scale := 1 / math.Sqrt(float64(headSize))

	forward := func(ctx *nn.Context, x *nn.Tensor) *nn.Tensor {
		// Patch sequence: flatten tiles, project, prepend CLS, add positions.
		patches := nn.Reshape(x, numPatches, patchSize)
		flow := projection.apply(patches)
		flow = nn.ConcatRows(clsToken, flow)
		flow = nn.Add(flow, posEmbedding)

		for _, block := range blocks {
			// Self-attention sublayer with residual connection.
			normed := nn.LayerNorm(flow, block.ln1Gamma, block.ln1Beta, eps)
			headOut := make([]*nn.Tensor, len(block.heads))
			for h, ah := range block.heads {
				q := nn.MatMul(normed, ah.wq)
				k := nn.MatMul(normed, ah.wk)
				v := nn.MatMul(normed, ah.wv)
				scores := nn.Softmax(nn.Scale(nn.MatMul(q, nn.Transpose(k)), scale))
				scores = nn.Dropout(scores, dropout, ctx.RNG, ctx.Train)
				headOut[h] = nn.MatMul(scores, v)
			}
			attended := nn.MatMul(nn.ConcatCols(headOut...), block.wo)
			attended = nn.Dropout(attended, dropout, ctx.RNG, ctx.Train)
			flow = nn.Add(attended, flow)

			// Feedforward sublayer with residual connection.
			normed = nn.LayerNorm(flow, block.ln2Gamma, block.ln2Beta, eps)
			ff := act(block.ff.apply(normed))
			ff = nn.Dropout(ff, dropout, ctx.RNG, ctx.Train)
			flow = nn.Add(ff, flow)
		}

		flow = nn.LayerNorm(flow, finalGamma, finalBeta, eps)
		flow = nn.MeanRows(flow)
		flow = nn.Dropout(flow, dropout, ctx.RNG, ctx.Train)
		return head.apply(flow)
	}

	return nn.NewNetwork(b.Name(), forward, params, initSeed), nil
}

func onesParam(size int) *nn.Tensor {
	t := nn.NewParam(size)
	for i := range t.Data {
		t.Data[i] = 1
	}
	return t
}
