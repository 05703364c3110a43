package fpn

import (
	"fmt"
	"math"

	"github.com/fpnet-ml/fpnet/internal/nn"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// fusionEps keeps the fast-attention denominators away from zero.
const fusionEps = 1e-4

// FNode is one fusion node of the pyramid graph. It resamples each of its
// inputs to the node's level, fuses them with the configured weight method,
// and refines the result with a conv-bn-act block. Forward appends the new
// feature to the running feature list.
type FNode[B tensor.Backend] struct {
	levelIndex   int // index of the node's level in the per-level feature list
	inputOffsets []int
	weightMethod string
	numFilters   int

	resamples []*ResampleFeatureMap[B]
	weights   []*nn.Parameter[B]
	combine   *OpAfterCombine[B]

	backend B
}

// NewFNode creates a fusion node. The weight method must already be
// validated by Config.Validate. Fusion weights initialize to ones.
func NewFNode[B tensor.Backend](name string, levelIndex int, inputOffsets []int, cfg Config, backend B) *FNode[B] {
	f := &FNode[B]{
		levelIndex:   levelIndex,
		inputOffsets: inputOffsets,
		weightMethod: cfg.WeightMethod,
		numFilters:   cfg.NumFilters,
		backend:      backend,
	}

	for i, offset := range inputOffsets {
		f.resamples = append(f.resamples, NewResampleFeatureMap(
			fmt.Sprintf("%s.resample_%d_%d", name, i, offset),
			cfg.NumFilters,
			cfg.ApplyBNForResampling,
			cfg.ConvAfterDownsample,
			cfg.PoolingType,
			cfg.UpsamplingType,
			backend,
		))
	}

	var weightShape tensor.Shape
	switch cfg.WeightMethod {
	case WeightAttn, WeightFastAttn:
		weightShape = tensor.Shape{1}
	case WeightChannelAttn, WeightChannelFastAttn:
		weightShape = tensor.Shape{cfg.NumFilters}
	case WeightSum:
		// no fusion weights
	}
	if weightShape != nil {
		for i := range inputOffsets {
			f.weights = append(f.weights, nn.NewParameter(
				fmt.Sprintf("%s.wsm_%d", name, i),
				nn.Ones[B](weightShape, backend),
			))
		}
	}

	f.combine = NewOpAfterCombine(
		name+".op_after_combine",
		cfg.NumFilters,
		cfg.ConvBNActPattern,
		cfg.SeparableConv,
		nn.ActType(cfg.ActType),
		backend,
	)

	return f
}

// SetTraining propagates the training flag to the node's normalizations.
func (f *FNode[B]) SetTraining(training bool) {
	for _, r := range f.resamples {
		r.SetTraining(training)
	}
	f.combine.SetTraining(training)
}

// Forward resamples and fuses the node's inputs and appends the result to
// the feature list.
func (f *FNode[B]) Forward(feats []*tensor.Tensor[float32, B]) []*tensor.Tensor[float32, B] {
	target := feats[f.levelIndex].Shape()
	targetH, targetW := target[2], target[3]

	nodes := make([]*tensor.Tensor[float32, B], len(f.inputOffsets))
	for i, offset := range f.inputOffsets {
		nodes[i] = f.resamples[i].Forward(feats[offset], targetH, targetW)
	}

	fused := f.fuse(nodes)
	fused = f.combine.Forward(fused)
	return append(feats, fused)
}

// fuse combines the resampled inputs with the configured weight method.
func (f *FNode[B]) fuse(nodes []*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	switch f.weightMethod {
	case WeightSum:
		out := nodes[0]
		for _, n := range nodes[1:] {
			out = out.Add(n)
		}
		return out

	case WeightAttn:
		norm := softmaxScalars(f.scalarWeights())
		out := nodes[0].MulScalar(norm[0])
		for i := 1; i < len(nodes); i++ {
			out = out.Add(nodes[i].MulScalar(norm[i]))
		}
		return out

	case WeightFastAttn:
		w := f.scalarWeights()
		var sum float32
		for i, v := range w {
			if v < 0 {
				v = 0
			}
			w[i] = v
			sum += v
		}
		denom := sum + fusionEps
		out := nodes[0].MulScalar(w[0] / denom)
		for i := 1; i < len(nodes); i++ {
			out = out.Add(nodes[i].MulScalar(w[i] / denom))
		}
		return out

	case WeightChannelAttn:
		norm := f.channelSoftmaxWeights()
		out := f.mulChannel(nodes[0], norm[0])
		for i := 1; i < len(nodes); i++ {
			out = out.Add(f.mulChannel(nodes[i], norm[i]))
		}
		return out

	case WeightChannelFastAttn:
		norm := f.channelFastWeights()
		out := f.mulChannel(nodes[0], norm[0])
		for i := 1; i < len(nodes); i++ {
			out = out.Add(f.mulChannel(nodes[i], norm[i]))
		}
		return out

	default:
		panic(fmt.Sprintf("fpn: unknown weight method %q", f.weightMethod))
	}
}

// scalarWeights reads the scalar fusion weights.
func (f *FNode[B]) scalarWeights() []float32 {
	w := make([]float32, len(f.weights))
	for i, p := range f.weights {
		w[i] = p.Tensor().Data()[0]
	}
	return w
}

// channelSoftmaxWeights normalizes the per-channel weights with a softmax
// across inputs, independently for each channel.
func (f *FNode[B]) channelSoftmaxWeights() [][]float32 {
	n := len(f.weights)
	c := f.numFilters
	norm := make([][]float32, n)
	for i := range norm {
		norm[i] = make([]float32, c)
	}

	col := make([]float32, n)
	for ch := 0; ch < c; ch++ {
		for i, p := range f.weights {
			col[i] = p.Tensor().Data()[ch]
		}
		for i, v := range softmaxScalars(col) {
			norm[i][ch] = v
		}
	}
	return norm
}

// channelFastWeights applies the fast normalization per channel:
// relu'd weights divided by their sum plus epsilon.
func (f *FNode[B]) channelFastWeights() [][]float32 {
	n := len(f.weights)
	c := f.numFilters
	norm := make([][]float32, n)
	for i := range norm {
		norm[i] = make([]float32, c)
	}

	for ch := 0; ch < c; ch++ {
		var sum float32
		for i, p := range f.weights {
			v := p.Tensor().Data()[ch]
			if v < 0 {
				v = 0
			}
			norm[i][ch] = v
			sum += v
		}
		denom := sum + fusionEps
		for i := range f.weights {
			norm[i][ch] /= denom
		}
	}
	return norm
}

// mulChannel multiplies a [N,C,H,W] feature map by per-channel weights.
func (f *FNode[B]) mulChannel(node *tensor.Tensor[float32, B], weights []float32) *tensor.Tensor[float32, B] {
	w, err := tensor.FromSlice(weights, tensor.Shape{1, len(weights), 1, 1}, f.backend)
	if err != nil {
		panic(err)
	}
	return node.Mul(w)
}

// softmaxScalars returns the softmax of a small weight vector.
func softmaxScalars(w []float32) []float32 {
	maxW := w[0]
	for _, v := range w[1:] {
		if v > maxW {
			maxW = v
		}
	}

	out := make([]float32, len(w))
	var sum float64
	for i, v := range w {
		e := math.Exp(float64(v - maxW))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

// Parameters returns the fusion weights plus all layer parameters.
func (f *FNode[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	params = append(params, f.weights...)
	for _, r := range f.resamples {
		params = append(params, r.Parameters()...)
	}
	params = append(params, f.combine.Parameters()...)
	return params
}
