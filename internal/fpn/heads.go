package fpn

import (
	"math/rand"

	"github.com/fpnet-ml/fpnet/internal/nn"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// newHeadConv creates one 3x3 head convolution. Full convolutions use the
// small-stddev normal initialization the heads were designed with;
// separable convolutions keep the default variance-scaling initialization.
func newHeadConv[B tensor.Backend](name string, inChannels, outChannels int, separable bool, backend B) convModule[B] {
	if separable {
		return nn.NewSeparableConv2D(name, inChannels, outChannels, 3, 3, 1, 1, true, backend)
	}
	conv := nn.NewConv2D(name, inChannels, outChannels, 3, 3, 1, 1, true, backend)
	nn.FillNormal(conv.Weight().Tensor(), 0.01)
	return conv
}

// headConvBias returns the bias tensor of a head convolution.
func headConvBias[B tensor.Backend](conv convModule[B]) *tensor.Tensor[float32, B] {
	switch c := conv.(type) {
	case *nn.Conv2D[B]:
		return c.Bias().Tensor()
	case *nn.SeparableConv2D[B]:
		return c.Bias().Tensor()
	default:
		panic("fpn: unknown head conv type")
	}
}

// dropConnect randomly drops whole samples of the batch, keeping each with
// probability survivalProb and scaling kept samples by 1/survivalProb so the
// expected activation is unchanged. Only used in training mode.
func dropConnect[B tensor.Backend](t *tensor.Tensor[float32, B], survivalProb float32) *tensor.Tensor[float32, B] {
	shape := t.Shape()
	batch := shape[0]
	planeSize := shape.NumElements() / batch

	raw, err := tensor.NewRaw(shape, tensor.Float32, t.Backend().Device())
	if err != nil {
		panic(err)
	}
	out := tensor.New[float32, B](raw, t.Backend())
	copy(out.Data(), t.Data())
	data := out.Data()
	inv := 1 / survivalProb
	for n := 0; n < batch; n++ {
		plane := data[n*planeSize : (n+1)*planeSize]
		//nolint:gosec // math/rand for stochastic depth (not security-critical)
		if rand.Float32() < survivalProb {
			for j := range plane {
				plane[j] *= inv
			}
		} else {
			for j := range plane {
				plane[j] = 0
			}
		}
	}
	return out
}
