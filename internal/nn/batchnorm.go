package nn

import (
	"fmt"

	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// BatchNorm2D normalizes each channel of NCHW input.
//
// In training mode, normalization uses the batch statistics and the running
// mean/variance are updated with momentum. In eval mode (the default), the
// running statistics are used directly:
//
//	y = gamma * (x - mean) / sqrt(var + eps) + beta
type BatchNorm2D[B tensor.Backend] struct {
	numFeatures int
	eps         float32
	momentum    float32
	training    bool

	gamma *Parameter[B] // scale [C]
	beta  *Parameter[B] // offset [C]

	runningMean *tensor.Tensor[float32, B] // [C]
	runningVar  *tensor.Tensor[float32, B] // [C]

	backend B
}

// NewBatchNorm2D creates a batch normalization layer for numFeatures channels.
// Defaults follow the detection models: eps=1e-3, momentum=0.99, eval mode.
func NewBatchNorm2D[B tensor.Backend](name string, numFeatures int, backend B) *BatchNorm2D[B] {
	if numFeatures <= 0 {
		panic(fmt.Sprintf("batchnorm2d: invalid feature count %d", numFeatures))
	}

	shape := tensor.Shape{numFeatures}
	return &BatchNorm2D[B]{
		numFeatures: numFeatures,
		eps:         1e-3,
		momentum:    0.99,
		gamma:       NewParameter(name+".gamma", Ones(shape, backend)),
		beta:        NewParameter(name+".beta", Zeros(shape, backend)),
		runningMean: Zeros(shape, backend),
		runningVar:  Ones(shape, backend),
		backend:     backend,
	}
}

// SetTraining switches between batch statistics (true) and running
// statistics (false).
func (bn *BatchNorm2D[B]) SetTraining(training bool) {
	bn.training = training
}

// Forward normalizes the input per channel.
//
// Input: [batch, channels, height, width].
func (bn *BatchNorm2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("batchnorm2d: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	if shape[1] != bn.numFeatures {
		panic(fmt.Sprintf("batchnorm2d: input channels %d != expected %d", shape[1], bn.numFeatures))
	}

	mean := bn.runningMean
	variance := bn.runningVar
	if bn.training {
		mean, variance = bn.batchStats(input)
		bn.updateRunningStats(mean, variance)
	}

	C := bn.numFeatures
	meanR := mean.Reshape(1, C, 1, 1)
	varR := variance.Reshape(1, C, 1, 1).AddScalar(bn.eps)
	gammaR := bn.gamma.Tensor().Reshape(1, C, 1, 1)
	betaR := bn.beta.Tensor().Reshape(1, C, 1, 1)

	invStd := tensor.New[float32, B](bn.backend.Rsqrt(varR.Raw()), bn.backend)
	return input.Sub(meanR).Mul(invStd).Mul(gammaR).Add(betaR)
}

// batchStats computes per-channel mean and (biased) variance over N, H, W.
func (bn *BatchNorm2D[B]) batchStats(input *tensor.Tensor[float32, B]) (mean, variance *tensor.Tensor[float32, B]) {
	shape := input.Shape()
	N, C, H, W := shape[0], shape[1], shape[2], shape[3]
	count := float64(N * H * W)

	data := input.Data()
	mean = Zeros[B](tensor.Shape{C}, bn.backend)
	variance = Zeros[B](tensor.Shape{C}, bn.backend)
	meanData := mean.Data()
	varData := variance.Data()

	for c := 0; c < C; c++ {
		var sum float64
		for n := 0; n < N; n++ {
			plane := data[(n*C+c)*H*W : (n*C+c+1)*H*W]
			for _, v := range plane {
				sum += float64(v)
			}
		}
		m := sum / count

		var sqSum float64
		for n := 0; n < N; n++ {
			plane := data[(n*C+c)*H*W : (n*C+c+1)*H*W]
			for _, v := range plane {
				d := float64(v) - m
				sqSum += d * d
			}
		}

		meanData[c] = float32(m)
		varData[c] = float32(sqSum / count)
	}

	return mean, variance
}

func (bn *BatchNorm2D[B]) updateRunningStats(mean, variance *tensor.Tensor[float32, B]) {
	rm := bn.runningMean.Data()
	rv := bn.runningVar.Data()
	m := mean.Data()
	v := variance.Data()
	for i := range rm {
		rm[i] = bn.momentum*rm[i] + (1-bn.momentum)*m[i]
		rv[i] = bn.momentum*rv[i] + (1-bn.momentum)*v[i]
	}
}

// Parameters returns the scale and offset parameters.
func (bn *BatchNorm2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{bn.gamma, bn.beta}
}

// String returns a string representation of the layer.
func (bn *BatchNorm2D[B]) String() string {
	return fmt.Sprintf("BatchNorm2D(num_features=%d, eps=%g, momentum=%g)", bn.numFeatures, bn.eps, bn.momentum)
}
