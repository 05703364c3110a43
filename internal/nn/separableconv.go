package nn

import (
	"fmt"

	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// SeparableConv2D is a depthwise-separable 2D convolution: a depthwise
// convolution (one filter per input channel) followed by a 1x1 pointwise
// convolution that mixes channels. It has far fewer parameters than a full
// convolution with the same receptive field, which is why the pyramid and
// head layers default to it.
//
// Input shape:  [batch, in_channels, height, width]
// Output shape: [batch, out_channels, out_h, out_w]
type SeparableConv2D[B tensor.Backend] struct {
	inChannels  int
	outChannels int
	stride      int
	padding     int
	useBias     bool

	depthwise *Parameter[B] // [in_channels, 1, kernel_h, kernel_w]
	pointwise *Parameter[B] // [out_channels, in_channels, 1, 1]
	bias      *Parameter[B] // [out_channels] or nil

	backend B
}

// NewSeparableConv2D creates a depthwise-separable convolution layer.
func NewSeparableConv2D[B tensor.Backend](
	name string,
	inChannels, outChannels int,
	kernelH, kernelW int,
	stride, padding int,
	useBias bool,
	backend B,
) *SeparableConv2D[B] {
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("separableConv2d: invalid channels in=%d, out=%d", inChannels, outChannels))
	}
	if kernelH <= 0 || kernelW <= 0 {
		panic(fmt.Sprintf("separableConv2d: invalid kernel size h=%d, w=%d", kernelH, kernelW))
	}

	dwShape := tensor.Shape{inChannels, 1, kernelH, kernelW}
	dwFan := kernelH * kernelW
	depthwise := NewParameter(name+".depthwise", Xavier(dwFan, dwFan, dwShape, backend))

	pwShape := tensor.Shape{outChannels, inChannels, 1, 1}
	pointwise := NewParameter(name+".pointwise", Xavier(inChannels, outChannels, pwShape, backend))

	var biasParam *Parameter[B]
	if useBias {
		biasParam = NewParameter(name+".bias", Zeros(tensor.Shape{outChannels}, backend))
	}

	return &SeparableConv2D[B]{
		inChannels:  inChannels,
		outChannels: outChannels,
		stride:      stride,
		padding:     padding,
		useBias:     useBias,
		depthwise:   depthwise,
		pointwise:   pointwise,
		bias:        biasParam,
		backend:     backend,
	}
}

// Forward applies the depthwise convolution followed by the pointwise mix.
func (s *SeparableConv2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("separableConv2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}
	if inputShape[1] != s.inChannels {
		panic(fmt.Sprintf("separableConv2d: input channels %d != expected %d", inputShape[1], s.inChannels))
	}

	dwRaw := s.backend.DepthwiseConv2D(input.Raw(), s.depthwise.Tensor().Raw(), s.stride, s.padding)
	pwRaw := s.backend.Conv2D(dwRaw, s.pointwise.Tensor().Raw(), 1, 0)
	output := tensor.New[float32, B](pwRaw, s.backend)

	if s.useBias {
		biasReshaped := s.bias.Tensor().Reshape(1, s.outChannels, 1, 1)
		output = output.Add(biasReshaped)
	}

	return output
}

// Parameters returns all trainable parameters.
func (s *SeparableConv2D[B]) Parameters() []*Parameter[B] {
	params := []*Parameter[B]{s.depthwise, s.pointwise}
	if s.useBias {
		params = append(params, s.bias)
	}
	return params
}

// Bias returns the bias parameter, or nil when the layer has no bias.
func (s *SeparableConv2D[B]) Bias() *Parameter[B] {
	return s.bias
}

// PointwiseWeight returns the pointwise (1x1) weight parameter.
func (s *SeparableConv2D[B]) PointwiseWeight() *Parameter[B] {
	return s.pointwise
}

// OutChannels returns the number of output channels.
func (s *SeparableConv2D[B]) OutChannels() int {
	return s.outChannels
}
