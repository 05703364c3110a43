// Copyright 2025 The FPNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public API for neural network building blocks:
// convolutions, batch normalization, activations, and parameters.
package nn

import (
	"github.com/fpnet-ml/fpnet/internal/nn"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// Module is the common interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter represents a trainable parameter.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a named parameter wrapping a tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Layers

// Conv2D represents a 2D convolutional layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a 2D convolutional layer with Xavier-initialized
// weights.
//
// Example:
//
//	backend := cpu.New()
//	conv := nn.NewConv2D("stem", 3, 32, 3, 3, 1, 1, true, backend)
func NewConv2D[B tensor.Backend](
	name string,
	inChannels, outChannels int,
	kernelH, kernelW int,
	stride, padding int,
	useBias bool,
	backend B,
) *Conv2D[B] {
	return nn.NewConv2D(name, inChannels, outChannels, kernelH, kernelW, stride, padding, useBias, backend)
}

// SeparableConv2D represents a depthwise-separable 2D convolution.
type SeparableConv2D[B tensor.Backend] = nn.SeparableConv2D[B]

// NewSeparableConv2D creates a depthwise-separable convolution layer.
func NewSeparableConv2D[B tensor.Backend](
	name string,
	inChannels, outChannels int,
	kernelH, kernelW int,
	stride, padding int,
	useBias bool,
	backend B,
) *SeparableConv2D[B] {
	return nn.NewSeparableConv2D(name, inChannels, outChannels, kernelH, kernelW, stride, padding, useBias, backend)
}

// BatchNorm2D normalizes each channel of NCHW input.
type BatchNorm2D[B tensor.Backend] = nn.BatchNorm2D[B]

// NewBatchNorm2D creates a batch normalization layer.
func NewBatchNorm2D[B tensor.Backend](name string, numFeatures int, backend B) *BatchNorm2D[B] {
	return nn.NewBatchNorm2D[B](name, numFeatures, backend)
}

// Activations

// ActType names an activation function.
type ActType = nn.ActType

// Supported activation functions.
const (
	ActReLU    ActType = nn.ActReLU
	ActReLU6   ActType = nn.ActReLU6
	ActSwish   ActType = nn.ActSwish
	ActSigmoid ActType = nn.ActSigmoid
	ActTanh    ActType = nn.ActTanh
)

// ParseActType validates an activation name, returning an error for unknown
// names.
func ParseActType(name string) (ActType, error) {
	return nn.ParseActType(name)
}

// Activation applies a named element-wise activation function.
type Activation[B tensor.Backend] = nn.Activation[B]

// NewActivation creates an activation module.
func NewActivation[B tensor.Backend](act ActType) *Activation[B] {
	return nn.NewActivation[B](act)
}
