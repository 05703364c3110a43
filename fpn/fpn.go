// Copyright 2025 The FPNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package fpn provides the public API for the bidirectional feature
// pyramid: resampling, weighted fusion, pyramid cells, and the class/box
// prediction heads.
//
// Example:
//
//	backend := cpu.New()
//	cells, err := fpn.NewFPNCells(fpn.DefaultConfig(), backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	outputs := cells.Forward(features)
package fpn

import (
	"github.com/fpnet-ml/fpnet/internal/fpn"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// Config holds the pyramid hyperparameters.
type Config = fpn.Config

// DefaultConfig returns the standard pyramid configuration.
func DefaultConfig() Config {
	return fpn.DefaultConfig()
}

// Weight methods for feature fusion.
const (
	WeightAttn            = fpn.WeightAttn
	WeightFastAttn        = fpn.WeightFastAttn
	WeightChannelAttn     = fpn.WeightChannelAttn
	WeightChannelFastAttn = fpn.WeightChannelFastAttn
	WeightSum             = fpn.WeightSum
)

// Pooling types for downsampling.
const (
	PoolingMax = fpn.PoolingMax
	PoolingAvg = fpn.PoolingAvg
)

// Upsampling types.
const (
	UpsamplingNearest  = fpn.UpsamplingNearest
	UpsamplingBilinear = fpn.UpsamplingBilinear
)

// ResampleFeatureMap brings a feature map to a target spatial size and
// channel count.
type ResampleFeatureMap[B tensor.Backend] = fpn.ResampleFeatureMap[B]

// NewResampleFeatureMap creates a resampling layer.
func NewResampleFeatureMap[B tensor.Backend](
	name string,
	targetNumChannels int,
	applyBN, convAfterDownsample bool,
	poolingType, upsamplingType string,
	backend B,
) *ResampleFeatureMap[B] {
	return fpn.NewResampleFeatureMap(name, targetNumChannels, applyBN, convAfterDownsample, poolingType, upsamplingType, backend)
}

// FNode is one fusion node of the pyramid graph.
type FNode[B tensor.Backend] = fpn.FNode[B]

// OpAfterCombine refines a fused feature map with conv, BatchNorm, and
// activation.
type OpAfterCombine[B tensor.Backend] = fpn.OpAfterCombine[B]

// FPNCell is one pass over the pyramid graph.
type FPNCell[B tensor.Backend] = fpn.FPNCell[B]

// FPNCells stacks repeated pyramid cells.
type FPNCells[B tensor.Backend] = fpn.FPNCells[B]

// NewFPNCells creates the stacked pyramid from a validated configuration.
func NewFPNCells[B tensor.Backend](cfg Config, backend B) (*FPNCells[B], error) {
	return fpn.NewFPNCells(cfg, backend)
}

// ClassNet predicts per-anchor class logits for every pyramid level.
type ClassNet[B tensor.Backend] = fpn.ClassNet[B]

// ClassNetConfig configures the class prediction head.
type ClassNetConfig = fpn.ClassNetConfig

// NewClassNet creates the class prediction head.
func NewClassNet[B tensor.Backend](cfg ClassNetConfig, backend B) (*ClassNet[B], error) {
	return fpn.NewClassNet[B](cfg, backend)
}

// BoxNet predicts per-anchor box regression deltas for every pyramid level.
type BoxNet[B tensor.Backend] = fpn.BoxNet[B]

// BoxNetConfig configures the box regression head.
type BoxNetConfig = fpn.BoxNetConfig

// NewBoxNet creates the box regression head.
func NewBoxNet[B tensor.Backend](cfg BoxNetConfig, backend B) (*BoxNet[B], error) {
	return fpn.NewBoxNet[B](cfg, backend)
}
