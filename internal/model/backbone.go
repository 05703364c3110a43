package model

import (
	"fmt"

	"github.com/fpnet-ml/fpnet/internal/nn"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// backboneBlock halves the spatial resolution: 3x3 conv with stride 2,
// BatchNorm, activation.
type backboneBlock[B tensor.Backend] struct {
	conv *nn.Conv2D[B]
	bn   *nn.BatchNorm2D[B]
	act  *nn.Activation[B]
}

func newBackboneBlock[B tensor.Backend](name string, inChannels, outChannels int, act nn.ActType, backend B) *backboneBlock[B] {
	return &backboneBlock[B]{
		conv: nn.NewConv2D(name+".conv", inChannels, outChannels, 3, 3, 2, 1, false, backend),
		bn:   nn.NewBatchNorm2D[B](name+".bn", outChannels, backend),
		act:  nn.NewActivation[B](act),
	}
}

func (b *backboneBlock[B]) forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return b.act.Forward(b.bn.Forward(b.conv.Forward(x)))
}

func (b *backboneBlock[B]) parameters() []*nn.Parameter[B] {
	params := b.conv.Parameters()
	return append(params, b.bn.Parameters()...)
}

// Backbone is a small strided convolutional feature extractor. Each block
// halves the resolution; the blocks reaching levels minLevel..maxLevel
// contribute their outputs as the pyramid inputs P_min..P_max.
type Backbone[B tensor.Backend] struct {
	minLevel int
	maxLevel int
	blocks   []*backboneBlock[B]
}

// NewBackbone creates the feature extractor. Every emitted feature map has
// numFilters channels.
func NewBackbone[B tensor.Backend](minLevel, maxLevel, numFilters int, act nn.ActType, backend B) *Backbone[B] {
	bb := &Backbone[B]{minLevel: minLevel, maxLevel: maxLevel}
	inChannels := 3
	for level := 1; level <= maxLevel; level++ {
		bb.blocks = append(bb.blocks, newBackboneBlock(
			fmt.Sprintf("backbone.block_%d", level),
			inChannels, numFilters, act, backend,
		))
		inChannels = numFilters
	}
	return bb
}

// SetTraining propagates the training flag to every block.
func (b *Backbone[B]) SetTraining(training bool) {
	for _, blk := range b.blocks {
		blk.bn.SetTraining(training)
	}
}

// Forward extracts the pyramid input features from an image tensor
// [N, 3, H, W], finest level first.
func (b *Backbone[B]) Forward(image *tensor.Tensor[float32, B]) []*tensor.Tensor[float32, B] {
	if len(image.Shape()) != 4 || image.Shape()[1] != 3 {
		panic(fmt.Sprintf("backbone: expected [N,3,H,W] input, got %v", image.Shape()))
	}

	var feats []*tensor.Tensor[float32, B]
	x := image
	for level := 1; level <= b.maxLevel; level++ {
		x = b.blocks[level-1].forward(x)
		if level >= b.minLevel {
			feats = append(feats, x)
		}
	}
	return feats
}

// Parameters returns all trainable parameters.
func (b *Backbone[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, blk := range b.blocks {
		params = append(params, blk.parameters()...)
	}
	return params
}
