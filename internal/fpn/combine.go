package fpn

import (
	"github.com/fpnet-ml/fpnet/internal/nn"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// convModule abstracts over full and depthwise-separable convolutions.
type convModule[B tensor.Backend] interface {
	Forward(*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	Parameters() []*nn.Parameter[B]
}

// OpAfterCombine refines a fused feature map with a 3x3 convolution,
// BatchNorm, and activation.
//
// With ConvBNActPattern the order is conv, bn, act and the convolution has
// no bias. Without it the activation runs first and the convolution carries
// a bias.
type OpAfterCombine[B tensor.Backend] struct {
	convBNActPattern bool

	conv convModule[B]
	bn   *nn.BatchNorm2D[B]
	act  *nn.Activation[B]
}

// NewOpAfterCombine creates the post-fusion block for numFilters channels.
func NewOpAfterCombine[B tensor.Backend](
	name string,
	numFilters int,
	convBNActPattern, separableConv bool,
	act nn.ActType,
	backend B,
) *OpAfterCombine[B] {
	useBias := !convBNActPattern

	var conv convModule[B]
	if separableConv {
		conv = nn.NewSeparableConv2D(name+".conv", numFilters, numFilters, 3, 3, 1, 1, useBias, backend)
	} else {
		conv = nn.NewConv2D(name+".conv", numFilters, numFilters, 3, 3, 1, 1, useBias, backend)
	}

	return &OpAfterCombine[B]{
		convBNActPattern: convBNActPattern,
		conv:             conv,
		bn:               nn.NewBatchNorm2D[B](name+".bn", numFilters, backend),
		act:              nn.NewActivation[B](act),
	}
}

// SetTraining switches the BatchNorm between train and eval mode.
func (o *OpAfterCombine[B]) SetTraining(training bool) {
	o.bn.SetTraining(training)
}

// Forward refines the fused feature map.
func (o *OpAfterCombine[B]) Forward(node *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !o.convBNActPattern {
		node = o.act.Forward(node)
	}
	node = o.conv.Forward(node)
	node = o.bn.Forward(node)
	if o.convBNActPattern {
		node = o.act.Forward(node)
	}
	return node
}

// Parameters returns all trainable parameters of the block.
func (o *OpAfterCombine[B]) Parameters() []*nn.Parameter[B] {
	params := o.conv.Parameters()
	params = append(params, o.bn.Parameters()...)
	return params
}
