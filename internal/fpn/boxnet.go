package fpn

import (
	"fmt"

	"github.com/fpnet-ml/fpnet/internal/nn"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// BoxNetConfig configures the box regression head.
type BoxNetConfig struct {
	NumAnchors    int
	NumFilters    int
	MinLevel      int
	MaxLevel      int
	Repeats       int
	ActType       string
	SeparableConv bool
	// SurvivalProb enables drop-connect residuals when positive.
	SurvivalProb float32
}

// BoxNet predicts per-anchor box regression deltas for every pyramid level.
// It mirrors ClassNet: shared intermediate convolutions, per-level BatchNorm,
// and a prediction convolution with 4*numAnchors output channels.
type BoxNet[B tensor.Backend] struct {
	cfg      BoxNetConfig
	training bool

	convOps []convModule[B]
	bns     [][]*nn.BatchNorm2D[B] // [repeat][level]
	act     *nn.Activation[B]
	predict convModule[B]
}

// NewBoxNet creates the box regression head.
func NewBoxNet[B tensor.Backend](cfg BoxNetConfig, backend B) (*BoxNet[B], error) {
	if cfg.NumAnchors <= 0 {
		return nil, fmt.Errorf("boxnet: num anchors must be positive, got %d", cfg.NumAnchors)
	}
	act, err := nn.ParseActType(cfg.ActType)
	if err != nil {
		return nil, fmt.Errorf("boxnet: %w", err)
	}

	net := &BoxNet[B]{
		cfg: cfg,
		act: nn.NewActivation[B](act),
	}

	numLevels := cfg.MaxLevel - cfg.MinLevel + 1
	for i := 0; i < cfg.Repeats; i++ {
		net.convOps = append(net.convOps, newHeadConv(
			fmt.Sprintf("box_net.conv_%d", i),
			cfg.NumFilters, cfg.NumFilters, cfg.SeparableConv, backend,
		))

		perLevel := make([]*nn.BatchNorm2D[B], numLevels)
		for l := 0; l < numLevels; l++ {
			perLevel[l] = nn.NewBatchNorm2D[B](
				fmt.Sprintf("box_net.bn_%d_%d", i, cfg.MinLevel+l),
				cfg.NumFilters, backend,
			)
		}
		net.bns = append(net.bns, perLevel)
	}

	net.predict = newHeadConv(
		"box_net.predict",
		cfg.NumFilters, 4*cfg.NumAnchors, cfg.SeparableConv, backend,
	)

	return net, nil
}

// SetTraining switches the head between train and eval mode.
func (b *BoxNet[B]) SetTraining(training bool) {
	b.training = training
	for _, perLevel := range b.bns {
		for _, bn := range perLevel {
			bn.SetTraining(training)
		}
	}
}

// Forward predicts box deltas for every pyramid level. Each output has shape
// [N, 4*numAnchors, H_l, W_l].
func (b *BoxNet[B]) Forward(feats []*tensor.Tensor[float32, B]) []*tensor.Tensor[float32, B] {
	outputs := make([]*tensor.Tensor[float32, B], len(feats))
	for level, image := range feats {
		for i := 0; i < b.cfg.Repeats; i++ {
			original := image
			image = b.convOps[i].Forward(image)
			image = b.bns[i][level].Forward(image)
			image = b.act.Forward(image)
			if i > 0 && b.cfg.SurvivalProb > 0 {
				if b.training {
					image = dropConnect(image, b.cfg.SurvivalProb)
				}
				image = image.Add(original)
			}
		}
		outputs[level] = b.predict.Forward(image)
	}
	return outputs
}

// Parameters returns all trainable parameters of the head.
func (b *BoxNet[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, conv := range b.convOps {
		params = append(params, conv.Parameters()...)
	}
	for _, perLevel := range b.bns {
		for _, bn := range perLevel {
			params = append(params, bn.Parameters()...)
		}
	}
	params = append(params, b.predict.Parameters()...)
	return params
}
