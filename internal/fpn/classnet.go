package fpn

import (
	"fmt"
	"math"

	"github.com/fpnet-ml/fpnet/internal/nn"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// priorProb is the expected foreground probability at initialization; the
// class-prediction bias is set so an untrained head outputs it.
const priorProb = 0.01

// ClassNetConfig configures the class prediction head.
type ClassNetConfig struct {
	NumClasses    int
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

// ClassNet predicts per-anchor class logits for every pyramid level.
//
// The intermediate convolutions are shared across levels; each level keeps
// its own BatchNorm statistics. The prediction convolution outputs
// numClasses*numAnchors channels and its bias starts at
// -log((1-priorProb)/priorProb) so early training is not swamped by the
// background class.
type ClassNet[B tensor.Backend] struct {
	cfg      ClassNetConfig
	training bool

	convOps []convModule[B]
	bns     [][]*nn.BatchNorm2D[B] // [repeat][level]
	act     *nn.Activation[B]
	predict convModule[B]
}

// NewClassNet creates the class prediction head.
func NewClassNet[B tensor.Backend](cfg ClassNetConfig, backend B) (*ClassNet[B], error) {
	if cfg.NumClasses <= 0 {
		return nil, fmt.Errorf("classnet: num classes must be positive, got %d", cfg.NumClasses)
	}
	if cfg.NumAnchors <= 0 {
		return nil, fmt.Errorf("classnet: num anchors must be positive, got %d", cfg.NumAnchors)
	}
	act, err := nn.ParseActType(cfg.ActType)
	if err != nil {
		return nil, fmt.Errorf("classnet: %w", err)
	}

	net := &ClassNet[B]{
		cfg: cfg,
		act: nn.NewActivation[B](act),
	}

	numLevels := cfg.MaxLevel - cfg.MinLevel + 1
	for i := 0; i < cfg.Repeats; i++ {
		net.convOps = append(net.convOps, newHeadConv(
			fmt.Sprintf("class_net.conv_%d", i),
			cfg.NumFilters, cfg.NumFilters, cfg.SeparableConv, backend,
		))

		perLevel := make([]*nn.BatchNorm2D[B], numLevels)
		for l := 0; l < numLevels; l++ {
			perLevel[l] = nn.NewBatchNorm2D[B](
				fmt.Sprintf("class_net.bn_%d_%d", i, cfg.MinLevel+l),
				cfg.NumFilters, backend,
			)
		}
		net.bns = append(net.bns, perLevel)
	}

	net.predict = newHeadConv(
		"class_net.predict",
		cfg.NumFilters, cfg.NumClasses*cfg.NumAnchors, cfg.SeparableConv, backend,
	)
	bias := float32(-math.Log((1 - priorProb) / priorProb))
	nn.FillConst(headConvBias(net.predict), bias)

	return net, nil
}

// SetTraining switches the head between train and eval mode.
func (c *ClassNet[B]) SetTraining(training bool) {
	c.training = training
	for _, perLevel := range c.bns {
		for _, bn := range perLevel {
			bn.SetTraining(training)
		}
	}
}

// Forward predicts class logits for every pyramid level. Each output has
// shape [N, numClasses*numAnchors, H_l, W_l].
func (c *ClassNet[B]) Forward(feats []*tensor.Tensor[float32, B]) []*tensor.Tensor[float32, B] {
	outputs := make([]*tensor.Tensor[float32, B], len(feats))
	for level, image := range feats {
		for i := 0; i < c.cfg.Repeats; i++ {
			original := image
			image = c.convOps[i].Forward(image)
			image = c.bns[i][level].Forward(image)
			image = c.act.Forward(image)
			if i > 0 && c.cfg.SurvivalProb > 0 {
				if c.training {
					image = dropConnect(image, c.cfg.SurvivalProb)
				}
				image = image.Add(original)
			}
		}
		outputs[level] = c.predict.Forward(image)
	}
	return outputs
}

// Parameters returns all trainable parameters of the head.
func (c *ClassNet[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, conv := range c.convOps {
		params = append(params, conv.Parameters()...)
	}
	for _, perLevel := range c.bns {
		for _, bn := range perLevel {
			params = append(params, bn.Parameters()...)
		}
	}
	params = append(params, c.predict.Parameters()...)
	return params
}
