// Package fpn implements a bidirectional feature pyramid network: per-node
// feature-map resampling, weighted multi-input fusion, post-fusion conv
// blocks, and the class/box prediction heads that consume the pyramid.
package fpn

import (
	"fmt"

	"github.com/fpnet-ml/fpnet/internal/nn"
)

// Weight methods for feature fusion.
const (
	WeightAttn            = "attn"
	WeightFastAttn        = "fastattn"
	WeightChannelAttn     = "channel_attn"
	WeightChannelFastAttn = "channel_fastattn"
	WeightSum             = "sum"
)

// Pooling types for downsampling.
const (
	PoolingMax = "max"
	PoolingAvg = "avg"
)

// Upsampling types.
const (
	UpsamplingNearest  = "nearest"
	UpsamplingBilinear = "bilinear"
)

// Config holds the pyramid hyperparameters.
type Config struct {
	// MinLevel and MaxLevel bound the pyramid levels (inclusive). Level L
	// corresponds to a feature map downscaled by 2^L.
	MinLevel int
	MaxLevel int

	// NumFilters is the channel count of every pyramid feature map.
	NumFilters int

	// CellRepeats is the number of stacked pyramid cells.
	CellRepeats int

	// WeightMethod selects how node inputs are fused.
	WeightMethod string

	// ActType names the activation used throughout the pyramid.
	ActType string

	// SeparableConv uses depthwise-separable convolutions instead of full
	// convolutions in fusion nodes and heads.
	SeparableConv bool

	// ConvAfterDownsample applies the 1x1 channel projection after pooling
	// instead of before it.
	ConvAfterDownsample bool

	// ApplyBNForResampling adds a BatchNorm after the 1x1 projection.
	ApplyBNForResampling bool

	// ConvBNActPattern selects conv-bn-act ordering in fusion nodes.
	// When false the activation runs before the conv and the conv gets a bias.
	ConvBNActPattern bool

	// PoolingType selects the downsampling operator ("max" or "avg").
	PoolingType string

	// UpsamplingType selects the upsampling interpolation
	// ("nearest" or "bilinear").
	UpsamplingType string
}

// DefaultConfig returns the standard pyramid configuration.
func DefaultConfig() Config {
	return Config{
		MinLevel:             3,
		MaxLevel:             7,
		NumFilters:           64,
		CellRepeats:          3,
		WeightMethod:         WeightFastAttn,
		ActType:              "swish",
		SeparableConv:        true,
		ConvAfterDownsample:  false,
		ApplyBNForResampling: true,
		ConvBNActPattern:     true,
		PoolingType:          PoolingMax,
		UpsamplingType:       UpsamplingNearest,
	}
}

// Validate checks the configuration and returns an error describing the
// first problem found.
func (c Config) Validate() error {
	if c.MinLevel < 1 {
		return fmt.Errorf("fpn: min level must be >= 1, got %d", c.MinLevel)
	}
	if c.MaxLevel <= c.MinLevel {
		return fmt.Errorf("fpn: max level %d must be greater than min level %d", c.MaxLevel, c.MinLevel)
	}
	if c.NumFilters <= 0 {
		return fmt.Errorf("fpn: num filters must be positive, got %d", c.NumFilters)
	}
	if c.CellRepeats <= 0 {
		return fmt.Errorf("fpn: cell repeats must be positive, got %d", c.CellRepeats)
	}

	switch c.WeightMethod {
	case WeightAttn, WeightFastAttn, WeightChannelAttn, WeightChannelFastAttn, WeightSum:
	default:
		return fmt.Errorf("fpn: unknown weight method %q", c.WeightMethod)
	}

	switch c.PoolingType {
	case PoolingMax, PoolingAvg:
	default:
		return fmt.Errorf("fpn: unknown pooling type %q", c.PoolingType)
	}

	switch c.UpsamplingType {
	case UpsamplingNearest, UpsamplingBilinear:
	default:
		return fmt.Errorf("fpn: unknown upsampling type %q", c.UpsamplingType)
	}

	if _, err := nn.ParseActType(c.ActType); err != nil {
		return fmt.Errorf("fpn: %w", err)
	}

	return nil
}

// NumLevels returns the number of pyramid levels.
func (c Config) NumLevels() int {
	return c.MaxLevel - c.MinLevel + 1
}
