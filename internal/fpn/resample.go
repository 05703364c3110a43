package fpn

import (
	"fmt"

	"github.com/fpnet-ml/fpnet/internal/nn"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// ResampleFeatureMap brings a feature map to a target spatial size and
// channel count.
//
// Channel mismatches are fixed with a 1x1 convolution (optionally followed by
// BatchNorm). Spatially the map is either downsampled by pooling with SAME
// padding, upsampled by interpolation, or passed through unchanged when the
// sizes already match. Mixed cases (one dimension larger, the other smaller
// than the target) cannot be expressed by a single pool or resize and panic.
type ResampleFeatureMap[B tensor.Backend] struct {
	name              string
	targetNumChannels int
	applyBN           bool
	convAfterDown     bool
	poolingType       string
	upsamplingType    string
	training          bool

	// conv and bn are created on the first forward pass that actually needs
	// the channel projection; the input channel count is unknown until then.
	conv *nn.Conv2D[B]
	bn   *nn.BatchNorm2D[B]

	backend B
}

// NewResampleFeatureMap creates a resampling layer. Pooling and upsampling
// types must already be validated by Config.Validate.
func NewResampleFeatureMap[B tensor.Backend](
	name string,
	targetNumChannels int,
	applyBN, convAfterDownsample bool,
	poolingType, upsamplingType string,
	backend B,
) *ResampleFeatureMap[B] {
	if poolingType == "" {
		poolingType = PoolingMax
	}
	if upsamplingType == "" {
		upsamplingType = UpsamplingNearest
	}
	return &ResampleFeatureMap[B]{
		name:              name,
		targetNumChannels: targetNumChannels,
		applyBN:           applyBN,
		convAfterDown:     convAfterDownsample,
		poolingType:       poolingType,
		upsamplingType:    upsamplingType,
		backend:           backend,
	}
}

// SetTraining switches the projection BatchNorm between train and eval mode.
func (r *ResampleFeatureMap[B]) SetTraining(training bool) {
	r.training = training
	if r.bn != nil {
		r.bn.SetTraining(training)
	}
}

// Forward resamples feat to targetH x targetW spatial size and the target
// channel count.
func (r *ResampleFeatureMap[B]) Forward(feat *tensor.Tensor[float32, B], targetH, targetW int) *tensor.Tensor[float32, B] {
	shape := feat.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("resample: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	height, width := shape[2], shape[3]

	switch {
	case height > targetH && width > targetW:
		if !r.convAfterDown {
			feat = r.maybeApply1x1(feat)
		}
		feat = r.pool(feat, targetH, targetW)
		if r.convAfterDown {
			feat = r.maybeApply1x1(feat)
		}
	case height <= targetH && width <= targetW:
		feat = r.maybeApply1x1(feat)
		if height < targetH || width < targetW {
			feat = r.upsample(feat, targetH, targetW)
		}
	default:
		panic(fmt.Sprintf("resample: incompatible resampling: feat %dx%d, target %dx%d",
			height, width, targetH, targetW))
	}

	return feat
}

// maybeApply1x1 projects the feature map to the target channel count when it
// differs, creating the projection layers on first use.
func (r *ResampleFeatureMap[B]) maybeApply1x1(feat *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	numChannels := feat.Shape()[1]
	if numChannels == r.targetNumChannels {
		return feat
	}

	if r.conv == nil {
		r.conv = nn.NewConv2D(r.name+".conv1x1", numChannels, r.targetNumChannels, 1, 1, 1, 0, true, r.backend)
		if r.applyBN {
			r.bn = nn.NewBatchNorm2D[B](r.name+".bn", r.targetNumChannels, r.backend)
			r.bn.SetTraining(r.training)
		}
	}

	feat = r.conv.Forward(feat)
	if r.bn != nil {
		feat = r.bn.Forward(feat)
	}
	return feat
}

func (r *ResampleFeatureMap[B]) pool(feat *tensor.Tensor[float32, B], targetH, targetW int) *tensor.Tensor[float32, B] {
	shape := feat.Shape()
	height, width := shape[2], shape[3]

	strideH := (height-1)/targetH + 1
	strideW := (width-1)/targetW + 1
	kernelH := strideH + 1
	kernelW := strideW + 1

	var raw *tensor.RawTensor
	switch r.poolingType {
	case PoolingMax:
		raw = r.backend.MaxPool2D(feat.Raw(), kernelH, kernelW, strideH, strideW, true)
	case PoolingAvg:
		raw = r.backend.AvgPool2D(feat.Raw(), kernelH, kernelW, strideH, strideW, true)
	default:
		panic(fmt.Sprintf("resample: unsupported pooling type %q", r.poolingType))
	}
	return tensor.New[float32, B](raw, r.backend)
}

func (r *ResampleFeatureMap[B]) upsample(feat *tensor.Tensor[float32, B], targetH, targetW int) *tensor.Tensor[float32, B] {
	var raw *tensor.RawTensor
	switch r.upsamplingType {
	case UpsamplingNearest:
		raw = r.backend.UpsampleNearest2D(feat.Raw(), targetH, targetW)
	case UpsamplingBilinear:
		raw = r.backend.UpsampleBilinear2D(feat.Raw(), targetH, targetW)
	default:
		panic(fmt.Sprintf("resample: unsupported upsampling type %q", r.upsamplingType))
	}
	return tensor.New[float32, B](raw, r.backend)
}

// Parameters returns the projection parameters, if the projection was built.
func (r *ResampleFeatureMap[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	if r.conv != nil {
		params = append(params, r.conv.Parameters()...)
	}
	if r.bn != nil {
		params = append(params, r.bn.Parameters()...)
	}
	return params
}
