package cpu

import (
	"fmt"
	"math"

	"github.com/fpnet-ml/fpnet/internal/parallel"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// MaxPool2D performs 2D max pooling over [N, C, H, W] input.
//
// With samePadding=false (VALID):
//
//	out = (in - kernel) / stride + 1
//
// With samePadding=true the output is ceil(in/stride) per axis and the
// window is padded TF-style: total padding max((out-1)*stride + kernel - in, 0),
// split with the extra row/column going to the bottom/right. Padded
// positions never win the max.
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelH, kernelW, strideH, strideW int, samePadding bool) *tensor.RawTensor {
	return cpu.pool2d("maxpool2d", input, kernelH, kernelW, strideH, strideW, samePadding, false)
}

// AvgPool2D performs 2D average pooling over [N, C, H, W] input.
// With samePadding=true, averages count only in-bounds elements.
func (cpu *CPUBackend) AvgPool2D(input *tensor.RawTensor, kernelH, kernelW, strideH, strideW int, samePadding bool) *tensor.RawTensor {
	return cpu.pool2d("avgpool2d", input, kernelH, kernelW, strideH, strideW, samePadding, true)
}

func (cpu *CPUBackend) pool2d(op string, input *tensor.RawTensor, kernelH, kernelW, strideH, strideW int, samePadding, average bool) *tensor.RawTensor {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("%s: expected 4D input [N,C,H,W], got %dD", op, len(inputShape)))
	}
	if kernelH <= 0 || kernelW <= 0 {
		panic(fmt.Sprintf("%s: invalid kernel size %dx%d", op, kernelH, kernelW))
	}
	if strideH <= 0 || strideW <= 0 {
		panic(fmt.Sprintf("%s: invalid stride %dx%d", op, strideH, strideW))
	}

	N := inputShape[0]
	C := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]

	var HOut, WOut, padTop, padLeft int
	if samePadding {
		HOut = (H + strideH - 1) / strideH
		WOut = (W + strideW - 1) / strideW
		padTop = max((HOut-1)*strideH+kernelH-H, 0) / 2
		padLeft = max((WOut-1)*strideW+kernelW-W, 0) / 2
	} else {
		if kernelH > H || kernelW > W {
			panic(fmt.Sprintf("%s: kernel %dx%d too large for input %dx%d", op, kernelH, kernelW, H, W))
		}
		HOut = (H-kernelH)/strideH + 1
		WOut = (W-kernelW)/strideW + 1
	}

	if HOut <= 0 || WOut <= 0 {
		panic(fmt.Sprintf("%s: invalid output dimensions %dx%d (kernel=%dx%d, stride=%dx%d, input=%dx%d)",
			op, HOut, WOut, kernelH, kernelW, strideH, strideW, H, W))
	}

	output, err := tensor.NewRaw(tensor.Shape{N, C, HOut, WOut}, input.DType(), cpu.Device())
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create output: %v", op, err))
	}

	switch input.DType() {
	case tensor.Float32:
		pool2dSlices(output.AsFloat32(), input.AsFloat32(),
			N, C, H, W, HOut, WOut, kernelH, kernelW, strideH, strideW, padTop, padLeft, average, cpu.pcfg)
	case tensor.Float64:
		pool2dSlices(output.AsFloat64(), input.AsFloat64(),
			N, C, H, W, HOut, WOut, kernelH, kernelW, strideH, strideW, padTop, padLeft, average, cpu.pcfg)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %v", op, input.DType()))
	}

	return output
}

func pool2dSlices[T float32 | float64](
	outputData, inputData []T,
	N, C, H, W, HOut, WOut, kernelH, kernelW, strideH, strideW, padTop, padLeft int,
	average bool,
	pcfg parallel.Config,
) {
	parallel.ForBatch(N, C, func(n, c int) {
		channelData := inputData[(n*C+c)*H*W : (n*C+c+1)*H*W]
		outChan := outputData[(n*C+c)*HOut*WOut : (n*C+c+1)*HOut*WOut]

		for outH := 0; outH < HOut; outH++ {
			hStart := outH*strideH - padTop
			for outW := 0; outW < WOut; outW++ {
				wStart := outW*strideW - padLeft

				maxVal := T(math.Inf(-1))
				var sum T
				count := 0

				for kh := 0; kh < kernelH; kh++ {
					h := hStart + kh
					if h < 0 || h >= H {
						continue
					}
					rowData := channelData[h*W : (h+1)*W]
					for kw := 0; kw < kernelW; kw++ {
						w := wStart + kw
						if w < 0 || w >= W {
							continue
						}
						val := rowData[w]
						if val > maxVal {
							maxVal = val
						}
						sum += val
						count++
					}
				}

				var out T
				if average {
					if count > 0 {
						out = sum / T(count)
					}
				} else {
					out = maxVal
				}
				outChan[outH*WOut+outW] = out
			}
		}
	}, pcfg)
}
