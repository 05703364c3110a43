package cpu

import (
	"fmt"

	"github.com/fpnet-ml/fpnet/internal/parallel"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// UpsampleNearest2D resizes [N, C, H, W] input to [N, C, outH, outW] by
// nearest-neighbor sampling: src = floor(dst * in / out).
func (cpu *CPUBackend) UpsampleNearest2D(input *tensor.RawTensor, outH, outW int) *tensor.RawTensor {
	output, N, C, H, W := cpu.resizeOutput("upsampleNearest2d", input, outH, outW)

	switch input.DType() {
	case tensor.Float32:
		resizeNearest(output.AsFloat32(), input.AsFloat32(), N, C, H, W, outH, outW, cpu.pcfg)
	case tensor.Float64:
		resizeNearest(output.AsFloat64(), input.AsFloat64(), N, C, H, W, outH, outW, cpu.pcfg)
	default:
		panic(fmt.Sprintf("upsampleNearest2d: unsupported dtype %s", input.DType()))
	}

	return output
}

// UpsampleBilinear2D resizes [N, C, H, W] input to [N, C, outH, outW] by
// bilinear interpolation with half-pixel centers.
func (cpu *CPUBackend) UpsampleBilinear2D(input *tensor.RawTensor, outH, outW int) *tensor.RawTensor {
	output, N, C, H, W := cpu.resizeOutput("upsampleBilinear2d", input, outH, outW)

	switch input.DType() {
	case tensor.Float32:
		resizeBilinear(output.AsFloat32(), input.AsFloat32(), N, C, H, W, outH, outW, cpu.pcfg)
	case tensor.Float64:
		resizeBilinear(output.AsFloat64(), input.AsFloat64(), N, C, H, W, outH, outW, cpu.pcfg)
	default:
		panic(fmt.Sprintf("upsampleBilinear2d: unsupported dtype %s", input.DType()))
	}

	return output
}

func (cpu *CPUBackend) resizeOutput(op string, input *tensor.RawTensor, outH, outW int) (output *tensor.RawTensor, n, c, h, w int) {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("%s: expected 4D input [N,C,H,W], got %dD", op, len(inputShape)))
	}
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("%s: invalid target size %dx%d", op, outH, outW))
	}

	n, c, h, w = inputShape[0], inputShape[1], inputShape[2], inputShape[3]

	output, err := tensor.NewRaw(tensor.Shape{n, c, outH, outW}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create output: %v", op, err))
	}
	return output, n, c, h, w
}

func resizeNearest[T float32 | float64](outputData, inputData []T, N, C, H, W, outH, outW int, pcfg parallel.Config) {
	parallel.ForBatch(N, C, func(n, c int) {
		channelData := inputData[(n*C+c)*H*W : (n*C+c+1)*H*W]
		outChan := outputData[(n*C+c)*outH*outW : (n*C+c+1)*outH*outW]

		for y := 0; y < outH; y++ {
			srcY := y * H / outH
			rowData := channelData[srcY*W : (srcY+1)*W]
			for x := 0; x < outW; x++ {
				outChan[y*outW+x] = rowData[x*W/outW]
			}
		}
	}, pcfg)
}

func resizeBilinear[T float32 | float64](outputData, inputData []T, N, C, H, W, outH, outW int, pcfg parallel.Config) {
	scaleY := float64(H) / float64(outH)
	scaleX := float64(W) / float64(outW)

	parallel.ForBatch(N, C, func(n, c int) {
		channelData := inputData[(n*C+c)*H*W : (n*C+c+1)*H*W]
		outChan := outputData[(n*C+c)*outH*outW : (n*C+c+1)*outH*outW]

		for y := 0; y < outH; y++ {
			srcY := (float64(y)+0.5)*scaleY - 0.5
			y0 := int(srcY)
			if srcY < 0 {
				srcY, y0 = 0, 0
			}
			y1 := min(y0+1, H-1)
			fy := srcY - float64(y0)

			for x := 0; x < outW; x++ {
				srcX := (float64(x)+0.5)*scaleX - 0.5
				x0 := int(srcX)
				if srcX < 0 {
					srcX, x0 = 0, 0
				}
				x1 := min(x0+1, W-1)
				fx := srcX - float64(x0)

				tl := float64(channelData[y0*W+x0])
				tr := float64(channelData[y0*W+x1])
				bl := float64(channelData[y1*W+x0])
				br := float64(channelData[y1*W+x1])

				top := tl + (tr-tl)*fx
				bottom := bl + (br-bl)*fx
				outChan[y*outW+x] = T(top + (bottom-top)*fy)
			}
		}
	}, pcfg)
}
