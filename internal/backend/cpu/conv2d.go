package cpu

import (
	"fmt"

	"github.com/fpnet-ml/fpnet/internal/parallel"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape:  [batch, in_channels, height, width]
// Kernel shape: [out_channels, in_channels, kernel_h, kernel_w]
// Output shape: [batch, out_channels, out_h, out_w]
//
// Where:
//
//	out_h = (height + 2*padding - kernel_h) / stride + 1
//	out_w = (width + 2*padding - kernel_w) / stride + 1
//
// Im2col converts the convolution into a matrix multiplication: input
// patches become columns, the kernel becomes a [C_out, C_in*K_h*K_w]
// matrix, and one matmul produces all output positions.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kernelShape)))
	}

	N := inputShape[0]
	CIn := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	COut := kernelShape[0]
	KH := kernelShape[2]
	KW := kernelShape[3]

	if CIn != kernelShape[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", CIn, kernelShape[1]))
	}

	HOut := (H+2*padding-KH)/stride + 1
	WOut := (W+2*padding-KW)/stride + 1

	if HOut <= 0 || WOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding)", HOut, WOut))
	}

	output, err := tensor.NewRaw(tensor.Shape{N, COut, HOut, WOut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d: failed to create output tensor: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		conv2dIm2col(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(),
			N, CIn, H, W, COut, KH, KW, HOut, WOut, stride, padding, cpu.pcfg)
	case tensor.Float64:
		conv2dIm2col(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(),
			N, CIn, H, W, COut, KH, KW, HOut, WOut, stride, padding, cpu.pcfg)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}

	return output
}

func conv2dIm2col[T float32 | float64](
	outputData, inputData, kernelData []T,
	N, CIn, H, W, COut, KH, KW, HOut, WOut, stride, padding int,
	pcfg parallel.Config,
) {
	colWidth := CIn * KH * KW
	colHeight := N * HOut * WOut
	colBuf := make([]T, colHeight*colWidth)

	im2col(colBuf, inputData, N, CIn, H, W, KH, KW, HOut, WOut, stride, padding)

	// kernel is already [C_out, C_in*K_h*K_w] in row-major layout.
	// Each output channel is an independent row product, so parallelize there.
	parallel.For(COut, func(c int) {
		kernelRow := kernelData[c*colWidth : (c+1)*colWidth]
		for j := 0; j < colHeight; j++ {
			col := colBuf[j*colWidth : (j+1)*colWidth]
			var sum T
			for k, kv := range kernelRow {
				sum += kv * col[k]
			}
			// j encodes (n, h, w); scatter directly into [N, C_out, H_out, W_out].
			n := j / (HOut * WOut)
			hw := j % (HOut * WOut)
			outputData[((n*COut+c)*HOut*WOut)+hw] = sum
		}
	}, pcfg)
}

// im2col transforms the input into a column matrix.
// Each row corresponds to one output position, each column to one kernel weight.
func im2col[T float32 | float64](colBuf, inputData []T, N, C, H, W, KH, KW, HOut, WOut, stride, padding int) {
	colWidth := C * KH * KW
	colIdx := 0

	for n := 0; n < N; n++ {
		for outH := 0; outH < HOut; outH++ {
			for outW := 0; outW < WOut; outW++ {
				hStart := outH*stride - padding
				wStart := outW*stride - padding
				bufIdx := colIdx * colWidth

				for c := 0; c < C; c++ {
					for kh := 0; kh < KH; kh++ {
						for kw := 0; kw < KW; kw++ {
							h := hStart + kh
							w := wStart + kw

							if h >= 0 && h < H && w >= 0 && w < W {
								colBuf[bufIdx] = inputData[n*C*H*W+c*H*W+h*W+w]
							} else {
								colBuf[bufIdx] = 0
							}
							bufIdx++
						}
					}
				}
				colIdx++
			}
		}
	}
}

// DepthwiseConv2D convolves each input channel with its own single filter.
//
// Input shape:  [batch, channels, height, width]
// Kernel shape: [channels, 1, kernel_h, kernel_w]
// Output shape: [batch, channels, out_h, out_w]
func (cpu *CPUBackend) DepthwiseConv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("depthwiseConv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 || kernelShape[1] != 1 {
		panic(fmt.Sprintf("depthwiseConv2d: kernel must be [C,1,K_h,K_w], got %v", kernelShape))
	}
	if inputShape[1] != kernelShape[0] {
		panic(fmt.Sprintf("depthwiseConv2d: input channels %d != kernel channels %d", inputShape[1], kernelShape[0]))
	}

	N := inputShape[0]
	C := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	KH := kernelShape[2]
	KW := kernelShape[3]

	HOut := (H+2*padding-KH)/stride + 1
	WOut := (W+2*padding-KW)/stride + 1

	if HOut <= 0 || WOut <= 0 {
		panic(fmt.Sprintf("depthwiseConv2d: invalid output dimensions: out_h=%d, out_w=%d", HOut, WOut))
	}

	output, err := tensor.NewRaw(tensor.Shape{N, C, HOut, WOut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("depthwiseConv2d: failed to create output tensor: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		depthwiseConv2d(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(),
			N, C, H, W, KH, KW, HOut, WOut, stride, padding, cpu.pcfg)
	case tensor.Float64:
		depthwiseConv2d(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(),
			N, C, H, W, KH, KW, HOut, WOut, stride, padding, cpu.pcfg)
	default:
		panic(fmt.Sprintf("depthwiseConv2d: unsupported dtype %s", input.DType()))
	}

	return output
}

func depthwiseConv2d[T float32 | float64](
	outputData, inputData, kernelData []T,
	N, C, H, W, KH, KW, HOut, WOut, stride, padding int,
	pcfg parallel.Config,
) {
	parallel.ForBatch(N, C, func(n, c int) {
		channelData := inputData[(n*C+c)*H*W : (n*C+c+1)*H*W]
		kernelChan := kernelData[c*KH*KW : (c+1)*KH*KW]
		outChan := outputData[(n*C+c)*HOut*WOut : (n*C+c+1)*HOut*WOut]

		for outH := 0; outH < HOut; outH++ {
			hStart := outH*stride - padding
			for outW := 0; outW < WOut; outW++ {
				wStart := outW*stride - padding

				var sum T
				for kh := 0; kh < KH; kh++ {
					h := hStart + kh
					if h < 0 || h >= H {
						continue
					}
					rowData := channelData[h*W : (h+1)*W]
					kernelRow := kernelChan[kh*KW : (kh+1)*KW]
					for kw := 0; kw < KW; kw++ {
						w := wStart + kw
						if w < 0 || w >= W {
							continue
						}
						sum += rowData[w] * kernelRow[kw]
					}
				}
				outChan[outH*WOut+outW] = sum
			}
		}
	}, pcfg)
}
