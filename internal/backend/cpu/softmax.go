package cpu

import (
	"fmt"
	"math"

	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// Softmax computes softmax along the given dimension.
// Negative dim counts from the end (-1 is the last dimension).
// Uses the max-subtraction trick for numerical stability.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("softmax: invalid dim %d for shape %v", dim, shape))
	}

	result, err := tensor.NewRaw(shape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("softmax: %v", err))
	}

	outer, n, inner := splitDim(shape, dim)

	switch x.DType() {
	case tensor.Float32:
		softmaxSlices(result.AsFloat32(), x.AsFloat32(), outer, n, inner)
	case tensor.Float64:
		softmaxSlices(result.AsFloat64(), x.AsFloat64(), outer, n, inner)
	default:
		panic(fmt.Sprintf("softmax: unsupported dtype %s", x.DType()))
	}

	return result
}

// splitDim factors a shape into [outer, shape[dim], inner] sizes.
func splitDim(shape tensor.Shape, dim int) (outer, n, inner int) {
	outer, n, inner = 1, shape[dim], 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, n, inner
}

func softmaxSlices[T float32 | float64](dst, src []T, outer, n, inner int) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*n*inner + in

			maxVal := src[base]
			for i := 1; i < n; i++ {
				if v := src[base+i*inner]; v > maxVal {
					maxVal = v
				}
			}

			var sum float64
			for i := 0; i < n; i++ {
				e := math.Exp(float64(src[base+i*inner] - maxVal))
				dst[base+i*inner] = T(e)
				sum += e
			}

			for i := 0; i < n; i++ {
				dst[base+i*inner] = T(float64(dst[base+i*inner]) / sum)
			}
		}
	}
}
