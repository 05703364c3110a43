package cpu

import (
	"fmt"

	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("sub", a, b,
		func(x, y float32) float32 { return x - y },
		func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("div", a, b,
		func(x, y float32) float32 { return x / y },
		func(x, y float64) float64 { return x / y })
}

func (cpu *CPUBackend) binaryOp(
	op string,
	a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", op, a.DType(), b.DType()))
	}

	result, err := tensor.NewRaw(outShape, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}

	switch a.DType() {
	case tensor.Float32:
		if needsBroadcast {
			binaryBroadcast(result.AsFloat32(), outShape, a.AsFloat32(), a.Shape(), b.AsFloat32(), b.Shape(), f32)
		} else {
			binaryVectorized(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), f32)
		}
	case tensor.Float64:
		if needsBroadcast {
			binaryBroadcast(result.AsFloat64(), outShape, a.AsFloat64(), a.Shape(), b.AsFloat64(), b.Shape(), f64)
		} else {
			binaryVectorized(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), f64)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, a.DType()))
	}

	return result
}

func binaryVectorized[T float32 | float64](dst, x, y []T, f func(T, T) T) {
	for i := range dst {
		dst[i] = f(x[i], y[i])
	}
}

// binaryBroadcast evaluates f over the broadcasted output shape.
// Zero strides map size-1 input dimensions onto the larger output dimension.
func binaryBroadcast[T float32 | float64](
	dst []T, outShape tensor.Shape,
	x []T, xShape tensor.Shape,
	y []T, yShape tensor.Shape,
	f func(T, T) T,
) {
	xStrides := broadcastStrides(outShape, xShape)
	yStrides := broadcastStrides(outShape, yShape)
	outStrides := outShape.ComputeStrides()

	for i := range dst {
		rem := i
		xIdx, yIdx := 0, 0
		for d := range outShape {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			xIdx += coord * xStrides[d]
			yIdx += coord * yStrides[d]
		}
		dst[i] = f(x[xIdx], y[yIdx])
	}
}

// broadcastStrides aligns the input shape to the output shape from the right
// and zeroes the stride of every broadcasted dimension.
func broadcastStrides(out, in tensor.Shape) []int {
	strides := make([]int, len(out))
	inStrides := in.ComputeStrides()
	offset := len(out) - len(in)
	for i := range out {
		j := i - offset
		if j < 0 || in[j] == 1 {
			strides[i] = 0
		} else {
			strides[i] = inStrides[j]
		}
	}
	return strides
}
