//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// Add performs element-wise addition on GPU.
func (b *Backend) Add(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "add", addShader)
	if err != nil {
		panic("webgpu: Add: " + err.Error())
	}
	return result
}

// Sub performs element-wise subtraction on GPU.
func (b *Backend) Sub(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "sub", subShader)
	if err != nil {
		panic("webgpu: Sub: " + err.Error())
	}
	return result
}

// Mul performs element-wise multiplication on GPU.
func (b *Backend) Mul(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "mul", mulShader)
	if err != nil {
		panic("webgpu: Mul: " + err.Error())
	}
	return result
}

// Div performs element-wise division on GPU.
func (b *Backend) Div(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runBinaryOp(a, other, "div", divShader)
	if err != nil {
		panic("webgpu: Div: " + err.Error())
	}
	return result
}

// MatMul performs 2D matrix multiplication on GPU.
func (b *Backend) MatMul(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runMatMul(a, other)
	if err != nil {
		panic("webgpu: MatMul: " + err.Error())
	}
	return result
}

// Exp computes element-wise exponential on GPU.
func (b *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "exp", expShader, nil)
	if err != nil {
		panic("webgpu: Exp: " + err.Error())
	}
	return result
}

// Sqrt computes element-wise square root on GPU.
func (b *Backend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "sqrt", sqrtShader, nil)
	if err != nil {
		panic("webgpu: Sqrt: " + err.Error())
	}
	return result
}

// Rsqrt computes element-wise reciprocal square root on GPU.
func (b *Backend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "rsqrt", rsqrtShader, nil)
	if err != nil {
		panic("webgpu: Rsqrt: " + err.Error())
	}
	return result
}

// ReLU computes element-wise max(0, x) on GPU.
func (b *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "relu", reluShader, nil)
	if err != nil {
		panic("webgpu: ReLU: " + err.Error())
	}
	return result
}

// Sigmoid computes the element-wise logistic function on GPU.
func (b *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "sigmoid", sigmoidShader, nil)
	if err != nil {
		panic("webgpu: Sigmoid: " + err.Error())
	}
	return result
}

// Tanh computes the element-wise hyperbolic tangent on GPU.
func (b *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "tanh", tanhShader, nil)
	if err != nil {
		panic("webgpu: Tanh: " + err.Error())
	}
	return result
}

// Softmax computes softmax on GPU. Only the last dimension of a 2D tensor
// is supported.
func (b *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if dim != -1 && dim != len(x.Shape())-1 {
		panic(fmt.Sprintf("webgpu: Softmax only supports the last dimension, got dim=%d", dim))
	}
	result, err := b.runSoftmax(x)
	if err != nil {
		panic("webgpu: Softmax: " + err.Error())
	}
	return result
}

// MulScalar multiplies each element by a scalar on GPU.
func (b *Backend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.scalarOp(x, scalar, "mulScalar", mulScalarShader)
}

// AddScalar adds a scalar to each element on GPU.
func (b *Backend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.scalarOp(x, scalar, "addScalar", addScalarShader)
}

// SubScalar subtracts a scalar from each element on GPU.
func (b *Backend) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.scalarOp(x, scalar, "subScalar", subScalarShader)
}

// DivScalar divides each element by a scalar on GPU.
func (b *Backend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.scalarOp(x, scalar, "divScalar", divScalarShader)
}

func (b *Backend) scalarOp(x *tensor.RawTensor, scalar any, shaderName, shaderCode string) *tensor.RawTensor {
	s, ok := scalar.(float32)
	if !ok {
		panic(fmt.Sprintf("webgpu: %s: scalar must be float32, got %T", shaderName, scalar))
	}

	extra := make([]byte, 4)
	binary.LittleEndian.PutUint32(extra, math.Float32bits(s))

	result, err := b.runUnaryOp(x, shaderName, shaderCode, extra)
	if err != nil {
		panic("webgpu: " + shaderName + ": " + err.Error())
	}
	return result
}

// Reshape returns a tensor with the same data but different shape.
// Metadata-only, no GPU work needed.
func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("webgpu: reshape: incompatible shapes: %v -> %v", t.Shape(), newShape))
	}
	result, err := tensor.NewRaw(newShape, t.DType(), tensor.WebGPU)
	if err != nil {
		panic(fmt.Sprintf("webgpu: reshape: %v", err))
	}
	copy(result.Data(), t.Data())
	return result
}

// Spatial and structural operations are not implemented on the GPU path yet.
// The CPU backend covers them; these panic so a misrouted call fails loudly.

func (b *Backend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	panic("webgpu: Conv2D not implemented")
}

func (b *Backend) DepthwiseConv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	panic("webgpu: DepthwiseConv2D not implemented")
}

func (b *Backend) MaxPool2D(input *tensor.RawTensor, kernelH, kernelW, strideH, strideW int, samePadding bool) *tensor.RawTensor {
	panic("webgpu: MaxPool2D not implemented")
}

func (b *Backend) AvgPool2D(input *tensor.RawTensor, kernelH, kernelW, strideH, strideW int, samePadding bool) *tensor.RawTensor {
	panic("webgpu: AvgPool2D not implemented")
}

func (b *Backend) UpsampleNearest2D(input *tensor.RawTensor, outH, outW int) *tensor.RawTensor {
	panic("webgpu: UpsampleNearest2D not implemented")
}

func (b *Backend) UpsampleBilinear2D(input *tensor.RawTensor, outH, outW int) *tensor.RawTensor {
	panic("webgpu: UpsampleBilinear2D not implemented")
}

func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	panic("webgpu: Transpose not implemented")
}

func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	panic("webgpu: Sum not implemented")
}

func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	panic("webgpu: SumDim not implemented")
}

func (b *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	panic("webgpu: MeanDim not implemented")
}

func (b *Backend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	panic("webgpu: Cat not implemented")
}

func (b *Backend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	panic("webgpu: Unsqueeze not implemented")
}

func (b *Backend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	panic("webgpu: Squeeze not implemented")
}

func (b *Backend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	panic("webgpu: Cast not implemented")
}
