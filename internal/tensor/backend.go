package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - CPU: Pure Go with goroutine parallelism
//   - WebGPU: GPU compute via WGSL shaders (windows builds)
//
// All spatial operations use NCHW layout: [batch, channels, height, width].
type Backend interface {
	// Element-wise binary operations (with broadcasting)
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations
	MatMul(a, b *RawTensor) *RawTensor

	// Convolutional operations
	// Conv2D: input [N,C_in,H,W], kernel [C_out,C_in,K_h,K_w]
	// DepthwiseConv2D: input [N,C,H,W], kernel [C,1,K_h,K_w], one filter per channel
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor
	DepthwiseConv2D(input, kernel *RawTensor, stride, padding int) *RawTensor

	// Pooling. When samePadding is set, output is ceil(in/stride) per axis
	// and windows are padded TF-style (extra padding goes to bottom/right).
	// AvgPool2D averages over in-bounds elements only.
	MaxPool2D(input *RawTensor, kernelH, kernelW, strideH, strideW int, samePadding bool) *RawTensor
	AvgPool2D(input *RawTensor, kernelH, kernelW, strideH, strideW int, samePadding bool) *RawTensor

	// Spatial upsampling to an explicit target size.
	UpsampleNearest2D(input *RawTensor, outH, outW int) *RawTensor
	UpsampleBilinear2D(input *RawTensor, outH, outW int) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar operations (element-wise with scalar)
	MulScalar(x *RawTensor, scalar any) *RawTensor
	AddScalar(x *RawTensor, scalar any) *RawTensor
	SubScalar(x *RawTensor, scalar any) *RawTensor
	DivScalar(x *RawTensor, scalar any) *RawTensor

	// Math operations (element-wise)
	Exp(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor
	Rsqrt(x *RawTensor) *RawTensor

	// Activation functions
	ReLU(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	Softmax(x *RawTensor, dim int) *RawTensor

	// Reduction operations
	Sum(x *RawTensor) *RawTensor
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Manipulation operations
	Cat(tensors []*RawTensor, dim int) *RawTensor
	Unsqueeze(x *RawTensor, dim int) *RawTensor
	Squeeze(x *RawTensor, dim int) *RawTensor

	// Type conversion
	Cast(x *RawTensor, dtype DataType) *RawTensor

	// Metadata
	Name() string
	Device() Device
}
