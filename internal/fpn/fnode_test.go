package fpn

import (
	"math"
	"testing"

	"github.com/fpnet-ml/fpnet/internal/backend/cpu"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

func testFNode(t *testing.T, weightMethod string, numInputs int) *FNode[*cpu.CPUBackend] {
	t.Helper()
	cfg := DefaultConfig()
	cfg.WeightMethod = weightMethod
	cfg.NumFilters = 4

	offsets := make([]int, numInputs)
	for i := range offsets {
		offsets[i] = i
	}
	return NewFNode("fnode", 0, offsets, cfg, cpu.New())
}

// TestFuseSumEqualsElementwiseSum checks plain summation of N equal tensors.
func TestFuseSumEqualsElementwiseSum(t *testing.T) {
	backend := cpu.New()
	f := testFNode(t, WeightSum, 3)

	node := tensor.Randn[float32](tensor.Shape{1, 4, 2, 2}, backend)
	fused := f.fuse([]*tensor.Tensor[float32, *cpu.CPUBackend]{node, node, node})

	in, out := node.Data(), fused.Data()
	for i := range in {
		want := 3 * in[i]
		if math.Abs(float64(out[i]-want)) > 1e-5 {
			t.Errorf("fused[%d] = %v, expected %v", i, out[i], want)
		}
	}
}

// TestFuseAttnWeightsSumToOne checks softmax normalization: with equal
// weights, fusing N equal tensors returns the tensor itself.
func TestFuseAttnWeightsSumToOne(t *testing.T) {
	backend := cpu.New()
	for _, method := range []string{WeightAttn, WeightChannelAttn} {
		f := testFNode(t, method, 3)

		node := tensor.Randn[float32](tensor.Shape{1, 4, 2, 2}, backend)
		fused := f.fuse([]*tensor.Tensor[float32, *cpu.CPUBackend]{node, node, node})

		in, out := node.Data(), fused.Data()
		for i := range in {
			if math.Abs(float64(out[i]-in[i])) > 1e-5 {
				t.Errorf("%s: fused[%d] = %v, expected %v", method, i, out[i], in[i])
				break
			}
		}
	}
}

// TestFuseFastAttn checks the fast normalization: relu'd weights divided by
// their sum plus epsilon.
func TestFuseFastAttn(t *testing.T) {
	backend := cpu.New()
	for _, method := range []string{WeightFastAttn, WeightChannelFastAttn} {
		f := testFNode(t, method, 2)

		node := tensor.Ones[float32](tensor.Shape{1, 4, 2, 2}, backend)
		fused := f.fuse([]*tensor.Tensor[float32, *cpu.CPUBackend]{node, node})

		// Weights start at ones: each input scaled by 1/(2+1e-4).
		want := float32(2.0 / (2.0 + 1e-4))
		for i, v := range fused.Data() {
			if math.Abs(float64(v-want)) > 1e-5 {
				t.Errorf("%s: fused[%d] = %v, expected %v", method, i, v, want)
				break
			}
		}
	}
}

// TestFuseFastAttnNegativeWeight checks negative weights are clamped to zero
// before normalization.
func TestFuseFastAttnNegativeWeight(t *testing.T) {
	backend := cpu.New()
	f := testFNode(t, WeightFastAttn, 2)
	f.weights[1].Tensor().Data()[0] = -5

	a := tensor.Full[float32](tensor.Shape{1, 4, 2, 2}, 1, backend)
	b := tensor.Full[float32](tensor.Shape{1, 4, 2, 2}, 100, backend)
	fused := f.fuse([]*tensor.Tensor[float32, *cpu.CPUBackend]{a, b})

	// Only the first input survives: 1 * 1/(1+1e-4).
	want := float32(1.0 / (1.0 + 1e-4))
	for i, v := range fused.Data() {
		if math.Abs(float64(v-want)) > 1e-5 {
			t.Errorf("fused[%d] = %v, expected %v", i, v, want)
			break
		}
	}
}

// TestFNodeWeightShapes checks fusion weight variables initialize to ones
// with the method-dependent shape.
func TestFNodeWeightShapes(t *testing.T) {
	cases := []struct {
		method string
		shape  tensor.Shape
	}{
		{WeightAttn, tensor.Shape{1}},
		{WeightFastAttn, tensor.Shape{1}},
		{WeightChannelAttn, tensor.Shape{4}},
		{WeightChannelFastAttn, tensor.Shape{4}},
	}
	for _, tc := range cases {
		f := testFNode(t, tc.method, 2)
		if len(f.weights) != 2 {
			t.Errorf("%s: expected 2 weights, got %d", tc.method, len(f.weights))
			continue
		}
		for _, w := range f.weights {
			if !w.Tensor().Shape().Equal(tc.shape) {
				t.Errorf("%s: weight shape %v, expected %v", tc.method, w.Tensor().Shape(), tc.shape)
			}
			for _, v := range w.Tensor().Data() {
				if v != 1 {
					t.Errorf("%s: weight not initialized to one: %v", tc.method, v)
					break
				}
			}
		}
	}

	if f := testFNode(t, WeightSum, 2); len(f.weights) != 0 {
		t.Errorf("sum: expected no weights, got %d", len(f.weights))
	}
}

// TestFNodeForwardAppends checks Forward appends exactly one feature at the
// node's level resolution.
func TestFNodeForwardAppends(t *testing.T) {
	backend := cpu.New()
	cfg := DefaultConfig()
	cfg.NumFilters = 4

	// Node at level index 0 fusing the level-0 and level-1 features.
	f := NewFNode("fnode", 0, []int{0, 1}, cfg, backend)

	feats := []*tensor.Tensor[float32, *cpu.CPUBackend]{
		tensor.Randn[float32](tensor.Shape{1, 4, 8, 8}, backend),
		tensor.Randn[float32](tensor.Shape{1, 4, 4, 4}, backend),
	}
	out := f.Forward(feats)

	if len(out) != 3 {
		t.Fatalf("expected 3 features after forward, got %d", len(out))
	}
	want := tensor.Shape{1, 4, 8, 8}
	if !out[2].Shape().Equal(want) {
		t.Errorf("new node shape %v, expected %v", out[2].Shape(), want)
	}
}
