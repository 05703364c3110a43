package cpu

import (
	"testing"

	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// TestScalarOps tests all four scalar operations on float32 tensors.
func TestScalarOps(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, tensor.Shape{4}, []float32{2, 4, 6, 8})

	cases := []struct {
		name     string
		op       func(*tensor.RawTensor, any) *tensor.RawTensor
		scalar   float32
		expected []float32
	}{
		{"add", backend.AddScalar, 1, []float32{3, 5, 7, 9}},
		{"sub", backend.SubScalar, 2, []float32{0, 2, 4, 6}},
		{"mul", backend.MulScalar, 0.5, []float32{1, 2, 3, 4}},
		{"div", backend.DivScalar, 2, []float32{1, 2, 3, 4}},
	}

	for _, tc := range cases {
		out := tc.op(x, tc.scalar)
		outData := out.AsFloat32()
		for i, exp := range tc.expected {
			if outData[i] != exp {
				t.Errorf("%s: Output[%d]: expected %.1f, got %.1f", tc.name, i, exp, outData[i])
			}
		}
	}
}

// TestScalarOp_TypeMismatch tests that a mismatched scalar type panics.
func TestScalarOp_TypeMismatch(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, tensor.Shape{2}, []float32{1, 2})

	defer func() {
		if recover() == nil {
			t.Error("expected panic for float64 scalar on float32 tensor")
		}
	}()
	backend.MulScalar(x, float64(2))
}
