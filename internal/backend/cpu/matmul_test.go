package cpu

import (
	"testing"

	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// TestMatMul_KnownValues tests (2,3) @ (3,2) against hand-computed values.
func TestMatMul_KnownValues(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := rawFromFloat32(t, tensor.Shape{3, 2}, []float32{7, 8, 9, 10, 11, 12})

	out := backend.MatMul(a, b)

	if !out.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("Output shape: expected [2 2], got %v", out.Shape())
	}

	expected := []float32{58, 64, 139, 154}
	outData := out.AsFloat32()
	for i, exp := range expected {
		if outData[i] != exp {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, exp, outData[i])
		}
	}
}

// TestMatMul_Identity tests multiplication by the identity matrix.
func TestMatMul_Identity(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
	eye := rawFromFloat32(t, tensor.Shape{2, 2}, []float32{1, 0, 0, 1})

	out := backend.MatMul(a, eye)

	outData := out.AsFloat32()
	aData := a.AsFloat32()
	for i := range aData {
		if outData[i] != aData[i] {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, aData[i], outData[i])
		}
	}
}

// TestMatMul_DimensionMismatch tests the inner dimension check.
func TestMatMul_DimensionMismatch(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, tensor.Shape{2, 3}, make([]float32, 6))
	b := rawFromFloat32(t, tensor.Shape{2, 2}, make([]float32, 4))

	defer func() {
		if recover() == nil {
			t.Error("expected panic for inner dimension mismatch")
		}
	}()
	backend.MatMul(a, b)
}
