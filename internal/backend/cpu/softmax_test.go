package cpu

import (
	"math"
	"testing"

	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// TestSoftmax_KnownValues tests softmax against hand-computed values.
func TestSoftmax_KnownValues(t *testing.T) {
	backend := New()

	// Logits {0, ln 2, ln 2} -> {0.2, 0.4, 0.4}.
	ln2 := float32(math.Log(2))
	x := rawFromFloat32(t, tensor.Shape{3}, []float32{0, ln2, ln2})

	out := backend.Softmax(x, 0)

	expected := []float32{0.2, 0.4, 0.4}
	outData := out.AsFloat32()
	for i, exp := range expected {
		if math.Abs(float64(outData[i]-exp)) > 1e-5 {
			t.Errorf("Output[%d]: expected %.3f, got %.3f", i, exp, outData[i])
		}
	}
}

// TestSoftmax_SumsToOne tests that each slice along the softmax dim
// normalizes to 1.
func TestSoftmax_SumsToOne(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, tensor.Shape{2, 4}, []float32{1, -2, 3, 0.5, -1, 0, 2, 4})
	out := backend.Softmax(x, 1)

	outData := out.AsFloat32()
	for row := 0; row < 2; row++ {
		var sum float64
		for col := 0; col < 4; col++ {
			sum += float64(outData[row*4+col])
		}
		if math.Abs(sum-1) > 1e-5 {
			t.Errorf("row %d sums to %f, expected 1", row, sum)
		}
	}
}

// TestSoftmax_NegativeDim tests that -1 addresses the last dimension.
func TestSoftmax_NegativeDim(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, tensor.Shape{2, 2}, []float32{0, 0, 1, 1})
	out := backend.Softmax(x, -1)

	// Equal logits per row -> uniform 0.5.
	outData := out.AsFloat32()
	for i := range outData {
		if math.Abs(float64(outData[i])-0.5) > 1e-6 {
			t.Errorf("Output[%d]: expected 0.5, got %f", i, outData[i])
		}
	}
}

// TestSoftmax_LargeLogitsStable tests numerical stability via the
// max-subtraction trick.
func TestSoftmax_LargeLogitsStable(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, tensor.Shape{2}, []float32{1000, 1000})
	out := backend.Softmax(x, 0)

	outData := out.AsFloat32()
	for i := range outData {
		if math.IsNaN(float64(outData[i])) || math.Abs(float64(outData[i])-0.5) > 1e-6 {
			t.Errorf("Output[%d]: expected 0.5, got %f", i, outData[i])
		}
	}
}
