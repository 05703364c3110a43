package nn

import (
	"testing"

	"github.com/fpnet-ml/fpnet/internal/backend/cpu"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// TestSeparableConv2D_KnownValues tests the depthwise-then-pointwise
// composition with hand-set 1x1 weights.
func TestSeparableConv2D_KnownValues(t *testing.T) {
	backend := cpu.New()
	conv := NewSeparableConv2D("test", 2, 1, 1, 1, 1, 0, false, backend)

	// Depthwise: x2 for channel 0, x3 for channel 1.
	params := conv.Parameters()
	dw := params[0].Tensor().Data()
	dw[0] = 2
	dw[1] = 3

	// Pointwise sums both channels.
	pw := conv.PointwiseWeight().Tensor().Data()
	pw[0] = 1
	pw[1] = 1

	// Channel 0 all ones, channel 1 all tens.
	x := testInput(t, backend, tensor.Shape{1, 2, 2, 2}, []float32{1, 1, 1, 1, 10, 10, 10, 10})
	out := conv.Forward(x)

	if !out.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Output shape: expected [1 1 2 2], got %v", out.Shape())
	}

	// 1*2 + 10*3 = 32 everywhere.
	outData := out.Data()
	for i := range outData {
		if outData[i] != 32 {
			t.Errorf("Output[%d]: expected 32, got %.1f", i, outData[i])
		}
	}
}

// TestSeparableConv2D_PaddingPreservesSize tests the 3x3/pad-1 shape.
func TestSeparableConv2D_PaddingPreservesSize(t *testing.T) {
	backend := cpu.New()
	conv := NewSeparableConv2D("test", 4, 8, 3, 3, 1, 1, true, backend)

	x := testInput(t, backend, tensor.Shape{1, 4, 6, 6}, make([]float32, 4*6*6))
	out := conv.Forward(x)

	if !out.Shape().Equal(tensor.Shape{1, 8, 6, 6}) {
		t.Fatalf("Output shape: expected [1 8 6 6], got %v", out.Shape())
	}
}

// TestSeparableConv2D_Parameters tests parameter count and naming.
func TestSeparableConv2D_Parameters(t *testing.T) {
	backend := cpu.New()

	conv := NewSeparableConv2D("sep", 2, 4, 3, 3, 1, 1, true, backend)
	params := conv.Parameters()
	if len(params) != 3 {
		t.Fatalf("expected 3 parameters, got %d", len(params))
	}

	names := []string{"sep.depthwise", "sep.pointwise", "sep.bias"}
	for i, want := range names {
		if params[i].Name() != want {
			t.Errorf("parameter %d name = %q, expected %q", i, params[i].Name(), want)
		}
	}

	noBias := NewSeparableConv2D("sep2", 2, 4, 3, 3, 1, 1, false, backend)
	if got := len(noBias.Parameters()); got != 2 {
		t.Errorf("without bias: expected 2 parameters, got %d", got)
	}
}
