package nn

import (
	"testing"

	"github.com/fpnet-ml/fpnet/internal/backend/cpu"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// TestConv2D_KnownValues tests a 1x1 convolution with hand-set weights.
func TestConv2D_KnownValues(t *testing.T) {
	backend := cpu.New()
	conv := NewConv2D("test", 2, 1, 1, 1, 1, 0, true, backend)

	weights := conv.Weight().Tensor().Data()
	weights[0] = 3
	weights[1] = 4
	conv.Bias().Tensor().Data()[0] = 0.5

	// Channel 0 all ones, channel 1 all twos.
	x := testInput(t, backend, tensor.Shape{1, 2, 2, 2}, []float32{1, 1, 1, 1, 2, 2, 2, 2})
	out := conv.Forward(x)

	if !out.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Output shape: expected [1 1 2 2], got %v", out.Shape())
	}

	// 1*3 + 2*4 + 0.5 = 11.5 everywhere.
	outData := out.Data()
	for i := range outData {
		if outData[i] != 11.5 {
			t.Errorf("Output[%d]: expected 11.5, got %.2f", i, outData[i])
		}
	}
}

// TestConv2D_PaddingPreservesSize tests the 3x3/pad-1 configuration.
func TestConv2D_PaddingPreservesSize(t *testing.T) {
	backend := cpu.New()
	conv := NewConv2D("test", 3, 8, 3, 3, 1, 1, true, backend)

	x := testInput(t, backend, tensor.Shape{2, 3, 5, 5}, make([]float32, 2*3*5*5))
	out := conv.Forward(x)

	if !out.Shape().Equal(tensor.Shape{2, 8, 5, 5}) {
		t.Fatalf("Output shape: expected [2 8 5 5], got %v", out.Shape())
	}
}

// TestConv2D_Parameters tests parameter count with and without bias.
func TestConv2D_Parameters(t *testing.T) {
	backend := cpu.New()

	withBias := NewConv2D("a", 2, 4, 3, 3, 1, 1, true, backend)
	if got := len(withBias.Parameters()); got != 2 {
		t.Errorf("with bias: expected 2 parameters, got %d", got)
	}

	noBias := NewConv2D("b", 2, 4, 3, 3, 1, 1, false, backend)
	if got := len(noBias.Parameters()); got != 1 {
		t.Errorf("without bias: expected 1 parameter, got %d", got)
	}
	if noBias.Bias() != nil {
		t.Error("expected nil bias parameter")
	}
}

// TestConv2D_ChannelMismatch tests the input channel check.
func TestConv2D_ChannelMismatch(t *testing.T) {
	backend := cpu.New()
	conv := NewConv2D("test", 3, 4, 1, 1, 1, 0, false, backend)

	x := testInput(t, backend, tensor.Shape{1, 2, 2, 2}, make([]float32, 8))

	defer func() {
		if recover() == nil {
			t.Error("expected panic for channel mismatch")
		}
	}()
	conv.Forward(x)
}
