package nn

import (
	"math"
	"testing"

	"github.com/fpnet-ml/fpnet/internal/backend/cpu"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// TestBatchNorm2D_EvalNearIdentity tests eval mode with the initial
// running statistics (mean 0, variance 1): y = x / sqrt(1 + eps).
func TestBatchNorm2D_EvalNearIdentity(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2D("test", 2, backend)

	x := testInput(t, backend, tensor.Shape{1, 2, 2, 2}, []float32{1, 2, 3, 4, -1, -2, -3, -4})
	out := bn.Forward(x)

	scale := 1 / math.Sqrt(1+1e-3)
	xData := x.Data()
	outData := out.Data()
	for i := range xData {
		want := float64(xData[i]) * scale
		if math.Abs(float64(outData[i])-want) > 1e-5 {
			t.Errorf("Output[%d]: expected %f, got %f", i, want, outData[i])
		}
	}
}

// TestBatchNorm2D_ScaleAndShift tests gamma/beta application in eval mode.
func TestBatchNorm2D_ScaleAndShift(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2D("test", 1, backend)

	params := bn.Parameters()
	params[0].Tensor().Data()[0] = 2 // gamma
	params[1].Tensor().Data()[0] = 1 // beta

	x := testInput(t, backend, tensor.Shape{1, 1, 1, 2}, []float32{1, -1})
	out := bn.Forward(x)

	scale := 2 / math.Sqrt(1+1e-3)
	expected := []float64{scale + 1, -scale + 1}
	outData := out.Data()
	for i, want := range expected {
		if math.Abs(float64(outData[i])-want) > 1e-5 {
			t.Errorf("Output[%d]: expected %f, got %f", i, want, outData[i])
		}
	}
}

// TestBatchNorm2D_TrainingNormalizes tests that training mode uses batch
// statistics: a constant channel normalizes to zero.
func TestBatchNorm2D_TrainingNormalizes(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2D("test", 1, backend)
	bn.SetTraining(true)

	x := testInput(t, backend, tensor.Shape{2, 1, 2, 2}, []float32{5, 5, 5, 5, 5, 5, 5, 5})
	out := bn.Forward(x)

	outData := out.Data()
	for i := range outData {
		if math.Abs(float64(outData[i])) > 1e-5 {
			t.Errorf("Output[%d]: expected 0, got %f", i, outData[i])
		}
	}
}

// TestBatchNorm2D_TrainingStandardizes tests zero mean and unit variance
// over a non-constant batch.
func TestBatchNorm2D_TrainingStandardizes(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2D("test", 1, backend)
	bn.SetTraining(true)

	x := testInput(t, backend, tensor.Shape{1, 1, 2, 2}, []float32{1, 2, 3, 4})
	out := bn.Forward(x)

	outData := out.Data()
	var sum, sqSum float64
	for _, v := range outData {
		sum += float64(v)
		sqSum += float64(v) * float64(v)
	}
	mean := sum / 4
	variance := sqSum/4 - mean*mean

	if math.Abs(mean) > 1e-5 {
		t.Errorf("output mean = %f, expected 0", mean)
	}
	// Variance is slightly below 1 because of eps.
	if math.Abs(variance-1) > 1e-2 {
		t.Errorf("output variance = %f, expected ~1", variance)
	}
}

// TestBatchNorm2D_ParameterNames tests gamma/beta naming.
func TestBatchNorm2D_ParameterNames(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2D("layer", 4, backend)

	params := bn.Parameters()
	if len(params) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(params))
	}
	if params[0].Name() != "layer.gamma" || params[1].Name() != "layer.beta" {
		t.Errorf("parameter names = %q, %q", params[0].Name(), params[1].Name())
	}
}

// TestBatchNorm2D_ChannelMismatch tests the channel count check.
func TestBatchNorm2D_ChannelMismatch(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2D("test", 3, backend)

	x := testInput(t, backend, tensor.Shape{1, 2, 2, 2}, make([]float32, 8))

	defer func() {
		if recover() == nil {
			t.Error("expected panic for channel mismatch")
		}
	}()
	bn.Forward(x)
}
