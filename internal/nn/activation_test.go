package nn

import (
	"math"
	"testing"

	"github.com/fpnet-ml/fpnet/internal/backend/cpu"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

func testInput(t *testing.T, backend *cpu.CPUBackend, shape tensor.Shape, data []float32) *tensor.Tensor[float32, *cpu.CPUBackend] {
	t.Helper()
	x, err := tensor.FromSlice(data, shape, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	return x
}

// TestParseActType tests activation name parsing.
func TestParseActType(t *testing.T) {
	for _, name := range []string{"relu", "relu6", "swish", "sigmoid", "tanh"} {
		act, err := ParseActType(name)
		if err != nil {
			t.Errorf("ParseActType(%q) failed: %v", name, err)
		}
		if string(act) != name {
			t.Errorf("ParseActType(%q) = %q", name, act)
		}
	}

	if _, err := ParseActType("gelu"); err == nil {
		t.Error("unknown activation accepted")
	}
}

// TestActivationReLU6 tests clamping at both ends.
func TestActivationReLU6(t *testing.T) {
	backend := cpu.New()
	act := NewActivation[*cpu.CPUBackend](ActReLU6)

	x := testInput(t, backend, tensor.Shape{5}, []float32{-2, 0, 3, 6, 9})
	out := act.Forward(x)

	expected := []float32{0, 0, 3, 6, 6}
	outData := out.Data()
	for i, exp := range expected {
		if outData[i] != exp {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, exp, outData[i])
		}
	}
}

// TestActivationSwish tests x * sigmoid(x) values.
func TestActivationSwish(t *testing.T) {
	backend := cpu.New()
	act := NewActivation[*cpu.CPUBackend](ActSwish)

	x := testInput(t, backend, tensor.Shape{3}, []float32{-1, 0, 1})
	out := act.Forward(x)

	sig1 := 1 / (1 + math.Exp(-1))
	expected := []float64{-(1 - sig1), 0, sig1}
	outData := out.Data()
	for i, exp := range expected {
		if math.Abs(float64(outData[i])-exp) > 1e-5 {
			t.Errorf("Output[%d]: expected %f, got %f", i, exp, outData[i])
		}
	}
}

// TestActivationReLU tests negative clamping.
func TestActivationReLU(t *testing.T) {
	backend := cpu.New()
	act := NewActivation[*cpu.CPUBackend](ActReLU)

	x := testInput(t, backend, tensor.Shape{3}, []float32{-1, 0, 2})
	out := act.Forward(x)

	expected := []float32{0, 0, 2}
	outData := out.Data()
	for i, exp := range expected {
		if outData[i] != exp {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, exp, outData[i])
		}
	}
}

// TestActivationNoParameters tests that activations are parameter-free.
func TestActivationNoParameters(t *testing.T) {
	act := NewActivation[*cpu.CPUBackend](ActSigmoid)
	if params := act.Parameters(); len(params) != 0 {
		t.Errorf("Parameters: expected none, got %d", len(params))
	}
}

// TestNewActivation_Unknown tests that an unparsed name panics.
func TestNewActivation_Unknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown activation")
		}
	}()
	NewActivation[*cpu.CPUBackend]("mish")
}
