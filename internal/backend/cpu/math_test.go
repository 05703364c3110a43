package cpu

import (
	"math"
	"testing"

	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// TestReLU tests negative clamping.
func TestReLU(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, tensor.Shape{5}, []float32{-2, -0.5, 0, 0.5, 2})
	out := backend.ReLU(x)

	expected := []float32{0, 0, 0, 0.5, 2}
	outData := out.AsFloat32()
	for i, exp := range expected {
		if outData[i] != exp {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, exp, outData[i])
		}
	}
}

// TestSigmoid tests known sigmoid values.
func TestSigmoid(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, tensor.Shape{3}, []float32{0, 100, -100})
	out := backend.Sigmoid(x)

	expected := []float32{0.5, 1, 0}
	outData := out.AsFloat32()
	for i, exp := range expected {
		if math.Abs(float64(outData[i]-exp)) > 1e-5 {
			t.Errorf("Output[%d]: expected %.2f, got %f", i, exp, outData[i])
		}
	}
}

// TestTanh tests known tanh values.
func TestTanh(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, tensor.Shape{3}, []float32{0, 1, -1})
	out := backend.Tanh(x)

	want := float32(math.Tanh(1))
	outData := out.AsFloat32()
	if outData[0] != 0 {
		t.Errorf("tanh(0) = %f, expected 0", outData[0])
	}
	if math.Abs(float64(outData[1]-want)) > 1e-6 {
		t.Errorf("tanh(1) = %f, expected %f", outData[1], want)
	}
	if math.Abs(float64(outData[2]+want)) > 1e-6 {
		t.Errorf("tanh(-1) = %f, expected %f", outData[2], -want)
	}
}

// TestExpSqrt tests exp and sqrt values.
func TestExpSqrt(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, tensor.Shape{2}, []float32{0, 1})
	exp := backend.Exp(x)
	expData := exp.AsFloat32()
	if expData[0] != 1 {
		t.Errorf("exp(0) = %f, expected 1", expData[0])
	}
	if math.Abs(float64(expData[1])-math.E) > 1e-5 {
		t.Errorf("exp(1) = %f, expected e", expData[1])
	}

	y := rawFromFloat32(t, tensor.Shape{3}, []float32{4, 9, 16})
	sqrt := backend.Sqrt(y)
	expected := []float32{2, 3, 4}
	sqrtData := sqrt.AsFloat32()
	for i, want := range expected {
		if sqrtData[i] != want {
			t.Errorf("sqrt Output[%d]: expected %.1f, got %f", i, want, sqrtData[i])
		}
	}
}

// TestRsqrt tests the reciprocal square root.
func TestRsqrt(t *testing.T) {
	backend := New()

	x := rawFromFloat32(t, tensor.Shape{2}, []float32{4, 16})
	out := backend.Rsqrt(x)

	expected := []float32{0.5, 0.25}
	outData := out.AsFloat32()
	for i, exp := range expected {
		if math.Abs(float64(outData[i]-exp)) > 1e-6 {
			t.Errorf("Output[%d]: expected %.2f, got %f", i, exp, outData[i])
		}
	}
}
