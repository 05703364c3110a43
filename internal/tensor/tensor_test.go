package tensor_test

import (
	"testing"

	"github.com/fpnet-ml/fpnet/internal/backend/cpu"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// TestFromSlice tests construction from a Go slice.
func TestFromSlice(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	if !x.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("shape %v, expected [2 3]", x.Shape())
	}
	if x.DType() != tensor.Float32 {
		t.Errorf("dtype %v, expected Float32", x.DType())
	}
	if x.At(1, 2) != 6 {
		t.Errorf("At(1,2) = %f, expected 6", x.At(1, 2))
	}
}

// TestFromSlice_SizeMismatch tests the length check.
func TestFromSlice_SizeMismatch(t *testing.T) {
	backend := cpu.New()

	if _, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{2, 2}, backend); err == nil {
		t.Error("mismatched data length accepted")
	}
}

// TestAtSet tests multi-dimensional element access.
func TestAtSet(t *testing.T) {
	backend := cpu.New()

	x := tensor.Zeros[float32](tensor.Shape{2, 2}, backend)
	x.Set(5, 1, 0)

	if x.At(1, 0) != 5 {
		t.Errorf("At(1,0) = %f, expected 5", x.At(1, 0))
	}
	if x.At(0, 1) != 0 {
		t.Errorf("At(0,1) = %f, expected 0", x.At(0, 1))
	}
}

// TestCreationValues tests Zeros, Ones, Full, and Arange contents.
func TestCreationValues(t *testing.T) {
	backend := cpu.New()

	ones := tensor.Ones[float32](tensor.Shape{3}, backend)
	for i, v := range ones.Data() {
		if v != 1 {
			t.Errorf("Ones[%d] = %f", i, v)
		}
	}

	full := tensor.Full(tensor.Shape{2}, float32(7), backend)
	for i, v := range full.Data() {
		if v != 7 {
			t.Errorf("Full[%d] = %f", i, v)
		}
	}

	ar := tensor.Arange[float32](4, backend)
	for i, v := range ar.Data() {
		if v != float32(i) {
			t.Errorf("Arange[%d] = %f", i, v)
		}
	}
}

// TestItem tests scalar extraction.
func TestItem(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{42}, tensor.Shape{1}, backend)
	if err != nil {
		t.Fatal(err)
	}
	if x.Item() != 42 {
		t.Errorf("Item = %f, expected 42", x.Item())
	}
}

// TestOpMethods tests the fluent operation wrappers.
func TestOpMethods(t *testing.T) {
	backend := cpu.New()

	a, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	b, _ := tensor.FromSlice([]float32{10, 20, 30, 40}, tensor.Shape{2, 2}, backend)

	sum := a.Add(b)
	expected := []float32{11, 22, 33, 44}
	for i, exp := range expected {
		if sum.Data()[i] != exp {
			t.Errorf("Add[%d]: expected %.1f, got %.1f", i, exp, sum.Data()[i])
		}
	}

	scaled := a.MulScalar(2)
	expected = []float32{2, 4, 6, 8}
	for i, exp := range expected {
		if scaled.Data()[i] != exp {
			t.Errorf("MulScalar[%d]: expected %.1f, got %.1f", i, exp, scaled.Data()[i])
		}
	}

	reshaped := a.Reshape(4)
	if !reshaped.Shape().Equal(tensor.Shape{4}) {
		t.Errorf("Reshape shape %v, expected [4]", reshaped.Shape())
	}

	prod := a.MatMul(b)
	// [1 2; 3 4] @ [10 20; 30 40] = [70 100; 150 220]
	expected = []float32{70, 100, 150, 220}
	for i, exp := range expected {
		if prod.Data()[i] != exp {
			t.Errorf("MatMul[%d]: expected %.1f, got %.1f", i, exp, prod.Data()[i])
		}
	}
}

// TestCat tests tensor concatenation.
func TestCat(t *testing.T) {
	backend := cpu.New()

	a, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{1, 2}, backend)
	b, _ := tensor.FromSlice([]float32{3, 4}, tensor.Shape{1, 2}, backend)

	out := tensor.Cat([]*tensor.Tensor[float32, *cpu.CPUBackend]{a, b}, 0)

	if !out.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("Cat shape %v, expected [2 2]", out.Shape())
	}
	expected := []float32{1, 2, 3, 4}
	for i, exp := range expected {
		if out.Data()[i] != exp {
			t.Errorf("Cat[%d]: expected %.1f, got %.1f", i, exp, out.Data()[i])
		}
	}
}
