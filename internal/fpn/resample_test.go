package fpn

import (
	"strings"
	"testing"

	"github.com/fpnet-ml/fpnet/internal/backend/cpu"
	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// TestResampleNoOp checks that a feature already at the target size and
// channel count passes through unchanged.
func TestResampleNoOp(t *testing.T) {
	backend := cpu.New()
	r := NewResampleFeatureMap("resample", 4, true, false, PoolingMax, UpsamplingNearest, backend)

	input := tensor.Randn[float32](tensor.Shape{1, 4, 8, 8}, backend)
	output := r.Forward(input, 8, 8)

	if !output.Shape().Equal(input.Shape()) {
		t.Fatalf("no-op resample changed shape: %v -> %v", input.Shape(), output.Shape())
	}
	in, out := input.Data(), output.Data()
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("no-op resample changed data at %d: %v != %v", i, in[i], out[i])
		}
	}
	if len(r.Parameters()) != 0 {
		t.Errorf("no-op resample built projection layers: %d parameters", len(r.Parameters()))
	}
}

// TestResampleDownsample checks pooling halves the spatial size.
func TestResampleDownsample(t *testing.T) {
	for _, poolingType := range []string{PoolingMax, PoolingAvg} {
		backend := cpu.New()
		r := NewResampleFeatureMap("resample", 4, false, false, poolingType, UpsamplingNearest, backend)

		input := tensor.Randn[float32](tensor.Shape{2, 4, 16, 16}, backend)
		output := r.Forward(input, 8, 8)

		want := tensor.Shape{2, 4, 8, 8}
		if !output.Shape().Equal(want) {
			t.Errorf("%s pooling: expected shape %v, got %v", poolingType, want, output.Shape())
		}
	}
}

// TestResampleDownsampleValues checks max pooling picks the window maximum
// on a small deterministic input.
func TestResampleDownsampleValues(t *testing.T) {
	backend := cpu.New()
	r := NewResampleFeatureMap("resample", 1, false, false, PoolingMax, UpsamplingNearest, backend)

	// 4x4 ramp 0..15; stride 2, kernel 3, SAME padding.
	data := make([]float32, 16)
	for i := range data {
		data[i] = float32(i)
	}
	input, err := tensor.FromSlice(data, tensor.Shape{1, 1, 4, 4}, backend)
	if err != nil {
		t.Fatalf("failed to create input: %v", err)
	}

	output := r.Forward(input, 2, 2)
	// Window maxima for the padded 3x3 windows at strides (0,0) (0,2) (2,0) (2,2).
	expected := []float32{10, 11, 14, 15}
	got := output.Data()
	for i, want := range expected {
		if got[i] != want {
			t.Errorf("output[%d] = %v, expected %v", i, got[i], want)
		}
	}
}

// TestResampleUpsample checks both interpolation modes reach the target size.
func TestResampleUpsample(t *testing.T) {
	for _, upsamplingType := range []string{UpsamplingNearest, UpsamplingBilinear} {
		backend := cpu.New()
		r := NewResampleFeatureMap("resample", 4, false, false, PoolingMax, upsamplingType, backend)

		input := tensor.Randn[float32](tensor.Shape{1, 4, 4, 4}, backend)
		output := r.Forward(input, 8, 8)

		want := tensor.Shape{1, 4, 8, 8}
		if !output.Shape().Equal(want) {
			t.Errorf("%s upsampling: expected shape %v, got %v", upsamplingType, want, output.Shape())
		}
	}
}

// TestResampleChannelProjection checks the 1x1 projection fixes channel
// mismatches and is created lazily.
func TestResampleChannelProjection(t *testing.T) {
	backend := cpu.New()
	r := NewResampleFeatureMap("resample", 8, true, false, PoolingMax, UpsamplingNearest, backend)

	input := tensor.Randn[float32](tensor.Shape{1, 3, 8, 8}, backend)
	output := r.Forward(input, 8, 8)

	want := tensor.Shape{1, 8, 8, 8}
	if !output.Shape().Equal(want) {
		t.Fatalf("expected shape %v, got %v", want, output.Shape())
	}
	// conv weight + bias, bn gamma + beta
	if got := len(r.Parameters()); got != 4 {
		t.Errorf("expected 4 projection parameters, got %d", got)
	}
}

// TestResampleIncompatible checks mixed up/down resampling panics.
func TestResampleIncompatible(t *testing.T) {
	backend := cpu.New()
	r := NewResampleFeatureMap("resample", 4, false, false, PoolingMax, UpsamplingNearest, backend)

	input := tensor.Randn[float32](tensor.Shape{1, 4, 16, 4}, backend)

	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatal("expected panic for incompatible resampling")
		}
		if msg, ok := rec.(string); !ok || !strings.Contains(msg, "incompatible resampling") {
			t.Errorf("unexpected panic message: %v", rec)
		}
	}()
	r.Forward(input, 8, 8)
}
