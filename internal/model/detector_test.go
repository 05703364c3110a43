package model

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fpnet-ml/fpnet/internal/backend/cpu"
	"github.com/fpnet-ml/fpnet/internal/config"
	"github.com/fpnet-ml/fpnet/internal/tensor"
	"github.com/fpnet-ml/fpnet/internal/weights"
)

func testDetectorConfig() config.Config {
	cfg := config.Default()
	cfg.MinLevel = 3
	cfg.MaxLevel = 5
	cfg.NumFilters = 4
	cfg.CellRepeats = 1
	cfg.HeadRepeats = 1
	cfg.NumClasses = 4
	cfg.ImageSize = 64
	return cfg
}

// TestBackboneLevels checks the backbone emits one feature per level at the
// expected resolutions.
func TestBackboneLevels(t *testing.T) {
	backend := cpu.New()
	bb := NewBackbone(3, 5, 4, "swish", backend)

	image := tensor.Randn[float32](tensor.Shape{1, 3, 64, 64}, backend)
	feats := bb.Forward(image)

	if len(feats) != 3 {
		t.Fatalf("expected 3 features, got %d", len(feats))
	}
	for i, want := range []tensor.Shape{{1, 4, 8, 8}, {1, 4, 4, 4}, {1, 4, 2, 2}} {
		if !feats[i].Shape().Equal(want) {
			t.Errorf("level %d: shape %v, expected %v", i, feats[i].Shape(), want)
		}
	}
}

// TestDetectorForwardShapes checks the head output shapes per level.
func TestDetectorForwardShapes(t *testing.T) {
	backend := cpu.New()
	det, err := New(testDetectorConfig(), backend)
	if err != nil {
		t.Fatalf("failed to create detector: %v", err)
	}

	image := tensor.Randn[float32](tensor.Shape{1, 3, 64, 64}, backend)
	classOuts, boxOuts := det.Forward(image)

	if len(classOuts) != 3 || len(boxOuts) != 3 {
		t.Fatalf("expected 3 levels, got %d class and %d box", len(classOuts), len(boxOuts))
	}
	// 9 anchors per cell: 4 classes -> 36 class channels, 36 box channels.
	for i := range classOuts {
		if classOuts[i].Shape()[1] != 36 {
			t.Errorf("level %d: class channels %d, expected 36", i, classOuts[i].Shape()[1])
		}
		if boxOuts[i].Shape()[1] != 36 {
			t.Errorf("level %d: box channels %d, expected 36", i, boxOuts[i].Shape()[1])
		}
	}
}

// TestDetectorDetect runs the end-to-end pipeline on a random image.
func TestDetectorDetect(t *testing.T) {
	backend := cpu.New()
	cfg := testDetectorConfig()
	cfg.ScoreThresh = 0 // keep everything; untrained scores sit near the prior
	cfg.MaxDetections = 5
	det, err := New(cfg, backend)
	if err != nil {
		t.Fatalf("failed to create detector: %v", err)
	}

	image := tensor.Randn[float32](tensor.Shape{1, 3, 64, 64}, backend)
	detections, err := det.Detect(image)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}

	if len(detections) == 0 || len(detections) > 5 {
		t.Fatalf("expected 1..5 detections, got %d", len(detections))
	}
	for _, d := range detections {
		if d.Score < 0 || d.Score > 1 {
			t.Errorf("score %v out of range", d.Score)
		}
		if d.ClassID < 0 || d.ClassID >= cfg.NumClasses {
			t.Errorf("class id %d out of range", d.ClassID)
		}
	}
}

// TestDetectorInvalidConfig checks configuration validation happens at
// construction.
func TestDetectorInvalidConfig(t *testing.T) {
	cfg := testDetectorConfig()
	cfg.WeightMethod = "bogus"
	if _, err := New(cfg, cpu.New()); err == nil {
		t.Fatal("expected error for invalid weight method")
	}
}

// TestDetectorWeightsRoundTrip saves and restores the parameters.
func TestDetectorWeightsRoundTrip(t *testing.T) {
	backend := cpu.New()
	cfg := testDetectorConfig()
	det, err := New(cfg, backend)
	if err != nil {
		t.Fatalf("failed to create detector: %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.safetensors")
	if err := det.SaveWeights(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	other, err := New(cfg, backend)
	if err != nil {
		t.Fatalf("failed to create second detector: %v", err)
	}
	if err := other.LoadWeights(path); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	a, b := det.Parameters(), other.Parameters()
	if len(a) != len(b) {
		t.Fatalf("parameter count mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		ad, bd := a[i].Tensor().Data(), b[i].Tensor().Data()
		for j := range ad {
			if ad[j] != bd[j] {
				t.Fatalf("parameter %s differs after load", a[i].Name())
			}
		}
	}
}

// TestDetectorLoadWeightsDtypeMismatch checks that a weights file storing
// a parameter with the wrong dtype is rejected with an error.
func TestDetectorLoadWeightsDtypeMismatch(t *testing.T) {
	backend := cpu.New()
	det, err := New(testDetectorConfig(), backend)
	if err != nil {
		t.Fatalf("failed to create detector: %v", err)
	}

	param := det.Parameters()[0]
	raw, err := tensor.NewRaw(param.Tensor().Shape(), tensor.Float64, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "f64.safetensors")
	if err := weights.Save(path, map[string]*tensor.RawTensor{param.Name(): raw}, nil); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	err = det.LoadWeights(path)
	if err == nil {
		t.Fatal("expected error for float64 parameter")
	}
	if !strings.Contains(err.Error(), "dtype") {
		t.Fatalf("error %q does not mention the dtype", err)
	}
}

// TestPreprocessImage checks normalization and output shape.
func TestPreprocessImage(t *testing.T) {
	backend := cpu.New()

	// Uniform mid-gray image normalizes to ~0.
	src := image.NewRGBA(image.Rect(0, 0, 10, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 10; x++ {
			src.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}

	input, err := PreprocessImage(src, 16, backend)
	if err != nil {
		t.Fatalf("preprocess failed: %v", err)
	}

	if !input.Shape().Equal(tensor.Shape{1, 3, 16, 16}) {
		t.Fatalf("shape %v, expected [1 3 16 16]", input.Shape())
	}
	for _, v := range input.Data() {
		if math.Abs(float64(v)) > 0.01 {
			t.Fatalf("mid-gray pixel normalized to %v, expected ~0", v)
		}
	}
}

// TestDecodeImage checks PNG decoding.
func TestDecodeImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	img, err := DecodeImage(&buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("unexpected bounds: %v", img.Bounds())
	}
}
