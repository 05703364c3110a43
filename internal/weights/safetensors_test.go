package weights

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// TestSaveLoadRoundTrip writes a small state dict and reads it back.
func TestSaveLoadRoundTrip(t *testing.T) {
	weight, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	wData := weight.AsFloat32()
	for i := range wData {
		wData[i] = float32(i) * 0.5
	}

	bias, err := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(bias.AsFloat32(), []float32{1, 2, 3})

	path := filepath.Join(t.TempDir(), "model.safetensors")
	stateDict := map[string]*tensor.RawTensor{
		"conv.weight": weight,
		"conv.bias":   bias,
	}
	if err := Save(path, stateDict, map[string]string{"format": "pt"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, metadata, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if metadata["format"] != "pt" {
		t.Errorf("metadata lost: %v", metadata)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 tensors, got %d", len(loaded))
	}

	got := loaded["conv.weight"]
	if got == nil {
		t.Fatal("conv.weight missing")
	}
	if !got.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("shape %v, expected [2 3]", got.Shape())
	}
	for i, v := range got.AsFloat32() {
		if v != float32(i)*0.5 {
			t.Errorf("conv.weight[%d] = %v, expected %v", i, v, float32(i)*0.5)
		}
	}
	for i, v := range loaded["conv.bias"].AsFloat32() {
		if v != float32(i+1) {
			t.Errorf("conv.bias[%d] = %v, expected %v", i, v, float32(i+1))
		}
	}
}

// TestLoadRejectsCorruptHeader checks a bogus header size fails cleanly.
func TestLoadRejectsCorruptHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.safetensors")
	if err := os.WriteFile(path, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(path); err == nil {
		t.Fatal("expected error for corrupt header size")
	}
}

// TestSaveUnwritablePath checks write failures surface as errors instead
// of leaving a silently truncated file behind.
func TestSaveUnwritablePath(t *testing.T) {
	weight, err := tensor.NewRaw(tensor.Shape{2}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}

	// The target path is an existing directory.
	if err := Save(t.TempDir(), map[string]*tensor.RawTensor{"w": weight}, nil); err == nil {
		t.Fatal("expected error for directory path")
	}
}

// TestLoadMissingFile checks a helpful error for missing paths.
func TestLoadMissingFile(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "nope.safetensors")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
