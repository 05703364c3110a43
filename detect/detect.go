// Copyright 2025 The FPNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package detect provides the public API for detection post-processing:
// anchors, box decoding, and non-maximum suppression.
package detect

import (
	"github.com/fpnet-ml/fpnet/internal/detect"
)

// Detection is one final detection in image coordinates.
type Detection = detect.Detection

// Box is an axis-aligned box in image coordinates.
type Box = detect.Box

// IoU returns the intersection-over-union of two boxes.
func IoU(a, b Box) float32 {
	return detect.IoU(a, b)
}

// AnchorConfig describes the multiscale anchor grid.
type AnchorConfig = detect.AnchorConfig

// DefaultAnchorConfig returns the standard detection anchor grid.
func DefaultAnchorConfig(minLevel, maxLevel, imageSize int) AnchorConfig {
	return detect.DefaultAnchorConfig(minLevel, maxLevel, imageSize)
}

// Anchors holds the generated anchor boxes per pyramid level.
type Anchors = detect.Anchors

// GenerateAnchors builds the anchor grid for every pyramid level.
func GenerateAnchors(cfg AnchorConfig) (*Anchors, error) {
	return detect.GenerateAnchors(cfg)
}

// DecodeBox applies regression deltas [dy, dx, dh, dw] to an anchor.
func DecodeBox(anchor Box, dy, dx, dh, dw float32) Box {
	return detect.DecodeBox(anchor, dy, dx, dh, dw)
}

// LevelOutput holds one pyramid level's raw head outputs.
type LevelOutput = detect.LevelOutput

// PostProcessConfig controls detection filtering.
type PostProcessConfig = detect.PostProcessConfig

// PostProcess decodes head outputs into final detections.
func PostProcess(levels []LevelOutput, anchors *Anchors, cfg PostProcessConfig) ([]Detection, error) {
	return detect.PostProcess(levels, anchors, cfg)
}

// LoadLabels reads a label file with one class name per line.
func LoadLabels(filename string) ([]string, error) {
	return detect.LoadLabels(filename)
}
