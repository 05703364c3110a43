package detect

import (
	"fmt"
	"math"
)

// Box is an axis-aligned box in image coordinates.
type Box struct {
	Y1, X1, Y2, X2 float32
}

// Width returns the box width.
func (b Box) Width() float32 { return b.X2 - b.X1 }

// Height returns the box height.
func (b Box) Height() float32 { return b.Y2 - b.Y1 }

// Area returns the box area, zero for degenerate boxes.
func (b Box) Area() float32 {
	w, h := b.Width(), b.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IoU returns the intersection-over-union of two boxes.
func IoU(a, b Box) float32 {
	y1 := max(a.Y1, b.Y1)
	x1 := max(a.X1, b.X1)
	y2 := min(a.Y2, b.Y2)
	x2 := min(a.X2, b.X2)

	inter := Box{y1, x1, y2, x2}.Area()
	if inter == 0 {
		return 0
	}
	return inter / (a.Area() + b.Area() - inter)
}

// AnchorConfig describes the multiscale anchor grid.
type AnchorConfig struct {
	MinLevel int
	MaxLevel int
	// NumScales anchors per aspect ratio, spaced in octave fractions.
	NumScales int
	// AspectRatios are width/height ratios.
	AspectRatios []float64
	// AnchorScale multiplies the level stride to get the base anchor size.
	AnchorScale float64
	// ImageSize is the square input resolution.
	ImageSize int
}

// DefaultAnchorConfig returns the standard detection anchor grid.
func DefaultAnchorConfig(minLevel, maxLevel, imageSize int) AnchorConfig {
	return AnchorConfig{
		MinLevel:     minLevel,
		MaxLevel:     maxLevel,
		NumScales:    3,
		AspectRatios: []float64{1.0, 2.0, 0.5},
		AnchorScale:  4.0,
		ImageSize:    imageSize,
	}
}

// NumPerCell returns the number of anchors at each feature-map cell.
func (c AnchorConfig) NumPerCell() int {
	return c.NumScales * len(c.AspectRatios)
}

// Anchors holds the generated anchor boxes, one slice per pyramid level.
// Within a level the boxes are ordered cell-major (row by row), with the
// per-cell anchors ordered scale-major then aspect, matching the channel
// layout of the prediction heads.
type Anchors struct {
	cfg      AnchorConfig
	perLevel [][]Box
}

// GenerateAnchors builds the anchor grid for every pyramid level.
func GenerateAnchors(cfg AnchorConfig) (*Anchors, error) {
	if cfg.NumScales <= 0 {
		return nil, fmt.Errorf("detect: num scales must be positive, got %d", cfg.NumScales)
	}
	if len(cfg.AspectRatios) == 0 {
		return nil, fmt.Errorf("detect: at least one aspect ratio required")
	}
	if cfg.ImageSize <= 0 {
		return nil, fmt.Errorf("detect: image size must be positive, got %d", cfg.ImageSize)
	}

	a := &Anchors{cfg: cfg}
	for level := cfg.MinLevel; level <= cfg.MaxLevel; level++ {
		stride := 1 << level
		if cfg.ImageSize%stride != 0 {
			return nil, fmt.Errorf("detect: image size %d not divisible by stride %d at level %d",
				cfg.ImageSize, stride, level)
		}
		feat := cfg.ImageSize / stride

		boxes := make([]Box, 0, feat*feat*cfg.NumPerCell())
		for y := 0; y < feat; y++ {
			cy := (float64(y) + 0.5) * float64(stride)
			for x := 0; x < feat; x++ {
				cx := (float64(x) + 0.5) * float64(stride)
				for scale := 0; scale < cfg.NumScales; scale++ {
					octave := math.Pow(2, float64(scale)/float64(cfg.NumScales))
					base := cfg.AnchorScale * float64(stride) * octave
					for _, aspect := range cfg.AspectRatios {
						w := base * math.Sqrt(aspect)
						h := base / math.Sqrt(aspect)
						boxes = append(boxes, Box{
							Y1: float32(cy - h/2),
							X1: float32(cx - w/2),
							Y2: float32(cy + h/2),
							X2: float32(cx + w/2),
						})
					}
				}
			}
		}
		a.perLevel = append(a.perLevel, boxes)
	}
	return a, nil
}

// Level returns the anchor boxes of a level by index (0 = min level).
func (a *Anchors) Level(i int) []Box {
	return a.perLevel[i]
}

// NumLevels returns the number of pyramid levels.
func (a *Anchors) NumLevels() int {
	return len(a.perLevel)
}

// Config returns the anchor configuration.
func (a *Anchors) Config() AnchorConfig {
	return a.cfg
}

// DecodeBox applies regression deltas [dy, dx, dh, dw] to an anchor.
func DecodeBox(anchor Box, dy, dx, dh, dw float32) Box {
	ah := anchor.Height()
	aw := anchor.Width()
	acy := anchor.Y1 + ah/2
	acx := anchor.X1 + aw/2

	cy := float64(dy)*float64(ah) + float64(acy)
	cx := float64(dx)*float64(aw) + float64(acx)
	h := math.Exp(float64(dh)) * float64(ah)
	w := math.Exp(float64(dw)) * float64(aw)

	return Box{
		Y1: float32(cy - h/2),
		X1: float32(cx - w/2),
		Y2: float32(cy + h/2),
		X2: float32(cx + w/2),
	}
}
