package detect

import (
	"fmt"
	"image"
	"math"
	"sort"
)

// Detection is one final detection in image coordinates.
type Detection struct {
	Box       image.Rectangle `json:"box"`
	Score     float32         `json:"score"`
	ClassID   int             `json:"class_id"`
	ClassName string          `json:"class_name"`
}

// LevelOutput holds one pyramid level's raw head outputs for a single image,
// flattened in channel-major [C, H, W] order. ClassLogits has
// numPerCell*numClasses channels (anchor-major), BoxDeltas has numPerCell*4
// channels ordered [dy, dx, dh, dw] per anchor.
type LevelOutput struct {
	ClassLogits []float32
	BoxDeltas   []float32
	Height      int
	Width       int
}

// PostProcessConfig controls detection filtering.
type PostProcessConfig struct {
	NumClasses    int
	ScoreThresh   float32
	IoUThresh     float32
	MaxDetections int
	Labels        []string
}

// candidate is a scored box before suppression.
type candidate struct {
	box     Box
	score   float32
	classID int
}

// PostProcess decodes head outputs into final detections: per-anchor argmax
// class with sigmoid score, score thresholding, box decoding against the
// anchors, and greedy non-maximum suppression across all levels.
func PostProcess(levels []LevelOutput, anchors *Anchors, cfg PostProcessConfig) ([]Detection, error) {
	if len(levels) != anchors.NumLevels() {
		return nil, fmt.Errorf("detect: %d level outputs for %d anchor levels", len(levels), anchors.NumLevels())
	}
	if cfg.NumClasses <= 0 {
		return nil, fmt.Errorf("detect: num classes must be positive, got %d", cfg.NumClasses)
	}

	numPerCell := anchors.Config().NumPerCell()
	var candidates []candidate

	for li, level := range levels {
		boxes := anchors.Level(li)
		h, w := level.Height, level.Width
		cells := h * w
		if len(boxes) != cells*numPerCell {
			return nil, fmt.Errorf("detect: level %d has %d anchors, expected %d", li, len(boxes), cells*numPerCell)
		}
		if len(level.ClassLogits) != numPerCell*cfg.NumClasses*cells {
			return nil, fmt.Errorf("detect: level %d class output size %d, expected %d",
				li, len(level.ClassLogits), numPerCell*cfg.NumClasses*cells)
		}
		if len(level.BoxDeltas) != numPerCell*4*cells {
			return nil, fmt.Errorf("detect: level %d box output size %d, expected %d",
				li, len(level.BoxDeltas), numPerCell*4*cells)
		}

		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				cell := y*w + x
				for a := 0; a < numPerCell; a++ {
					// Channel c of a [C,H,W] tensor lives at c*cells + cell.
					bestClass, bestLogit := 0, float32(math.Inf(-1))
					for k := 0; k < cfg.NumClasses; k++ {
						c := a*cfg.NumClasses + k
						logit := level.ClassLogits[c*cells+cell]
						if logit > bestLogit {
							bestLogit = logit
							bestClass = k
						}
					}
					score := sigmoid(bestLogit)
					if score < cfg.ScoreThresh {
						continue
					}

					dy := level.BoxDeltas[(a*4+0)*cells+cell]
					dx := level.BoxDeltas[(a*4+1)*cells+cell]
					dh := level.BoxDeltas[(a*4+2)*cells+cell]
					dw := level.BoxDeltas[(a*4+3)*cells+cell]
					decoded := DecodeBox(boxes[cell*numPerCell+a], dy, dx, dh, dw)

					candidates = append(candidates, candidate{
						box:     clipBox(decoded, anchors.Config().ImageSize),
						score:   score,
						classID: bestClass,
					})
				}
			}
		}
	}

	kept := nms(candidates, cfg.IoUThresh, cfg.MaxDetections)

	detections := make([]Detection, 0, len(kept))
	for _, c := range kept {
		detections = append(detections, Detection{
			Box:       image.Rect(int(c.box.X1), int(c.box.Y1), int(c.box.X2), int(c.box.Y2)),
			Score:     c.score,
			ClassID:   c.classID,
			ClassName: Label(cfg.Labels, c.classID),
		})
	}
	return detections, nil
}

// nms keeps the highest-scoring boxes, greedily suppressing any box whose
// overlap with an already-kept box exceeds the threshold.
func nms(candidates []candidate, iouThresh float32, maxDetections int) []candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	var kept []candidate
	for _, c := range candidates {
		if maxDetections > 0 && len(kept) >= maxDetections {
			break
		}
		suppressed := false
		for _, k := range kept {
			if IoU(c.box, k.box) > iouThresh {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, c)
		}
	}
	return kept
}

func clipBox(b Box, imageSize int) Box {
	size := float32(imageSize)
	return Box{
		Y1: min(max(b.Y1, 0), size),
		X1: min(max(b.X1, 0), size),
		Y2: min(max(b.Y2, 0), size),
		X2: min(max(b.X2, 0), size),
	}
}

func sigmoid(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}
