// Package model assembles the full detector: backbone, feature pyramid,
// prediction heads, and post-processing.
package model

import (
	"fmt"

	"github.com/fpnet-ml/fpnet/internal/config"
	"github.com/fpnet-ml/fpnet/internal/detect"
	"github.com/fpnet-ml/fpnet/internal/fpn"
	"github.com/fpnet-ml/fpnet/internal/nn"
	"github.com/fpnet-ml/fpnet/internal/tensor"
	"github.com/fpnet-ml/fpnet/internal/weights"
)

// Detector is the end-to-end object detection model.
type Detector[B tensor.Backend] struct {
	cfg     config.Config
	labels  []string
	anchors *detect.Anchors

	backbone *Backbone[B]
	cells    *fpn.FPNCells[B]
	classNet *fpn.ClassNet[B]
	boxNet   *fpn.BoxNet[B]
}

// New builds a detector from configuration. Invalid settings return an error.
func New[B tensor.Backend](cfg config.Config, backend B) (*Detector[B], error) {
	fpnCfg := fpn.DefaultConfig()
	fpnCfg.MinLevel = cfg.MinLevel
	fpnCfg.MaxLevel = cfg.MaxLevel
	fpnCfg.NumFilters = cfg.NumFilters
	fpnCfg.CellRepeats = cfg.CellRepeats
	fpnCfg.WeightMethod = cfg.WeightMethod
	fpnCfg.ActType = cfg.ActType
	fpnCfg.SeparableConv = cfg.SeparableConv
	if err := fpnCfg.Validate(); err != nil {
		return nil, err
	}

	anchorCfg := detect.DefaultAnchorConfig(cfg.MinLevel, cfg.MaxLevel, cfg.ImageSize)
	anchors, err := detect.GenerateAnchors(anchorCfg)
	if err != nil {
		return nil, err
	}

	cells, err := fpn.NewFPNCells(fpnCfg, backend)
	if err != nil {
		return nil, err
	}

	classNet, err := fpn.NewClassNet(fpn.ClassNetConfig{
		NumClasses:    cfg.NumClasses,
		NumAnchors:    anchorCfg.NumPerCell(),
		NumFilters:    cfg.NumFilters,
		MinLevel:      cfg.MinLevel,
		MaxLevel:      cfg.MaxLevel,
		Repeats:       cfg.HeadRepeats,
		ActType:       cfg.ActType,
		SeparableConv: cfg.SeparableConv,
	}, backend)
	if err != nil {
		return nil, err
	}

	boxNet, err := fpn.NewBoxNet(fpn.BoxNetConfig{
		NumAnchors:    anchorCfg.NumPerCell(),
		NumFilters:    cfg.NumFilters,
		MinLevel:      cfg.MinLevel,
		MaxLevel:      cfg.MaxLevel,
		Repeats:       cfg.HeadRepeats,
		ActType:       cfg.ActType,
		SeparableConv: cfg.SeparableConv,
	}, backend)
	if err != nil {
		return nil, err
	}

	d := &Detector[B]{
		cfg:      cfg,
		anchors:  anchors,
		backbone: NewBackbone(cfg.MinLevel, cfg.MaxLevel, cfg.NumFilters, nn.ActType(cfg.ActType), backend),
		cells:    cells,
		classNet: classNet,
		boxNet:   boxNet,
	}

	if cfg.LabelsPath != "" {
		d.labels, err = detect.LoadLabels(cfg.LabelsPath)
		if err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Config returns the detector configuration.
func (d *Detector[B]) Config() config.Config {
	return d.cfg
}

// Labels returns the class names, which may be empty.
func (d *Detector[B]) Labels() []string {
	return d.labels
}

// SetTraining switches every normalization layer between train and eval.
func (d *Detector[B]) SetTraining(training bool) {
	d.backbone.SetTraining(training)
	d.cells.SetTraining(training)
	d.classNet.SetTraining(training)
	d.boxNet.SetTraining(training)
}

// Forward runs the model on an image batch [N, 3, S, S] and returns the raw
// per-level class logits and box deltas.
func (d *Detector[B]) Forward(image *tensor.Tensor[float32, B]) (classOuts, boxOuts []*tensor.Tensor[float32, B]) {
	feats := d.backbone.Forward(image)
	feats = d.cells.Forward(feats)
	return d.classNet.Forward(feats), d.boxNet.Forward(feats)
}

// Detect runs the model on a single image [1, 3, S, S] and returns the
// filtered detections.
func (d *Detector[B]) Detect(image *tensor.Tensor[float32, B]) ([]detect.Detection, error) {
	if image.Shape()[0] != 1 {
		return nil, fmt.Errorf("model: detect expects batch size 1, got %d", image.Shape()[0])
	}

	classOuts, boxOuts := d.Forward(image)

	levels := make([]detect.LevelOutput, len(classOuts))
	for i := range classOuts {
		shape := classOuts[i].Shape()
		levels[i] = detect.LevelOutput{
			ClassLogits: classOuts[i].Data(),
			BoxDeltas:   boxOuts[i].Data(),
			Height:      shape[2],
			Width:       shape[3],
		}
	}

	return detect.PostProcess(levels, d.anchors, detect.PostProcessConfig{
		NumClasses:    d.cfg.NumClasses,
		ScoreThresh:   d.cfg.ScoreThresh,
		IoUThresh:     d.cfg.IoUThresh,
		MaxDetections: d.cfg.MaxDetections,
		Labels:        d.labels,
	})
}

// Parameters returns every trainable parameter of the model.
func (d *Detector[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	params = append(params, d.backbone.Parameters()...)
	params = append(params, d.cells.Parameters()...)
	params = append(params, d.classNet.Parameters()...)
	params = append(params, d.boxNet.Parameters()...)
	return params
}

// SaveWeights writes the model parameters as a SafeTensors file.
func (d *Detector[B]) SaveWeights(path string) error {
	stateDict := make(map[string]*tensor.RawTensor)
	for _, p := range d.Parameters() {
		stateDict[p.Name()] = p.Tensor().Raw()
	}
	return weights.Save(path, stateDict, map[string]string{"format": "fpnet"})
}

// LoadWeights restores model parameters from a SafeTensors file. Every
// parameter present in both the file and the model must be float32 and
// match in shape; parameters missing from the file are left at their
// initialization. Lazily created parameters (resample channel
// projections) are restored only if they already exist; run a forward
// pass to materialize them before loading a checkpoint that has them.
func (d *Detector[B]) LoadWeights(path string) error {
	stateDict, _, err := weights.Load(path)
	if err != nil {
		return err
	}

	for _, p := range d.Parameters() {
		raw, ok := stateDict[p.Name()]
		if !ok {
			continue
		}
		dst := p.Tensor()
		if raw.DType() != tensor.Float32 {
			return fmt.Errorf("model: parameter %s has dtype %s in file, expected %s",
				p.Name(), raw.DType(), tensor.Float32)
		}
		if !raw.Shape().Equal(dst.Shape()) {
			return fmt.Errorf("model: parameter %s has shape %v in file, expected %v",
				p.Name(), raw.Shape(), dst.Shape())
		}
		copy(dst.Data(), raw.AsFloat32())
	}
	return nil
}
