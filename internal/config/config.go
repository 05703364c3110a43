// Package config loads and saves detector configuration in TOML.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the on-disk detector configuration.
type Config struct {
	// Model settings.
	MinLevel      int    `toml:"min_level"`
	MaxLevel      int    `toml:"max_level"`
	NumFilters    int    `toml:"num_filters"`
	CellRepeats   int    `toml:"cell_repeats"`
	HeadRepeats   int    `toml:"head_repeats"`
	WeightMethod  string `toml:"weight_method"`
	ActType       string `toml:"act_type"`
	SeparableConv bool   `toml:"separable_conv"`

	// Detection settings.
	NumClasses    int     `toml:"num_classes"`
	ImageSize     int     `toml:"image_size"`
	ScoreThresh   float32 `toml:"score_thresh"`
	IoUThresh     float32 `toml:"iou_thresh"`
	MaxDetections int     `toml:"max_detections"`

	// Paths.
	LabelsPath  string `toml:"labels_path"`
	WeightsPath string `toml:"weights_path"`
}

// Default returns the standard detector configuration.
func Default() Config {
	return Config{
		MinLevel:      3,
		MaxLevel:      7,
		NumFilters:    64,
		CellRepeats:   3,
		HeadRepeats:   3,
		WeightMethod:  "fastattn",
		ActType:       "swish",
		SeparableConv: true,
		NumClasses:    90,
		ImageSize:     512,
		ScoreThresh:   0.4,
		IoUThresh:     0.5,
		MaxDetections: 100,
	}
}

// Load reads a TOML configuration file, applying defaults for missing keys.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as TOML.
func (c Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: failed to marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	return nil
}
