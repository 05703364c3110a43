package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fpnet-ml/fpnet/internal/backend/cpu"
	"github.com/fpnet-ml/fpnet/internal/config"
	"github.com/fpnet-ml/fpnet/internal/model"
)

var (
	detectImage  string
	detectConfig string
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Run the detector on an image file and print JSON detections",
	RunE:  runDetect,
}

func init() {
	detectCmd.Flags().StringVarP(&detectImage, "image", "i", "", "path to a JPEG or PNG image")
	detectCmd.Flags().StringVarP(&detectConfig, "config", "c", "", "path to a TOML config file")
	_ = detectCmd.MarkFlagRequired("image")
	rootCmd.AddCommand(detectCmd)
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func runDetect(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(detectConfig)
	if err != nil {
		return err
	}

	backend := cpu.New()
	det, err := model.New(cfg, backend)
	if err != nil {
		return err
	}
	if cfg.WeightsPath != "" {
		if err := det.LoadWeights(cfg.WeightsPath); err != nil {
			return err
		}
	}

	f, err := os.Open(detectImage)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, err := model.DecodeImage(f)
	if err != nil {
		return err
	}
	input, err := model.PreprocessImage(img, cfg.ImageSize, backend)
	if err != nil {
		return err
	}

	detections, err := det.Detect(input)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(detections, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(out))
	return nil
}
