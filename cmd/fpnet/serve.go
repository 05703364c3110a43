package main

import (
	"github.com/spf13/cobra"

	"github.com/fpnet-ml/fpnet/internal/backend/cpu"
	"github.com/fpnet-ml/fpnet/internal/model"
	"github.com/fpnet-ml/fpnet/internal/server"
)

var (
	serveAddr   string
	serveConfig string
	serveStatic string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the detector over HTTP",
	Long: `Starts an HTTP server exposing the detector:

  POST /api/detect  multipart image upload, returns JSON detections
  GET  /api/labels  returns the class names

A static UI directory can be mounted at the root path with --static.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":8080", "listen address")
	serveCmd.Flags().StringVarP(&serveConfig, "config", "c", "", "path to a TOML config file")
	serveCmd.Flags().StringVar(&serveStatic, "static", "", "static UI directory")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(serveConfig)
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

	cmd.Printf("listening on %s\n", serveAddr)
	return server.New(det, backend, serveStatic).Run(serveAddr)
}
