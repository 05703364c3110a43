// Package main provides the fpnet detection toolkit CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

const version = "v0.1.0-dev"

var rootCmd = &cobra.Command{
	Use:   "fpnet",
	Short: "Feature-pyramid object detection toolkit",
	Long: `fpnet builds and serves bidirectional feature-pyramid detection
models: run inference on images, serve detections over HTTP, and generate
documentation indexes.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
