package main

import (
	"github.com/spf13/cobra"

	"github.com/fpnet-ml/fpnet/internal/docindex"
)

var docindexCmd = &cobra.Command{
	Use:   "docindex",
	Short: "Print the example notebook index as reStructuredText",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Print(docindex.ImageProcessing.Render())
	},
}

func init() {
	rootCmd.AddCommand(docindexCmd)
}
