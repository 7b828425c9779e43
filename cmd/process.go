package cmd

import (
	"github.com/spf13/cobra"

	"sellsort/internal/config"
	"sellsort/internal/pipeline"
)

func newProcessCmd() *cobra.Command {
	var inputFolder string
	var outputFolder string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Classify and organize the images in the input folder",
		Long: `Runs the full pipeline: every supported image in the input folder is
classified with Gemini, grouped by item, checked against the persistent
item catalog for cross-run duplicates, and organized into per-item
folders with listing files. Already-processed images are skipped, so the
command is safe to rerun.`,
		Example: `  # Process images_to_process/ into output/
  sellsort process

  # Custom folders
  sellsort process --input photos --output listings`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if inputFolder != "" {
				cfg.InputFolder = inputFolder
			}
			if outputFolder != "" {
				cfg.OutputFolder = outputFolder
			}
			return pipeline.NewRunner(cfg).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&inputFolder, "input", "i", "", "Input folder containing images (default: images_to_process/)")
	cmd.Flags().StringVarP(&outputFolder, "output", "o", "", "Output folder for organized items (default: output/)")

	return cmd
}
