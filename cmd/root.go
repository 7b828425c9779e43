package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sellsort",
		Short: "Turn a folder of photos into organized marketplace listings",
		Long: `Sellsort classifies item photographs with a vision LLM, groups images
belonging to the same physical item, detects duplicates across runs, and
writes per-item listing files plus a summary spreadsheet.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newProcessCmd())
	cmd.AddCommand(newCatalogCmd())

	return cmd
}
