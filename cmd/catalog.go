package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"sellsort/internal/catalog"
	"sellsort/internal/config"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the persistent item catalog",
	}

	cmd.AddCommand(newCatalogListCmd())
	cmd.AddCommand(newCatalogMatchCmd())

	return cmd
}

func newCatalogListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every catalogued item",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := openCatalog()
			entries := cat.Entries()
			if len(entries) == 0 {
				fmt.Println("Catalog is empty.")
				return nil
			}
			for i, entry := range entries {
				fmt.Printf("[%d] %s\n", i+1, entry)
			}
			fmt.Printf("\n%d item(s) catalogued.\n", len(entries))
			return nil
		},
	}
}

func newCatalogMatchCmd() *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "match <item_key>",
		Short: "Dry-run a duplicate check against the catalog",
		Long: `Scores the given item key (and optional descriptive text) against every
catalogued item and reports the best match, without changing anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := openCatalog()
			entry, score := cat.FindMatch(text, args[0])
			if entry == nil {
				fmt.Printf("No match at or above threshold %.2f.\n", cat.Threshold())
				return nil
			}
			fmt.Printf("Best match: %s (score %.4f)\n", entry.ItemKey, score)
			return nil
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "Descriptive text to include in the similarity score")

	return cmd
}

func openCatalog() *catalog.Catalog {
	cfg := config.Load()
	return catalog.New(filepath.Join(cfg.OutputFolder, cfg.CatalogFilename), cfg.MergeThreshold)
}
