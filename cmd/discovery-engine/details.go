package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var detailsCmd = &cobra.Command{
	Use:   "details [id]",
	Short: "Fetch one record by its namespaced ID",
	Long: `Details routes a namespaced record ID (e.g. arxiv:2301.07041,
patentsview:US11476378, pubchem:962) to the provider that owns it and fetches
the full record.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		src, err := buildRegistry(cfg).Details(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if src == nil {
			return fmt.Errorf("no record found for %s", args[0])
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(src)
	},
}

func init() {
	rootCmd.AddCommand(detailsCmd)
}
