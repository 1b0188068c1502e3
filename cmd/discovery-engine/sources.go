package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List registered data sources and their status",
	Long: `Sources lists every registered provider with its research domains, current
availability (providers that need an API key report unavailable until one is
configured), and remaining rate-limit budget.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		reg := buildRegistry(cfg)

		if byDomain, _ := cmd.Flags().GetBool("domains"); byDomain {
			stats := reg.GetStats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d sources: %s\n", stats.Adapters, strings.Join(stats.Names, ", "))
			domains := make([]string, 0, len(stats.ByDomain))
			for d := range stats.ByDomain {
				domains = append(domains, d)
			}
			sort.Strings(domains)
			for _, d := range domains {
				fmt.Fprintf(out, "%-22s %d\n", d, stats.ByDomain[d])
			}
			return nil
		}

		statuses := reg.Status(cmd.Context())

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(statuses)
		}

		out := cmd.OutOrStdout()
		for _, st := range statuses {
			state := "available"
			if !st.Available {
				state = "unavailable"
			}
			fmt.Fprintf(out, "%-18s %-12s %2d/%2d req/min  %s\n",
				st.Name, state,
				st.RateLimit.Remaining, st.RateLimit.RequestsPerMinute,
				strings.Join(st.Domains, ", "))
		}
		return nil
	},
}

func init() {
	sourcesCmd.Flags().Bool("json", false, "output provider status as JSON")
	sourcesCmd.Flags().Bool("domains", false, "summarize sources per research domain")
	rootCmd.AddCommand(sourcesCmd)
}
