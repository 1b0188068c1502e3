package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/discovery-engine/internal/activitylog"
	"github.com/pdiddy/discovery-engine/internal/registry"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search every matching data source in parallel",
	Long: `Search fans a query out to all registered providers (or those selected by
--sources/--domains), merges the results, deduplicates near-identical titles
across providers, and ranks by relevance. Provider failures are reported per
source without failing the whole search.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, args[0], false)
	},
}

var smartSearchCmd = &cobra.Command{
	Use:   "smartsearch [query]",
	Short: "Domain-routed search with two-tier escalation",
	Long: `Smartsearch infers research domains from the query, searches the providers
best suited to those domains first, and escalates to the remaining providers
only when the first tier comes back thin. Query expansion variants are
computed from domain vocabulary and reported alongside the results.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, args[0], true)
	},
}

func runSearch(cmd *cobra.Command, query string, smart bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	filters, err := filtersFromFlags(cmd)
	if err != nil {
		return err
	}

	reg := buildRegistry(cfg)

	var result types.AggregatedResult
	if smart {
		result = reg.SmartSearch(cmd.Context(), query, filters)
	} else {
		result = reg.SearchAll(cmd.Context(), query, filters)
	}

	action := "search"
	if smart {
		action = "smartsearch"
	}
	logActivity(cmd, cfg, activitylog.Event{
		Type:       activitylog.TypeSearch,
		Action:     action + ": " + query,
		Success:    len(result.BySource) > 0,
		DurationMS: result.SearchTime.Milliseconds(),
	})

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		if err := registry.WriteResultFile(output, result); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %d results to %s\n", result.Total, output)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(cmd, result)
	return nil
}

func filtersFromFlags(cmd *cobra.Command) (types.SearchFilters, error) {
	flags := cmd.Flags()

	limit, _ := flags.GetInt("limit")
	yearFrom, _ := flags.GetInt("year-from")
	yearTo, _ := flags.GetInt("year-to")
	minCitations, _ := flags.GetInt("min-citations")
	openAccess, _ := flags.GetBool("open-access")
	domains, _ := flags.GetStringSlice("domains")
	srcs, _ := flags.GetStringSlice("sources")

	if yearFrom > 0 && yearTo > 0 && yearTo < yearFrom {
		return types.SearchFilters{}, fmt.Errorf("--year-to %d precedes --year-from %d", yearTo, yearFrom)
	}

	return types.SearchFilters{
		Limit:          limit,
		YearFrom:       yearFrom,
		YearTo:         yearTo,
		Domains:        domains,
		Sources:        srcs,
		MinCitations:   minCitations,
		OpenAccessOnly: openAccess,
	}, nil
}

func printResult(cmd *cobra.Command, result types.AggregatedResult) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%d results in %v\n", result.Total, result.SearchTime.Round(time.Millisecond))
	if len(result.ExpandedQueries) > 0 {
		fmt.Fprintf(out, "expanded queries: %s\n", strings.Join(result.ExpandedQueries, "; "))
	}
	if result.DeduplicatedCount > 0 {
		fmt.Fprintf(out, "duplicates removed: %d\n", result.DeduplicatedCount)
	}

	for name, outcome := range result.BySource {
		if outcome.Success {
			fmt.Fprintf(out, "  %-18s %3d results  %v\n", name, outcome.Count, outcome.SearchTime.Round(time.Millisecond))
		} else {
			fmt.Fprintf(out, "  %-18s failed: %s\n", name, outcome.Err)
		}
	}
	fmt.Fprintln(out)

	for i, src := range result.Sources {
		fmt.Fprintf(out, "%2d. [%5.1f] %s\n", i+1, src.RelevanceScore, src.Title)
		fmt.Fprintf(out, "    %s", src.ID)
		if src.Metadata.PublishedDate != "" {
			fmt.Fprintf(out, "  %s", src.Metadata.PublishedDate)
		}
		if src.Metadata.HasCitations {
			fmt.Fprintf(out, "  %d citations", src.Metadata.CitationCount)
		}
		fmt.Fprintln(out)
		if src.URL != "" {
			fmt.Fprintf(out, "    %s\n", src.URL)
		}
	}
}

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().Int("limit", 0, "maximum number of merged results (default from config)")
	cmd.Flags().Int("year-from", 0, "earliest publication year, inclusive")
	cmd.Flags().Int("year-to", 0, "latest publication year, inclusive")
	cmd.Flags().Int("min-citations", 0, "drop results below this citation count")
	cmd.Flags().Bool("open-access", false, "only open-access results")
	cmd.Flags().StringSlice("domains", nil, "restrict to research domains (e.g. solar-energy,battery-storage)")
	cmd.Flags().StringSlice("sources", nil, "restrict to named providers (e.g. arxiv,openalex)")
	cmd.Flags().Bool("json", false, "output the aggregated result as JSON")
	cmd.Flags().String("output", "", "write the aggregated result to a YAML file")
}

func init() {
	addSearchFlags(searchCmd)
	addSearchFlags(smartSearchCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(smartSearchCmd)
}
