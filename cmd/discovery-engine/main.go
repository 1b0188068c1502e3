// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the discovery-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/discovery-engine/internal/activitylog"
	"github.com/pdiddy/discovery-engine/internal/registry"
	"github.com/pdiddy/discovery-engine/internal/secrets"
	"github.com/pdiddy/discovery-engine/internal/sources"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the discovery-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "discovery-engine",
	Short: "Aggregated search across energy research data sources",
	Long: `discovery-engine searches papers, patents, materials, compounds, and energy
resource data across eight public providers through one interface. Results are
deduplicated across sources, ranked by relevance, and cached per provider with
rate limiting and circuit breaking.

Each operation is a subcommand: search fans out to every matching provider,
smartsearch routes by research domain with a two-tier escalation, sources
reports provider status, logs inspects the activity log, and workflow drives
the multi-phase discovery loop.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./discovery-engine.yaml or ~/.config/discovery-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("discovery-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "discovery-engine"))
		}
	}

	viper.SetEnvPrefix("DISCOVERY_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig overlays the config file onto the built-in defaults.
func loadConfig() (types.PipelineConfig, error) {
	cfg := types.DefaultPipelineConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// buildRegistry wires every provider adapter with config and secrets.
func buildRegistry(cfg types.PipelineConfig) *registry.Registry {
	return sources.BuildRegistry(cfg, loadedSecrets, os.Stderr)
}

// logActivity appends one event to the activity log, best effort. A broken
// log never fails the operation that produced the event.
func logActivity(cmd *cobra.Command, cfg types.PipelineConfig, ev activitylog.Event) {
	store, err := activitylog.Open(cfg.ActivityLog.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: activity log unavailable: %v\n", err)
		return
	}
	defer store.Close()

	if err := store.Write(cmd.Context(), ev); err != nil {
		fmt.Fprintf(os.Stderr, "warning: activity log write failed: %v\n", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
