package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/discovery-engine/internal/activitylog"
	"github.com/pdiddy/discovery-engine/internal/workflow"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow [goal]",
	Short: "Run the multi-phase discovery workflow",
	Long: `Workflow drives the discovery loop: research, hypothesis, experiment,
simulation, techno-economic analysis, validation. The research phase gathers
findings through a domain-routed search; the remaining phases require a
configured generative backend (workflow.model in the config file). Without
one the command gathers and reports findings, then stops.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		goal := workflow.Goal{Statement: args[0]}
		goal.Query, _ = cmd.Flags().GetString("query")
		goal.Domains, _ = cmd.Flags().GetStringSlice("domains")

		if cfg.Workflow.APIKey == "" {
			cfg.Workflow.APIKey = loadedSecrets["anthropic-api-key"]
		}

		reg := buildRegistry(cfg)
		out := cmd.OutOrStdout()

		if cfg.Workflow.Model == "" {
			// Research-only: gather findings, then stop with guidance.
			query := goal.Query
			if query == "" {
				query = goal.Statement
			}
			result := reg.SmartSearch(cmd.Context(), query, types.SearchFilters{Domains: goal.Domains})
			fmt.Fprintf(out, "research: %d findings from %d sources\n", result.Total, len(result.BySource))
			for i, src := range result.Sources {
				fmt.Fprintf(out, "%2d. [%5.1f] %s (%s)\n", i+1, src.RelevanceScore, src.Title, src.ID)
			}
			return fmt.Errorf("no generative backend configured: set workflow.model in discovery-engine.yaml to run the remaining phases")
		}

		runner := workflow.NewRunner(unsupportedBackend{cfg.Workflow}, reg, cfg.Workflow,
			workflow.WithWarnings(os.Stderr),
			workflow.WithObserver(func(o workflow.PhaseOutcome) {
				logActivity(cmd, cfg, activitylog.Event{
					Type:    activitylog.TypeWorkflow,
					Action:  string(o.Phase),
					Success: o.Gate.Pass,
				})
			}))

		run, err := runner.Execute(cmd.Context(), goal)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "workflow completed in %v\n", run.Elapsed)
		for _, g := range run.Gates {
			verdict := "pass"
			if !g.Gate.Pass {
				verdict = "fail"
			}
			fmt.Fprintf(out, "  %-11s %s (score %.0f, %d iteration(s))\n",
				g.Phase, verdict, g.Gate.Score, g.Iterations)
		}
		return nil
	},
}

// unsupportedBackend rejects AI-driven phases until a generative client is
// wired into this build.
type unsupportedBackend struct {
	cfg types.WorkflowConfig
}

func (b unsupportedBackend) RunPhase(_ context.Context, req workflow.PhaseRequest) (types.PhaseResult, error) {
	return types.PhaseResult{}, fmt.Errorf("generative backend %q is not supported by this build", b.cfg.Model)
}

func init() {
	workflowCmd.Flags().String("query", "", "research query (defaults to the goal statement)")
	workflowCmd.Flags().StringSlice("domains", nil, "research domains to route the search")
	rootCmd.AddCommand(workflowCmd)
}
