package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/discovery-engine/internal/activitylog"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Inspect the activity log",
	Long: `Logs pages through recorded engine activity (searches, workflow phases, AI
calls), newest first. Use --stats for aggregate counts instead of events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := activitylog.Open(cfg.ActivityLog.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		asJSON, _ := cmd.Flags().GetBool("json")
		out := cmd.OutOrStdout()

		if stats, _ := cmd.Flags().GetBool("stats"); stats {
			st, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			fmt.Fprintf(out, "events: %d\nsessions: %d\nsuccess rate: %.0f%%\nAI calls: %d\ntokens: %d\n",
				st.TotalLogs, st.UniqueSessions, st.SuccessRate*100, st.AICalls, st.TotalTokens)
			return nil
		}

		filter, err := logFilterFromFlags(cmd)
		if err != nil {
			return err
		}

		events, total, err := store.Query(cmd.Context(), filter)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(events)
		}

		fmt.Fprintf(out, "%d of %d events\n", len(events), total)
		for _, ev := range events {
			status := "ok"
			if !ev.Success {
				status = "failed"
			}
			fmt.Fprintf(out, "%s  %-10s %-6s %s", ev.Timestamp.Format(time.RFC3339), ev.Type, status, ev.Action)
			if ev.Error != "" {
				fmt.Fprintf(out, "  (%s)", ev.Error)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func logFilterFromFlags(cmd *cobra.Command) (activitylog.Filter, error) {
	flags := cmd.Flags()

	filter := activitylog.Filter{}
	filter.Type, _ = flags.GetString("type")
	filter.SessionID, _ = flags.GetString("session")
	filter.Limit, _ = flags.GetInt("limit")
	filter.Offset, _ = flags.GetInt("offset")

	if since, _ := flags.GetString("since"); since != "" {
		d, err := time.ParseDuration(since)
		if err != nil {
			return filter, fmt.Errorf("parsing --since: %w", err)
		}
		filter.Since = time.Now().UTC().Add(-d)
	}

	if flags.Changed("failed") {
		failed := false
		filter.Success = &failed
	}

	return filter, nil
}

func init() {
	logsCmd.Flags().String("type", "", "filter by event type (search, workflow, ai_call)")
	logsCmd.Flags().String("session", "", "filter by session ID")
	logsCmd.Flags().String("since", "", "only events within this window (e.g. 24h)")
	logsCmd.Flags().Bool("failed", false, "only failed events")
	logsCmd.Flags().Int("limit", 50, "page size")
	logsCmd.Flags().Int("offset", 0, "page offset")
	logsCmd.Flags().Bool("stats", false, "print aggregate statistics instead of events")
	logsCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(logsCmd)
}
