package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/routelab/hoptrace/internal/client"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Short:   "List archived traces",
	GroupID: "archive",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		module, _ := cmd.Flags().GetString("module")
		node, _ := cmd.Flags().GetString("node")
		sinceStr, _ := cmd.Flags().GetString("since")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		req := &client.ListTracesRequest{
			Module: module,
			Node:   node,
			Limit:  limit,
			Offset: offset,
		}
		if sinceStr != "" {
			since, err := parseTimeFlag(sinceStr, time.Now())
			if err != nil {
				return fmt.Errorf("invalid --since: %w", err)
			}
			req.Since = &since
		}

		resp, err := htClient.ListTraces(context.Background(), req)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(os.Stdout, resp)
		}
		printTraceListTable(os.Stdout, resp.Traces, resp.Total)
		return nil
	},
}

// parseTimeFlag accepts either a look-back duration ("24h", "30m") resolved
// against now, or an absolute RFC3339 timestamp.
func parseTimeFlag(s string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither a duration nor RFC3339", s)
	}
	return t, nil
}

func init() {
	historyCmd.Flags().String("module", "", "only traces for this module")
	historyCmd.Flags().String("node", "", "only traces touching this node")
	historyCmd.Flags().String("since", "", `only traces completed after (duration like "24h", or RFC3339)`)
	historyCmd.Flags().Int("limit", 50, "maximum traces to return")
	historyCmd.Flags().Int("offset", 0, "number of traces to skip")
}
