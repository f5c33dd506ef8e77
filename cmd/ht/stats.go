package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show collector-wide counters",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := htClient.Stats(context.Background())
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(os.Stdout, stats)
		}
		printStats(os.Stdout, stats)
		return nil
	},
}
