package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show <trace-id>",
	Short:   "Show an archived trace with its timing table",
	GroupID: "archive",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		trace, err := htClient.GetTrace(context.Background(), args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(os.Stdout, trace)
		}
		return printTraceDetail(os.Stdout, trace)
	},
}
