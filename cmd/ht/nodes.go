package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var nodesCmd = &cobra.Command{
	Use:     "nodes",
	Short:   "List nodes that reported recently",
	GroupID: "perf",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		nodes, err := htClient.ListNodes(context.Background())
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(os.Stdout, nodes)
		}
		if len(nodes) == 0 {
			fmt.Println("no nodes seen recently")
			return nil
		}
		printNodeTable(os.Stdout, nodes)
		return nil
	},
}
