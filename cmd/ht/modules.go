package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var modulesCmd = &cobra.Command{
	Use:     "modules",
	Short:   "List modules with buffered chains",
	GroupID: "perf",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		modules, err := htClient.ListModules(context.Background())
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(os.Stdout, modules)
		}
		if len(modules) == 0 {
			fmt.Println("no modules with buffered chains")
			return nil
		}
		printModuleTable(os.Stdout, modules)
		return nil
	},
}
