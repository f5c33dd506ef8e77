package main

import (
	"context"
	"fmt"
	"os"

	"github.com/routelab/hoptrace/internal/report"
	"github.com/spf13/cobra"
)

// defaultModule is the module shown when none is named. The FIB pipeline is
// the one operators reach for first when convergence looks slow.
const defaultModule = "fib"

var perfCmd = &cobra.Command{
	Use:     "perf",
	Short:   "Inspect and manage buffered perf-event chains",
	GroupID: "perf",
}

var perfViewCmd = &cobra.Command{
	Use:   "view [module]",
	Short: "Render the timing tables for a module's buffered chains",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		module := defaultModule
		if len(args) == 1 {
			module = args[0]
		}

		db, err := htClient.ViewPerf(context.Background(), module)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(os.Stdout, db)
		}
		return report.Render(os.Stdout, db)
	},
}

var perfClearCmd = &cobra.Command{
	Use:   "clear [module]",
	Short: "Drop a module's buffered chains",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		module := defaultModule
		if len(args) == 1 {
			module = args[0]
		}

		n, err := htClient.ClearPerf(context.Background(), module)
		if err != nil {
			return err
		}
		fmt.Printf("cleared %d chains\n", n)
		return nil
	},
}

func init() {
	perfCmd.AddCommand(perfViewCmd)
	perfCmd.AddCommand(perfClearCmd)
}
