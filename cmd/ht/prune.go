package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:     "prune",
	Short:   "Delete archived traces older than a cutoff",
	GroupID: "archive",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		beforeStr, _ := cmd.Flags().GetString("before")
		yes, _ := cmd.Flags().GetBool("yes")

		if beforeStr == "" {
			return fmt.Errorf("--before is required")
		}
		before, err := parseTimeFlag(beforeStr, time.Now())
		if err != nil {
			return fmt.Errorf("invalid --before: %w", err)
		}

		if !yes {
			fmt.Printf("Delete all traces completed before %s? [y/N] ", before.UTC().Format(timeFormat))
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			answer = strings.ToLower(strings.TrimSpace(answer))
			if answer != "y" && answer != "yes" {
				fmt.Println("aborted")
				return nil
			}
		}

		n, err := htClient.PruneTraces(context.Background(), before)
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d traces\n", n)
		return nil
	},
}

func init() {
	pruneCmd.Flags().String("before", "", `cutoff (duration like "720h", or RFC3339)`)
	pruneCmd.Flags().Bool("yes", false, "skip the confirmation prompt")
}
