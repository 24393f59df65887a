package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var sweepDryRun bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Fail in_progress tasks whose deadline has passed",
	Long: `Run the overdue sweep once. 'agentdesk serve' runs it periodically;
use this from cron when only the CLI or MCP server is in use.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), appOptions{events: true}, func(ctx context.Context, a *app) error {
			if sweepDryRun {
				overdue, err := a.svc.ListOverdue(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(overdue)
				}
				if len(overdue) == 0 {
					printStatus("✓", "No overdue tasks", color.FgGreen)
					return nil
				}
				printStatus("!", fmt.Sprintf("%d overdue task(s) would be failed", len(overdue)), color.FgYellow)
				for _, r := range overdue {
					printRecord("  ", r)
				}
				return nil
			}

			failed, err := a.svc.SweepOverdue(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(failed)
			}
			if len(failed) == 0 {
				printStatus("✓", "No overdue tasks", color.FgGreen)
				return nil
			}
			printStatus("✗", fmt.Sprintf("Failed %d overdue task(s)", len(failed)), color.FgRed)
			for _, r := range failed {
				printRecord("  ", r)
			}
			return nil
		})
	},
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "List overdue tasks without failing them")
}
