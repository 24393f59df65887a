package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentdesk/internal/coordination"
)

var handoffDeadline time.Duration

var handoffCmd = &cobra.Command{
	Use:   "handoff <project> <from-agent> <to-agent> <message>",
	Short: "Hand work from one agent to another",
	Long:  `Record a handoff. A handoff never expands a workflow, even from the manager.`,
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), appOptions{events: true}, func(ctx context.Context, a *app) error {
			rec, err := a.svc.AgentHandoff(ctx, coordination.HandoffRequest{
				ProjectID:        args[0],
				InitiatorAgentID: args[1],
				TargetAgentID:    args[2],
				Message:          args[3],
				Deadline:         deadlineFrom(handoffDeadline),
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(rec)
			}
			printStatus("✓", fmt.Sprintf("Handed off %s from %s to %s", shortID(rec.ID), rec.InitiatorAgentID, rec.TargetAgentID), color.FgGreen)
			return nil
		})
	},
}

func init() {
	handoffCmd.Flags().DurationVar(&handoffDeadline, "deadline", 0, "Fail the task if still in progress after this long")
}
