package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentdesk/internal/coordination"
	"github.com/ShayCichocki/agentdesk/pkg/models"
)

var (
	updateMessage string
	updateID      string
)

var updateCmd = &cobra.Command{
	Use:   "update <project> <agent> <in_progress|completed|failed>",
	Short: "Update the status of an agent's current task",
	Long: `Transition the agent's current task. Without --id the agent's oldest
in_progress task is used, else its oldest pending one.

Completing a workflow step releases the next step.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), appOptions{events: true}, func(ctx context.Context, a *app) error {
			res, err := a.svc.UpdateTaskStatus(ctx, coordination.UpdateRequest{
				ProjectID:      args[0],
				TargetAgentID:  args[1],
				Status:         models.CoordinationStatus(args[2]),
				Message:        updateMessage,
				CoordinationID: updateID,
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(res)
			}

			printRecord("", res.Coordination)
			for _, p := range res.Promoted {
				printStatus("→", fmt.Sprintf("Step %d released to %s", p.TaskData.WorkflowStep, p.TargetAgentID), color.FgCyan)
			}
			return nil
		})
	},
}

func init() {
	updateCmd.Flags().StringVarP(&updateMessage, "message", "m", "", "Result or progress note stored as the response")
	updateCmd.Flags().StringVar(&updateID, "id", "", "Update this record instead of the agent's current task")
}
