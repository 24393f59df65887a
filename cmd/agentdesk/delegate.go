package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentdesk/internal/coordination"
	"github.com/ShayCichocki/agentdesk/pkg/models"
)

var (
	delegateFrom        string
	delegateType        string
	delegateWorkflow    string
	delegateAssignments []string
	delegateDeadline    time.Duration
)

var delegateCmd = &cobra.Command{
	Use:   "delegate <project> <target-agent> <message>",
	Short: "Delegate a task to an agent",
	Long: `Record a delegation from one agent to another.

When the initiator is the manager and --workflow is given, the workflow is
expanded: step 1 becomes pending and the later steps wait for their
predecessor. --assign role=agent pins a step to a specific agent.`,
	Example: `  agentdesk delegate shop manager "Build the storefront" --workflow create_web_app
  agentdesk delegate shop qa_engineer "Retest checkout" --from backend_developer --type request`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		assignments, err := parseAssignments(delegateAssignments)
		if err != nil {
			return err
		}

		var taskData *models.TaskData
		if delegateWorkflow != "" || len(assignments) > 0 {
			taskData = &models.TaskData{WorkflowType: delegateWorkflow, Assignments: assignments}
		}

		return withApp(cmd.Context(), appOptions{events: true}, func(ctx context.Context, a *app) error {
			res, err := a.svc.DelegateTask(ctx, coordination.DelegateRequest{
				ProjectID:        args[0],
				InitiatorAgentID: delegateFrom,
				TargetAgentID:    args[1],
				CoordinationType: models.CoordinationType(delegateType),
				Message:          args[2],
				TaskData:         taskData,
				Deadline:         deadlineFrom(delegateDeadline),
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(res)
			}

			printStatus("✓", fmt.Sprintf("Delegated %s to %s", shortID(res.Coordination.ID), res.Coordination.TargetAgentID), color.FgGreen)
			if len(res.Workflow) > 0 {
				fmt.Printf("\nWorkflow %s expanded into %d steps:\n", delegateWorkflow, len(res.Workflow))
				for _, r := range res.Workflow {
					printRecord("  ", r)
				}
			}
			return nil
		})
	},
}

func init() {
	delegateCmd.Flags().StringVar(&delegateFrom, "from", "manager", "Initiating agent id")
	delegateCmd.Flags().StringVar(&delegateType, "type", string(models.CoordinationDelegate), "Coordination type: delegate, request, update, complete")
	delegateCmd.Flags().StringVar(&delegateWorkflow, "workflow", "", "Workflow type to expand (manager only)")
	delegateCmd.Flags().StringArrayVar(&delegateAssignments, "assign", nil, "Pin a workflow role to an agent, as role=agent (repeatable)")
	delegateCmd.Flags().DurationVar(&delegateDeadline, "deadline", 0, "Fail the task if still in progress after this long")
}

// parseAssignments turns role=agent pairs into an assignment map.
func parseAssignments(pairs []string) (map[models.Role]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[models.Role]string, len(pairs))
	for _, p := range pairs {
		role, agent, ok := strings.Cut(p, "=")
		role, agent = strings.TrimSpace(role), strings.TrimSpace(agent)
		if !ok || role == "" || agent == "" {
			return nil, fmt.Errorf("invalid --assign %q: want role=agent", p)
		}
		if !models.Role(role).Valid() {
			return nil, fmt.Errorf("invalid --assign %q: unknown role %q", p, role)
		}
		out[models.Role(role)] = agent
	}
	return out, nil
}

// deadlineFrom converts a relative duration flag into an absolute deadline.
func deadlineFrom(d time.Duration) *time.Time {
	if d <= 0 {
		return nil
	}
	t := time.Now().Add(d).UTC()
	return &t
}
