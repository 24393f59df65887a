package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentdesk/internal/tui"
)

var statusCmd = &cobra.Command{
	Use:   "status [project]",
	Short: "Show a project's workflow, or list projects",
	Long: `With a project id, print every coordination record of the project in
creation order with status counts. Without one, list the projects that have
records, most recently active first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), appOptions{}, func(ctx context.Context, a *app) error {
			if len(args) == 0 {
				return listProjects(ctx, a)
			}

			view, err := a.svc.GetProjectWorkflow(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(view)
			}
			fmt.Print(tui.RenderWorkflow(view.ProjectID, view.Records, view.Stats, terminalWidth()))
			return nil
		})
	},
}

func listProjects(ctx context.Context, a *app) error {
	projects, err := a.svc.ListProjects(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(projects)
	}
	if len(projects) == 0 {
		fmt.Println("No projects yet. Start one with 'agentdesk delegate'.")
		return nil
	}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{p.ProjectID, fmt.Sprintf("%d", p.Records), p.LastActivity.Local().Format("2006-01-02 15:04:05")})
	}
	fmt.Println(simpleTable([]string{"PROJECT", "RECORDS", "LAST ACTIVITY"}, rows))
	return nil
}

// simpleTable renders rows with a bold header row.
func simpleTable(headers []string, rows [][]string) string {
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cell.Bold(true)
			}
			return cell
		}).
		Render()
}
