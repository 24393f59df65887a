package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"workflows"},
	Short:   "List the workflow templates",
	Long: `List the built-in workflow templates plus any loaded from workflows.dir,
with the role of every step in order.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), appOptions{}, func(ctx context.Context, a *app) error {
			templates := a.svc.ListTemplates()
			if jsonOutput {
				return printJSON(templates)
			}
			rows := make([][]string, 0, len(templates))
			for _, t := range templates {
				roles := make([]string, 0, len(t.Steps))
				for _, s := range t.Steps {
					roles = append(roles, string(s.AgentRole))
				}
				rows = append(rows, []string{t.Type, fmt.Sprintf("%d", len(t.Steps)), strings.Join(roles, " → ")})
			}
			fmt.Println(simpleTable([]string{"TYPE", "STEPS", "ROLES"}, rows))
			return nil
		})
	},
}
