package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the registered agents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), appOptions{}, func(ctx context.Context, a *app) error {
			agents := a.svc.ListAgents()
			if jsonOutput {
				return printJSON(agents)
			}
			rows := make([][]string, 0, len(agents))
			for _, ag := range agents {
				rows = append(rows, []string{ag.ID, ag.Name, string(ag.Role), strings.Join(ag.Capabilities, ", ")})
			}
			fmt.Println(simpleTable([]string{"ID", "NAME", "ROLE", "CAPABILITIES"}, rows))
			return nil
		})
	},
}
