package main

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentdesk/internal/mcptools"
	"github.com/ShayCichocki/agentdesk/internal/version"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the coordination tools over MCP stdio",
	Long: `Run an MCP server on stdin/stdout exposing delegate_task,
update_task_status, get_project_workflow, agent_handoff, next_task,
list_agents and list_workflows. Logs go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), appOptions{events: true}, func(ctx context.Context, a *app) error {
			return server.ServeStdio(mcptools.NewServer(a.svc, version.Get()))
		})
	},
}
