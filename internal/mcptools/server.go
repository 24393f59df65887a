package mcptools

import (
	"github.com/ShayCichocki/agentdesk/internal/coordination"
	"github.com/mark3labs/mcp-go/server"
)

const instructions = `agentdesk coordinates a team of role-based agents on shared projects.

Start a project by having the manager call delegate_task with task_data.workflowType
(see list_workflows). Each agent then calls next_task to see its work, and
update_task_status with in_progress, then completed or failed. Completing a step
releases the next one. get_project_workflow shows the whole project.`

// NewServer creates the MCP server with every coordination tool registered.
func NewServer(svc *coordination.Service, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"agentdesk",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	delegate := NewDelegateTool(svc)
	s.AddTool(delegate.Definition(), delegate.Handle)

	update := NewUpdateStatusTool(svc)
	s.AddTool(update.Definition(), update.Handle)

	wf := NewWorkflowTool(svc)
	s.AddTool(wf.Definition(), wf.Handle)

	handoff := NewHandoffTool(svc)
	s.AddTool(handoff.Definition(), handoff.Handle)

	next := NewNextTaskTool(svc)
	s.AddTool(next.Definition(), next.Handle)

	agents := NewAgentsTool(svc)
	s.AddTool(agents.Definition(), agents.Handle)

	templates := NewTemplatesTool(svc)
	s.AddTool(templates.Definition(), templates.Handle)

	return s
}
