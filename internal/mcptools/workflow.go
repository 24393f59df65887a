package mcptools

import (
	"context"

	"github.com/ShayCichocki/agentdesk/internal/coordination"
	"github.com/ShayCichocki/agentdesk/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── WorkflowTool ───────────────────────────────────────────────────────────

// WorkflowTool handles the get_project_workflow MCP tool.
type WorkflowTool struct {
	svc *coordination.Service
}

// NewWorkflowTool creates a WorkflowTool over svc.
func NewWorkflowTool(svc *coordination.Service) *WorkflowTool {
	return &WorkflowTool{svc: svc}
}

// Definition returns the MCP tool definition for get_project_workflow.
func (t *WorkflowTool) Definition() mcp.Tool {
	return mcp.NewTool("get_project_workflow",
		mcp.WithDescription("List every coordination record of a project in creation order, with status counts."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project to read")),
	)
}

// Handle processes the get_project_workflow tool call.
func (t *WorkflowTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := t.svc.GetProjectWorkflow(ctx, req.GetString("project_id", ""))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(struct {
		Workflow []models.CoordinationRecord `json:"workflow"`
		Stats    models.WorkflowStats        `json:"stats"`
	}{view.Records, view.Stats})
}

// ─── AgentsTool ─────────────────────────────────────────────────────────────

// AgentsTool handles the list_agents MCP tool.
type AgentsTool struct {
	svc *coordination.Service
}

// NewAgentsTool creates an AgentsTool over svc.
func NewAgentsTool(svc *coordination.Service) *AgentsTool {
	return &AgentsTool{svc: svc}
}

// Definition returns the MCP tool definition for list_agents.
func (t *AgentsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_agents",
		mcp.WithDescription("List the registered agents with their roles and capabilities."),
	)
}

// Handle processes the list_agents tool call.
func (t *AgentsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.svc.ListAgents())
}

// ─── TemplatesTool ──────────────────────────────────────────────────────────

// TemplatesTool handles the list_workflows MCP tool.
type TemplatesTool struct {
	svc *coordination.Service
}

// NewTemplatesTool creates a TemplatesTool over svc.
func NewTemplatesTool(svc *coordination.Service) *TemplatesTool {
	return &TemplatesTool{svc: svc}
}

// Definition returns the MCP tool definition for list_workflows.
func (t *TemplatesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_workflows",
		mcp.WithDescription("List the workflow types the manager can start, with their ordered steps."),
	)
}

// Handle processes the list_workflows tool call.
func (t *TemplatesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.svc.ListTemplates())
}
