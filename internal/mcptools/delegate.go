package mcptools

import (
	"context"

	"github.com/ShayCichocki/agentdesk/internal/coordination"
	"github.com/ShayCichocki/agentdesk/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── DelegateTool ───────────────────────────────────────────────────────────

// DelegateTool handles the delegate_task MCP tool.
type DelegateTool struct {
	svc *coordination.Service
}

// NewDelegateTool creates a DelegateTool over svc.
func NewDelegateTool(svc *coordination.Service) *DelegateTool {
	return &DelegateTool{svc: svc}
}

// Definition returns the MCP tool definition for delegate_task.
func (t *DelegateTool) Definition() mcp.Tool {
	return mcp.NewTool("delegate_task",
		mcp.WithDescription(
			"Delegate work from one agent to another within a project. "+
				"When the manager delegates with task_data.workflowType set, the whole workflow is expanded: "+
				"the first step becomes pending and the rest wait for their predecessor.",
		),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project the work belongs to")),
		mcp.WithString("initiator_agent_id", mcp.Required(), mcp.Description("Agent sending the work")),
		mcp.WithString("target_agent_id", mcp.Required(), mcp.Description("Agent receiving the work")),
		mcp.WithString("message", mcp.Required(), mcp.Description("What the target should do")),
		mcp.WithString("coordination_type",
			mcp.Description("Kind of coordination (default delegate)"),
			mcp.Enum("delegate", "request", "update", "complete"),
		),
		mcp.WithObject("task_data",
			mcp.Description("Structured payload. workflowType starts a workflow; assignments maps role to agent id"),
		),
		mcp.WithString("deadline", mcp.Description("Optional RFC 3339 deadline")),
	)
}

// Handle processes the delegate_task tool call.
func (t *DelegateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskData, err := taskDataArg(req)
	if err != nil {
		return invalid("%v", err)
	}
	deadline, err := deadlineArg(req)
	if err != nil {
		return invalid("%v", err)
	}

	res, err := t.svc.DelegateTask(ctx, coordination.DelegateRequest{
		ProjectID:        req.GetString("project_id", ""),
		InitiatorAgentID: req.GetString("initiator_agent_id", ""),
		TargetAgentID:    req.GetString("target_agent_id", ""),
		CoordinationType: models.CoordinationType(req.GetString("coordination_type", "")),
		Message:          req.GetString("message", ""),
		TaskData:         taskData,
		Deadline:         deadline,
	})
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(struct {
		Coordination models.CoordinationRecord   `json:"coordination"`
		Workflow     []models.CoordinationRecord `json:"workflow,omitempty"`
	}{res.Coordination, res.Workflow})
}

// ─── HandoffTool ────────────────────────────────────────────────────────────

// HandoffTool handles the agent_handoff MCP tool.
type HandoffTool struct {
	svc *coordination.Service
}

// NewHandoffTool creates a HandoffTool over svc.
func NewHandoffTool(svc *coordination.Service) *HandoffTool {
	return &HandoffTool{svc: svc}
}

// Definition returns the MCP tool definition for agent_handoff.
func (t *HandoffTool) Definition() mcp.Tool {
	return mcp.NewTool("agent_handoff",
		mcp.WithDescription("Hand work over to another agent. A handoff never starts a workflow."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project the work belongs to")),
		mcp.WithString("from_agent_id", mcp.Required(), mcp.Description("Agent handing the work over")),
		mcp.WithString("to_agent_id", mcp.Required(), mcp.Description("Agent taking the work")),
		mcp.WithString("message", mcp.Required(), mcp.Description("Context for the receiving agent")),
		mcp.WithObject("task_data", mcp.Description("Optional structured payload")),
		mcp.WithString("deadline", mcp.Description("Optional RFC 3339 deadline")),
	)
}

// Handle processes the agent_handoff tool call.
func (t *HandoffTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskData, err := taskDataArg(req)
	if err != nil {
		return invalid("%v", err)
	}
	deadline, err := deadlineArg(req)
	if err != nil {
		return invalid("%v", err)
	}

	rec, err := t.svc.AgentHandoff(ctx, coordination.HandoffRequest{
		ProjectID:        req.GetString("project_id", ""),
		InitiatorAgentID: req.GetString("from_agent_id", ""),
		TargetAgentID:    req.GetString("to_agent_id", ""),
		Message:          req.GetString("message", ""),
		TaskData:         taskData,
		Deadline:         deadline,
	})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(rec)
}
