package mcptools

import (
	"context"

	"github.com/ShayCichocki/agentdesk/internal/coordination"
	"github.com/ShayCichocki/agentdesk/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── UpdateStatusTool ───────────────────────────────────────────────────────

// UpdateStatusTool handles the update_task_status MCP tool.
type UpdateStatusTool struct {
	svc *coordination.Service
}

// NewUpdateStatusTool creates an UpdateStatusTool over svc.
func NewUpdateStatusTool(svc *coordination.Service) *UpdateStatusTool {
	return &UpdateStatusTool{svc: svc}
}

// Definition returns the MCP tool definition for update_task_status.
func (t *UpdateStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("update_task_status",
		mcp.WithDescription(
			"Report progress on the calling agent's current task. Completing a workflow step "+
				"releases the next step to its agent.",
		),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project the task belongs to")),
		mcp.WithString("agent_id", mcp.Required(), mcp.Description("Agent the task is assigned to")),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("New status"),
			mcp.Enum("in_progress", "completed", "failed"),
		),
		mcp.WithString("message", mcp.Description("Result or progress note, stored as the response")),
		mcp.WithString("coordination_id",
			mcp.Description("Specific record to update; defaults to the agent's current task"),
		),
	)
}

// Handle processes the update_task_status tool call.
func (t *UpdateStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := t.svc.UpdateTaskStatus(ctx, coordination.UpdateRequest{
		ProjectID:      req.GetString("project_id", ""),
		TargetAgentID:  req.GetString("agent_id", ""),
		Status:         models.CoordinationStatus(req.GetString("status", "")),
		Message:        req.GetString("message", ""),
		CoordinationID: req.GetString("coordination_id", ""),
	})
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(struct {
		Coordination models.CoordinationRecord   `json:"coordination"`
		Promoted     []models.CoordinationRecord `json:"promoted,omitempty"`
	}{res.Coordination, res.Promoted})
}

// ─── NextTaskTool ───────────────────────────────────────────────────────────

// NextTaskTool handles the next_task MCP tool.
type NextTaskTool struct {
	svc *coordination.Service
}

// NewNextTaskTool creates a NextTaskTool over svc.
func NewNextTaskTool(svc *coordination.Service) *NextTaskTool {
	return &NextTaskTool{svc: svc}
}

// Definition returns the MCP tool definition for next_task.
func (t *NextTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("next_task",
		mcp.WithDescription("Show the task update_task_status would act on for an agent, without changing it."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project to look in")),
		mcp.WithString("agent_id", mcp.Required(), mcp.Description("Agent to look up")),
	)
}

// Handle processes the next_task tool call.
func (t *NextTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, err := t.svc.NextTask(ctx, req.GetString("project_id", ""), req.GetString("agent_id", ""))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(rec)
}
