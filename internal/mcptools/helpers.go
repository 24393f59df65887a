// Package mcptools exposes the coordination operations as MCP tools so agent
// runtimes can coordinate over stdio instead of HTTP.
//
// Each tool is a struct holding the coordination service with:
//   - Definition() returning the mcp.Tool schema
//   - Handle() running the operation and returning a JSON text result
//
// Domain failures are returned as tool errors carrying the error kind, never
// as Go errors, so the calling model can read and react to them.
package mcptools

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ShayCichocki/agentdesk/internal/coordination"
	"github.com/ShayCichocki/agentdesk/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult reports err as "<Kind>: <message>".
func errorResult(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", coordination.Code(err), err)), nil
}

// invalid reports a malformed argument as InvalidRequest.
func invalid(format string, args ...any) (*mcp.CallToolResult, error) {
	return errorResult(fmt.Errorf("%w: "+format, append([]any{coordination.ErrInvalidRequest}, args...)...))
}

// taskDataArg decodes the optional task_data object argument.
func taskDataArg(req mcp.CallToolRequest) (*models.TaskData, error) {
	raw, ok := req.GetArguments()["task_data"]
	if !ok || raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var td models.TaskData
	if err := json.Unmarshal(data, &td); err != nil {
		return nil, fmt.Errorf("task_data: %w", err)
	}
	return &td, nil
}

// deadlineArg parses the optional RFC 3339 deadline argument.
func deadlineArg(req mcp.CallToolRequest) (*time.Time, error) {
	s := req.GetString("deadline", "")
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("deadline: %w", err)
	}
	return &t, nil
}
