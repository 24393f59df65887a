package tui

import (
	"strings"
	"testing"

	"github.com/ShayCichocki/agentdesk/pkg/models"
)

func TestRenderWorkflow_Empty(t *testing.T) {
	out := RenderWorkflow("p1", nil, models.WorkflowStats{}, 120)
	if !strings.Contains(out, "Project p1") {
		t.Errorf("missing header in %q", out)
	}
	if !strings.Contains(out, "No coordination records.") {
		t.Errorf("missing empty notice in %q", out)
	}
}

func TestRenderWorkflow_Rows(t *testing.T) {
	records := []models.CoordinationRecord{
		{ID: "a", InitiatorAgentID: "manager", TargetAgentID: "manager", CoordinationType: models.CoordinationDelegate,
			Status: models.StatusPending, Message: "Initialize project"},
		{ID: "b", InitiatorAgentID: "manager", TargetAgentID: "solutions_architect", CoordinationType: models.CoordinationDelegate,
			Status: models.StatusCompleted, Message: "Design the architecture",
			TaskData: &models.TaskData{WorkflowType: "create_web_app", WorkflowStep: 1}},
	}
	stats := models.WorkflowStats{Total: 2, Pending: 1, Completed: 1}

	out := RenderWorkflow("p1", records, stats, 120)
	for _, want := range []string{"STEP", "solutions_architect", "Design the architecture", "completed", "1/2", "waiting 0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		done, total, width int
		wantFilled         int
	}{
		{0, 0, 10, 0},
		{1, 2, 10, 5},
		{4, 4, 10, 10},
		{5, 4, 10, 10},
	}
	for _, tt := range tests {
		bar := ProgressBar(tt.done, tt.total, tt.width)
		if got := strings.Count(bar, "█"); got != tt.wantFilled {
			t.Errorf("ProgressBar(%d, %d) filled = %d, want %d", tt.done, tt.total, got, tt.wantFilled)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate kept = %q", got)
	}
	if got := truncate("line one\nline two", 40); got != "line one line two" {
		t.Errorf("newlines not flattened: %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Errorf("truncate = %q, want abcd…", got)
	}
}
