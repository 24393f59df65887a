package models

import (
	"encoding/json"
	"testing"
)

func TestCoordinationType_Valid(t *testing.T) {
	tests := []struct {
		name string
		typ  CoordinationType
		want bool
	}{
		{"delegate is valid", CoordinationDelegate, true},
		{"request is valid", CoordinationRequest, true},
		{"update is valid", CoordinationUpdate, true},
		{"complete is valid", CoordinationComplete, true},
		{"handoff is valid", CoordinationHandoff, true},
		{"empty string is invalid", CoordinationType(""), false},
		{"status value is invalid", CoordinationType("pending"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.Valid(); got != tt.want {
				t.Errorf("CoordinationType(%q).Valid() = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}

func TestCoordinationStatus_Predicates(t *testing.T) {
	tests := []struct {
		status   CoordinationStatus
		valid    bool
		terminal bool
		active   bool
	}{
		{StatusPending, true, false, true},
		{StatusInProgress, true, false, true},
		{StatusCompleted, true, true, false},
		{StatusFailed, true, true, false},
		{StatusWaiting, true, false, false},
		{CoordinationStatus("done"), false, false, false},
		{CoordinationStatus(""), false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.status.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
			if got := tt.status.IsActive(); got != tt.active {
				t.Errorf("IsActive() = %v, want %v", got, tt.active)
			}
		})
	}
}

func TestCoordinationStatus_CanTransitionTo(t *testing.T) {
	all := []CoordinationStatus{StatusPending, StatusInProgress, StatusCompleted, StatusFailed, StatusWaiting}

	allowed := map[CoordinationStatus]map[CoordinationStatus]bool{
		StatusPending:    {StatusInProgress: true, StatusCompleted: true, StatusFailed: true},
		StatusInProgress: {StatusCompleted: true, StatusFailed: true},
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from][to]
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("%s -> %s: CanTransitionTo = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCoordinationStatus_TerminalHasNoExit(t *testing.T) {
	for _, from := range []CoordinationStatus{StatusCompleted, StatusFailed} {
		for _, to := range []CoordinationStatus{StatusPending, StatusInProgress, StatusCompleted, StatusFailed, StatusWaiting} {
			if from.CanTransitionTo(to) {
				t.Errorf("terminal status %s must not transition to %s", from, to)
			}
		}
	}
}

func TestTaskData_PreservesExtraKeys(t *testing.T) {
	input := `{"workflowType":"create_web_app","workflowStep":2,"stepDescription":"Design","priority":"high","labels":["a","b"]}`

	var d TaskData
	if err := json.Unmarshal([]byte(input), &d); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if d.WorkflowType != "create_web_app" {
		t.Errorf("WorkflowType = %q, want %q", d.WorkflowType, "create_web_app")
	}
	if d.WorkflowStep != 2 {
		t.Errorf("WorkflowStep = %d, want 2", d.WorkflowStep)
	}
	if d.Extra["priority"] != "high" {
		t.Errorf("Extra[priority] = %v, want high", d.Extra["priority"])
	}
	if _, ok := d.Extra["workflowType"]; ok {
		t.Error("known keys must not be duplicated into Extra")
	}

	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var flat map[string]any
	if err := json.Unmarshal(out, &flat); err != nil {
		t.Fatalf("Unmarshal flat failed: %v", err)
	}
	if flat["priority"] != "high" {
		t.Errorf("marshaled priority = %v, want high", flat["priority"])
	}
	if labels, ok := flat["labels"].([]any); !ok || len(labels) != 2 {
		t.Errorf("marshaled labels = %v, want two entries", flat["labels"])
	}
	if flat["workflowStep"] != float64(2) {
		t.Errorf("marshaled workflowStep = %v, want 2", flat["workflowStep"])
	}
}

func TestTaskData_Assignments(t *testing.T) {
	var d TaskData
	if err := json.Unmarshal([]byte(`{"workflowType":"security_audit","assignments":{"security_engineer":"sec-2"}}`), &d); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got := d.Assignments[RoleSecurityEngineer]; got != "sec-2" {
		t.Errorf("Assignments[security_engineer] = %q, want %q", got, "sec-2")
	}
	if d.Extra != nil {
		t.Errorf("Extra = %v, want nil", d.Extra)
	}
}

func TestTaskData_HasWorkflowStep(t *testing.T) {
	var nilData *TaskData
	if nilData.HasWorkflowStep() {
		t.Error("nil TaskData must not report a workflow step")
	}
	if (&TaskData{WorkflowType: "create_web_app"}).HasWorkflowStep() {
		t.Error("root delegation without a step must not report a workflow step")
	}
	if !(&TaskData{WorkflowType: "create_web_app", WorkflowStep: 1}).HasWorkflowStep() {
		t.Error("step 1 must report a workflow step")
	}
}

func TestWorkflowStats_BucketsSumToTotal(t *testing.T) {
	var s WorkflowStats
	statuses := []CoordinationStatus{
		StatusPending, StatusPending, StatusInProgress, StatusCompleted,
		StatusFailed, StatusWaiting, StatusWaiting, StatusWaiting,
	}
	for _, st := range statuses {
		s.Add(st)
	}

	if s.Total != len(statuses) {
		t.Errorf("Total = %d, want %d", s.Total, len(statuses))
	}
	if s.BucketSum() != s.Total {
		t.Errorf("BucketSum() = %d, want %d", s.BucketSum(), s.Total)
	}
	if s.Pending != 2 || s.InProgress != 1 || s.Completed != 1 || s.Failed != 1 || s.Waiting != 3 {
		t.Errorf("unexpected buckets: %+v", s)
	}
}
