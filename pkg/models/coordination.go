package models

import (
	"encoding/json"
	"time"
)

// CoordinationType tags what kind of exchange a record represents.
type CoordinationType string

const (
	// CoordinationDelegate assigns work to the target agent.
	CoordinationDelegate CoordinationType = "delegate"
	// CoordinationRequest asks the target agent for information or input.
	CoordinationRequest CoordinationType = "request"
	// CoordinationUpdate reports progress to the target agent.
	CoordinationUpdate CoordinationType = "update"
	// CoordinationComplete reports finished work to the target agent.
	CoordinationComplete CoordinationType = "complete"
	// CoordinationHandoff transfers ownership of work outside workflow gating.
	CoordinationHandoff CoordinationType = "handoff"
)

// Valid returns true if the type is a known value.
func (t CoordinationType) Valid() bool {
	switch t {
	case CoordinationDelegate, CoordinationRequest, CoordinationUpdate,
		CoordinationComplete, CoordinationHandoff:
		return true
	default:
		return false
	}
}

// CoordinationStatus is the lifecycle state of a coordination record.
type CoordinationStatus string

const (
	// StatusPending means the target agent may pick the record up.
	StatusPending CoordinationStatus = "pending"
	// StatusInProgress means the target agent is working on it.
	StatusInProgress CoordinationStatus = "in_progress"
	// StatusCompleted is terminal: the work succeeded.
	StatusCompleted CoordinationStatus = "completed"
	// StatusFailed is terminal: the work failed.
	StatusFailed CoordinationStatus = "failed"
	// StatusWaiting gates a workflow step until its predecessor completes.
	StatusWaiting CoordinationStatus = "waiting"
)

// Valid returns true if the status is a known value.
func (s CoordinationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed, StatusWaiting:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no transition out of s is permitted.
func (s CoordinationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsActive reports whether the target agent currently owns the record.
func (s CoordinationStatus) IsActive() bool {
	return s == StatusPending || s == StatusInProgress
}

// CanTransitionTo reports whether a caller-driven status update from s to next
// is allowed. waiting -> pending is reserved for workflow gating and is not a
// caller transition.
func (s CoordinationStatus) CanTransitionTo(next CoordinationStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusInProgress || next == StatusCompleted || next == StatusFailed
	case StatusInProgress:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// TaskData is the structured payload carried by a coordination record.
// Keys other than the known fields are preserved in Extra.
type TaskData struct {
	// WorkflowType names the workflow template the record belongs to.
	WorkflowType string
	// WorkflowStep is the 1-based step index for generated workflow records.
	WorkflowStep int
	// StepDescription is the template task text for the step.
	StepDescription string
	// AgentRole is the role the template expects for the step.
	AgentRole Role
	// Assignments pins roles to specific agent ids during expansion.
	Assignments map[Role]string
	// Extra holds caller-defined keys.
	Extra map[string]any
}

var taskDataKeys = []string{"workflowType", "workflowStep", "stepDescription", "agentRole", "assignments"}

// HasWorkflowStep reports whether the record is a generated workflow step.
func (d *TaskData) HasWorkflowStep() bool {
	return d != nil && d.WorkflowType != "" && d.WorkflowStep > 0
}

// MarshalJSON flattens Extra next to the known fields.
func (d TaskData) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+len(taskDataKeys))
	for k, v := range d.Extra {
		out[k] = v
	}
	if d.WorkflowType != "" {
		out["workflowType"] = d.WorkflowType
	}
	if d.WorkflowStep != 0 {
		out["workflowStep"] = d.WorkflowStep
	}
	if d.StepDescription != "" {
		out["stepDescription"] = d.StepDescription
	}
	if d.AgentRole != "" {
		out["agentRole"] = d.AgentRole
	}
	if len(d.Assignments) > 0 {
		out["assignments"] = d.Assignments
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the known fields and keeps everything else in Extra.
func (d *TaskData) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var known struct {
		WorkflowType    string          `json:"workflowType"`
		WorkflowStep    int             `json:"workflowStep"`
		StepDescription string          `json:"stepDescription"`
		AgentRole       Role            `json:"agentRole"`
		Assignments     map[Role]string `json:"assignments"`
	}
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	*d = TaskData{
		WorkflowType:    known.WorkflowType,
		WorkflowStep:    known.WorkflowStep,
		StepDescription: known.StepDescription,
		AgentRole:       known.AgentRole,
		Assignments:     known.Assignments,
	}

	for _, k := range taskDataKeys {
		delete(raw, k)
	}
	if len(raw) == 0 {
		return nil
	}
	d.Extra = make(map[string]any, len(raw))
	for k, v := range raw {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		d.Extra[k] = val
	}
	return nil
}

// CoordinationRecord is one unit of delegated or handed-off work.
type CoordinationRecord struct {
	// ID is generated at creation.
	ID string `json:"id"`
	// ProjectID scopes the record to a project or workflow instance.
	ProjectID string `json:"projectId"`
	// InitiatorAgentID is the agent that created the record.
	InitiatorAgentID string `json:"initiatorAgentId"`
	// TargetAgentID is the agent expected to act on it.
	TargetAgentID string `json:"targetAgentId"`
	// CoordinationType tags the kind of exchange.
	CoordinationType CoordinationType `json:"coordinationType"`
	// Message is the instruction or note from the initiator.
	Message string `json:"message"`
	// TaskData is the structured payload, nil when absent.
	TaskData *TaskData `json:"taskData,omitempty"`
	// Status is the current lifecycle state.
	Status CoordinationStatus `json:"status"`
	// Response is the result text set by the target agent.
	Response string `json:"response,omitempty"`
	// Deadline, when set on an in_progress record, bounds how long it may run.
	Deadline *time.Time `json:"deadline,omitempty"`
	// CreatedAt is when the record was inserted.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is when the record last changed.
	UpdatedAt time.Time `json:"updatedAt"`

	// Initiator and Target are display annotations filled on read.
	Initiator *AgentRef `json:"initiator,omitempty"`
	Target    *AgentRef `json:"target,omitempty"`
}

// WorkflowType returns the record's workflow type, or "" when it has none.
func (r *CoordinationRecord) WorkflowType() string {
	if r.TaskData == nil {
		return ""
	}
	return r.TaskData.WorkflowType
}

// WorkflowStep returns the record's workflow step, or 0 when it is not a step.
func (r *CoordinationRecord) WorkflowStep() int {
	if !r.TaskData.HasWorkflowStep() {
		return 0
	}
	return r.TaskData.WorkflowStep
}

// WorkflowStats aggregates record counts for a project.
// Pending, InProgress, Completed, Failed and Waiting always sum to Total.
type WorkflowStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Waiting    int `json:"waiting"`
}

// Add counts one record with the given status.
func (s *WorkflowStats) Add(status CoordinationStatus) {
	s.Total++
	switch status {
	case StatusPending:
		s.Pending++
	case StatusInProgress:
		s.InProgress++
	case StatusCompleted:
		s.Completed++
	case StatusFailed:
		s.Failed++
	case StatusWaiting:
		s.Waiting++
	}
}

// BucketSum returns the sum of the per-status buckets.
func (s WorkflowStats) BucketSum() int {
	return s.Pending + s.InProgress + s.Completed + s.Failed + s.Waiting
}
