package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/ShayCichocki/agentdesk/internal/state"
	"github.com/ShayCichocki/agentdesk/pkg/models"
)

// ErrRoleMismatch is returned when the agent picked for a step does not hold
// the role the template expects.
var ErrRoleMismatch = errors.New("agent role does not match workflow step")

// AgentResolver looks agents up by id or role.
type AgentResolver interface {
	Resolve(id string) (models.Agent, error)
	ForRole(role models.Role) (models.Agent, error)
}

// RecordStore is the part of the coordination store the engine needs.
// Callers pass a transaction-bound store so expansion and gating are atomic
// with the operation that triggered them.
type RecordStore interface {
	InsertCoordination(ctx context.Context, rec *models.CoordinationRecord) error
	ListWaitingForStep(ctx context.Context, projectID, workflowType string, step int) ([]models.CoordinationRecord, error)
	UpdateStatus(ctx context.Context, u state.StatusUpdate) (*models.CoordinationRecord, error)
	ListByProject(ctx context.Context, projectID string) ([]models.CoordinationRecord, error)
}

// Engine expands templates into gated records and advances the gates.
type Engine struct {
	catalog *Catalog
	agents  AgentResolver
}

// NewEngine creates an engine over a catalog and an agent resolver.
func NewEngine(catalog *Catalog, agents AgentResolver) *Engine {
	return &Engine{catalog: catalog, agents: agents}
}

// Catalog returns the engine's template catalog.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// ExpandRequest identifies the workflow instance to expand.
type ExpandRequest struct {
	ProjectID        string
	WorkflowType     string
	InitiatorAgentID string
	// TargetAgentID is the target of the triggering delegation. It is reused
	// for any step whose role it holds, unless Assignments names another agent.
	TargetAgentID string
	// Assignments pins a role to a specific agent id.
	Assignments map[models.Role]string
}

// ExpandWorkflow inserts one record per template step after step 0, in step
// order. Step 1 starts pending and later steps start waiting. The engine does
// not deduplicate: callers must not expand the same workflow instance twice.
func (e *Engine) ExpandWorkflow(ctx context.Context, store RecordStore, req ExpandRequest) ([]models.CoordinationRecord, error) {
	tmpl, err := e.catalog.Lookup(req.WorkflowType)
	if err != nil {
		return nil, err
	}

	// Resolve every step before inserting anything.
	targets := make([]models.Agent, len(tmpl.Steps))
	for i := 1; i < len(tmpl.Steps); i++ {
		agent, err := e.agentForStep(tmpl.Steps[i].AgentRole, req)
		if err != nil {
			return nil, fmt.Errorf("workflow %s step %d: %w", req.WorkflowType, i, err)
		}
		targets[i] = agent
	}

	out := make([]models.CoordinationRecord, 0, len(tmpl.Steps)-1)
	for i := 1; i < len(tmpl.Steps); i++ {
		step := tmpl.Steps[i]
		status := models.StatusWaiting
		if i == 1 {
			status = models.StatusPending
		}

		rec := &models.CoordinationRecord{
			ProjectID:        req.ProjectID,
			InitiatorAgentID: req.InitiatorAgentID,
			TargetAgentID:    targets[i].ID,
			CoordinationType: models.CoordinationDelegate,
			Message:          step.Task,
			TaskData: &models.TaskData{
				WorkflowType:    req.WorkflowType,
				WorkflowStep:    i,
				StepDescription: step.Task,
				AgentRole:       step.AgentRole,
			},
			Status: status,
		}
		if err := store.InsertCoordination(ctx, rec); err != nil {
			return nil, fmt.Errorf("insert workflow %s step %d: %w", req.WorkflowType, i, err)
		}
		out = append(out, *rec)
	}

	return out, nil
}

// FirstStepAgent resolves the agent that ExpandWorkflow would give step 1,
// the only step that starts pending. ok is false for a template with no
// steps after step 0.
func (e *Engine) FirstStepAgent(req ExpandRequest) (agent models.Agent, ok bool, err error) {
	tmpl, err := e.catalog.Lookup(req.WorkflowType)
	if err != nil {
		return models.Agent{}, false, err
	}
	if len(tmpl.Steps) < 2 {
		return models.Agent{}, false, nil
	}
	agent, err = e.agentForStep(tmpl.Steps[1].AgentRole, req)
	if err != nil {
		return models.Agent{}, false, fmt.Errorf("workflow %s step 1: %w", req.WorkflowType, err)
	}
	return agent, true, nil
}

func (e *Engine) agentForStep(role models.Role, req ExpandRequest) (models.Agent, error) {
	if id, ok := req.Assignments[role]; ok && id != "" {
		agent, err := e.agents.Resolve(id)
		if err != nil {
			return models.Agent{}, err
		}
		if agent.Role != role {
			return models.Agent{}, fmt.Errorf("%w: %s is %s, step needs %s", ErrRoleMismatch, agent.ID, agent.Role, role)
		}
		return agent, nil
	}

	if req.TargetAgentID != "" {
		if agent, err := e.agents.Resolve(req.TargetAgentID); err == nil && agent.Role == role {
			return agent, nil
		}
	}

	return e.agents.ForRole(role)
}

// AdvanceOnCompletion promotes the waiting records of the step after rec.
// It is a no-op unless rec is completed and is a workflow step. Promotion is
// conditional on the record still waiting, so repeated calls are harmless.
// It returns the records it promoted.
func (e *Engine) AdvanceOnCompletion(ctx context.Context, store RecordStore, rec *models.CoordinationRecord) ([]models.CoordinationRecord, error) {
	if rec.Status != models.StatusCompleted || rec.WorkflowStep() == 0 {
		return nil, nil
	}

	next := rec.WorkflowStep() + 1
	waiting, err := store.ListWaitingForStep(ctx, rec.ProjectID, rec.WorkflowType(), next)
	if err != nil {
		return nil, fmt.Errorf("list waiting step %d: %w", next, err)
	}

	var promoted []models.CoordinationRecord
	for _, w := range waiting {
		updated, err := store.UpdateStatus(ctx, state.StatusUpdate{
			ID:   w.ID,
			From: models.StatusWaiting,
			To:   models.StatusPending,
		})
		if errors.Is(err, state.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("promote step %d: %w", next, err)
		}
		promoted = append(promoted, *updated)
	}
	return promoted, nil
}

// Stats aggregates records into per-status counts in a single pass.
func Stats(records []models.CoordinationRecord) models.WorkflowStats {
	var s models.WorkflowStats
	for _, r := range records {
		s.Add(r.Status)
	}
	return s
}

// WorkflowStats reads a project's records and aggregates them.
func (e *Engine) WorkflowStats(ctx context.Context, store RecordStore, projectID string) (models.WorkflowStats, error) {
	records, err := store.ListByProject(ctx, projectID)
	if err != nil {
		return models.WorkflowStats{}, err
	}
	return Stats(records), nil
}
