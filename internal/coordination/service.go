// Package coordination implements the task delegation, status update,
// workflow query and handoff operations over the coordination store.
package coordination

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ShayCichocki/agentdesk/internal/events"
	"github.com/ShayCichocki/agentdesk/internal/registry"
	"github.com/ShayCichocki/agentdesk/internal/state"
	"github.com/ShayCichocki/agentdesk/internal/workflow"
	"github.com/ShayCichocki/agentdesk/pkg/models"
)

// Options configures a Service.
type Options struct {
	// TaskTimeout, when positive, sets a deadline on records entering in_progress.
	TaskTimeout time.Duration
	// Publisher receives events after each committed change. Defaults to NopPublisher.
	Publisher events.Publisher
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service is the coordination API. Every mutating operation runs in a single
// store transaction; events are published only after commit.
type Service struct {
	db        state.Database
	agents    *registry.Registry
	engine    *workflow.Engine
	publisher events.Publisher
	logger    *slog.Logger
	timeout   time.Duration
	now       func() time.Time
}

// NewService wires a service over its collaborators.
func NewService(db state.Database, agents *registry.Registry, engine *workflow.Engine, opts Options) *Service {
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		db:        db,
		agents:    agents,
		engine:    engine,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		timeout:   opts.TaskTimeout,
		now:       opts.Now,
	}
}

// DelegateRequest is the input of DelegateTask.
type DelegateRequest struct {
	ProjectID        string
	InitiatorAgentID string
	TargetAgentID    string
	// CoordinationType defaults to delegate.
	CoordinationType models.CoordinationType
	Message          string
	TaskData         *models.TaskData
	// Deadline bounds the record once it is in_progress.
	Deadline *time.Time
}

// DelegateResult holds the triggering record and any expanded workflow steps.
type DelegateResult struct {
	Coordination models.CoordinationRecord
	Workflow     []models.CoordinationRecord
}

// DelegateTask records work from one agent to another. When a manager
// delegates with a workflow type, the workflow is expanded in the same
// transaction.
func (s *Service) DelegateTask(ctx context.Context, req DelegateRequest) (*DelegateResult, error) {
	if req.CoordinationType == "" {
		req.CoordinationType = models.CoordinationDelegate
	}
	return s.create(ctx, req)
}

// HandoffRequest is the input of AgentHandoff.
type HandoffRequest struct {
	ProjectID        string
	InitiatorAgentID string
	TargetAgentID    string
	Message          string
	TaskData         *models.TaskData
	Deadline         *time.Time
}

// AgentHandoff transfers work between agents. It never expands a workflow.
func (s *Service) AgentHandoff(ctx context.Context, req HandoffRequest) (*models.CoordinationRecord, error) {
	res, err := s.create(ctx, DelegateRequest{
		ProjectID:        req.ProjectID,
		InitiatorAgentID: req.InitiatorAgentID,
		TargetAgentID:    req.TargetAgentID,
		CoordinationType: models.CoordinationHandoff,
		Message:          req.Message,
		TaskData:         req.TaskData,
		Deadline:         req.Deadline,
	})
	if err != nil {
		return nil, err
	}
	return &res.Coordination, nil
}

func (s *Service) create(ctx context.Context, req DelegateRequest) (*DelegateResult, error) {
	if strings.TrimSpace(req.ProjectID) == "" {
		return nil, fmt.Errorf("%w: projectId is required", ErrInvalidRequest)
	}
	if !req.CoordinationType.Valid() {
		return nil, fmt.Errorf("%w: unknown coordinationType %q", ErrInvalidRequest, req.CoordinationType)
	}

	initiator, err := s.resolve("initiator", req.InitiatorAgentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolve("target", req.TargetAgentID); err != nil {
		return nil, err
	}

	taskData := copyTaskData(req.TaskData)
	expand := initiator.Role == models.RoleManager &&
		req.CoordinationType != models.CoordinationHandoff &&
		taskData != nil && taskData.WorkflowType != ""

	var expandReq workflow.ExpandRequest
	if expand {
		if _, err := s.engine.Catalog().Lookup(taskData.WorkflowType); err != nil {
			return nil, err
		}
		expandReq = workflow.ExpandRequest{
			ProjectID:        req.ProjectID,
			WorkflowType:     taskData.WorkflowType,
			InitiatorAgentID: req.InitiatorAgentID,
			TargetAgentID:    req.TargetAgentID,
			Assignments:      taskData.Assignments,
		}
	}

	root := &models.CoordinationRecord{
		ProjectID:        req.ProjectID,
		InitiatorAgentID: req.InitiatorAgentID,
		TargetAgentID:    req.TargetAgentID,
		CoordinationType: req.CoordinationType,
		Message:          req.Message,
		TaskData:         taskData,
		Status:           models.StatusPending,
		Deadline:         req.Deadline,
	}

	result := &DelegateResult{}
	err = s.db.Transaction(ctx, func(st *state.Store) error {
		pending, err := st.CountPendingForAgent(ctx, req.ProjectID, req.TargetAgentID)
		if err != nil {
			return err
		}
		if pending > 0 {
			return fmt.Errorf("%w: %s in %s", ErrAgentBusy, req.TargetAgentID, req.ProjectID)
		}

		if expand {
			n, err := st.CountWorkflowSteps(ctx, req.ProjectID, expandReq.WorkflowType)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: %s in %s", ErrWorkflowExists, expandReq.WorkflowType, req.ProjectID)
			}

			// Step 1 starts pending, so its agent must be free as well.
			first, ok, err := s.engine.FirstStepAgent(expandReq)
			if err != nil {
				return err
			}
			busy := ok && first.ID == req.TargetAgentID
			if ok && !busy {
				pending, err := st.CountPendingForAgent(ctx, req.ProjectID, first.ID)
				if err != nil {
					return err
				}
				busy = pending > 0
			}
			if busy {
				return fmt.Errorf("%w: %s in %s (step 1 of %s)", ErrAgentBusy, first.ID, req.ProjectID, expandReq.WorkflowType)
			}
		}

		if err := st.InsertCoordination(ctx, root); err != nil {
			return err
		}

		if expand {
			steps, err := s.engine.ExpandWorkflow(ctx, st, expandReq)
			if err != nil {
				return err
			}
			result.Workflow = steps
		}
		return nil
	})
	if err != nil {
		return nil, storeError("create coordination", err)
	}

	result.Coordination = *root
	s.annotate(&result.Coordination)
	for i := range result.Workflow {
		s.annotate(&result.Workflow[i])
	}

	s.logger.Info("Coordination created",
		"project", root.ProjectID,
		"id", root.ID,
		"type", root.CoordinationType,
		"initiator", root.InitiatorAgentID,
		"target", root.TargetAgentID,
		"workflow_steps", len(result.Workflow))

	s.publish(ctx, events.Created, append([]models.CoordinationRecord{result.Coordination}, result.Workflow...))
	return result, nil
}

// UpdateRequest is the input of UpdateTaskStatus.
type UpdateRequest struct {
	ProjectID     string
	TargetAgentID string
	Status        models.CoordinationStatus
	Message       string
	// CoordinationID selects a specific record. When empty the agent's oldest
	// in_progress record is used, else its oldest pending one.
	CoordinationID string
}

// UpdateResult holds the changed record and any workflow steps it un-gated.
type UpdateResult struct {
	Coordination models.CoordinationRecord
	Promoted     []models.CoordinationRecord
}

// UpdateTaskStatus transitions the target agent's current record and, on
// completion, promotes the next workflow step in the same transaction.
func (s *Service) UpdateTaskStatus(ctx context.Context, req UpdateRequest) (*UpdateResult, error) {
	if strings.TrimSpace(req.ProjectID) == "" {
		return nil, fmt.Errorf("%w: projectId is required", ErrInvalidRequest)
	}
	if !req.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, req.Status)
	}
	if req.Status == models.StatusPending || req.Status == models.StatusWaiting {
		return nil, fmt.Errorf("%w: status %s cannot be set by callers", ErrInvalidTransition, req.Status)
	}
	if _, err := s.resolve("target", req.TargetAgentID); err != nil {
		return nil, err
	}

	result := &UpdateResult{}
	err := s.db.Transaction(ctx, func(st *state.Store) error {
		rec, err := s.currentRecord(ctx, st, req)
		if err != nil {
			return err
		}

		if !rec.Status.CanTransitionTo(req.Status) {
			return fmt.Errorf("%w: %s -> %s for %s", ErrInvalidTransition, rec.Status, req.Status, rec.ID)
		}

		update := state.StatusUpdate{
			ID:       rec.ID,
			From:     rec.Status,
			To:       req.Status,
			Response: &req.Message,
		}
		if req.Status == models.StatusInProgress && rec.Deadline == nil && s.timeout > 0 {
			deadline := s.now().Add(s.timeout).UTC()
			update.Deadline = &deadline
		}

		updated, err := st.UpdateStatus(ctx, update)
		if errors.Is(err, state.ErrConflict) {
			return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}
		if err != nil {
			return err
		}
		result.Coordination = *updated

		if updated.Status == models.StatusCompleted {
			promoted, err := s.engine.AdvanceOnCompletion(ctx, st, updated)
			if err != nil {
				return err
			}
			result.Promoted = promoted
		}
		return nil
	})
	if err != nil {
		return nil, storeError("update task status", err)
	}

	s.annotate(&result.Coordination)
	for i := range result.Promoted {
		s.annotate(&result.Promoted[i])
	}

	s.logger.Info("Coordination status changed",
		"project", result.Coordination.ProjectID,
		"id", result.Coordination.ID,
		"target", result.Coordination.TargetAgentID,
		"status", result.Coordination.Status,
		"promoted", len(result.Promoted))

	s.publish(ctx, events.StatusChanged, append([]models.CoordinationRecord{result.Coordination}, result.Promoted...))
	return result, nil
}

func (s *Service) currentRecord(ctx context.Context, st *state.Store, req UpdateRequest) (*models.CoordinationRecord, error) {
	if req.CoordinationID == "" {
		rec, err := st.NextActiveForAgent(ctx, req.ProjectID, req.TargetAgentID)
		if errors.Is(err, state.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s in %s", ErrNoPendingTask, req.TargetAgentID, req.ProjectID)
		}
		return rec, err
	}

	rec, err := st.GetCoordination(ctx, req.CoordinationID)
	if errors.Is(err, state.ErrNotFound) {
		return nil, fmt.Errorf("%w: record %s does not exist", ErrNoPendingTask, req.CoordinationID)
	}
	if err != nil {
		return nil, err
	}
	if rec.ProjectID != req.ProjectID || rec.TargetAgentID != req.TargetAgentID {
		return nil, fmt.Errorf("%w: record %s does not belong to %s in %s",
			ErrInvalidRequest, rec.ID, req.TargetAgentID, req.ProjectID)
	}
	return rec, nil
}

// WorkflowView is a project's records with their aggregate counts.
type WorkflowView struct {
	ProjectID string
	Records   []models.CoordinationRecord
	Stats     models.WorkflowStats
}

// GetProjectWorkflow returns every record of a project in creation order with
// stats computed from the same read.
func (s *Service) GetProjectWorkflow(ctx context.Context, projectID string) (*WorkflowView, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("%w: projectId is required", ErrInvalidRequest)
	}

	records, err := s.db.Store().ListByProject(ctx, projectID)
	if err != nil {
		return nil, storeError("get project workflow", err)
	}
	if records == nil {
		records = []models.CoordinationRecord{}
	}
	for i := range records {
		s.annotate(&records[i])
	}

	return &WorkflowView{
		ProjectID: projectID,
		Records:   records,
		Stats:     workflow.Stats(records),
	}, nil
}

// NextTask returns the record UpdateTaskStatus would act on for the agent.
func (s *Service) NextTask(ctx context.Context, projectID, agentID string) (*models.CoordinationRecord, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("%w: projectId is required", ErrInvalidRequest)
	}
	if _, err := s.resolve("target", agentID); err != nil {
		return nil, err
	}

	rec, err := s.db.Store().NextActiveForAgent(ctx, projectID, agentID)
	if errors.Is(err, state.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s in %s", ErrNoPendingTask, agentID, projectID)
	}
	if err != nil {
		return nil, storeError("next task", err)
	}
	s.annotate(rec)
	return rec, nil
}

// ListOverdue returns the in_progress records SweepOverdue would fail now,
// without changing them.
func (s *Service) ListOverdue(ctx context.Context) ([]models.CoordinationRecord, error) {
	overdue, err := state.NewRecoveryManager(s.db).CheckForOverdue(ctx, s.now())
	if err != nil {
		return nil, storeError("list overdue", err)
	}
	for i := range overdue {
		s.annotate(&overdue[i])
	}
	return overdue, nil
}

// SweepOverdue fails every in_progress record whose deadline has passed.
func (s *Service) SweepOverdue(ctx context.Context) ([]models.CoordinationRecord, error) {
	failed, err := state.NewRecoveryManager(s.db).FailOverdue(ctx, s.now())
	if err != nil {
		return nil, storeError("sweep overdue", err)
	}
	for i := range failed {
		s.annotate(&failed[i])
	}
	if len(failed) > 0 {
		s.logger.Warn("Failed overdue coordinations", "count", len(failed))
		s.publish(ctx, events.StatusChanged, failed)
	}
	return failed, nil
}

// ListAgents returns the registered agents sorted by id.
func (s *Service) ListAgents() []models.Agent {
	return s.agents.List()
}

// ListTemplates returns the workflow templates sorted by type.
func (s *Service) ListTemplates() []workflow.Template {
	return s.engine.Catalog().List()
}

// ListProjects summarizes every project with records.
func (s *Service) ListProjects(ctx context.Context) ([]state.ProjectSummary, error) {
	projects, err := s.db.Store().ListProjects(ctx)
	if err != nil {
		return nil, storeError("list projects", err)
	}
	return projects, nil
}

// Agent resolves an agent id.
func (s *Service) Agent(id string) (models.Agent, error) {
	return s.resolve("agent", id)
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return storeError("ping", err)
	}
	return nil
}

func (s *Service) resolve(field, id string) (models.Agent, error) {
	if strings.TrimSpace(id) == "" {
		return models.Agent{}, fmt.Errorf("%w: %s agent id is required", ErrInvalidAgent, field)
	}
	a, err := s.agents.Resolve(id)
	if err != nil {
		return models.Agent{}, fmt.Errorf("%w: %s %q is not a registered agent", ErrInvalidAgent, field, id)
	}
	return a, nil
}

func (s *Service) annotate(rec *models.CoordinationRecord) {
	s.agents.Annotate(rec)
}

func (s *Service) publish(ctx context.Context, typ events.Type, recs []models.CoordinationRecord) {
	for _, rec := range recs {
		if err := s.publisher.Publish(ctx, events.Event{Event: typ, Record: rec, At: s.now().UTC()}); err != nil {
			s.logger.Warn("Failed to publish coordination event", "id", rec.ID, "event", typ, "error", err)
		}
	}
}

// copyTaskData detaches the caller's payload and drops any caller-supplied
// workflow step, which only the engine assigns.
func copyTaskData(d *models.TaskData) *models.TaskData {
	if d == nil {
		return nil
	}
	out := *d
	out.WorkflowStep = 0
	if d.Assignments != nil {
		out.Assignments = make(map[models.Role]string, len(d.Assignments))
		for k, v := range d.Assignments {
			out.Assignments[k] = v
		}
	}
	if d.Extra != nil {
		out.Extra = make(map[string]any, len(d.Extra))
		for k, v := range d.Extra {
			out.Extra[k] = v
		}
	}
	return &out
}
