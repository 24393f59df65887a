package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ShayCichocki/agentdesk/internal/coordination"
	"github.com/ShayCichocki/agentdesk/internal/workflow"
	"github.com/ShayCichocki/agentdesk/pkg/models"
)

// maxRequestBodySize limits POST body sizes.
const maxRequestBodySize = 1 << 20 // 1 MB

// Actions accepted by POST /coordination.
const (
	ActionDelegateTask       = "delegate_task"
	ActionUpdateTaskStatus   = "update_task_status"
	ActionGetProjectWorkflow = "get_project_workflow"
	ActionAgentHandoff       = "agent_handoff"
)

// CoordinationRequest is the body of POST /coordination.
type CoordinationRequest struct {
	Action           string                    `json:"action"`
	ProjectID        string                    `json:"projectId"`
	InitiatorAgentID string                    `json:"initiatorAgentId,omitempty"`
	TargetAgentID    string                    `json:"targetAgentId,omitempty"`
	CoordinationType models.CoordinationType   `json:"coordinationType,omitempty"`
	Message          string                    `json:"message"`
	TaskData         *models.TaskData          `json:"taskData,omitempty"`
	Status           models.CoordinationStatus `json:"status,omitempty"`
	CoordinationID   string                    `json:"coordinationId,omitempty"`
	Deadline         *time.Time                `json:"deadline,omitempty"`
}

// CoordinationResponse is the success body for delegate, update and handoff.
type CoordinationResponse struct {
	Success      bool                        `json:"success"`
	Coordination *models.CoordinationRecord  `json:"coordination,omitempty"`
	Workflow     []models.CoordinationRecord `json:"workflow,omitempty"`
	Promoted     []models.CoordinationRecord `json:"promoted,omitempty"`
}

// WorkflowResponse is the success body of get_project_workflow.
type WorkflowResponse struct {
	Success  bool                        `json:"success"`
	Workflow []models.CoordinationRecord `json:"workflow"`
	Stats    models.WorkflowStats        `json:"stats"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string            `json:"error"`
	Code  coordination.Kind `json:"code"`
}

// RegisterHTTPHandlers registers the coordination endpoints under prefix.
// The prefix is a path without a trailing slash ("" for the root):
//
//	POST <prefix>/coordination
//	GET  <prefix>/coordination/{projectId}
//	GET  <prefix>/agents
//	GET  <prefix>/workflows
//	GET  <prefix>/projects
//	GET  <prefix>/healthz
//	GET  <prefix>/metrics
func (s *Server) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}

	mux.HandleFunc("POST "+prefix+"/coordination", s.handleCoordination)
	mux.HandleFunc("GET "+prefix+"/coordination/{projectId}", s.handleGetWorkflow)
	mux.HandleFunc("GET "+prefix+"/agents", s.handleAgents)
	mux.HandleFunc("GET "+prefix+"/workflows", s.handleWorkflows)
	mux.HandleFunc("GET "+prefix+"/projects", s.handleProjects)
	mux.HandleFunc("GET "+prefix+"/healthz", s.handleHealth)
	mux.Handle("GET "+prefix+"/metrics", s.metrics.handler())
}

// handleCoordination dispatches POST /coordination on the action field.
func (s *Server) handleCoordination(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req CoordinationRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		s.fail(w, r, "invalid", start, fmt.Errorf("%w: decode body: %w", coordination.ErrInvalidRequest, err))
		return
	}

	ctx := r.Context()
	switch req.Action {
	case ActionDelegateTask:
		res, err := s.svc.DelegateTask(ctx, coordination.DelegateRequest{
			ProjectID:        req.ProjectID,
			InitiatorAgentID: req.InitiatorAgentID,
			TargetAgentID:    req.TargetAgentID,
			CoordinationType: req.CoordinationType,
			Message:          req.Message,
			TaskData:         req.TaskData,
			Deadline:         req.Deadline,
		})
		if err != nil {
			s.fail(w, r, req.Action, start, err)
			return
		}
		s.ok(w, req.Action, start, http.StatusCreated, CoordinationResponse{
			Success:      true,
			Coordination: &res.Coordination,
			Workflow:     res.Workflow,
		})

	case ActionUpdateTaskStatus:
		res, err := s.svc.UpdateTaskStatus(ctx, coordination.UpdateRequest{
			ProjectID:      req.ProjectID,
			TargetAgentID:  req.TargetAgentID,
			Status:         req.Status,
			Message:        req.Message,
			CoordinationID: req.CoordinationID,
		})
		if err != nil {
			s.fail(w, r, req.Action, start, err)
			return
		}
		s.ok(w, req.Action, start, http.StatusOK, CoordinationResponse{
			Success:      true,
			Coordination: &res.Coordination,
			Promoted:     res.Promoted,
		})

	case ActionGetProjectWorkflow:
		s.writeWorkflow(w, r, req.Action, req.ProjectID, start)

	case ActionAgentHandoff:
		rec, err := s.svc.AgentHandoff(ctx, coordination.HandoffRequest{
			ProjectID:        req.ProjectID,
			InitiatorAgentID: req.InitiatorAgentID,
			TargetAgentID:    req.TargetAgentID,
			Message:          req.Message,
			TaskData:         req.TaskData,
			Deadline:         req.Deadline,
		})
		if err != nil {
			s.fail(w, r, req.Action, start, err)
			return
		}
		s.ok(w, req.Action, start, http.StatusCreated, CoordinationResponse{
			Success:      true,
			Coordination: rec,
		})

	default:
		s.fail(w, r, "invalid", start, fmt.Errorf("%w: unknown action %q", coordination.ErrInvalidRequest, req.Action))
	}
}

// handleGetWorkflow handles GET /coordination/{projectId}.
func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	s.writeWorkflow(w, r, ActionGetProjectWorkflow, r.PathValue("projectId"), time.Now())
}

func (s *Server) writeWorkflow(w http.ResponseWriter, r *http.Request, action, projectID string, start time.Time) {
	view, err := s.svc.GetProjectWorkflow(r.Context(), projectID)
	if err != nil {
		s.fail(w, r, action, start, err)
		return
	}
	s.ok(w, action, start, http.StatusOK, WorkflowResponse{
		Success:  true,
		Workflow: view.Records,
		Stats:    view.Stats,
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]models.Agent{"agents": s.svc.ListAgents()})
}

func (s *Server) handleWorkflows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]workflow.Template{"workflows": s.svc.ListTemplates()})
}

type projectJSON struct {
	ProjectID    string    `json:"projectId"`
	Records      int       `json:"records"`
	LastActivity time.Time `json:"lastActivity"`
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.svc.ListProjects(r.Context())
	if err != nil {
		s.fail(w, r, "list_projects", time.Now(), err)
		return
	}
	out := make([]projectJSON, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectJSON{ProjectID: p.ProjectID, Records: p.Records, LastActivity: p.LastActivity})
	}
	writeJSON(w, http.StatusOK, map[string][]projectJSON{"projects": out})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		s.logger.Error("Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ok(w http.ResponseWriter, action string, start time.Time, status int, body any) {
	s.metrics.observe(action, "ok", start)
	writeJSON(w, status, body)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, action string, start time.Time, err error) {
	kind := coordination.Code(err)
	status := statusFor(kind)
	s.metrics.observe(action, string(kind), start)

	if status >= http.StatusInternalServerError {
		s.logger.Error("Coordination request failed", "action", action, "code", kind, "error", err)
	} else {
		s.logger.Info("Coordination request rejected", "action", action, "code", kind, "error", err,
			"remote", r.RemoteAddr)
	}

	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: kind})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind coordination.Kind) int {
	switch kind {
	case coordination.KindInvalidRequest, coordination.KindInvalidAgent,
		coordination.KindUnknownWorkflowType, coordination.KindRoleMismatch:
		return http.StatusBadRequest
	case coordination.KindNoPendingTask:
		return http.StatusNotFound
	case coordination.KindInvalidTransition, coordination.KindAgentBusy, coordination.KindWorkflowExists:
		return http.StatusConflict
	case coordination.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON marshals v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
