package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/agentdesk/internal/coordination"
	"github.com/ShayCichocki/agentdesk/internal/registry"
	"github.com/ShayCichocki/agentdesk/internal/state"
	"github.com/ShayCichocki/agentdesk/internal/workflow"
	"github.com/ShayCichocki/agentdesk/pkg/models"
)

// setupTestServer wires a server over a temp database and returns a test server.
func setupTestServer(t *testing.T) (*httptest.Server, *state.DB) {
	t.Helper()
	db, err := state.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	agents := registry.Default()
	svc := coordination.NewService(db, agents, workflow.NewEngine(workflow.Builtin(), agents),
		coordination.Options{Logger: logger})

	srv := httptest.NewServer(New(svc, Config{}, logger).Handler())
	t.Cleanup(srv.Close)
	return srv, db
}

func post(t *testing.T, srv *httptest.Server, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/coordination", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func delegateWebApp(t *testing.T, srv *httptest.Server) CoordinationResponse {
	t.Helper()
	resp := post(t, srv, CoordinationRequest{
		Action:           ActionDelegateTask,
		ProjectID:        "p1",
		InitiatorAgentID: "manager",
		TargetAgentID:    "manager",
		CoordinationType: models.CoordinationDelegate,
		Message:          "Initialize project",
		TaskData:         &models.TaskData{WorkflowType: "create_web_app"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[CoordinationResponse](t, resp)
}

func TestDelegateTask_HTTP(t *testing.T) {
	srv, _ := setupTestServer(t)

	body := delegateWebApp(t, srv)
	assert.True(t, body.Success)
	require.NotNil(t, body.Coordination)
	assert.Equal(t, models.StatusPending, body.Coordination.Status)
	require.NotNil(t, body.Coordination.Target)
	assert.Equal(t, models.RoleManager, body.Coordination.Target.Role)
	require.Len(t, body.Workflow, 7)
	assert.Equal(t, models.StatusPending, body.Workflow[0].Status)
	for _, r := range body.Workflow[1:] {
		assert.Equal(t, models.StatusWaiting, r.Status)
	}
}

func TestUpdateAndGetWorkflow_HTTP(t *testing.T) {
	srv, _ := setupTestServer(t)
	created := delegateWebApp(t, srv)
	step1 := created.Workflow[0]

	resp := post(t, srv, CoordinationRequest{
		Action: ActionUpdateTaskStatus, ProjectID: "p1", TargetAgentID: step1.TargetAgentID,
		Status: models.StatusCompleted, Message: "done",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	upd := decode[CoordinationResponse](t, resp)
	assert.Equal(t, step1.ID, upd.Coordination.ID)
	assert.Equal(t, "done", upd.Coordination.Response)
	require.Len(t, upd.Promoted, 1)
	assert.Equal(t, created.Workflow[1].ID, upd.Promoted[0].ID)

	resp = post(t, srv, CoordinationRequest{Action: ActionGetProjectWorkflow, ProjectID: "p1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[WorkflowResponse](t, resp)
	assert.Len(t, view.Workflow, 8)
	assert.Equal(t, models.WorkflowStats{Total: 8, Pending: 2, Completed: 1, Waiting: 5}, view.Stats)

	// The REST-style read returns the same view.
	getResp, err := http.Get(srv.URL + "/coordination/p1")
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	assert.Equal(t, view.Stats, decode[WorkflowResponse](t, getResp).Stats)
}

func TestGetWorkflow_EmptyProjectHasEmptyList(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp := post(t, srv, CoordinationRequest{Action: ActionGetProjectWorkflow, ProjectID: "nothing-here"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.JSONEq(t, `[]`, string(raw["workflow"]))
	assert.JSONEq(t, `{"total":0,"pending":0,"in_progress":0,"completed":0,"failed":0,"waiting":0}`, string(raw["stats"]))
}

func TestErrors_HTTP(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   coordination.Kind
	}{
		{
			name:       "unknown target agent",
			body:       CoordinationRequest{Action: ActionDelegateTask, ProjectID: "p1", InitiatorAgentID: "manager", TargetAgentID: "intern"},
			wantStatus: http.StatusBadRequest,
			wantCode:   coordination.KindInvalidAgent,
		},
		{
			name: "unknown workflow type",
			body: CoordinationRequest{Action: ActionDelegateTask, ProjectID: "p1", InitiatorAgentID: "manager", TargetAgentID: "manager",
				TaskData: &models.TaskData{WorkflowType: "build_spaceship"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   coordination.KindUnknownWorkflowType,
		},
		{
			name:       "nothing pending",
			body:       CoordinationRequest{Action: ActionUpdateTaskStatus, ProjectID: "p1", TargetAgentID: "qa_engineer", Status: models.StatusCompleted},
			wantStatus: http.StatusNotFound,
			wantCode:   coordination.KindNoPendingTask,
		},
		{
			name:       "caller sets waiting",
			body:       CoordinationRequest{Action: ActionUpdateTaskStatus, ProjectID: "p1", TargetAgentID: "qa_engineer", Status: models.StatusWaiting},
			wantStatus: http.StatusConflict,
			wantCode:   coordination.KindInvalidTransition,
		},
		{
			name:       "unknown action",
			body:       map[string]string{"action": "cancel_task", "projectId": "p1"},
			wantStatus: http.StatusBadRequest,
			wantCode:   coordination.KindInvalidRequest,
		},
		{
			name:       "missing project",
			body:       CoordinationRequest{Action: ActionGetProjectWorkflow},
			wantStatus: http.StatusBadRequest,
			wantCode:   coordination.KindInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := setupTestServer(t)
			resp := post(t, srv, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := decode[ErrorResponse](t, resp)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestAgentBusy_HTTP(t *testing.T) {
	srv, _ := setupTestServer(t)
	req := CoordinationRequest{Action: ActionAgentHandoff, ProjectID: "p1", InitiatorAgentID: "qa_engineer", TargetAgentID: "devops_engineer", Message: "ship it"}

	resp := post(t, srv, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, models.CoordinationHandoff, decode[CoordinationResponse](t, resp).Coordination.CoordinationType)

	resp = post(t, srv, req)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, coordination.KindAgentBusy, decode[ErrorResponse](t, resp).Code)
}

func TestMalformedBody_HTTP(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp, err := http.Post(srv.URL+"/coordination", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, coordination.KindInvalidRequest, decode[ErrorResponse](t, resp).Code)

	big := `{"action":"delegate_task","message":"` + strings.Repeat("x", maxRequestBodySize) + `"}`
	resp2, err := http.Post(srv.URL+"/coordination", "application/json", strings.NewReader(big))
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestMethodNotAllowed_HTTP(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp, err := http.Get(srv.URL + "/coordination")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestListings_HTTP(t *testing.T) {
	srv, _ := setupTestServer(t)
	delegateWebApp(t, srv)

	resp, err := http.Get(srv.URL + "/agents")
	require.NoError(t, err)
	defer resp.Body.Close()
	agents := decode[map[string][]models.Agent](t, resp)
	assert.Len(t, agents["agents"], 10)

	resp2, err := http.Get(srv.URL + "/workflows")
	require.NoError(t, err)
	defer resp2.Body.Close()
	wfs := decode[map[string][]workflow.Template](t, resp2)
	require.Len(t, wfs["workflows"], 4)
	assert.Equal(t, "create_api_service", wfs["workflows"][0].Type)

	resp3, err := http.Get(srv.URL + "/projects")
	require.NoError(t, err)
	defer resp3.Body.Close()
	projects := decode[map[string][]projectJSON](t, resp3)
	require.Len(t, projects["projects"], 1)
	assert.Equal(t, 8, projects["projects"][0].Records)
}

func TestHealthAndMetrics_HTTP(t *testing.T) {
	srv, db := setupTestServer(t)
	delegateWebApp(t, srv)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	metricsResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	data, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `agentdesk_requests_total{action="delegate_task",code="ok"} 1`)
	assert.Contains(t, string(data), "agentdesk_request_duration_seconds")

	require.NoError(t, db.Close())
	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	_, db := setupTestServer(t)
	agents := registry.Default()
	svc := coordination.NewService(db, agents, workflow.NewEngine(workflow.Builtin(), agents), coordination.Options{})
	s := New(svc, Config{Addr: "127.0.0.1:0"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	cancel()
	assert.NoError(t, <-done)
}

func TestRequestContext_SurvivesShutdown(t *testing.T) {
	type key struct{}
	parent, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "agentdesk"))
	base := requestContext(parent)(nil)

	cancel()
	require.Error(t, parent.Err())
	assert.NoError(t, base.Err(), "request context must outlive the serve context")
	assert.Equal(t, "agentdesk", base.Value(key{}))
}
