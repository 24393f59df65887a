package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ShayCichocki/agentdesk/internal/coordination"
	"github.com/ShayCichocki/agentdesk/pkg/models"
)

// ErrNoWork is returned by Step when the agent has nothing pending.
var ErrNoWork = errors.New("no work for agent")

// maxHistory bounds how many completed records are replayed to the model.
const maxHistory = 20

// Worker runs one agent's queue through a model.
type Worker struct {
	svc     *coordination.Service
	invoker Invoker
	logger  *slog.Logger
}

// NewWorker creates a worker that answers tasks with invoker.
func NewWorker(svc *coordination.Service, invoker Invoker, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{svc: svc, invoker: invoker, logger: logger.With("component", "worker")}
}

// StepResult describes one processed task.
type StepResult struct {
	Task     models.CoordinationRecord
	Outcome  models.CoordinationRecord
	Promoted []models.CoordinationRecord
	Usage    InvokeResult
}

// Step takes the agent's next task, marks it in_progress, asks the model and
// reports completed with the reply or failed with the model error. A model
// failure is recorded on the task and also returned.
func (w *Worker) Step(ctx context.Context, projectID, agentID string) (*StepResult, error) {
	agent, err := w.svc.Agent(agentID)
	if err != nil {
		return nil, err
	}

	task, err := w.svc.NextTask(ctx, projectID, agentID)
	if errors.Is(err, coordination.ErrNoPendingTask) {
		return nil, ErrNoWork
	}
	if err != nil {
		return nil, err
	}

	if task.Status == models.StatusPending {
		if _, err := w.svc.UpdateTaskStatus(ctx, coordination.UpdateRequest{
			ProjectID:      projectID,
			TargetAgentID:  agentID,
			Status:         models.StatusInProgress,
			Message:        "started",
			CoordinationID: task.ID,
		}); err != nil {
			return nil, fmt.Errorf("start %s: %w", task.ID, err)
		}
	}

	view, err := w.svc.GetProjectWorkflow(ctx, projectID)
	if err != nil {
		return nil, err
	}

	w.logger.Info("Invoking model", "project", projectID, "agent", agentID, "task", task.ID)
	result, invokeErr := w.invoker.InvokeModel(ctx, InvokeRequest{
		AgentID:      agentID,
		SystemPrompt: SystemPrompt(agent),
		History:      History(view.Records, task.ID),
		UserMessage:  TaskPrompt(*task),
	})

	status, message := models.StatusCompleted, ""
	if invokeErr != nil {
		status, message = models.StatusFailed, invokeErr.Error()
	} else {
		message = result.Text
	}

	// The outcome is recorded even if ctx was cancelled during the call, so
	// the task does not stay in_progress.
	upd, err := w.svc.UpdateTaskStatus(context.WithoutCancel(ctx), coordination.UpdateRequest{
		ProjectID:      projectID,
		TargetAgentID:  agentID,
		Status:         status,
		Message:        message,
		CoordinationID: task.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("report %s as %s: %w", task.ID, status, err)
	}

	out := &StepResult{Task: *task, Outcome: upd.Coordination, Promoted: upd.Promoted}
	if invokeErr != nil {
		w.logger.Warn("Model invocation failed", "task", task.ID, "error", invokeErr)
		return out, invokeErr
	}
	out.Usage = *result
	w.logger.Info("Task completed", "task", task.ID, "tokens", result.TokensUsed,
		"cost", fmt.Sprintf("$%.4f", result.Cost), "promoted", len(upd.Promoted))
	return out, nil
}

// Drain runs Step until the agent has no work left or ctx is cancelled.
func (w *Worker) Drain(ctx context.Context, projectID, agentID string) ([]StepResult, error) {
	var done []StepResult
	for {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		res, err := w.Step(ctx, projectID, agentID)
		if errors.Is(err, ErrNoWork) {
			return done, nil
		}
		if res != nil {
			done = append(done, *res)
		}
		if err != nil {
			return done, err
		}
	}
}

// SystemPrompt describes the agent to the model.
func SystemPrompt(agent models.Agent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, the %s on a software delivery team.\n", agent.Name, strings.ReplaceAll(string(agent.Role), "_", " "))
	if agent.Description != "" {
		sb.WriteString(agent.Description)
		sb.WriteString("\n")
	}
	if len(agent.Capabilities) > 0 {
		fmt.Fprintf(&sb, "Your capabilities: %s.\n", strings.Join(agent.Capabilities, ", "))
	}
	sb.WriteString("Reply with the finished deliverable for the task. Be concrete and concise.")
	return sb.String()
}

// TaskPrompt renders the task as the user message.
func TaskPrompt(task models.CoordinationRecord) string {
	var sb strings.Builder
	if task.TaskData.HasWorkflowStep() {
		fmt.Fprintf(&sb, "Workflow %s, step %d.\n", task.TaskData.WorkflowType, task.TaskData.WorkflowStep)
	}
	fmt.Fprintf(&sb, "Task from %s: %s", task.InitiatorAgentID, task.Message)
	return sb.String()
}

// History replays the project's completed records, oldest first, as
// alternating user and assistant turns. The record being worked is skipped.
func History(records []models.CoordinationRecord, skipID string) []Turn {
	var completed []models.CoordinationRecord
	for _, r := range records {
		if r.ID != skipID && r.Status == models.StatusCompleted {
			completed = append(completed, r)
		}
	}
	if len(completed) > maxHistory {
		completed = completed[len(completed)-maxHistory:]
	}

	turns := make([]Turn, 0, 2*len(completed))
	for _, r := range completed {
		response := r.Response
		if response == "" {
			response = "(no response)"
		}
		turns = append(turns,
			Turn{Role: "user", Content: fmt.Sprintf("[%s to %s] %s", r.InitiatorAgentID, r.TargetAgentID, r.Message)},
			Turn{Role: "assistant", Content: response},
		)
	}
	return turns
}
