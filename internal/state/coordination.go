package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/agentdesk/pkg/models"
)

var (
	// ErrNotFound is returned when no record matches a lookup.
	ErrNotFound = errors.New("coordination record not found")
	// ErrConflict is returned when a conditional status update matched no row
	// because the record is no longer in the expected status.
	ErrConflict = errors.New("coordination record changed concurrently")
)

// Querier is the subset of *sql.DB and *sql.Tx used by Store.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store reads and writes coordination records through a Querier.
// Stores obtained from DB.Transaction share that transaction.
type Store struct {
	q   Querier
	now func() time.Time
}

// StatusUpdate describes a compare-and-swap status change.
type StatusUpdate struct {
	ID   string
	From models.CoordinationStatus
	To   models.CoordinationStatus
	// Response replaces the stored response when non-nil.
	Response *string
	// Deadline replaces the stored deadline when non-nil.
	Deadline *time.Time
}

// ProjectSummary is a per-project rollup used by listings.
type ProjectSummary struct {
	ProjectID    string
	Records      int
	LastActivity time.Time
}

const coordinationColumns = `id, project_id, initiator_agent_id, target_agent_id, coordination_type,
	message, task_data, status, response, deadline, created_at, updated_at`

// InsertCoordination inserts a record, assigning its id and timestamps when unset.
func (s *Store) InsertCoordination(ctx context.Context, rec *models.CoordinationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}
	rec.UpdatedAt = rec.CreatedAt

	var taskData sql.NullString
	if rec.TaskData != nil {
		data, err := json.Marshal(rec.TaskData)
		if err != nil {
			return fmt.Errorf("marshal task data: %w", err)
		}
		taskData = sql.NullString{String: string(data), Valid: true}
	}

	var workflowType sql.NullString
	if wt := rec.WorkflowType(); wt != "" {
		workflowType = sql.NullString{String: wt, Valid: true}
	}
	var workflowStep sql.NullInt64
	if step := rec.WorkflowStep(); step > 0 {
		workflowStep = sql.NullInt64{Int64: int64(step), Valid: true}
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO coordinations (
			id, project_id, initiator_agent_id, target_agent_id, coordination_type,
			message, task_data, workflow_type, workflow_step, status, response,
			deadline, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID, rec.ProjectID, rec.InitiatorAgentID, rec.TargetAgentID, rec.CoordinationType,
		rec.Message, taskData, workflowType, workflowStep, rec.Status, rec.Response,
		formatNullableTime(rec.Deadline), formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert coordination: %w", err)
	}
	return nil
}

// GetCoordination retrieves a record by id.
func (s *Store) GetCoordination(ctx context.Context, id string) (*models.CoordinationRecord, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+coordinationColumns+` FROM coordinations WHERE id = ?`, id)
	rec, err := scanCoordination(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get coordination: %w", err)
	}
	return rec, nil
}

// NextActiveForAgent returns the record an agent should act on next:
// the oldest in_progress record, else the oldest pending one.
func (s *Store) NextActiveForAgent(ctx context.Context, projectID, agentID string) (*models.CoordinationRecord, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+coordinationColumns+` FROM coordinations
		WHERE project_id = ? AND target_agent_id = ? AND status IN ('in_progress', 'pending')
		ORDER BY CASE status WHEN 'in_progress' THEN 0 ELSE 1 END, created_at, rowid
		LIMIT 1
	`, projectID, agentID)
	rec, err := scanCoordination(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no active record for %s in %s", ErrNotFound, agentID, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("next active coordination: %w", err)
	}
	return rec, nil
}

// CountPendingForAgent counts pending records targeting an agent in a project.
func (s *Store) CountPendingForAgent(ctx context.Context, projectID, agentID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM coordinations
		WHERE project_id = ? AND target_agent_id = ? AND status = 'pending'
	`, projectID, agentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return n, nil
}

// UpdateStatus changes a record's status only if it is still in u.From.
// It returns ErrConflict when the record moved on, and ErrNotFound when it does not exist.
func (s *Store) UpdateStatus(ctx context.Context, u StatusUpdate) (*models.CoordinationRecord, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE coordinations
		SET status = ?, response = COALESCE(?, response), deadline = COALESCE(?, deadline), updated_at = ?
		WHERE id = ? AND status = ?
	`, u.To, u.Response, formatNullableTime(u.Deadline), formatTime(s.now()), u.ID, u.From)
	if err != nil {
		return nil, fmt.Errorf("update coordination status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}

	if n == 0 {
		if _, err := s.GetCoordination(ctx, u.ID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s is no longer %s", ErrConflict, u.ID, u.From)
	}

	return s.GetCoordination(ctx, u.ID)
}

// ListByProject returns a project's records in creation order.
func (s *Store) ListByProject(ctx context.Context, projectID string) ([]models.CoordinationRecord, error) {
	return s.list(ctx, `
		SELECT `+coordinationColumns+` FROM coordinations
		WHERE project_id = ?
		ORDER BY created_at, rowid
	`, projectID)
}

// ListWaitingForStep returns waiting records at a given workflow step.
func (s *Store) ListWaitingForStep(ctx context.Context, projectID, workflowType string, step int) ([]models.CoordinationRecord, error) {
	return s.list(ctx, `
		SELECT `+coordinationColumns+` FROM coordinations
		WHERE project_id = ? AND workflow_type = ? AND workflow_step = ? AND status = 'waiting'
		ORDER BY created_at, rowid
	`, projectID, workflowType, step)
}

// CountWorkflowSteps counts the generated step records of a workflow in a project.
func (s *Store) CountWorkflowSteps(ctx context.Context, projectID, workflowType string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM coordinations
		WHERE project_id = ? AND workflow_type = ? AND workflow_step IS NOT NULL
	`, projectID, workflowType).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count workflow steps: %w", err)
	}
	return n, nil
}

// ListOverdue returns in_progress records whose deadline is before now.
func (s *Store) ListOverdue(ctx context.Context, now time.Time) ([]models.CoordinationRecord, error) {
	return s.list(ctx, `
		SELECT `+coordinationColumns+` FROM coordinations
		WHERE status = 'in_progress' AND deadline IS NOT NULL AND deadline < ?
		ORDER BY deadline, rowid
	`, formatTime(now))
}

// ListProjects summarizes every project that has records, most recent first.
func (s *Store) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT project_id, COUNT(*), MAX(updated_at) FROM coordinations
		GROUP BY project_id
		ORDER BY MAX(updated_at) DESC, project_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []ProjectSummary
	for rows.Next() {
		var p ProjectSummary
		var last string
		if err := rows.Scan(&p.ProjectID, &p.Records, &last); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		if p.LastActivity, err = parseTime(last); err != nil {
			return nil, fmt.Errorf("parse last activity: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]models.CoordinationRecord, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query coordinations: %w", err)
	}
	defer rows.Close()

	var out []models.CoordinationRecord
	for rows.Next() {
		rec, err := scanCoordination(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coordination: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoordination(row rowScanner) (*models.CoordinationRecord, error) {
	var rec models.CoordinationRecord
	var taskData, deadline sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&rec.ID, &rec.ProjectID, &rec.InitiatorAgentID, &rec.TargetAgentID, &rec.CoordinationType,
		&rec.Message, &taskData, &rec.Status, &rec.Response, &deadline, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if taskData.Valid {
		rec.TaskData = &models.TaskData{}
		if err := json.Unmarshal([]byte(taskData.String), rec.TaskData); err != nil {
			return nil, fmt.Errorf("decode task data for %s: %w", rec.ID, err)
		}
	}
	rec.Deadline = parseNullableTime(deadline)
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &rec, nil
}
