package state

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ShayCichocki/agentdesk/pkg/models"
)

// DeadlineExceeded is the response written to records failed by the sweep.
const DeadlineExceeded = "deadline exceeded"

// RecoveryManager detects and fails in_progress records whose deadline has passed.
type RecoveryManager struct {
	db Transactor
}

// NewRecoveryManager creates a new RecoveryManager with the given database.
func NewRecoveryManager(db Transactor) *RecoveryManager {
	return &RecoveryManager{db: db}
}

// CheckForOverdue lists overdue records without changing them.
// Returns nil if nothing is overdue.
func (rm *RecoveryManager) CheckForOverdue(ctx context.Context, now time.Time) ([]models.CoordinationRecord, error) {
	recs, err := rm.db.Store().ListOverdue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list overdue: %w", err)
	}
	return recs, nil
}

// FailOverdue transitions every overdue record to failed in one transaction
// and returns the records it changed. Records that finished concurrently
// are skipped.
func (rm *RecoveryManager) FailOverdue(ctx context.Context, now time.Time) ([]models.CoordinationRecord, error) {
	var failed []models.CoordinationRecord

	err := rm.db.Transaction(ctx, func(s *Store) error {
		failed = nil
		overdue, err := s.ListOverdue(ctx, now)
		if err != nil {
			return fmt.Errorf("list overdue: %w", err)
		}

		response := DeadlineExceeded
		for _, rec := range overdue {
			updated, err := s.UpdateStatus(ctx, StatusUpdate{
				ID:       rec.ID,
				From:     models.StatusInProgress,
				To:       models.StatusFailed,
				Response: &response,
			})
			if errors.Is(err, ErrConflict) {
				continue
			}
			if err != nil {
				return fmt.Errorf("fail overdue %s: %w", rec.ID, err)
			}
			failed = append(failed, *updated)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, rec := range failed {
		log.Printf("[recovery] failed overdue record %s (project %s, agent %s, deadline %s)",
			rec.ID, rec.ProjectID, rec.TargetAgentID, rec.Deadline.Format(time.RFC3339))
	}
	return failed, nil
}
