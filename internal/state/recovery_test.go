package state

import (
	"context"
	"testing"
	"time"

	"github.com/ShayCichocki/agentdesk/pkg/models"
)

func TestNewRecoveryManager(t *testing.T) {
	db := setupTestDB(t)
	rm := NewRecoveryManager(db)
	if rm == nil {
		t.Fatal("NewRecoveryManager returned nil")
	}
	if rm.db != db {
		t.Error("RecoveryManager.db not set correctly")
	}
}

// startRecord inserts a record and moves it to in_progress with the given deadline.
func startRecord(t *testing.T, db *DB, target string, deadline *time.Time) *models.CoordinationRecord {
	t.Helper()
	ctx := context.Background()
	s := db.Store()

	rec := newRecord("p1", "manager", target)
	if err := s.InsertCoordination(ctx, rec); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	started, err := s.UpdateStatus(ctx, StatusUpdate{
		ID: rec.ID, From: models.StatusPending, To: models.StatusInProgress, Deadline: deadline,
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	return started
}

func TestCheckForOverdue_NoRecords(t *testing.T) {
	db := setupTestDB(t)
	rm := NewRecoveryManager(db)

	overdue, err := rm.CheckForOverdue(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("CheckForOverdue failed: %v", err)
	}
	if len(overdue) != 0 {
		t.Errorf("expected no overdue records, got %d", len(overdue))
	}
}

func TestFailOverdue(t *testing.T) {
	db := setupTestDB(t)
	rm := NewRecoveryManager(db)
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	late := startRecord(t, db, "qa_engineer", &past)
	onTime := startRecord(t, db, "devops_engineer", &future)
	noDeadline := startRecord(t, db, "security_engineer", nil)

	overdue, err := rm.CheckForOverdue(ctx, now)
	if err != nil {
		t.Fatalf("CheckForOverdue failed: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != late.ID {
		t.Fatalf("CheckForOverdue = %+v, want only %s", overdue, late.ID)
	}

	failed, err := rm.FailOverdue(ctx, now)
	if err != nil {
		t.Fatalf("FailOverdue failed: %v", err)
	}
	if len(failed) != 1 || failed[0].ID != late.ID {
		t.Fatalf("FailOverdue = %+v, want only %s", failed, late.ID)
	}
	if failed[0].Status != models.StatusFailed || failed[0].Response != DeadlineExceeded {
		t.Errorf("failed record = %s/%q, want failed/%q", failed[0].Status, failed[0].Response, DeadlineExceeded)
	}

	for _, id := range []string{onTime.ID, noDeadline.ID} {
		got, err := db.Store().GetCoordination(ctx, id)
		if err != nil {
			t.Fatalf("GetCoordination failed: %v", err)
		}
		if got.Status != models.StatusInProgress {
			t.Errorf("record %s status = %s, want in_progress", id, got.Status)
		}
	}

	// A second sweep finds nothing left to fail.
	again, err := rm.FailOverdue(ctx, now)
	if err != nil {
		t.Fatalf("second FailOverdue failed: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second sweep failed %d records, want 0", len(again))
	}
}
