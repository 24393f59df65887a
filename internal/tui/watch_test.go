package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/agentdesk/internal/coordination"
	"github.com/ShayCichocki/agentdesk/pkg/models"
)

func staticFetcher(view *coordination.WorkflowView, err error) Fetcher {
	return func(ctx context.Context, projectID string) (*coordination.WorkflowView, error) {
		return view, err
	}
}

func TestWatchModel_LoadsAndRenders(t *testing.T) {
	view := &coordination.WorkflowView{
		ProjectID: "p1",
		Records: []models.CoordinationRecord{
			{ID: "a", InitiatorAgentID: "manager", TargetAgentID: "qa_engineer", Status: models.StatusInProgress, Message: "Test it"},
		},
		Stats: models.WorkflowStats{Total: 1, InProgress: 1},
	}
	m := NewWatchModel("p1", staticFetcher(view, nil), time.Second)

	msg := m.load()()
	wm, ok := msg.(WorkflowMsg)
	if !ok {
		t.Fatalf("load produced %T, want WorkflowMsg", msg)
	}

	next, cmd := m.Update(wm)
	if cmd == nil {
		t.Error("expected a tick to be scheduled after a fetch")
	}
	out := next.View()
	if !strings.Contains(out, "qa_engineer") || !strings.Contains(out, "updated ") {
		t.Errorf("unexpected view:\n%s", out)
	}
}

func TestWatchModel_ShowsErrorKeepsLastView(t *testing.T) {
	view := &coordination.WorkflowView{ProjectID: "p1", Records: []models.CoordinationRecord{}}
	m := NewWatchModel("p1", nil, time.Second)

	next, _ := m.Update(WorkflowMsg{View: view, At: time.Now()})
	next, _ = next.Update(WorkflowMsg{Err: coordination.ErrStoreUnavailable})

	out := next.View()
	if !strings.Contains(out, "StoreUnavailable") {
		t.Errorf("error kind not shown:\n%s", out)
	}
	if !strings.Contains(out, "No coordination records.") {
		t.Errorf("last good view dropped:\n%s", out)
	}
}

func TestWatchModel_Keys(t *testing.T) {
	m := NewWatchModel("p1", staticFetcher(nil, errors.New("x")), time.Second)
	m.loading = false

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil || !next.(WatchModel).loading {
		t.Error("'r' should start a refresh")
	}

	// A second refresh while loading is ignored.
	_, cmd = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd != nil {
		t.Error("refresh while loading should be a no-op")
	}

	quit, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("'q' should return tea.Quit")
	}
	if quit.View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestWatchModel_TickSkipsWhileLoading(t *testing.T) {
	m := NewWatchModel("p1", nil, time.Second)
	if _, cmd := m.Update(tickMsg(time.Now())); cmd != nil {
		t.Error("tick while loading should not start another fetch")
	}

	m.loading = false
	next, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil || !next.(WatchModel).loading {
		t.Error("tick should start a fetch when idle")
	}
}
