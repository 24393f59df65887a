package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/agentdesk/internal/coordination"
)

// Fetcher loads a project's workflow. coordination.Service.GetProjectWorkflow fits.
type Fetcher func(ctx context.Context, projectID string) (*coordination.WorkflowView, error)

// WorkflowMsg carries the result of one fetch.
type WorkflowMsg struct {
	View *coordination.WorkflowView
	Err  error
	At   time.Time
}

type tickMsg time.Time

// WatchModel is the bubbletea model for the live project view.
type WatchModel struct {
	projectID string
	fetch     Fetcher
	interval  time.Duration

	spinner  spinner.Model
	view     *coordination.WorkflowView
	err      error
	updated  time.Time
	loading  bool
	width    int
	quitting bool
}

// NewWatchModel creates a model that polls projectID every interval.
func NewWatchModel(projectID string, fetch Fetcher, interval time.Duration) WatchModel {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return WatchModel{
		projectID: projectID,
		fetch:     fetch,
		interval:  interval,
		spinner:   s,
		loading:   true,
		width:     120,
	}
}

// Init implements tea.Model.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m WatchModel) load() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		view, err := m.fetch(ctx, m.projectID)
		return WorkflowMsg{View: view, Err: err, At: time.Now()}
	}
}

func (m WatchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.load()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case WorkflowMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			m.view = msg.View
			m.updated = msg.At
		}
		return m, m.tick()

	case tickMsg:
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.load()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	if m.view != nil {
		b.WriteString(RenderWorkflow(m.projectID, m.view.Records, m.view.Stats, m.width))
	} else {
		b.WriteString(headerStyle.Render("Project " + m.projectID))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("%s: %v", coordination.Code(m.err), m.err)))
		b.WriteString("\n")
	}

	status := "idle"
	if m.loading {
		status = m.spinner.View() + " refreshing"
	} else if !m.updated.IsZero() {
		status = "updated " + m.updated.Format("15:04:05")
	}
	b.WriteString(labelStyle.Render(status + "  ·  r refresh  ·  q quit"))
	return b.String()
}
