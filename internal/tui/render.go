package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ShayCichocki/agentdesk/pkg/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("238"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	progressFull  = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	progressEmpty = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	statusColors = map[models.CoordinationStatus]lipgloss.Color{
		models.StatusPending:    lipgloss.Color("214"),
		models.StatusInProgress: lipgloss.Color("45"),
		models.StatusCompleted:  lipgloss.Color("34"),
		models.StatusFailed:     lipgloss.Color("196"),
		models.StatusWaiting:    lipgloss.Color("240"),
	}
)

// StatusStyle returns the color used for a status.
func StatusStyle(s models.CoordinationStatus) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(statusColors[s])
}

// RenderWorkflow renders the records of a project as a table followed by the
// status counts.
func RenderWorkflow(projectID string, records []models.CoordinationRecord, stats models.WorkflowStats, width int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Project " + projectID))
	b.WriteString("\n")

	if len(records) == 0 {
		b.WriteString(labelStyle.Render("No coordination records."))
		b.WriteString("\n")
		return b.String()
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			stepLabel(r),
			string(r.CoordinationType),
			r.InitiatorAgentID,
			r.TargetAgentID,
			string(r.Status),
			truncate(r.Message, messageWidth(width)),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))).
		Headers("STEP", "TYPE", "FROM", "TO", "STATUS", "MESSAGE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cellStyle.Bold(true)
			}
			if col == 4 && row >= 0 && row < len(records) {
				return cellStyle.Inherit(StatusStyle(records[row].Status))
			}
			return cellStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(ProgressBar(stats.Completed, stats.Total, 30))
	b.WriteString("\n")
	b.WriteString(StatsLine(stats))
	b.WriteString("\n")
	return b.String()
}

// StatsLine renders the status counts on one line.
func StatsLine(s models.WorkflowStats) string {
	parts := []string{
		labelStyle.Render(fmt.Sprintf("total %d", s.Total)),
		StatusStyle(models.StatusPending).Render(fmt.Sprintf("pending %d", s.Pending)),
		StatusStyle(models.StatusInProgress).Render(fmt.Sprintf("in_progress %d", s.InProgress)),
		StatusStyle(models.StatusCompleted).Render(fmt.Sprintf("completed %d", s.Completed)),
		StatusStyle(models.StatusFailed).Render(fmt.Sprintf("failed %d", s.Failed)),
		StatusStyle(models.StatusWaiting).Render(fmt.Sprintf("waiting %d", s.Waiting)),
	}
	return strings.Join(parts, "  ")
}

// ProgressBar renders done/total as a bar of the given width.
func ProgressBar(done, total, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	if filled > width {
		filled = width
	}
	bar := progressFull.Render(strings.Repeat("█", filled)) +
		progressEmpty.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %d/%d", bar, done, total)
}

func stepLabel(r models.CoordinationRecord) string {
	if r.TaskData.HasWorkflowStep() {
		return fmt.Sprintf("%d", r.TaskData.WorkflowStep)
	}
	return "-"
}

func messageWidth(width int) int {
	// The fixed columns take roughly 80 cells.
	if w := width - 80; w > 20 {
		return w
	}
	return 40
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
