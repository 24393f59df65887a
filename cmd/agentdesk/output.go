package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/ShayCichocki/agentdesk/pkg/models"
)

// printStatus prints a colored symbol followed by a message.
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var statusColors = map[models.CoordinationStatus]color.Attribute{
	models.StatusPending:    color.FgYellow,
	models.StatusInProgress: color.FgCyan,
	models.StatusCompleted:  color.FgGreen,
	models.StatusFailed:     color.FgRed,
	models.StatusWaiting:    color.FgHiBlack,
}

// printRecord prints one record on a line.
func printRecord(prefix string, rec models.CoordinationRecord) {
	status := color.New(statusColors[rec.Status]).Sprintf("%-11s", rec.Status)
	step := ""
	if rec.TaskData.HasWorkflowStep() {
		step = fmt.Sprintf(" step %d", rec.TaskData.WorkflowStep)
	}
	fmt.Printf("%s%s %s %s -> %s%s  %s\n", prefix, status, shortID(rec.ID),
		rec.InitiatorAgentID, rec.TargetAgentID, step, firstLine(rec.Message))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
