// Package tui renders project workflows in the terminal.
//
// RenderWorkflow draws a project's records as a table with a progress line and
// is shared by the status command and the live view. WatchModel is a
// read-only bubbletea program that polls a project and redraws it:
//
//	m := tui.NewWatchModel("p1", svc.GetProjectWorkflow, 2*time.Second)
//	_, err := tea.NewProgram(m).Run()
//
// Users can refresh with 'r' and quit with 'q' or Ctrl+C.
package tui
