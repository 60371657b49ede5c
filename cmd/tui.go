package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/dclone/internal/ui"
)

// watch runs the progress view until the task finishes or the user quits.
func (r *Runner) watch(ctx context.Context, fetch ui.ProgressFunc, title string) error {
	model := ui.NewModel(ctx, fetch, ui.WatchOpts{Title: title})
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(r.output))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return model.Err()
}
