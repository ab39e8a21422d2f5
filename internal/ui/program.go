package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"voice-quiz/internal/domain"
)

// Run shows the TUI until the user quits, the update stream closes or ctx is
// cancelled.
func Run(ctx context.Context, initial domain.Snapshot, updates <-chan domain.Snapshot, controls Controls, opts Options) error {
	model := NewModel(initial, updates, controls, opts)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}
