package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/audithawk/internal/model"
	"github.com/Veraticus/audithawk/internal/tui/themes"
)

// Config holds the configuration for running the review queue.
type Config struct {
	Input     io.Reader
	Output    io.Writer
	Theme     string
	AltScreen bool
}

// RunReview shows the review queue until the user quits and returns the
// live session with the decisions made.
func RunReview(ctx context.Context, reviewer Reviewer, cfg Config) (*model.AuditSession, error) {
	m, err := New(reviewer, themes.ByName(cfg.Theme))
	if err != nil {
		return nil, err
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.Input != nil {
		opts = append(opts, tea.WithInput(cfg.Input))
	}
	if cfg.Output != nil {
		opts = append(opts, tea.WithOutput(cfg.Output))
	}
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}

	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return nil, fmt.Errorf("review queue failed: %w", err)
	}

	if fm, ok := final.(Model); ok {
		return fm.Session(), nil
	}
	return reviewer.Live()
}
