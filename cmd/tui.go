package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/contentforge/internal/shared"
	"github.com/desertthunder/contentforge/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive project browser against a running server.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	client := r.apiClient(cmd)
	if _, err := client.Get(ctx, "/healthz"); err != nil {
		return fmt.Errorf("%w: is 'contentforge serve' running at %s? %v", shared.ErrAPIRequest, cmd.String("url"), err)
	}

	model := ui.NewModel(ctx, client, fileLogger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
