package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/desertthunder/flickx/internal/tasks"
	"github.com/desertthunder/flickx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.config.Log.ParsedLevel())
	r.SetLogger(fileLogger)

	client, err := r.apiClient()
	if err != nil {
		return err
	}
	acct, err := r.account(ctx)
	if err != nil {
		return err
	}
	defer acct.teardown()

	filter := tasks.Filter{}
	if prefs, err := r.savedPreferences(); err == nil {
		filter = tasks.FromPreferences(prefs)
	}

	model := ui.NewModel(ctx, ui.Options{
		Session:  acct.session,
		Likes:    acct.likes,
		Wishlist: acct.wishlist,
		Client:   client,
		Filter:   filter,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
