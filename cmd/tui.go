package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ridex/internal/shared"
	"github.com/desertthunder/ridex/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive dashboard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logFile := r.config.UI.LogFile
	if logFile == "" {
		logFile = "./tmp/ridex-tui.log"
	}
	fileLogger, err := shared.NewFileLogger(logFile)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	d, err := r.newDashboard(ctx, nil)
	if err != nil {
		return err
	}
	defer d.close()

	model := ui.NewModel(ctx, ui.Opts{
		Controller: d.ctrl,
		Catalog:    d.catalog,
		Messages:   r.messages,
		Logger:     fileLogger,
		Clock:      r.clock,
		MapsDir:    cmd.String("maps-dir"),
	})

	if err := ui.Run(ctx, model); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
