package main

import (
	"context"
	"sync"

	"github.com/desertthunder/ridex/internal/controller"
	"github.com/desertthunder/ridex/internal/models"
	"github.com/desertthunder/ridex/internal/repositories"
	"github.com/desertthunder/ridex/internal/shared"
	"github.com/desertthunder/ridex/internal/tasks"
	"github.com/desertthunder/ridex/internal/view"
)

// journal keeps the runs of one command and forwards them to the history store.
type journal struct {
	mu    sync.Mutex
	runs  []*models.Run
	store controller.Recorder
}

func (j *journal) Record(ctx context.Context, run *models.Run) error {
	j.mu.Lock()
	j.runs = append(j.runs, run)
	j.mu.Unlock()

	if j.store == nil {
		return nil
	}
	return j.store.Record(ctx, run)
}

// failure returns the error of the last failed run.
func (j *journal) failure() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := len(j.runs) - 1; i >= 0; i-- {
		if j.runs[i].Outcome == models.Failed {
			return j.runs[i].Error
		}
	}
	return ""
}

// dashboard is a controller with the catalog registered, shared by the
// headless commands and the TUI.
type dashboard struct {
	ctrl      *controller.Controller
	catalog   *tasks.Catalog
	regions   *view.Regions
	selection *tasks.Selection
	journal   *journal
	close     func()
}

// newDashboard builds a controller over the configured backend. History goes
// to the runner's recorder, or to the configured database when none was given;
// a database that cannot be opened only disables history.
func (r *Runner) newDashboard(ctx context.Context, sel *tasks.Selection) (*dashboard, error) {
	d := &dashboard{
		selection: sel,
		journal:   &journal{store: r.recorder},
		close:     func() {},
	}
	if d.selection == nil {
		d.selection = tasks.NewSelection(r.config.Routes)
	}

	if r.recorder == nil {
		if db, err := shared.OpenMigrated(r.config.Database); err != nil {
			r.logger.Warn("history disabled", "path", r.config.Database.Path, "error", err)
		} else {
			d.journal.store = repositories.NewRunRepository(db)
			d.close = func() { db.Close() }
		}
	}

	opts := []view.Option{view.WithClock(r.clock)}
	if ui := r.config.UI; ui.FlashDelay > 0 {
		opts = append(opts, view.WithFlashTiming(ui.FlashDelay, ui.Fade))
	}
	d.regions = view.NewRegions(tasks.Regions, opts...)

	d.ctrl = controller.New(controller.Opts{
		Fetcher:        r.backend,
		Regions:        d.regions,
		Recorder:       d.journal,
		Logger:         shared.WithLogger(r.logger, "component", "controller"),
		Context:        ctx,
		Timeout:        r.config.Backend.Timeout,
		LockWhileBusy:  r.config.UI.LockWhileBusy,
		FailureMessage: r.messages.RequestFailed,
		StatusRegion:   tasks.RegionStatus,
	})

	d.catalog = tasks.NewCatalog(tasks.Deps{
		Regions:   d.regions,
		Selection: d.selection,
		Messages:  r.messages,
		Logger:    r.logger,
	})
	if err := d.catalog.Register(d.ctrl); err != nil {
		d.close()
		return nil, err
	}
	return d, nil
}
