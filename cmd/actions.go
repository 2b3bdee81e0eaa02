package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/desertthunder/ridex/internal/formatter"
	"github.com/desertthunder/ridex/internal/models"
	"github.com/desertthunder/ridex/internal/shared"
	"github.com/desertthunder/ridex/internal/tasks"
	"github.com/desertthunder/ridex/internal/view"
	"github.com/urfave/cli/v3"
)

// ActivitiesCheck compares the backend's activities with the displayed count.
func (r *Runner) ActivitiesCheck(ctx context.Context, cmd *cli.Command) error {
	return r.runAction(ctx, cmd, tasks.ActionCheckActivities, nil)
}

// ActivitiesUpdate imports new activities.
func (r *Runner) ActivitiesUpdate(ctx context.Context, cmd *cli.Command) error {
	return r.runAction(ctx, cmd, tasks.ActionUpdateActivities, nil)
}

// RoutesUpdate imports new routes.
func (r *Runner) RoutesUpdate(ctx context.Context, cmd *cli.Command) error {
	return r.runAction(ctx, cmd, tasks.ActionUpdateRoutes, nil)
}

// ModelsTrain trains the prediction models.
func (r *Runner) ModelsTrain(ctx context.Context, cmd *cli.Command) error {
	return r.runAction(ctx, cmd, tasks.ActionTrainModels, nil)
}

// Predict requests a ride time prediction for --route.
func (r *Runner) Predict(ctx context.Context, cmd *cli.Command) error {
	return r.runAction(ctx, cmd, tasks.ActionPredict, r.selectionFrom(cmd))
}

// SegmentationTest runs the segmentation test for --route.
func (r *Runner) SegmentationTest(ctx context.Context, cmd *cli.Command) error {
	return r.runAction(ctx, cmd, tasks.ActionTestSegmentation, r.selectionFrom(cmd))
}

// ProbeVirtualRide sends the virtual ride toggle state to the backend.
func (r *Runner) ProbeVirtualRide(ctx context.Context, cmd *cli.Command) error {
	return r.runAction(ctx, cmd, tasks.ActionVirtualRide, r.selectionFrom(cmd))
}

// selectionFrom reads the --route and --virtual flags. Commands without a
// --route flag keep the selector's initial sentinel.
func (r *Runner) selectionFrom(cmd *cli.Command) *tasks.Selection {
	sel := tasks.NewSelection(r.config.Routes)
	if cmd.IsSet("route") {
		sel.Select(cmd.String("route"))
	}
	sel.SetVirtual(cmd.Bool("virtual"))
	return sel
}

// runAction activates one action, waits for it and prints the regions it touched.
func (r *Runner) runAction(ctx context.Context, cmd *cli.Command, name string, sel *tasks.Selection) error {
	d, err := r.newDashboard(ctx, sel)
	if err != nil {
		return err
	}
	defer d.close()

	r.logger.Debug("running action", "action", name, "route", d.selection.Route())
	outcome, err := d.ctrl.Run(name)
	if err != nil && !errors.Is(err, shared.ErrRefused) {
		return err
	}

	if perr := r.printRegions(d.regions, cmd.Bool("json")); perr != nil {
		return perr
	}
	return r.settle(d, name, outcome, err)
}

// settle turns an outcome into the command's exit status.
func (r *Runner) settle(d *dashboard, name string, outcome models.Outcome, err error) error {
	switch outcome {
	case models.Failed:
		return fmt.Errorf("%w: %s: %s", shared.ErrAPIRequest, name, d.journal.failure())
	case models.Refused:
		return err
	}
	r.logger.Debug("action settled", "action", name, "outcome", outcome)
	return nil
}

// printRegions writes every region holding text. Map fragments are summarized.
func (r *Runner) printRegions(regions *view.Regions, asJSON bool) error {
	out := map[string]string{}
	var order []string
	for _, reg := range regions.Snapshot() {
		if reg.Text == "" {
			continue
		}
		text := reg.Text
		if isMapRegion(reg.Name) {
			text = formatter.MapSummary(r.messages.MapLoaded, text)
		}
		out[reg.Name] = text
		order = append(order, reg.Name)
	}

	if asJSON {
		return r.writeJSON(out, true)
	}
	for _, name := range order {
		if err := r.writePlain("%-24s %s\n", name, out[name]); err != nil {
			return err
		}
	}
	return nil
}

func isMapRegion(name string) bool {
	return name == tasks.RegionMapRoute || name == tasks.RegionMapSegmentationRoute
}

// Map loads the maps of --route and writes them into a page. With --all,
// every configured route is exported.
func (r *Runner) Map(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("all") {
		return r.exportAllMaps(ctx, cmd)
	}
	if !cmd.IsSet("route") {
		return fmt.Errorf("%w: --route or --all is required", shared.ErrMissingArgument)
	}

	sel := r.selectionFrom(cmd)
	d, err := r.newDashboard(ctx, sel)
	if err != nil {
		return err
	}
	defer d.close()

	outcomes, err := d.ctrl.RunSelect(tasks.ActionSelectRoute)
	if err != nil {
		return err
	}
	for action, outcome := range outcomes {
		if outcome == models.Failed {
			return fmt.Errorf("%w: %s: %s", shared.ErrAPIRequest, action, d.journal.failure())
		}
	}

	route := sel.Route()
	title := route
	if rt, ok := sel.Lookup(route); ok {
		title = rt.Title()
	}

	out := cmd.String("out")
	if out == "" {
		out = filepath.Join("maps", tasks.MapFilename(route))
	}
	path, err := formatter.WriteMapPage(out, title,
		formatter.MapSection{Title: "Carte", Body: d.regions.Text(tasks.RegionMapRoute)},
		formatter.MapSection{Title: "Segmentation", Body: d.regions.Text(tasks.RegionMapSegmentationRoute)},
	)
	if err != nil {
		return err
	}

	r.logger.Info("map page written", "route", route, "path", path)
	r.writePlain("✓ %s\n", path)

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(path); err != nil {
			return fmt.Errorf("failed to open map page: %w", err)
		}
	}
	return nil
}

func (r *Runner) exportAllMaps(ctx context.Context, cmd *cli.Command) error {
	sel := tasks.NewSelection(r.config.Routes)
	routes := sel.Routes()
	if len(routes) == 0 {
		return fmt.Errorf("%w: no routes configured", shared.ErrMissingArgument)
	}

	r.logger.Info("exporting maps", "routes", len(routes))
	r.writePlain("Exporting maps for %d routes...\n\n", len(routes))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchMaps:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.WritePage:
				r.writePlain("   %s\n", update.Message)
			case tasks.WriteManifest:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	result, err := tasks.ExportMaps(ctx, progressCh, r.backend, routes, tasks.MapExportOpts{
		OutputDir:  cmd.String("out-dir"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  r.config.Backend.RateLimit,
		Timeout:    r.config.Backend.Timeout,
	})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Output: %s\n", result.OutputDirectory)
	r.writePlain("Pages: %d/%d\n", result.Successful, result.TotalRoutes)

	if result.Failed > 0 {
		var failed []string
		for _, res := range result.Results {
			if !res.Success {
				failed = append(failed, fmt.Sprintf("  - %s: %s", res.RouteName, res.Error))
			}
		}
		r.writePlain("\nFailed to export %d routes:\n%s\n", result.Failed, strings.Join(failed, "\n"))
	}
	return nil
}
