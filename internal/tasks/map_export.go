package tasks

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/ridex/internal/formatter"
	"github.com/desertthunder/ridex/internal/models"
	"github.com/desertthunder/ridex/internal/services"
	"github.com/desertthunder/ridex/internal/shared"
)

// MapExportOpts contains configuration for bulk map exports.
type MapExportOpts struct {
	OutputDir  string        // Base output directory (default: maps_export_{epoch})
	NumWorkers int           // Concurrent workers (default: 3, max 10)
	RateLimit  float64       // Routes per second (default: 5)
	Timeout    time.Duration // Per-request timeout (default: 30s)
}

type mapJob struct {
	step  int
	route Route
}

// ExportMaps fetches the map and segmentation map of every route and writes one page per route.
//
// Routes are fetched by a worker pool, paced by a rate limiter. Partial failures
// are reported in the result; a manifest summarizing the export is written last.
func ExportMaps(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	fetcher services.Fetcher,
	routes []Route,
	opts MapExportOpts,
) (*models.MapExportResult, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("%w: backend not initialized", shared.ErrServiceUnavailable)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("%w: no routes to export", shared.ErrMissingArgument)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("maps_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &models.MapExportResult{
		TotalRoutes:     len(routes),
		OutputDirectory: opts.OutputDir,
		ExportedAt:      time.Now().UTC(),
		Results:         make([]models.RouteMapResult, 0, len(routes)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan mapJob)
	results := make(chan models.RouteMapResult, len(routes))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				sendProgress(prog, fetchingMapsUpdate(job.step, len(routes), job.route))
				results <- exportRouteMaps(ctx, fetcher, job.route, opts)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, r := range routes {
			if err := limiter.Wait(ctx); err != nil {
				for _, rest := range routes[i:] {
					results <- models.RouteMapResult{RouteID: rest.ID, RouteName: rest.Title(), Error: err.Error()}
				}
				return
			}
			jobs <- mapJob{step: i + 1, route: r}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)
		if res.Success {
			result.Successful++
			sendProgress(prog, pageWrittenUpdate(completed, len(routes), res))
		} else {
			result.Failed++
			sendProgress(prog, pageFailedUpdate(completed, len(routes), res))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteMapManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	sendProgress(prog, manifestUpdate(manifestPath))
	return result, nil
}

// exportRouteMaps fetches both maps of one route and writes its page.
func exportRouteMaps(ctx context.Context, fetcher services.Fetcher, r Route, opts MapExportOpts) models.RouteMapResult {
	result := models.RouteMapResult{RouteID: r.ID, RouteName: r.Title()}

	sections := make([]formatter.MapSection, 0, 2)
	for _, part := range []struct {
		title    string
		endpoint string
	}{
		{"Carte", services.EndpointMap},
		{"Segmentation", services.EndpointSegmentationMap},
	} {
		body, err := fetchFragment(ctx, fetcher, part.endpoint, r.ID, opts.Timeout)
		if err != nil {
			result.Error = fmt.Sprintf("%s: %v", part.endpoint, err)
			return result
		}
		sections = append(sections, formatter.MapSection{Title: part.title, Body: body})
	}

	path := filepath.Join(opts.OutputDir, MapFilename(r.ID))
	written, err := formatter.WriteMapPage(path, r.Title(), sections...)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Files = []string{written}
	result.Success = true
	return result
}

func fetchFragment(ctx context.Context, fetcher services.Fetcher, endpoint, routeID string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := fetcher.Get(ctx, endpoint, url.Values{"route_id": {routeID}})
	if err != nil {
		return "", err
	}
	if err := resp.Err(); err != nil {
		return "", err
	}
	return bodyText(resp), nil
}

// MapFilename keeps route ids usable as file names.
func MapFilename(id string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
	return "route_" + safe + ".html"
}
