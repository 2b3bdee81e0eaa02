package tasks

import (
	"fmt"

	"github.com/desertthunder/ridex/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchMaps Phase = iota
	WritePage
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchMaps:
		return "fetch_maps"
	case WritePage:
		return "write_page"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

// sendProgress sends without blocking; updates are dropped when nobody keeps up.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchingMapsUpdate(step, total int, r Route) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMaps,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching maps: %s...", step, total, r.Title()),
	}
}

func pageWrittenUpdate(step, total int, res models.RouteMapResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WritePage,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, res.RouteName, len(res.Files)),
		Data:    res,
	}
}

func pageFailedUpdate(step, total int, res models.RouteMapResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WritePage,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, res.RouteName, res.Error),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Manifest written: %s", path),
	}
}
