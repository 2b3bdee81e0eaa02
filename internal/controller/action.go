package controller

import (
	"fmt"
	"net/url"

	"github.com/desertthunder/ridex/internal/services"
	"github.com/desertthunder/ridex/internal/view"
)

// Trigger is what activates an action.
type Trigger int

const (
	// Click is a button press (a key or a CLI command).
	Click Trigger = iota
	// Change is a selection change.
	Change
)

func (t Trigger) String() string {
	if t == Change {
		return "change"
	}
	return "click"
}

// RequestState is the per-action re-entrancy state.
type RequestState int

const (
	Idle RequestState = iota
	InFlight
)

func (s RequestState) String() string {
	if s == InFlight {
		return "in_flight"
	}
	return "idle"
}

// Action describes one user-triggerable backend call and how its answer is rendered.
//
// Actions are immutable once registered.
type Action struct {
	Name     string
	Trigger  Trigger
	Endpoint string

	// Params computes the query parameters at activation time.
	Params func() url.Values

	// Guard runs before anything else; returning false refuses the
	// activation and applies the returned update instead of issuing a request.
	Guard func() (view.ViewUpdate, bool)

	// Before is applied as soon as the request is issued.
	Before view.ViewUpdate

	// Empty classifies a 2xx response as "nothing to show".
	Empty func(*services.APIResponse) bool

	// OnSuccess renders a non-empty 2xx response. An error makes the request fail.
	OnSuccess func(*services.APIResponse) (view.ViewUpdate, error)

	// OnEmpty is applied for empty responses.
	OnEmpty view.ViewUpdate

	// Always is applied after OnSuccess or OnEmpty, never on failure.
	Always view.ViewUpdate

	// StatusRegion receives the failure message; defaults to the controller's status region.
	StatusRegion string
}

func (a *Action) validate() error {
	if a.Name == "" {
		return fmt.Errorf("action name is required")
	}
	if a.Endpoint == "" {
		return fmt.Errorf("action %s: endpoint is required", a.Name)
	}
	return nil
}

func (a *Action) params() url.Values {
	if a.Params == nil {
		return nil
	}
	return a.Params()
}

// Fanout is a selection-change action issuing several independent loads.
//
// Before (typically clearing the target regions) is applied first; then every
// load is issued in parallel. Loads are not guarded against re-entrancy: a new
// selection always issues them again, and answers of an older selection are
// dropped when they arrive.
type Fanout struct {
	Name   string
	Before view.ViewUpdate
	Loads  []Action
}

func (f *Fanout) validate() error {
	if f.Name == "" {
		return fmt.Errorf("fanout name is required")
	}
	if len(f.Loads) == 0 {
		return fmt.Errorf("fanout %s: at least one load is required", f.Name)
	}
	seen := make(map[string]bool, len(f.Loads))
	for i := range f.Loads {
		if err := f.Loads[i].validate(); err != nil {
			return fmt.Errorf("fanout %s: %w", f.Name, err)
		}
		if f.Loads[i].Trigger != Change {
			return fmt.Errorf("fanout %s: load %s must be change-triggered", f.Name, f.Loads[i].Name)
		}
		if seen[f.Loads[i].Name] {
			return fmt.Errorf("fanout %s: duplicate load %s", f.Name, f.Loads[i].Name)
		}
		seen[f.Loads[i].Name] = true
	}
	return nil
}

func (f *Fanout) load(name string) *Action {
	for i := range f.Loads {
		if f.Loads[i].Name == name {
			return &f.Loads[i]
		}
	}
	return nil
}
