package tasks

import (
	"slices"
	"sync"

	"github.com/desertthunder/ridex/internal/shared"
)

// Route selector sentinels.
const (
	// NoRouteSelected is the placeholder option of the selector.
	NoRouteSelected = "0"
	// NoImportedRoutes is the only option when no route is known.
	NoImportedRoutes = "no_imported_routes"
)

// Route is one option of the route selector.
type Route struct {
	ID   string
	Name string
}

// Title returns the name, or the id when the route has none.
func (r Route) Title() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// Selection is the state of the route selector and the virtual ride toggle.
type Selection struct {
	mu      sync.RWMutex
	routes  []Route
	route   string
	virtual bool
}

// NewSelection creates a selection over the configured routes.
func NewSelection(routes []shared.RouteConfig) *Selection {
	s := &Selection{route: NoImportedRoutes}
	for _, r := range routes {
		s.routes = append(s.routes, Route{ID: r.ID, Name: r.Name})
	}
	if len(s.routes) > 0 {
		s.route = NoRouteSelected
	}
	return s
}

// Routes returns the selectable routes.
func (s *Selection) Routes() []Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.routes)
}

// Lookup finds a configured route.
func (s *Selection) Lookup(id string) (Route, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.routes {
		if r.ID == id {
			return r, true
		}
	}
	return Route{}, false
}

// Route returns the selected route id, possibly a sentinel.
func (s *Selection) Route() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.route
}

// Select changes the selected route. Any id is accepted, like a free-form
// query parameter; sentinels reset the selection.
func (s *Selection) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = NoRouteSelected
	}
	s.route = id
}

// Valid reports whether the selected route is usable for a prediction.
func (s *Selection) Valid() bool {
	r := s.Route()
	return r != NoRouteSelected && r != NoImportedRoutes
}

// Virtual reports whether predictions are for a virtual ride.
func (s *Selection) Virtual() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.virtual
}

// SetVirtual sets the virtual ride toggle.
func (s *Selection) SetVirtual(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.virtual = v
}

// ToggleVirtual flips the virtual ride toggle and returns the new value.
func (s *Selection) ToggleVirtual() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.virtual = !s.virtual
	return s.virtual
}
