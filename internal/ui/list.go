package ui

import (
	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/ridex/internal/tasks"
)

var _ list.Item = routeItem{}

// routeItem wraps [tasks.Route] to implement [list.Item].
type routeItem struct {
	route tasks.Route
}

func (i routeItem) FilterValue() string { return i.route.Title() }
func (i routeItem) Title() string       { return i.route.Title() }
func (i routeItem) Description() string { return "route " + i.route.ID }

// routeItems builds the selector entries. With nothing configured the only
// entry is the no-imported-routes sentinel.
func routeItems(routes []tasks.Route, none string) []list.Item {
	if len(routes) == 0 {
		return []list.Item{routeItem{route: tasks.Route{ID: tasks.NoImportedRoutes, Name: none}}}
	}
	items := make([]list.Item, len(routes))
	for i, r := range routes {
		items[i] = routeItem{route: r}
	}
	return items
}

func newRouteList(routes []tasks.Route, none string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(routeItems(routes, none), delegate, 34, 8)
	l.Title = "Routes"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	return l
}
