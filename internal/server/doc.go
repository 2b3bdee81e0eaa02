// Package server provides HTTP routing, middleware, and a fixture of the prediction backend.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Fixture Backend
//
// [Fixture] answers every endpoint the dashboard consumes with the same shapes as
// the real prediction backend: counters for activities, routes and models,
// null when there is nothing to report, JSON-encoded HTML fragments for maps.
// It keeps its state in memory so the CLI and TUI can be exercised without the
// real service (`ridex serve`).
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
