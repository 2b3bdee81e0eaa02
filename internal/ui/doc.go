// Package ui implements the interactive dashboard using bubbletea's Elm architecture.
//
// The dashboard shows three panels (activities, routes, models) plus the
// prediction and map areas for the selected route. Every key that triggers a
// backend call goes through the [controller.Controller]: the key handler calls
// Activate or Select, the returned command performs the request off the update
// loop, and the resulting [controller.Result] message is fed back to Complete.
//
// A spinner runs while any request is in flight. Triggers whose request is
// still pending disappear from the help line until it settles.
//
// Keys: c/a/r/t/p/s trigger the dashboard actions, v toggles the virtual ride,
// ↑/↓ and enter pick a route, o opens its maps in the browser, q quits.
package ui
