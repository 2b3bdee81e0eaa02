// Package view holds the named regions the dashboard renders and the mutations actions apply to them.
//
// A [ViewUpdate] is a pure, ordered list of [Mutation] values; nothing touches the
// screen until [Regions.Apply] runs it. Regions are addressed by name so actions
// stay independent of layout.
//
// # Transient messages
//
// [Flash] shows a message at full opacity, keeps it for a delay, then fades it
// linearly to zero. Visibility and opacity are derived from the [Clock] at read
// time, so tests drive them with a fake clock instead of sleeping.
package view
