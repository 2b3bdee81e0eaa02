package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/desertthunder/ridex/internal/tasks"
)

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	check      key.Binding
	activities key.Binding
	routes     key.Binding
	train      key.Binding
	predict    key.Binding
	segments   key.Binding
	virtual    key.Binding
	up         key.Binding
	down       key.Binding
	enter      key.Binding
	open       key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		check:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "check")),
		activities: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "activities")),
		routes:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "routes")),
		train:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "train")),
		predict:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "predict")),
		segments:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "segmentation")),
		virtual:    key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "virtual")),
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "route")),
		open:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open maps")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// trigger pairs a binding with the action it activates.
type trigger struct {
	binding *key.Binding
	action  string
}

// triggers lists the click bindings. enter is the selection change and is not listed.
func (k *keyMap) triggers() []trigger {
	return []trigger{
		{&k.check, tasks.ActionCheckActivities},
		{&k.activities, tasks.ActionUpdateActivities},
		{&k.routes, tasks.ActionUpdateRoutes},
		{&k.train, tasks.ActionTrainModels},
		{&k.predict, tasks.ActionPredict},
		{&k.segments, tasks.ActionTestSegmentation},
		{&k.virtual, tasks.ActionVirtualRide},
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.enter, k.open, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.check, k.activities, k.routes, k.train},
		{k.predict, k.segments, k.virtual},
		{k.up, k.down, k.enter, k.open, k.quit},
	}
}
