package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// MsgKind enumerates the dashboard's own message types.
//
// Request completions arrive as [controller.Result] and are not wrapped.
type MsgKind int

// Msg represents the dashboard messages (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgFadeTick MsgKind = iota
	MsgMapsOpened
)

// fadeTickMsg is the constructor for [MsgFadeTick]
func fadeTickMsg() Msg {
	return Msg{kind: MsgFadeTick}
}

// mapsOpenedMsg is the constructor for [MsgMapsOpened]
func mapsOpenedMsg(path string, err error) Msg {
	return Msg{
		kind: MsgMapsOpened,
		data: struct {
			path string
			err  error
		}{path, err},
	}
}
