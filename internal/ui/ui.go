package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/ridex/internal/controller"
	"github.com/desertthunder/ridex/internal/formatter"
	"github.com/desertthunder/ridex/internal/shared"
	"github.com/desertthunder/ridex/internal/tasks"
	"github.com/desertthunder/ridex/internal/view"
)

// fadeFrame is the redraw interval while a flashed message fades out.
const fadeFrame = 100 * time.Millisecond

// Opts configures [NewModel].
type Opts struct {
	// Controller must already have the catalog registered.
	Controller *controller.Controller
	Catalog    *tasks.Catalog
	Messages   *shared.Messages
	Logger     *log.Logger
	Clock      view.Clock
	// MapsDir receives the pages written by the open-maps key.
	MapsDir string
	// Open displays a written page. Defaults to [shared.OpenBrowser].
	Open func(string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	ctrl      *controller.Controller
	regions   *view.Regions
	selection *tasks.Selection
	msgs      *shared.Messages
	logger    *log.Logger
	clock     view.Clock
	mapsDir   string
	open      func(string) error

	routes  list.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	busy          bool
	spinning      bool
	fadeScheduled bool
	notice        string
	noticeErr     bool
	width         int
	height        int
}

// NewModel creates the dashboard model and seeds the panels with their placeholders.
func NewModel(ctx context.Context, opts Opts) *Model {
	if opts.Messages == nil {
		opts.Messages = shared.MustLoadMessages(shared.DefaultLocale)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Clock == nil {
		opts.Clock = view.SystemClock
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}
	if opts.MapsDir == "" {
		opts.MapsDir = "maps"
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.label

	m := &Model{
		ctx:       ctx,
		ctrl:      opts.Controller,
		regions:   opts.Controller.Regions(),
		selection: opts.Catalog.Selection(),
		msgs:      opts.Messages,
		logger:    opts.Logger,
		clock:     opts.Clock,
		mapsDir:   opts.MapsDir,
		open:      opts.Open,
		spinner:   s,
		help:      help.New(),
		keys:      newKeyMap(),
	}
	m.routes = newRouteList(m.selection.Routes(), opts.Messages.NoImportedRoutes)
	m.regions.Apply(opts.Catalog.Initial())
	// Inc and Dec run inside Update, so the flag only changes on the update loop.
	m.ctrl.Busy().Subscribe(func(busy bool) { m.busy = busy })
	return m
}

// Run starts the dashboard in the alternate screen and blocks until it exits.
func Run(ctx context.Context, m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init starts nothing: every request is user-triggered.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.routes.SetHeight(max(4, min(len(m.routes.Items())+2, msg.Height/3)))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case controller.Result:
		m.ctrl.Complete(msg)
		return m, m.scheduleFade()

	case spinner.TickMsg:
		if !m.busy {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgFadeTick:
			m.fadeScheduled = false
			return m, m.scheduleFade()
		case MsgMapsOpened:
			data := msg.data.(struct {
				path string
				err  error
			})
			if data.err != nil {
				m.logger.Error("failed to open maps", "path", data.path, "error", data.err)
				m.notice, m.noticeErr = data.err.Error(), true
			} else {
				m.notice, m.noticeErr = data.path, false
			}
			return m, nil
		}
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		return m, m.selectRoute()
	case key.Matches(msg, m.keys.open):
		return m, m.openMaps()
	case key.Matches(msg, m.keys.up, m.keys.down):
		var cmd tea.Cmd
		m.routes, cmd = m.routes.Update(msg)
		return m, cmd
	}

	for _, t := range m.keys.triggers() {
		if !key.Matches(msg, *t.binding) {
			continue
		}
		if t.action == tasks.ActionVirtualRide {
			return m, m.toggleVirtual()
		}
		return m, m.activate(t.action)
	}
	return m, nil
}

// toggleVirtual flips the virtual ride toggle and sends it to the backend.
// An ignored activation leaves the toggle as it was.
func (m *Model) toggleVirtual() tea.Cmd {
	if m.ctrl.Disabled(tasks.ActionVirtualRide) {
		m.logger.Debug("activation skipped", "action", tasks.ActionVirtualRide, "reason", "in flight")
		return nil
	}
	m.selection.ToggleVirtual()
	cmd, err := m.ctrl.Activate(tasks.ActionVirtualRide)
	if errors.Is(err, shared.ErrActionBusy) {
		m.selection.ToggleVirtual()
	}
	if err != nil {
		m.logger.Debug("activation skipped", "action", tasks.ActionVirtualRide, "reason", err)
	}
	return tea.Batch(cmd, m.spin(), m.scheduleFade())
}

// activate starts a click action. Ignored and refused activations only log.
func (m *Model) activate(name string) tea.Cmd {
	cmd, err := m.ctrl.Activate(name)
	if err != nil {
		m.logger.Debug("activation skipped", "action", name, "reason", err)
	}
	return tea.Batch(cmd, m.spin(), m.scheduleFade())
}

func (m *Model) selectRoute() tea.Cmd {
	item, ok := m.routes.SelectedItem().(routeItem)
	if !ok {
		return nil
	}
	m.selection.Select(item.route.ID)

	cmd, err := m.ctrl.Select(tasks.ActionSelectRoute)
	if err != nil {
		m.logger.Debug("selection skipped", "route", item.route.ID, "reason", err)
	}
	m.notice = ""
	return tea.Batch(cmd, m.spin(), m.scheduleFade())
}

// openMaps writes the loaded map fragments into a page and opens it.
func (m *Model) openMaps() tea.Cmd {
	route := m.selection.Route()
	sections := []formatter.MapSection{
		{Title: "Carte", Body: m.regions.Text(tasks.RegionMapRoute)},
		{Title: "Segmentation", Body: m.regions.Text(tasks.RegionMapSegmentationRoute)},
	}
	if sections[0].Body == "" && sections[1].Body == "" {
		m.notice, m.noticeErr = m.msgs.NoRouteSelected, true
		return nil
	}

	title := route
	if r, ok := m.selection.Lookup(route); ok {
		title = r.Title()
	}
	path := filepath.Join(m.mapsDir, tasks.MapFilename(route))
	open := m.open
	return func() tea.Msg {
		abs, err := formatter.WriteMapPage(path, title, sections...)
		if err == nil {
			err = open(abs)
		}
		return mapsOpenedMsg(abs, err)
	}
}

// spin starts the spinner when a request is in flight and it is not already running.
func (m *Model) spin() tea.Cmd {
	if m.spinning || !m.busy {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

// scheduleFade arranges a redraw for the next flash transition.
func (m *Model) scheduleFade() tea.Cmd {
	if m.fadeScheduled {
		return nil
	}

	var wait time.Duration
	if m.regions.Fading() {
		wait = fadeFrame
	} else {
		at, ok := m.regions.NextDeadline()
		if !ok {
			return nil
		}
		wait = max(at.Sub(m.clock.Now()), fadeFrame)
	}
	m.fadeScheduled = true
	return tea.Tick(wait, func(time.Time) tea.Msg { return fadeTickMsg() })
}

// View renders the dashboard.
func (m *Model) View() string {
	var b strings.Builder

	title := "ridex"
	if m.busy {
		title = fmt.Sprintf("%s %s", title, m.spinner.View())
	}
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderActivities(), m.renderRoutes(), m.renderModels()))
	b.WriteString("\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.panel.Render(m.routes.View()), m.renderRoute()))
	b.WriteString("\n")

	if status := m.region(tasks.RegionStatus, styles.err); status != "" {
		b.WriteString(status + "\n")
	}
	if m.notice != "" {
		if m.noticeErr {
			b.WriteString(styles.warn.Render(m.notice) + "\n")
		} else {
			b.WriteString(styles.ok.Render(m.notice) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

// helpKeys lists the bindings shown in the help line. Triggers with a
// request in flight are left out.
func (m *Model) helpKeys() []key.Binding {
	var out []key.Binding
	for _, t := range m.keys.triggers() {
		b := *t.binding
		b.SetEnabled(!m.ctrl.Disabled(t.action))
		out = append(out, b)
	}
	return append(out, m.keys.ShortHelp()...)
}

// region renders a shown region, dimmed while its flash fades.
func (m *Model) region(name string, s lipgloss.Style) string {
	r := m.regions.Get(name)
	if !r.Visible || r.Text == "" {
		return ""
	}
	return styles.fade(s, r.Text, r.Opacity)
}

func (m *Model) count(name string) string {
	if v := m.regions.Text(name); v != "" {
		return v
	}
	return "-"
}

func (m *Model) panel(title string, lines ...string) string {
	kept := []string{styles.label.Render(title)}
	for _, l := range lines {
		if l != "" {
			kept = append(kept, l)
		}
	}
	return styles.panel.Render(strings.Join(kept, "\n"))
}

func (m *Model) info(visible string, lines ...string) string {
	if !m.regions.Visible(visible) {
		return ""
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderActivities() string {
	return m.panel("Activités",
		"en base : "+m.count(tasks.RegionActivitiesInBase),
		m.info(tasks.RegionInfoLastActivity,
			m.regions.Text(tasks.RegionNameLastActivity),
			m.regions.Text(tasks.RegionDateLastActivity)),
		m.region(tasks.RegionNoNewActivities, styles.warn),
		m.region(tasks.RegionNoActivities, styles.help),
	)
}

func (m *Model) renderRoutes() string {
	return m.panel("Routes",
		"en base : "+m.count(tasks.RegionRoutesInBase),
		m.info(tasks.RegionInfoLastRoute,
			m.regions.Text(tasks.RegionNameLastRoute),
			m.regions.Text(tasks.RegionDateLastRoute)),
		m.region(tasks.RegionNoNewRoutes, styles.warn),
		m.region(tasks.RegionNoRoutes, styles.help),
	)
}

func (m *Model) renderModels() string {
	return m.panel("Modèles",
		"en base : "+m.count(tasks.RegionModelsInBase),
		m.info(tasks.RegionInfoLastModel, m.regions.Text(tasks.RegionDateLastModel)),
		m.region(tasks.RegionNoActivitiesForTrain, styles.warn),
		m.region(tasks.RegionNoModels, styles.help),
	)
}

func (m *Model) renderRoute() string {
	virtual := "[ ] virtuel"
	if m.selection.Virtual() {
		virtual = "[x] virtuel"
	}

	route := m.selection.Route()
	if r, ok := m.selection.Lookup(route); ok {
		route = r.Title()
	}

	return m.panel("Prédiction",
		"route : "+route,
		virtual,
		m.region(tasks.RegionPredictionTime, styles.ok),
		m.mapLine("carte", tasks.RegionMapRoute),
		m.mapLine("segmentation", tasks.RegionMapSegmentationRoute),
		m.region(tasks.RegionSegmentationInfo, styles.help),
	)
}

func (m *Model) mapLine(label, name string) string {
	if !m.regions.Visible(name) {
		return ""
	}
	if s := formatter.MapSummary(m.msgs.MapLoaded, m.regions.Text(name)); s != "" {
		return label + " : " + s
	}
	return ""
}
