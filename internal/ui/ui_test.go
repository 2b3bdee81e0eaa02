package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ridex/internal/controller"
	"github.com/desertthunder/ridex/internal/services"
	"github.com/desertthunder/ridex/internal/shared"
	"github.com/desertthunder/ridex/internal/tasks"
	th "github.com/desertthunder/ridex/internal/testing"
	"github.com/desertthunder/ridex/internal/testing/stubs"
	"github.com/desertthunder/ridex/internal/view"
)

type harness struct {
	model   *Model
	fetcher *stubs.Fetcher
	clock   *th.FakeClock
	ctrl    *controller.Controller
	opened  []string
}

func newHarness(t *testing.T, routes ...shared.RouteConfig) *harness {
	t.Helper()
	h := &harness{fetcher: stubs.NewFetcher(), clock: th.NewFakeClock()}

	regions := view.NewRegions(tasks.Regions, view.WithClock(h.clock))
	h.ctrl = controller.New(controller.Opts{Fetcher: h.fetcher, Regions: regions})
	catalog := tasks.NewCatalog(tasks.Deps{Regions: regions, Selection: tasks.NewSelection(routes)})
	if err := catalog.Register(h.ctrl); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	h.model = NewModel(context.Background(), Opts{
		Controller: h.ctrl,
		Catalog:    catalog,
		Clock:      h.clock,
		MapsDir:    t.TempDir(),
		Open: func(path string) error {
			h.opened = append(h.opened, path)
			return nil
		},
	})
	return h
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and runs the resulting commands until every request has completed.
func (h *harness) press(t *testing.T, k string) {
	t.Helper()
	_, cmd := h.model.Update(keyMsg(k))
	h.drain(t, cmd)
}

// drain executes cmd and feeds request results back into the model. The
// redraw timers scheduled after a result are never run.
func (h *harness) drain(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			h.drain(t, c)
		}
	case controller.Result:
		h.model.Update(msg)
	case Msg:
		if msg.kind == MsgMapsOpened {
			h.model.Update(msg)
		}
	}
}

var testRoutes = []shared.RouteConfig{{ID: "1", Name: "Col de la Croix"}, {ID: "2", Name: "Tour du lac"}}

func TestInitialView(t *testing.T) {
	h := newHarness(t)
	out := h.model.View()

	for _, want := range []string{"Aucune activitée chargée", "Aucune route chargée", "Aucun modèle entrainé", "activities", "quit"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected view to contain %q, got:\n%s", want, out)
		}
	}
	if h.fetcher.Count("") != 0 {
		t.Errorf("expected no request before a key press, got %d", h.fetcher.Count(""))
	}
}

func TestActionKeys(t *testing.T) {
	t.Run("a updates the activities panel", func(t *testing.T) {
		h := newHarness(t)
		h.fetcher.JSON(services.EndpointNewActivities,
			`{"activities_added":3,"activities_in_base":103,"name_last_activity":"Sortie du matin","date_last_activity":"2021-05-12"}`)

		h.press(t, "a")

		out := h.model.View()
		if !strings.Contains(out, "103") || !strings.Contains(out, "Sortie du matin") {
			t.Errorf("expected activity info in view, got:\n%s", out)
		}
		if strings.Contains(out, "Aucune activitée chargée") {
			t.Error("expected placeholder to be hidden")
		}
	})

	t.Run("t with nothing to train flashes the warning", func(t *testing.T) {
		h := newHarness(t)
		h.press(t, "t")

		if !strings.Contains(h.model.View(), "Aucune activitée pour") {
			t.Errorf("expected training warning, got:\n%s", h.model.View())
		}
		if !h.model.fadeScheduled {
			t.Error("expected a fade redraw to be scheduled")
		}
	})

	t.Run("p without a route shows the refusal", func(t *testing.T) {
		h := newHarness(t, testRoutes...)
		h.press(t, "p")

		if h.fetcher.Count(services.EndpointPrediction) != 0 {
			t.Error("expected no prediction request")
		}
		if !strings.Contains(h.model.View(), "Veuillez sélectionner") {
			t.Errorf("expected refusal message, got:\n%s", h.model.View())
		}
	})

	t.Run("failure flashes the status line", func(t *testing.T) {
		h := newHarness(t)
		h.fetcher.On(services.EndpointNewRoutes, stubs.Reply{Err: errors.New("connection refused")})
		h.press(t, "r")

		if !h.ctrl.Regions().Visible(tasks.RegionStatus) {
			t.Error("expected status region to be shown")
		}
	})
}

func TestInFlightTrigger(t *testing.T) {
	h := newHarness(t)
	h.fetcher.JSON(services.EndpointNewActivities, `{"activities_added":0}`)

	_, cmd := h.model.Update(keyMsg("a"))

	if !h.ctrl.Busy().Busy() {
		t.Fatal("expected controller to be busy")
	}
	if !h.model.busy || !h.model.spinning {
		t.Error("expected the busy indicator to be running")
	}
	if strings.Contains(h.model.View(), "a activities") {
		t.Error("expected the in-flight trigger to leave the help line")
	}

	_, again := h.model.Update(keyMsg("a"))
	h.drain(t, cmd)
	h.drain(t, again)

	if got := h.fetcher.Count(services.EndpointNewActivities); got != 1 {
		t.Errorf("expected 1 request, got %d", got)
	}
	if h.ctrl.Busy().Busy() || h.model.busy {
		t.Error("expected controller to be idle")
	}
	if !strings.Contains(h.model.View(), "a activities") {
		t.Error("expected the trigger back in the help line")
	}
}

func TestVirtualToggle(t *testing.T) {
	h := newHarness(t)
	h.press(t, "v")

	if !strings.Contains(h.model.View(), "[x] virtuel") {
		t.Errorf("expected toggle on, got:\n%s", h.model.View())
	}
	calls := h.fetcher.Calls()
	if len(calls) != 1 || calls[0].Endpoint != services.EndpointVirtualRide {
		t.Fatalf("expected one virtual ride request, got %+v", calls)
	}
	if got := calls[0].Params.Get("var"); got != "true" {
		t.Errorf("expected var=true, got %q", got)
	}
}

func TestVirtualToggleInFlight(t *testing.T) {
	h := newHarness(t)

	_, first := h.model.Update(keyMsg("v"))
	_, second := h.model.Update(keyMsg("v"))
	h.drain(t, first)
	h.drain(t, second)

	if !h.model.selection.Virtual() {
		t.Error("expected the ignored press to leave the toggle on")
	}
	calls := h.fetcher.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one virtual ride request, got %+v", calls)
	}
	if got := calls[0].Params.Get("var"); got != "true" {
		t.Errorf("expected var=true, got %q", got)
	}
	if !strings.Contains(h.model.View(), "[x] virtuel") {
		t.Errorf("expected toggle on, got:\n%s", h.model.View())
	}
}

func TestSelectRoute(t *testing.T) {
	h := newHarness(t, testRoutes...)
	h.fetcher.JSON(services.EndpointMap, `"<div>carte</div>"`)
	h.fetcher.JSON(services.EndpointSegmentationMap, `"<svg></svg>"`)

	h.press(t, "down")
	h.press(t, "enter")

	if got := h.model.selection.Route(); got != "2" {
		t.Fatalf("expected route 2 selected, got %q", got)
	}
	for _, c := range h.fetcher.Calls() {
		if c.Params.Get("route_id") != "2" {
			t.Errorf("expected route_id=2, got %v", c.Params)
		}
	}
	if h.fetcher.Count("") != 2 {
		t.Errorf("expected 2 map requests, got %d", h.fetcher.Count(""))
	}
	if !strings.Contains(h.model.View(), "octets") {
		t.Errorf("expected map summaries, got:\n%s", h.model.View())
	}

	t.Run("p predicts for the selected route", func(t *testing.T) {
		h.fetcher.JSON(services.EndpointPrediction, `{"hours":1,"minutes":2,"seconds":3,"avg_speed_kmh":25.5}`)
		h.press(t, "p")

		if !strings.Contains(h.model.View(), "1h2min3s") {
			t.Errorf("expected prediction, got:\n%s", h.model.View())
		}
	})

	t.Run("o writes and opens the map page", func(t *testing.T) {
		h.press(t, "o")

		if len(h.opened) != 1 {
			t.Fatalf("expected one page opened, got %v", h.opened)
		}
		if filepath.Base(h.opened[0]) != tasks.MapFilename("2") {
			t.Errorf("unexpected page name %q", h.opened[0])
		}
		page := th.MustReadFile(t, h.opened[0])
		if !strings.Contains(page, "<div>carte</div>") || !strings.Contains(page, "Tour du lac") {
			t.Errorf("unexpected page:\n%s", page)
		}
	})
}

func TestOpenMapsWithoutMaps(t *testing.T) {
	h := newHarness(t, testRoutes...)
	h.press(t, "o")

	if len(h.opened) != 0 {
		t.Errorf("expected nothing opened, got %v", h.opened)
	}
	entries, err := os.ReadDir(h.model.mapsDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no page written, got %d", len(entries))
	}
	if !h.model.noticeErr {
		t.Error("expected a warning notice")
	}
}

func TestNoImportedRoutes(t *testing.T) {
	h := newHarness(t)
	h.fetcher.JSON(services.EndpointMap, `"carte"`)

	h.press(t, "enter")

	if got := h.model.selection.Route(); got != tasks.NoImportedRoutes {
		t.Errorf("expected sentinel selection, got %q", got)
	}
	for _, c := range h.fetcher.Calls() {
		if c.Params.Get("route_id") != tasks.NoImportedRoutes {
			t.Errorf("expected sentinel route_id, got %v", c.Params)
		}
	}
}

func TestQuit(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		h := newHarness(t)
		_, cmd := h.model.Update(keyMsg(k))
		if cmd == nil {
			t.Fatal("expected a command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: expected quit", k)
		}
	}
}
