package controller

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ridex/internal/models"
	"github.com/desertthunder/ridex/internal/services"
	"github.com/desertthunder/ridex/internal/shared"
	"github.com/desertthunder/ridex/internal/testing/stubs"
	"github.com/desertthunder/ridex/internal/view"
)

const failureText = "La requête a échoué, veuillez réessayer"

type fixture struct {
	ctrl     *Controller
	fetcher  *stubs.Fetcher
	regions  *view.Regions
	recorder *stubs.Recorder
}

func newFixture(t *testing.T, lock bool) *fixture {
	t.Helper()
	f := &fixture{
		fetcher:  stubs.NewFetcher(),
		regions:  view.NewRegions(nil),
		recorder: &stubs.Recorder{},
	}
	f.ctrl = New(Opts{
		Fetcher:        f.fetcher,
		Regions:        f.regions,
		Recorder:       f.recorder,
		Timeout:        50 * time.Millisecond,
		LockWhileBusy:  lock,
		FailureMessage: failureText,
	})
	return f
}

func counterAction() Action {
	return Action{
		Name:     "activities",
		Endpoint: services.EndpointNewActivities,
		Empty: func(r *services.APIResponse) bool {
			info, err := models.Decode[models.ActivitiesInfo](r.Body)
			return err == nil && (info == nil || info.Empty())
		},
		OnSuccess: func(r *services.APIResponse) (view.ViewUpdate, error) {
			info, err := models.Decode[models.ActivitiesInfo](r.Body)
			if err != nil {
				return nil, err
			}
			return view.SetText("count", "n="+strconv.Itoa(info.ActivitiesInBase)), nil
		},
		OnEmpty: view.Flash("nothing", "rien"),
		Always:  view.Show("info"),
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t, false)

	if err := f.ctrl.Register(counterAction()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		action Action
	}{
		{"duplicate name", counterAction()},
		{"missing name", Action{Endpoint: "/x"}},
		{"missing endpoint", Action{Name: "x"}},
		{"change trigger outside a fanout", Action{Name: "x", Trigger: Change, Endpoint: "/x"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := f.ctrl.Register(tc.action); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}

	t.Run("fanout loads must be change-triggered", func(t *testing.T) {
		route := "1"
		fo := mapFanout(&route)
		fo.Loads[1].Trigger = Click
		if err := f.ctrl.RegisterFanout(fo); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		if _, err := f.ctrl.Activate("nope"); !errors.Is(err, shared.ErrUnknownAction) {
			t.Errorf("expected ErrUnknownAction, got %v", err)
		}
	})
}

func TestActivate(t *testing.T) {
	t.Run("re-entrant activation issues one request", func(t *testing.T) {
		f := newFixture(t, false)
		f.fetcher.JSON(services.EndpointNewActivities, `{"activities_added":3,"activities_in_base":103}`)
		_ = f.ctrl.Register(counterAction())

		cmd, err := f.ctrl.Activate("activities")
		if err != nil || cmd == nil {
			t.Fatalf("expected a command, got %v", err)
		}
		if !f.ctrl.Disabled("activities") || f.ctrl.State("activities") != InFlight {
			t.Error("expected the action to be in flight")
		}

		for range 3 {
			if again, err := f.ctrl.Activate("activities"); again != nil || !errors.Is(err, shared.ErrActionBusy) {
				t.Errorf("expected ErrActionBusy, got %v", err)
			}
		}

		outcome := f.ctrl.Complete(cmd().(Result))
		if outcome != models.Succeeded {
			t.Errorf("expected succeeded, got %v", outcome)
		}
		if n := f.fetcher.Count(""); n != 1 {
			t.Errorf("expected 1 request, got %d", n)
		}
		if f.ctrl.State("activities") != Idle || f.ctrl.Busy().Count() != 0 {
			t.Error("expected idle controller after completion")
		}
	})

	t.Run("success applies update then always", func(t *testing.T) {
		f := newFixture(t, false)
		f.fetcher.JSON(services.EndpointNewActivities, `{"activities_added":3,"activities_in_base":103}`)
		_ = f.ctrl.Register(counterAction())

		if outcome, err := f.ctrl.Run("activities"); err != nil || outcome != models.Succeeded {
			t.Fatalf("expected success, got %v %v", outcome, err)
		}
		if got := f.regions.Text("count"); got != "n=103" {
			t.Errorf("unexpected count text %q", got)
		}
		if !f.regions.Visible("info") {
			t.Error("expected info to be shown")
		}
		if f.regions.Visible("nothing") {
			t.Error("empty message should not be shown")
		}
	})

	t.Run("empty responses", func(t *testing.T) {
		for _, body := range []string{`null`, `{"activities_added":0}`, `{"activities_added":-1}`} {
			f := newFixture(t, false)
			f.fetcher.JSON(services.EndpointNewActivities, body)
			_ = f.ctrl.Register(counterAction())

			outcome, _ := f.ctrl.Run("activities")
			if outcome != models.Empty {
				t.Errorf("%s: expected empty, got %v", body, outcome)
			}
			if f.regions.Text("nothing") != "rien" || !f.regions.Visible("nothing") {
				t.Errorf("%s: expected the empty message", body)
			}
			if !f.regions.Visible("info") {
				t.Errorf("%s: expected always update on empty", body)
			}
		}
	})

	t.Run("guard refuses without request or state change", func(t *testing.T) {
		f := newFixture(t, false)
		a := counterAction()
		a.Guard = func() (view.ViewUpdate, bool) {
			return view.SetText("prediction", "Veuillez sélectionner une route").Then(view.Show("prediction")), false
		}
		_ = f.ctrl.Register(a)

		outcome, err := f.ctrl.Run("activities")
		if !errors.Is(err, shared.ErrRefused) || outcome != models.Refused {
			t.Fatalf("expected refusal, got %v %v", outcome, err)
		}
		if f.fetcher.Count("") != 0 {
			t.Error("refused activation must not issue a request")
		}
		if f.ctrl.State("activities") != Idle || f.ctrl.Busy().Busy() {
			t.Error("refused activation must not change state")
		}
		if f.regions.Text("prediction") != "Veuillez sélectionner une route" {
			t.Error("expected the guard update to be applied")
		}
	})

	t.Run("before is applied on issue", func(t *testing.T) {
		f := newFixture(t, false)
		f.regions.Apply(view.SetText("prediction", "old").Then(view.Show("prediction")))
		a := counterAction()
		a.Before = view.Hide("prediction")
		_ = f.ctrl.Register(a)

		cmd, _ := f.ctrl.Activate("activities")
		if f.regions.Visible("prediction") {
			t.Error("expected before update at activation")
		}
		f.ctrl.Complete(cmd().(Result))
	})

	t.Run("params are encoded", func(t *testing.T) {
		f := newFixture(t, false)
		a := counterAction()
		a.Params = func() url.Values { return url.Values{"route_id": {"a&b=c d"}} }
		_ = f.ctrl.Register(a)

		cmd, _ := f.ctrl.Activate("activities")
		res := cmd().(Result)
		f.ctrl.Complete(res)

		if res.URL != "http://stub/get_new_activities?route_id=a%26b%3Dc+d" {
			t.Errorf("unexpected url %s", res.URL)
		}
		if calls := f.fetcher.Calls(); calls[0].Params.Get("route_id") != "a&b=c d" {
			t.Errorf("unexpected params %v", calls[0].Params)
		}
	})

	t.Run("global lock ignores other actions", func(t *testing.T) {
		f := newFixture(t, true)
		_ = f.ctrl.Register(counterAction())
		_ = f.ctrl.Register(Action{Name: "train", Endpoint: services.EndpointTrainModels})

		cmd, _ := f.ctrl.Activate("activities")
		if !f.ctrl.Disabled("train") {
			t.Error("expected every trigger disabled while busy")
		}
		if _, err := f.ctrl.Activate("train"); !errors.Is(err, shared.ErrActionBusy) {
			t.Errorf("expected ErrActionBusy, got %v", err)
		}
		f.ctrl.Complete(cmd().(Result))

		if _, err := f.ctrl.Run("train"); err != nil {
			t.Errorf("expected train to run once idle, got %v", err)
		}
	})
}

func TestFailure(t *testing.T) {
	tests := []struct {
		name  string
		reply stubs.Reply
		want  string
	}{
		{"transport error", stubs.Reply{Err: shared.ErrServiceUnavailable}, "service unavailable"},
		{"timeout", stubs.Reply{Block: true}, "deadline exceeded"},
		{"non-2xx", stubs.Reply{Status: http.StatusInternalServerError, Body: "boom"}, "status 500, body: boom"},
		{"malformed json", stubs.Reply{Status: http.StatusOK, Body: `{"activities_added":`}, "invalid input"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, false)
			f.fetcher.On(services.EndpointNewActivities, tc.reply)
			_ = f.ctrl.Register(counterAction())

			outcome, err := f.ctrl.Run("activities")
			if err != nil {
				t.Fatalf("unexpected activation error: %v", err)
			}
			if outcome != models.Failed {
				t.Errorf("expected failed, got %v", outcome)
			}
			if f.ctrl.State("activities") != Idle || f.ctrl.Busy().Count() != 0 {
				t.Error("expected idle controller after failure")
			}
			if f.regions.Text(DefaultStatusRegion) != failureText || !f.regions.Visible(DefaultStatusRegion) {
				t.Error("expected the failure message in the status region")
			}
			if f.regions.Visible("info") {
				t.Error("always update must not run on failure")
			}

			runs := f.recorder.Runs
			if len(runs) != 1 || runs[0].Outcome != models.Failed || runs[0].Error == "" {
				t.Fatalf("expected one failed run, got %+v", runs)
			}
			if !strings.Contains(runs[0].Error, tc.want) {
				t.Errorf("expected %v in %q", tc.want, runs[0].Error)
			}
		})
	}

	t.Run("action status region", func(t *testing.T) {
		f := newFixture(t, false)
		f.fetcher.On(services.EndpointNewActivities, stubs.Reply{Status: http.StatusBadGateway})
		a := counterAction()
		a.StatusRegion = "activities_status"
		_ = f.ctrl.Register(a)

		_, _ = f.ctrl.Run("activities")
		if f.regions.Text("activities_status") != failureText {
			t.Error("expected failure message in the action's region")
		}
	})
}

func TestBusySymmetry(t *testing.T) {
	f := newFixture(t, false)
	f.fetcher.JSON(services.EndpointNewActivities, `{"activities_added":1,"activities_in_base":1}`)
	f.fetcher.On(services.EndpointTrainModels, stubs.Reply{Status: http.StatusInternalServerError})
	f.fetcher.JSON(services.EndpointNewRoutes, `null`)

	_ = f.ctrl.Register(counterAction())
	_ = f.ctrl.Register(Action{Name: "train", Endpoint: services.EndpointTrainModels})
	_ = f.ctrl.Register(Action{
		Name:     "routes",
		Endpoint: services.EndpointNewRoutes,
		Empty:    func(r *services.APIResponse) bool { return models.IsNull(r.Body) },
	})

	var transitions []bool
	f.ctrl.Busy().Subscribe(func(busy bool) { transitions = append(transitions, busy) })

	var results []Result
	for _, name := range []string{"activities", "train", "routes"} {
		cmd, err := f.ctrl.Activate(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		results = append(results, cmd().(Result))
	}
	if f.ctrl.Busy().Count() != 3 {
		t.Fatalf("expected 3 in flight, got %d", f.ctrl.Busy().Count())
	}

	// completion order differs from issue order
	for _, i := range []int{2, 0, 1} {
		f.ctrl.Complete(results[i])
	}
	if f.ctrl.Busy().Count() != 0 {
		t.Errorf("expected busy count 0, got %d", f.ctrl.Busy().Count())
	}
	if len(transitions) != 2 || !transitions[0] || transitions[1] {
		t.Errorf("unexpected transitions %v", transitions)
	}

	t.Run("duplicate completion is ignored", func(t *testing.T) {
		if got := f.ctrl.Complete(results[0]); got != models.Ignored {
			t.Errorf("expected ignored, got %v", got)
		}
		if f.ctrl.Busy().Underflows() != 0 {
			t.Error("duplicate completion must not decrement")
		}
	})

	want := []models.Outcome{models.Empty, models.Succeeded, models.Failed}
	got := f.recorder.Outcomes()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("run %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func mapFanout(route *string) Fanout {
	params := func() url.Values { return url.Values{"route_id": {*route}} }
	return Fanout{
		Name:   "map",
		Before: view.Clear("map_route", "map_segmentation_route", "segments").Then(view.Hide("prediction_time")),
		Loads: []Action{
			{
				Name: "map_route", Trigger: Change, Endpoint: services.EndpointMap, Params: params,
				OnSuccess: func(r *services.APIResponse) (view.ViewUpdate, error) {
					return view.Append("map_route", string(r.Body)), nil
				},
			},
			{
				Name: "map_segmentation_route", Trigger: Change, Endpoint: services.EndpointSegmentationMap, Params: params,
				OnSuccess: func(r *services.APIResponse) (view.ViewUpdate, error) {
					return view.Append("map_segmentation_route", string(r.Body)), nil
				},
			},
		},
	}
}

func TestSelect(t *testing.T) {
	t.Run("clears regions and issues two requests", func(t *testing.T) {
		f := newFixture(t, false)
		f.fetcher.On(services.EndpointMap, stubs.Reply{Status: http.StatusOK, Body: "<svg>map</svg>"})
		f.fetcher.On(services.EndpointSegmentationMap, stubs.Reply{Status: http.StatusOK, Body: "<svg>seg</svg>"})
		f.regions.Apply(view.SetText("map_route", "stale").
			Then(view.SetText("segments", "old"), view.Show("prediction_time")))

		route := "7"
		if err := f.ctrl.RegisterFanout(mapFanout(&route)); err != nil {
			t.Fatal(err)
		}

		outcomes, err := f.ctrl.RunSelect("map")
		if err != nil {
			t.Fatal(err)
		}
		if len(outcomes) != 2 || outcomes["map_route"] != models.Succeeded || outcomes["map_segmentation_route"] != models.Succeeded {
			t.Errorf("unexpected outcomes %v", outcomes)
		}
		if n := f.fetcher.Count(""); n != 2 {
			t.Errorf("expected 2 requests, got %d", n)
		}
		if f.regions.Text("map_route") != "<svg>map</svg>" {
			t.Errorf("unexpected map %q", f.regions.Text("map_route"))
		}
		if f.regions.Text("map_segmentation_route") != "<svg>seg</svg>" {
			t.Errorf("unexpected segmentation map %q", f.regions.Text("map_segmentation_route"))
		}
		if f.regions.Text("segments") != "" || f.regions.Visible("prediction_time") {
			t.Error("expected segments cleared and prediction hidden")
		}
		if f.ctrl.Busy().Count() != 0 {
			t.Error("expected idle controller")
		}
	})

	t.Run("newer selection supersedes older responses", func(t *testing.T) {
		f := newFixture(t, false)
		f.fetcher.On(services.EndpointMap, stubs.Reply{Status: http.StatusOK, Body: "map"})
		f.fetcher.On(services.EndpointSegmentationMap, stubs.Reply{Status: http.StatusOK, Body: "seg"})

		route := "1"
		_ = f.ctrl.RegisterFanout(mapFanout(&route))

		first, _ := f.ctrl.Select("map")
		old := flatten(first)
		route = "2"
		second, _ := f.ctrl.Select("map")
		fresh := flatten(second)

		if f.ctrl.Busy().Count() != 4 {
			t.Fatalf("expected 4 in flight, got %d", f.ctrl.Busy().Count())
		}

		for _, cmd := range fresh {
			res := cmd().(Result)
			if !strings.HasSuffix(res.URL, "route_id=2") {
				t.Errorf("expected latest route, got %s", res.URL)
			}
			f.ctrl.Complete(res)
		}
		for _, cmd := range old {
			f.ctrl.Complete(cmd().(Result))
		}

		if f.regions.Text("map_route") != "map" {
			t.Errorf("stale response rendered: %q", f.regions.Text("map_route"))
		}
		if f.ctrl.Busy().Count() != 0 {
			t.Errorf("expected every slot released, got %d", f.ctrl.Busy().Count())
		}
		if n := f.fetcher.Count(""); n != 4 {
			t.Errorf("expected 4 requests, got %d", n)
		}
	})

	t.Run("lock while busy ignores a second selection", func(t *testing.T) {
		f := newFixture(t, true)
		route := "1"
		_ = f.ctrl.RegisterFanout(mapFanout(&route))

		first, err := f.ctrl.Select("map")
		if err != nil {
			t.Fatal(err)
		}
		if again, err := f.ctrl.Select("map"); again != nil || !errors.Is(err, shared.ErrActionBusy) {
			t.Errorf("expected ErrActionBusy, got %v", err)
		}
		if f.ctrl.Busy().Count() != 2 {
			t.Errorf("expected 2 in flight, got %d", f.ctrl.Busy().Count())
		}
		for _, cmd := range flatten(first) {
			f.ctrl.Complete(cmd().(Result))
		}
		if f.ctrl.Busy().Count() != 0 {
			t.Errorf("expected idle controller, got %d", f.ctrl.Busy().Count())
		}
	})
}
