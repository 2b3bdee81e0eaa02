package tasks

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ridex/internal/controller"
	"github.com/desertthunder/ridex/internal/formatter"
	"github.com/desertthunder/ridex/internal/models"
	"github.com/desertthunder/ridex/internal/services"
	"github.com/desertthunder/ridex/internal/shared"
	"github.com/desertthunder/ridex/internal/view"
)

// Action names.
const (
	ActionCheckActivities  = "check_activities"
	ActionUpdateActivities = "update_activities"
	ActionUpdateRoutes     = "update_routes"
	ActionTrainModels      = "train_models"
	ActionPredict          = "predict"
	ActionTestSegmentation = "test_segmentation"
	ActionVirtualRide      = "virtual_ride"
	ActionSelectRoute      = "select_route"
	ActionMapRoute         = "map_route"
	ActionMapSegmentation  = "map_segmentation_route"
)

// Deps are the collaborators every descriptor closes over.
type Deps struct {
	// Regions is read by actions merging into what is displayed.
	Regions   *view.Regions
	Selection *Selection
	Messages  *shared.Messages
	Logger    *log.Logger
}

// Catalog holds the dashboard descriptors.
type Catalog struct {
	deps    Deps
	actions []controller.Action
	fanouts []controller.Fanout
}

// NewCatalog builds every descriptor. Missing messages default to the French catalog.
func NewCatalog(d Deps) *Catalog {
	if d.Messages == nil {
		d.Messages = shared.MustLoadMessages(shared.DefaultLocale)
	}
	if d.Logger == nil {
		d.Logger = log.New(io.Discard)
	}
	if d.Selection == nil {
		d.Selection = NewSelection(nil)
	}

	c := &Catalog{deps: d}
	c.actions = []controller.Action{
		c.checkActivities(),
		c.updateActivities(),
		c.updateRoutes(),
		c.trainModels(),
		c.predict(),
		c.testSegmentation(),
		c.virtualRide(),
	}
	c.fanouts = []controller.Fanout{c.selectRoute()}
	return c
}

// Actions returns the click actions.
func (c *Catalog) Actions() []controller.Action { return c.actions }

// Fanouts returns the selection-change actions.
func (c *Catalog) Fanouts() []controller.Fanout { return c.fanouts }

// Initial is the dashboard state before any request: every panel shows its placeholder.
func (c *Catalog) Initial() view.ViewUpdate {
	m := c.deps.Messages
	return view.SetText(RegionNoActivities, m.NoActivities).Then(
		view.SetText(RegionNoRoutes, m.NoRoutes),
		view.SetText(RegionNoModels, m.NoModels),
		view.Show(RegionNoActivities, RegionNoRoutes, RegionNoModels),
	)
}

// Selection returns the selection the descriptors read.
func (c *Catalog) Selection() *Selection { return c.deps.Selection }

// Register attaches every descriptor to ctrl.
func (c *Catalog) Register(ctrl *controller.Controller) error {
	for _, a := range c.actions {
		if err := ctrl.Register(a); err != nil {
			return err
		}
	}
	for _, f := range c.fanouts {
		if err := ctrl.RegisterFanout(f); err != nil {
			return err
		}
	}
	return nil
}

// decoded wraps a typed success handler with JSON decoding.
func decoded[T any](fn func(*T) view.ViewUpdate) func(*services.APIResponse) (view.ViewUpdate, error) {
	return func(r *services.APIResponse) (view.ViewUpdate, error) {
		v, err := models.Decode[T](r.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}
		if v == nil {
			return nil, fmt.Errorf("%w: unexpected null", shared.ErrInvalidInput)
		}
		return fn(v), nil
	}
}

// emptyWhen classifies a response with the payload's own Empty method.
// Undecodable bodies are not empty, so the success handler reports them.
func emptyWhen[T interface{ Empty() bool }]() func(*services.APIResponse) bool {
	return func(r *services.APIResponse) bool {
		v, err := models.Decode[T](r.Body)
		if err != nil {
			return false
		}
		return v == nil || (*v).Empty()
	}
}

func isNull(r *services.APIResponse) bool { return models.IsNull(r.Body) }

// bodyText is the body as the browser would display it: JSON strings unquoted, anything else verbatim.
func bodyText(r *services.APIResponse) string {
	if r.IsJSON {
		var s string
		if err := json.Unmarshal(r.Body, &s); err == nil {
			return s
		}
	}
	return strings.TrimSpace(string(r.Body))
}

func (c *Catalog) checkActivities() controller.Action {
	m := c.deps.Messages
	return controller.Action{
		Name:     ActionCheckActivities,
		Endpoint: services.EndpointDebug,
		Empty:    emptyWhen[models.ActivityCheck](),
		OnSuccess: decoded(func(p *models.ActivityCheck) view.ViewUpdate {
			total := p.NumberOfNewActivities
			if c.deps.Regions != nil {
				if shown, err := strconv.Atoi(strings.TrimSpace(c.deps.Regions.Text(RegionActivitiesInBase))); err == nil {
					total += shown
				}
			}
			return view.SetText(RegionActivitiesInBase, strconv.Itoa(total)).Then(
				view.SetText(RegionNameLastActivity, p.NameLastActivity),
				view.SetText(RegionDateLastActivity, m.ActivityDonePrefix+p.DateLastActivity),
			)
		}),
		OnEmpty: view.Flash(RegionNoNewActivities, m.NoNewActivities),
		Always:  view.Show(RegionInfoLastActivity).Then(view.Hide(RegionNoActivities)),
	}
}

func (c *Catalog) updateActivities() controller.Action {
	m := c.deps.Messages
	return controller.Action{
		Name:     ActionUpdateActivities,
		Endpoint: services.EndpointNewActivities,
		Empty:    emptyWhen[models.ActivitiesInfo](),
		OnSuccess: decoded(func(p *models.ActivitiesInfo) view.ViewUpdate {
			return view.SetText(RegionActivitiesInBase, strconv.Itoa(p.ActivitiesInBase)).Then(
				view.SetText(RegionNameLastActivity, p.NameLastActivity),
				view.SetText(RegionDateLastActivity, m.ActivityDonePrefix+p.DateLastActivity),
			)
		}),
		OnEmpty: view.Flash(RegionNoNewActivities, m.NoNewActivities),
		Always:  view.Show(RegionInfoLastActivity).Then(view.Hide(RegionNoActivities)),
	}
}

func (c *Catalog) updateRoutes() controller.Action {
	m := c.deps.Messages
	return controller.Action{
		Name:     ActionUpdateRoutes,
		Endpoint: services.EndpointNewRoutes,
		Empty:    emptyWhen[models.RoutesInfo](),
		OnSuccess: decoded(func(p *models.RoutesInfo) view.ViewUpdate {
			return view.SetText(RegionRoutesInBase, strconv.Itoa(p.RoutesInBase)).Then(
				view.SetText(RegionNameLastRoute, p.NameLastRoute),
				view.SetText(RegionDateLastRoute, m.RouteCreatedPrefix+p.DateLastRoute),
			)
		}),
		OnEmpty: view.Flash(RegionNoNewRoutes, m.NoNewRoutes),
		Always:  view.Show(RegionInfoLastRoute).Then(view.Hide(RegionNoRoutes)),
	}
}

func (c *Catalog) trainModels() controller.Action {
	m := c.deps.Messages
	return controller.Action{
		Name:     ActionTrainModels,
		Endpoint: services.EndpointTrainModels,
		Empty:    isNull,
		OnSuccess: decoded(func(p *models.ModelsInfo) view.ViewUpdate {
			return view.SetText(RegionModelsInBase, strconv.Itoa(p.ModelsInBase)).Then(
				view.SetText(RegionDateLastModel, m.ModelTrainedPrefix+p.DateLastModel),
				view.Show(RegionInfoLastModel),
				view.Hide(RegionNoModels),
			)
		}),
		OnEmpty: view.Flash(RegionNoActivitiesForTrain, m.NoActivitiesForTrain),
	}
}

func (c *Catalog) routeParams() url.Values {
	return url.Values{"route_id": {c.deps.Selection.Route()}}
}

func (c *Catalog) predict() controller.Action {
	m := c.deps.Messages
	sel := c.deps.Selection
	return controller.Action{
		Name:     ActionPredict,
		Endpoint: services.EndpointPrediction,
		Guard: func() (view.ViewUpdate, bool) {
			switch sel.Route() {
			case NoRouteSelected:
				return view.SetText(RegionPredictionTime, m.NoRouteSelected).Then(view.Show(RegionPredictionTime)), false
			case NoImportedRoutes:
				return view.SetText(RegionPredictionTime, m.NoImportedRoutes).Then(view.Show(RegionPredictionTime)), false
			}
			return nil, true
		},
		Before: view.Hide(RegionPredictionTime),
		Params: func() url.Values {
			p := c.routeParams()
			p.Set("virtual_ride", strconv.FormatBool(sel.Virtual()))
			return p
		},
		Empty: isNull,
		OnSuccess: decoded(func(p *models.Prediction) view.ViewUpdate {
			return view.SetText(RegionPredictionTime, formatter.FormatPrediction(*p, m.SpeedLabel)).
				Then(view.Show(RegionPredictionTime))
		}),
		OnEmpty: view.SetText(RegionPredictionTime, m.NoTrainedModel).Then(view.Show(RegionPredictionTime)),
	}
}

func (c *Catalog) testSegmentation() controller.Action {
	return controller.Action{
		Name:     ActionTestSegmentation,
		Endpoint: services.EndpointTestSegmentation,
		Params:   c.routeParams,
		OnSuccess: func(r *services.APIResponse) (view.ViewUpdate, error) {
			text := bodyText(r)
			c.deps.Logger.Debug("segmentation test", "route", c.deps.Selection.Route(), "response", text)
			return view.SetText(RegionSegmentationInfo, text).Then(view.Show(RegionSegmentationInfo)), nil
		},
	}
}

func (c *Catalog) virtualRide() controller.Action {
	return controller.Action{
		Name:     ActionVirtualRide,
		Endpoint: services.EndpointVirtualRide,
		Params: func() url.Values {
			return url.Values{
				"var":  {strconv.FormatBool(c.deps.Selection.Virtual())},
				"test": {"1"},
			}
		},
		OnSuccess: func(r *services.APIResponse) (view.ViewUpdate, error) {
			c.deps.Logger.Info("virtual ride probe", "response", bodyText(r))
			return nil, nil
		},
	}
}

func (c *Catalog) selectRoute() controller.Fanout {
	load := func(name, endpoint, region string) controller.Action {
		return controller.Action{
			Name:     name,
			Trigger:  controller.Change,
			Endpoint: endpoint,
			Params:   c.routeParams,
			OnSuccess: func(r *services.APIResponse) (view.ViewUpdate, error) {
				return view.Append(region, bodyText(r)).Then(view.Show(region)), nil
			},
		}
	}

	return controller.Fanout{
		Name: ActionSelectRoute,
		Before: view.Clear(RegionMapRoute, RegionMapSegmentationRoute, RegionSegments).
			Then(view.Hide(RegionPredictionTime)),
		Loads: []controller.Action{
			load(ActionMapRoute, services.EndpointMap, RegionMapRoute),
			load(ActionMapSegmentation, services.EndpointSegmentationMap, RegionMapSegmentationRoute),
		},
	}
}
