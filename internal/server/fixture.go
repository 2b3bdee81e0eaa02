package server

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ridex/internal/models"
	"github.com/desertthunder/ridex/internal/services"
	"github.com/desertthunder/ridex/internal/shared"
)

// FixtureRoute is a route known to the fixture backend.
type FixtureRoute struct {
	ID         int
	Name       string
	DistanceKm float64
	ElevationM float64
}

// FixtureOpts seeds a [Fixture].
type FixtureOpts struct {
	Routes            []FixtureRoute
	ActivitiesInBase  int
	PendingActivities int
	PendingRoutes     int
	Now               func() time.Time
	Logger            *log.Logger
}

// Fixture is an in-memory stand-in for the prediction backend.
type Fixture struct {
	mu     sync.Mutex
	now    func() time.Time
	logger *log.Logger

	routes            map[int]FixtureRoute
	activities        int
	pendingActivities int
	lastActivity      string
	lastActivityDate  string
	routesInBase      int
	pendingRoutes     int
	modelsInBase      int
	lastModelDate     string
}

const fixtureDateLayout = "2006-01-02 15:04"

// Fixture speeds in km/h before the elevation penalty.
const (
	realRideSpeed    = 24.5
	virtualRideSpeed = 28.0
)

// NewFixture creates a fixture backend.
func NewFixture(opts FixtureOpts) *Fixture {
	f := &Fixture{
		now:               opts.Now,
		logger:            opts.Logger,
		routes:            make(map[int]FixtureRoute, len(opts.Routes)),
		activities:        opts.ActivitiesInBase,
		pendingActivities: opts.PendingActivities,
		pendingRoutes:     opts.PendingRoutes,
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.logger == nil {
		f.logger = shared.NewLogger(nil)
	}
	for _, r := range opts.Routes {
		f.routes[r.ID] = r
	}
	f.routesInBase = len(f.routes)
	return f
}

// FixtureRoutesFromConfig derives fixture routes from the configured selector
// entries. Ids that are not integers are skipped, as the backend would reject them.
func FixtureRoutesFromConfig(routes []shared.RouteConfig) []FixtureRoute {
	out := make([]FixtureRoute, 0, len(routes))
	for i, r := range routes {
		id, err := strconv.Atoi(r.ID)
		if err != nil {
			continue
		}
		out = append(out, FixtureRoute{
			ID:         id,
			Name:       r.Name,
			DistanceKm: 40 + 15*float64(i),
			ElevationM: 300 + 250*float64(i),
		})
	}
	return out
}

// Routes returns the backend endpoints the fixture serves.
func (f *Fixture) Routes() []string {
	return services.Endpoints
}

// ServeHTTP dispatches on the endpoint path.
func (f *Fixture) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	if c, err := r.Cookie(services.SessionCookie); err == nil {
		f.logger.Debug("session", "athlete_id", c.Value)
	}

	switch r.URL.Path {
	case services.EndpointDebug:
		f.debug(w)
	case services.EndpointNewActivities:
		f.newActivities(w)
	case services.EndpointNewRoutes:
		f.newRoutes(w)
	case services.EndpointTrainModels:
		f.trainModels(w)
	case services.EndpointPrediction:
		f.prediction(w, r)
	case services.EndpointMap:
		f.withRoute(w, r, func(rt FixtureRoute) any { return routeMap(rt) })
	case services.EndpointSegmentationMap:
		f.withRoute(w, r, func(rt FixtureRoute) any { return segmentationMap(rt) })
	case services.EndpointTestSegmentation:
		f.withRoute(w, r, func(rt FixtureRoute) any {
			return fmt.Sprintf("Route %d : %d segments", rt.ID, segmentCount(rt))
		})
	case services.EndpointVirtualRide:
		f.virtualRide(w, r)
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

// AddPendingActivities simulates activities recorded since the last import.
func (f *Fixture) AddPendingActivities(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pendingActivities += n
}

// AddPendingRoutes simulates routes created since the last import.
func (f *Fixture) AddPendingRoutes(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pendingRoutes += n
}

func (f *Fixture) stamp() string {
	return f.now().Format(fixtureDateLayout)
}

func (f *Fixture) debug(w http.ResponseWriter) {
	f.mu.Lock()
	check := models.ActivityCheck{NumberOfNewActivities: f.pendingActivities}
	if f.pendingActivities > 0 {
		check.NameLastActivity = fmt.Sprintf("Sortie #%d", f.activities+f.pendingActivities)
		check.DateLastActivity = f.stamp()
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, check)
}

func (f *Fixture) newActivities(w http.ResponseWriter) {
	f.mu.Lock()
	added := f.pendingActivities
	f.activities += added
	f.pendingActivities = 0
	if added > 0 {
		f.lastActivity = fmt.Sprintf("Sortie #%d", f.activities)
		f.lastActivityDate = f.stamp()
	}
	info := models.ActivitiesInfo{
		ActivitiesAdded:  added,
		ActivitiesInBase: f.activities,
		NameLastActivity: f.lastActivity,
		DateLastActivity: f.lastActivityDate,
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, info)
}

func (f *Fixture) newRoutes(w http.ResponseWriter) {
	f.mu.Lock()
	added := f.pendingRoutes
	info := models.RoutesInfo{RoutesAdded: added}
	for range added {
		id := f.nextRouteID()
		rt := FixtureRoute{ID: id, Name: fmt.Sprintf("Route %d", id), DistanceKm: 35, ElevationM: 400}
		f.routes[id] = rt
		info.NameLastRoute = rt.Name
		info.DateLastRoute = f.stamp()
	}
	f.pendingRoutes = 0
	f.routesInBase = len(f.routes)
	info.RoutesInBase = f.routesInBase
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, info)
}

func (f *Fixture) nextRouteID() int {
	next := 1
	for id := range f.routes {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

func (f *Fixture) trainModels(w http.ResponseWriter) {
	f.mu.Lock()
	if f.activities == 0 {
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, nil)
		return
	}
	f.modelsInBase++
	f.lastModelDate = f.stamp()
	info := models.ModelsInfo{ModelsInBase: f.modelsInBase, DateLastModel: f.lastModelDate}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, info)
}

func (f *Fixture) prediction(w http.ResponseWriter, r *http.Request) {
	virtual, ok := queryBool(w, r, "virtual_ride")
	if !ok {
		return
	}
	rt, ok := f.route(w, r)
	if !ok {
		return
	}

	f.mu.Lock()
	trained := f.modelsInBase > 0
	f.mu.Unlock()
	if !trained {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, predict(rt, virtual))
}

func (f *Fixture) virtualRide(w http.ResponseWriter, r *http.Request) {
	virtual, ok := queryBool(w, r, "var")
	if !ok {
		return
	}
	test := r.URL.Query().Get("test")
	if virtual {
		writeJSON(w, http.StatusOK, "Virtual Ride"+test)
		return
	}
	writeJSON(w, http.StatusOK, "Real Ride"+test)
}

func (f *Fixture) withRoute(w http.ResponseWriter, r *http.Request, render func(FixtureRoute) any) {
	rt, ok := f.route(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, render(rt))
}

// route resolves route_id, answering 422 for non-integers and 404 for unknown routes.
func (f *Fixture) route(w http.ResponseWriter, r *http.Request) (FixtureRoute, bool) {
	raw := r.URL.Query().Get("route_id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("route_id: value is not a valid integer: %q", raw))
		return FixtureRoute{}, false
	}

	f.mu.Lock()
	rt, ok := f.routes[id]
	f.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("route %d not found", id))
		return FixtureRoute{}, false
	}
	return rt, true
}

// predict derives a deterministic ride time from distance and elevation.
func predict(rt FixtureRoute, virtual bool) models.Prediction {
	speed := realRideSpeed
	if virtual {
		speed = virtualRideSpeed
	}
	speed -= rt.ElevationM / 250
	speed = math.Max(speed, 8)
	speed = math.Round(speed*10) / 10

	total := int(math.Round(rt.DistanceKm / speed * 3600))
	return models.Prediction{
		Hours:       total / 3600,
		Minutes:     total % 3600 / 60,
		Seconds:     total % 60,
		AvgSpeedKmh: speed,
	}
}

func segmentCount(rt FixtureRoute) int {
	return max(1, int(rt.DistanceKm/10))
}

func routeMap(rt FixtureRoute) string {
	return fmt.Sprintf(`<div class="map" data-route="%d"><svg viewBox="0 0 100 40" width="600"><polyline points="0,30 25,10 50,25 75,5 100,20" fill="none" stroke="#fc4c02"/></svg><p>%.1f km</p></div>`,
		rt.ID, rt.DistanceKm)
}

func segmentationMap(rt FixtureRoute) string {
	n := segmentCount(rt)
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="segmentation" data-route="%d"><svg viewBox="0 0 100 40" width="600">`, rt.ID)
	width := 100.0 / float64(n)
	for i := range n {
		fmt.Fprintf(&b, `<rect x="%.2f" y="10" width="%.2f" height="20" fill="%s"/>`,
			float64(i)*width, width, []string{"#2c7bb6", "#abd9e9", "#fdae61", "#d7191c"}[i%4])
	}
	b.WriteString(`</svg></div>`)
	return b.String()
}

// queryBool parses a boolean query parameter the way the backend does.
func queryBool(w http.ResponseWriter, r *http.Request, name string) (bool, bool) {
	raw := strings.ToLower(r.URL.Query().Get(name))
	switch raw {
	case "1", "true", "on", "yes":
		return true, true
	case "0", "false", "off", "no":
		return false, true
	}
	writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("%s: value could not be parsed to a boolean: %q", name, raw))
	return false, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Error("failed to encode response", "err", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
