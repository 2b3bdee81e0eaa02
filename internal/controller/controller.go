package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/ridex/internal/models"
	"github.com/desertthunder/ridex/internal/services"
	"github.com/desertthunder/ridex/internal/shared"
	"github.com/desertthunder/ridex/internal/view"
)

// DefaultTimeout bounds every request unless [Opts.Timeout] is set.
const DefaultTimeout = 30 * time.Second

// DefaultStatusRegion receives failure messages of actions without a StatusRegion.
const DefaultStatusRegion = "status"

// Recorder persists completed requests.
type Recorder interface {
	Record(ctx context.Context, run *models.Run) error
}

// Result is the completion message of one request.
//
// It is produced by the command returned from [Controller.Activate] or
// [Controller.Select] and must be handed back to [Controller.Complete].
type Result struct {
	Action  string
	Fanout  string
	Gen     uint64
	Token   uint64
	URL     string
	Resp    *services.APIResponse
	Err     error
	Elapsed time.Duration
}

// Opts configures a [Controller].
type Opts struct {
	Fetcher  services.Fetcher
	Regions  *view.Regions
	Busy     *BusyState
	Recorder Recorder
	Logger   *log.Logger
	Context  context.Context

	Timeout time.Duration

	// LockWhileBusy ignores every activation while any request is in flight.
	LockWhileBusy bool

	// FailureMessage is flashed when a request fails.
	FailureMessage string

	StatusRegion string
}

type entry struct {
	action Action
	state  RequestState
}

type fanoutEntry struct {
	fanout Fanout
	gen    uint64
}

// Controller drives the request lifecycle of every registered action.
//
// Activation and completion are meant to run on one goroutine (the Bubble Tea
// update loop, or the caller of [Controller.Run]); only the requests run
// elsewhere. The controller is nevertheless safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	fetcher  services.Fetcher
	regions  *view.Regions
	busy     *BusyState
	recorder Recorder
	logger   *log.Logger
	ctx      context.Context

	timeout       time.Duration
	lockWhileBusy bool
	failure       string
	status        string

	actions  map[string]*entry
	order    []string
	fanouts  map[string]*fanoutEntry
	inflight map[uint64]struct{}
	token    uint64
}

// New creates a controller. Fetcher and Regions are required.
func New(opts Opts) *Controller {
	c := &Controller{
		fetcher:       opts.Fetcher,
		regions:       opts.Regions,
		busy:          opts.Busy,
		recorder:      opts.Recorder,
		logger:        opts.Logger,
		ctx:           opts.Context,
		timeout:       opts.Timeout,
		lockWhileBusy: opts.LockWhileBusy,
		failure:       opts.FailureMessage,
		status:        opts.StatusRegion,
		actions:       make(map[string]*entry),
		fanouts:       make(map[string]*fanoutEntry),
		inflight:      make(map[uint64]struct{}),
	}

	if c.busy == nil {
		c.busy = NewBusyState()
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	if c.ctx == nil {
		c.ctx = context.Background()
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.status == "" {
		c.status = DefaultStatusRegion
	}
	if c.failure == "" {
		c.failure = shared.MustLoadMessages(shared.DefaultLocale).RequestFailed
	}
	return c
}

// Busy returns the shared busy counter.
func (c *Controller) Busy() *BusyState { return c.busy }

// Regions returns the view registry updates are applied to.
func (c *Controller) Regions() *view.Regions { return c.regions }

// Register attaches an action. Names are unique across actions and fanouts.
func (c *Controller) Register(a Action) error {
	if err := a.validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	if a.Trigger != Click {
		return fmt.Errorf("%w: action %s: %s actions belong to a fanout", shared.ErrInvalidArgument, a.Name, a.Trigger)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.taken(a.Name) {
		return fmt.Errorf("%w: action %s already registered", shared.ErrInvalidArgument, a.Name)
	}
	c.actions[a.Name] = &entry{action: a}
	c.order = append(c.order, a.Name)
	return nil
}

// RegisterFanout attaches a selection-change action.
func (c *Controller) RegisterFanout(f Fanout) error {
	if err := f.validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.taken(f.Name) {
		return fmt.Errorf("%w: action %s already registered", shared.ErrInvalidArgument, f.Name)
	}
	c.fanouts[f.Name] = &fanoutEntry{fanout: f}
	c.order = append(c.order, f.Name)
	return nil
}

func (c *Controller) taken(name string) bool {
	_, a := c.actions[name]
	_, f := c.fanouts[name]
	return a || f
}

// Names lists registered actions and fanouts in registration order.
func (c *Controller) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.order)
}

// State returns the request state of an action. Unknown names are Idle.
func (c *Controller) State(name string) RequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.actions[name]; ok {
		return e.state
	}
	return Idle
}

// Disabled reports whether activating name would be ignored right now.
func (c *Controller) Disabled(name string) bool {
	if c.lockWhileBusy && c.busy.Busy() {
		return true
	}
	return c.State(name) == InFlight
}

// Activate starts the action registered under name.
//
// It returns the command performing the request. The command is nil and the
// error is [shared.ErrActionBusy] when the activation is ignored, or
// [shared.ErrRefused] when the action's guard refused it (its update has
// already been applied).
func (c *Controller) Activate(name string) (tea.Cmd, error) {
	c.mu.Lock()
	e, ok := c.actions[name]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownAction, name)
	}
	if e.state != Idle {
		c.mu.Unlock()
		c.logger.Debug("ignored, request in flight", "action", name)
		return nil, fmt.Errorf("%w: %s", shared.ErrActionBusy, name)
	}
	if c.lockWhileBusy && c.busy.Busy() {
		c.mu.Unlock()
		c.logger.Debug("ignored, controller busy", "action", name, "in_flight", c.busy.Count())
		return nil, fmt.Errorf("%w: %s", shared.ErrActionBusy, name)
	}
	a := e.action
	c.mu.Unlock()

	if a.Guard != nil {
		if u, ok := a.Guard(); !ok {
			c.regions.Apply(u)
			c.logger.Info("refused", "action", name)
			c.record(&models.Run{Action: name, Endpoint: a.Endpoint, Outcome: models.Refused})
			return nil, fmt.Errorf("%w: %s", shared.ErrRefused, name)
		}
	}

	c.mu.Lock()
	if e.state != Idle {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", shared.ErrActionBusy, name)
	}
	e.state = InFlight
	c.mu.Unlock()

	return c.issue(&a, "", 0), nil
}

// Select runs the fanout registered under name. Every call supersedes the
// previous one: answers to older calls are dropped when they arrive.
func (c *Controller) Select(name string) (tea.Cmd, error) {
	c.mu.Lock()
	f, ok := c.fanouts[name]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownAction, name)
	}
	if c.lockWhileBusy && c.busy.Busy() {
		c.mu.Unlock()
		c.logger.Debug("ignored, controller busy", "action", name)
		return nil, fmt.Errorf("%w: %s", shared.ErrActionBusy, name)
	}
	f.gen++
	gen := f.gen
	fanout := f.fanout
	c.mu.Unlock()

	c.regions.Apply(fanout.Before)

	cmds := make([]tea.Cmd, 0, len(fanout.Loads))
	for i := range fanout.Loads {
		cmds = append(cmds, c.issue(&fanout.Loads[i], fanout.Name, gen))
	}
	return tea.Batch(cmds...), nil
}

// issue marks the request in flight and returns the command performing it.
func (c *Controller) issue(a *Action, fanout string, gen uint64) tea.Cmd {
	c.busy.Inc()
	c.regions.Apply(a.Before)

	params := a.params()
	target := c.fetcher.URL(a.Endpoint, params)

	c.mu.Lock()
	c.token++
	token := c.token
	c.inflight[token] = struct{}{}
	c.mu.Unlock()

	c.logger.Debug("request issued", "action", a.Name, "trigger", a.Trigger, "url", target)

	endpoint := a.Endpoint
	name := a.Name
	parent := c.ctx
	timeout := c.timeout
	fetcher := c.fetcher

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()

		start := time.Now()
		resp, err := fetcher.Get(ctx, endpoint, params)
		return Result{
			Action:  name,
			Fanout:  fanout,
			Gen:     gen,
			Token:   token,
			URL:     target,
			Resp:    resp,
			Err:     err,
			Elapsed: time.Since(start),
		}
	}
}

// Complete applies a finished request: its outcome's view update, the
// release of its busy slot and of its action, and the history record.
//
// A result is applied at most once; duplicates are reported as [models.Ignored].
func (c *Controller) Complete(res Result) models.Outcome {
	c.mu.Lock()
	if _, ok := c.inflight[res.Token]; !ok {
		c.mu.Unlock()
		c.logger.Warn("completion without a request in flight", "action", res.Action, "token", res.Token)
		return models.Ignored
	}
	delete(c.inflight, res.Token)

	var a *Action
	stale := false
	if res.Fanout != "" {
		if f, ok := c.fanouts[res.Fanout]; ok {
			a = f.fanout.load(res.Action)
			stale = res.Gen != f.gen
		}
	} else if e, ok := c.actions[res.Action]; ok {
		a = &e.action
		e.state = Idle
	}
	c.mu.Unlock()

	c.busy.Dec()

	if a == nil {
		c.logger.Error("completion for unknown action", "action", res.Action)
		return models.Failed
	}

	outcome, update, err := c.classify(a, res)
	logger := shared.WithLogger(c.logger, "action", a.Name)
	switch {
	case stale:
		logger.Debug("dropped superseded response", "gen", res.Gen)
	default:
		c.regions.Apply(update)
	}

	run := &models.Run{
		Action:   a.Name,
		Endpoint: a.Endpoint,
		URL:      res.URL,
		Outcome:  outcome,
		Duration: res.Elapsed,
	}
	if res.Resp != nil {
		run.StatusCode = res.Resp.StatusCode
	}
	if err != nil {
		run.Error = err.Error()
		logger.Warn("request failed", "url", res.URL, "err", err)
	} else {
		logger.Info("request completed", "outcome", outcome, "elapsed", res.Elapsed)
	}
	c.record(run)
	return outcome
}

func (c *Controller) classify(a *Action, res Result) (models.Outcome, view.ViewUpdate, error) {
	failed := func(err error) (models.Outcome, view.ViewUpdate, error) {
		region := a.StatusRegion
		if region == "" {
			region = c.status
		}
		return models.Failed, view.Flash(region, c.failure), err
	}

	if res.Err != nil {
		return failed(res.Err)
	}
	if res.Resp == nil {
		return failed(fmt.Errorf("%w: no response", shared.ErrAPIRequest))
	}
	if err := res.Resp.Err(); err != nil {
		return failed(err)
	}

	if a.Empty != nil && a.Empty(res.Resp) {
		return models.Empty, a.OnEmpty.Then(a.Always), nil
	}
	if a.OnSuccess == nil {
		return models.Succeeded, a.Always, nil
	}

	u, err := a.OnSuccess(res.Resp)
	if err != nil {
		if !errors.Is(err, shared.ErrInvalidInput) {
			err = fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}
		return failed(err)
	}
	return models.Succeeded, u.Then(a.Always), nil
}

func (c *Controller) record(run *models.Run) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(c.ctx, run); err != nil {
		c.logger.Error("could not record run", "action", run.Action, "err", err)
	}
}
