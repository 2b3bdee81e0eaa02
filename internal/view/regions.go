package view

import (
	"slices"
	"sync"
	"time"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Region is a snapshot of one named region.
type Region struct {
	Name    string
	Text    string
	Visible bool
	Opacity float64 // 1 when fully shown, 0 once a flash has faded out
}

type region struct {
	text    string
	visible bool
	fadeAt  time.Time // zero unless a flash is pending
}

// Regions is the registry of named view regions.
//
// It is safe for concurrent use.
type Regions struct {
	mu     sync.RWMutex
	clock  Clock
	delay  time.Duration
	fade   time.Duration
	byName map[string]*region
	order  []string
}

// Option configures [Regions].
type Option func(*Regions)

// WithClock sets the clock used for transient messages.
func WithClock(c Clock) Option {
	return func(r *Regions) { r.clock = c }
}

// WithFlashTiming sets how long a flash stays fully visible and how long it fades.
func WithFlashTiming(delay, fade time.Duration) Option {
	return func(r *Regions) {
		r.delay = delay
		r.fade = fade
	}
}

// NewRegions creates a registry with the given regions declared, all hidden and empty.
func NewRegions(names []string, opts ...Option) *Regions {
	r := &Regions{
		clock:  SystemClock,
		delay:  DefaultFlashDelay,
		fade:   DefaultFade,
		byName: make(map[string]*region, len(names)),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, name := range names {
		r.declare(name)
	}
	return r
}

func (r *Regions) declare(name string) *region {
	if reg, ok := r.byName[name]; ok {
		return reg
	}
	reg := &region{}
	r.byName[name] = reg
	r.order = append(r.order, name)
	return reg
}

// Names returns the declared regions in declaration order.
func (r *Regions) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Apply runs every mutation of u in order.
//
// Unknown regions are declared on first use.
func (r *Regions) Apply(u ViewUpdate) {
	if len(u) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	for _, m := range u {
		reg := r.declare(m.Region)
		switch m.Op {
		case OpSetText:
			reg.text = m.Text
		case OpAppend:
			reg.text += m.Text
		case OpClear:
			reg.text = ""
		case OpShow:
			reg.visible = true
			reg.fadeAt = time.Time{}
		case OpHide:
			reg.visible = false
			reg.fadeAt = time.Time{}
		case OpFlash:
			reg.text = m.Text
			reg.visible = true
			reg.fadeAt = now.Add(r.delay)
		}
	}
}

// Get returns a snapshot of the named region as seen now.
func (r *Regions) Get(name string) Region {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.byName[name]
	if !ok {
		return Region{Name: name}
	}
	return r.snapshot(name, reg, r.clock.Now())
}

// Text returns the raw text of a region regardless of visibility.
func (r *Regions) Text(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if reg, ok := r.byName[name]; ok {
		return reg.text
	}
	return ""
}

// Visible reports whether the named region is currently shown.
func (r *Regions) Visible(name string) bool {
	return r.Get(name).Visible
}

// Snapshot returns every region as seen now, in declaration order.
func (r *Regions) Snapshot() []Region {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.clock.Now()
	out := make([]Region, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.snapshot(name, r.byName[name], now))
	}
	return out
}

func (r *Regions) snapshot(name string, reg *region, now time.Time) Region {
	s := Region{Name: name, Text: reg.text, Visible: reg.visible, Opacity: 0}
	if reg.visible {
		s.Opacity = 1
	}
	if reg.fadeAt.IsZero() || now.Before(reg.fadeAt) {
		return s
	}

	elapsed := now.Sub(reg.fadeAt)
	if r.fade <= 0 || elapsed >= r.fade {
		s.Visible = false
		s.Opacity = 0
		return s
	}
	s.Opacity = 1 - float64(elapsed)/float64(r.fade)
	return s
}

// NextDeadline returns the next instant at which a pending flash changes state
// (starts fading or disappears), and false when nothing is pending.
func (r *Regions) NextDeadline() (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.clock.Now()
	var next time.Time
	for _, reg := range r.byName {
		if reg.fadeAt.IsZero() || !reg.visible {
			continue
		}
		end := reg.fadeAt.Add(r.fade)
		var at time.Time
		switch {
		case now.Before(reg.fadeAt):
			at = reg.fadeAt
		case now.Before(end):
			at = end
		default:
			continue
		}
		if next.IsZero() || at.Before(next) {
			next = at
		}
	}
	return next, !next.IsZero()
}

// Fading reports whether any flash is between its delay and its end.
func (r *Regions) Fading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.clock.Now()
	for _, reg := range r.byName {
		if reg.fadeAt.IsZero() || !reg.visible {
			continue
		}
		if !now.Before(reg.fadeAt) && now.Before(reg.fadeAt.Add(r.fade)) {
			return true
		}
	}
	return false
}
