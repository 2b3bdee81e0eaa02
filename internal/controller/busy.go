package controller

import "sync"

// BusyState counts requests in flight across every action.
//
// Subscribers are told when the counter leaves or returns to zero, which is
// when the busy indicator and the disabled triggers toggle.
type BusyState struct {
	mu        sync.Mutex
	count     int
	underflow int
	subs      []func(busy bool)
}

// NewBusyState returns an idle counter.
func NewBusyState() *BusyState {
	return &BusyState{}
}

// Subscribe registers fn for busy/idle transitions.
func (b *BusyState) Subscribe(fn func(busy bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Inc records a request leaving.
func (b *BusyState) Inc() {
	b.mu.Lock()
	b.count++
	notify := b.count == 1
	subs := b.subs
	b.mu.Unlock()

	if notify {
		for _, fn := range subs {
			fn(true)
		}
	}
}

// Dec records a request completing. The counter never goes below zero; an
// unmatched Dec is counted in [BusyState.Underflows] instead.
func (b *BusyState) Dec() {
	b.mu.Lock()
	if b.count == 0 {
		b.underflow++
		b.mu.Unlock()
		return
	}
	b.count--
	notify := b.count == 0
	subs := b.subs
	b.mu.Unlock()

	if notify {
		for _, fn := range subs {
			fn(false)
		}
	}
}

// Count returns the number of requests in flight.
func (b *BusyState) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Busy reports whether any request is in flight.
func (b *BusyState) Busy() bool {
	return b.Count() > 0
}

// Underflows returns how many Dec calls had no matching Inc.
func (b *BusyState) Underflows() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.underflow
}
