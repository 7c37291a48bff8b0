// Package debounce delays an action until its trigger has been quiet for a
// fixed interval.
package debounce

import (
	"sync"
	"time"
)

// Func is called when the quiet period elapses. gen identifies the trigger
// that fired; it can be checked with Stale once the call has been handed
// off to another goroutine.
type Func func(gen uint64)

// Debouncer runs fn once the trigger has been quiet for the delay. Each
// Trigger restarts the wait; only the timer that survives the full delay fires.
type Debouncer struct {
	mu    sync.Mutex
	clock Clock
	delay time.Duration
	fn    Func
	timer Timer
	gen   uint64
}

// New creates a debouncer. A nil clock uses the real clock.
func New(clock Clock, delay time.Duration, fn Func) *Debouncer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Debouncer{clock: clock, delay: delay, fn: fn}
}

// Trigger (re)starts the delay
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Stop cancels a pending fire and invalidates any fire already handed off.
// It reports whether a timer was pending.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked()
}

// Stale reports whether a later Trigger or Stop superseded the fire for gen
func (d *Debouncer) Stale(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return gen != d.gen
}

func (d *Debouncer) stopLocked() bool {
	d.gen++
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	return true
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		// stopped after the runtime already started the callback
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fn(gen)
}
