// Package engine wires the selection store, the query controller and the
// map coordinator around one geocoding gateway and runs them on a single
// loop. Consumers read snapshots and subscriptions and call the mutators
// exposed here; they never touch the gateway.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"geopick/internal/debounce"
	"geopick/internal/domain"
	"geopick/internal/eventbus"
	"geopick/internal/geocode"
	"geopick/internal/locale"
	"geopick/internal/mark"
	"geopick/internal/metrics"
	"geopick/internal/query"
	"geopick/internal/selection"
)

// ErrNotInResults is returned by SelectResult for ids missing from the current results
var ErrNotInResults = errors.New("candidate not in current results")

// Options configures an engine
type Options struct {
	Debounce time.Duration
	Clock    debounce.Clock
	Locale   *locale.Locale
	Logger   *slog.Logger
}

// Engine is the location selection synchronization engine
type Engine struct {
	loop  *Loop
	bus   eventbus.EventBus
	store *selection.Store
	query *query.Controller
	mark  *mark.Coordinator
	log   *slog.Logger
	unsub []func()
}

// New builds an engine over gw. Call Run to start processing.
func New(gw geocode.Gateway, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	loc := opts.Locale
	if loc == nil {
		loc = locale.New("")
	}

	bus := eventbus.New(log)
	loop := NewLoop(log.With("component", "loop"))
	store := selection.NewStore(bus, log)

	e := &Engine{
		loop:  loop,
		bus:   bus,
		store: store,
		query: query.NewController(gw, store, loop, loc, log, query.Config{
			Debounce: opts.Debounce,
			Clock:    opts.Clock,
		}),
		mark: mark.NewCoordinator(gw, store, loop, loc, log),
		log:  log.With("component", "engine"),
	}
	e.subscribe()
	return e
}

func (e *Engine) subscribe() {
	e.unsub = append(e.unsub,
		e.bus.Subscribe(domain.EventSearchRequested, func(ev eventbus.DomainEvent) {
			r := ev.(domain.SearchRequestedEvent)
			metrics.RequestsSent.WithLabelValues(geocode.OpSearch).Inc()
			e.log.Debug("search sent", "request", r.RequestID, "term", r.Term)
		}),
		e.bus.Subscribe(domain.EventMarkRequested, func(ev eventbus.DomainEvent) {
			r := ev.(domain.MarkRequestedEvent)
			metrics.RequestsSent.WithLabelValues(geocode.OpReverse).Inc()
			e.log.Debug("map lookup sent", "request", r.RequestID, "at", r.At.String(), "visible", r.Visible.Tuple())
		}),
		e.bus.Subscribe(domain.EventSearchDiscarded, func(eventbus.DomainEvent) {
			metrics.RequestsDiscarded.WithLabelValues(geocode.OpSearch).Inc()
		}),
		e.bus.Subscribe(domain.EventMarkDiscarded, func(eventbus.DomainEvent) {
			metrics.RequestsDiscarded.WithLabelValues(geocode.OpReverse).Inc()
		}),
		e.bus.Subscribe(domain.EventSearchResolved, func(ev eventbus.DomainEvent) {
			r := ev.(domain.SearchResolvedEvent)
			e.log.Info("search resolved", "request", r.RequestID, "term", r.Term, "results", r.Count, "failed", r.Err != nil)
		}),
		e.bus.Subscribe(domain.EventMarkResolved, func(ev eventbus.DomainEvent) {
			r := ev.(domain.MarkResolvedEvent)
			e.log.Info("map lookup resolved", "request", r.RequestID, "at", r.At.String(), "found", r.Selected != nil, "failed", r.Err != nil)
		}),
	)
}

// Run processes engine work until ctx is done or Close is called
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("engine started")
	err := e.loop.Run(ctx)
	e.log.Info("engine stopped")
	return err
}

// Close cancels in-flight requests and stops the loop
func (e *Engine) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	cancelAll := func() {
		e.query.Close()
		e.mark.Close()
	}
	if err := e.loop.Do(ctx, cancelAll); err != nil {
		// Nothing else touches the controllers once the loop is gone
		e.log.Debug("close without loop", "error", err)
		e.loop.AfterExit(cancelAll)
	}
	e.loop.Stop()
	for _, u := range e.unsub {
		u()
	}
	e.unsub = nil
}

// SetText feeds the search input. It reports false once the engine stopped.
func (e *Engine) SetText(text string) bool {
	return e.loop.Post(func() { e.query.SetText(text) })
}

// FlushSearch sends the pending search without waiting for the debounce
func (e *Engine) FlushSearch() bool {
	return e.loop.Post(e.query.Flush)
}

// ClickMap handles a map click at the given point with visible on screen
func (e *Engine) ClickMap(at domain.LatLng, visible domain.BoundingBox) bool {
	return e.loop.Post(func() { e.mark.Click(at, visible) })
}

// Select picks a candidate and turns auto-follow on
func (e *Engine) Select(candidate domain.LocationCandidate) bool {
	return e.loop.Post(func() { e.store.Select(candidate) })
}

// SelectResult selects the current result with the given id and returns it
func (e *Engine) SelectResult(ctx context.Context, id int64) (domain.LocationCandidate, error) {
	var (
		picked domain.LocationCandidate
		found  bool
	)
	err := e.loop.Do(ctx, func() {
		picked, found = e.store.Snapshot().FindResult(id)
		if found {
			e.store.Select(picked)
		}
	})
	if err != nil {
		return domain.LocationCandidate{}, err
	}
	if !found {
		return domain.LocationCandidate{}, fmt.Errorf("%w: %d", ErrNotInResults, id)
	}
	return picked, nil
}

// SetViewFollowEnabled toggles auto-follow
func (e *Engine) SetViewFollowEnabled(enabled bool) bool {
	return e.loop.Post(func() { e.store.SetViewFollowEnabled(enabled) })
}

// ResetSelection clears the selection and the provisional marker
func (e *Engine) ResetSelection() bool {
	return e.loop.Post(e.store.ResetSelection)
}

// Sync waits until everything posted before it has run
func (e *Engine) Sync(ctx context.Context) error {
	return e.loop.Do(ctx, func() {})
}

// Snapshot returns a copy of the current state
func (e *Engine) Snapshot() domain.SelectionState {
	return e.store.Snapshot()
}

// Store exposes subscriptions. Handlers run on the engine loop and must not block.
func (e *Engine) Store() *selection.Store {
	return e.store
}

// Bus returns the bus carrying state and request events
func (e *Engine) Bus() eventbus.EventBus {
	return e.bus
}
