// Package mark turns a map click and the visible bounds into a bounded
// coordinate search and records the outcome as the current selection.
package mark

import (
	"context"
	"log/slog"

	"geopick/internal/domain"
	"geopick/internal/eventbus"
	"geopick/internal/geocode"
	"geopick/internal/locale"
	"geopick/internal/selection"
)

// Poster hands work to the goroutine that owns the selection store
type Poster interface {
	Post(fn func()) bool
}

// Coordinator owns the in-flight map lookup. Apart from the constructor,
// every method must run on the loop behind poster.
type Coordinator struct {
	gw     geocode.Gateway
	store  *selection.Store
	bus    eventbus.EventBus
	loop   Poster
	locale *locale.Locale
	log    *slog.Logger

	seq      uint64
	inFlight uint64
	cancel   context.CancelFunc
}

// NewCoordinator creates a map interaction coordinator
func NewCoordinator(gw geocode.Gateway, store *selection.Store, loop Poster, loc *locale.Locale, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = locale.New("")
	}
	return &Coordinator{
		gw:     gw,
		store:  store,
		bus:    store.Bus(),
		loop:   loop,
		locale: loc,
		log:    log.With("component", "mark"),
	}
}

// Click handles a click at the given point while visible is on screen.
// Auto-follow is turned off and the provisional marker set before the
// lookup is sent.
func (m *Coordinator) Click(at domain.LatLng, visible domain.BoundingBox) {
	m.cancelInFlight()
	m.store.BeginMark(at)

	m.seq++
	id := m.seq
	ctx, cancel := context.WithCancel(context.Background())
	m.inFlight = id
	m.cancel = cancel

	query := at.String()
	m.bus.Publish(domain.MarkRequestedEvent{RequestID: id, At: at, Visible: visible})

	go func() {
		res, err := m.gw.SearchByCoordinateAndBounds(ctx, query, visible)
		if !m.loop.Post(func() { m.resolve(id, at, res, err) }) {
			cancel()
		}
	}()
}

// Close cancels the in-flight lookup
func (m *Coordinator) Close() {
	m.cancelInFlight()
}

func (m *Coordinator) resolve(id uint64, at domain.LatLng, res []domain.LocationCandidate, err error) {
	if id != m.inFlight || geocode.IsCancelled(err) {
		m.log.Debug("map lookup discarded", "request", id)
		m.bus.Publish(domain.MarkDiscardedEvent{RequestID: id, At: at})
		return
	}
	m.cancel()
	m.cancel = nil
	m.inFlight = 0

	var selected *domain.LocationCandidate
	switch {
	case err != nil:
		m.log.Warn("map lookup failed", "request", id, "at", at.String(), "error", err)
		m.store.FailMark(domain.Failure{
			Kind:    domain.ErrorKindGeocode,
			Message: m.locale.Text(locale.MsgMarkFailed),
		})
	case len(res) == 0:
		m.store.CompleteMark(nil)
	default:
		selected = &res[0]
		m.store.CompleteMark(selected)
	}
	m.bus.Publish(domain.MarkResolvedEvent{RequestID: id, At: at, Selected: selected.Clone(), Err: err})
}

func (m *Coordinator) cancelInFlight() {
	if m.cancel != nil {
		m.cancel()
	}
	m.cancel = nil
	m.inFlight = 0
}
