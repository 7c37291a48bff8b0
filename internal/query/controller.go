// Package query turns text input into debounced, cancellable forward
// searches and writes their outcome to the selection store.
package query

import (
	"context"
	"log/slog"
	"strings"

	"geopick/internal/debounce"
	"geopick/internal/domain"
	"geopick/internal/eventbus"
	"geopick/internal/geocode"
	"geopick/internal/locale"
	"geopick/internal/selection"
)

// Controller owns the search debounce timer and the in-flight search.
// Apart from the constructor, every method must run on the loop behind poster.
type Controller struct {
	gw     geocode.Gateway
	store  *selection.Store
	bus    eventbus.EventBus
	loop   Poster
	locale *locale.Locale
	log    *slog.Logger

	debouncer *debounce.Debouncer
	text      string
	seq       uint64
	inFlight  uint64 // id of the awaited request, 0 when none
	cancel    context.CancelFunc
}

// NewController creates a query controller
func NewController(gw geocode.Gateway, store *selection.Store, loop Poster, loc *locale.Locale, log *slog.Logger, cfg Config) *Controller {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = locale.New("")
	}
	delay := cfg.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}

	c := &Controller{
		gw:     gw,
		store:  store,
		bus:    store.Bus(),
		loop:   loop,
		locale: loc,
		log:    log.With("component", "query"),
	}
	c.debouncer = debounce.New(cfg.Clock, delay, func(gen uint64) {
		c.loop.Post(func() {
			if c.debouncer.Stale(gen) {
				return
			}
			c.fire()
		})
	})
	return c
}

// SetText records the current input. Non-empty input restarts the debounce;
// empty input resets the search right away without a network call.
func (c *Controller) SetText(text string) {
	c.text = text
	if strings.TrimSpace(text) == "" {
		c.debouncer.Stop()
		c.cancelInFlight()
		c.store.ResetSearch()
		return
	}
	c.debouncer.Trigger()
}

// Flush sends the pending search immediately
func (c *Controller) Flush() {
	c.debouncer.Stop()
	c.fire()
}

// Close stops the timer and cancels the in-flight search
func (c *Controller) Close() {
	c.debouncer.Stop()
	c.cancelInFlight()
}

func (c *Controller) fire() {
	term := strings.TrimSpace(c.text)
	c.cancelInFlight()
	if term == "" {
		c.store.ResetSearch()
		return
	}

	c.seq++
	id := c.seq
	ctx, cancel := context.WithCancel(context.Background())
	c.inFlight = id
	c.cancel = cancel

	c.store.BeginSearch()
	c.bus.Publish(domain.SearchRequestedEvent{RequestID: id, Term: term})

	go func() {
		res, err := c.gw.SearchByText(ctx, term)
		if !c.loop.Post(func() { c.resolve(id, term, res, err) }) {
			cancel()
		}
	}()
}

func (c *Controller) resolve(id uint64, term string, res []domain.LocationCandidate, err error) {
	if id != c.inFlight || geocode.IsCancelled(err) {
		c.log.Debug("search discarded", "request", id, "term", term)
		c.bus.Publish(domain.SearchDiscardedEvent{RequestID: id, Term: term})
		return
	}
	c.cancel()
	c.cancel = nil
	c.inFlight = 0

	if err != nil {
		c.log.Warn("search failed", "request", id, "term", term, "error", err)
		c.store.FailSearch(domain.Failure{
			Kind:    domain.ErrorKindGeocode,
			Message: c.locale.Text(locale.MsgSearchFailed),
		})
	} else {
		c.store.CompleteSearch(res)
	}
	c.bus.Publish(domain.SearchResolvedEvent{RequestID: id, Term: term, Count: len(res), Err: err})
}

func (c *Controller) cancelInFlight() {
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = nil
	c.inFlight = 0
}
