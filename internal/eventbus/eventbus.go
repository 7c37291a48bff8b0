package eventbus

import (
	"log/slog"
	"runtime/debug"
	"sync"

	"geopick/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
	SubscribeAll(handler EventHandler) func()
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// bus is the concrete implementation of EventBus.
// Publish delivers on the caller's goroutine, in subscription order, so an
// event published from the engine loop is observed before the next loop task runs.
type bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[EventType][]subscription
	all      []subscription
	log      *slog.Logger
}

// New creates a new event bus
func New(log *slog.Logger) EventBus {
	if log == nil {
		log = slog.Default()
	}
	return &bus{
		handlers: make(map[EventType][]subscription),
		log:      log,
	}
}

// Publish publishes an event to all subscribers
func (b *bus) Publish(event DomainEvent) {
	b.mu.RLock()
	typed := b.handlers[event.Type()]
	// Copy so handlers can (un)subscribe without deadlocking
	handlers := make([]subscription, 0, len(typed)+len(b.all))
	handlers = append(handlers, typed...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	for _, sub := range handlers {
		b.call(sub.handler, event)
	}
}

func (b *bus) call(h EventHandler, event DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panic",
				slog.String("event", string(event.Type())),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	h(event)
}

// Subscribe subscribes to events of a specific type
// Returns an unsubscribe function
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.handlers[eventType] = remove(b.handlers[eventType], id)
	}
}

// SubscribeAll subscribes to every event regardless of type
func (b *bus) SubscribeAll(handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.all = remove(b.all, id)
	}
}

func remove(subs []subscription, id uint64) []subscription {
	out := make([]subscription, 0, len(subs))
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}
