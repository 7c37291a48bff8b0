package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"geopick/internal/domain"
	"geopick/internal/selection"
)

// Forward sends a StateMsg for every change in store until the returned
// stop func is called. Bursts collapse into one message carrying the latest
// snapshot, so a slow program never blocks the engine loop.
func Forward(store *selection.Store, send func(tea.Msg)) (stop func()) {
	dirty := make(chan struct{}, 1)
	done := make(chan struct{})
	unsub := store.SubscribeAll(func(domain.StateChangedEvent) {
		select {
		case dirty <- struct{}{}:
		default:
		}
	})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-dirty:
				send(StateMsg{State: store.Snapshot()})
			}
		}
	}()

	return func() {
		unsub()
		close(done)
	}
}
