// Package selection holds the selection store, the single source of truth
// for the current place, the last search results, loading flags, the
// stored error and the view-follow flag.
package selection

import (
	"log/slog"
	"sync"

	"geopick/internal/domain"
	"geopick/internal/eventbus"
	"geopick/internal/metrics"
)

// Store applies last-write-wins mutations and notifies subscribers of the
// fields whose value actually changed. Writes are expected to come from a
// single goroutine (the engine loop); Snapshot is safe from any goroutine.
type Store struct {
	mu    sync.RWMutex
	state domain.SelectionState
	bus   eventbus.EventBus
	log   *slog.Logger
}

// NewStore creates a store at rest. A nil bus gets a private one.
func NewStore(bus eventbus.EventBus, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	if bus == nil {
		bus = eventbus.New(log)
	}
	return &Store{
		state: domain.SelectionState{Results: []domain.LocationCandidate{}},
		bus:   bus,
		log:   log.With("component", "selection"),
	}
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() domain.SelectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// BeginSearch marks a text search as in flight and clears the error
func (s *Store) BeginSearch() {
	s.mutate(OpBeginSearch, func(st *domain.SelectionState) {
		st.SearchLoading = true
		st.Error = nil
	})
}

// CompleteSearch stores the results of the latest text search.
// The current selection is left alone.
func (s *Store) CompleteSearch(results []domain.LocationCandidate) {
	results = cloneResults(results)
	s.mutate(OpCompleteSearch, func(st *domain.SelectionState) {
		st.Results = results
		st.SearchLoading = false
	})
}

// FailSearch stores the error and drops any stale results
func (s *Store) FailSearch(failure domain.Failure) {
	s.mutate(OpFailSearch, func(st *domain.SelectionState) {
		st.Error = &failure
		st.Results = []domain.LocationCandidate{}
		st.SearchLoading = false
	})
}

// ResetSearch clears results, error and the search loading flag
func (s *Store) ResetSearch() {
	s.mutate(OpResetSearch, func(st *domain.SelectionState) {
		st.Results = []domain.LocationCandidate{}
		st.Error = nil
		st.SearchLoading = false
	})
}

// BeginMark records a map click: auto-follow is turned off and the click
// position becomes the provisional marker
func (s *Store) BeginMark(at domain.LatLng) {
	s.mutate(OpBeginMark, func(st *domain.SelectionState) {
		st.MarkLoading = true
		st.Error = nil
		st.ViewFollowEnabled = false
		st.Marker = &at
	})
}

// CompleteMark stores the reverse lookup outcome. A nil candidate clears the
// selection and keeps the provisional marker; otherwise the marker moves to
// the candidate's center.
func (s *Store) CompleteMark(candidate *domain.LocationCandidate) {
	candidate = candidate.Clone()
	s.mutate(OpCompleteMark, func(st *domain.SelectionState) {
		st.Selected = candidate
		st.MarkLoading = false
		if candidate != nil {
			center := candidate.Center
			st.Marker = &center
		}
	})
}

// FailMark stores the error and clears the selection; the marker stays
func (s *Store) FailMark(failure domain.Failure) {
	s.mutate(OpFailMark, func(st *domain.SelectionState) {
		st.Error = &failure
		st.Selected = nil
		st.MarkLoading = false
	})
}

// Select picks a candidate explicitly and turns auto-follow back on
func (s *Store) Select(candidate domain.LocationCandidate) {
	picked := candidate.Clone()
	s.mutate(OpSelect, func(st *domain.SelectionState) {
		st.Selected = picked
		st.ViewFollowEnabled = true
		st.Marker = nil
	})
}

// SetViewFollowEnabled sets the view-follow flag
func (s *Store) SetViewFollowEnabled(enabled bool) {
	s.mutate(OpSetViewFollow, func(st *domain.SelectionState) {
		st.ViewFollowEnabled = enabled
	})
}

// ResetSelection clears the selection and the provisional marker
func (s *Store) ResetSelection() {
	s.mutate(OpResetSelection, func(st *domain.SelectionState) {
		st.Selected = nil
		st.Marker = nil
	})
}

// Subscribe calls handler whenever field changes value. Handlers run in
// subscription order after the store lock is released.
func (s *Store) Subscribe(field domain.Field, handler Handler) func() {
	return s.bus.Subscribe(field.EventType(), func(e eventbus.DomainEvent) {
		if fc, ok := e.(domain.FieldChangedEvent); ok {
			handler(fc.State)
		}
	})
}

// SubscribeAll calls handler once per mutation that changed any field
func (s *Store) SubscribeAll(handler ChangeHandler) func() {
	return s.bus.Subscribe(domain.EventStateChanged, func(e eventbus.DomainEvent) {
		if sc, ok := e.(domain.StateChangedEvent); ok {
			handler(sc)
		}
	})
}

// Bus returns the event bus the store publishes on
func (s *Store) Bus() eventbus.EventBus {
	return s.bus
}

func (s *Store) mutate(op string, apply func(*domain.SelectionState)) {
	s.mu.Lock()
	before := s.state
	next := s.state.Clone()
	apply(&next)
	changed := diff(before, next)
	if len(changed) == 0 {
		s.mu.Unlock()
		return
	}
	s.state = next
	snapshot := next.Clone()
	s.mu.Unlock()

	s.log.Debug("state changed", "op", op, "fields", changed)
	for _, f := range changed {
		metrics.StateChanges.WithLabelValues(string(f)).Inc()
		s.bus.Publish(domain.FieldChangedEvent{Field: f, State: snapshot.Clone()})
	}
	s.bus.Publish(domain.StateChangedEvent{Op: op, Fields: changed, State: snapshot})
}

// diff lists the fields whose values differ, in domain.AllFields order
func diff(a, b domain.SelectionState) []domain.Field {
	var out []domain.Field
	for _, f := range domain.AllFields {
		if !fieldEqual(f, a, b) {
			out = append(out, f)
		}
	}
	return out
}

func fieldEqual(f domain.Field, a, b domain.SelectionState) bool {
	switch f {
	case domain.FieldSelected:
		return a.Selected.Equal(b.Selected)
	case domain.FieldResults:
		return resultsEqual(a.Results, b.Results)
	case domain.FieldSearchLoading:
		return a.SearchLoading == b.SearchLoading
	case domain.FieldMarkLoading:
		return a.MarkLoading == b.MarkLoading
	case domain.FieldError:
		if a.Error == nil || b.Error == nil {
			return a.Error == b.Error
		}
		return *a.Error == *b.Error
	case domain.FieldViewFollow:
		return a.ViewFollowEnabled == b.ViewFollowEnabled
	case domain.FieldMarker:
		if a.Marker == nil || b.Marker == nil {
			return a.Marker == b.Marker
		}
		return *a.Marker == *b.Marker
	}
	return true
}

func resultsEqual(a, b []domain.LocationCandidate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(&b[i]) {
			return false
		}
	}
	return true
}

func cloneResults(in []domain.LocationCandidate) []domain.LocationCandidate {
	out := make([]domain.LocationCandidate, len(in))
	for i := range in {
		out[i] = *in[i].Clone()
	}
	return out
}
