package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geopick/internal/domain"
)

func candidate(id int64, name string, lat, lon float64) domain.LocationCandidate {
	return domain.LocationCandidate{
		ID:          id,
		DisplayName: name,
		Center:      domain.LatLng{Lat: lat, Lon: lon},
		BoundingBox: &domain.BoundingBox{South: lat - 0.1, West: lon - 0.1, North: lat + 0.1, East: lon + 0.1},
	}
}

var geocodeFailure = domain.Failure{Kind: domain.ErrorKindGeocode, Message: "Falha ao buscar localização"}

func TestNewStoreAtRest(t *testing.T) {
	s := NewStore(nil, nil)
	st := s.Snapshot()

	assert.Nil(t, st.Selected)
	assert.NotNil(t, st.Results)
	assert.Empty(t, st.Results)
	assert.False(t, st.SearchLoading)
	assert.False(t, st.MarkLoading)
	assert.Nil(t, st.Error)
	assert.False(t, st.ViewFollowEnabled)
	assert.Nil(t, st.Marker)
}

func TestSearchLifecycle(t *testing.T) {
	s := NewStore(nil, nil)
	selected := candidate(9, "Registro", -24.5, -47.8)
	s.Select(selected)

	s.BeginSearch()
	st := s.Snapshot()
	assert.True(t, st.SearchLoading)
	assert.Nil(t, st.Error)

	results := []domain.LocationCandidate{candidate(1, "Curitiba", -25.42, -49.27), candidate(2, "Curitibanos", -27.28, -50.58)}
	s.CompleteSearch(results)
	st = s.Snapshot()
	assert.False(t, st.SearchLoading)
	assert.Equal(t, results, st.Results)
	require.NotNil(t, st.Selected)
	assert.Equal(t, int64(9), st.Selected.ID, "completing a search keeps the selection")
}

func TestFailSearchClearsResults(t *testing.T) {
	s := NewStore(nil, nil)
	s.CompleteSearch([]domain.LocationCandidate{candidate(1, "Curitiba", -25.42, -49.27)})
	s.BeginSearch()
	s.FailSearch(geocodeFailure)

	st := s.Snapshot()
	assert.Empty(t, st.Results)
	assert.False(t, st.SearchLoading)
	require.NotNil(t, st.Error)
	assert.Equal(t, geocodeFailure, *st.Error)

	s.BeginSearch()
	assert.Nil(t, s.Snapshot().Error, "a new search clears the error")
}

func TestResetSearch(t *testing.T) {
	s := NewStore(nil, nil)
	s.BeginSearch()
	s.FailSearch(geocodeFailure)
	s.BeginSearch()
	s.ResetSearch()

	st := s.Snapshot()
	assert.Empty(t, st.Results)
	assert.Nil(t, st.Error)
	assert.False(t, st.SearchLoading)
}

func TestMarkLifecycle(t *testing.T) {
	s := NewStore(nil, nil)
	s.Select(candidate(1, "Curitiba", -25.42, -49.27))
	require.True(t, s.Snapshot().ViewFollowEnabled)

	at := domain.LatLng{Lat: -24.0, Lon: -48.9}
	s.BeginMark(at)
	st := s.Snapshot()
	assert.True(t, st.MarkLoading)
	assert.False(t, st.ViewFollowEnabled)
	require.NotNil(t, st.Marker)
	assert.Equal(t, at, *st.Marker)

	hit := candidate(5, "Iguape", -24.7, -47.55)
	s.CompleteMark(&hit)
	st = s.Snapshot()
	assert.False(t, st.MarkLoading)
	require.NotNil(t, st.Selected)
	assert.Equal(t, int64(5), st.Selected.ID)
	assert.Equal(t, hit.Center, *st.Marker, "marker moves to the resolved center")
	assert.False(t, st.ViewFollowEnabled)
}

func TestCompleteMarkWithoutCandidate(t *testing.T) {
	s := NewStore(nil, nil)
	s.Select(candidate(1, "Curitiba", -25.42, -49.27))
	at := domain.LatLng{Lat: -24.0, Lon: -48.9}
	s.BeginMark(at)
	s.CompleteMark(nil)

	st := s.Snapshot()
	assert.Nil(t, st.Selected)
	assert.False(t, st.MarkLoading)
	assert.Nil(t, st.Error)
	require.NotNil(t, st.Marker)
	assert.Equal(t, at, *st.Marker)
}

func TestFailMarkKeepsMarker(t *testing.T) {
	s := NewStore(nil, nil)
	s.Select(candidate(1, "Curitiba", -25.42, -49.27))
	at := domain.LatLng{Lat: -24.0, Lon: -48.9}
	s.BeginMark(at)
	s.FailMark(geocodeFailure)

	st := s.Snapshot()
	assert.Nil(t, st.Selected)
	assert.False(t, st.MarkLoading)
	require.NotNil(t, st.Error)
	require.NotNil(t, st.Marker)
	assert.Equal(t, at, *st.Marker)
}

func TestSelectAlwaysEnablesViewFollow(t *testing.T) {
	s := NewStore(nil, nil)
	s.BeginMark(domain.LatLng{Lat: 1, Lon: 1})
	s.SetViewFollowEnabled(false)

	s.Select(candidate(2, "Curitibanos", -27.28, -50.58))
	st := s.Snapshot()
	assert.True(t, st.ViewFollowEnabled)
	assert.Nil(t, st.Marker)

	s.SetViewFollowEnabled(false)
	s.Select(candidate(2, "Curitibanos", -27.28, -50.58))
	assert.True(t, s.Snapshot().ViewFollowEnabled, "reselecting the same place re-enables follow")
}

func TestResetSelection(t *testing.T) {
	s := NewStore(nil, nil)
	s.BeginMark(domain.LatLng{Lat: 1, Lon: 1})
	hit := candidate(3, "x", 1, 1)
	s.CompleteMark(&hit)
	s.ResetSelection()

	st := s.Snapshot()
	assert.Nil(t, st.Selected)
	assert.Nil(t, st.Marker)
}

func TestSnapshotIsIsolated(t *testing.T) {
	s := NewStore(nil, nil)
	in := []domain.LocationCandidate{candidate(1, "Curitiba", -25.42, -49.27)}
	s.CompleteSearch(in)
	in[0].DisplayName = "changed by caller"

	st := s.Snapshot()
	st.Results[0].BoundingBox.North = 0
	assert.Equal(t, "Curitiba", s.Snapshot().Results[0].DisplayName)
	assert.InDelta(t, -25.32, s.Snapshot().Results[0].BoundingBox.North, 1e-9)
}

func TestSubscribeFiresOnlyOnChange(t *testing.T) {
	s := NewStore(nil, nil)

	var loading []bool
	unsub := s.Subscribe(domain.FieldSearchLoading, func(st domain.SelectionState) {
		loading = append(loading, st.SearchLoading)
	})

	s.BeginSearch()
	s.BeginSearch()
	s.CompleteSearch(nil)
	s.ResetSearch()
	assert.Equal(t, []bool{true, false}, loading)

	unsub()
	s.BeginSearch()
	assert.Len(t, loading, 2)
}

func TestSubscribeOrderAndAll(t *testing.T) {
	s := NewStore(nil, nil)

	var calls []string
	s.Subscribe(domain.FieldViewFollow, func(domain.SelectionState) { calls = append(calls, "first") })
	s.Subscribe(domain.FieldViewFollow, func(domain.SelectionState) { calls = append(calls, "second") })

	var events []domain.StateChangedEvent
	s.SubscribeAll(func(e domain.StateChangedEvent) { events = append(events, e) })

	s.SetViewFollowEnabled(true)
	s.SetViewFollowEnabled(true)
	assert.Equal(t, []string{"first", "second"}, calls)
	require.Len(t, events, 1)
	assert.Equal(t, OpSetViewFollow, events[0].Op)
	assert.Equal(t, []domain.Field{domain.FieldViewFollow}, events[0].Fields)

	s.BeginMark(domain.LatLng{Lat: -24, Lon: -48.9})
	require.Len(t, events, 2)
	e := events[1]
	assert.True(t, e.Has(domain.FieldMarkLoading))
	assert.True(t, e.Has(domain.FieldViewFollow))
	assert.True(t, e.Has(domain.FieldMarker))
	assert.False(t, e.Has(domain.FieldResults))
	assert.False(t, e.State.ViewFollowEnabled)
}

func TestHandlerCanReadSnapshot(t *testing.T) {
	s := NewStore(nil, nil)
	var seen domain.SelectionState
	s.Subscribe(domain.FieldSelected, func(domain.SelectionState) {
		seen = s.Snapshot()
	})

	s.Select(candidate(1, "Curitiba", -25.42, -49.27))
	require.NotNil(t, seen.Selected)
	assert.Equal(t, int64(1), seen.Selected.ID)
}
