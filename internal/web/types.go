package web

import (
	"context"

	"geopick/internal/domain"
	"geopick/internal/selection"
	"geopick/internal/viewsync"
)

// Engine is the part of the selection engine the HTTP surface drives
type Engine interface {
	SetText(text string) bool
	FlushSearch() bool
	ClickMap(at domain.LatLng, visible domain.BoundingBox) bool
	SelectResult(ctx context.Context, id int64) (domain.LocationCandidate, error)
	SetViewFollowEnabled(enabled bool) bool
	Snapshot() domain.SelectionState
	Store() *selection.Store
}

// Types

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

type HealthOutput struct {
	Body HealthBody
}

type SelectionBody struct {
	State domain.SelectionState `json:"state" doc:"Current selection state"`
	View  viewsync.Command      `json:"view" doc:"What a map showing this state should do with its viewport"`
}

type SelectionOutput struct {
	Body SelectionBody
}

type SearchInput struct {
	Body struct {
		Text  string `json:"text" maxLength:"256" doc:"Current search input; empty clears the results"`
		Flush bool   `json:"flush,omitempty" doc:"Send now instead of waiting for the debounce"`
	}
}

type SelectInput struct {
	Body struct {
		ID int64 `json:"id" doc:"Provider place id of a candidate in the current results"`
	}
}

type CandidateOutput struct {
	Body domain.LocationCandidate
}

type MarkInput struct {
	Body struct {
		Lat   float64 `json:"lat" minimum:"-90" maximum:"90" doc:"Clicked latitude"`
		Lon   float64 `json:"lon" minimum:"-180" maximum:"180" doc:"Clicked longitude"`
		South float64 `json:"south" minimum:"-90" maximum:"90" doc:"Visible bounds, south edge"`
		West  float64 `json:"west" minimum:"-180" maximum:"180" doc:"Visible bounds, west edge"`
		North float64 `json:"north" minimum:"-90" maximum:"90" doc:"Visible bounds, north edge"`
		East  float64 `json:"east" minimum:"-180" maximum:"180" doc:"Visible bounds, east edge"`
	}
}

type ViewFollowInput struct {
	Body struct {
		Enabled bool `json:"enabled" doc:"Whether the map should follow the selection"`
	}
}

type AcceptedBody struct {
	Message string `json:"message" doc:"Result message"`
}

type AcceptedOutput struct {
	Body AcceptedBody
}
