// Package viewsync decides whether a map view should fit the selection or
// stay where the user left it. The decision depends only on selection state.
package viewsync

import (
	"geopick/internal/domain"
	"geopick/internal/geobox"
)

// Defaults for the fitted view
const (
	DefaultPadFraction   = 0.1
	DefaultMinPadDegrees = 0.005
	DefaultMaxFitZoom    = 14
)

// Mode tells the consumer what to do with its viewport
type Mode string

const (
	ModeFit  Mode = "fit"
	ModeHold Mode = "hold"
)

// Command is the viewport decision for one state
type Command struct {
	Mode    Mode                `json:"mode"`
	Bounds  *domain.BoundingBox `json:"bounds,omitempty"`  // set for ModeFit
	Center  domain.LatLng       `json:"center"`            // fit center, or the point to keep in view
	MaxZoom int                 `json:"maxZoom,omitempty"` // upper bound for the fitted zoom
}

// Options tunes the fitted region
type Options struct {
	PadFraction   float64
	MinPadDegrees float64
	MaxFitZoom    int
}

// DefaultOptions returns the options used by the engine consumers
func DefaultOptions() Options {
	return Options{
		PadFraction:   DefaultPadFraction,
		MinPadDegrees: DefaultMinPadDegrees,
		MaxFitZoom:    DefaultMaxFitZoom,
	}
}

// Decide returns the viewport command for state
func Decide(state domain.SelectionState, fallback domain.LatLng) Command {
	return DecideWith(state, fallback, DefaultOptions())
}

// DecideWith is Decide with explicit options
func DecideWith(state domain.SelectionState, fallback domain.LatLng, opts Options) Command {
	if state.Selected != nil && state.ViewFollowEnabled {
		region := geobox.FitRegion(state.Selected.Box(), opts.PadFraction, opts.MinPadDegrees)
		return Command{
			Mode:    ModeFit,
			Bounds:  &region,
			Center:  geobox.Center(region),
			MaxZoom: opts.MaxFitZoom,
		}
	}

	center := fallback
	switch {
	case state.Marker != nil:
		center = *state.Marker
	case state.Selected != nil:
		center = state.Selected.Center
	}
	return Command{Mode: ModeHold, Center: center}
}

// Zoom resolves the zoom level a consumer with a widthPx x heightPx view
// should use for the command; current is kept for ModeHold
func (c Command) Zoom(widthPx, heightPx, current int) int {
	if c.Mode != ModeFit || c.Bounds == nil {
		return current
	}
	return geobox.FitZoom(*c.Bounds, widthPx, heightPx, c.MaxZoom)
}
