// Package geocode is the geocoding gateway: forward text search and bounded
// coordinate search against a Nominatim-compatible provider, returning
// normalized candidates in provider order.
package geocode

import (
	"context"

	"geopick/internal/domain"
)

// Gateway is the swappable geocoding abstraction used by the engine.
//
// When ctx is cancelled before completion, both operations return an error
// matching ErrCancelled and never a success value. Provider failures match
// ErrGeocode.
type Gateway interface {
	SearchByText(ctx context.Context, term string) ([]domain.LocationCandidate, error)
	SearchByCoordinateAndBounds(ctx context.Context, query string, box domain.BoundingBox) ([]domain.LocationCandidate, error)
}

// Operation names used in errors, logs and metrics
const (
	OpSearch  = "search"
	OpReverse = "reverse"
)

func cloneCandidates(in []domain.LocationCandidate) []domain.LocationCandidate {
	if in == nil {
		return nil
	}
	out := make([]domain.LocationCandidate, len(in))
	for i := range in {
		out[i] = *in[i].Clone()
	}
	return out
}
