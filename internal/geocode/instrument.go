package geocode

import (
	"context"
	"time"

	"geopick/internal/domain"
	"geopick/internal/metrics"
)

// Instrumented records per-operation counters and latency for the wrapped gateway
type Instrumented struct {
	next Gateway
	now  func() time.Time
}

// NewInstrumented wraps next with Prometheus metrics
func NewInstrumented(next Gateway) *Instrumented {
	return &Instrumented{next: next, now: time.Now}
}

func (g *Instrumented) SearchByText(ctx context.Context, term string) ([]domain.LocationCandidate, error) {
	start := g.now()
	res, err := g.next.SearchByText(ctx, term)
	metrics.ObserveGeocode(OpSearch, Outcome(res, err), len(res), g.now().Sub(start))
	return res, err
}

func (g *Instrumented) SearchByCoordinateAndBounds(ctx context.Context, query string, box domain.BoundingBox) ([]domain.LocationCandidate, error) {
	start := g.now()
	res, err := g.next.SearchByCoordinateAndBounds(ctx, query, box)
	metrics.ObserveGeocode(OpReverse, Outcome(res, err), len(res), g.now().Sub(start))
	return res, err
}

// Outcome classifies a gateway result for metrics and logs
func Outcome(res []domain.LocationCandidate, err error) string {
	switch {
	case err != nil && IsCancelled(err):
		return metrics.OutcomeCancelled
	case err != nil:
		return metrics.OutcomeError
	case len(res) == 0:
		return metrics.OutcomeEmpty
	default:
		return metrics.OutcomeOK
	}
}
