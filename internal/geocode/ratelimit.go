package geocode

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"geopick/internal/domain"
	"geopick/internal/metrics"
)

// RateLimited spaces provider calls according to a token bucket. The public
// Nominatim instance allows one request per second.
type RateLimited struct {
	next    Gateway
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a limiter of perSecond requests and the given burst.
// A non-positive rate disables limiting.
func NewRateLimited(next Gateway, perSecond float64, burst int) *RateLimited {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (g *RateLimited) SearchByText(ctx context.Context, term string) ([]domain.LocationCandidate, error) {
	if err := g.wait(ctx, OpSearch); err != nil {
		return nil, err
	}
	return g.next.SearchByText(ctx, term)
}

func (g *RateLimited) SearchByCoordinateAndBounds(ctx context.Context, query string, box domain.BoundingBox) ([]domain.LocationCandidate, error) {
	if err := g.wait(ctx, OpReverse); err != nil {
		return nil, err
	}
	return g.next.SearchByCoordinateAndBounds(ctx, query, box)
}

func (g *RateLimited) wait(ctx context.Context, op string) error {
	start := time.Now()
	err := g.limiter.Wait(ctx)
	metrics.RateLimitWait.Observe(time.Since(start).Seconds())
	if err == nil {
		return nil
	}
	if ctxCancelled(ctx) {
		return cancelled(op, err)
	}
	// deadline would expire before a token is available
	return failed(op, 0, err)
}
