package geocode

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"geopick/internal/domain"
	"geopick/internal/metrics"
)

// Cache defaults match how long a forward search stays fresh in the picker
const (
	DefaultCacheSize = 128
	DefaultCacheTTL  = 60 * time.Second
)

// Cached memoizes successful forward searches by normalized term.
// Coordinate searches depend on the visible bounds and are always forwarded.
type Cached struct {
	next  Gateway
	cache *expirable.LRU[string, []domain.LocationCandidate]
}

// NewCached wraps next with an expiring LRU cache
func NewCached(next Gateway, size int, ttl time.Duration) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{
		next:  next,
		cache: expirable.NewLRU[string, []domain.LocationCandidate](size, nil, ttl),
	}
}

func (g *Cached) SearchByText(ctx context.Context, term string) ([]domain.LocationCandidate, error) {
	key := cacheKey(term)
	if key == "" {
		return g.next.SearchByText(ctx, term)
	}
	if hit, ok := g.cache.Get(key); ok {
		if ctxCancelled(ctx) {
			return nil, cancelled(OpSearch, ctx.Err())
		}
		metrics.CacheHits.WithLabelValues(OpSearch).Inc()
		return cloneCandidates(hit), nil
	}
	metrics.CacheMisses.WithLabelValues(OpSearch).Inc()

	res, err := g.next.SearchByText(ctx, term)
	if err != nil {
		return nil, err
	}
	g.cache.Add(key, cloneCandidates(res))
	return res, nil
}

func (g *Cached) SearchByCoordinateAndBounds(ctx context.Context, query string, box domain.BoundingBox) ([]domain.LocationCandidate, error) {
	return g.next.SearchByCoordinateAndBounds(ctx, query, box)
}


// Len returns the number of cached terms
func (g *Cached) Len() int {
	return g.cache.Len()
}

func cacheKey(term string) string {
	return strings.ToLower(strings.Join(strings.Fields(term), " "))
}
