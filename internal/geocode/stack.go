package geocode

import "time"

// StackOptions configures the decorators around the provider client
type StackOptions struct {
	RatePerSecond float64
	RateBurst     int
	CacheSize     int
	CacheTTL      time.Duration
	DisableCache  bool
}

// NewStack builds the production gateway: metrics outermost, then the cache
// so hits skip the rate limiter, then the limiter in front of the provider.
func NewStack(cfg Config, opts StackOptions) (Gateway, error) {
	client, err := NewNominatim(cfg)
	if err != nil {
		return nil, err
	}

	var gw Gateway = NewRateLimited(client, opts.RatePerSecond, opts.RateBurst)
	if !opts.DisableCache {
		gw = NewCached(gw, opts.CacheSize, opts.CacheTTL)
	}
	return NewInstrumented(gw), nil
}
