package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Geocoding outcomes
const (
	OutcomeOK        = "ok"
	OutcomeEmpty     = "empty"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)

var (
	// Geocoder metrics
	GeocodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geopick",
		Subsystem: "geocode",
		Name:      "requests_total",
		Help:      "Total geocoding requests by operation and outcome",
	}, []string{"op", "outcome"})

	GeocodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geopick",
		Subsystem: "geocode",
		Name:      "request_duration_seconds",
		Help:      "Geocoding request latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"op"})

	GeocodeResults = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geopick",
		Subsystem: "geocode",
		Name:      "results",
		Help:      "Number of candidates returned per successful request",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
	}, []string{"op"})

	RateLimitWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "geopick",
		Subsystem: "geocode",
		Name:      "ratelimit_wait_seconds",
		Help:      "Time spent waiting for the provider rate limiter",
		Buckets:   []float64{0, 0.01, 0.1, 0.5, 1, 2, 5},
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geopick",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total geocoding cache hits",
	}, []string{"op"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geopick",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total geocoding cache misses",
	}, []string{"op"})

	// Selection engine metrics
	RequestsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geopick",
		Subsystem: "engine",
		Name:      "requests_sent_total",
		Help:      "Search and mark requests issued to the gateway",
	}, []string{"kind"})

	RequestsDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geopick",
		Subsystem: "engine",
		Name:      "discarded_total",
		Help:      "Superseded or cancelled request resolutions dropped by the engine",
	}, []string{"kind"})

	StateChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geopick",
		Subsystem: "engine",
		Name:      "state_changes_total",
		Help:      "Selection state field changes",
	}, []string{"field"})

	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geopick",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geopick",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geopick",
		Subsystem: "http",
		Name:      "active_streams",
		Help:      "Current number of open server-sent event streams",
	})
)

// ObserveGeocode records one finished geocoding request
func ObserveGeocode(op, outcome string, results int, elapsed time.Duration) {
	GeocodeRequests.WithLabelValues(op, outcome).Inc()
	GeocodeDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	if outcome == OutcomeOK || outcome == OutcomeEmpty {
		GeocodeResults.WithLabelValues(op).Observe(float64(results))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the middleware
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// UnmatchedPath labels requests no route matched
const UnmatchedPath = "unmatched"

var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// Middleware records request metrics. Paths come from the mux pattern only;
// raw URLs never become label values.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = UnmatchedPath
		}
		method := r.Method
		if !knownMethods[method] {
			method = "OTHER"
		}
		httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus /metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}
