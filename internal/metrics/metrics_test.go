package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesCount(c prometheus.Collector) int {
	ch := make(chan prometheus.Metric)
	go func() {
		c.Collect(ch)
		close(ch)
	}()
	n := 0
	for range ch {
		n++
	}
	return n
}

func TestMiddlewareUnmatchedPathsShareOneSeries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Middleware(mux)

	// Warm both series so only new label sets are counted
	for _, path := range []string{"/api/v1/health", "/scan/warm"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	before := seriesCount(httpRequestsTotal)

	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/scan/%d", i), nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, before, seriesCount(httpRequestsTotal))
}

func TestMiddlewareFoldsUnknownMethods(t *testing.T) {
	h := Middleware(http.NewServeMux())
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("PROPFIND", "/x", nil))
	before := seriesCount(httpRequestsTotal)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("BREW", "/y", nil))

	assert.Equal(t, before, seriesCount(httpRequestsTotal))
}
