//go:build e2e && unix

package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const curitibaPayload = `[{"place_id":1,"display_name":"Curitiba, PR","lat":"-25.42","lon":"-49.27","boundingbox":["-25.5","-25.3","-49.4","-49.1"]},` +
	`{"place_id":2,"display_name":"Curitibanos, SC","lat":"-27.28","lon":"-50.58","boundingbox":["-27.35","-27.2","-50.7","-50.5"]}]`

// fakeGeocoder answers text searches with two places and map lookups with nothing
type fakeGeocoder struct {
	*httptest.Server

	mu      sync.Mutex
	queries []string
}

func newFakeGeocoder(t *testing.T) *fakeGeocoder {
	f := &fakeGeocoder{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f.mu.Lock()
		f.queries = append(f.queries, q.Get("q"))
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if q.Get("bounded") == "1" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		if strings.HasPrefix(q.Get("q"), "fail") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(curitibaPayload))
	}))
	t.Cleanup(f.Close)
	return f
}

// Queries returns the q parameters received so far
func (f *fakeGeocoder) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// newHome creates an isolated $HOME whose default config points at endpoint
func newHome(t *testing.T, endpoint, locale string) string {
	t.Helper()
	home := t.TempDir()
	dir := filepath.Join(home, ".config", "geopick")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	content := fmt.Sprintf(`version = 1

[geocoder]
endpoint = %q
locale = %q
rate_per_second = 0.0

[search]
debounce = "100ms"

[log]
level = "debug"
file = "geopick.log"
`, endpoint, locale)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644))
	return home
}
