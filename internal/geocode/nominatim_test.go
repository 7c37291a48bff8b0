package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geopick/internal/domain"
)

const curitibaPayload = `[{"place_id":1,"display_name":"Curitiba, PR","lat":"-25.42","lon":"-49.27","boundingbox":["-25.5","-25.3","-49.4","-49.1"]}]`

type fakeProvider struct {
	t        *testing.T
	server   *httptest.Server
	calls    atomic.Int32
	lastURL  atomic.Pointer[url.URL]
	lastHdr  atomic.Pointer[http.Header]
	status   int
	body     string
	block    chan struct{}
	received chan struct{}
}

func newFakeProvider(t *testing.T, status int, body string) *fakeProvider {
	t.Helper()
	f := &fakeProvider{t: t, status: status, body: body}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		u := *r.URL
		f.lastURL.Store(&u)
		h := r.Header.Clone()
		f.lastHdr.Store(&h)
		if f.received != nil {
			f.received <- struct{}{}
		}
		if f.block != nil {
			select {
			case <-f.block:
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeProvider) client(t *testing.T, mutate ...func(*Config)) *Nominatim {
	t.Helper()
	cfg := Config{
		Endpoint:  f.server.URL + "/search",
		UserAgent: "geopick-test",
		Language:  "pt-BR",
	}
	for _, m := range mutate {
		m(&cfg)
	}
	n, err := NewNominatim(cfg)
	require.NoError(t, err)
	return n
}

func TestSearchByText_Curitiba(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, curitibaPayload)
	n := f.client(t)

	res, err := n.SearchByText(context.Background(), "curitiba")
	require.NoError(t, err)
	require.Len(t, res, 1)

	c := res[0]
	assert.Equal(t, int64(1), c.ID)
	assert.Equal(t, "Curitiba, PR", c.DisplayName)
	assert.Equal(t, domain.LatLng{Lat: -25.42, Lon: -49.27}, c.Center)
	require.NotNil(t, c.BoundingBox)
	assert.Equal(t, [4]float64{-25.5, -49.4, -25.3, -49.1}, c.BoundingBox.Tuple())
}

func TestSearchByText_RequestShape(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, `[]`)
	n := f.client(t, func(c *Config) {
		c.QuerySuffix = " brasil"
		c.CountryCodes = "br"
		c.Limit = 5
	})

	res, err := n.SearchByText(context.Background(), "  curitiba ")
	require.NoError(t, err)
	assert.Empty(t, res)

	u := f.lastURL.Load()
	require.NotNil(t, u)
	assert.Equal(t, "/search", u.Path)
	q := u.Query()
	assert.Equal(t, "curitiba brasil", q.Get("q"))
	assert.Equal(t, "json", q.Get("format"))
	assert.Equal(t, "1", q.Get("addressdetails"))
	assert.Equal(t, "5", q.Get("limit"))
	assert.Equal(t, "br", q.Get("countrycodes"))
	assert.Empty(t, q.Get("viewbox"))
	assert.Empty(t, q.Get("bounded"))

	h := f.lastHdr.Load()
	require.NotNil(t, h)
	assert.Equal(t, "pt-BR", h.Get("Accept-Language"))
	assert.Equal(t, "geopick-test", h.Get("User-Agent"))
}

func TestSearchByCoordinateAndBounds_RequestShape(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, `[]`)
	n := f.client(t, func(c *Config) { c.QuerySuffix = " brasil" })

	box := domain.BoundingBox{South: -24.1, West: -49.0, North: -23.9, East: -48.8}
	_, err := n.SearchByCoordinateAndBounds(context.Background(), "-24,-48.9", box)
	require.NoError(t, err)

	q := f.lastURL.Load().Query()
	assert.Equal(t, "-24,-48.9", q.Get("q"), "suffix only applies to free text")
	assert.Equal(t, "-49,-23.9,-48.8,-24.1", q.Get("viewbox"))
	assert.Equal(t, "1", q.Get("bounded"))
}

func TestSearchByText_EmptyTermRejected(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, `[]`)
	n := f.client(t)

	_, err := n.SearchByText(context.Background(), "   ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, int32(0), f.calls.Load())
}

func TestSearch_ProviderFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `oops`},
		{"rate limited", http.StatusTooManyRequests, ``},
		{"malformed json", http.StatusOK, `{"not":"an array"`},
		{"bad latitude", http.StatusOK, `[{"place_id":1,"display_name":"x","lat":"north","lon":"1"}]`},
		{"short bbox", http.StatusOK, `[{"place_id":1,"display_name":"x","lat":"1","lon":"1","boundingbox":["1","2","3"]}]`},
		{"inverted bbox", http.StatusOK, `[{"place_id":1,"display_name":"x","lat":"1","lon":"1","boundingbox":["2","1","3","4"]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeProvider(t, tt.status, tt.body)
			n := f.client(t)

			res, err := n.SearchByText(context.Background(), "curitiba")
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrGeocode)
			assert.False(t, IsCancelled(err))

			var gerr *Error
			require.True(t, errors.As(err, &gerr))
			assert.Equal(t, OpSearch, gerr.Op)
			if tt.status != http.StatusOK {
				assert.Equal(t, tt.status, gerr.Status)
			}
		})
	}
}

func TestSearch_TransportFailure(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, `[]`)
	n := f.client(t)
	f.server.Close()

	_, err := n.SearchByText(context.Background(), "curitiba")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeocode)
}

func TestSearch_CancelledMidFlight(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, curitibaPayload)
	f.block = make(chan struct{})
	f.received = make(chan struct{}, 1)
	defer close(f.block)
	n := f.client(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		res, err := n.SearchByText(ctx, "curitiba")
		assert.Nil(t, res)
		done <- err
	}()

	select {
	case <-f.received:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the provider")
	}
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCancelled)
		assert.True(t, IsCancelled(err))
	case <-time.After(5 * time.Second):
		t.Fatal("search did not return after cancellation")
	}
}

func TestSearch_CancelledBeforeStart(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, curitibaPayload)
	n := f.client(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := n.SearchByCoordinateAndBounds(ctx, "-24,-48.9", domain.BoundingBox{South: -25, West: -49, North: -23, East: -48})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, int32(0), f.calls.Load())
}

func TestSearch_DeadlineIsProviderFailure(t *testing.T) {
	f := newFakeProvider(t, http.StatusOK, curitibaPayload)
	f.block = make(chan struct{})
	defer close(f.block)
	n := f.client(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := n.SearchByText(ctx, "curitiba")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeocode)
	assert.False(t, IsCancelled(err))
}

func TestNewNominatim_InvalidEndpoint(t *testing.T) {
	_, err := NewNominatim(Config{Endpoint: "not a url"})
	assert.Error(t, err)
}
