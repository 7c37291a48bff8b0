package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"geopick/internal/domain"
)

// DefaultEndpoint is the public Nominatim search endpoint
const DefaultEndpoint = "https://nominatim.openstreetmap.org/search"

// maxBody caps how much of a provider response is read
const maxBody = 4 << 20

// Config holds the Nominatim client settings
type Config struct {
	Endpoint     string
	UserAgent    string
	Language     string // Accept-Language header value
	CountryCodes string // comma separated ISO 3166-1 alpha-2 codes, optional
	QuerySuffix  string // appended to free-text terms, e.g. " brasil"
	Limit        int    // 0 lets the provider decide
	Timeout      time.Duration
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// Nominatim is a Gateway backed by a Nominatim-compatible HTTP API
type Nominatim struct {
	endpoint string
	cfg      Config
	client   *http.Client
	log      *slog.Logger
}

// NewNominatim creates a Nominatim client
func NewNominatim(cfg Config) (*Nominatim, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid geocoder endpoint %q", endpoint)
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "geopick/1.0"
	}

	return &Nominatim{
		endpoint: endpoint,
		cfg:      cfg,
		client:   client,
		log:      log.With("component", "nominatim"),
	}, nil
}

// SearchByText runs a forward search for a free-text term
func (n *Nominatim) SearchByText(ctx context.Context, term string) ([]domain.LocationCandidate, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, invalid(OpSearch, errors.New("empty search term"))
	}

	params := n.baseParams()
	params.Set("q", term+n.cfg.QuerySuffix)
	return n.search(ctx, OpSearch, params)
}

// SearchByCoordinateAndBounds runs a search for a "lat,lon" query restricted
// to the given box. The provider may still return hits outside the box.
func (n *Nominatim) SearchByCoordinateAndBounds(ctx context.Context, query string, box domain.BoundingBox) ([]domain.LocationCandidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid(OpReverse, errors.New("empty coordinate query"))
	}
	if box.South > box.North {
		return nil, invalid(OpReverse, fmt.Errorf("inverted box: south %v > north %v", box.South, box.North))
	}

	params := n.baseParams()
	params.Set("q", query)
	params.Set("viewbox", strings.Join([]string{
		formatCoord(box.West),
		formatCoord(box.North),
		formatCoord(box.East),
		formatCoord(box.South),
	}, ","))
	params.Set("bounded", "1")
	return n.search(ctx, OpReverse, params)
}

func (n *Nominatim) baseParams() url.Values {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	if n.cfg.Limit > 0 {
		params.Set("limit", strconv.Itoa(n.cfg.Limit))
	}
	if n.cfg.CountryCodes != "" {
		params.Set("countrycodes", n.cfg.CountryCodes)
	}
	return params
}

func (n *Nominatim) search(ctx context.Context, op string, params url.Values) ([]domain.LocationCandidate, error) {
	if ctxCancelled(ctx) {
		return nil, cancelled(op, ctx.Err())
	}

	reqURL := fmt.Sprintf("%s?%s", n.endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, invalid(op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", n.cfg.UserAgent)
	if n.cfg.Language != "" {
		req.Header.Set("Accept-Language", n.cfg.Language)
	}

	start := time.Now()
	resp, err := n.client.Do(req)
	if err != nil {
		if ctxCancelled(ctx) {
			return nil, cancelled(op, err)
		}
		n.log.Error("nominatim request failed", "op", op, "error", err)
		return nil, failed(op, 0, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		n.log.Error("nominatim upstream error", "op", op, "status", resp.StatusCode)
		return nil, failed(op, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	var raw []rawPlace
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&raw); err != nil {
		if ctxCancelled(ctx) {
			return nil, cancelled(op, err)
		}
		n.log.Error("failed to decode nominatim payload", "op", op, "error", err)
		return nil, failed(op, resp.StatusCode, fmt.Errorf("decode payload: %w", err))
	}

	candidates, err := parsePlaces(raw)
	if err != nil {
		n.log.Error("malformed nominatim record", "op", op, "error", err)
		return nil, failed(op, resp.StatusCode, err)
	}

	// a cancellation that lands after the body was read still wins
	if ctxCancelled(ctx) {
		return nil, cancelled(op, ctx.Err())
	}

	n.log.Debug("nominatim search done",
		"op", op,
		"query", params.Get("q"),
		"results", len(candidates),
		"duration", time.Since(start))
	return candidates, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
