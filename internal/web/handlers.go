package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"

	"geopick/internal/domain"
	"geopick/internal/engine"
	"geopick/internal/geobox"
	"geopick/internal/metrics"
	"geopick/internal/viewsync"
)

// Handler holds the REST and SSE handlers over one engine
type Handler struct {
	engine   Engine
	fallback domain.LatLng
	view     viewsync.Options
	version  string
}

// NewHandler creates the handlers. fallback is the map center used when
// nothing is selected or marked.
func NewHandler(e Engine, fallback domain.LatLng, view viewsync.Options, version string) *Handler {
	return &Handler{engine: e, fallback: fallback, view: view, version: version}
}

func accepted() func(o *huma.Operation) {
	return func(o *huma.Operation) {
		o.DefaultStatus = http.StatusAccepted
	}
}

// RegisterRoutes registers every operation on api
func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))

	huma.Get(api, "/api/v1/selection", h.GetSelection, huma.OperationTags("selection"))
	huma.Put(api, "/api/v1/search", h.PutSearch, huma.OperationTags("selection"), accepted())
	huma.Post(api, "/api/v1/select", h.PostSelect, huma.OperationTags("selection"))
	huma.Post(api, "/api/v1/mark", h.PostMark, huma.OperationTags("selection"), accepted())
	huma.Put(api, "/api/v1/view-follow", h.PutViewFollow, huma.OperationTags("selection"), accepted())

	huma.Get(api, "/api/v1/events", h.Events, huma.OperationTags("events"))
}

func (h *Handler) GetHealth(ctx context.Context, input *struct{}) (*HealthOutput, error) {
	return &HealthOutput{Body: HealthBody{Status: "ok", Version: h.version}}, nil
}

func (h *Handler) GetSelection(ctx context.Context, input *struct{}) (*SelectionOutput, error) {
	return &SelectionOutput{Body: h.selection(h.engine.Snapshot())}, nil
}

func (h *Handler) PutSearch(ctx context.Context, input *SearchInput) (*AcceptedOutput, error) {
	if !h.engine.SetText(input.Body.Text) {
		return nil, huma.Error503ServiceUnavailable("engine stopped")
	}
	if input.Body.Flush {
		h.engine.FlushSearch()
	}
	return &AcceptedOutput{Body: AcceptedBody{Message: "search input accepted"}}, nil
}

func (h *Handler) PostSelect(ctx context.Context, input *SelectInput) (*CandidateOutput, error) {
	picked, err := h.engine.SelectResult(ctx, input.Body.ID)
	switch {
	case errors.Is(err, engine.ErrNotInResults):
		return nil, huma.Error404NotFound("candidate not in current results")
	case errors.Is(err, engine.ErrStopped):
		return nil, huma.Error503ServiceUnavailable("engine stopped")
	case err != nil:
		return nil, huma.Error500InternalServerError("select failed", err)
	}
	return &CandidateOutput{Body: picked}, nil
}

func (h *Handler) PostMark(ctx context.Context, input *MarkInput) (*AcceptedOutput, error) {
	b := input.Body
	visible, err := geobox.New(b.South, b.West, b.North, b.East)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity("invalid visible bounds", err)
	}
	at := domain.LatLng{Lat: b.Lat, Lon: b.Lon}
	if !geobox.Contains(visible, at) {
		return nil, huma.Error422UnprocessableEntity("clicked point is outside the visible bounds")
	}
	if !h.engine.ClickMap(at, visible) {
		return nil, huma.Error503ServiceUnavailable("engine stopped")
	}
	return &AcceptedOutput{Body: AcceptedBody{Message: "map click accepted"}}, nil
}

func (h *Handler) PutViewFollow(ctx context.Context, input *ViewFollowInput) (*AcceptedOutput, error) {
	if !h.engine.SetViewFollowEnabled(input.Body.Enabled) {
		return nil, huma.Error503ServiceUnavailable("engine stopped")
	}
	return &AcceptedOutput{Body: AcceptedBody{Message: "view follow updated"}}, nil
}

// Events streams the selection as Datastar signals: once on connect, then
// after every state change. Bursts are coalesced into one patch.
func (h *Handler) Events(ctx context.Context, input *struct{}) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			r, w := humago.Unwrap(humaCtx)
			sse := datastar.NewSSE(w, r)

			dirty := make(chan struct{}, 1)
			unsub := h.engine.Store().SubscribeAll(func(domain.StateChangedEvent) {
				select {
				case dirty <- struct{}{}:
				default:
				}
			})
			defer unsub()

			metrics.ActiveStreams.Inc()
			defer metrics.ActiveStreams.Dec()

			if err := h.patch(sse); err != nil {
				return
			}
			for {
				select {
				case <-r.Context().Done():
					return
				case <-dirty:
					if err := h.patch(sse); err != nil {
						return
					}
				}
			}
		},
	}, nil
}

func (h *Handler) patch(sse *datastar.ServerSentEventGenerator) error {
	body := h.selection(h.engine.Snapshot())
	return sse.MarshalAndPatchSignals(map[string]any{
		"selection": body.State,
		"view":      body.View,
	})
}

func (h *Handler) selection(st domain.SelectionState) SelectionBody {
	return SelectionBody{State: st, View: viewsync.DecideWith(st, h.fallback, h.view)}
}
