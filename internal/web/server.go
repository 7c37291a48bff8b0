// Package web serves the selection engine over HTTP: a REST API documented
// with OpenAPI, a Datastar SSE stream of the selection and Prometheus metrics.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"geopick/internal/domain"
	"geopick/internal/metrics"
	"geopick/internal/viewsync"
)

// Version is reported by /health and the OpenAPI document
const Version = "1.0.0"

// Config holds the server configuration.
type Config struct {
	Host     string
	Port     int
	Fallback domain.LatLng // map center when nothing is selected
	View     viewsync.Options
	Logger   *slog.Logger
}

// Server is the geopick HTTP server.
type Server struct {
	config  Config
	mux     *http.ServeMux
	humaAPI huma.API
	handler http.Handler
	log     *slog.Logger
}

// New creates a new server over the engine.
func New(e Engine, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.View == (viewsync.Options{}) {
		cfg.View = viewsync.DefaultOptions()
	}
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("geopick API", Version)
	humaConfig.Info.Description = "Location picker: debounced place search, map click lookup and view-follow state."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}

	s := &Server{
		config:  cfg,
		mux:     mux,
		humaAPI: humago.New(mux, humaConfig),
		log:     cfg.Logger.With("component", "web"),
	}

	NewHandler(e, cfg.Fallback, cfg.View, Version).RegisterRoutes(s.humaAPI)
	s.mux.Handle("GET /metrics", metrics.Handler())
	s.handler = metrics.Middleware(s.mux)
	return s
}

// API returns the huma API the routes are registered on
func (s *Server) API() huma.API {
	return s.humaAPI
}

// OpenAPI returns the generated OpenAPI document
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run listens until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts end with ctx so open event streams return on shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
