package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
	"github.com/couchcryptid/remodel-estimate-service/internal/remodel"
)

// EstimateService runs and looks up remodel estimates.
type EstimateService interface {
	Estimate(ctx context.Context, req remodel.Request) (remodel.Outcome, error)
	Get(ctx context.Context, id string) (domain.RemodelRecord, error)
}

// Options configure the API routes.
type Options struct {
	// MapsAPIKey is handed to the browser for client-side map rendering.
	MapsAPIKey      string
	MaxRequestBytes int64
}

// Server exposes the remodel API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	svc        EstimateService
	opts       Options
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /api/remodel, /healthz, /readyz,
// and /metrics routes.
func NewServer(addr string, svc EstimateService, ready sharedobs.ReadinessChecker, opts Options, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
			// Bodies carry base64 photos and a request waits on several
			// third-party calls.
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:    svc,
		opts:   opts,
		logger: logger,
	}

	mux.HandleFunc("POST /api/remodel", s.handleEstimate)
	mux.HandleFunc("GET /api/remodel", s.handleAction)
	mux.HandleFunc("GET /api/remodel/{id}", s.handleDetails)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
