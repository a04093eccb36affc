package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/streamflow-etl/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Comparer computes a flow comparison on demand.
type Comparer interface {
	Compare(ctx context.Context, siteCode string, referenceDate time.Time) (domain.FlowComparison, error)
}

// Server exposes health, readiness, metrics, and the comparison API.
type Server struct {
	httpServer *http.Server
	comparer   Comparer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /api/v1/gauges/{site}/comparison routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, comparer Comparer, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		comparer: comparer,
		logger:   logger,
	}

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/api/v1/gauges/{site}/comparison", s.handleComparison)

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

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")
	if err := domain.ValidateSiteCode(site); err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: domain.KindInvalidSiteCode})
		return
	}

	referenceDate := domain.Today()
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := domain.ParseReferenceDate(v)
		if err != nil {
			sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "invalid_date"})
			return
		}
		referenceDate = d
	}

	result, err := s.comparer.Compare(r.Context(), site, referenceDate)
	if err != nil {
		kind := domain.FailureKind(err)
		status := statusForKind(kind)
		if status >= http.StatusInternalServerError {
			s.logger.Error("comparison failed", "site_code", site, "kind", kind, "error", err)
		}
		sharedobs.WriteJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, result)
}

// statusForKind maps a failure kind to an HTTP status.
func statusForKind(kind string) int {
	switch kind {
	case domain.KindInvalidSiteCode:
		return http.StatusBadRequest
	case domain.KindGaugeNotFound, domain.KindNoRecentData, domain.KindNoHistoricalData:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
