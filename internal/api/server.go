// Package api serves booking searches over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lox/booking-search/internal/metrics"
	"github.com/lox/booking-search/internal/query"
	"github.com/lox/booking-search/internal/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Error codes returned in ErrorResponse.Code
const (
	CodeValidationFailed = "validation_failed"
	CodeInvalidQuery     = "invalid_query"
	CodeRebuildFailed    = "rebuild_failed"
	CodeInternalError    = "internal_error"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RebuildResponse describes a completed rebuild
type RebuildResponse struct {
	Generation uint64 `json:"generation"`
	Indexed    int    `json:"indexed"`
	Rejected   int    `json:"rejected"`
	DurationMs int64  `json:"durationMs"`
}

// HealthResponse describes the active index
type HealthResponse struct {
	Status     string     `json:"status"`
	Generation uint64     `json:"generation"`
	Documents  int        `json:"documents"`
	BuiltAt    *time.Time `json:"builtAt,omitempty"`
}

// Rebuilder reloads the booking snapshot into the search service
type Rebuilder interface {
	Reload(ctx context.Context) (search.RebuildStats, error)
}

// errorHandler tries to handle an error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server exposes a search service over HTTP
type Server struct {
	service       *search.Service
	rebuilder     Rebuilder
	logger        *log.Logger
	metrics       *metrics.Metrics
	gatherer      prometheus.Gatherer
	errorHandlers []errorHandler
}

// ServerOption is a function that modifies a Server
type ServerOption func(*Server)

// WithRebuilder enables POST /bookings/rebuild
func WithRebuilder(r Rebuilder) ServerOption {
	return func(s *Server) {
		s.rebuilder = r
	}
}

// WithMetrics records request metrics and serves gatherer on GET /metrics
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// NewServer creates an HTTP API server
func NewServer(service *search.Service, logger *log.Logger, opts ...ServerOption) *Server {
	s := &Server{
		service: service,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(search.ErrValidation, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(search.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery),
	}
	return s
}

// Handler returns the router with all routes and middleware installed
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.recoverer)
	r.Use(s.requestLogger)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware())
	}

	r.Route("/bookings", func(r chi.Router) {
		r.Get("/search", s.handleSearch(""))
		r.Get("/searchFuzzy", s.handleSearch(query.ModeFuzzy))
		r.Get("/searchWildcard", s.handleSearch(query.ModeWildcard))
		if s.rebuilder != nil {
			r.Post("/rebuild", s.handleRebuild)
		}
	})
	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// handleSearch serves a search endpoint. A non-empty mode overrides the
// request's mode parameter.
func (s *Server) handleSearch(mode query.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := search.ParseRequest(r.URL.Query().Get)
		if err != nil {
			s.handleError(w, err)
			return
		}
		if mode != "" {
			req.Mode = mode
		}

		resp, err := s.service.Search(r.Context(), req)
		if err != nil {
			s.handleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	stats, err := s.rebuilder.Reload(r.Context())
	if err != nil {
		s.logger.Error("Index rebuild failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeRebuildFailed, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, RebuildResponse{
		Generation: stats.Generation,
		Indexed:    stats.Indexed,
		Rejected:   stats.Rejected,
		DurationMs: stats.Duration.Milliseconds(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.service.Stats()
	if stats.Generation == 0 {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}

	builtAt := stats.BuiltAt
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Generation: stats.Generation,
		Documents:  stats.Documents,
		BuiltAt:    &builtAt,
	})
}

func (s *Server) handleError(w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			s.logger.Debug("Rejected search request", "error", err)
			return
		}
	}
	s.logger.Error("Internal error", "error", err)
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("Panic serving request", "path", r.URL.Path, "panic", rec)
				writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("Handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
