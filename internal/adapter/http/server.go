package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/weather-report/internal/domain"
	"github.com/couchcryptid/weather-report/internal/ingest"
	"github.com/couchcryptid/weather-report/internal/report"
)

// maxImportBytes caps the size of an uploaded measurement CSV.
const maxImportBytes = 32 << 20

// Importer ingests a measurement CSV.
type Importer interface {
	Import(ctx context.Context, r io.Reader) (ingest.Summary, error)
}

// Server exposes health, readiness, metrics, import, and report endpoints.
type Server struct {
	httpServer *http.Server
	importer   Importer
	reports    report.Reporter
	logger     *slog.Logger

	// Imports write one record per line without a transaction, so they run
	// one at a time.
	importMu sync.Mutex
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api/v1 routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, importer Importer, reports report.Reporter, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		importer: importer,
		reports:  reports,
		logger:   logger,
	}

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.accessLog)
		r.Post("/measurements", s.handleImport)
		r.Get("/networks/{code}/report", s.handleNetworkReport)
		r.Get("/gateways/{code}/report", s.handleGatewayReport)
		r.Get("/sensors/{code}/report", s.handleSensorReport)
	})

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

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	s.importMu.Lock()
	defer s.importMu.Unlock()

	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	defer body.Close()

	sum, err := s.importer.Import(r.Context(), body)
	if err != nil {
		status := statusFor(err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		sharedobs.WriteJSON(w, status, errorBody{Error: err.Error(), Summary: &sum})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, sum)
}

func (s *Server) handleNetworkReport(w http.ResponseWriter, r *http.Request) {
	code, start, end := reportParams(r)
	rep, err := s.reports.NetworkReport(r.Context(), code, start, end)
	s.respond(w, rep, err)
}

func (s *Server) handleGatewayReport(w http.ResponseWriter, r *http.Request) {
	code, start, end := reportParams(r)
	rep, err := s.reports.GatewayReport(r.Context(), code, start, end)
	s.respond(w, rep, err)
}

func (s *Server) handleSensorReport(w http.ResponseWriter, r *http.Request) {
	code, start, end := reportParams(r)
	rep, err := s.reports.SensorReport(r.Context(), code, start, end)
	s.respond(w, rep, err)
}

func (s *Server) respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("report failed", "error", err)
		}
		sharedobs.WriteJSON(w, status, errorBody{Error: err.Error()})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, v)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// reportParams reads the entity code and the optional start/end filters.
func reportParams(r *http.Request) (code, start, end string) {
	q := r.URL.Query()
	return chi.URLParam(r, "code"), q.Get("start"), q.Get("end")
}

type errorBody struct {
	Error   string          `json:"error"`
	Summary *ingest.Summary `json:"summary,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
