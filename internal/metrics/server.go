package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/digesto/internal/usecase/health"
)

// HealthReporter reports component health for /healthz.
type HealthReporter interface {
	Check(ctx context.Context) health.Report
}

// Server exposes /metrics and /healthz for the lifetime of a command.
type Server struct {
	srv    *http.Server
	health HealthReporter
	logger *zap.Logger
}

// NewServer builds the metrics server. It does not listen until Start.
func NewServer(addr string, logger *zap.Logger) *Server {
	RegisterHTTPMetrics()

	s := &Server{logger: logger}

	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(Middleware())
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", s.handleHealth)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// WithHealth makes /healthz report h. Call before Start.
func (s *Server) WithHealth(h HealthReporter) *Server {
	s.health = h
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
		return
	}

	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != health.Healthy {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		s.logger.Warn("Failed to encode health report", zap.Error(err))
	}
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start binds the listener synchronously and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}

	go func() {
		s.logger.Info("Serving metrics", zap.String("addr", ln.Addr().String()))
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server error", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown stops the server, waiting for in-flight scrapes up to ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	return nil
}
