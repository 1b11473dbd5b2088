package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"nexus-bot/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const livenessBody = "Bot is running!"

// Pinger is a dependency whose reachability is reported by /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are checked by the health endpoint. Nil entries are skipped.
type Dependencies map[string]Pinger

// Server wraps an http.Server with the liveness, health and metrics routes.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	metrics    *metrics.Metrics
	deps       Dependencies
}

// New creates a new HTTP server listening on addr.
func New(addr string, logger *slog.Logger, metricRegistry *metrics.Metrics, deps Dependencies) *Server {
	server := &Server{
		logger:  logger.With("component", "http"),
		metrics: metricRegistry,
		deps:    deps,
	}

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", server.handleHealth)
	r.HandleFunc("/*", livenessHandler)

	server.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for incoming HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

// livenessHandler answers every unrouted path so hosting platforms see the process alive.
func livenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(livenessBody))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.deps))
	for name, dep := range s.deps {
		if dep == nil {
			continue
		}
		if err := dep.Ping(ctx); err != nil {
			s.logger.Warn("health check failed", "dependency", name, "error", err)
			s.metrics.Error("http")
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	writeJSON(w, status, map[string]any{"status": overall, "checks": checks})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode json", http.StatusInternalServerError)
	}
}
