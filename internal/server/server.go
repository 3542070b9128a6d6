// internal/server/server.go

// Package server exposes Prometheus metrics, a health check and the latest
// point state over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tamzrod/modbus-acquisitor/internal/state"
)

// httpShutdownTimeout bounds graceful shutdown.
const httpShutdownTimeout = 5 * time.Second

// PointSource serves point state. *state.Store satisfies it.
type PointSource interface {
	Snapshot() []state.PointState
	Get(name string) (state.PointState, bool)
}

// HealthFunc reports nil while the service is healthy.
type HealthFunc func() error

// HTTPServer serves /metrics, /health, /points and /points/{name}.
type HTTPServer struct {
	addr   string
	server *http.Server
	log    *zap.Logger

	points PointSource
	health HealthFunc
}

// statusWriter captures the response status for request logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// NewHTTPServer wires the handlers. A nil health func always reports healthy.
func NewHTTPServer(addr string, gatherer prometheus.Gatherer, points PointSource, health HealthFunc, log *zap.Logger) *HTTPServer {
	if log == nil {
		log = zap.NewNop()
	}
	if health == nil {
		health = func() error { return nil }
	}

	s := &HTTPServer{
		addr:   addr,
		log:    log,
		points: points,
		health: health,
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(log),
	}))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /points", s.handlePoints)
	mux.HandleFunc("GET /points/{name}", s.handlePoint)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.logRequests(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	return s
}

// Handler exposes the routed, logged handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("url", r.URL.String()),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", ww.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if err := s.health(); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *HTTPServer) handlePoints(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.points.Snapshot())
}

func (s *HTTPServer) handlePoint(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	p, ok := s.points.Get(name)
	if !ok {
		http.Error(w, "unknown point "+name, http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("encode response failed", zap.Error(err))
	}
}

// Start binds the listener and serves in the background.
// Bind errors are returned; serve errors are logged.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.log.Info("starting HTTP server",
		zap.String("listen_addr", ln.Addr().String()),
		zap.Duration("read_timeout", s.server.ReadTimeout),
		zap.Duration("write_timeout", s.server.WriteTimeout),
	)

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server failed", zap.Error(err), zap.String("listen_addr", s.addr))
			return
		}
		s.log.Info("HTTP server stopped listening", zap.String("listen_addr", s.addr))
	}()
	return nil
}

// Shutdown stops accepting requests and waits up to httpShutdownTimeout
// for in-flight ones. A timeout counts as done.
func (s *HTTPServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil
		}
		s.log.Error("HTTP server shutdown failed", zap.Error(err))
		return err
	}
	s.log.Info("HTTP server shutdown successfully", zap.String("listen_addr", s.addr))
	return nil
}
