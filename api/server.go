// Package api exposes the tutor over a JSON HTTP interface.
//
// The server is a thin presentation shell: it validates requests, maps
// pipeline errors to status codes, and renders turns to JSON. All
// conversation state lives behind the registry and the turn runner.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vedikagupta0/ncert-ai-tutor/internal/conversation"
)

// Server timeouts.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger   *slog.Logger
	Runner   TurnRunner             // Required
	Registry *conversation.Registry // Required
	Index    IndexChecker           // Optional: nil reports ready unconditionally
}

// Server is the JSON API HTTP server.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewServer creates a server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Runner == nil {
		return nil, errors.New("turn runner is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("conversation registry is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ch := &chatHandler{runner: cfg.Runner, registry: cfg.Registry, logger: logger}
	cv := &conversationHandler{registry: cfg.Registry, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat", ch.send)
	mux.HandleFunc("GET /api/v1/conversations", cv.list)
	mux.HandleFunc("POST /api/v1/conversations", cv.create)
	mux.HandleFunc("GET /api/v1/conversations/{id}", cv.get)
	mux.HandleFunc("POST /api/v1/conversations/{id}/activate", cv.activate)
	mux.HandleFunc("PUT /api/v1/conversations/{id}/title", cv.setTitle)
	mux.HandleFunc("GET /api/v1/conversations/{id}/history", cv.getHistory)
	mux.HandleFunc("GET /api/v1/conversations/{id}/export", cv.export)

	// Middleware stack, outermost first: recovery → logging → routes.
	var handler http.Handler = mux
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Index))
	topMux.Handle("/", handler)

	return &Server{mux: topMux, logger: logger}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("HTTP server ready", "addr", addr, "api", "/api/v1/*", "health", "/health, /ready")

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		// Drain the serve goroutine; ListenAndServe returns
		// ErrServerClosed after Shutdown.
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		return err
	}
}
