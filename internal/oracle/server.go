// Package oracle serves a loaded preimage set over HTTP, read-only.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/witnessgen/internal/preimage"
)

// PreimageSource is the read side of a preimage store.
type PreimageSource interface {
	Get(k preimage.Key) ([]byte, bool)
	Range(fn func(preimage.Key, []byte) bool)
	Len() int
	Fingerprint() string
}

// Config holds oracle server configuration
type Config struct {
	Listen string
	// RunID identifies the generation run that produced the store, if known.
	RunID string
}

// Server is the preimage oracle HTTP server
type Server struct {
	config    Config
	store     PreimageSource
	bytes     int64
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a new oracle server instance
func New(config Config, store PreimageSource, logger *slog.Logger) *Server {
	return &Server{
		config:    config,
		store:     store,
		bytes:     totalBytes(store),
		logger:    logger,
		startedAt: time.Now(),
	}
}

func totalBytes(store PreimageSource) int64 {
	var n int64
	store.Range(func(_ preimage.Key, v []byte) bool {
		n += int64(len(v))
		return true
	})
	return n
}

// Handler returns the routed handler without binding a listener.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start starts the HTTP server (blocking)
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.setupRoutes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("oracle server starting",
		"listen", s.config.Listen,
		"preimages", s.store.Len(),
		"fingerprint", s.store.Fingerprint(),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("oracle server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/preimages", s.handleSummary)
	r.Get("/preimages/{key}", s.handleGetPreimage)
	r.Head("/preimages/{key}", s.handleGetPreimage)

	return r
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
