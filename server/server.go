// Package server exposes the search pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/viant/imgvec/logging"
	"github.com/viant/imgvec/search"
)

// DefaultMaxUploadBytes bounds request bodies when Options leaves it unset.
const DefaultMaxUploadBytes = 16 << 20

// Options configures a Server.
type Options struct {
	// ImageDir holds reference images. Uploads accepted by POST /images are
	// saved there and GET /images/{name} serves from it. Empty disables both.
	ImageDir       string
	MaxUploadBytes int64
	// Metrics is mounted at GET /metrics when set.
	Metrics http.Handler
	Logger  *logging.Logger
}

// Server routes HTTP requests to a search.Pipeline.
type Server struct {
	pipeline *search.Pipeline
	opts     Options
	logger   *logging.Logger
	mux      *http.ServeMux
}

// New creates a server for p.
func New(p *search.Pipeline, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NoopLogger()
	}
	s := &Server{
		pipeline: p,
		opts:     opts,
		logger:   logger.With("component", "http"),
		mux:      http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("POST /search", s.handleSearch)
	s.mux.HandleFunc("POST /search/{$}", s.handleSearch)
	s.mux.HandleFunc("POST /images", s.handleIngest)
	s.mux.HandleFunc("DELETE /images/{name}", s.handleRemove)
	if s.opts.ImageDir != "" {
		s.mux.Handle("GET /images/", s.imageFiles())
	}
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		s.mux.Handle("GET /metrics", s.opts.Metrics)
	}
}

// Handler returns the routes wrapped with request ids, access logging and
// CORS.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.withAccessLog(withCORS(s.mux)))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
