// Package web serves the analysis pipeline over HTTP: a small HTML page, a
// JSON API, and downloads for the export file and the chart.
package web

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/contactkeval/oi-clusters/internal/logger"
	"github.com/contactkeval/oi-clusters/internal/pipeline"
)

//go:embed static/index.html
var indexHTML string

const shutdownTimeout = 10 * time.Second

// Server is the web adapter around one Pipeline.
type Server struct {
	pipeline *pipeline.Pipeline
	store    *resultStore
	router   *mux.Router
}

// NewServer wires routes for p. At most maxResults analyses are kept for download.
func NewServer(p *pipeline.Pipeline, maxResults int) *Server {
	s := &Server{
		pipeline: p,
		store:    newResultStore(maxResults),
		router:   mux.NewRouter(),
	}
	s.serveRoutes(s.router)
	return s
}

// Handler returns the routed handler with response compression.
func (s *Server) Handler() http.Handler {
	return ZstdMiddleware(s.router)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Infof("oi-clusters web running on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Infof("shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
