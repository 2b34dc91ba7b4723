// Package server exposes a usage report over a small read-only JSON API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/bqscope/internal/index"
)

// Config holds the settings for a Server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// Report is the index served. It is not mutated after startup.
	Report *index.Report
	// Logger receives request-level output. Defaults to a discard logger.
	Logger *slog.Logger
}

// Server serves one usage report until its context is cancelled.
type Server struct {
	addr   string
	report *index.Report
	logger *slog.Logger
}

// New creates a server for the given report.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	report := cfg.Report
	if report == nil {
		report = &index.Report{}
	}
	return &Server{addr: cfg.Addr, report: report, logger: logger}
}

// Router builds the HTTP handler. Exposed separately so tests can drive it
// through httptest without binding a socket.
func (s *Server) Router() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/api/tables", s.handleTables)
	r.Get("/api/tables/{table}", s.handleTable)
	r.Get("/healthz", s.handleHealthz)

	return r
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting server", "addr", s.addr, "tables", len(s.report.Entries))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Router(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) handleTables(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tables": s.report.Entries,
		"count":  len(s.report.Entries),
	})
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	entry, found := s.report.Lookup(name)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": fmt.Sprintf("table %q not found", name),
		})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
