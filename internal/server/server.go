// Package server is the HTTP surface of the daemon: the voice-platform
// webhook, per-client SSE streams, REST access to the layout and
// geometry, and the relay endpoints for client-executed tools.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lfedronic/deskd/internal/command"
	"github.com/lfedronic/deskd/internal/config"
	"github.com/lfedronic/deskd/internal/content"
	"github.com/lfedronic/deskd/internal/env"
	"github.com/lfedronic/deskd/internal/relay"
	"github.com/lfedronic/deskd/internal/store"
)

// Server wires the HTTP adapters to the layout engine.
type Server struct {
	store    *store.Store
	executor *command.Executor
	registry *SSERegistry
	broker   *relay.Broker
	content  *content.Registry
	config   *config.Config
	started  time.Time
}

// NewServer assembles the HTTP surface. All dependencies are explicit;
// there is no package-level state.
func NewServer(st *store.Store, exec *command.Executor, broker *relay.Broker, gen *content.Registry, cfg *config.Config) *Server {
	return &Server{
		store:    st,
		executor: exec,
		registry: NewSSERegistry(),
		broker:   broker,
		content:  gen,
		config:   cfg,
		started:  time.Now(),
	}
}

// Router builds the chi routing table.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/voice-tools", s.handleWebhook)
		r.Get("/voice-tools", s.handleVoiceToolsGet)

		r.Get("/layout", s.handleGetLayout)
		r.Post("/layout", s.handlePostLayout)

		r.Get("/env", s.handleGetEnv)
		r.Post("/env", s.handlePostEnv)

		r.Post("/relay/calls", s.handleRelayCall)
		r.Post("/relay/results", s.handleRelayResult)
	})

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully. Layout
// commits are pushed to connected clients for as long as the server runs.
func (s *Server) Run(ctx context.Context) error {
	stopPush := s.pushLayoutUpdates(ctx)
	defer stopPush()

	srv := &http.Server{
		Addr:              s.config.HTTP.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", s.config.HTTP.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// pushLayoutUpdates broadcasts the tree and labels to every open stream
// after each committed mutation, so webhook-driven changes reach the
// browser without polling.
func (s *Server) pushLayoutUpdates(ctx context.Context) func() {
	changes, cancel := s.store.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				s.broadcastLayout()
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func (s *Server) broadcastLayout() {
	payload := map[string]any{
		"tree":   s.store.SnapshotTree(),
		"labels": s.store.Labels(),
	}
	if err := s.registry.Broadcast("layout", payload); err != nil {
		slog.Warn("layout broadcast failed", "error", err)
	}
}

// measureGeometry prefers client-reported geometry, falling back to the
// configured headless viewport.
func (s *Server) measureGeometry() env.Snapshot {
	root := s.store.SnapshotTree()
	if last, ok := s.store.Env(); ok {
		return env.ReportedGeometry{Last: last}.Measure(root)
	}
	g := env.WeightGeometry{Viewport: env.Viewport{
		W:   s.config.Viewport.Width,
		H:   s.config.Viewport.Height,
		DPR: s.config.Viewport.DPR,
	}}
	return g.Measure(root)
}
