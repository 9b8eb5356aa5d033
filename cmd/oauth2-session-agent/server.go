package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/qvintus/oauth2-session-agent/internal/pending"
	"github.com/qvintus/oauth2-session-agent/internal/session"
	"github.com/qvintus/oauth2-session-agent/internal/templates"
	"github.com/qvintus/oauth2-session-agent/internal/tokenstore"
)

type server struct {
	cfg       Config
	router    *chi.Mux
	sessions  *session.Manager
	templates *templates.Templates
	tokens    tokenstore.Store
	bridge    pending.Store
}

func newServer(cfg Config, sessions *session.Manager, tokens tokenstore.Store, bridge pending.Store) (*server, error) {
	// Load templates
	tmpls, err := templates.LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	srv := &server{
		cfg:       cfg,
		router:    chi.NewRouter(),
		sessions:  sessions,
		templates: tmpls,
		tokens:    tokens,
		bridge:    bridge,
	}

	// Set up middleware
	srv.router.Use(middleware.Logger)
	srv.router.Use(middleware.Recoverer)
	srv.router.Use(middleware.RealIP)
	srv.router.Use(middleware.Timeout(30 * time.Second))

	// Register routes
	srv.routes()

	return srv, nil
}

func (s *server) routes() {
	// Health check endpoint
	s.router.Get("/health", s.handleHealth())

	// Single session entrypoint; the action query parameter selects
	// the operation. The provider's callback redirect arrives as a GET.
	s.router.Get("/auth", s.handleAuth())
	s.router.Post("/auth", s.handleAuth())
}

// Helper methods

func (s *server) checkHealth(ctx context.Context) error {
	// Check all storage backends
	if err := s.tokens.CheckHealth(ctx); err != nil {
		return err
	}
	if err := s.bridge.CheckHealth(ctx); err != nil {
		return err
	}
	return nil
}
