// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the copilot conversation surface and read-only
// catalog lookups over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/pdiddy/mission-copilot/internal/copilot"
	"github.com/pdiddy/mission-copilot/pkg/types"
)

// StudyStore is the catalog surface the server reads from.
type StudyStore interface {
	copilot.StudySearcher
	Get(ctx context.Context, id int64) (types.Study, error)
	Count(ctx context.Context) (int, error)
}

// HealthChecker reports whether the answer service is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server holds the handler dependencies.
type Server struct {
	store    StudyStore
	answerer copilot.Answerer
	health   HealthChecker
	sessions *sessionStore
	cfg      types.ServerConfig
	log      zerolog.Logger
}

// New creates a server. health may be nil when no answer service is
// configured.
func New(store StudyStore, answerer copilot.Answerer, health HealthChecker, cfg types.ServerConfig, log zerolog.Logger) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = types.DefaultCopilotConfig().Server.RequestTimeout
	}
	return &Server{
		store:    store,
		answerer: answerer,
		health:   health,
		sessions: newSessionStore(cfg.SessionIdleTimeout, cfg.MaxSessions),
		cfg:      cfg,
		log:      log,
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", s.handleCreateConversation)
			r.Get("/{id}", s.handleGetConversation)
			r.Post("/{id}/messages", s.handleSubmitMessage)
		})
		r.Route("/studies", func(r chi.Router) {
			r.Get("/", s.handleListStudies)
			r.Get("/{id}", s.handleGetStudy)
		})
	})

	return r
}

// HTTPServer wraps the router with the configured timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
