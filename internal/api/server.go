// Copyright (c) 2026 Scriptorium. All rights reserved.

/*
Package api wires the HTTP router, middleware chain, and handler sets into
a runnable [http.Server].

It is the topmost presentation boundary: only this package and cmd/api
touch net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/verseworks/scriptorium/internal/content"
	"github.com/verseworks/scriptorium/internal/platform/config"
	"github.com/verseworks/scriptorium/internal/platform/constants"
	"github.com/verseworks/scriptorium/internal/platform/middleware"
	"github.com/verseworks/scriptorium/internal/users/auth"
)

// Server wraps the chi router and the [http.Server].
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// Handlers groups the handler sets the server mounts.
type Handlers struct {
	// Liveness is the /health handler — 200 whenever the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — 200 when all dependencies answer.
	Readiness http.HandlerFunc

	// Auth serves login, logout, and the current-user endpoint.
	Auth *auth.Handler

	// Content serves every catalog entity plus the archive lifecycle.
	Content *content.Handler
}

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, handlers Handlers) *Server {
	router := chi.NewRouter()

	// Global middleware, in execution order.
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(log))
	router.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	router.Use(middleware.RateLimit(ctx))
	router.Use(middleware.PanicRecovery(log))
	router.Use(middleware.Authenticate(verifier))
	router.Use(middleware.CORS(cfg))
	router.Use(chimw.CleanPath)

	// Unauthenticated probes for container orchestration.
	router.Get("/health", handlers.Liveness)
	router.Get("/ready", handlers.Readiness)

	router.Route("/api/v1", func(apiRoute chi.Router) {
		apiRoute.Route("/auth", handlers.Auth.RegisterRoutes)
		handlers.Content.RegisterRoutes(apiRoute)
	})

	return &Server{
		router: router,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// ListenAndServe starts the HTTP server. It blocks until the server is
// closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
