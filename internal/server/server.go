// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects stores, services, handlers,
// middleware, and routes. It decides:
// - Which storage backend serves the repositories
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → OpenStore → repository.Store
//	Server.New: Store → AuthService / MatchService → AuthHandler / MatchHandler → routes
//
// This is the "composition root" pattern: all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/YongminGwon/omok-server/internal/auth"
	"github.com/YongminGwon/omok-server/internal/config"
	"github.com/YongminGwon/omok-server/internal/handler"
	"github.com/YongminGwon/omok-server/internal/metrics"
	"github.com/YongminGwon/omok-server/internal/middleware"
	"github.com/YongminGwon/omok-server/internal/repository"
	"github.com/YongminGwon/omok-server/internal/repository/postgres"
	redisRepo "github.com/YongminGwon/omok-server/internal/repository/redis"
	sqliteRepo "github.com/YongminGwon/omok-server/internal/repository/sqlite"
	"github.com/YongminGwon/omok-server/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store. When Start returns, the store is closed to
// flush pending writes and release connections.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.Store

	auth    *service.AuthService
	matches *service.MatchService
}

// OpenStore connects the backend named by cfg.Driver.
//
// IMPORT ALIAS:
// repository/sqlite and repository/redis are imported as sqliteRepo and
// redisRepo so they don't read like the driver packages they wrap.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if cfg.SQLitePath != ":memory:" {
			// os.MkdirAll is `mkdir -p`: the data directory may not exist yet.
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		return sqliteRepo.New(cfg.SQLitePath)

	case config.DriverPostgres:
		// Migrations are idempotent; running them on every start keeps a fresh
		// database usable without a separate `omok migrate up`.
		m, err := postgres.NewMigrator(cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		err = m.Up()
		if cerr := m.Close(); cerr != nil {
			logger.Warn("closing migrator", slog.String("error", cerr.Error()))
		}
		if err != nil {
			return nil, err
		}
		return postgres.New(ctx, cfg.PostgresURL)

	case config.DriverRedis:
		rc := redisRepo.DefaultConfig()
		rc.URL = cfg.RedisURL
		return redisRepo.New(rc)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// New builds the services and routes on top of store. The server takes
// ownership of store and closes it when Start returns.
func New(cfg *config.Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: cfg.Auth.JWTSecret,
		TTL:    cfg.Auth.TokenTTL,
		Issuer: cfg.Auth.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	hasher, err := auth.NewHasher(cfg.Auth.Hasher, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("creating password hasher: %w", err)
	}

	retry := service.WithRetry(service.RetryConfig{
		Attempts:  cfg.Retry.Attempts,
		BaseDelay: cfg.Retry.BaseDelay,
	})

	hashLimit := cfg.Auth.MaxConcurrentHashes
	if hashLimit == 0 {
		hashLimit = runtime.NumCPU()
	}

	authService, err := service.NewAuthService(store, tokens, hasher, logger, retry, service.WithHashConcurrency(hashLimit))
	if err != nil {
		return nil, fmt.Errorf("creating auth service: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   store,
		auth:    authService,
		matches: service.NewMatchService(store, service.SelfOnly{}, logger, retry),
	}
	s.setupRoutes()
	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /healthz                  → store reachability
// GET    /metrics                  → Prometheus scrape endpoint
// POST   /api/users/register       → create account
// POST   /api/users/login          → exchange credentials for a token
// GET    /api/users/me             → caller's profile            [auth]
// POST   /api/matches              → record a finished game      [auth]
// GET    /api/users/{id}/matches   → a user's history, self only [auth]
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger: logs each request with timing info and the request ID
// 4. Recoverer: catches panics and returns 500 instead of crashing
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	healthHandler := handler.NewHealthHandler(s.store, s.logger)
	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/metrics", metrics.Handler())

	authHandler := handler.NewAuthHandler(s.auth, s.logger)
	matchHandler := handler.NewMatchHandler(s.matches, s.logger)

	// AuthService.Authenticate has the right signature; ValidatorFunc adapts
	// it so token rejections are counted and logged in one place.
	requireAuth := auth.RequireAuth(auth.ValidatorFunc(s.auth.Authenticate))

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/users/register", authHandler.HandleRegister)
		r.Post("/users/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/users/me", authHandler.HandleMe)
			r.Get("/users/{id}/matches", matchHandler.HandleHistory)
			r.Post("/matches", matchHandler.HandleRecord)
		})
	})
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (http.shutdownTimeout)
// 3. Close the store (flushes the sqlite WAL, drains pools)
func (s *Server) Start(ctx context.Context) error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.HTTP.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.HTTP.ReadTimeout,
		WriteTimeout: s.config.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.HTTP.Port),
			slog.String("store", s.config.Store.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.HTTP.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	}
}
