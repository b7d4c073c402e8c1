// Package api wires the HTTP surface: echo server, middleware and routes.
package api

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/filmpuan/filmpuan/internal/cache"
	"github.com/filmpuan/filmpuan/internal/catalog"
	"github.com/filmpuan/filmpuan/internal/config"
	"github.com/filmpuan/filmpuan/internal/ratings"
)

// Server handles HTTP requests for the filmpuan API.
type Server struct {
	echo   *echo.Echo
	db     *sql.DB
	logger zerolog.Logger
	cfg    *config.Config

	catalogStore   *catalog.Store
	cacheStore     cache.Store
	ratingsService *ratings.Service
}

// NewServer creates a new API server instance.
func NewServer(db *sql.DB, cacheStore cache.Store, cfg *config.Config, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:       e,
		db:         db,
		logger:     logger,
		cfg:        cfg,
		cacheStore: cacheStore,
	}

	s.catalogStore = catalog.NewStore(db, logger)
	s.ratingsService = ratings.NewService(s.catalogStore, cacheStore, logger)

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// RatingsService exposes the resolution service, for callers that need it
// outside HTTP (the scheduler's report task, tests).
func (s *Server) RatingsService() *ratings.Service {
	return s.ratingsService
}

// Echo returns the underlying echo instance, for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start begins listening on the configured address.
func (s *Server) Start() error {
	addr := s.cfg.Server.Address()
	s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.BodyLimit("64K"))

	// The browser extension calls this API from a streaming site's origin.
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{Level: 5}))
}
