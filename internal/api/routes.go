package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/filmpuan/filmpuan/internal/cache"
	"github.com/filmpuan/filmpuan/internal/ratings"
)

func (s *Server) setupRoutes() {
	s.echo.GET("/", s.handleRoot)

	apiGroup := s.echo.Group("/api")
	apiGroup.GET("/health", s.handleHealth)

	ratings.NewHandlers(s.ratingsService).RegisterRoutes(apiGroup)
	cache.NewHandlers(s.cacheStore).RegisterRoutes(apiGroup.Group("/cache"))
}

// handleRoot returns a service banner.
// GET /
func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service": "filmpuan",
		"health":  "/api/health",
	})
}

// handleHealth reports service status with catalog row counts as an
// operational probe.
// GET /api/health
func (s *Server) handleHealth(c echo.Context) error {
	movies, titles, err := s.catalogStore.Counts(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":       "healthy",
		"movies":       movies,
		"movie_titles": titles,
	})
}
