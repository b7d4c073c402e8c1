package ratings

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for rating lookups.
type Handlers struct {
	service *Service
}

// NewHandlers creates rating handlers over a service.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers rating routes on an Echo group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/rating", h.GetRating)
	g.GET("/search", h.Search)
	g.GET("/movie/:imdb_id", h.GetByID)
	g.POST("/ratings/batch", h.Batch)
}

// GetRating resolves a single title to its rating record.
// GET /api/rating?title=...&year=...
func (h *Handlers) GetRating(c echo.Context) error {
	title := c.QueryParam("title")
	if title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	var year *int
	if y := c.QueryParam("year"); y != "" {
		v, err := strconv.Atoi(y)
		if err != nil || v < 1900 || v > 2030 {
			return echo.NewHTTPError(http.StatusBadRequest, "year must be between 1900 and 2030")
		}
		year = &v
	}

	rating, fromCache, err := h.service.Resolve(c.Request().Context(), title, year)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			msg := fmt.Sprintf("movie not found: %s", title)
			if year != nil {
				msg = fmt.Sprintf("%s (%d)", msg, *year)
			}
			return echo.NewHTTPError(http.StatusNotFound, msg)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	setCacheHeader(c, fromCache)
	return c.JSON(http.StatusOK, rating)
}

// Search returns ranked matches for a free-text query.
// GET /api/search?q=...&limit=...
func (h *Handlers) Search(c echo.Context) error {
	q := c.QueryParam("q")

	limit := DefaultSearchLimit
	if l := c.QueryParam("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v < 1 || v > MaxSearchLimit {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", MaxSearchLimit))
		}
		limit = v
	}

	resp, err := h.service.Search(c.Request().Context(), q, limit)
	if err != nil {
		if errors.Is(err, ErrQueryTooShort) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, resp)
}

// GetByID returns the record for an IMDB id.
// GET /api/movie/:imdb_id
func (h *Handlers) GetByID(c echo.Context) error {
	imdbID := c.Param("imdb_id")

	rating, fromCache, err := h.service.ResolveByID(c.Request().Context(), imdbID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("movie not found: %s", imdbID))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	setCacheHeader(c, fromCache)
	return c.JSON(http.StatusOK, rating)
}

// Batch resolves up to MaxBatchTitles titles in one request.
// POST /api/ratings/batch
func (h *Handlers) Batch(c echo.Context) error {
	var req BatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.service.ResolveBatch(c.Request().Context(), req.Titles)
	if err != nil {
		if errors.Is(err, ErrBatchSize) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, resp)
}

// setCacheHeader marks responses so the extension can see whether the
// answer came from the cache.
func setCacheHeader(c echo.Context, hit bool) {
	if hit {
		c.Response().Header().Set("X-Cache", "HIT")
	} else {
		c.Response().Header().Set("X-Cache", "MISS")
	}
}
