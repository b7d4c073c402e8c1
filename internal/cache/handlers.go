package cache

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for cache operations.
type Handlers struct {
	store Store
}

// NewHandlers creates cache handlers over a store.
func NewHandlers(store Store) *Handlers {
	return &Handlers{store: store}
}

// RegisterRoutes registers cache routes on an Echo group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/stats", h.GetStats)
	g.DELETE("/flush", h.Flush)
}

// statsResponse extends Stats with the derived hit ratio.
type statsResponse struct {
	Stats
	HitRatio float64 `json:"hit_ratio"`
}

// GetStats returns cumulative cache statistics.
// GET /api/cache/stats
func (h *Handlers) GetStats(c echo.Context) error {
	stats := h.store.Stats(c.Request().Context())

	resp := statsResponse{Stats: stats}
	if total := stats.Hits + stats.Misses; total > 0 {
		resp.HitRatio = float64(stats.Hits) / float64(total) * 100
	}

	return c.JSON(http.StatusOK, resp)
}

// Flush removes every cached key. Development aid; irreversible.
// DELETE /api/cache/flush
func (h *Handlers) Flush(c echo.Context) error {
	flushed := h.store.FlushAll(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]any{"flushed": flushed})
}
