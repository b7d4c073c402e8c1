// Package cache provides the read-through cache used in front of the catalog.
//
// Every backend is fail-open: when the backend is disabled, unreachable or
// misbehaving, reads report absent and writes report failure, and no error
// ever reaches the caller. The resolution engines treat all of those
// identically to "not cached yet" and fall through to the catalog.
package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/filmpuan/filmpuan/internal/turkish"
)

// Store is the cache client contract consumed by the resolution engines.
type Store interface {
	// Get returns the value stored under key, or absent.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key. A non-positive ttl selects the backend's
	// default TTL. Returns false when the write did not happen.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool
	// MGet returns the values for the present keys only.
	MGet(ctx context.Context, keys []string) map[string][]byte
	// Delete removes key. Returns false when the backend is unavailable.
	Delete(ctx context.Context, key string) bool
	// FlushAll removes every key. Returns false when the backend is
	// unavailable.
	FlushAll(ctx context.Context) bool
	// Stats returns process-lifetime counters and backend state.
	Stats(ctx context.Context) Stats
}

// Stats holds cumulative cache counters and backend state. Counters reset
// only on process restart.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Enabled   bool  `json:"enabled"`
	Connected bool  `json:"connected"`
	TotalKeys int64 `json:"total_keys"`
}

// counters tracks hits and misses safely under concurrent increment.
type counters struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (c *counters) hit()  { c.hits.Add(1) }
func (c *counters) miss() { c.misses.Add(1) }

// RatingKey builds the cache key for a title resolution. The title is
// normalized so "Inception", "INCEPTION" and "ınceptıon" share one key.
func RatingKey(title string) string {
	return "rating:" + turkish.Normalize(title)
}

// MovieKey builds the cache key for a by-id lookup.
func MovieKey(imdbID string) string {
	return "movie:" + imdbID
}

// SearchKey builds the cache key for a search query.
func SearchKey(query string) string {
	return "search:" + turkish.Normalize(query)
}
