package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Redis is the Redis-backed cache store. A Redis that failed to connect at
// startup keeps serving: every read is absent and every write is a no-op.
type Redis struct {
	rdb        *redis.Client
	defaultTTL time.Duration
	logger     zerolog.Logger
	counters   counters
}

// NewRedis connects to the Redis at url and returns a store. Connection
// failure is logged and the service continues without a cache; it is not an
// error.
func NewRedis(url string, defaultTTL time.Duration, logger zerolog.Logger) *Redis {
	r := &Redis{
		defaultTTL: defaultTTL,
		logger:     logger.With().Str("component", "cache").Logger(),
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Invalid redis URL, continuing without cache")
		return r
	}

	// Short timeouts: a dead cache must not stall requests that the catalog
	// alone can answer.
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	if opts.TLSConfig != nil {
		// Managed Redis vendors (rediss:// URLs) terminate TLS with their
		// own certificates.
		opts.TLSConfig.InsecureSkipVerify = true
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		r.logger.Warn().Err(err).Msg("Redis unreachable, continuing without cache")
		client.Close()
		return r
	}

	r.rdb = client
	r.logger.Info().Str("url", redactURL(url)).Msg("Redis connected")
	return r
}

// Close releases the Redis connection.
func (r *Redis) Close() error {
	if r.rdb != nil {
		return r.rdb.Close()
	}
	return nil
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	if r.rdb == nil {
		return nil, false
	}

	data, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case err == redis.Nil:
		r.counters.miss()
		return nil, false
	case err != nil:
		r.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		r.counters.miss()
		return nil, false
	}

	r.counters.hit()
	return data, true
}

// Set implements Store.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	if r.rdb == nil {
		return false
	}
	if ttl <= 0 {
		ttl = r.defaultTTL
	}

	if err := r.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
		return false
	}
	return true
}

// MGet implements Store. One round-trip for any number of keys.
func (r *Redis) MGet(ctx context.Context, keys []string) map[string][]byte {
	if r.rdb == nil || len(keys) == 0 {
		return map[string][]byte{}
	}

	values, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		r.logger.Warn().Err(err).Int("keys", len(keys)).Msg("Cache multi-get failed")
		return map[string][]byte{}
	}

	results := make(map[string][]byte)
	for i, value := range values {
		if s, ok := value.(string); ok {
			results[keys[i]] = []byte(s)
			r.counters.hit()
		} else {
			r.counters.miss()
		}
	}
	return results
}

// Delete implements Store.
func (r *Redis) Delete(ctx context.Context, key string) bool {
	if r.rdb == nil {
		return false
	}
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("Cache delete failed")
		return false
	}
	return true
}

// FlushAll implements Store.
func (r *Redis) FlushAll(ctx context.Context) bool {
	if r.rdb == nil {
		return false
	}
	if err := r.rdb.FlushDB(ctx).Err(); err != nil {
		r.logger.Warn().Err(err).Msg("Cache flush failed")
		return false
	}
	return true
}

// Stats implements Store.
func (r *Redis) Stats(ctx context.Context) Stats {
	stats := Stats{
		Hits:      r.counters.hits.Load(),
		Misses:    r.counters.misses.Load(),
		Enabled:   true,
		Connected: r.rdb != nil,
	}
	if r.rdb != nil {
		size, err := r.rdb.DBSize(ctx).Result()
		if err != nil {
			stats.TotalKeys = -1
		} else {
			stats.TotalKeys = size
		}
	}
	return stats
}

// redactURL trims a redis URL so credentials never reach the log.
func redactURL(url string) string {
	if opts, err := redis.ParseURL(url); err == nil {
		return opts.Addr
	}
	return ""
}
