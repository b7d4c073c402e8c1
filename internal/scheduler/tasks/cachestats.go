// Package tasks registers the application's scheduled tasks.
package tasks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/filmpuan/filmpuan/internal/cache"
	"github.com/filmpuan/filmpuan/internal/scheduler"
)

const CacheStatsTaskID = "cache-stats-report"

// RegisterCacheStatsTask registers an hourly task that logs cumulative cache
// statistics, so hit-ratio trends show up in the log without anyone polling
// the stats endpoint.
func RegisterCacheStatsTask(sched *scheduler.Scheduler, store cache.Store, logger zerolog.Logger) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          CacheStatsTaskID,
		Name:        "Cache Stats Report",
		Description: "Logs cumulative cache hit/miss statistics",
		Cron:        "0 * * * *",
		Func: func(ctx context.Context) error {
			stats := store.Stats(ctx)

			var hitRatio float64
			if total := stats.Hits + stats.Misses; total > 0 {
				hitRatio = float64(stats.Hits) / float64(total) * 100
			}

			logger.Info().
				Int64("hits", stats.Hits).
				Int64("misses", stats.Misses).
				Float64("hit_ratio", hitRatio).
				Bool("connected", stats.Connected).
				Int64("total_keys", stats.TotalKeys).
				Msg("Cache statistics")
			return nil
		},
	})
}
