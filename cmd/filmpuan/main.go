package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/filmpuan/filmpuan/internal/api"
	"github.com/filmpuan/filmpuan/internal/cache"
	"github.com/filmpuan/filmpuan/internal/config"
	"github.com/filmpuan/filmpuan/internal/database"
	"github.com/filmpuan/filmpuan/internal/logger"
	"github.com/filmpuan/filmpuan/internal/scheduler"
	"github.com/filmpuan/filmpuan/internal/scheduler/tasks"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Path:   cfg.Logging.Path,
	})
	defer log.Close()

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	var cacheStore cache.Store
	if cfg.Cache.Enabled {
		redisStore := cache.NewRedis(cfg.Cache.RedisURL, cfg.Cache.TTL(), log.Logger)
		defer redisStore.Close()
		cacheStore = redisStore
	} else {
		log.Info().Msg("Cache disabled by configuration")
		cacheStore = cache.NewDisabled()
	}

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	if err := tasks.RegisterCacheStatsTask(sched, cacheStore, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache stats task")
	}
	sched.Start()
	defer sched.Stop()

	server := api.NewServer(db.Conn(), cacheStore, cfg, log.Logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
