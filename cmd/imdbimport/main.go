// Command imdbimport loads the IMDB dataset dumps into the catalog database.
//
// Usage:
//
//	imdbimport -datasets ./datasets [-config config.yaml] [-min-votes 1000]
//
// The dataset directory must contain title.basics.tsv.gz,
// title.ratings.tsv.gz and title.akas.tsv.gz as published on
// datasets.imdbws.com.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/filmpuan/filmpuan/internal/config"
	"github.com/filmpuan/filmpuan/internal/database"
	"github.com/filmpuan/filmpuan/internal/importer"
	"github.com/filmpuan/filmpuan/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	datasetDir := flag.String("datasets", "./datasets", "Directory containing the IMDB dataset files")
	minVotes := flag.Int("min-votes", 0, "Minimum vote count (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	defer log.Close()

	votes := cfg.Importer.MinVotes
	if *minVotes > 0 {
		votes = *minVotes
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	imp := importer.New(db.Conn(), log.Logger, importer.Options{
		DatasetDir: *datasetDir,
		MinVotes:   votes,
	})

	start := time.Now()
	stats, err := imp.Run(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	log.Info().
		Int("movies", stats.Movies).
		Int("localized_titles", stats.LocalizedTitles).
		Dur("duration", time.Since(start)).
		Msg("Import complete")
}
