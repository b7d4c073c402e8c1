// Package importer loads the IMDB dataset dumps into the catalog.
//
// It reads three gzipped TSV files from the dataset directory:
//
//	title.basics.tsv.gz  - one row per work (type, titles, year, runtime, genres)
//	title.ratings.tsv.gz - average rating and vote count per work
//	title.akas.tsv.gz    - localized display titles per region
//
// Only movies, series and mini-series with at least MinVotes votes are kept,
// and only TR-region localized titles for works that made the cut. The
// normalized search_title column is computed here: the query path relies on
// it being exactly the normalizer's output.
package importer

import (
	"bufio"
	"compress/gzip"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/filmpuan/filmpuan/internal/turkish"
)

// keptTitleTypes are the work categories loaded into the catalog.
var keptTitleTypes = map[string]bool{
	"movie":        true,
	"tvSeries":     true,
	"tvMiniSeries": true,
}

// Options configures a dataset import.
type Options struct {
	DatasetDir string
	MinVotes   int
	BatchSize  int // rows per transaction
}

// Stats reports what an import inserted.
type Stats struct {
	Movies          int
	LocalizedTitles int
}

// Importer loads IMDB dataset files into the catalog database.
type Importer struct {
	db     *sql.DB
	logger zerolog.Logger
	opts   Options
}

// New creates an importer.
func New(db *sql.DB, logger zerolog.Logger, opts Options) *Importer {
	if opts.MinVotes <= 0 {
		opts.MinVotes = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	return &Importer{
		db:     db,
		logger: logger.With().Str("component", "importer").Logger(),
		opts:   opts,
	}
}

type ratingRow struct {
	average float64
	votes   int
}

// Run performs a full import and returns insertion counts.
func (i *Importer) Run(ctx context.Context) (*Stats, error) {
	ratings, err := i.loadRatings()
	if err != nil {
		return nil, err
	}
	i.logger.Info().Int("titles", len(ratings)).Int("min_votes", i.opts.MinVotes).Msg("Ratings loaded")

	stats := &Stats{}

	validIDs, err := i.importMovies(ctx, ratings, stats)
	if err != nil {
		return nil, err
	}
	i.logger.Info().Int("movies", stats.Movies).Msg("Movies imported")

	if err := i.importLocalizedTitles(ctx, validIDs, stats); err != nil {
		return nil, err
	}
	i.logger.Info().Int("titles", stats.LocalizedTitles).Msg("Localized titles imported")

	return stats, nil
}

// loadRatings reads title.ratings.tsv.gz into memory, keeping only works at
// or above the vote threshold.
func (i *Importer) loadRatings() (map[string]ratingRow, error) {
	rows := make(map[string]ratingRow)

	err := i.scanDataset("title.ratings.tsv.gz", func(cols columns, fields []string) error {
		votes, err := strconv.Atoi(cols.get(fields, "numVotes"))
		if err != nil || votes < i.opts.MinVotes {
			return nil
		}
		average, err := strconv.ParseFloat(cols.get(fields, "averageRating"), 64)
		if err != nil {
			return nil
		}
		rows[cols.get(fields, "tconst")] = ratingRow{average: average, votes: votes}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// importMovies streams title.basics.tsv.gz and inserts every kept work that
// has a rating entry. Returns the set of inserted IMDB ids.
func (i *Importer) importMovies(ctx context.Context, ratings map[string]ratingRow, stats *Stats) (map[string]bool, error) {
	validIDs := make(map[string]bool, len(ratings))

	batch, err := newBatchWriter(ctx, i.db, i.opts.BatchSize,
		"INSERT OR IGNORE INTO movies (imdb_id, title, original_title, year, rating, votes, runtime_minutes, genres, title_type) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return nil, err
	}
	defer batch.rollback()

	err = i.scanDataset("title.basics.tsv.gz", func(cols columns, fields []string) error {
		titleType := cols.get(fields, "titleType")
		if !keptTitleTypes[titleType] || cols.get(fields, "isAdult") == "1" {
			return nil
		}

		id := cols.get(fields, "tconst")
		rating, ok := ratings[id]
		if !ok {
			return nil
		}

		title := cols.get(fields, "primaryTitle")
		if id == "" || title == "" {
			return nil
		}

		if err := batch.exec(
			id,
			title,
			nullString(cols.get(fields, "originalTitle")),
			nullInt(cols.get(fields, "startYear")),
			rating.average,
			rating.votes,
			nullInt(cols.get(fields, "runtimeMinutes")),
			nullString(cols.get(fields, "genres")),
			titleType,
		); err != nil {
			return err
		}

		validIDs[id] = true
		stats.Movies++
		return nil
	})
	if err != nil {
		return nil, err
	}

	return validIDs, batch.commit()
}

// importLocalizedTitles streams title.akas.tsv.gz and inserts TR-region
// rows for works already in the catalog, computing search_title as it goes.
func (i *Importer) importLocalizedTitles(ctx context.Context, validIDs map[string]bool, stats *Stats) error {
	batch, err := newBatchWriter(ctx, i.db, i.opts.BatchSize,
		"INSERT INTO movie_titles (imdb_id, title, search_title, region, language, is_original) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer batch.rollback()

	err = i.scanDataset("title.akas.tsv.gz", func(cols columns, fields []string) error {
		if cols.get(fields, "region") != "TR" {
			return nil
		}
		id := cols.get(fields, "titleId")
		if !validIDs[id] {
			return nil
		}

		title := cols.get(fields, "title")
		if title == "" {
			return nil
		}

		if err := batch.exec(
			id,
			title,
			turkish.Normalize(title),
			"TR",
			nullString(cols.get(fields, "language")),
			cols.get(fields, "isOriginalTitle") == "1",
		); err != nil {
			return err
		}

		stats.LocalizedTitles++
		return nil
	})
	if err != nil {
		return err
	}

	return batch.commit()
}

// columns maps header names to field positions.
type columns map[string]int

// get returns the named field, with the dataset's \N sentinel mapped to "".
func (c columns) get(fields []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(fields) {
		return ""
	}
	if fields[idx] == `\N` {
		return ""
	}
	return fields[idx]
}

// scanDataset streams a dataset file line by line, calling fn for each data
// row. Files ending in .gz are decompressed; plain .tsv works too.
func (i *Importer) scanDataset(name string, fn func(cols columns, fields []string) error) error {
	path := filepath.Join(i.opts.DatasetDir, name)
	f, err := os.Open(path)
	if err != nil {
		// Allow plain .tsv alongside the canonical .gz name.
		alt := strings.TrimSuffix(path, ".gz")
		if f, err = os.Open(alt); err != nil {
			return fmt.Errorf("open dataset %s: %w", name, err)
		}
		path = alt
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("decompress %s: %w", name, err)
		}
		defer gz.Close()
		reader = gz
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return fmt.Errorf("dataset %s is empty", name)
	}
	header := strings.Split(scanner.Text(), "\t")
	cols := make(columns, len(header))
	for idx, name := range header {
		cols[name] = idx
	}

	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if err := fn(cols, fields); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// batchWriter groups inserts into transactions of batchSize rows.
type batchWriter struct {
	ctx       context.Context
	db        *sql.DB
	query     string
	batchSize int
	tx        *sql.Tx
	stmt      *sql.Stmt
	pending   int
}

func newBatchWriter(ctx context.Context, db *sql.DB, batchSize int, query string) (*batchWriter, error) {
	b := &batchWriter{ctx: ctx, db: db, query: query, batchSize: batchSize}
	if err := b.begin(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *batchWriter) begin() error {
	tx, err := b.db.BeginTx(b.ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	stmt, err := tx.PrepareContext(b.ctx, b.query)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare batch: %w", err)
	}
	b.tx, b.stmt = tx, stmt
	return nil
}

func (b *batchWriter) exec(args ...any) error {
	if _, err := b.stmt.ExecContext(b.ctx, args...); err != nil {
		return fmt.Errorf("insert row: %w", err)
	}
	b.pending++
	if b.pending >= b.batchSize {
		if err := b.commit(); err != nil {
			return err
		}
		return b.begin()
	}
	return nil
}

func (b *batchWriter) commit() error {
	if b.tx == nil {
		return nil
	}
	b.stmt.Close()
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	b.tx, b.stmt = nil, nil
	b.pending = 0
	return nil
}

func (b *batchWriter) rollback() {
	if b.tx != nil {
		b.stmt.Close()
		b.tx.Rollback()
		b.tx, b.stmt = nil, nil
	}
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(s string) any {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return v
}
