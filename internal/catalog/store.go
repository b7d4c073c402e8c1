package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// Store provides read-only queries against the catalog tables.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewStore creates a new catalog store.
func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

const movieColumns = "id, imdb_id, title, original_title, year, rating, votes, runtime_minutes, genres, title_type"

// FindByExactTitle returns the best canonical match for an already-normalized
// title: rows whose lower-cased title equals the input, filtered by year when
// one is supplied, highest vote count first with IMDB id as the tie-break.
// Returns nil when nothing matches.
func (s *Store) FindByExactTitle(ctx context.Context, normalizedTitle string, year *int) (*Movie, error) {
	query := "SELECT " + movieColumns + " FROM movies WHERE lower(title) = ?"
	args := []any{normalizedTitle}
	if year != nil {
		query += " AND year = ?"
		args = append(args, *year)
	}
	query += " ORDER BY votes DESC, imdb_id ASC LIMIT 1"

	row := s.db.QueryRowContext(ctx, query, args...)
	movie, err := scanMovie(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by exact title: %w", err)
	}
	return movie, nil
}

// FindAliasesByNormalizedTitle returns all localized-title rows whose
// precomputed search title equals the already-normalized input.
func (s *Store) FindAliasesByNormalizedTitle(ctx context.Context, normalizedTitle string) ([]LocalizedTitle, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, imdb_id, title, search_title, region, language, is_original FROM movie_titles WHERE search_title = ?",
		normalizedTitle)
	if err != nil {
		return nil, fmt.Errorf("find aliases: %w", err)
	}
	defer rows.Close()
	return scanLocalizedTitles(rows)
}

// GetByIMDBID returns the canonical row with the given IMDB id, or nil.
func (s *Store) GetByIMDBID(ctx context.Context, imdbID string) (*Movie, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE imdb_id = ?", imdbID)
	movie, err := scanMovie(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get by imdb id: %w", err)
	}
	return movie, nil
}

// SearchByTitleSubstring returns up to limit canonical rows whose lower-cased
// title contains the already-normalized query.
func (s *Store) SearchByTitleSubstring(ctx context.Context, normalizedQuery string, limit int) ([]Movie, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE lower(title) LIKE '%' || ? || '%' LIMIT ?",
		normalizedQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}
	defer rows.Close()

	var movies []Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("search movies: %w", err)
		}
		movies = append(movies, *movie)
	}
	return movies, rows.Err()
}

// SearchAliasesBySubstring returns up to limit localized-title rows whose
// search title contains the already-normalized query.
func (s *Store) SearchAliasesBySubstring(ctx context.Context, normalizedQuery string, limit int) ([]LocalizedTitle, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, imdb_id, title, search_title, region, language, is_original FROM movie_titles WHERE search_title LIKE '%' || ? || '%' LIMIT ?",
		normalizedQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("search aliases: %w", err)
	}
	defer rows.Close()
	return scanLocalizedTitles(rows)
}

// Counts returns the number of canonical and localized-title rows. Used by
// the health endpoint as an operational probe.
func (s *Store) Counts(ctx context.Context) (movies, titles int64, err error) {
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&movies); err != nil {
		return 0, 0, fmt.Errorf("count movies: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movie_titles").Scan(&titles); err != nil {
		return 0, 0, fmt.Errorf("count movie titles: %w", err)
	}
	return movies, titles, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMovie(s scanner) (*Movie, error) {
	var m Movie
	var originalTitle, genres, titleType sql.NullString
	var year, votes, runtime sql.NullInt64
	var rating sql.NullFloat64

	err := s.Scan(&m.ID, &m.IMDBID, &m.Title, &originalTitle, &year, &rating, &votes, &runtime, &genres, &titleType)
	if err != nil {
		return nil, err
	}

	if originalTitle.Valid {
		m.OriginalTitle = &originalTitle.String
	}
	if year.Valid {
		y := int(year.Int64)
		m.Year = &y
	}
	if rating.Valid {
		m.Rating = &rating.Float64
	}
	if votes.Valid {
		v := int(votes.Int64)
		m.Votes = &v
	}
	if runtime.Valid {
		r := int(runtime.Int64)
		m.RuntimeMinutes = &r
	}
	if genres.Valid {
		m.Genres = &genres.String
	}
	if titleType.Valid {
		m.TitleType = &titleType.String
	}
	return &m, nil
}

func scanLocalizedTitles(rows *sql.Rows) ([]LocalizedTitle, error) {
	var titles []LocalizedTitle
	for rows.Next() {
		var t LocalizedTitle
		var searchTitle, region, language sql.NullString
		if err := rows.Scan(&t.ID, &t.IMDBID, &t.Title, &searchTitle, &region, &language, &t.IsOriginal); err != nil {
			return nil, fmt.Errorf("scan localized title: %w", err)
		}
		t.SearchTitle = searchTitle.String
		t.Region = region.String
		t.Language = language.String
		titles = append(titles, t)
	}
	return titles, rows.Err()
}
