// Package testutil provides testing utilities for integration tests.
package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/filmpuan/filmpuan/internal/database"
)

// TestDB wraps a test database connection.
type TestDB struct {
	DB     *database.DB
	Conn   *sql.DB
	Path   string
	Logger zerolog.Logger
}

// NewTestDB creates a new test database in a temp directory.
// It runs migrations and returns a ready-to-use database.
// The caller should defer Close() to clean up.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "filmpuan_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")

	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)

	db, err := database.New(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return &TestDB{
		DB:     db,
		Conn:   db.Conn(),
		Path:   tmpDir,
		Logger: logger,
	}
}

// Close closes the database and removes the temp directory.
func (tdb *TestDB) Close() {
	if tdb.DB != nil {
		tdb.DB.Close()
	}
	if tdb.Path != "" {
		os.RemoveAll(tdb.Path)
	}
}

// NewTestLogger creates a test logger that outputs to t.Log.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

// InsertMovie inserts a canonical movie row for tests. Nil pointers become
// SQL NULLs.
func (tdb *TestDB) InsertMovie(t *testing.T, imdbID, title string, year, votes *int, rating *float64) {
	t.Helper()
	_, err := tdb.Conn.Exec(
		"INSERT INTO movies (imdb_id, title, year, rating, votes) VALUES (?, ?, ?, ?, ?)",
		imdbID, title, nullableInt(year), nullableFloat(rating), nullableInt(votes))
	if err != nil {
		t.Fatalf("InsertMovie(%s): %v", imdbID, err)
	}
}

// InsertLocalizedTitle inserts a localized-title row for tests.
func (tdb *TestDB) InsertLocalizedTitle(t *testing.T, imdbID, title, searchTitle, region string) {
	t.Helper()
	_, err := tdb.Conn.Exec(
		"INSERT INTO movie_titles (imdb_id, title, search_title, region, language, is_original) VALUES (?, ?, ?, ?, ?, 0)",
		imdbID, title, searchTitle, region, "tr")
	if err != nil {
		t.Fatalf("InsertLocalizedTitle(%s): %v", imdbID, err)
	}
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// IntPtr returns a pointer to v, for building optional fields in tests.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }
