// Package catalog provides read access to the movie catalog tables.
package catalog

// Movie is a canonical catalog row, keyed by IMDB id. Rows are created by
// the import pipeline and are read-only from the API's perspective.
type Movie struct {
	ID             int64
	IMDBID         string
	Title          string
	OriginalTitle  *string
	Year           *int
	Rating         *float64
	Votes          *int
	RuntimeMinutes *int
	Genres         *string
	TitleType      *string
}

// VoteCount returns the vote count with a missing value treated as 0.
func (m *Movie) VoteCount() int {
	if m.Votes == nil {
		return 0
	}
	return *m.Votes
}

// LocalizedTitle is a region/language-specific display title pointing back
// to a canonical movie by IMDB id. SearchTitle is the normalized form of
// Title, precomputed by the import pipeline.
type LocalizedTitle struct {
	ID          int64
	IMDBID      string
	Title       string
	SearchTitle string
	Region      string
	Language    string
	IsOriginal  bool
}
