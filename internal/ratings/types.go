// Package ratings implements title resolution, search and batch lookup over
// the catalog, fronted by a read-through cache.
package ratings

import "github.com/filmpuan/filmpuan/internal/catalog"

// MovieRating is the resolution output returned to callers.
type MovieRating struct {
	IMDBID string   `json:"imdb_id"`
	Title  string   `json:"title"`
	Year   *int     `json:"year"`
	Rating *float64 `json:"rating"`
	Votes  *int     `json:"votes"`
	Genres *string  `json:"genres"`
}

// FromMovie converts a catalog row to the output schema.
func FromMovie(m *catalog.Movie) *MovieRating {
	return &MovieRating{
		IMDBID: m.IMDBID,
		Title:  m.Title,
		Year:   m.Year,
		Rating: m.Rating,
		Votes:  m.Votes,
		Genres: m.Genres,
	}
}

// VoteCount returns the vote count with a missing value treated as 0.
func (r *MovieRating) VoteCount() int {
	if r.Votes == nil {
		return 0
	}
	return *r.Votes
}

// SearchResponse is a ranked search result set.
type SearchResponse struct {
	Results []MovieRating `json:"results"`
	Total   int           `json:"total"`
	Query   string        `json:"query"`
}

// BatchRequest is the batch resolution input.
type BatchRequest struct {
	Titles []string `json:"titles"`
}

// BatchResponse maps each distinct lower-cased input title to its resolved
// record, or null when nothing matched. Found plus NotFound equals the
// number of distinct input titles.
type BatchResponse struct {
	Results  map[string]*MovieRating `json:"results"`
	Found    int                     `json:"found"`
	NotFound int                     `json:"not_found"`
}
