package ratings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/filmpuan/filmpuan/internal/cache"
	"github.com/filmpuan/filmpuan/internal/catalog"
	"github.com/filmpuan/filmpuan/internal/turkish"
)

var (
	// ErrNotFound means the query was valid but no record matches.
	ErrNotFound = errors.New("title not found")
	// ErrQueryTooShort rejects search queries under two characters.
	ErrQueryTooShort = errors.New("search query must be at least 2 characters")
	// ErrBatchSize rejects batch requests outside 1-20 titles.
	ErrBatchSize = fmt.Errorf("batch must contain between 1 and %d titles", MaxBatchTitles)
)

const (
	// MinQueryLength is the minimum search query length.
	MinQueryLength = 2
	// MaxBatchTitles is the maximum number of titles per batch request.
	MaxBatchTitles = 20
	// DefaultSearchLimit is used when the caller does not pass a limit.
	DefaultSearchLimit = 50
	// MaxSearchLimit caps the caller-supplied limit.
	MaxSearchLimit = 100

	// Vote count is not indexable as a substring filter, so search pulls a
	// wide candidate pool before ranking, capped at maxSearchPool per table.
	maxSearchPool = 500
)

// Catalog is the read-only query surface the engines need. Satisfied by
// *catalog.Store.
type Catalog interface {
	FindByExactTitle(ctx context.Context, normalizedTitle string, year *int) (*catalog.Movie, error)
	FindAliasesByNormalizedTitle(ctx context.Context, normalizedTitle string) ([]catalog.LocalizedTitle, error)
	GetByIMDBID(ctx context.Context, imdbID string) (*catalog.Movie, error)
	SearchByTitleSubstring(ctx context.Context, normalizedQuery string, limit int) ([]catalog.Movie, error)
	SearchAliasesBySubstring(ctx context.Context, normalizedQuery string, limit int) ([]catalog.LocalizedTitle, error)
}

// Service resolves free-form titles to canonical rating records.
type Service struct {
	catalog Catalog
	cache   cache.Store
	logger  zerolog.Logger
}

// NewService creates a ratings service. The cache store is an explicit
// dependency: one shared connection, many readers, no package-level state.
func NewService(catalogStore Catalog, cacheStore cache.Store, logger zerolog.Logger) *Service {
	return &Service{
		catalog: catalogStore,
		cache:   cacheStore,
		logger:  logger.With().Str("component", "ratings").Logger(),
	}
}

// Resolve returns the best-matching record for a title and optional year.
// Cache-aside: one cache read, and on a miss with a positive catalog result,
// one best-effort cache write. The second return value reports whether the
// record came from the cache. Returns ErrNotFound when nothing matches;
// negative results are never cached.
func (s *Service) Resolve(ctx context.Context, title string, year *int) (*MovieRating, bool, error) {
	key := cache.RatingKey(title)

	if data, ok := s.cache.Get(ctx, key); ok {
		var cached MovieRating
		if err := json.Unmarshal(data, &cached); err == nil {
			s.logger.Debug().Str("key", key).Msg("cache hit")
			return &cached, true, nil
		}
		s.logger.Warn().Str("key", key).Msg("cache entry undecodable, falling through")
	}

	s.logger.Debug().Str("key", key).Msg("cache miss")

	rating, err := s.resolveFromCatalog(ctx, title, year)
	if err != nil {
		return nil, false, err
	}
	if rating == nil {
		return nil, false, ErrNotFound
	}

	s.writeCache(ctx, key, rating)
	return rating, false, nil
}

// ResolveByID returns the record with the given IMDB id, cached under its
// own key.
func (s *Service) ResolveByID(ctx context.Context, imdbID string) (*MovieRating, bool, error) {
	key := cache.MovieKey(imdbID)

	if data, ok := s.cache.Get(ctx, key); ok {
		var cached MovieRating
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, true, nil
		}
	}

	movie, err := s.catalog.GetByIMDBID(ctx, imdbID)
	if err != nil {
		return nil, false, err
	}
	if movie == nil {
		return nil, false, ErrNotFound
	}

	rating := FromMovie(movie)
	s.writeCache(ctx, key, rating)
	return rating, false, nil
}

// Search returns up to limit matches for a free-text query, ranked by vote
// count. An empty result set is not an error.
func (s *Service) Search(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	if len([]rune(query)) < MinQueryLength {
		return nil, ErrQueryTooShort
	}
	if limit < 1 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	// Result sets are cached per normalized query at the maximum limit and
	// trimmed per request, so callers with different limits share one entry.
	key := cache.SearchKey(query)
	if data, ok := s.cache.Get(ctx, key); ok {
		var cached SearchResponse
		if err := json.Unmarshal(data, &cached); err == nil {
			if len(cached.Results) > limit {
				cached.Results = cached.Results[:limit]
			}
			cached.Total = len(cached.Results)
			cached.Query = query
			return &cached, nil
		}
		s.logger.Warn().Str("key", key).Msg("cache entry undecodable, falling through")
	}

	normalized := turkish.Normalize(query)
	pool := limit * 10
	if pool > maxSearchPool {
		pool = maxSearchPool
	}

	movies, err := s.catalog.SearchByTitleSubstring(ctx, normalized, pool)
	if err != nil {
		return nil, err
	}

	results := make([]MovieRating, 0, len(movies))
	seen := make(map[string]bool, len(movies))
	for i := range movies {
		// Canonical hits win over alias hits for the same id.
		if !seen[movies[i].IMDBID] {
			results = append(results, *FromMovie(&movies[i]))
			seen[movies[i].IMDBID] = true
		}
	}

	aliases, err := s.catalog.SearchAliasesBySubstring(ctx, normalized, pool)
	if err != nil {
		return nil, err
	}
	for _, alias := range aliases {
		if seen[alias.IMDBID] {
			continue
		}
		movie, err := s.catalog.GetByIMDBID(ctx, alias.IMDBID)
		if err != nil {
			return nil, err
		}
		if movie == nil {
			continue
		}
		results = append(results, *FromMovie(movie))
		seen[alias.IMDBID] = true
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].VoteCount() != results[j].VoteCount() {
			return results[i].VoteCount() > results[j].VoteCount()
		}
		return results[i].IMDBID < results[j].IMDBID
	})
	cacheable := results
	if len(cacheable) > MaxSearchLimit {
		cacheable = cacheable[:MaxSearchLimit]
	}
	if data, err := json.Marshal(&SearchResponse{Results: cacheable, Total: len(cacheable), Query: query}); err == nil {
		s.cache.Set(ctx, key, data, 0)
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return &SearchResponse{
		Results: results,
		Total:   len(results),
		Query:   query,
	}, nil
}

// ResolveBatch resolves up to MaxBatchTitles titles in one call. Phase one
// is a single cache multi-get over every rating key; phase two runs the full
// catalog resolution sequentially for the misses, writing each positive
// result back to the cache.
func (s *Service) ResolveBatch(ctx context.Context, titles []string) (*BatchResponse, error) {
	if len(titles) < 1 || len(titles) > MaxBatchTitles {
		return nil, ErrBatchSize
	}

	resp := &BatchResponse{Results: make(map[string]*MovieRating)}

	// Distinct titles only; duplicates collapse onto one result entry.
	type pendingTitle struct {
		title    string
		key      string
		resultID string
	}
	var order []pendingTitle
	seen := make(map[string]bool, len(titles))
	keys := make([]string, 0, len(titles))
	for _, title := range titles {
		resultID := strings.ToLower(title)
		if seen[resultID] {
			continue
		}
		seen[resultID] = true
		key := cache.RatingKey(title)
		order = append(order, pendingTitle{title: title, key: key, resultID: resultID})
		keys = append(keys, key)
	}

	cached := s.cache.MGet(ctx, keys)

	var pending []pendingTitle
	for _, p := range order {
		if data, ok := cached[p.key]; ok {
			var rating MovieRating
			if err := json.Unmarshal(data, &rating); err == nil {
				resp.Results[p.resultID] = &rating
				resp.Found++
				continue
			}
		}
		pending = append(pending, p)
	}

	for _, p := range pending {
		rating, err := s.resolveFromCatalog(ctx, p.title, nil)
		if err != nil {
			return nil, err
		}
		if rating == nil {
			resp.Results[p.resultID] = nil
			resp.NotFound++
			continue
		}
		s.writeCache(ctx, p.key, rating)
		resp.Results[p.resultID] = rating
		resp.Found++
	}

	s.logger.Debug().
		Int("titles", len(order)).
		Int("found", resp.Found).
		Int("not_found", resp.NotFound).
		Msg("batch resolved")

	return resp, nil
}

// resolveFromCatalog runs the two-table match: canonical exact first, then
// alias fallback with the highest-vote candidate winning. Returns nil when
// nothing matches.
func (s *Service) resolveFromCatalog(ctx context.Context, title string, year *int) (*MovieRating, error) {
	normalized := turkish.Normalize(title)

	movie, err := s.catalog.FindByExactTitle(ctx, normalized, year)
	if err != nil {
		return nil, err
	}

	if movie == nil {
		aliases, err := s.catalog.FindAliasesByNormalizedTitle(ctx, normalized)
		if err != nil {
			return nil, err
		}

		var best *catalog.Movie
		for _, alias := range aliases {
			candidate, err := s.catalog.GetByIMDBID(ctx, alias.IMDBID)
			if err != nil {
				return nil, err
			}
			if candidate == nil {
				continue
			}
			if year != nil && (candidate.Year == nil || *candidate.Year != *year) {
				continue
			}
			if best == nil ||
				candidate.VoteCount() > best.VoteCount() ||
				(candidate.VoteCount() == best.VoteCount() && candidate.IMDBID < best.IMDBID) {
				best = candidate
			}
		}
		movie = best
	}

	if movie == nil {
		return nil, nil
	}
	return FromMovie(movie), nil
}

// writeCache stores a positive result under key. Best-effort: failure is
// logged and does not affect the returned result.
func (s *Service) writeCache(ctx context.Context, key string, rating *MovieRating) {
	data, err := json.Marshal(rating)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	s.cache.Set(ctx, key, data, 0)
}
