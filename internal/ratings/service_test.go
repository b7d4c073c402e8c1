package ratings

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/filmpuan/filmpuan/internal/cache"
	"github.com/filmpuan/filmpuan/internal/catalog"
	"github.com/filmpuan/filmpuan/internal/testutil"
)

// countingCatalog wraps a Catalog and counts reads, so cache-aside behavior
// is observable.
type countingCatalog struct {
	Catalog
	reads atomic.Int64
}

func (c *countingCatalog) FindByExactTitle(ctx context.Context, title string, year *int) (*catalog.Movie, error) {
	c.reads.Add(1)
	return c.Catalog.FindByExactTitle(ctx, title, year)
}

func (c *countingCatalog) FindAliasesByNormalizedTitle(ctx context.Context, title string) ([]catalog.LocalizedTitle, error) {
	c.reads.Add(1)
	return c.Catalog.FindAliasesByNormalizedTitle(ctx, title)
}

func (c *countingCatalog) GetByIMDBID(ctx context.Context, id string) (*catalog.Movie, error) {
	c.reads.Add(1)
	return c.Catalog.GetByIMDBID(ctx, id)
}

func newTestService(t *testing.T) (*Service, *testutil.TestDB, *countingCatalog, cache.Store) {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	t.Cleanup(tdb.Close)

	counting := &countingCatalog{Catalog: catalog.NewStore(tdb.Conn, tdb.Logger)}
	store := cache.NewMemory(time.Hour, 1000)
	return NewService(counting, store, tdb.Logger), tdb, counting, store
}

func TestResolve_CacheAside(t *testing.T) {
	service, tdb, counting, store := newTestService(t)
	ctx := context.Background()

	tdb.InsertMovie(t, "tt1375666", "Inception", testutil.IntPtr(2010), testutil.IntPtr(2000000), testutil.FloatPtr(8.8))

	year := 2010
	first, fromCache, err := service.Resolve(ctx, "Inception", &year)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if fromCache {
		t.Error("first Resolve() fromCache = true, want false")
	}
	if first.IMDBID != "tt1375666" {
		t.Errorf("IMDBID = %q, want tt1375666", first.IMDBID)
	}
	if counting.reads.Load() == 0 {
		t.Error("first Resolve() hit the catalog zero times")
	}

	readsAfterFirst := counting.reads.Load()

	second, fromCache, err := service.Resolve(ctx, "Inception", &year)
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	if !fromCache {
		t.Error("second Resolve() fromCache = false, want true")
	}
	if counting.reads.Load() != readsAfterFirst {
		t.Errorf("second Resolve() performed %d catalog reads, want 0",
			counting.reads.Load()-readsAfterFirst)
	}
	if second.IMDBID != first.IMDBID || second.Title != first.Title ||
		second.VoteCount() != first.VoteCount() {
		t.Errorf("cached record %+v differs from original %+v", second, first)
	}

	stats := store.Stats(ctx)
	if stats.Hits != 1 {
		t.Errorf("cache hits = %d, want 1", stats.Hits)
	}
}

func TestResolve_VoteCountTieBreak(t *testing.T) {
	service, tdb, _, _ := newTestService(t)
	ctx := context.Background()

	tdb.InsertMovie(t, "tt0000050", "Dark", testutil.IntPtr(2017), testutil.IntPtr(50), nil)
	tdb.InsertMovie(t, "tt0000100", "Dark", testutil.IntPtr(2017), testutil.IntPtr(100), nil)

	rating, _, err := service.Resolve(ctx, "dark", nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if rating.IMDBID != "tt0000100" {
		t.Errorf("IMDBID = %q, want tt0000100 (votes=100 beats votes=50)", rating.IMDBID)
	}
}

func TestResolve_AliasFallback(t *testing.T) {
	service, tdb, _, _ := newTestService(t)
	ctx := context.Background()

	tdb.InsertMovie(t, "tt1375666", "Inception", testutil.IntPtr(2010), testutil.IntPtr(2000000), testutil.FloatPtr(8.8))
	tdb.InsertLocalizedTitle(t, "tt1375666", "Başlangıç", "baslangic", "TR")

	year := 2010
	rating, _, err := service.Resolve(ctx, "Başlangıç", &year)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if rating.IMDBID != "tt1375666" {
		t.Errorf("IMDBID = %q, want tt1375666", rating.IMDBID)
	}
	if rating.Title != "Inception" {
		t.Errorf("Title = %q, want the canonical title", rating.Title)
	}
}

func TestResolve_AliasFallback_YearExcludes(t *testing.T) {
	service, tdb, _, _ := newTestService(t)
	ctx := context.Background()

	tdb.InsertMovie(t, "tt1375666", "Inception", testutil.IntPtr(2010), testutil.IntPtr(2000000), testutil.FloatPtr(8.8))
	tdb.InsertLocalizedTitle(t, "tt1375666", "Başlangıç", "baslangic", "TR")

	year := 1999
	_, _, err := service.Resolve(ctx, "Başlangıç", &year)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Resolve(year=1999) error = %v, want ErrNotFound", err)
	}
}

func TestResolve_AliasFallback_HighestVotesWins(t *testing.T) {
	service, tdb, _, _ := newTestService(t)
	ctx := context.Background()

	// Two different movies share the same Turkish alias.
	tdb.InsertMovie(t, "tt0000001", "Original A", testutil.IntPtr(2010), testutil.IntPtr(10), nil)
	tdb.InsertMovie(t, "tt0000002", "Original B", testutil.IntPtr(2012), testutil.IntPtr(9000), nil)
	tdb.InsertLocalizedTitle(t, "tt0000001", "Aynı İsim", "ayni isim", "TR")
	tdb.InsertLocalizedTitle(t, "tt0000002", "Aynı İsim", "ayni isim", "TR")

	rating, _, err := service.Resolve(ctx, "Aynı İsim", nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if rating.IMDBID != "tt0000002" {
		t.Errorf("IMDBID = %q, want tt0000002 (higher votes)", rating.IMDBID)
	}
}

func TestResolve_NotFound_NotCached(t *testing.T) {
	service, _, counting, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := service.Resolve(ctx, "No Such Movie", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Resolve() error = %v, want ErrNotFound", err)
	}

	reads := counting.reads.Load()

	// Negative results are not cached: the second call hits the catalog again.
	_, _, err = service.Resolve(ctx, "No Such Movie", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Resolve() error = %v, want ErrNotFound", err)
	}
	if counting.reads.Load() == reads {
		t.Error("second Resolve() of a missing title performed no catalog reads; negative result was cached")
	}
}

func TestResolve_FailOpen(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	counting := &countingCatalog{Catalog: catalog.NewStore(tdb.Conn, tdb.Logger)}
	// Unreachable backend: every read absent, every write a no-op.
	dead := cache.NewRedis("redis://127.0.0.1:1/0", time.Hour, tdb.Logger)
	defer dead.Close()
	service := NewService(counting, dead, tdb.Logger)
	ctx := context.Background()

	tdb.InsertMovie(t, "tt1375666", "Inception", testutil.IntPtr(2010), testutil.IntPtr(2000000), testutil.FloatPtr(8.8))

	rating, fromCache, err := service.Resolve(ctx, "Inception", nil)
	if err != nil {
		t.Fatalf("Resolve() with dead cache error = %v", err)
	}
	if fromCache {
		t.Error("fromCache = true with dead cache")
	}
	if rating.IMDBID != "tt1375666" {
		t.Errorf("IMDBID = %q, want tt1375666", rating.IMDBID)
	}

	stats := dead.Stats(ctx)
	if stats.Hits != 0 {
		t.Errorf("Hits = %d, want 0", stats.Hits)
	}
	// Reads never reached the backend, so misses stay at zero too.
	if stats.Misses != 0 {
		t.Errorf("Misses = %d, want 0", stats.Misses)
	}
}

func TestResolveByID(t *testing.T) {
	service, tdb, counting, _ := newTestService(t)
	ctx := context.Background()

	tdb.InsertMovie(t, "tt1375666", "Inception", testutil.IntPtr(2010), testutil.IntPtr(2000000), testutil.FloatPtr(8.8))

	rating, fromCache, err := service.ResolveByID(ctx, "tt1375666")
	if err != nil {
		t.Fatalf("ResolveByID() error = %v", err)
	}
	if fromCache {
		t.Error("first ResolveByID() fromCache = true")
	}
	if rating.Title != "Inception" {
		t.Errorf("Title = %q, want Inception", rating.Title)
	}

	reads := counting.reads.Load()
	_, fromCache, err = service.ResolveByID(ctx, "tt1375666")
	if err != nil {
		t.Fatalf("second ResolveByID() error = %v", err)
	}
	if !fromCache {
		t.Error("second ResolveByID() fromCache = false")
	}
	if counting.reads.Load() != reads {
		t.Error("second ResolveByID() hit the catalog")
	}

	_, _, err = service.ResolveByID(ctx, "tt9999999")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ResolveByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSearch_DedupAndRanking(t *testing.T) {
	service, tdb, _, _ := newTestService(t)
	ctx := context.Background()

	// "karanlik" matches the alias of tt0468569 and the canonical title of
	// the other two; tt0468569 also matches canonically ("Dark Knight"
	// would not, so give it a matching canonical title too).
	tdb.InsertMovie(t, "tt0468569", "Karanlik Sovalye", testutil.IntPtr(2008), testutil.IntPtr(2700000), testutil.FloatPtr(9.0))
	tdb.InsertMovie(t, "tt0000001", "Karanlik Su", testutil.IntPtr(2005), testutil.IntPtr(60000), nil)
	tdb.InsertMovie(t, "tt0000002", "Karanlik Oda", testutil.IntPtr(2019), testutil.IntPtr(120000), nil)
	// Same movie reachable through both tables: must appear exactly once.
	tdb.InsertLocalizedTitle(t, "tt0468569", "Karanlık Şövalye", "karanlik sovalye", "TR")

	resp, err := service.Search(ctx, "Karanlık", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if resp.Total != 3 {
		t.Fatalf("Total = %d, want 3 (dedup by imdb id)", resp.Total)
	}
	// Ranked by vote count descending.
	want := []string{"tt0468569", "tt0000002", "tt0000001"}
	for i, id := range want {
		if resp.Results[i].IMDBID != id {
			t.Errorf("Results[%d].IMDBID = %q, want %q", i, resp.Results[i].IMDBID, id)
		}
	}
}

func TestSearch_LimitTruncates(t *testing.T) {
	service, tdb, _, _ := newTestService(t)
	ctx := context.Background()

	tdb.InsertMovie(t, "tt0000001", "Deneme Bir", nil, testutil.IntPtr(10), nil)
	tdb.InsertMovie(t, "tt0000002", "Deneme Iki", nil, testutil.IntPtr(30), nil)
	tdb.InsertMovie(t, "tt0000003", "Deneme Uc", nil, testutil.IntPtr(20), nil)

	resp, err := service.Search(ctx, "deneme", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("Total = %d, want 2", resp.Total)
	}
	if resp.Results[0].IMDBID != "tt0000002" || resp.Results[1].IMDBID != "tt0000003" {
		t.Errorf("Results = [%s %s], want [tt0000002 tt0000003]",
			resp.Results[0].IMDBID, resp.Results[1].IMDBID)
	}
}

func TestSearch_EmptyResultIsNotError(t *testing.T) {
	service, _, _, _ := newTestService(t)

	resp, err := service.Search(context.Background(), "hicbiryerde yok", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if resp.Total != 0 || len(resp.Results) != 0 {
		t.Errorf("Search() = %+v, want empty result set", resp)
	}
}

func TestSearch_QueryTooShort(t *testing.T) {
	service, _, counting, _ := newTestService(t)

	_, err := service.Search(context.Background(), "a", 10)
	if !errors.Is(err, ErrQueryTooShort) {
		t.Fatalf("Search() error = %v, want ErrQueryTooShort", err)
	}
	// Rejected before any catalog access.
	if counting.reads.Load() != 0 {
		t.Error("Search() with short query touched the catalog")
	}
}

func TestResolveBatch(t *testing.T) {
	service, tdb, _, _ := newTestService(t)
	ctx := context.Background()

	tdb.InsertMovie(t, "tt1375666", "Inception", testutil.IntPtr(2010), testutil.IntPtr(2000000), testutil.FloatPtr(8.8))

	resp, err := service.ResolveBatch(ctx, []string{"Inception", "Unknown Title XYZ"})
	if err != nil {
		t.Fatalf("ResolveBatch() error = %v", err)
	}

	if resp.Found != 1 || resp.NotFound != 1 {
		t.Errorf("found/notFound = %d/%d, want 1/1", resp.Found, resp.NotFound)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(resp.Results))
	}
	if got := resp.Results["inception"]; got == nil || got.IMDBID != "tt1375666" {
		t.Errorf(`Results["inception"] = %v, want tt1375666`, got)
	}
	if got, ok := resp.Results["unknown title xyz"]; !ok || got != nil {
		t.Errorf(`Results["unknown title xyz"] = %v (present=%v), want explicit null`, got, ok)
	}
}

func TestResolveBatch_SecondCallServedFromCache(t *testing.T) {
	service, tdb, counting, _ := newTestService(t)
	ctx := context.Background()

	tdb.InsertMovie(t, "tt1375666", "Inception", testutil.IntPtr(2010), testutil.IntPtr(2000000), testutil.FloatPtr(8.8))

	if _, err := service.ResolveBatch(ctx, []string{"Inception"}); err != nil {
		t.Fatalf("ResolveBatch() error = %v", err)
	}
	reads := counting.reads.Load()

	resp, err := service.ResolveBatch(ctx, []string{"Inception"})
	if err != nil {
		t.Fatalf("second ResolveBatch() error = %v", err)
	}
	if counting.reads.Load() != reads {
		t.Error("second ResolveBatch() hit the catalog, want cache only")
	}
	if resp.Found != 1 {
		t.Errorf("Found = %d, want 1", resp.Found)
	}
}

func TestResolveBatch_DuplicatesCollapse(t *testing.T) {
	service, tdb, _, _ := newTestService(t)
	ctx := context.Background()

	tdb.InsertMovie(t, "tt1375666", "Inception", testutil.IntPtr(2010), testutil.IntPtr(2000000), testutil.FloatPtr(8.8))

	resp, err := service.ResolveBatch(ctx, []string{"Inception", "INCEPTION", "inception"})
	if err != nil {
		t.Fatalf("ResolveBatch() error = %v", err)
	}
	if len(resp.Results) != 1 {
		t.Errorf("len(Results) = %d, want 1 (duplicates collapse)", len(resp.Results))
	}
	if resp.Found+resp.NotFound != 1 {
		t.Errorf("Found+NotFound = %d, want 1 distinct title", resp.Found+resp.NotFound)
	}
}

func TestResolveBatch_SizeLimits(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.ResolveBatch(ctx, nil); !errors.Is(err, ErrBatchSize) {
		t.Errorf("ResolveBatch(empty) error = %v, want ErrBatchSize", err)
	}

	big := make([]string, MaxBatchTitles+1)
	for i := range big {
		big[i] = "title"
	}
	if _, err := service.ResolveBatch(ctx, big); !errors.Is(err, ErrBatchSize) {
		t.Errorf("ResolveBatch(21 titles) error = %v, want ErrBatchSize", err)
	}
}

func TestResolveBatch_UsesAliasFallback(t *testing.T) {
	service, tdb, _, _ := newTestService(t)
	ctx := context.Background()

	tdb.InsertMovie(t, "tt1375666", "Inception", testutil.IntPtr(2010), testutil.IntPtr(2000000), testutil.FloatPtr(8.8))
	tdb.InsertLocalizedTitle(t, "tt1375666", "Başlangıç", "baslangic", "TR")

	resp, err := service.ResolveBatch(ctx, []string{"Başlangıç"})
	if err != nil {
		t.Fatalf("ResolveBatch() error = %v", err)
	}
	if resp.Found != 1 {
		t.Fatalf("Found = %d, want 1", resp.Found)
	}
	if got := resp.Results["başlangıç"]; got == nil || got.IMDBID != "tt1375666" {
		t.Errorf(`Results["başlangıç"] = %v, want tt1375666`, got)
	}
}
