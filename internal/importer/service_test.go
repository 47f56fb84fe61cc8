package importer

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/whist/internal/cache"
	"github.com/varoOP/whist/internal/database"
	"github.com/varoOP/whist/internal/domain"
	"github.com/varoOP/whist/internal/testutil"
)

func newService(t *testing.T) (*service, *database.Store, *testutil.Catalog) {
	t.Helper()

	store := testutil.NewStore(t)
	catalog := testutil.NewCatalog()
	svc := NewService(zerolog.Nop(), store, catalog, cache.NewService(zerolog.Nop(), store, catalog)).(*service)
	svc.now = func() time.Time { return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC) }

	return svc, store, catalog
}

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func watched(tmdbID int, title string, last string, seasons ...domain.TraktSeason) domain.TraktWatchedShow {
	return domain.TraktWatchedShow{
		LastWatchedAt: at(last),
		Show:          domain.TraktShow{Title: title, IDs: domain.TraktIDs{TMDB: tmdbID}},
		Seasons:       seasons,
	}
}

func season(number int, episodes ...domain.TraktEpisode) domain.TraktSeason {
	return domain.TraktSeason{Number: number, Episodes: episodes}
}

func episode(number int, last string) domain.TraktEpisode {
	return domain.TraktEpisode{Number: number, Plays: 1, LastWatchedAt: at(last)}
}

func TestImportAddsShowsAndMarksEpisodes(t *testing.T) {
	svc, store, catalog := newService(t)
	ctx := t.Context()

	catalog.AddSeason(100, "Severance", 1, "2022-02-18", "2022-02-25", "2022-03-04")
	catalog.AddSeason(200, "Lost", 1, "2004-09-22", "2004-09-29")
	catalog.Shows[200].Status = "Ended"

	stats, err := svc.Import(ctx, []domain.TraktWatchedShow{
		watched(100, "Severance", "2024-05-02T21:14:00Z",
			season(1, episode(1, "2024-05-01T23:30:00Z"), episode(2, "2024-05-02T21:14:00Z")),
			season(3, episode(1, "2024-05-03T20:00:00Z")),
		),
		watched(200, "Lost", "2020-01-10T10:00:00Z", season(1, episode(1, "2020-01-10T10:00:00Z"))),
		{Show: domain.TraktShow{Title: "No Id"}},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ImportStatistics{
		TotalShows:      3,
		ImportedShows:   2,
		AddedShows:      2,
		SkippedShows:    1,
		EpisodesMarked:  3,
		MissingEpisodes: 1,
	}, stats)

	sev, err := store.Shows().FindByTmdbID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAiring, sev.UserStatus)
	require.NotNil(t, sev.LastWatchedAt)
	assert.True(t, at("2024-05-02T21:14:00Z").Equal(*sev.LastWatchedAt))

	lost, err := store.Shows().FindByTmdbID(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, lost.UserStatus)

	e1, err := store.Episodes().Find(ctx, 100, 1, 1)
	require.NoError(t, err)
	assert.True(t, e1.Watched)
	assert.Equal(t, testutil.Ptr("2024-05-01"), e1.WatchedAt)

	e3, err := store.Episodes().Find(ctx, 100, 1, 3)
	require.NoError(t, err)
	assert.False(t, e3.Watched)

	history, err := store.History().Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestImportIsRepeatable(t *testing.T) {
	svc, store, catalog := newService(t)
	ctx := t.Context()

	catalog.AddSeason(100, "Severance", 1, "2022-02-18", "2022-02-25")
	export := []domain.TraktWatchedShow{
		watched(100, "Severance", "2024-05-02T21:14:00Z", season(1, episode(1, "2024-05-01T23:30:00Z"))),
	}

	_, err := svc.Import(ctx, export)
	require.NoError(t, err)

	// a later manual unwatch-and-rewatch keeps its own date
	e, err := store.Episodes().Find(ctx, 100, 1, 1)
	require.NoError(t, err)
	_, err = store.Episodes().SetWatched(ctx, []int64{e.ID}, true, testutil.Ptr("2025-01-01"))
	require.NoError(t, err)

	calls := catalog.Calls("GetShow")

	stats, err := svc.Import(ctx, export)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ImportedShows)
	assert.Zero(t, stats.AddedShows)
	assert.Zero(t, stats.EpisodesMarked)

	e, err = store.Episodes().Find(ctx, 100, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, testutil.Ptr("2025-01-01"), e.WatchedAt)

	assert.Equal(t, calls, catalog.Calls("GetShow"))
}

func TestImportKeepsNewerLastWatched(t *testing.T) {
	svc, store, catalog := newService(t)
	ctx := t.Context()

	catalog.AddSeason(100, "Severance", 1, "2022-02-18")
	testutil.AddShow(t, store, 100, "Severance", domain.StatusBinging)
	require.NoError(t, store.Shows().SetLastWatched(ctx, 100, *at("2024-06-01T00:00:00Z")))

	_, err := svc.Import(ctx, []domain.TraktWatchedShow{watched(100, "Severance", "2024-05-01T00:00:00Z")})
	require.NoError(t, err)

	show, err := store.Shows().FindByTmdbID(ctx, 100)
	require.NoError(t, err)
	assert.True(t, at("2024-06-01T00:00:00Z").Equal(*show.LastWatchedAt))
	assert.Equal(t, domain.StatusBinging, show.UserStatus)

	_, err = svc.Import(ctx, []domain.TraktWatchedShow{watched(100, "Severance", "2024-07-01T00:00:00Z")})
	require.NoError(t, err)

	show, err = store.Shows().FindByTmdbID(ctx, 100)
	require.NoError(t, err)
	assert.True(t, at("2024-07-01T00:00:00Z").Equal(*show.LastWatchedAt))
}

func TestImportLeavesLastWatchedWhenEpisodesFail(t *testing.T) {
	svc, store, catalog := newService(t)
	ctx := t.Context()

	catalog.AddSeason(100, "Severance", 1, "2022-02-18")
	testutil.AddShow(t, store, 100, "Severance", domain.StatusBinging)
	require.NoError(t, store.Shows().SetLastWatched(ctx, 100, *at("2024-06-01T00:00:00Z")))
	catalog.Fail(testutil.ShowKey(100))

	stats, err := svc.Import(ctx, []domain.TraktWatchedShow{
		watched(100, "Severance", "2024-07-01T00:00:00Z", season(1, episode(1, "2024-07-01T00:00:00Z"))),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SkippedShows)

	show, err := store.Shows().FindByTmdbID(ctx, 100)
	require.NoError(t, err)
	assert.True(t, at("2024-06-01T00:00:00Z").Equal(*show.LastWatchedAt))
}

func TestImportSkipsFailingShows(t *testing.T) {
	svc, store, catalog := newService(t)
	ctx := t.Context()

	catalog.AddSeason(100, "Severance", 1, "2022-02-18")
	catalog.AddSeason(200, "Lost", 1, "2004-09-22")
	catalog.Fail(testutil.ShowKey(100))

	stats, err := svc.Import(ctx, []domain.TraktWatchedShow{
		watched(100, "Severance", "2024-05-02T21:14:00Z", season(1, episode(1, "2024-05-01T23:30:00Z"))),
		watched(200, "Lost", "2020-01-10T10:00:00Z", season(1, episode(1, "2020-01-10T10:00:00Z"))),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SkippedShows)
	assert.Equal(t, 1, stats.ImportedShows)

	_, err = store.Shows().FindByTmdbID(ctx, 100)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestImportStopsOnCancel(t *testing.T) {
	svc, _, _ := newService(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := svc.Import(ctx, []domain.TraktWatchedShow{watched(100, "Severance", "2024-05-02T21:14:00Z")})
	require.ErrorIs(t, err, context.Canceled)
}
