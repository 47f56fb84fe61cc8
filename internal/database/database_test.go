package database

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/whist/internal/domain"
)

func setupDB(t *testing.T) (*DB, *Store) {
	t.Helper()

	db, err := NewDB(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db, NewStore(zerolog.Nop(), db)
}

func addShow(t *testing.T, s *Store, tmdbID int, title string) *domain.Show {
	t.Helper()

	show := &domain.Show{TmdbID: tmdbID, Title: title, UserStatus: domain.StatusAiring, Type: domain.MediaTV}
	require.NoError(t, s.Shows().Insert(t.Context(), show))
	return show
}

func episodes(show *domain.Show, season, count int) []*domain.Episode {
	eps := make([]*domain.Episode, 0, count)
	for i := 1; i <= count; i++ {
		eps = append(eps, &domain.Episode{
			ShowID:        show.ID,
			TmdbShowID:    show.TmdbID,
			SeasonNumber:  season,
			EpisodeNumber: i,
		})
	}
	return eps
}

func ptr[T any](v T) *T { return &v }

func TestMigrateSetsUserVersion(t *testing.T) {
	db, _ := setupDB(t)

	var version int
	require.NoError(t, db.handler.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, len(migrations), version)

	require.NoError(t, db.Migrate())
}

func TestMigrateRejectsNewerSchema(t *testing.T) {
	db, _ := setupDB(t)

	_, err := db.handler.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)

	require.Error(t, db.Migrate())
}

func TestMigrateNormalisesLegacyRows(t *testing.T) {
	db, s := setupDB(t)
	ctx := t.Context()

	show := addShow(t, s, 100, "Lost")
	_, err := s.Episodes().InsertMissing(ctx, episodes(show, 1, 1))
	require.NoError(t, err)

	_, err = db.handler.Exec(`UPDATE shows SET user_status = 'watchlist' WHERE tmdb_id = 100`)
	require.NoError(t, err)
	_, err = db.handler.Exec(`UPDATE episodes SET watched = 1, watched_at = '2024-05-01T10:11:12.000000'`)
	require.NoError(t, err)
	_, err = db.handler.Exec("PRAGMA user_version = 1")
	require.NoError(t, err)

	require.NoError(t, db.Migrate())

	got, err := s.Shows().FindByTmdbID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCaughtUp, got.UserStatus)

	ep, err := s.Episodes().Find(ctx, 100, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, ptr("2024-05-01T10:11:12.000000"), ep.WatchedAt)
}

func TestWatchedAtRequiresWatched(t *testing.T) {
	db, s := setupDB(t)

	show := addShow(t, s, 100, "Lost")
	_, err := s.Episodes().InsertMissing(t.Context(), episodes(show, 1, 1))
	require.NoError(t, err)

	_, err = db.handler.Exec(`UPDATE episodes SET watched = 0, watched_at = '2024-01-01'`)
	require.Error(t, err)
}

func TestShowInsertAndUpdate(t *testing.T) {
	_, s := setupDB(t)
	ctx := t.Context()

	show := addShow(t, s, 100, "Lost")
	assert.NotZero(t, show.ID)

	got, err := s.Shows().FindByTmdbID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "Lost", got.Title)
	assert.Equal(t, domain.PaceBinge, got.WatchPace)
	assert.Equal(t, domain.CacheUncached, got.EpisodesCache)
	assert.Nil(t, got.PosterPath)
	assert.Nil(t, got.LastWatchedAt)

	require.Error(t, s.Shows().Insert(ctx, &domain.Show{TmdbID: 100, Title: "Lost", UserStatus: domain.StatusDone, Type: domain.MediaTV}))

	status, pace := domain.StatusDone, domain.PaceWeekly
	require.NoError(t, s.Shows().Update(ctx, 100, domain.ShowUpdate{UserStatus: &status, WatchPace: &pace}))
	require.NoError(t, s.Shows().SetEpisodesCache(ctx, 100, domain.CachePartial))

	got, err = s.Shows().FindByTmdbID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, got.UserStatus)
	assert.Equal(t, domain.PaceWeekly, got.WatchPace)
	assert.Equal(t, domain.CachePartial, got.EpisodesCache)

	err = s.Shows().SetCastCache(ctx, 999, domain.CachePopulated)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestShowListOrder(t *testing.T) {
	_, s := setupDB(t)
	ctx := t.Context()

	addShow(t, s, 1, "Zeta")
	addShow(t, s, 2, "Alpha")
	addShow(t, s, 3, "Older")
	addShow(t, s, 4, "Newer")

	require.NoError(t, s.Shows().SetLastWatched(ctx, 3, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, s.Shows().SetLastWatched(ctx, 4, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

	shows, err := s.Shows().List(ctx)
	require.NoError(t, err)

	var titles []string
	for _, show := range shows {
		titles = append(titles, show.Title)
	}
	assert.Equal(t, []string{"Newer", "Older", "Alpha", "Zeta"}, titles)

	status := domain.StatusDone
	require.NoError(t, s.Shows().Update(ctx, 1, domain.ShowUpdate{UserStatus: &status}))

	airing, err := s.Shows().ListByStatus(ctx, domain.StatusAiring)
	require.NoError(t, err)
	assert.Len(t, airing, 3)
}

func TestEpisodeInsertMissingIsIdempotent(t *testing.T) {
	_, s := setupDB(t)
	ctx := t.Context()

	show := addShow(t, s, 100, "Lost")

	inserted, err := s.Episodes().InsertMissing(ctx, episodes(show, 1, 3))
	require.NoError(t, err)
	assert.EqualValues(t, 3, inserted)

	inserted, err = s.Episodes().InsertMissing(ctx, episodes(show, 1, 4))
	require.NoError(t, err)
	assert.EqualValues(t, 1, inserted)

	total, watched, err := s.Episodes().Count(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Zero(t, watched)
}

func TestEpisodeInsertMissingBatches(t *testing.T) {
	_, s := setupDB(t)
	ctx := t.Context()

	show := addShow(t, s, 100, "Doctor Who")

	inserted, err := s.Episodes().InsertMissing(ctx, episodes(show, 1, insertBatchSize+20))
	require.NoError(t, err)
	assert.EqualValues(t, insertBatchSize+20, inserted)
}

func TestEpisodeSetWatched(t *testing.T) {
	_, s := setupDB(t)
	ctx := t.Context()

	show := addShow(t, s, 100, "Lost")
	_, err := s.Episodes().InsertMissing(ctx, append(episodes(show, 1, 2), episodes(show, 2, 2)...))
	require.NoError(t, err)

	first, err := s.Episodes().Find(ctx, 100, 1, 1)
	require.NoError(t, err)
	second, err := s.Episodes().Find(ctx, 100, 1, 2)
	require.NoError(t, err)

	n, err := s.Episodes().SetWatched(ctx, []int64{first.ID, second.ID}, true, ptr("2025-03-01"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	next, err := s.Episodes().NextUnwatched(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, next.SeasonNumber)
	assert.Equal(t, 1, next.EpisodeNumber)

	unwatched, err := s.Episodes().ListUnwatched(ctx, 100, ptr(1))
	require.NoError(t, err)
	assert.Empty(t, unwatched)

	_, err = s.Episodes().SetWatched(ctx, []int64{first.ID}, false, ptr("2025-03-01"))
	require.NoError(t, err)

	got, err := s.Episodes().Find(ctx, 100, 1, 1)
	require.NoError(t, err)
	assert.False(t, got.Watched)
	assert.Nil(t, got.WatchedAt)

	_, err = s.Episodes().Find(ctx, 100, 9, 9)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEpisodeNextUnwatchedNone(t *testing.T) {
	_, s := setupDB(t)

	addShow(t, s, 100, "Lost")

	next, err := s.Episodes().NextUnwatched(t.Context(), 100)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestEpisodeListByShows(t *testing.T) {
	_, s := setupDB(t)
	ctx := t.Context()

	a := addShow(t, s, 1, "A")
	b := addShow(t, s, 2, "B")
	addShow(t, s, 3, "C")
	_, err := s.Episodes().InsertMissing(ctx, append(episodes(a, 1, 2), episodes(b, 1, 1)...))
	require.NoError(t, err)

	byShow, err := s.Episodes().ListByShows(ctx, []int{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, byShow[1], 2)
	assert.Len(t, byShow[2], 1)
	assert.Empty(t, byShow[3])
}

func TestSeenInCountsAreDistinct(t *testing.T) {
	_, s := setupDB(t)
	ctx := t.Context()

	for _, id := range []int{100, 200} {
		show := addShow(t, s, id, "Show")
		_, err := s.Episodes().InsertMissing(ctx, episodes(show, 1, 2))
		require.NoError(t, err)
		eps, err := s.Episodes().ListByShow(ctx, id)
		require.NoError(t, err)
		_, err = s.Episodes().SetWatched(ctx, []int64{eps[0].ID, eps[1].ID}, true, nil)
		require.NoError(t, err)
	}

	require.NoError(t, s.People().InsertMissing(ctx, []*domain.Person{{TmdbID: 1, Name: "A"}, {TmdbID: 2, Name: "B"}}))
	_, err := s.People().InsertCredits(ctx, []*domain.PersonCredit{
		{PersonTmdbID: 1, ShowTmdbID: 100, Title: "Show", Type: domain.MediaTV},
		{PersonTmdbID: 1, ShowTmdbID: 200, Title: "Show", Type: domain.MediaTV},
		{PersonTmdbID: 1, ShowTmdbID: 300, Title: "Unwatched", Type: domain.MediaMovie},
		{PersonTmdbID: 2, ShowTmdbID: 100, Title: "Show", Type: domain.MediaTV},
	})
	require.NoError(t, err)

	counts, err := s.People().SeenInCounts(ctx, []int{1, 2, 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 2, 2: 1, 3: 0}, counts)

	counts, err = s.People().SeenInCounts(ctx, []int{1, 2}, ptr(100))
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 1, 2: 0}, counts)

	entries, err := s.People().SeenIn(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestInsertCreditsIgnoresDuplicates(t *testing.T) {
	_, s := setupDB(t)
	ctx := t.Context()

	require.NoError(t, s.People().InsertMissing(ctx, []*domain.Person{{TmdbID: 1, Name: "A"}}))
	require.NoError(t, s.People().InsertMissing(ctx, []*domain.Person{{TmdbID: 1, Name: "Renamed"}}))

	credit := &domain.PersonCredit{PersonTmdbID: 1, ShowTmdbID: 100, Title: "Show", Type: domain.MediaTV}
	n, err := s.People().InsertCredits(ctx, []*domain.PersonCredit{credit, credit})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	person, err := s.People().FindByTmdbID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "A", person.Name)
	assert.False(t, person.CreditsCached())

	uncached, err := s.People().ListUncached(ctx, []int{1})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, uncached)

	require.NoError(t, s.People().MarkCreditsCached(ctx, 1, time.Now()))

	uncached, err = s.People().ListUncached(ctx, []int{1})
	require.NoError(t, err)
	assert.Empty(t, uncached)

	require.ErrorIs(t, s.People().MarkCreditsCached(ctx, 2, time.Now()), domain.ErrNotFound)
}

func TestInTxRollsBack(t *testing.T) {
	_, s := setupDB(t)
	ctx := t.Context()

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx domain.Store) error {
		show := &domain.Show{TmdbID: 100, Title: "Lost", UserStatus: domain.StatusAiring, Type: domain.MediaTV}
		if err := tx.Shows().Insert(ctx, show); err != nil {
			return err
		}
		return tx.InTx(ctx, func(inner domain.Store) error {
			return boom
		})
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Shows().FindByTmdbID(ctx, 100)
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = s.InTx(ctx, func(tx domain.Store) error {
		return tx.Shows().Insert(context.Background(), &domain.Show{TmdbID: 100, Title: "Lost", UserStatus: domain.StatusAiring, Type: domain.MediaTV})
	})
	require.NoError(t, err)

	_, err = s.Shows().FindByTmdbID(ctx, 100)
	require.NoError(t, err)
}

func TestHistoryRecent(t *testing.T) {
	_, s := setupDB(t)
	ctx := t.Context()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.History().Append(ctx, []*domain.WatchEvent{
		{TmdbShowID: 1, SeasonNumber: 1, EpisodeNumber: 1, WatchedAt: ptr("2025-01-01"), RecordedAt: base},
		{TmdbShowID: 1, SeasonNumber: 1, EpisodeNumber: 2, RecordedAt: base.Add(time.Minute)},
	}))

	events, err := s.History().Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 2, events[0].EpisodeNumber)
	assert.Nil(t, events[0].WatchedAt)
	assert.Equal(t, ptr("2025-01-01"), events[1].WatchedAt)
	assert.True(t, base.Equal(events[1].RecordedAt))
}
