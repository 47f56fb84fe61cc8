// Package testutil holds fixtures shared by package tests: a throwaway
// SQLite store and an in-memory catalog.
package testutil

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/whist/internal/database"
	"github.com/varoOP/whist/internal/domain"
)

// NewStore opens a migrated database in a temp dir.
func NewStore(t *testing.T) *database.Store {
	t.Helper()

	db, err := database.NewDB(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return database.NewStore(zerolog.Nop(), db)
}

// AddShow tracks a tv show with the given status.
func AddShow(t *testing.T, store domain.Store, tmdbID int, title string, status domain.ShowStatus) *domain.Show {
	t.Helper()

	show := &domain.Show{
		TmdbID:     tmdbID,
		Title:      title,
		UserStatus: status,
		Type:       domain.MediaTV,
		AddedAt:    time.Now(),
	}
	require.NoError(t, store.Shows().Insert(t.Context(), show))

	return show
}

// AddEpisodes caches episodes 1..len(airDates) of a season. An empty air
// date is stored as unknown.
func AddEpisodes(t *testing.T, store domain.Store, show *domain.Show, season int, airDates ...string) {
	t.Helper()

	episodes := make([]*domain.Episode, 0, len(airDates))
	for i, d := range airDates {
		e := &domain.Episode{
			ShowID:        show.ID,
			TmdbShowID:    show.TmdbID,
			SeasonNumber:  season,
			EpisodeNumber: i + 1,
		}
		if d != "" {
			e.AirDate = Ptr(d)
		}
		episodes = append(episodes, e)
	}

	_, err := store.Episodes().InsertMissing(t.Context(), episodes)
	require.NoError(t, err)
}

// Watch marks the listed episodes of one season watched.
func Watch(t *testing.T, store domain.Store, tmdbShowID, season int, episodes ...int) {
	t.Helper()

	ids := make([]int64, 0, len(episodes))
	for _, n := range episodes {
		e, err := store.Episodes().Find(t.Context(), tmdbShowID, season, n)
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}

	_, err := store.Episodes().SetWatched(t.Context(), ids, true, Ptr("2024-01-01"))
	require.NoError(t, err)
}

func Ptr[T any](v T) *T {
	return &v
}
