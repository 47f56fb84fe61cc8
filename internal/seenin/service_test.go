package seenin

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/whist/internal/cache"
	"github.com/varoOP/whist/internal/domain"
	"github.com/varoOP/whist/internal/testutil"
)

func setup(t *testing.T) (*testutil.Catalog, domain.Store, Service) {
	t.Helper()
	catalog := testutil.NewCatalog()
	store := testutil.NewStore(t)
	populator := cache.NewService(zerolog.Nop(), store, catalog)
	return catalog, store, NewService(zerolog.Nop(), store, populator)
}

func addPerson(t *testing.T, store domain.Store, id int, name string) {
	t.Helper()
	require.NoError(t, store.People().InsertMissing(t.Context(), []*domain.Person{{TmdbID: id, Name: name}}))
}

func TestSeenInOnlyWatchedShows(t *testing.T) {
	catalog, store, svc := setup(t)

	watched := testutil.AddShow(t, store, 100, "Slow Horses", domain.StatusBinging)
	testutil.AddEpisodes(t, store, watched, 1, "2022-04-01", "2022-04-08")
	testutil.Watch(t, store, 100, 1, 1)

	unwatched := testutil.AddShow(t, store, 200, "Tracked But Unwatched", domain.StatusCaughtUp)
	testutil.AddEpisodes(t, store, unwatched, 1, "2020-01-01")

	addPerson(t, store, 42, "Gary Oldman")
	catalog.PersonCredits[42] = &domain.CatalogPersonCredits{Cast: []domain.CatalogPersonCredit{
		{ID: 100, Name: "Slow Horses", Character: "Jackson Lamb", MediaType: "tv"},
		{ID: 200, Name: "Tracked But Unwatched", MediaType: "tv"},
		{ID: 300, Title: "Darkest Hour", MediaType: "movie"},
	}}

	result, err := svc.SeenIn(t.Context(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Gary Oldman", result.Person.Name)
	require.Len(t, result.SeenIn, 1)
	assert.Equal(t, 100, result.SeenIn[0].TmdbID)
	assert.Equal(t, "Jackson Lamb", result.SeenIn[0].Character)
	assert.Equal(t, domain.MediaTV, result.SeenIn[0].Type)

	// credits are cached after the first call
	_, err = svc.SeenIn(t.Context(), 42)
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.Calls("GetPersonCredits"))
}

func TestSeenInShowWithoutPoster(t *testing.T) {
	catalog, store, svc := setup(t)

	show := testutil.AddShow(t, store, 100, "Slow Horses", domain.StatusBinging)
	testutil.AddEpisodes(t, store, show, 1, "2022-04-01")
	testutil.Watch(t, store, 100, 1, 1)

	addPerson(t, store, 42, "Gary Oldman")
	catalog.PersonCredits[42] = &domain.CatalogPersonCredits{Cast: []domain.CatalogPersonCredit{
		{ID: 100, Name: "Slow Horses", MediaType: "tv"},
	}}

	result, err := svc.SeenIn(t.Context(), 42)
	require.NoError(t, err)
	require.Len(t, result.SeenIn, 1)
	assert.Nil(t, result.SeenIn[0].PosterPath)
}

func TestSeenInUnknownPerson(t *testing.T) {
	catalog, _, svc := setup(t)

	_, err := svc.SeenIn(t.Context(), 42)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, catalog.Calls("GetPersonCredits"))
}

func TestSeenInUpstreamFailure(t *testing.T) {
	catalog, store, svc := setup(t)
	addPerson(t, store, 42, "Gary Oldman")
	catalog.Fail(testutil.PersonKey(42))

	_, err := svc.SeenIn(t.Context(), 42)
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestSeenInCountsDistinctWithExclusion(t *testing.T) {
	_, store, svc := setup(t)

	for i, id := range []int{100, 200, 300} {
		show := testutil.AddShow(t, store, id, "Show", domain.StatusBinging)
		testutil.AddEpisodes(t, store, show, 1, "2022-01-01", "2022-01-08")
		if i < 2 {
			testutil.Watch(t, store, id, 1, 1, 2)
		}
	}

	addPerson(t, store, 1, "Both Watched")
	addPerson(t, store, 2, "One Watched")
	addPerson(t, store, 3, "Nothing")
	_, err := store.People().InsertCredits(t.Context(), []*domain.PersonCredit{
		{PersonTmdbID: 1, ShowTmdbID: 100, Title: "A", Type: domain.MediaTV},
		{PersonTmdbID: 1, ShowTmdbID: 200, Title: "B", Type: domain.MediaTV},
		{PersonTmdbID: 1, ShowTmdbID: 300, Title: "C", Type: domain.MediaTV},
		{PersonTmdbID: 2, ShowTmdbID: 200, Title: "B", Type: domain.MediaTV},
		{PersonTmdbID: 3, ShowTmdbID: 300, Title: "C", Type: domain.MediaTV},
	})
	require.NoError(t, err)

	counts, err := svc.SeenInCounts(t.Context(), []int{1, 2, 3, 4}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 2, 2: 1, 3: 0, 4: 0}, counts)

	counts, err = svc.SeenInCounts(t.Context(), []int{1, 2, 3}, testutil.Ptr(200))
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 1, 2: 0, 3: 0}, counts)
}
