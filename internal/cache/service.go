package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"github.com/varoOP/whist/internal/domain"
)

// maxSeasonFetches bounds concurrent season requests for one show.
const maxSeasonFetches = 4

// Service lazily copies catalog data into the local store. Every Ensure*
// call is a no-op once its cache marker is set, and safe to repeat when a
// previous attempt failed part way.
type Service interface {
	EnsureEpisodes(ctx context.Context, show *domain.Show) error
	EnsureCast(ctx context.Context, show *domain.Show) error
	EnsurePersonCredits(ctx context.Context, person *domain.Person) error
	EnsurePeopleCredits(ctx context.Context, personIDs []int) error
	EnsureEpisodeCast(ctx context.Context, show *domain.Show, season, episode int) (*domain.CatalogEpisodeCredits, error)
}

type service struct {
	log     zerolog.Logger
	store   domain.Store
	catalog domain.Catalog
	now     func() time.Time
}

func NewService(log zerolog.Logger, store domain.Store, catalog domain.Catalog) Service {
	return &service{
		log:     log.With().Str("module", "cache").Logger(),
		store:   store,
		catalog: catalog,
		now:     time.Now,
	}
}

func (s *service) EnsureEpisodes(ctx context.Context, show *domain.Show) error {
	if show.EpisodesCache == domain.CachePopulated {
		return nil
	}

	details, err := s.catalog.GetShow(ctx, show.TmdbID)
	if err != nil {
		return domain.Unavailable(err, "failed to fetch show %d", show.TmdbID)
	}

	var numbers []int
	for _, season := range details.Seasons {
		// season 0 holds specials
		if season.SeasonNumber > 0 {
			numbers = append(numbers, season.SeasonNumber)
		}
	}

	seasons := make([]*domain.CatalogSeason, len(numbers))
	p := pool.New().WithMaxGoroutines(maxSeasonFetches)
	for i, n := range numbers {
		p.Go(func() {
			season, err := s.catalog.GetSeason(ctx, show.TmdbID, n)
			if err != nil {
				s.log.Warn().Err(err).Int("tmdb_id", show.TmdbID).Int("season", n).Msg("failed to fetch season, skipping")
				return
			}
			seasons[i] = season
		})
	}
	p.Wait()

	state := domain.CachePopulated
	var episodes []*domain.Episode
	for i, season := range seasons {
		if season == nil {
			state = domain.CachePartial
			continue
		}
		episodes = append(episodes, toEpisodes(show, numbers[i], season)...)
	}

	var inserted int64
	err = s.store.InTx(ctx, func(tx domain.Store) error {
		var err error
		if inserted, err = tx.Episodes().InsertMissing(ctx, episodes); err != nil {
			return errors.Wrap(err, "failed to insert episodes")
		}
		return tx.Shows().SetEpisodesCache(ctx, show.TmdbID, state)
	})
	if err != nil {
		return err
	}
	show.EpisodesCache = state

	s.log.Debug().
		Int("tmdb_id", show.TmdbID).
		Int("seasons", len(numbers)).
		Int64("inserted", inserted).
		Str("state", string(state)).
		Msg("cached episodes")

	return nil
}

func toEpisodes(show *domain.Show, number int, season *domain.CatalogSeason) []*domain.Episode {
	episodes := make([]*domain.Episode, 0, len(season.Episodes))
	for _, ep := range season.Episodes {
		if ep.EpisodeNumber == nil {
			continue
		}

		e := &domain.Episode{
			ShowID:        show.ID,
			TmdbShowID:    show.TmdbID,
			SeasonNumber:  number,
			EpisodeNumber: *ep.EpisodeNumber,
		}
		if ep.Name != "" {
			name := ep.Name
			e.Title = &name
		}
		if ep.AirDate != nil && *ep.AirDate != "" {
			e.AirDate = ep.AirDate
		}
		episodes = append(episodes, e)
	}
	return episodes
}

func (s *service) EnsureCast(ctx context.Context, show *domain.Show) error {
	if show.CastCache == domain.CachePopulated {
		return nil
	}

	credits, err := s.catalog.GetShowCredits(ctx, show.TmdbID)
	if err != nil {
		return domain.Unavailable(err, "failed to fetch cast of show %d", show.TmdbID)
	}

	people := toPeople(credits.Cast)
	cast := make([]*domain.ShowCast, 0, len(credits.Cast))
	for _, m := range credits.Cast {
		if m.ID == 0 {
			continue
		}
		order := 999
		if m.Order != nil {
			order = *m.Order
		}
		cast = append(cast, &domain.ShowCast{
			ShowTmdbID:   show.TmdbID,
			PersonTmdbID: m.ID,
			Character:    m.Character,
			Order:        order,
		})
	}

	err = s.store.InTx(ctx, func(tx domain.Store) error {
		if err := tx.People().InsertMissing(ctx, people); err != nil {
			return errors.Wrap(err, "failed to insert people")
		}
		if _, err := tx.Cast().InsertMissing(ctx, cast); err != nil {
			return errors.Wrap(err, "failed to insert cast")
		}
		return tx.Shows().SetCastCache(ctx, show.TmdbID, domain.CachePopulated)
	})
	if err != nil {
		return err
	}
	show.CastCache = domain.CachePopulated

	return nil
}

func toPeople(members ...[]domain.CatalogCastMember) []*domain.Person {
	var people []*domain.Person
	for _, group := range members {
		for _, m := range group {
			if m.ID == 0 {
				continue
			}
			name := m.Name
			if name == "" {
				name = "Unknown"
			}
			people = append(people, &domain.Person{TmdbID: m.ID, Name: name, ProfilePath: m.ProfilePath})
		}
	}
	return people
}

// toCredits keeps tv and movie entries that carry an id.
func toCredits(personID int, credits *domain.CatalogPersonCredits) []*domain.PersonCredit {
	rows := make([]*domain.PersonCredit, 0, len(credits.Cast))
	for _, c := range credits.Cast {
		if c.ID == 0 {
			continue
		}
		mediaType := domain.MediaType(c.MediaType)
		if mediaType == "" {
			mediaType = domain.MediaTV
		}
		if mediaType != domain.MediaTV && mediaType != domain.MediaMovie {
			continue
		}
		rows = append(rows, &domain.PersonCredit{
			PersonTmdbID: personID,
			ShowTmdbID:   c.ID,
			Title:        c.DisplayTitle(),
			Character:    c.Character,
			Type:         mediaType,
		})
	}
	return rows
}

// storeCredits writes a filmography and then its marker in one transaction.
func (s *service) storeCredits(ctx context.Context, personID int, credits *domain.CatalogPersonCredits) (time.Time, error) {
	at := s.now()
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		if _, err := tx.People().InsertCredits(ctx, toCredits(personID, credits)); err != nil {
			return errors.Wrap(err, "failed to insert credits")
		}
		return tx.People().MarkCreditsCached(ctx, personID, at)
	})
	return at, err
}

func (s *service) EnsurePersonCredits(ctx context.Context, person *domain.Person) error {
	if person.CreditsCached() {
		return nil
	}

	credits, err := s.catalog.GetPersonCredits(ctx, person.TmdbID)
	if err != nil {
		return domain.Unavailable(err, "failed to fetch credits of person %d", person.TmdbID)
	}

	at, err := s.storeCredits(ctx, person.TmdbID, credits)
	if err != nil {
		return err
	}
	person.CreditsCachedAt = &at

	return nil
}

// EnsurePeopleCredits caches the filmographies of every listed person that
// has none yet. Fetches run concurrently; a failed fetch or write only skips
// that person.
func (s *service) EnsurePeopleCredits(ctx context.Context, personIDs []int) error {
	uncached, err := s.store.People().ListUncached(ctx, personIDs)
	if err != nil {
		return errors.Wrap(err, "failed to list uncached people")
	}
	if len(uncached) == 0 {
		return nil
	}

	results := make([]*domain.CatalogPersonCredits, len(uncached))
	p := pool.New().WithMaxGoroutines(len(uncached))
	for i, id := range uncached {
		p.Go(func() {
			credits, err := s.catalog.GetPersonCredits(ctx, id)
			if err != nil {
				s.log.Warn().Err(err).Int("person_id", id).Msg("failed to fetch person credits, skipping")
				return
			}
			results[i] = credits
		})
	}
	p.Wait()

	// one writer at a time keeps SQLite from contending with itself
	cached := 0
	for i, credits := range results {
		if credits == nil {
			continue
		}
		if _, err := s.storeCredits(ctx, uncached[i], credits); err != nil {
			s.log.Warn().Err(err).Int("person_id", uncached[i]).Msg("failed to store person credits, skipping")
			continue
		}
		cached++
	}

	s.log.Debug().Int("requested", len(uncached)).Int("cached", cached).Msg("cached people credits")

	return nil
}

// EnsureEpisodeCast fetches an episode's cast and guest stars, stores the
// people and pre-caches their filmographies. The credits are returned as
// fetched.
func (s *service) EnsureEpisodeCast(ctx context.Context, show *domain.Show, season, episode int) (*domain.CatalogEpisodeCredits, error) {
	credits, err := s.catalog.GetEpisodeCredits(ctx, show.TmdbID, season, episode)
	if err != nil {
		return nil, domain.Unavailable(err, "failed to fetch credits of S%02dE%02d of show %d", season, episode, show.TmdbID)
	}

	people := toPeople(credits.Cast, credits.GuestStars)
	err = s.store.InTx(ctx, func(tx domain.Store) error {
		return tx.People().InsertMissing(ctx, people)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert people")
	}

	ids := make([]int, 0, len(people))
	for _, p := range people {
		ids = append(ids, p.TmdbID)
	}
	if err := s.EnsurePeopleCredits(ctx, ids); err != nil {
		return nil, err
	}

	return credits, nil
}
