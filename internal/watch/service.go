package watch

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/whist/internal/domain"
)

// Today is the watched_at value that resolves to the current local date.
const Today = "today"

// Service records watched state. It never fetches from the catalog: episodes
// must already be cached.
type Service interface {
	SetEpisodeWatched(ctx context.Context, tmdbShowID, season, episode int, watched bool, watchedAt *string) (*domain.Episode, error)
	BulkSetWatched(ctx context.Context, tmdbShowID int, season *int, watchedAt *string) (int, error)
}

type service struct {
	log   zerolog.Logger
	store domain.Store
	now   func() time.Time
}

func NewService(log zerolog.Logger, store domain.Store) Service {
	return &service{
		log:   log.With().Str("module", "watch").Logger(),
		store: store,
		now:   time.Now,
	}
}

// ResolveWatchedAt applies the date policy: "today" becomes the local date
// of now, nil or empty means no date, anything else is kept as given.
func ResolveWatchedAt(watchedAt *string, now time.Time) *string {
	if watchedAt == nil || *watchedAt == "" {
		return nil
	}
	if *watchedAt == Today {
		d := now.Format(time.DateOnly)
		return &d
	}
	v := *watchedAt
	return &v
}

func (s *service) SetEpisodeWatched(ctx context.Context, tmdbShowID, season, episode int, watched bool, watchedAt *string) (*domain.Episode, error) {
	now := s.now()

	var at *string
	if watched {
		at = ResolveWatchedAt(watchedAt, now)
	}

	var ep *domain.Episode
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		var err error
		ep, err = tx.Episodes().Find(ctx, tmdbShowID, season, episode)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errors.Wrap(err, "open the Episodes panel first to cache them")
			}
			return err
		}

		if _, err := tx.Episodes().SetWatched(ctx, []int64{ep.ID}, watched, at); err != nil {
			return errors.Wrap(err, "failed to update episode")
		}
		ep.Watched = watched
		ep.WatchedAt = at

		if !watched {
			return nil
		}

		if err := tx.Shows().SetLastWatched(ctx, tmdbShowID, now); err != nil {
			return errors.Wrap(err, "failed to update last watched")
		}

		return tx.History().Append(ctx, []*domain.WatchEvent{{
			TmdbShowID:    tmdbShowID,
			SeasonNumber:  season,
			EpisodeNumber: episode,
			WatchedAt:     at,
			RecordedAt:    now,
		}})
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Int("tmdb_id", tmdbShowID).
		Int("season", season).
		Int("episode", episode).
		Bool("watched", watched).
		Msg("episode watch state updated")

	return ep, nil
}

// BulkSetWatched marks every unwatched episode of a show, or of one season,
// watched. The show's last_watched_at is touched once, and only when at
// least one episode changed.
func (s *service) BulkSetWatched(ctx context.Context, tmdbShowID int, season *int, watchedAt *string) (int, error) {
	now := s.now()
	at := ResolveWatchedAt(watchedAt, now)

	var marked int
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		episodes, err := tx.Episodes().ListUnwatched(ctx, tmdbShowID, season)
		if err != nil {
			return errors.Wrap(err, "failed to list unwatched episodes")
		}
		if len(episodes) == 0 {
			return nil
		}

		ids := make([]int64, 0, len(episodes))
		events := make([]*domain.WatchEvent, 0, len(episodes))
		for _, e := range episodes {
			ids = append(ids, e.ID)
			events = append(events, &domain.WatchEvent{
				TmdbShowID:    e.TmdbShowID,
				SeasonNumber:  e.SeasonNumber,
				EpisodeNumber: e.EpisodeNumber,
				WatchedAt:     at,
				RecordedAt:    now,
			})
		}

		n, err := tx.Episodes().SetWatched(ctx, ids, true, at)
		if err != nil {
			return errors.Wrap(err, "failed to update episodes")
		}
		marked = int(n)

		if err := tx.Shows().SetLastWatched(ctx, tmdbShowID, now); err != nil {
			return errors.Wrap(err, "failed to update last watched")
		}

		return tx.History().Append(ctx, events)
	})
	if err != nil {
		return 0, err
	}

	s.log.Debug().Int("tmdb_id", tmdbShowID).Int("marked", marked).Msg("bulk marked watched")

	return marked, nil
}
