package importer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/whist/internal/cache"
	"github.com/varoOP/whist/internal/domain"
)

// Service replays a Trakt watched-shows export into the store. Re-running
// an import is safe: tracked shows are kept and watched episodes are left
// as they are.
type Service interface {
	Import(ctx context.Context, shows []domain.TraktWatchedShow) (domain.ImportStatistics, error)
}

type service struct {
	log     zerolog.Logger
	store   domain.Store
	catalog domain.Catalog
	cache   cache.Service
	now     func() time.Time
}

func NewService(log zerolog.Logger, store domain.Store, catalog domain.Catalog, cache cache.Service) Service {
	return &service{
		log:     log.With().Str("module", "importer").Logger(),
		store:   store,
		catalog: catalog,
		cache:   cache,
		now:     time.Now,
	}
}

type showResult struct {
	added   bool
	marked  int
	missing int
}

func (s *service) Import(ctx context.Context, shows []domain.TraktWatchedShow) (domain.ImportStatistics, error) {
	stats := domain.ImportStatistics{TotalShows: len(shows)}

	for i, entry := range shows {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		log := s.log.With().
			Str("title", entry.Show.Title).
			Int("tmdb_id", entry.Show.IDs.TMDB).
			Int("position", i+1).
			Int("total", len(shows)).
			Logger()

		if entry.Show.IDs.TMDB == 0 {
			log.Warn().Msg("no TMDB id, skipping")
			stats.SkippedShows++
			continue
		}

		res, err := s.importShow(ctx, entry)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			log.Warn().Err(err).Msg("import failed, skipping")
			stats.SkippedShows++
			continue
		}

		stats.ImportedShows++
		stats.EpisodesMarked += res.marked
		stats.MissingEpisodes += res.missing
		if res.added {
			stats.AddedShows++
		}

		log.Info().Bool("added", res.added).Int("marked", res.marked).Int("missing", res.missing).Msg("imported show")
	}

	return stats, nil
}

func (s *service) importShow(ctx context.Context, entry domain.TraktWatchedShow) (showResult, error) {
	var res showResult
	tmdbID := entry.Show.IDs.TMDB

	var lastWatched *time.Time
	show, err := s.store.Shows().FindByTmdbID(ctx, tmdbID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if show, err = s.addShow(ctx, entry); err != nil {
			return res, err
		}
		res.added = true
	case err != nil:
		return res, err
	case entry.LastWatchedAt != nil && (show.LastWatchedAt == nil || entry.LastWatchedAt.After(*show.LastWatchedAt)):
		lastWatched = entry.LastWatchedAt
	}

	if err := s.cache.EnsureEpisodes(ctx, show); err != nil {
		return res, err
	}

	cached, err := s.store.Episodes().ListByShow(ctx, tmdbID)
	if err != nil {
		return res, err
	}
	type key struct{ season, episode int }
	byKey := make(map[key]*domain.Episode, len(cached))
	for _, e := range cached {
		byKey[key{e.SeasonNumber, e.EpisodeNumber}] = e
	}

	// SetWatched takes one date per call, so group by day
	var order []string
	byDate := map[string][]int64{}
	var events []*domain.WatchEvent
	recordedAt := s.now().UTC()

	for _, season := range entry.Seasons {
		for _, ep := range season.Episodes {
			e, ok := byKey[key{season.Number, ep.Number}]
			if !ok {
				res.missing++
				continue
			}
			if e.Watched {
				continue
			}

			var watchedAt *string
			if ep.LastWatchedAt != nil {
				day := ep.LastWatchedAt.UTC().Format(time.DateOnly)
				watchedAt = &day
			}

			date := ""
			if watchedAt != nil {
				date = *watchedAt
			}
			if _, seen := byDate[date]; !seen {
				order = append(order, date)
			}
			byDate[date] = append(byDate[date], e.ID)

			events = append(events, &domain.WatchEvent{
				TmdbShowID:    tmdbID,
				SeasonNumber:  season.Number,
				EpisodeNumber: ep.Number,
				WatchedAt:     watchedAt,
				RecordedAt:    recordedAt,
			})
		}
	}

	if len(events) == 0 && lastWatched == nil {
		return res, nil
	}

	err = s.store.InTx(ctx, func(tx domain.Store) error {
		if lastWatched != nil {
			if err := tx.Shows().SetLastWatched(ctx, tmdbID, *lastWatched); err != nil {
				return errors.Wrap(err, "failed to update last watched")
			}
		}
		if len(events) == 0 {
			return nil
		}
		for _, date := range order {
			var watchedAt *string
			if date != "" {
				watchedAt = &date
			}
			if _, err := tx.Episodes().SetWatched(ctx, byDate[date], true, watchedAt); err != nil {
				return errors.Wrap(err, "failed to mark episodes watched")
			}
		}
		return tx.History().Append(ctx, events)
	})
	if err != nil {
		return res, err
	}
	res.marked = len(events)

	return res, nil
}

// addShow tracks a show from the export. Shows the catalog still lists as
// running start as airing, everything else as done.
func (s *service) addShow(ctx context.Context, entry domain.TraktWatchedShow) (*domain.Show, error) {
	details, err := s.catalog.GetShow(ctx, entry.Show.IDs.TMDB)
	if err != nil {
		return nil, domain.Unavailable(err, "failed to fetch show %d", entry.Show.IDs.TMDB)
	}

	status := domain.StatusDone
	if details.Active() {
		status = domain.StatusAiring
	}

	title := details.Name
	if title == "" {
		title = entry.Show.Title
	}

	show := &domain.Show{
		TmdbID:        entry.Show.IDs.TMDB,
		Title:         title,
		PosterPath:    details.PosterPath,
		UserStatus:    status,
		Type:          domain.MediaTV,
		AddedAt:       s.now().UTC(),
		LastWatchedAt: entry.LastWatchedAt,
	}
	if err := s.store.Shows().Insert(ctx, show); err != nil {
		return nil, errors.Wrap(err, "failed to add show")
	}

	return show, nil
}
