package schedule

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/whist/internal/domain"
)

type Service interface {
	Today(ctx context.Context) (*domain.Schedule, error)
}

type service struct {
	log   zerolog.Logger
	store domain.Store
	now   func() time.Time
}

func NewService(log zerolog.Logger, store domain.Store) Service {
	return &service{
		log:   log.With().Str("module", "schedule").Logger(),
		store: store,
		now:   time.Now,
	}
}

// Today ranks the airing and binging shows from cached data only.
func (s *service) Today(ctx context.Context) (*domain.Schedule, error) {
	shows, err := s.store.Shows().ListByStatus(ctx, domain.StatusAiring, domain.StatusBinging)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list shows")
	}

	ids := make([]int, 0, len(shows))
	for _, show := range shows {
		ids = append(ids, show.TmdbID)
	}

	episodes, err := s.store.Episodes().ListByShows(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list episodes")
	}

	input := make([]ShowEpisodes, 0, len(shows))
	for _, show := range shows {
		input = append(input, ShowEpisodes{Show: show, Episodes: episodes[show.TmdbID]})
	}

	items := Rank(s.now(), input)

	s.log.Debug().Int("shows", len(shows)).Int("items", len(items)).Msg("ranked schedule")

	return &domain.Schedule{Items: items}, nil
}
