package seenin

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/whist/internal/cache"
	"github.com/varoOP/whist/internal/domain"
)

// Service intersects filmographies with the set of watched shows. A show is
// watched once any of its episodes is.
type Service interface {
	SeenIn(ctx context.Context, personID int) (*domain.SeenIn, error)
	SeenInCounts(ctx context.Context, personIDs []int, excludeShowID *int) (map[int]int, error)
}

type service struct {
	log   zerolog.Logger
	store domain.Store
	cache cache.Service
}

func NewService(log zerolog.Logger, store domain.Store, cache cache.Service) Service {
	return &service{
		log:   log.With().Str("module", "seenin").Logger(),
		store: store,
		cache: cache,
	}
}

// SeenIn caches the person's filmography if needed and returns the credits
// that fall in watched shows, ordered by title.
func (s *service) SeenIn(ctx context.Context, personID int) (*domain.SeenIn, error) {
	person, err := s.store.People().FindByTmdbID(ctx, personID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errors.Wrap(err, "open a show's Cast panel first")
		}
		return nil, err
	}

	if err := s.cache.EnsurePersonCredits(ctx, person); err != nil {
		return nil, err
	}

	entries, err := s.store.People().SeenIn(ctx, personID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve seen-in")
	}

	s.log.Trace().Int("person_id", personID).Int("matches", len(entries)).Msg("resolved seen-in")

	return &domain.SeenIn{Person: person, SeenIn: entries}, nil
}

// SeenInCounts reads cached credits only. Every requested person gets an
// entry, zero when nothing matches.
func (s *service) SeenInCounts(ctx context.Context, personIDs []int, excludeShowID *int) (map[int]int, error) {
	counts, err := s.store.People().SeenInCounts(ctx, personIDs, excludeShowID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count seen-in")
	}
	return counts, nil
}
