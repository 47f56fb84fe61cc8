package library

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/whist/internal/cache"
	"github.com/varoOP/whist/internal/dedupe"
	"github.com/varoOP/whist/internal/domain"
	"github.com/varoOP/whist/internal/seenin"
)

const (
	DefaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Service serves the show, season and people views. Reads go through the
// cache populator so the first visit to a show fills the store.
type Service interface {
	ListShows(ctx context.Context) ([]*domain.Show, error)
	AddShow(ctx context.Context, tmdbID int, status, mediaType string) (*domain.Show, error)
	UpdateShow(ctx context.Context, tmdbID int, status, pace *string) (*domain.Show, error)
	ShowDetail(ctx context.Context, tmdbID int) (*domain.ShowDetail, error)
	Episodes(ctx context.Context, tmdbID int) ([]*domain.Episode, error)
	Season(ctx context.Context, tmdbID, season int) (*domain.SeasonView, error)
	Progress(ctx context.Context, tmdbID int) (*domain.Progress, error)
	ShowCast(ctx context.Context, tmdbID int) ([]*domain.CastMember, error)
	PersonCredits(ctx context.Context, personID int) (*domain.Filmography, error)
	EpisodeCast(ctx context.Context, tmdbID, season, episode int) ([]*domain.CastMember, error)
	Search(ctx context.Context, query string) ([]domain.CatalogSearchResult, error)
	History(ctx context.Context, limit int) ([]*domain.WatchEvent, error)
}

type service struct {
	log     zerolog.Logger
	store   domain.Store
	catalog domain.Catalog
	cache   cache.Service
	seenIn  seenin.Service
	now     func() time.Time
}

func NewService(log zerolog.Logger, store domain.Store, catalog domain.Catalog, cache cache.Service, seenIn seenin.Service) Service {
	return &service{
		log:     log.With().Str("module", "library").Logger(),
		store:   store,
		catalog: catalog,
		cache:   cache,
		seenIn:  seenIn,
		now:     time.Now,
	}
}

func (s *service) ListShows(ctx context.Context) ([]*domain.Show, error) {
	shows, err := s.store.Shows().List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list shows")
	}
	return shows, nil
}

// AddShow tracks a catalog title. Adding a tracked title returns the
// existing row untouched.
func (s *service) AddShow(ctx context.Context, tmdbID int, status, mediaType string) (*domain.Show, error) {
	userStatus, err := domain.ParseShowStatus(status)
	if err != nil {
		return nil, err
	}
	kind, err := domain.ParseMediaType(mediaType)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.Shows().FindByTmdbID(ctx, tmdbID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	show := &domain.Show{
		TmdbID:     tmdbID,
		UserStatus: userStatus,
		Type:       kind,
		AddedAt:    s.now().UTC(),
	}

	switch kind {
	case domain.MediaMovie:
		movie, err := s.catalog.GetMovie(ctx, tmdbID)
		if err != nil {
			return nil, domain.Unavailable(err, "failed to fetch movie %d", tmdbID)
		}
		show.Title = movie.Title
		show.PosterPath = movie.PosterPath
	default:
		details, err := s.catalog.GetShow(ctx, tmdbID)
		if err != nil {
			return nil, domain.Unavailable(err, "failed to fetch show %d", tmdbID)
		}
		show.Title = details.Name
		show.PosterPath = details.PosterPath
	}
	if show.Title == "" {
		show.Title = "Unknown"
	}

	if err := s.store.Shows().Insert(ctx, show); err != nil {
		// lost a race with another add of the same title
		if existing, findErr := s.store.Shows().FindByTmdbID(ctx, tmdbID); findErr == nil {
			return existing, nil
		}
		return nil, errors.Wrap(err, "failed to add show")
	}

	s.log.Info().Int("tmdb_id", tmdbID).Str("title", show.Title).Str("status", string(userStatus)).Msg("added show")

	return show, nil
}

func (s *service) UpdateShow(ctx context.Context, tmdbID int, status, pace *string) (*domain.Show, error) {
	var update domain.ShowUpdate
	if status != nil {
		st, err := domain.ParseShowStatus(*status)
		if err != nil {
			return nil, err
		}
		update.UserStatus = &st
	}
	if pace != nil {
		p, err := domain.ParseWatchPace(*pace)
		if err != nil {
			return nil, err
		}
		update.WatchPace = &p
	}

	if err := s.store.Shows().Update(ctx, tmdbID, update); err != nil {
		return nil, err
	}

	return s.store.Shows().FindByTmdbID(ctx, tmdbID)
}

// ShowDetail works for untracked titles too; Tracked tells them apart.
func (s *service) ShowDetail(ctx context.Context, tmdbID int) (*domain.ShowDetail, error) {
	details, err := s.catalog.GetShow(ctx, tmdbID)
	if err != nil {
		return nil, domain.Unavailable(err, "failed to fetch show %d", tmdbID)
	}

	detail := &domain.ShowDetail{
		TmdbID:       details.ID,
		Name:         details.Name,
		PosterPath:   details.PosterPath,
		BackdropPath: details.BackdropPath,
		Overview:     details.Overview,
		FirstAirDate: details.FirstAirDate,
		LastAirDate:  details.LastAirDate,
		Status:       details.Status,
		Networks:     make([]string, 0, len(details.Networks)),
		Seasons:      details.Seasons,
		Providers:    []domain.ProviderBrand{},
	}
	if detail.TmdbID == 0 {
		detail.TmdbID = tmdbID
	}
	if detail.Seasons == nil {
		detail.Seasons = []domain.CatalogSeasonSummary{}
	}
	for _, n := range details.Networks {
		detail.Networks = append(detail.Networks, n.Name)
	}

	providers, err := s.catalog.GetWatchProviders(ctx, tmdbID)
	if err != nil {
		s.log.Warn().Err(err).Int("tmdb_id", tmdbID).Msg("failed to fetch watch providers")
	} else {
		detail.Providers = dedupe.Brands(providers)
	}

	show, err := s.store.Shows().FindByTmdbID(ctx, tmdbID)
	switch {
	case err == nil:
		detail.Tracked = true
		detail.UserStatus = &show.UserStatus
		detail.WatchPace = &show.WatchPace
		detail.LastWatchedAt = show.LastWatchedAt
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	return detail, nil
}

func (s *service) Episodes(ctx context.Context, tmdbID int) ([]*domain.Episode, error) {
	show, err := s.store.Shows().FindByTmdbID(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.EnsureEpisodes(ctx, show); err != nil {
		return nil, err
	}

	return s.store.Episodes().ListByShow(ctx, tmdbID)
}

// Season merges live season metadata with the cached watch flags.
func (s *service) Season(ctx context.Context, tmdbID, season int) (*domain.SeasonView, error) {
	show, err := s.store.Shows().FindByTmdbID(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.EnsureEpisodes(ctx, show); err != nil {
		return nil, err
	}

	data, err := s.catalog.GetSeason(ctx, tmdbID, season)
	if err != nil {
		return nil, domain.Unavailable(err, "failed to fetch season %d of show %d", season, tmdbID)
	}

	local, err := s.store.Episodes().ListBySeason(ctx, tmdbID, season)
	if err != nil {
		return nil, err
	}
	byNumber := make(map[int]*domain.Episode, len(local))
	for _, e := range local {
		byNumber[e.EpisodeNumber] = e
	}

	view := &domain.SeasonView{
		TmdbShowID:   tmdbID,
		SeasonNumber: season,
		Name:         data.Name,
		PosterPath:   data.PosterPath,
		Overview:     data.Overview,
		Episodes:     make([]domain.SeasonEpisodeView, 0, len(data.Episodes)),
	}
	if data.AirDate != nil && len(*data.AirDate) >= 4 {
		view.AirYear = (*data.AirDate)[:4]
	}

	for _, ep := range data.Episodes {
		v := domain.SeasonEpisodeView{
			EpisodeNumber: ep.EpisodeNumber,
			Title:         ep.Name,
			AirDate:       ep.AirDate,
			Overview:      ep.Overview,
			StillPath:     ep.StillPath,
		}
		if ep.EpisodeNumber != nil {
			if e, ok := byNumber[*ep.EpisodeNumber]; ok {
				v.Watched = e.Watched
				v.WatchedAt = e.WatchedAt
			}
		}
		view.Episodes = append(view.Episodes, v)
	}

	return view, nil
}

// Progress reads cached episodes only.
func (s *service) Progress(ctx context.Context, tmdbID int) (*domain.Progress, error) {
	if _, err := s.store.Shows().FindByTmdbID(ctx, tmdbID); err != nil {
		return nil, err
	}

	total, watched, err := s.store.Episodes().Count(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	progress := &domain.Progress{
		TmdbShowID: tmdbID,
		Total:      total,
		Watched:    watched,
	}
	if total > 0 {
		progress.Percent = math.Round(float64(watched)/float64(total)*1000) / 10
	}

	next, err := s.store.Episodes().NextUnwatched(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	if next != nil {
		progress.NextUnwatched = &domain.EpisodeRef{
			SeasonNumber:  next.SeasonNumber,
			EpisodeNumber: next.EpisodeNumber,
			Title:         next.Title,
		}
	}

	return progress, nil
}

// annotate fills SeenInCount on every member, not counting the show itself.
func (s *service) annotate(ctx context.Context, tmdbID int, members []*domain.CastMember) error {
	if len(members) == 0 {
		return nil
	}

	ids := make([]int, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.PersonTmdbID)
	}

	counts, err := s.seenIn.SeenInCounts(ctx, ids, &tmdbID)
	if err != nil {
		return err
	}
	for _, m := range members {
		m.SeenInCount = counts[m.PersonTmdbID]
	}

	return nil
}

func (s *service) ShowCast(ctx context.Context, tmdbID int) ([]*domain.CastMember, error) {
	show, err := s.store.Shows().FindByTmdbID(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.EnsureCast(ctx, show); err != nil {
		return nil, err
	}

	members, err := s.store.Cast().ListByShow(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	if err := s.annotate(ctx, tmdbID, members); err != nil {
		return nil, err
	}

	return members, nil
}

func (s *service) PersonCredits(ctx context.Context, personID int) (*domain.Filmography, error) {
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

	credits, err := s.store.People().ListCredits(ctx, personID)
	if err != nil {
		return nil, err
	}

	return &domain.Filmography{Person: person, Credits: credits}, nil
}

// EpisodeCast lists the regular cast followed by the guest stars of one
// episode, as the catalog returns them.
func (s *service) EpisodeCast(ctx context.Context, tmdbID, season, episode int) ([]*domain.CastMember, error) {
	show, err := s.store.Shows().FindByTmdbID(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	credits, err := s.cache.EnsureEpisodeCast(ctx, show, season, episode)
	if err != nil {
		return nil, err
	}

	members := make([]*domain.CastMember, 0, len(credits.Cast)+len(credits.GuestStars))
	members = appendMembers(members, credits.Cast, false)
	members = appendMembers(members, credits.GuestStars, true)

	if err := s.annotate(ctx, tmdbID, members); err != nil {
		return nil, err
	}

	return members, nil
}

func appendMembers(members []*domain.CastMember, cast []domain.CatalogCastMember, guest bool) []*domain.CastMember {
	for _, m := range cast {
		if m.ID == 0 {
			continue
		}
		order := 999
		if m.Order != nil {
			order = *m.Order
		}
		name := m.Name
		if name == "" {
			name = "Unknown"
		}
		members = append(members, &domain.CastMember{
			PersonTmdbID: m.ID,
			Name:         name,
			ProfilePath:  m.ProfilePath,
			Character:    m.Character,
			Order:        order,
			Guest:        guest,
		})
	}
	return members
}

func (s *service) Search(ctx context.Context, query string) ([]domain.CatalogSearchResult, error) {
	results, err := s.catalog.SearchTV(ctx, query)
	if err != nil {
		return nil, domain.Unavailable(err, "failed to search %q", query)
	}
	if results == nil {
		results = []domain.CatalogSearchResult{}
	}
	return results, nil
}

func (s *service) History(ctx context.Context, limit int) ([]*domain.WatchEvent, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	return s.store.History().Recent(ctx, limit)
}
