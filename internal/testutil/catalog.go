package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/varoOP/whist/internal/domain"
)

// Catalog is an in-memory domain.Catalog. Unknown ids answer
// domain.ErrNotFound; keys added with Fail answer
// domain.ErrUpstreamUnavailable.
type Catalog struct {
	mu sync.Mutex

	Results        []domain.CatalogSearchResult
	Shows          map[int]*domain.CatalogShow
	Movies         map[int]*domain.CatalogMovie
	Seasons        map[string]*domain.CatalogSeason
	ShowCredits    map[int]*domain.CatalogCredits
	EpisodeCredits map[string]*domain.CatalogEpisodeCredits
	PersonCredits  map[int]*domain.CatalogPersonCredits
	Providers      map[int][]domain.WatchProvider

	failing map[string]bool
	calls   map[string]int
}

func NewCatalog() *Catalog {
	return &Catalog{
		Shows:          map[int]*domain.CatalogShow{},
		Movies:         map[int]*domain.CatalogMovie{},
		Seasons:        map[string]*domain.CatalogSeason{},
		ShowCredits:    map[int]*domain.CatalogCredits{},
		EpisodeCredits: map[string]*domain.CatalogEpisodeCredits{},
		PersonCredits:  map[int]*domain.CatalogPersonCredits{},
		Providers:      map[int][]domain.WatchProvider{},
		failing:        map[string]bool{},
		calls:          map[string]int{},
	}
}

func ShowKey(tmdbID int) string                { return fmt.Sprintf("show:%d", tmdbID) }
func SeasonKey(tmdbID, season int) string      { return fmt.Sprintf("season:%d:%d", tmdbID, season) }
func ShowCreditsKey(tmdbID int) string         { return fmt.Sprintf("credits:%d", tmdbID) }
func PersonKey(personID int) string            { return fmt.Sprintf("person:%d", personID) }
func ProvidersKey(tmdbID int) string           { return fmt.Sprintf("providers:%d", tmdbID) }
func EpisodeKey(tmdbID, season, ep int) string { return fmt.Sprintf("episode:%d:%d:%d", tmdbID, season, ep) }

// Fail makes every request for key fail.
func (c *Catalog) Fail(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failing[key] = true
}

// Recover undoes Fail.
func (c *Catalog) Recover(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.failing, key)
}

// Calls returns how many times the catalog method was invoked.
func (c *Catalog) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// AddSeason registers a season whose episodes are numbered from 1 and air
// on the given dates ("" for unknown).
func (c *Catalog) AddSeason(tmdbID int, name string, season int, airDates ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	show, ok := c.Shows[tmdbID]
	if !ok {
		show = &domain.CatalogShow{ID: tmdbID, Name: name, Status: "Returning Series"}
		c.Shows[tmdbID] = show
	}
	show.Seasons = append(show.Seasons, domain.CatalogSeasonSummary{
		SeasonNumber: season,
		EpisodeCount: len(airDates),
		Name:         fmt.Sprintf("Season %d", season),
	})

	s := &domain.CatalogSeason{Name: fmt.Sprintf("Season %d", season)}
	for i, d := range airDates {
		ep := domain.CatalogEpisode{EpisodeNumber: Ptr(i + 1), Name: fmt.Sprintf("Episode %d", i+1)}
		if d != "" {
			ep.AirDate = Ptr(d)
		}
		s.Episodes = append(s.Episodes, ep)
	}
	if len(airDates) > 0 && airDates[0] != "" {
		s.AirDate = Ptr(airDates[0])
	}
	c.Seasons[SeasonKey(tmdbID, season)] = s
}

func (c *Catalog) enter(method, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls[method]++
	if c.failing[key] {
		return errors.Wrapf(domain.ErrUpstreamUnavailable, "%s: simulated 500", key)
	}
	return nil
}

func notFound(key string) error {
	return errors.Wrapf(domain.ErrNotFound, "%s", key)
}

func (c *Catalog) SearchTV(ctx context.Context, query string) ([]domain.CatalogSearchResult, error) {
	if err := c.enter("SearchTV", "search"); err != nil {
		return nil, err
	}
	return c.Results, nil
}

func (c *Catalog) GetShow(ctx context.Context, tmdbID int) (*domain.CatalogShow, error) {
	key := ShowKey(tmdbID)
	if err := c.enter("GetShow", key); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if show, ok := c.Shows[tmdbID]; ok {
		return show, nil
	}
	return nil, notFound(key)
}

func (c *Catalog) GetMovie(ctx context.Context, tmdbID int) (*domain.CatalogMovie, error) {
	key := fmt.Sprintf("movie:%d", tmdbID)
	if err := c.enter("GetMovie", key); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if movie, ok := c.Movies[tmdbID]; ok {
		return movie, nil
	}
	return nil, notFound(key)
}

func (c *Catalog) GetSeason(ctx context.Context, tmdbID, season int) (*domain.CatalogSeason, error) {
	key := SeasonKey(tmdbID, season)
	if err := c.enter("GetSeason", key); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.Seasons[key]; ok {
		return s, nil
	}
	return nil, notFound(key)
}

func (c *Catalog) GetShowCredits(ctx context.Context, tmdbID int) (*domain.CatalogCredits, error) {
	key := ShowCreditsKey(tmdbID)
	if err := c.enter("GetShowCredits", key); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if credits, ok := c.ShowCredits[tmdbID]; ok {
		return credits, nil
	}
	return &domain.CatalogCredits{}, nil
}

func (c *Catalog) GetEpisodeCredits(ctx context.Context, tmdbID, season, episode int) (*domain.CatalogEpisodeCredits, error) {
	key := EpisodeKey(tmdbID, season, episode)
	if err := c.enter("GetEpisodeCredits", key); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if credits, ok := c.EpisodeCredits[key]; ok {
		return credits, nil
	}
	return nil, notFound(key)
}

func (c *Catalog) GetPersonCredits(ctx context.Context, personID int) (*domain.CatalogPersonCredits, error) {
	key := PersonKey(personID)
	if err := c.enter("GetPersonCredits", key); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if credits, ok := c.PersonCredits[personID]; ok {
		return credits, nil
	}
	return &domain.CatalogPersonCredits{}, nil
}

func (c *Catalog) GetWatchProviders(ctx context.Context, tmdbID int) ([]domain.WatchProvider, error) {
	key := ProvidersKey(tmdbID)
	if err := c.enter("GetWatchProviders", key); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Providers[tmdbID], nil
}

var _ domain.Catalog = (*Catalog)(nil)
