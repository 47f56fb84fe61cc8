package domain

import "context"

// Catalog is the remote metadata provider. Implementations return errors
// wrapping ErrUpstreamUnavailable for transport failures and ErrNotFound for
// unknown ids.
type Catalog interface {
	SearchTV(ctx context.Context, query string) ([]CatalogSearchResult, error)
	GetShow(ctx context.Context, tmdbID int) (*CatalogShow, error)
	GetMovie(ctx context.Context, tmdbID int) (*CatalogMovie, error)
	GetSeason(ctx context.Context, tmdbID, season int) (*CatalogSeason, error)
	GetShowCredits(ctx context.Context, tmdbID int) (*CatalogCredits, error)
	GetEpisodeCredits(ctx context.Context, tmdbID, season, episode int) (*CatalogEpisodeCredits, error)
	GetPersonCredits(ctx context.Context, personID int) (*CatalogPersonCredits, error)
	GetWatchProviders(ctx context.Context, tmdbID int) ([]WatchProvider, error)
}

type CatalogSearchResult struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   *string `json:"poster_path"`
}

type CatalogShow struct {
	ID           int                    `json:"id"`
	Name         string                 `json:"name"`
	PosterPath   *string                `json:"poster_path"`
	BackdropPath *string                `json:"backdrop_path"`
	Overview     string                 `json:"overview"`
	FirstAirDate string                 `json:"first_air_date"`
	LastAirDate  string                 `json:"last_air_date"`
	Status       string                 `json:"status"`
	Networks     []CatalogEntity        `json:"networks"`
	Seasons      []CatalogSeasonSummary `json:"seasons"`
}

// Active reports whether the catalog still lists the show as airing.
func (s *CatalogShow) Active() bool {
	switch s.Status {
	case "Returning Series", "In Production", "Planned", "Pilot":
		return true
	}
	return false
}

type CatalogEntity struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	LogoPath *string `json:"logo_path"`
}

type CatalogSeasonSummary struct {
	SeasonNumber int     `json:"season_number"`
	EpisodeCount int     `json:"episode_count"`
	Name         string  `json:"name"`
	PosterPath   *string `json:"poster_path"`
	AirDate      *string `json:"air_date"`
}

type CatalogMovie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  *string `json:"poster_path"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
}

type CatalogSeason struct {
	Name       string           `json:"name"`
	PosterPath *string          `json:"poster_path"`
	Overview   string           `json:"overview"`
	AirDate    *string          `json:"air_date"`
	Episodes   []CatalogEpisode `json:"episodes"`
}

// CatalogEpisode has a nullable number; entries without one are not cached.
type CatalogEpisode struct {
	EpisodeNumber *int    `json:"episode_number"`
	Name          string  `json:"name"`
	AirDate       *string `json:"air_date"`
	Overview      string  `json:"overview"`
	StillPath     *string `json:"still_path"`
}

type CatalogCastMember struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Character   string  `json:"character"`
	Order       *int    `json:"order"`
	ProfilePath *string `json:"profile_path"`
}

type CatalogCredits struct {
	Cast []CatalogCastMember `json:"cast"`
}

type CatalogEpisodeCredits struct {
	Cast       []CatalogCastMember `json:"cast"`
	GuestStars []CatalogCastMember `json:"guest_stars"`
}

type CatalogPersonCredit struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Character string `json:"character"`
	MediaType string `json:"media_type"`
}

// DisplayTitle prefers the TV name, then the movie title.
func (c CatalogPersonCredit) DisplayTitle() string {
	if c.Name != "" {
		return c.Name
	}
	if c.Title != "" {
		return c.Title
	}
	return "Unknown"
}

type CatalogPersonCredits struct {
	Cast []CatalogPersonCredit `json:"cast"`
}

// WatchProvider is one streaming/rental offer for a title in a region.
type WatchProvider struct {
	ProviderID      int    `json:"provider_id"`
	ProviderName    string `json:"provider_name"`
	LogoPath        string `json:"logo_path"`
	DisplayPriority int    `json:"display_priority"`
}
