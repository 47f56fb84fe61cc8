package domain

import "time"

// Episode is one cached (show, season, episode) entry with local watch state.
// WatchedAt is nil whenever Watched is false.
type Episode struct {
	ID            int64   `json:"id"`
	ShowID        int64   `json:"-"`
	TmdbShowID    int     `json:"tmdb_show_id"`
	SeasonNumber  int     `json:"season_number"`
	EpisodeNumber int     `json:"episode_number"`
	Title         *string `json:"title"`
	AirDate       *string `json:"air_date"`
	Watched       bool    `json:"watched"`
	WatchedAt     *string `json:"watched_at"`
}

// AiredBy reports whether the episode has a known air date on or before day (YYYY-MM-DD).
func (e *Episode) AiredBy(day string) bool {
	return e.AirDate != nil && *e.AirDate != "" && *e.AirDate <= day
}

// Progress summarises watch state for one show.
type Progress struct {
	TmdbShowID    int         `json:"tmdb_show_id"`
	Total         int         `json:"total"`
	Watched       int         `json:"watched"`
	Percent       float64     `json:"percent"`
	NextUnwatched *EpisodeRef `json:"next_unwatched"`
}

type EpisodeRef struct {
	SeasonNumber  int     `json:"season_number"`
	EpisodeNumber int     `json:"episode_number"`
	Title         *string `json:"title"`
	AirDate       *string `json:"air_date,omitempty"`
}

// WatchEvent is one row of the append-only watch ledger.
type WatchEvent struct {
	ID            int64     `json:"id"`
	TmdbShowID    int       `json:"tmdb_show_id"`
	SeasonNumber  int       `json:"season_number"`
	EpisodeNumber int       `json:"episode_number"`
	WatchedAt     *string   `json:"watched_at"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// SeasonView is live season metadata merged with local watch flags.
type SeasonView struct {
	TmdbShowID   int                 `json:"tmdb_show_id"`
	SeasonNumber int                 `json:"season_number"`
	Name         string              `json:"name"`
	PosterPath   *string             `json:"poster_path"`
	Overview     string              `json:"overview"`
	AirYear      string              `json:"air_date"`
	Episodes     []SeasonEpisodeView `json:"episodes"`
}

type SeasonEpisodeView struct {
	EpisodeNumber *int    `json:"episode_number"`
	Title         string  `json:"title"`
	AirDate       *string `json:"air_date"`
	Overview      string  `json:"overview"`
	StillPath     *string `json:"still_path"`
	Watched       bool    `json:"watched"`
	WatchedAt     *string `json:"watched_at"`
}
