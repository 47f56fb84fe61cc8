package domain

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ShowStatus is the user-assigned state of a tracked show.
type ShowStatus string

const (
	StatusAiring   ShowStatus = "airing"
	StatusBinging  ShowStatus = "binging"
	StatusCaughtUp ShowStatus = "caught_up"
	StatusDone     ShowStatus = "done"
)

// legacyStatuses maps values written by older clients onto the canonical enum.
var legacyStatuses = map[string]ShowStatus{
	"watching":  StatusBinging,
	"finished":  StatusDone,
	"watchlist": StatusCaughtUp,
	"abandoned": StatusDone,
}

// ParseShowStatus validates s, accepting canonical and legacy values.
func ParseShowStatus(s string) (ShowStatus, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch ShowStatus(v) {
	case StatusAiring, StatusBinging, StatusCaughtUp, StatusDone:
		return ShowStatus(v), nil
	}
	if st, ok := legacyStatuses[v]; ok {
		return st, nil
	}
	return "", errors.Wrapf(ErrValidation, "invalid status %q (must be airing, binging, caught_up or done)", s)
}

// WatchPace controls how aggressively the schedule suggests episodes.
type WatchPace string

const (
	PaceBinge  WatchPace = "binge"
	PaceFast   WatchPace = "fast"
	PaceWeekly WatchPace = "weekly"
)

func ParseWatchPace(s string) (WatchPace, error) {
	switch p := WatchPace(strings.ToLower(strings.TrimSpace(s))); p {
	case PaceBinge, PaceFast, PaceWeekly:
		return p, nil
	case "":
		return PaceBinge, nil
	}
	return "", errors.Wrapf(ErrValidation, "invalid watch pace %q (must be binge, fast or weekly)", s)
}

type MediaType string

const (
	MediaTV    MediaType = "tv"
	MediaMovie MediaType = "movie"
)

func ParseMediaType(s string) (MediaType, error) {
	switch t := MediaType(strings.ToLower(strings.TrimSpace(s))); t {
	case MediaTV, MediaMovie:
		return t, nil
	case "":
		return MediaTV, nil
	}
	return "", errors.Wrapf(ErrValidation, "invalid type %q (must be tv or movie)", s)
}

// CacheState records how far a read-through cache population got.
// Partial means at least one dependent fetch failed and the next access retries.
type CacheState string

const (
	CacheUncached  CacheState = "uncached"
	CachePartial   CacheState = "partial"
	CachePopulated CacheState = "populated"
)

// Show is a tracked catalog show or movie.
type Show struct {
	ID            int64      `json:"id"`
	TmdbID        int        `json:"tmdb_id"`
	Title         string     `json:"title"`
	PosterPath    *string    `json:"poster_path"`
	UserStatus    ShowStatus `json:"user_status"`
	Type          MediaType  `json:"type"`
	AddedAt       time.Time  `json:"added_at"`
	LastWatchedAt *time.Time `json:"last_watched_at"`
	WatchPace     WatchPace  `json:"watch_pace"`
	EpisodesCache CacheState `json:"-"`
	CastCache     CacheState `json:"-"`
}

// ShowUpdate carries the optional fields of a status change.
type ShowUpdate struct {
	UserStatus *ShowStatus
	WatchPace  *WatchPace
}

// ShowDetail is live catalog metadata merged with local tracking state.
type ShowDetail struct {
	TmdbID        int                    `json:"tmdb_id"`
	Name          string                 `json:"name"`
	PosterPath    *string                `json:"poster_path"`
	BackdropPath  *string                `json:"backdrop_path"`
	Overview      string                 `json:"overview"`
	FirstAirDate  string                 `json:"first_air_date"`
	LastAirDate   string                 `json:"last_air_date"`
	Status        string                 `json:"status"`
	Networks      []string               `json:"networks"`
	Seasons       []CatalogSeasonSummary `json:"seasons"`
	Providers     []ProviderBrand        `json:"providers"`
	Tracked       bool                   `json:"tracked"`
	UserStatus    *ShowStatus            `json:"user_status"`
	WatchPace     *WatchPace             `json:"watch_pace"`
	LastWatchedAt *time.Time             `json:"last_watched_at"`
}

// ProviderBrand is a group of watch providers collapsed under one brand.
type ProviderBrand struct {
	Name        string `json:"name"`
	LogoPath    string `json:"logo_path"`
	ProviderIDs []int  `json:"provider_ids"`
}
