package domain

import (
	"context"
	"time"
)

// TraktRepository reads a Trakt "watched shows" export
type TraktRepository interface {
	GetWatchedShows(ctx context.Context, path string) ([]TraktWatchedShow, error)
}

// TraktWatchedShow is one entry of watched-shows.json
type TraktWatchedShow struct {
	Plays         int           `json:"plays"`
	LastWatchedAt *time.Time    `json:"last_watched_at"`
	Show          TraktShow     `json:"show"`
	Seasons       []TraktSeason `json:"seasons"`
}

type TraktShow struct {
	Title string   `json:"title"`
	Year  int      `json:"year"`
	IDs   TraktIDs `json:"ids"`
}

type TraktIDs struct {
	Trakt int    `json:"trakt"`
	Slug  string `json:"slug"`
	TVDB  int    `json:"tvdb"`
	IMDB  string `json:"imdb"`
	TMDB  int    `json:"tmdb"`
}

type TraktSeason struct {
	Number   int            `json:"number"`
	Episodes []TraktEpisode `json:"episodes"`
}

type TraktEpisode struct {
	Number        int        `json:"number"`
	Plays         int        `json:"plays"`
	LastWatchedAt *time.Time `json:"last_watched_at"`
}
