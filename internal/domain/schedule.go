package domain

// ScheduleCard is one "what to watch next" entry.
type ScheduleCard struct {
	Show           ScheduleShow `json:"show"`
	NextEpisode    EpisodeRef   `json:"next_episode"`
	AvailableCount int          `json:"available_count"`
	SuggestedCount int          `json:"suggested_count"`
}

type ScheduleShow struct {
	TmdbID     int        `json:"tmdb_id"`
	Title      string     `json:"title"`
	PosterPath *string    `json:"poster_path"`
	UserStatus ShowStatus `json:"user_status"`
	WatchPace  WatchPace  `json:"watch_pace"`
}

type Schedule struct {
	Items []*ScheduleCard `json:"items"`
}
