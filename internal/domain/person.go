package domain

import "time"

// Person is a catalog person. CreditsCachedAt is set only after the
// person's filmography rows have been committed.
type Person struct {
	ID              int64      `json:"-"`
	TmdbID          int        `json:"tmdb_id"`
	Name            string     `json:"name"`
	ProfilePath     *string    `json:"profile_path"`
	CreditsCachedAt *time.Time `json:"-"`
}

func (p *Person) CreditsCached() bool {
	return p != nil && p.CreditsCachedAt != nil
}

// PersonCredit is one filmography entry, unique per (person, show).
type PersonCredit struct {
	PersonTmdbID int       `json:"-"`
	ShowTmdbID   int       `json:"tmdb_id"`
	Title        string    `json:"title"`
	Character    string    `json:"character"`
	Type         MediaType `json:"type"`
}

// ShowCast is one cast appearance, unique per (show, person).
type ShowCast struct {
	ShowTmdbID   int
	PersonTmdbID int
	Character    string
	Order        int
}

// CastMember is a cast row joined to its person, annotated with seen-in counts.
type CastMember struct {
	PersonTmdbID int     `json:"person_tmdb_id"`
	Name         string  `json:"name"`
	ProfilePath  *string `json:"profile_path"`
	Character    string  `json:"character"`
	Order        int     `json:"order"`
	Guest        bool    `json:"guest_star,omitempty"`
	SeenInCount  int     `json:"seen_in_count"`
}

// SeenInEntry is a credit of a person in a show with at least one watched episode.
type SeenInEntry struct {
	TmdbID     int       `json:"tmdb_id"`
	Title      string    `json:"title"`
	Character  string    `json:"character"`
	Type       MediaType `json:"type"`
	PosterPath *string   `json:"poster_path"`
}

type SeenIn struct {
	Person *Person        `json:"person"`
	SeenIn []*SeenInEntry `json:"seen_in"`
}

// Filmography is every cached credit of a person, ordered by title.
type Filmography struct {
	Person  *Person         `json:"person"`
	Credits []*PersonCredit `json:"credits"`
}
