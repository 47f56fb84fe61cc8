package domain

import (
	"context"
	"time"
)

// Store is the relational store handed to every core operation.
// InTx runs fn inside one transaction; a Store that is already
// transactional runs fn directly.
type Store interface {
	Shows() ShowRepo
	Episodes() EpisodeRepo
	People() PersonRepo
	Cast() CastRepo
	History() HistoryRepo
	InTx(ctx context.Context, fn func(tx Store) error) error
}

type ShowRepo interface {
	List(ctx context.Context) ([]*Show, error)
	ListByStatus(ctx context.Context, statuses ...ShowStatus) ([]*Show, error)
	FindByTmdbID(ctx context.Context, tmdbID int) (*Show, error)
	Insert(ctx context.Context, show *Show) error
	Update(ctx context.Context, tmdbID int, update ShowUpdate) error
	SetLastWatched(ctx context.Context, tmdbID int, at time.Time) error
	SetEpisodesCache(ctx context.Context, tmdbID int, state CacheState) error
	SetCastCache(ctx context.Context, tmdbID int, state CacheState) error
}

type EpisodeRepo interface {
	// InsertMissing inserts episodes, ignoring ones already present.
	InsertMissing(ctx context.Context, episodes []*Episode) (int64, error)
	Find(ctx context.Context, tmdbShowID, season, episode int) (*Episode, error)
	ListByShow(ctx context.Context, tmdbShowID int) ([]*Episode, error)
	ListBySeason(ctx context.Context, tmdbShowID, season int) ([]*Episode, error)
	ListUnwatched(ctx context.Context, tmdbShowID int, season *int) ([]*Episode, error)
	ListByShows(ctx context.Context, tmdbShowIDs []int) (map[int][]*Episode, error)
	SetWatched(ctx context.Context, ids []int64, watched bool, watchedAt *string) (int64, error)
	Count(ctx context.Context, tmdbShowID int) (total int, watched int, err error)
	NextUnwatched(ctx context.Context, tmdbShowID int) (*Episode, error)
}

type PersonRepo interface {
	FindByTmdbID(ctx context.Context, tmdbID int) (*Person, error)
	// InsertMissing inserts people whose tmdb id is unseen.
	InsertMissing(ctx context.Context, people []*Person) error
	InsertCredits(ctx context.Context, credits []*PersonCredit) (int64, error)
	MarkCreditsCached(ctx context.Context, tmdbID int, at time.Time) error
	ListUncached(ctx context.Context, tmdbIDs []int) ([]int, error)
	ListCredits(ctx context.Context, tmdbID int) ([]*PersonCredit, error)
	SeenIn(ctx context.Context, tmdbID int) ([]*SeenInEntry, error)
	SeenInCounts(ctx context.Context, tmdbIDs []int, excludeShowID *int) (map[int]int, error)
}

type CastRepo interface {
	InsertMissing(ctx context.Context, cast []*ShowCast) (int64, error)
	ListByShow(ctx context.Context, showTmdbID int) ([]*CastMember, error)
}

type HistoryRepo interface {
	Append(ctx context.Context, events []*WatchEvent) error
	Recent(ctx context.Context, limit int) ([]*WatchEvent, error)
}
