package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/whist/internal/domain"
)

var showColumns = []string{
	"id", "tmdb_id", "title", "poster_path", "user_status", "type",
	"added_at", "last_watched_at", "watch_pace", "episodes_cache", "cast_cache",
}

// ShowRepo implements domain.ShowRepo
type ShowRepo struct {
	log zerolog.Logger
	db  *DB
	q   querier
}

func scanShow(row rowScanner) (*domain.Show, error) {
	var (
		s           domain.Show
		posterPath  sql.NullString
		addedAt     string
		lastWatched sql.NullString
	)

	if err := row.Scan(&s.ID, &s.TmdbID, &s.Title, &posterPath, &s.UserStatus, &s.Type,
		&addedAt, &lastWatched, &s.WatchPace, &s.EpisodesCache, &s.CastCache); err != nil {
		return nil, err
	}

	var err error
	s.PosterPath = fromNullString(posterPath)
	if s.AddedAt, err = parseTime(addedAt); err != nil {
		return nil, errors.Wrap(err, "added_at")
	}
	if s.LastWatchedAt, err = parseNullTime(lastWatched); err != nil {
		return nil, errors.Wrap(err, "last_watched_at")
	}

	return &s, nil
}

func (r *ShowRepo) list(ctx context.Context, method string, where sq.Sqlizer) ([]*domain.Show, error) {
	queryBuilder := r.db.squirrel.
		Select(showColumns...).
		From("shows").
		OrderBy("last_watched_at IS NULL", "last_watched_at DESC", "title")

	if where != nil {
		queryBuilder = queryBuilder.Where(where)
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg(method)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	shows := make([]*domain.Show, 0)
	for rows.Next() {
		show, err := scanShow(rows)
		if err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		shows = append(shows, show)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return shows, nil
}

// List returns every tracked show, most recently watched first
func (r *ShowRepo) List(ctx context.Context) ([]*domain.Show, error) {
	return r.list(ctx, "List", nil)
}

// ListByStatus returns shows with any of the given statuses, most recently watched first
func (r *ShowRepo) ListByStatus(ctx context.Context, statuses ...domain.ShowStatus) ([]*domain.Show, error) {
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}
	return r.list(ctx, "ListByStatus", sq.Eq{"user_status": values})
}

func (r *ShowRepo) FindByTmdbID(ctx context.Context, tmdbID int) (*domain.Show, error) {
	queryBuilder := r.db.squirrel.
		Select(showColumns...).
		From("shows").
		Where(sq.Eq{"tmdb_id": tmdbID})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("FindByTmdbID")

	show, err := scanShow(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(domain.ErrNotFound, "show %d is not tracked", tmdbID)
		}
		return nil, errors.Wrap(err, "error scanning row")
	}

	return show, nil
}

// Insert stores a new show and sets its ID. Cache markers start uncached.
func (r *ShowRepo) Insert(ctx context.Context, show *domain.Show) error {
	var lastWatched sql.NullString
	if show.LastWatchedAt != nil {
		lastWatched = sql.NullString{String: formatTime(*show.LastWatchedAt), Valid: true}
	}
	if show.AddedAt.IsZero() {
		show.AddedAt = time.Now()
	}
	if show.WatchPace == "" {
		show.WatchPace = domain.PaceBinge
	}
	show.EpisodesCache = domain.CacheUncached
	show.CastCache = domain.CacheUncached

	queryBuilder := r.db.squirrel.
		Insert("shows").
		Columns("tmdb_id", "title", "poster_path", "user_status", "type", "added_at",
			"last_watched_at", "watch_pace", "episodes_cache", "cast_cache").
		Values(show.TmdbID, show.Title, toNullString(show.PosterPath), string(show.UserStatus), string(show.Type),
			formatTime(show.AddedAt), lastWatched, string(show.WatchPace), string(show.EpisodesCache), string(show.CastCache)).
		Suffix("RETURNING id")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Insert")

	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&show.ID); err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

func (r *ShowRepo) update(ctx context.Context, method string, tmdbID int, set map[string]any) error {
	queryBuilder := r.db.squirrel.
		Update("shows").
		SetMap(set).
		Where(sq.Eq{"tmdb_id": tmdbID})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg(method)

	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "error executing query")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "error reading affected rows")
	}
	if affected == 0 {
		return errors.Wrapf(domain.ErrNotFound, "show %d is not tracked", tmdbID)
	}

	return nil
}

// Update applies the non-nil fields of u
func (r *ShowRepo) Update(ctx context.Context, tmdbID int, u domain.ShowUpdate) error {
	set := map[string]any{}
	if u.UserStatus != nil {
		set["user_status"] = string(*u.UserStatus)
	}
	if u.WatchPace != nil {
		set["watch_pace"] = string(*u.WatchPace)
	}
	if len(set) == 0 {
		_, err := r.FindByTmdbID(ctx, tmdbID)
		return err
	}
	return r.update(ctx, "Update", tmdbID, set)
}

func (r *ShowRepo) SetLastWatched(ctx context.Context, tmdbID int, at time.Time) error {
	return r.update(ctx, "SetLastWatched", tmdbID, map[string]any{"last_watched_at": formatTime(at)})
}

func (r *ShowRepo) SetEpisodesCache(ctx context.Context, tmdbID int, state domain.CacheState) error {
	return r.update(ctx, "SetEpisodesCache", tmdbID, map[string]any{"episodes_cache": string(state)})
}

func (r *ShowRepo) SetCastCache(ctx context.Context, tmdbID int, state domain.CacheState) error {
	return r.update(ctx, "SetCastCache", tmdbID, map[string]any{"cast_cache": string(state)})
}
