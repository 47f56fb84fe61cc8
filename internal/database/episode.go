package database

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/whist/internal/domain"
)

// insertBatchSize keeps multi-row inserts well under SQLite's variable limit
const insertBatchSize = 500

var episodeColumns = []string{
	"id", "show_id", "tmdb_show_id", "season_number", "episode_number",
	"title", "air_date", "watched", "watched_at",
}

// EpisodeRepo implements domain.EpisodeRepo
type EpisodeRepo struct {
	log zerolog.Logger
	db  *DB
	q   querier
}

func scanEpisode(row rowScanner) (*domain.Episode, error) {
	var (
		e         domain.Episode
		title     sql.NullString
		airDate   sql.NullString
		watchedAt sql.NullString
	)

	if err := row.Scan(&e.ID, &e.ShowID, &e.TmdbShowID, &e.SeasonNumber, &e.EpisodeNumber,
		&title, &airDate, &e.Watched, &watchedAt); err != nil {
		return nil, err
	}

	e.Title = fromNullString(title)
	e.AirDate = fromNullString(airDate)
	e.WatchedAt = fromNullString(watchedAt)

	return &e, nil
}

func (r *EpisodeRepo) query(ctx context.Context, method string, queryBuilder sq.SelectBuilder) ([]*domain.Episode, error) {
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

	episodes := make([]*domain.Episode, 0)
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		episodes = append(episodes, e)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return episodes, nil
}

func (r *EpisodeRepo) selectEpisodes() sq.SelectBuilder {
	return r.db.squirrel.
		Select(episodeColumns...).
		From("episodes").
		OrderBy("season_number", "episode_number")
}

// InsertMissing inserts episodes, skipping any (show, season, episode) already present.
// It returns the number of rows actually inserted.
func (r *EpisodeRepo) InsertMissing(ctx context.Context, episodes []*domain.Episode) (int64, error) {
	var inserted int64

	for start := 0; start < len(episodes); start += insertBatchSize {
		end := min(start+insertBatchSize, len(episodes))

		queryBuilder := r.db.squirrel.
			Insert("episodes").
			Options("OR IGNORE").
			Columns("show_id", "tmdb_show_id", "season_number", "episode_number", "title", "air_date")

		for _, e := range episodes[start:end] {
			queryBuilder = queryBuilder.Values(e.ShowID, e.TmdbShowID, e.SeasonNumber, e.EpisodeNumber,
				toNullString(e.Title), toNullString(e.AirDate))
		}

		query, args, err := queryBuilder.ToSql()
		if err != nil {
			return inserted, errors.Wrap(err, "error building query")
		}

		r.log.Trace().Str("query", query).Int("rows", end-start).Msg("InsertMissing")

		res, err := r.q.ExecContext(ctx, query, args...)
		if err != nil {
			return inserted, errors.Wrap(err, "error executing query")
		}

		n, err := res.RowsAffected()
		if err != nil {
			return inserted, errors.Wrap(err, "error reading affected rows")
		}
		inserted += n
	}

	return inserted, nil
}

func (r *EpisodeRepo) Find(ctx context.Context, tmdbShowID, season, episode int) (*domain.Episode, error) {
	queryBuilder := r.db.squirrel.
		Select(episodeColumns...).
		From("episodes").
		Where(sq.Eq{"tmdb_show_id": tmdbShowID, "season_number": season, "episode_number": episode})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Find")

	e, err := scanEpisode(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(domain.ErrNotFound, "episode S%02dE%02d of show %d", season, episode, tmdbShowID)
		}
		return nil, errors.Wrap(err, "error scanning row")
	}

	return e, nil
}

func (r *EpisodeRepo) ListByShow(ctx context.Context, tmdbShowID int) ([]*domain.Episode, error) {
	return r.query(ctx, "ListByShow", r.selectEpisodes().Where(sq.Eq{"tmdb_show_id": tmdbShowID}))
}

func (r *EpisodeRepo) ListBySeason(ctx context.Context, tmdbShowID, season int) ([]*domain.Episode, error) {
	return r.query(ctx, "ListBySeason", r.selectEpisodes().
		Where(sq.Eq{"tmdb_show_id": tmdbShowID, "season_number": season}))
}

// ListUnwatched returns unwatched episodes of the show, optionally limited to one season
func (r *EpisodeRepo) ListUnwatched(ctx context.Context, tmdbShowID int, season *int) ([]*domain.Episode, error) {
	where := sq.Eq{"tmdb_show_id": tmdbShowID, "watched": 0}
	if season != nil {
		where["season_number"] = *season
	}
	return r.query(ctx, "ListUnwatched", r.selectEpisodes().Where(where))
}

// ListByShows groups the episodes of several shows by show tmdb id
func (r *EpisodeRepo) ListByShows(ctx context.Context, tmdbShowIDs []int) (map[int][]*domain.Episode, error) {
	result := make(map[int][]*domain.Episode, len(tmdbShowIDs))
	if len(tmdbShowIDs) == 0 {
		return result, nil
	}

	episodes, err := r.query(ctx, "ListByShows", r.selectEpisodes().Where(sq.Eq{"tmdb_show_id": tmdbShowIDs}))
	if err != nil {
		return nil, err
	}

	for _, e := range episodes {
		result[e.TmdbShowID] = append(result[e.TmdbShowID], e)
	}

	return result, nil
}

// SetWatched updates the watched flag of the given episodes. Unwatching
// always clears watched_at.
func (r *EpisodeRepo) SetWatched(ctx context.Context, ids []int64, watched bool, watchedAt *string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	at := toNullString(watchedAt)
	flag := 0
	if watched {
		flag = 1
	} else {
		at = sql.NullString{}
	}

	queryBuilder := r.db.squirrel.
		Update("episodes").
		Set("watched", flag).
		Set("watched_at", at).
		Where(sq.Eq{"id": ids})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("SetWatched")

	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "error executing query")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "error reading affected rows")
	}

	return n, nil
}

// Count returns the total and watched number of cached episodes for a show
func (r *EpisodeRepo) Count(ctx context.Context, tmdbShowID int) (int, int, error) {
	queryBuilder := r.db.squirrel.
		Select("COUNT(*)", "COALESCE(SUM(watched), 0)").
		From("episodes").
		Where(sq.Eq{"tmdb_show_id": tmdbShowID})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, 0, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Count")

	var total, watched int
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&total, &watched); err != nil {
		return 0, 0, errors.Wrap(err, "error scanning row")
	}

	return total, watched, nil
}

// NextUnwatched returns the earliest unwatched episode, or nil when every
// cached episode is watched.
func (r *EpisodeRepo) NextUnwatched(ctx context.Context, tmdbShowID int) (*domain.Episode, error) {
	episodes, err := r.query(ctx, "NextUnwatched", r.selectEpisodes().
		Where(sq.Eq{"tmdb_show_id": tmdbShowID, "watched": 0}).
		Limit(1))
	if err != nil {
		return nil, err
	}
	if len(episodes) == 0 {
		return nil, nil
	}
	return episodes[0], nil
}
