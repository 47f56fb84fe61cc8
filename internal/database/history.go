package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/whist/internal/domain"
)

// HistoryRepo implements domain.HistoryRepo over the watch_history ledger
type HistoryRepo struct {
	log zerolog.Logger
	db  *DB
	q   querier
}

// Append writes watch events. RecordedAt defaults to now.
func (r *HistoryRepo) Append(ctx context.Context, events []*domain.WatchEvent) error {
	now := time.Now()

	for start := 0; start < len(events); start += insertBatchSize {
		end := min(start+insertBatchSize, len(events))

		queryBuilder := r.db.squirrel.
			Insert("watch_history").
			Columns("tmdb_show_id", "season_number", "episode_number", "watched_at", "recorded_at")

		for _, e := range events[start:end] {
			if e.RecordedAt.IsZero() {
				e.RecordedAt = now
			}
			queryBuilder = queryBuilder.Values(e.TmdbShowID, e.SeasonNumber, e.EpisodeNumber,
				toNullString(e.WatchedAt), formatTime(e.RecordedAt))
		}

		query, args, err := queryBuilder.ToSql()
		if err != nil {
			return errors.Wrap(err, "error building query")
		}

		r.log.Trace().Str("query", query).Int("rows", end-start).Msg("Append")

		if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrap(err, "error executing query")
		}
	}

	return nil
}

// Recent returns the newest ledger rows first
func (r *HistoryRepo) Recent(ctx context.Context, limit int) ([]*domain.WatchEvent, error) {
	queryBuilder := r.db.squirrel.
		Select("id", "tmdb_show_id", "season_number", "episode_number", "watched_at", "recorded_at").
		From("watch_history").
		OrderBy("recorded_at DESC", "id DESC").
		Limit(uint64(limit))

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Recent")

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	events := make([]*domain.WatchEvent, 0)
	for rows.Next() {
		var (
			e          domain.WatchEvent
			watchedAt  sql.NullString
			recordedAt string
		)
		if err := rows.Scan(&e.ID, &e.TmdbShowID, &e.SeasonNumber, &e.EpisodeNumber, &watchedAt, &recordedAt); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		e.WatchedAt = fromNullString(watchedAt)
		if e.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, errors.Wrap(err, "recorded_at")
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return events, nil
}
