package database

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/whist/internal/domain"
)

// CastRepo implements domain.CastRepo
type CastRepo struct {
	log zerolog.Logger
	db  *DB
	q   querier
}

// InsertMissing stores cast appearances, ignoring (show, person) pairs already present
func (r *CastRepo) InsertMissing(ctx context.Context, cast []*domain.ShowCast) (int64, error) {
	var inserted int64

	for start := 0; start < len(cast); start += insertBatchSize {
		end := min(start+insertBatchSize, len(cast))

		queryBuilder := r.db.squirrel.
			Insert("show_cast").
			Options("OR IGNORE").
			Columns("show_tmdb_id", "person_tmdb_id", "character", "cast_order")

		for _, c := range cast[start:end] {
			queryBuilder = queryBuilder.Values(c.ShowTmdbID, c.PersonTmdbID, c.Character, c.Order)
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

// ListByShow returns the show's cast joined to people, in billing order
func (r *CastRepo) ListByShow(ctx context.Context, showTmdbID int) ([]*domain.CastMember, error) {
	queryBuilder := r.db.squirrel.
		Select("sc.person_tmdb_id", "p.name", "p.profile_path", "sc.character", "sc.cast_order").
		From("show_cast sc").
		Join("people p ON p.tmdb_id = sc.person_tmdb_id").
		Where(sq.Eq{"sc.show_tmdb_id": showTmdbID}).
		OrderBy("sc.cast_order", "sc.person_tmdb_id")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("ListByShow")

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	members := make([]*domain.CastMember, 0)
	for rows.Next() {
		var (
			m           domain.CastMember
			profilePath sql.NullString
			character   sql.NullString
		)
		if err := rows.Scan(&m.PersonTmdbID, &m.Name, &profilePath, &character, &m.Order); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		m.ProfilePath = fromNullString(profilePath)
		m.Character = character.String
		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return members, nil
}
