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

// watchedShows selects every show with at least one watched episode
const watchedShows = "SELECT tmdb_show_id FROM episodes WHERE watched = 1"

// PersonRepo implements domain.PersonRepo
type PersonRepo struct {
	log zerolog.Logger
	db  *DB
	q   querier
}

func (r *PersonRepo) FindByTmdbID(ctx context.Context, tmdbID int) (*domain.Person, error) {
	queryBuilder := r.db.squirrel.
		Select("id", "tmdb_id", "name", "profile_path", "credits_cached_at").
		From("people").
		Where(sq.Eq{"tmdb_id": tmdbID})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("FindByTmdbID")

	var (
		p           domain.Person
		profilePath sql.NullString
		cachedAt    sql.NullString
	)

	err = r.q.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.TmdbID, &p.Name, &profilePath, &cachedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(domain.ErrNotFound, "person %d", tmdbID)
		}
		return nil, errors.Wrap(err, "error scanning row")
	}

	p.ProfilePath = fromNullString(profilePath)
	if p.CreditsCachedAt, err = parseNullTime(cachedAt); err != nil {
		return nil, errors.Wrap(err, "credits_cached_at")
	}

	return &p, nil
}

// InsertMissing inserts people whose tmdb id has not been seen before.
// Existing rows are left untouched.
func (r *PersonRepo) InsertMissing(ctx context.Context, people []*domain.Person) error {
	for start := 0; start < len(people); start += insertBatchSize {
		end := min(start+insertBatchSize, len(people))

		queryBuilder := r.db.squirrel.
			Insert("people").
			Options("OR IGNORE").
			Columns("tmdb_id", "name", "profile_path")

		for _, p := range people[start:end] {
			queryBuilder = queryBuilder.Values(p.TmdbID, p.Name, toNullString(p.ProfilePath))
		}

		query, args, err := queryBuilder.ToSql()
		if err != nil {
			return errors.Wrap(err, "error building query")
		}

		r.log.Trace().Str("query", query).Int("rows", end-start).Msg("InsertMissing")

		if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrap(err, "error executing query")
		}
	}

	return nil
}

// InsertCredits inserts filmography rows, ignoring (person, show) pairs already stored
func (r *PersonRepo) InsertCredits(ctx context.Context, credits []*domain.PersonCredit) (int64, error) {
	var inserted int64

	for start := 0; start < len(credits); start += insertBatchSize {
		end := min(start+insertBatchSize, len(credits))

		queryBuilder := r.db.squirrel.
			Insert("person_credits").
			Options("OR IGNORE").
			Columns("person_tmdb_id", "show_tmdb_id", "title", "character", "type")

		for _, c := range credits[start:end] {
			queryBuilder = queryBuilder.Values(c.PersonTmdbID, c.ShowTmdbID, c.Title, c.Character, string(c.Type))
		}

		query, args, err := queryBuilder.ToSql()
		if err != nil {
			return inserted, errors.Wrap(err, "error building query")
		}

		r.log.Trace().Str("query", query).Int("rows", end-start).Msg("InsertCredits")

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

func (r *PersonRepo) MarkCreditsCached(ctx context.Context, tmdbID int, at time.Time) error {
	queryBuilder := r.db.squirrel.
		Update("people").
		Set("credits_cached_at", formatTime(at)).
		Where(sq.Eq{"tmdb_id": tmdbID})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("MarkCreditsCached")

	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "error executing query")
	}

	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "error reading affected rows")
	} else if n == 0 {
		return errors.Wrapf(domain.ErrNotFound, "person %d", tmdbID)
	}

	return nil
}

// ListUncached returns the subset of tmdbIDs whose credits have not been cached yet
func (r *PersonRepo) ListUncached(ctx context.Context, tmdbIDs []int) ([]int, error) {
	if len(tmdbIDs) == 0 {
		return nil, nil
	}

	queryBuilder := r.db.squirrel.
		Select("tmdb_id").
		From("people").
		Where(sq.Eq{"tmdb_id": tmdbIDs, "credits_cached_at": nil}).
		OrderBy("tmdb_id")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("ListUncached")

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return ids, nil
}

// ListCredits returns every cached credit of a person ordered by title
func (r *PersonRepo) ListCredits(ctx context.Context, tmdbID int) ([]*domain.PersonCredit, error) {
	queryBuilder := r.db.squirrel.
		Select("person_tmdb_id", "show_tmdb_id", "title", "character", "type").
		From("person_credits").
		Where(sq.Eq{"person_tmdb_id": tmdbID}).
		OrderBy("title", "show_tmdb_id")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("ListCredits")

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	credits := make([]*domain.PersonCredit, 0)
	for rows.Next() {
		var (
			c         domain.PersonCredit
			character sql.NullString
		)
		if err := rows.Scan(&c.PersonTmdbID, &c.ShowTmdbID, &c.Title, &character, &c.Type); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		c.Character = character.String
		credits = append(credits, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return credits, nil
}

// SeenIn returns the person's credits in shows with at least one watched
// episode, with the local poster when the show is tracked.
func (r *PersonRepo) SeenIn(ctx context.Context, tmdbID int) ([]*domain.SeenInEntry, error) {
	queryBuilder := r.db.squirrel.
		Select("pc.show_tmdb_id", "pc.title", "pc.character", "pc.type", "s.poster_path").
		From("person_credits pc").
		LeftJoin("shows s ON s.tmdb_id = pc.show_tmdb_id").
		Where(sq.Eq{"pc.person_tmdb_id": tmdbID}).
		Where("pc.show_tmdb_id IN (" + watchedShows + ")").
		OrderBy("pc.title", "pc.show_tmdb_id")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("SeenIn")

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	entries := make([]*domain.SeenInEntry, 0)
	for rows.Next() {
		var (
			e          domain.SeenInEntry
			character  sql.NullString
			posterPath sql.NullString
		)
		if err := rows.Scan(&e.TmdbID, &e.Title, &character, &e.Type, &posterPath); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		e.Character = character.String
		e.PosterPath = fromNullString(posterPath)
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return entries, nil
}

// SeenInCounts counts, per person, the distinct watched shows in their
// cached filmography. excludeShowID, when set, is left out of every count.
// Every requested id is present in the result.
func (r *PersonRepo) SeenInCounts(ctx context.Context, tmdbIDs []int, excludeShowID *int) (map[int]int, error) {
	counts := make(map[int]int, len(tmdbIDs))
	for _, id := range tmdbIDs {
		counts[id] = 0
	}
	if len(tmdbIDs) == 0 {
		return counts, nil
	}

	queryBuilder := r.db.squirrel.
		Select("person_tmdb_id", "COUNT(DISTINCT show_tmdb_id)").
		From("person_credits").
		Where(sq.Eq{"person_tmdb_id": tmdbIDs}).
		Where("show_tmdb_id IN (" + watchedShows + ")").
		GroupBy("person_tmdb_id")

	if excludeShowID != nil {
		queryBuilder = queryBuilder.Where(sq.NotEq{"show_tmdb_id": *excludeShowID})
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("SeenInCounts")

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	for rows.Next() {
		var id, n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		counts[id] = n
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return counts, nil
}
