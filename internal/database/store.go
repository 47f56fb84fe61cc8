package database

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/whist/internal/domain"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements domain.Store on top of DB. A Store created by InTx is
// bound to its transaction.
type Store struct {
	log zerolog.Logger
	db  *DB
	tx  *Tx

	shows    *ShowRepo
	episodes *EpisodeRepo
	people   *PersonRepo
	cast     *CastRepo
	history  *HistoryRepo
}

// NewStore creates a store backed by the connection pool
func NewStore(log zerolog.Logger, db *DB) *Store {
	return newStore(log, db, nil)
}

func newStore(log zerolog.Logger, db *DB, tx *Tx) *Store {
	var q querier = db.handler
	if tx != nil {
		q = tx
	}

	return &Store{
		log:      log,
		db:       db,
		tx:       tx,
		shows:    &ShowRepo{log: log.With().Str("repo", "shows").Logger(), db: db, q: q},
		episodes: &EpisodeRepo{log: log.With().Str("repo", "episodes").Logger(), db: db, q: q},
		people:   &PersonRepo{log: log.With().Str("repo", "people").Logger(), db: db, q: q},
		cast:     &CastRepo{log: log.With().Str("repo", "cast").Logger(), db: db, q: q},
		history:  &HistoryRepo{log: log.With().Str("repo", "history").Logger(), db: db, q: q},
	}
}

func (s *Store) Shows() domain.ShowRepo       { return s.shows }
func (s *Store) Episodes() domain.EpisodeRepo { return s.episodes }
func (s *Store) People() domain.PersonRepo    { return s.people }
func (s *Store) Cast() domain.CastRepo        { return s.cast }
func (s *Store) History() domain.HistoryRepo  { return s.history }

// InTx runs fn in a transaction, committing when fn returns nil and rolling
// back otherwise. Nested calls reuse the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx domain.Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.log.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = fn(newStore(s.log, s.db, tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil
}

var _ domain.Store = (*Store)(nil)
