package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

const timeLayout = "2006-01-02T15:04:05Z"

// sqlStore keeps values as JSON rows in the states table, one kind per store.
type sqlStore[T any] struct {
	db   *sqlx.DB
	kind string
}

type stateRow struct {
	Owner string `db:"owner"`
	Data  string `db:"data"`
}

// NewSQLStore returns a Store over db for values of the given kind
// (e.g. "round", "session"). db must have been opened with OpenDB.
func NewSQLStore[T any](db *sqlx.DB, kind string) Store[T] {
	return &sqlStore[T]{db: db, kind: kind}
}

func (s *sqlStore[T]) Save(ctx context.Context, owner, id string, v *T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO states (kind, id, owner, data, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(kind, id) DO UPDATE SET data=excluded.data, updated_at=excluded.updated_at
        WHERE states.owner=excluded.owner`,
		s.kind, id, owner, string(b), now(),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore[T]) Create(ctx context.Context, owner, id string, v *T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO states (kind, id, owner, data, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(kind, id) DO NOTHING`,
		s.kind, id, owner, string(b), now(),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrExists
	}
	return nil
}

func (s *sqlStore[T]) Get(ctx context.Context, owner, id string) (*T, error) {
	var row stateRow
	err := s.db.GetContext(ctx, &row, `SELECT owner, data FROM states WHERE kind=? AND id=?`, s.kind, id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && row.Owner != owner) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode[T]([]byte(row.Data))
}

func (s *sqlStore[T]) Update(ctx context.Context, owner, id string, fn func(*T) error) (*T, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var row stateRow
	err = tx.GetContext(ctx, &row, `SELECT owner, data FROM states WHERE kind=? AND id=?`, s.kind, id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && row.Owner != owner) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	v, err := decode[T]([]byte(row.Data))
	if err != nil {
		return nil, err
	}
	if err := fn(v); err != nil {
		return v, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE states SET data=?, updated_at=? WHERE kind=? AND id=?`,
		string(b), now(), s.kind, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *sqlStore[T]) Prune(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM states WHERE kind=? AND updated_at < ?`,
		s.kind, before.UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func now() string { return time.Now().UTC().Format(timeLayout) }
