// Package sqlite stores databases and keys in a single SQLite file using the
// pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/atomicstack/keyspace-browser/internal/keystore"
)

const schema = `
CREATE TABLE IF NOT EXISTS kb_databases (
	idx  INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS kb_keys (
	db    INTEGER NOT NULL REFERENCES kb_databases(idx),
	key   TEXT NOT NULL,
	value TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (db, key)
);
`

// Store is a keystore.Store over a SQLite database.
type Store struct {
	db *sql.DB
}

var _ keystore.Store = (*Store)(nil)

// Open opens or creates the SQLite file at path. ":memory:" yields a private
// in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening sqlite %s", path)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enabling foreign keys")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initialising schema")
	}
	return &Store{db: db}, nil
}

// AddDatabase creates database index, or renames it if it already exists.
func (s *Store) AddDatabase(ctx context.Context, index int, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kb_databases (idx, name) VALUES (?, ?)
		 ON CONFLICT(idx) DO UPDATE SET name = excluded.name`, index, name)
	return errors.Wrapf(err, "adding database %d", index)
}

// EnsureDatabases creates databases 0..n-1 that do not exist yet, named
// db0..db(n-1). Existing names are left alone.
func (s *Store) EnsureDatabases(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO kb_databases (idx, name) VALUES (?, ?) ON CONFLICT DO NOTHING`, i, keystore.DefaultName(i))
		if err != nil {
			return errors.Wrapf(err, "creating database %d", i)
		}
	}
	return nil
}

func (s *Store) Databases(ctx context.Context) ([]keystore.Database, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT idx, name FROM kb_databases ORDER BY idx`)
	if err != nil {
		return nil, errors.Wrap(err, "listing databases")
	}
	defer rows.Close()

	var out []keystore.Database
	for rows.Next() {
		var d keystore.Database
		if err := rows.Scan(&d.Index, &d.Name); err != nil {
			return nil, errors.Wrap(err, "scanning database row")
		}
		out = append(out, d)
	}
	return out, errors.Wrap(rows.Err(), "listing databases")
}

func (s *Store) Keys(ctx context.Context, db int) ([]string, error) {
	if err := s.exists(ctx, db); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kb_keys WHERE db = ?`, db)
	if err != nil {
		return nil, errors.Wrapf(err, "listing keys of db%d", db)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.Wrap(err, "scanning key row")
		}
		keys = append(keys, key)
	}
	return keys, errors.Wrapf(rows.Err(), "listing keys of db%d", db)
}

func (s *Store) KeyCount(ctx context.Context, db int) (int, error) {
	if err := s.exists(ctx, db); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kb_keys WHERE db = ?`, db).Scan(&n)
	return n, errors.Wrapf(err, "counting keys of db%d", db)
}

func (s *Store) Put(ctx context.Context, db int, key, value string) error {
	if err := s.exists(ctx, db); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kb_keys (db, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(db, key) DO UPDATE SET value = excluded.value`, db, key, value)
	return errors.Wrapf(err, "putting %q in db%d", key, db)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) exists(ctx context.Context, db int) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM kb_databases WHERE idx = ?`, db).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return keystore.UnknownDatabase(db)
	case err != nil:
		return errors.Wrapf(err, "looking up db%d", db)
	}
	return nil
}
