// Package keystore defines the storage abstraction the browser lists keys
// from. A store exposes a small, fixed set of numbered logical databases,
// each holding a flat set of string keys.
package keystore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownDatabase is returned for a database index the store does not hold.
	ErrUnknownDatabase = errors.New("unknown database")
	// ErrReadOnly is returned by Put on a store opened read-only.
	ErrReadOnly = errors.New("store is read-only")
)

// Database describes one logical database of a store.
type Database struct {
	Index int
	Name  string
}

func (d Database) String() string {
	if d.Name == "" {
		return fmt.Sprintf("db%d", d.Index)
	}
	return d.Name
}

// Store is implemented by every backing driver. Implementations must be safe
// for concurrent use: keys are listed from worker goroutines while the
// watcher polls counts.
type Store interface {
	// Databases lists the logical databases ordered by index.
	Databases(ctx context.Context) ([]Database, error)
	// Keys returns every key of database db in no particular order.
	Keys(ctx context.Context, db int) ([]string, error)
	// KeyCount returns an approximate number of keys in database db.
	KeyCount(ctx context.Context, db int) (int, error)
	// Put creates or replaces key in database db.
	Put(ctx context.Context, db int, key, value string) error
	Close() error
}

// DatabasePrefix is the key prefix prefix-partitioned stores (consul, etcd)
// use for database n.
func DatabasePrefix(n int) string {
	return "db" + strconv.Itoa(n) + "/"
}

// ParseDatabasePrefix extracts the database index from a key beginning with
// a DatabasePrefix.
func ParseDatabasePrefix(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, "db")
	if !ok {
		return 0, false
	}
	digits, _, found := strings.Cut(rest, "/")
	if !found || digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 || strconv.Itoa(n) != digits {
		return 0, false
	}
	return n, true
}

// DefaultName is the display name used when a driver has no better one.
func DefaultName(n int) string {
	return "db" + strconv.Itoa(n)
}

// ReadOnly wraps s so that Put always fails with ErrReadOnly.
func ReadOnly(s Store) Store {
	return readOnly{s}
}

type readOnly struct{ Store }

func (readOnly) Put(_ context.Context, db int, key, _ string) error {
	return errors.Wrapf(ErrReadOnly, "put %q in db%d", key, db)
}

// IsUnknownDatabase reports whether err was caused by ErrUnknownDatabase.
func IsUnknownDatabase(err error) bool {
	return errors.Is(err, ErrUnknownDatabase)
}

// UnknownDatabase wraps ErrUnknownDatabase with the offending index.
func UnknownDatabase(db int) error {
	return errors.Wrapf(ErrUnknownDatabase, "db%d", db)
}
