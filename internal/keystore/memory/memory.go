// Package memory is an in-process keystore backed by ordered B-trees. It is
// the default store and the fixture store used by tests.
package memory

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/tidwall/btree"
	"gopkg.in/yaml.v3"

	"github.com/atomicstack/keyspace-browser/internal/keystore"
)

type database struct {
	name string
	keys *btree.Map[string, string]
}

// Store holds every database in memory.
type Store struct {
	mu  sync.RWMutex
	dbs map[int]*database
}

var _ keystore.Store = (*Store)(nil)

// New returns a store with count empty databases named db0..db(count-1).
func New(count int) *Store {
	s := &Store{dbs: make(map[int]*database)}
	for i := 0; i < count; i++ {
		s.AddDatabase(i, keystore.DefaultName(i))
	}
	return s
}

// AddDatabase creates database index with the given name, or renames it if
// it already exists.
func (s *Store) AddDatabase(index int, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if db, ok := s.dbs[index]; ok {
		db.name = name
		return
	}
	s.dbs[index] = &database{name: name, keys: btree.NewMap[string, string](0)}
}

func (s *Store) Databases(_ context.Context) ([]keystore.Database, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]keystore.Database, 0, len(s.dbs))
	for index, db := range s.dbs {
		out = append(out, keystore.Database{Index: index, Name: db.name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (s *Store) Keys(ctx context.Context, db int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.dbs[db]
	if !ok {
		return nil, keystore.UnknownDatabase(db)
	}
	keys := make([]string, 0, d.keys.Len())
	var err error
	d.keys.Scan(func(key, _ string) bool {
		if err = ctx.Err(); err != nil {
			return false
		}
		keys = append(keys, key)
		return true
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *Store) KeyCount(_ context.Context, db int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.dbs[db]
	if !ok {
		return 0, keystore.UnknownDatabase(db)
	}
	return d.keys.Len(), nil
}

func (s *Store) Put(_ context.Context, db int, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dbs[db]
	if !ok {
		return keystore.UnknownDatabase(db)
	}
	d.keys.Set(key, value)
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(db int, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.dbs[db]
	if !ok {
		return "", false
	}
	return d.keys.Get(key)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, db := range s.dbs {
		db.keys.Clear()
	}
	return nil
}

// Fixture is the YAML layout accepted by Load.
//
//	databases:
//	  - index: 0
//	    name: cache
//	    keys:
//	      "user:1:name": alice
type Fixture struct {
	Databases []FixtureDatabase `yaml:"databases"`
}

// FixtureDatabase is one database of a Fixture. A zero Index with no
// explicit value takes the database's position in the list.
type FixtureDatabase struct {
	Index *int              `yaml:"index"`
	Name  string            `yaml:"name"`
	Keys  map[string]string `yaml:"keys"`
}

// Load reads a YAML fixture file into a new store.
func Load(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading fixture %s", path)
	}
	s, err := Parse(raw)
	if err != nil {
		return nil, errors.WithMessagef(err, "fixture %s", path)
	}
	return s, nil
}

// Parse decodes a YAML fixture into a new store.
func Parse(raw []byte) (*Store, error) {
	var fx Fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, errors.Wrap(err, "decoding fixture")
	}
	s := New(0)
	for pos, fdb := range fx.Databases {
		index := pos
		if fdb.Index != nil {
			index = *fdb.Index
		}
		if index < 0 {
			return nil, errors.Errorf("database %q has negative index %d", fdb.Name, index)
		}
		if _, dup := s.dbs[index]; dup {
			return nil, errors.Errorf("database index %d declared twice", index)
		}
		name := fdb.Name
		if name == "" {
			name = keystore.DefaultName(index)
		}
		s.AddDatabase(index, name)
		for key, value := range fdb.Keys {
			s.dbs[index].keys.Set(key, value)
		}
	}
	return s, nil
}

// Demo returns a small store used when no backing store or fixture is given.
func Demo() *Store {
	s := New(0)
	s.AddDatabase(0, "db0")
	s.AddDatabase(1, "sessions")
	s.AddDatabase(2, "empty")
	for _, key := range []string{
		"user:1:name", "user:1:email", "user:1:age",
		"user:2:name", "user:2:email",
		"cache:page:/", "cache:page:/about", "cache:page:/pricing",
		"counter", "queue", "queue:jobs", "queue:jobs:failed",
	} {
		_ = s.Put(context.Background(), 0, key, "")
	}
	for _, key := range []string{"session:8f1c", "session:a93d", "session:e042"} {
		_ = s.Put(context.Background(), 1, key, "")
	}
	return s
}
