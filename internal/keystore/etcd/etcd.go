// Package etcd maps numbered databases onto key prefixes of an etcd v3
// cluster: database N holds every key below "dbN/".
package etcd

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/atomicstack/keyspace-browser/internal/keystore"
)

// Config contains the connection options for the etcd store.
type Config struct {
	Endpoints   []string
	DialTimeout time.Duration
	Username    string
	Password    string
	// Databases is the number of logical databases exposed (default: 16).
	Databases int
}

// Store is a keystore.Store over etcd.
type Store struct {
	client    *clientv3.Client
	databases int
}

var _ keystore.Store = (*Store)(nil)

// New dials the cluster.
func New(cfg Config) (*Store, error) {
	if len(cfg.Endpoints) == 0 {
		cfg.Endpoints = []string{"localhost:2379"}
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.Databases <= 0 {
		cfg.Databases = 16
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "dialing etcd %v", cfg.Endpoints)
	}
	return &Store{client: client, databases: cfg.Databases}, nil
}

func (s *Store) Databases(_ context.Context) ([]keystore.Database, error) {
	out := make([]keystore.Database, s.databases)
	for i := range out {
		out[i] = keystore.Database{Index: i, Name: keystore.DefaultName(i)}
	}
	return out, nil
}

func (s *Store) Keys(ctx context.Context, db int) ([]string, error) {
	if db < 0 || db >= s.databases {
		return nil, keystore.UnknownDatabase(db)
	}
	prefix := keystore.DatabasePrefix(db)
	resp, err := s.client.Get(ctx, prefix, clientv3.WithPrefix(), clientv3.WithKeysOnly())
	if err != nil {
		return nil, errors.Wrapf(err, "listing etcd keys under %s", prefix)
	}
	keys := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		keys = append(keys, strings.TrimPrefix(string(kv.Key), prefix))
	}
	return keys, nil
}

func (s *Store) KeyCount(ctx context.Context, db int) (int, error) {
	if db < 0 || db >= s.databases {
		return 0, keystore.UnknownDatabase(db)
	}
	resp, err := s.client.Get(ctx, keystore.DatabasePrefix(db), clientv3.WithPrefix(), clientv3.WithCountOnly())
	if err != nil {
		return 0, errors.Wrapf(err, "counting etcd keys of db%d", db)
	}
	return int(resp.Count), nil
}

func (s *Store) Put(ctx context.Context, db int, key, value string) error {
	if db < 0 || db >= s.databases {
		return keystore.UnknownDatabase(db)
	}
	_, err := s.client.Put(ctx, keystore.DatabasePrefix(db)+key, value)
	return errors.Wrapf(err, "putting %q in db%d", key, db)
}

func (s *Store) Close() error {
	return s.client.Close()
}
