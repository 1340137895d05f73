// Package consul maps numbered databases onto key prefixes of a Consul KV
// store: database N holds every key below "dbN/".
package consul

import (
	"context"
	"strings"

	"github.com/hashicorp/consul/api"
	"github.com/pkg/errors"

	"github.com/atomicstack/keyspace-browser/internal/keystore"
)

// Config contains the connection options for the Consul store.
type Config struct {
	// Address of the Consul agent (default: "127.0.0.1:8500").
	Address string
	// Token for ACL authentication (optional).
	Token string
	// Datacenter to query (optional).
	Datacenter string
	// Databases is the number of logical databases exposed (default: 16).
	Databases int
}

// Store is a keystore.Store over Consul KV.
type Store struct {
	kv        *api.KV
	databases int
}

var _ keystore.Store = (*Store)(nil)

// New creates a Consul client. No request is made until the store is used.
func New(cfg Config) (*Store, error) {
	if cfg.Address == "" {
		cfg.Address = "127.0.0.1:8500"
	}
	if cfg.Databases <= 0 {
		cfg.Databases = 16
	}
	clientConfig := api.DefaultConfig()
	clientConfig.Address = cfg.Address
	if cfg.Token != "" {
		clientConfig.Token = cfg.Token
	}
	if cfg.Datacenter != "" {
		clientConfig.Datacenter = cfg.Datacenter
	}
	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, errors.Wrap(err, "creating consul client")
	}
	return &Store{kv: client.KV(), databases: cfg.Databases}, nil
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
	opts := (&api.QueryOptions{}).WithContext(ctx)
	raw, _, err := s.kv.Keys(prefix, "", opts)
	if err != nil {
		return nil, errors.Wrapf(err, "listing consul keys under %s", prefix)
	}
	keys := make([]string, 0, len(raw))
	for _, key := range raw {
		keys = append(keys, strings.TrimPrefix(key, prefix))
	}
	return keys, nil
}

func (s *Store) KeyCount(ctx context.Context, db int) (int, error) {
	keys, err := s.Keys(ctx, db)
	return len(keys), err
}

func (s *Store) Put(ctx context.Context, db int, key, value string) error {
	if db < 0 || db >= s.databases {
		return keystore.UnknownDatabase(db)
	}
	pair := &api.KVPair{Key: keystore.DatabasePrefix(db) + key, Value: []byte(value)}
	if _, err := s.kv.Put(pair, (&api.WriteOptions{}).WithContext(ctx)); err != nil {
		return errors.Wrapf(err, "putting %q in db%d", key, db)
	}
	return nil
}

// Close is a no-op; the Consul client holds no persistent connection.
func (s *Store) Close() error {
	return nil
}
