package sqlite

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomicstack/keyspace-browser/internal/keystore"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.AddDatabase(ctx, 0, "db0"))
	require.NoError(t, s.AddDatabase(ctx, 3, "sessions"))

	for _, key := range []string{"user:2", "user:1", "counter"} {
		require.NoError(t, s.Put(ctx, 3, key, "v"))
	}
	require.NoError(t, s.Put(ctx, 3, "counter", "v2"))

	keys, err := s.Keys(ctx, 3)
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"counter", "user:1", "user:2"}, keys)

	n, err := s.KeyCount(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = s.KeyCount(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	dbs, err := s.Databases(ctx)
	require.NoError(t, err)
	assert.Equal(t, []keystore.Database{{Index: 0, Name: "db0"}, {Index: 3, Name: "sessions"}}, dbs)
}

func TestStoreUnknownDatabase(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Keys(ctx, 1)
	assert.True(t, keystore.IsUnknownDatabase(err))
	assert.True(t, keystore.IsUnknownDatabase(s.Put(ctx, 1, "k", "v")))
}

func TestStorePersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keys.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.AddDatabase(ctx, 0, "main"))
	require.NoError(t, s.Put(ctx, 0, "a:b", "c"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	keys, err := s.Keys(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a:b"}, keys)
}

func TestEnsureDatabasesKeepsExistingNames(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.AddDatabase(ctx, 1, "cache"))
	require.NoError(t, s.EnsureDatabases(ctx, 3))

	dbs, err := s.Databases(ctx)
	require.NoError(t, err)
	assert.Equal(t, []keystore.Database{
		{Index: 0, Name: "db0"},
		{Index: 1, Name: "cache"},
		{Index: 2, Name: "db2"},
	}, dbs)
}
