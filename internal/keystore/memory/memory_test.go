package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomicstack/keyspace-browser/internal/keystore"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(2)

	require.NoError(t, s.Put(ctx, 1, "b", "2"))
	require.NoError(t, s.Put(ctx, 1, "a", "1"))
	require.NoError(t, s.Put(ctx, 1, "a", "3"))

	keys, err := s.Keys(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	n, err := s.KeyCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	v, ok := s.Get(1, "a")
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	dbs, err := s.Databases(ctx)
	require.NoError(t, err)
	assert.Equal(t, []keystore.Database{{Index: 0, Name: "db0"}, {Index: 1, Name: "db1"}}, dbs)
}

func TestStoreUnknownDatabase(t *testing.T) {
	ctx := context.Background()
	s := New(1)

	_, err := s.Keys(ctx, 4)
	assert.True(t, keystore.IsUnknownDatabase(err))
	_, err = s.KeyCount(ctx, 4)
	assert.True(t, keystore.IsUnknownDatabase(err))
	assert.True(t, keystore.IsUnknownDatabase(s.Put(ctx, 4, "k", "v")))
}

func TestKeysHonoursCancelledContext(t *testing.T) {
	s := New(1)
	require.NoError(t, s.Put(context.Background(), 0, "k", "v"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Keys(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseFixture(t *testing.T) {
	s, err := Parse([]byte(`
databases:
  - name: cache
    keys:
      "user:1:name": alice
      "user:2:name": bob
  - index: 5
    keys:
      counter: "7"
`))
	require.NoError(t, err)

	dbs, err := s.Databases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []keystore.Database{{Index: 0, Name: "cache"}, {Index: 5, Name: "db5"}}, dbs)

	keys, err := s.Keys(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"user:1:name", "user:2:name"}, keys)

	v, ok := s.Get(5, "counter")
	require.True(t, ok)
	assert.Equal(t, "7", v)
}

func TestParseFixtureRejectsDuplicateIndex(t *testing.T) {
	_, err := Parse([]byte(`
databases:
  - index: 1
  - index: 1
`))
	assert.ErrorContains(t, err, "declared twice")
}

func TestLoadFixtureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("databases:\n  - keys: {a: b}\n"), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	n, err := s.KeyCount(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading fixture")
}

func TestReadOnlyWrapper(t *testing.T) {
	s := keystore.ReadOnly(New(1))
	err := s.Put(context.Background(), 0, "k", "v")
	assert.ErrorIs(t, err, keystore.ErrReadOnly)

	n, err := s.KeyCount(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDemoStore(t *testing.T) {
	s := Demo()
	dbs, err := s.Databases(context.Background())
	require.NoError(t, err)
	require.Len(t, dbs, 3)
	n, err := s.KeyCount(context.Background(), 2)
	require.NoError(t, err)
	assert.Zero(t, n)
}
