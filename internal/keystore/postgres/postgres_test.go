package postgres

import (
	"context"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomicstack/keyspace-browser/internal/keystore"
)

// Set KEYSPACE_BROWSER_TEST_POSTGRES to a disposable database URL to run.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("KEYSPACE_BROWSER_TEST_POSTGRES")
	if url == "" {
		t.Skip("KEYSPACE_BROWSER_TEST_POSTGRES not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := Open(ctx, url)
	require.NoError(t, err)
	_, err = s.pool.Exec(ctx, `TRUNCATE kb_keys, kb_databases`)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.AddDatabase(ctx, 1, "cache"))
	require.NoError(t, s.Put(ctx, 1, "b", "1"))
	require.NoError(t, s.Put(ctx, 1, "a", "1"))

	keys, err := s.Keys(ctx, 1)
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"a", "b"}, keys)

	n, err := s.KeyCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	dbs, err := s.Databases(ctx)
	require.NoError(t, err)
	assert.Equal(t, []keystore.Database{{Index: 1, Name: "cache"}}, dbs)

	_, err = s.Keys(ctx, 9)
	assert.True(t, keystore.IsUnknownDatabase(err))
}
