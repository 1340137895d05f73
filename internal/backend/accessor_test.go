package backend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/atomicstack/keyspace-browser/internal/keystore"
	"github.com/atomicstack/keyspace-browser/internal/keystore/memory"
)

// stuckStore never answers a key listing and ignores cancellation.
type stuckStore struct {
	keystore.Store
	release chan struct{}
}

func (s stuckStore) Keys(context.Context, int) ([]string, error) {
	<-s.release
	return []string{"late"}, nil
}

func TestAccessorRawKeys(t *testing.T) {
	store := memory.New(1)
	ctx := context.Background()
	for _, key := range []string{"a:1", "a:2"} {
		if err := store.Put(ctx, 0, key, ""); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	acc := NewAccessor(store, AccessorConfig{Separator: ":"})

	keys, err := acc.RawKeys(ctx, 0)
	if err != nil {
		t.Fatalf("RawKeys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %v", keys)
	}
	if got := acc.NamespaceSeparator(); got != ":" {
		t.Fatalf("separator = %q", got)
	}
	acc.SetNamespaceSeparator("/")
	if got := acc.NamespaceSeparator(); got != "/" {
		t.Fatalf("separator after set = %q", got)
	}

	if _, err := acc.RawKeys(ctx, 7); !keystore.IsUnknownDatabase(err) {
		t.Fatalf("expected unknown database, got %v", err)
	}
}

func TestAccessorRawKeysTimesOut(t *testing.T) {
	store := stuckStore{Store: memory.New(1), release: make(chan struct{})}
	defer close(store.release)
	acc := NewAccessor(store, AccessorConfig{FetchTimeout: 20 * time.Millisecond})

	start := time.Now()
	keys, err := acc.RawKeys(context.Background(), 0)
	if err == nil {
		t.Fatalf("expected timeout, got keys %v", keys)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("unexpected message %q", err)
	}
	if keys != nil {
		t.Fatalf("expected no keys, got %v", keys)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout took %s", elapsed)
	}
}

func TestAccessorRequestNewKey(t *testing.T) {
	acc := NewAccessor(memory.New(1), AccessorConfig{})
	acc.RequestNewKey(0) // no handler installed

	var got []int
	acc.OnNewKey(func(db int) { got = append(got, db) })
	acc.RequestNewKey(3)
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("handler saw %v", got)
	}
}

func TestAccessorAddKey(t *testing.T) {
	store := memory.New(1)
	acc := NewAccessor(store, AccessorConfig{})
	ctx := context.Background()

	if err := acc.AddKey(ctx, 0, "", "v"); err == nil {
		t.Fatalf("expected empty key to be rejected")
	}
	if err := acc.AddKey(ctx, 0, "new:key", "v"); err != nil {
		t.Fatalf("AddKey: %v", err)
	}
	if v, ok := store.Get(0, "new:key"); !ok || v != "v" {
		t.Fatalf("stored value = %q, %v", v, ok)
	}

	ro := NewAccessor(keystore.ReadOnly(store), AccessorConfig{})
	if err := ro.AddKey(ctx, 0, "other", "v"); !errors.Is(err, keystore.ErrReadOnly) {
		t.Fatalf("expected read-only error, got %v", err)
	}
}
