package backend

import (
	"context"
	"testing"
	"time"

	"github.com/atomicstack/keyspace-browser/internal/keystore"
	"github.com/atomicstack/keyspace-browser/internal/keystore/memory"
)

func TestWatcherPublishesDatabasesAndCounts(t *testing.T) {
	store := memory.New(2)
	if err := store.Put(context.Background(), 1, "k", "v"); err != nil {
		t.Fatal(err)
	}
	w := NewWatcher(store, time.Hour)
	defer func() {
		w.Stop()
		w.Wait()
	}()

	seen := map[Kind]Event{}
	timeout := time.After(5 * time.Second)
	for len(seen) < 2 {
		select {
		case evt := <-w.Events():
			seen[evt.Kind] = evt
		case <-timeout:
			t.Fatalf("timed out waiting for events, saw %v", seen)
		}
	}

	dbs, ok := seen[KindDatabases].Data.([]keystore.Database)
	if !ok || len(dbs) != 2 {
		t.Fatalf("unexpected databases payload %#v", seen[KindDatabases].Data)
	}
	counts, ok := seen[KindKeyCounts].Data.([]KeyCount)
	if !ok || len(counts) != 2 {
		t.Fatalf("unexpected counts payload %#v", seen[KindKeyCounts].Data)
	}
	if counts[1].Count != 1 || counts[0].Count != 0 {
		t.Fatalf("unexpected counts %+v", counts)
	}
}

func TestWatcherStopClosesEvents(t *testing.T) {
	w := NewWatcher(memory.New(1), time.Hour)
	w.Stop()
	w.Wait()
	for range w.Events() {
	}
}

func TestThrottleSpacesCalls(t *testing.T) {
	th := newThrottle(20 * time.Millisecond)
	start := time.Now()
	th.wait()
	th.wait()
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Fatalf("second wait returned after %s", elapsed)
	}
	var nilThrottle *throttle
	nilThrottle.wait()
}
