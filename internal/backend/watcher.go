package backend

import (
	"context"
	"sync"
	"time"

	"github.com/atomicstack/keyspace-browser/internal/keystore"
	"github.com/atomicstack/keyspace-browser/internal/logging/events"
	"github.com/atomicstack/keyspace-browser/internal/metrics"
)

// Kind represents the type of data emitted by the backend watcher.
type Kind int

const (
	KindDatabases Kind = iota
	KindKeyCounts
)

func (k Kind) String() string {
	switch k {
	case KindDatabases:
		return "databases"
	case KindKeyCounts:
		return "key-counts"
	default:
		return "unknown"
	}
}

// Event conveys updated data or an error from a backend poll. Data is a
// []keystore.Database for KindDatabases and a []KeyCount for KindKeyCounts.
type Event struct {
	Kind Kind
	Data interface{}
	Err  error
}

// KeyCount is the approximate size of one database.
type KeyCount struct {
	Index int
	Count int
	Err   error
}

// Watcher polls the store at a fixed interval and publishes events.
type Watcher struct {
	store    keystore.Store
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	events chan Event
	wg     sync.WaitGroup
}

// NewWatcher creates a backend watcher that polls store every interval.
func NewWatcher(store keystore.Store, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		store:    store,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		events:   make(chan Event, 16),
	}

	w.startDatabasePoller()
	w.startKeyCountPoller()

	go func() {
		w.wg.Wait()
		close(w.events)
	}()

	return w
}

// Events returns a channel of backend events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop cancels the watcher. Pollers exit after their current fetch completes;
// use Wait if a clean drain is required (e.g. in tests).
func (w *Watcher) Stop() {
	w.cancel()
}

// Wait blocks until all poller goroutines have exited and the events channel
// is closed. Call after Stop when a clean shutdown is required.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

func (w *Watcher) startDatabasePoller() {
	throttle := newThrottle(250 * time.Millisecond)
	w.wg.Add(1)
	go w.poll(KindDatabases, func(ctx context.Context) (interface{}, error) {
		throttle.wait()
		return w.store.Databases(ctx)
	})
}

func (w *Watcher) startKeyCountPoller() {
	throttle := newThrottle(250 * time.Millisecond)
	w.wg.Add(1)
	go w.poll(KindKeyCounts, func(ctx context.Context) (interface{}, error) {
		throttle.wait()
		return FetchKeyCounts(ctx, w.store)
	})
}

// FetchKeyCounts asks the store for the approximate size of every database.
// A failing database is reported in its KeyCount rather than failing the
// whole poll.
func FetchKeyCounts(ctx context.Context, store keystore.Store) ([]KeyCount, error) {
	dbs, err := store.Databases(ctx)
	if err != nil {
		return nil, err
	}
	counts := make([]KeyCount, 0, len(dbs))
	for _, db := range dbs {
		n, err := store.KeyCount(ctx, db.Index)
		counts = append(counts, KeyCount{Index: db.Index, Count: n, Err: err})
	}
	return counts, nil
}

func (w *Watcher) poll(kind Kind, fetch func(context.Context) (interface{}, error)) {
	defer w.wg.Done()

	emit := func() bool {
		data, err := fetch(w.ctx)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.BackendPolls.WithLabelValues(kind.String(), outcome).Inc()
		events.Backend.Poll(kind.String(), err)
		evt := Event{Kind: kind, Data: data, Err: err}
		select {
		case <-w.ctx.Done():
			return false
		case w.events <- evt:
			return true
		}
	}

	if !emit() {
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			if !emit() {
				return
			}
		}
	}
}
