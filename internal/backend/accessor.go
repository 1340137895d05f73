package backend

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/atomicstack/keyspace-browser/internal/keystore"
	"github.com/atomicstack/keyspace-browser/internal/keytree"
	"github.com/atomicstack/keyspace-browser/internal/logging/events"
)

// DefaultFetchTimeout bounds a single key listing.
const DefaultFetchTimeout = 30 * time.Second

// AccessorConfig tunes an Accessor.
type AccessorConfig struct {
	Separator    string
	FetchTimeout time.Duration
	// MinInterval spaces consecutive key listings against the store.
	MinInterval time.Duration
}

// Accessor adapts a keystore.Store to the operations a database node
// loads keys through.
type Accessor struct {
	store    keystore.Store
	timeout  time.Duration
	throttle *throttle

	mu        sync.Mutex
	separator string
	onNewKey  func(db int)
}

var _ keytree.Operations = (*Accessor)(nil)

// NewAccessor wraps store.
func NewAccessor(store keystore.Store, cfg AccessorConfig) *Accessor {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Accessor{
		store:     store,
		timeout:   timeout,
		throttle:  newThrottle(cfg.MinInterval),
		separator: cfg.Separator,
	}
}

// Store returns the wrapped store.
func (a *Accessor) Store() keystore.Store { return a.store }

// RawKeys lists every key of database db. The listing runs on its own
// goroutine so a store that ignores cancellation still cannot hold the
// caller past the fetch timeout.
func (a *Accessor) RawKeys(ctx context.Context, db int) ([]string, error) {
	a.throttle.wait()
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type result struct {
		keys []string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		keys, err := a.store.Keys(ctx, db)
		done <- result{keys: keys, err: err}
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		r.err = ctx.Err()
	}
	if r.err != nil {
		if errors.Is(r.err, context.DeadlineExceeded) {
			r.err = errors.Wrapf(r.err, "listing keys of db%d timed out after %s", db, a.timeout)
		} else {
			r.err = errors.WithMessagef(r.err, "listing keys of db%d", db)
		}
		r.keys = nil
	}
	events.Backend.Fetch(db, len(r.keys), r.err)
	return r.keys, r.err
}

// NamespaceSeparator returns the currently configured separator.
func (a *Accessor) NamespaceSeparator() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.separator
}

// SetNamespaceSeparator changes the separator used by subsequent loads.
func (a *Accessor) SetNamespaceSeparator(sep string) {
	a.mu.Lock()
	a.separator = sep
	a.mu.Unlock()
}

// OnNewKey installs the handler RequestNewKey forwards to. The UI uses it to
// open the add-key form.
func (a *Accessor) OnNewKey(fn func(db int)) {
	a.mu.Lock()
	a.onNewKey = fn
	a.mu.Unlock()
}

// RequestNewKey asks the host to start the add-key flow for database db.
func (a *Accessor) RequestNewKey(db int) {
	events.Database.AddKeyPrompt(db)
	a.mu.Lock()
	fn := a.onNewKey
	a.mu.Unlock()
	if fn != nil {
		fn(db)
	}
}

// AddKey stores key in database db.
func (a *Accessor) AddKey(ctx context.Context, db int, key, value string) error {
	if key == "" {
		return errors.New("key must not be empty")
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	if err := a.store.Put(ctx, db, key, value); err != nil {
		return err
	}
	events.Database.AddKey(db, key)
	return nil
}
