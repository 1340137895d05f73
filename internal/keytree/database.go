package keytree

import (
	"context"
	"fmt"
	"time"

	"github.com/atomicstack/keyspace-browser/internal/logging/events"
	"github.com/atomicstack/keyspace-browser/internal/metrics"
)

// LoadState tracks where a database node is in its load lifecycle.
type LoadState int

const (
	StateEmpty LoadState = iota
	StateLoading
	StateLoaded
)

func (s LoadState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// EventKind enumerates the notifications a database node emits.
type EventKind int

const (
	EventKeysLoaded EventKind = iota
	EventUnloadStarted
	EventIconRefresh
)

func (k EventKind) String() string {
	switch k {
	case EventKeysLoaded:
		return "keys-loaded"
	case EventUnloadStarted:
		return "unload-started"
	case EventIconRefresh:
		return "icon-refresh"
	default:
		return "unknown"
	}
}

// Event carries no payload beyond the database index; observers re-query
// node state after receiving one.
type Event struct {
	Kind  EventKind
	Index int
}

// Operations is the backend accessor a database node loads keys through.
type Operations interface {
	RawKeys(ctx context.Context, dbIndex int) ([]string, error)
	NamespaceSeparator() string
	RequestNewKey(dbIndex int)
}

// Executor runs work off the interactive context. The function work returns
// is applied back on the interactive context once work completes.
type Executor interface {
	Go(work func() func())
}

// Action is one entry of a node's secondary-action menu.
type Action struct {
	ID    string
	Label string
	Run   func()
}

const (
	ActionAddKey = "db:add-key"
	ActionReload = "db:reload"
)

// DatabaseConfig describes a database node at construction time.
type DatabaseConfig struct {
	Name       string
	Index      int
	KeyCount   int
	Operations Operations
	Executor   Executor
	Parent     Node
	Context    context.Context
}

// DatabaseNode owns the top-level key tree of one logical database and
// drives its load/unload lifecycle. All methods must be called from the
// interactive context; only the fetch and render work runs elsewhere.
type DatabaseNode struct {
	name     string
	index    int
	keyCount int
	ops      Operations
	exec     Executor
	parent   Node
	ctx      context.Context

	children   []Node
	loadedKeys int
	state      LoadState
	locked     bool
	generation uint64
	filter     Filter
	lastErr    error

	observers map[int]func(Event)
	nextObs   int
}

// NewDatabaseNode constructs an empty, unlocked database node.
func NewDatabaseNode(cfg DatabaseConfig) *DatabaseNode {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return &DatabaseNode{
		name:     cfg.Name,
		index:    cfg.Index,
		keyCount: cfg.KeyCount,
		ops:      cfg.Operations,
		exec:     cfg.Executor,
		parent:   cfg.Parent,
		ctx:      ctx,
	}
}

func (d *DatabaseNode) Kind() Kind      { return KindDatabase }
func (d *DatabaseNode) Parent() Node    { return d.parent }
func (d *DatabaseNode) ChildCount() int { return len(d.children) }

func (d *DatabaseNode) Child(i int) Node {
	if i < 0 || i >= len(d.children) {
		return nil
	}
	return d.children[i]
}

// Children returns a copy of the current top-level nodes.
func (d *DatabaseNode) Children() []Node { return cloneNodes(d.children) }

// DisplayName is the bare name until keys are loaded, then
// "name (loaded/total)".
func (d *DatabaseNode) DisplayName() string {
	if len(d.children) == 0 {
		return d.name
	}
	return fmt.Sprintf("%s (%d/%d)", d.name, d.loadedKeys, d.keyCount)
}

// Icon depends on the lock flag only.
func (d *DatabaseNode) Icon() Icon {
	if d.locked {
		return IconBusy
	}
	return IconDatabase
}

func (d *DatabaseNode) Name() string       { return d.name }
func (d *DatabaseNode) Index() int         { return d.index }
func (d *DatabaseNode) State() LoadState   { return d.state }
func (d *DatabaseNode) Locked() bool       { return d.locked }
func (d *DatabaseNode) KeyCount() int      { return d.keyCount }
func (d *DatabaseNode) LoadedKeys() int    { return d.loadedKeys }
func (d *DatabaseNode) Generation() uint64 { return d.generation }
func (d *DatabaseNode) Filter() Filter     { return d.filter }

// LastError reports why the most recent load produced nothing, if it failed.
func (d *DatabaseNode) LastError() error { return d.lastErr }

// SetKeyCount records the separately fetched approximate key total.
func (d *DatabaseNode) SetKeyCount(n int) {
	d.keyCount = n
}

// SetName updates the display name, e.g. after the backend renames a database.
func (d *DatabaseNode) SetName(name string) {
	d.name = name
}

// Subscribe registers an observer and returns a function removing it.
func (d *DatabaseNode) Subscribe(fn func(Event)) func() {
	if fn == nil {
		return func() {}
	}
	if d.observers == nil {
		d.observers = make(map[int]func(Event))
	}
	id := d.nextObs
	d.nextObs++
	d.observers[id] = fn
	return func() { delete(d.observers, id) }
}

func (d *DatabaseNode) emit(kind EventKind) {
	evt := Event{Kind: kind, Index: d.index}
	for id := 0; id < d.nextObs; id++ {
		if fn, ok := d.observers[id]; ok {
			fn(evt)
		}
	}
}

// Activate is the host's primary interaction entry point.
func (d *DatabaseNode) Activate() {
	d.EnsureLoaded()
}

// SecondaryActions lists the context-menu actions for this database.
func (d *DatabaseNode) SecondaryActions() []Action {
	return []Action{
		{ID: ActionAddKey, Label: "Add new key", Run: func() {
			if d.ops != nil {
				d.ops.RequestNewKey(d.index)
			}
		}},
		{ID: ActionReload, Label: "Reload", Run: d.Reload},
	}
}

// EnsureLoaded populates the node's children unless they are already
// present or a load is in flight. An already-loaded node re-emits
// EventKeysLoaded without fetching again.
func (d *DatabaseNode) EnsureLoaded() {
	if len(d.children) > 0 {
		events.Database.LoadSkipped(d.index, "loaded")
		d.emit(EventKeysLoaded)
		return
	}
	if d.state == StateLoading {
		events.Database.LoadSkipped(d.index, "in-flight")
		return
	}
	if d.ops == nil || d.exec == nil {
		d.lastErr = fmt.Errorf("database %d has no backend", d.index)
		return
	}

	d.generation++
	gen := d.generation
	d.state = StateLoading
	d.locked = true
	d.lastErr = nil
	d.emit(EventIconRefresh)

	separator := d.ops.NamespaceSeparator()
	ctx, ops, index := d.ctx, d.ops, d.index
	metrics.LoadsStarted.Inc()
	events.Database.LoadRequested(index, gen, separator)

	d.exec.Go(func() func() {
		keys, err := ops.RawKeys(ctx, index)
		return func() { d.keysFetched(gen, separator, keys, err) }
	})
}

func (d *DatabaseNode) keysFetched(gen uint64, separator string, keys []string, err error) {
	if gen != d.generation {
		metrics.StaleResults.WithLabelValues("fetch").Inc()
		events.Database.Stale(d.index, gen, d.generation, "fetch")
		return
	}
	if err != nil {
		metrics.LoadsFailed.Inc()
		events.Database.LoadFailed(d.index, gen, err)
		d.lastErr = err
		d.settleEmpty()
		return
	}
	events.Database.Fetched(d.index, gen, len(keys))
	if len(keys) == 0 {
		metrics.LoadsEmpty.Inc()
		d.settleEmpty()
		return
	}

	filter := d.filter
	d.exec.Go(func() func() {
		nodes, leaves, renderErr := d.render(keys, separator, filter)
		return func() { d.keysRendered(gen, nodes, leaves, renderErr) }
	})
}

// render runs on a worker. A panic inside Render yields an empty result so
// the node never stays locked.
func (d *DatabaseNode) render(keys []string, separator string, filter Filter) (nodes []Node, leaves int, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			nodes, leaves = nil, 0
			err = fmt.Errorf("render database %d: %v", d.index, r)
		}
		metrics.RenderSeconds.Observe(time.Since(start).Seconds())
	}()
	nodes = Render(keys, separator, filter, d)
	leaves = len(Leaves(nodes))
	return nodes, leaves, nil
}

func (d *DatabaseNode) keysRendered(gen uint64, nodes []Node, leaves int, err error) {
	if gen != d.generation {
		metrics.StaleResults.WithLabelValues("render").Inc()
		events.Database.Stale(d.index, gen, d.generation, "render")
		releaseAll(nodes)
		return
	}
	if err != nil {
		metrics.LoadsFailed.Inc()
		events.Database.LoadFailed(d.index, gen, err)
		d.lastErr = err
		d.settleEmpty()
		return
	}
	d.children = nodes
	d.loadedKeys = leaves
	d.state = StateLoaded
	d.locked = false
	metrics.LoadsCompleted.Inc()
	metrics.KeysRendered.Add(float64(leaves))
	events.Database.Rendered(d.index, gen, len(nodes), leaves)
	d.emit(EventKeysLoaded)
}

// settleEmpty ends a load that produced nothing. Only the icon changes, so
// EventKeysLoaded is not emitted.
func (d *DatabaseNode) settleEmpty() {
	d.state = StateEmpty
	d.locked = false
	d.emit(EventIconRefresh)
}

// Unload discards the loaded tree synchronously. It is a no-op on a node
// with nothing loaded. Unloading while a load is in flight abandons that
// load: its result is discarded when it arrives.
func (d *DatabaseNode) Unload() {
	if d.state == StateLoading {
		d.generation++
		d.locked = true
		events.Database.Unload(d.index, d.generation, true)
		d.emit(EventUnloadStarted)
		d.state = StateEmpty
		d.locked = false
		d.emit(EventIconRefresh)
		return
	}
	if len(d.children) == 0 {
		d.state = StateEmpty
		return
	}

	d.locked = true
	d.generation++
	events.Database.Unload(d.index, d.generation, false)
	metrics.Unloads.Inc()
	d.emit(EventUnloadStarted)

	old := d.children
	d.children = nil
	d.loadedKeys = 0
	releaseAll(old)
	d.state = StateEmpty
	d.locked = false
}

// Reload unloads and then loads again, always refetching.
func (d *DatabaseNode) Reload() {
	d.Unload()
	d.EnsureLoaded()
}

// SetFilter changes the key filter used by subsequent renders. A node with
// keys loaded or loading is reloaded so the new filter takes effect.
func (d *DatabaseNode) SetFilter(f Filter) {
	d.filter = f
	if len(d.children) > 0 || d.state == StateLoading {
		d.Reload()
	}
}
