package dispatcher

import (
	"github.com/atomicstack/keyspace-browser/internal/backend"
	"github.com/atomicstack/keyspace-browser/internal/keystore"
	"github.com/atomicstack/keyspace-browser/internal/logging"
	"github.com/atomicstack/keyspace-browser/internal/state"
)

type Result struct {
	DatabasesUpdated bool
	CountsUpdated    bool
	Sync             state.SyncResult
	Err              error
}

type Dispatcher struct {
	databases state.DatabaseStore
	factory   state.NodeFactory
}

func New(databases state.DatabaseStore, factory state.NodeFactory) *Dispatcher {
	return &Dispatcher{databases: databases, factory: factory}
}

// Handle applies one watcher event. Databases that disappeared from the
// backend are unloaded so any view of their keys is torn down.
func (d *Dispatcher) Handle(evt backend.Event) Result {
	var res Result
	if evt.Err != nil {
		res.Err = evt.Err
		return res
	}
	switch evt.Kind {
	case backend.KindDatabases:
		if dbs, ok := evt.Data.([]keystore.Database); ok {
			res.Sync = d.databases.Sync(dbs, d.factory)
			for _, node := range res.Sync.Removed {
				node.Unload()
			}
			res.DatabasesUpdated = res.Sync.Changed()
		}
	case backend.KindKeyCounts:
		if counts, ok := evt.Data.([]backend.KeyCount); ok {
			for _, c := range counts {
				if c.Err != nil {
					logging.Error(c.Err)
					continue
				}
				if d.databases.SetKeyCount(c.Index, c.Count) {
					res.CountsUpdated = true
				}
			}
		}
	}
	return res
}
