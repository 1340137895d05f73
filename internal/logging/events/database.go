package events

import "github.com/atomicstack/keyspace-browser/internal/logging"

type DatabaseTracer struct{}

var Database = DatabaseTracer{}

func (DatabaseTracer) LoadRequested(index int, generation uint64, separator string) {
	logging.Trace("database.load.request", map[string]interface{}{
		"index":      index,
		"generation": generation,
		"separator":  separator,
	})
}

func (DatabaseTracer) LoadSkipped(index int, reason string) {
	logging.Trace("database.load.skip", map[string]interface{}{"index": index, "reason": reason})
}

func (DatabaseTracer) Fetched(index int, generation uint64, keys int) {
	logging.Trace("database.load.fetched", map[string]interface{}{
		"index":      index,
		"generation": generation,
		"keys":       keys,
	})
}

func (DatabaseTracer) Rendered(index int, generation uint64, topLevel, leaves int) {
	logging.Trace("database.load.rendered", map[string]interface{}{
		"index":      index,
		"generation": generation,
		"topLevel":   topLevel,
		"leaves":     leaves,
	})
}

func (DatabaseTracer) LoadFailed(index int, generation uint64, err error) {
	if err == nil {
		return
	}
	logging.Error(err)
	logging.Trace("database.load.error", map[string]interface{}{
		"index":      index,
		"generation": generation,
		"error":      err.Error(),
	})
}

func (DatabaseTracer) Stale(index int, stamped, current uint64, stage string) {
	logging.Trace("database.load.stale", map[string]interface{}{
		"index":   index,
		"stamped": stamped,
		"current": current,
		"stage":   stage,
	})
}

func (DatabaseTracer) Unload(index int, generation uint64, inFlight bool) {
	logging.Trace("database.unload", map[string]interface{}{
		"index":      index,
		"generation": generation,
		"inFlight":   inFlight,
	})
}

func (DatabaseTracer) AddKeyPrompt(index int) {
	logging.Trace("database.add-key.prompt", map[string]interface{}{"index": index})
}

func (DatabaseTracer) AddKey(index int, key string) {
	logging.Trace("database.add-key", map[string]interface{}{"index": index, "key": key})
}

func (DatabaseTracer) AddKeyCancelled(index int) {
	logging.Trace("database.add-key.cancel", map[string]interface{}{"index": index})
}

func (DatabaseTracer) FilterChanged(index int, filter string) {
	logging.Trace("database.filter", map[string]interface{}{"index": index, "filter": filter})
}
