package events

import "github.com/atomicstack/keyspace-browser/internal/logging"

type AppTracer struct{}

type BackendTracer struct{}

var (
	App     = AppTracer{}
	Backend = BackendTracer{}
)

func (AppTracer) Start(payload map[string]interface{}) {
	logging.Trace("app.start", payload)
}

func (AppTracer) Stop(err error) {
	payload := map[string]interface{}{}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("app.stop", payload)
}

func (BackendTracer) Open(scheme, target string) {
	logging.Trace("backend.open", map[string]interface{}{"scheme": scheme, "target": target})
}

func (BackendTracer) Poll(kind string, err error) {
	payload := map[string]interface{}{"kind": kind}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("backend.poll", payload)
}

func (BackendTracer) Fetch(index int, keys int, err error) {
	payload := map[string]interface{}{"index": index, "keys": keys}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("backend.fetch", payload)
}
