// Package metrics declares the Prometheus collectors exported by
// keyspace-browser and the optional HTTP listener serving them.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LoadsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "keyspace_browser_loads_started_total",
		Help: "Cumulative number of database key loads dispatched.",
	})
	LoadsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "keyspace_browser_loads_completed_total",
		Help: "Cumulative number of database key loads whose tree was adopted.",
	})
	LoadsEmpty = promauto.NewCounter(prometheus.CounterOpts{
		Name: "keyspace_browser_loads_empty_total",
		Help: "Cumulative number of database key loads which fetched no keys.",
	})
	LoadsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "keyspace_browser_loads_failed_total",
		Help: "Cumulative number of database key loads which failed to fetch or render.",
	})
	StaleResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "keyspace_browser_stale_results_total",
		Help: "Cumulative number of fetch or render results discarded because the database moved to a newer generation.",
	}, []string{"stage"})
	Unloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "keyspace_browser_unloads_total",
		Help: "Cumulative number of loaded key trees discarded.",
	})
	KeysRendered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "keyspace_browser_keys_rendered_total",
		Help: "Cumulative number of leaf keys placed into adopted trees.",
	})
	RenderSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "keyspace_browser_render_seconds",
		Help:    "Duration of namespace tree render passes.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
	})
	BackendPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "keyspace_browser_backend_polls_total",
		Help: "Cumulative number of backend watcher polls by kind and outcome.",
	}, []string{"kind", "outcome"})
)

// Serve exposes the default registry on addr until ctx is cancelled. An
// empty addr disables the listener.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
