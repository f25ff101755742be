// Package metrics exposes the purge diagnostics counters. Per-item delete
// failures never surface in a run's result, so the counters are the only
// machine readable record of what a run actually did.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PurgeMetrics counts purge engine events, partitioned by content kind
// (posts/comments) where the event belongs to one stream.
type PurgeMetrics struct {
	registry *prometheus.Registry

	PagesFetched  *prometheus.CounterVec
	ItemsExempted *prometheus.CounterVec
	ItemsDeleted  *prometheus.CounterVec
	DeleteFailed  *prometheus.CounterVec
	StreamsEnded  *prometheus.CounterVec
}

func NewPurgeMetrics() *PurgeMetrics {
	m := &PurgeMetrics{
		registry: prometheus.NewRegistry(),
		PagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "regreddit_pages_fetched_total",
			Help: "Listing pages fetched per content kind.",
		}, []string{"kind"}),
		ItemsExempted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "regreddit_items_exempted_total",
			Help: "Items skipped because their subreddit is whitelisted.",
		}, []string{"kind"}),
		ItemsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "regreddit_items_deleted_total",
			Help: "Items deleted successfully.",
		}, []string{"kind"}),
		DeleteFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "regreddit_delete_failures_total",
			Help: "Delete calls that failed. Failures do not fail the run.",
		}, []string{"kind"}),
		StreamsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "regreddit_streams_ended_early_total",
			Help: "Listing streams terminated before a natural short page.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.PagesFetched,
		m.ItemsExempted,
		m.ItemsDeleted,
		m.DeleteFailed,
		m.StreamsEnded,
	)

	return m
}

// Serve starts a metrics endpoint on addr for long running purges. It
// returns the server so the caller can shut it down.
func (m *PurgeMetrics) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
