// Package metrics exposes Prometheus instrumentation on a dedicated listener,
// kept off the API port so scrapes never compete with client traffic.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TransitionsTotal counts lifecycle transition requests by action and outcome.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "enclave_transitions_total",
		Help: "Lifecycle transition requests by action and outcome.",
	}, []string{"action", "outcome"})

	// FetcherFailuresTotal counts log backend calls that failed and degraded
	// to an empty result.
	FetcherFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "enclave_log_fetcher_failures_total",
		Help: "Log source backend failures, by source.",
	}, []string{"source"})

	// FetchDuration observes end-to-end aggregate log fetch latency.
	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "enclave_log_fetch_duration_seconds",
		Help:    "Aggregate log fetch duration, by requested filter.",
		Buckets: prometheus.DefBuckets,
	}, []string{"filter"})

	// TriggerFailuresTotal counts destroy-workflow triggers that failed after
	// the status write had already committed.
	TriggerFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "enclave_destroy_trigger_failures_total",
		Help: "Best-effort destroy workflow triggers that failed.",
	})
)

// MetricsServer serves the Prometheus scrape endpoint.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the given listen address.
func New(addr string) (*MetricsServer, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}, nil
}

// ListenAndServe blocks serving scrapes until Shutdown.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the listener.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
