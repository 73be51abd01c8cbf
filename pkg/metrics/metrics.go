// Package metrics carries the engine's Prometheus instrumentation points:
// cursor opens, fetch windows, prepare retries, and exchange queue depth.
// Grounded on the teacher's pkg/metrics registration pattern and its
// addCmdMetrics-style call-site helpers in pkg/proxy/backend/metrics.go,
// scaled down to the counters this engine's components actually emit.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "mssql_cursor_engine"

var (
	CursorOpens = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cursor_opens_total",
		Help:      "Cursored queries opened via sp_cursoropen, sp_cursorprepexec or sp_cursorexecute.",
	})

	FetchWindows = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_windows_total",
		Help:      "sp_cursorfetch round trips issued across all cursors.",
	})

	PrepareRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "prepare_retries_total",
		Help:      "Silent sp_cursorprepexec retries after a prepared-handle invalidation.",
	})

	ExchangeQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "exchange_queue_depth",
		Help:      "Exchanges queued behind the one currently in flight on a connection.",
	})

	ExchangeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "exchange_duration_seconds",
		Help:      "Wall time from initial RPC send to exchange completion.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Register registers every collector with reg. Call once per process; a
// nil reg registers with prometheus.DefaultRegisterer.
func Register(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(CursorOpens, FetchWindows, PrepareRetries, ExchangeQueueDepth, ExchangeDuration)
}
