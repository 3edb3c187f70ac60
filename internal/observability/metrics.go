// Package observability exposes Prometheus collectors for tool calls and the
// record store.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	toolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chronos",
		Name:      "tool_calls_total",
		Help:      "Tool calls handled, by tool and outcome.",
	}, []string{"tool", "outcome"})
	toolCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chronos",
		Name:      "tool_call_duration_seconds",
		Help:      "Wall time spent answering a tool call.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 60},
	}, []string{"tool"})
	persistFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chronos",
		Subsystem: "store",
		Name:      "persist_failures_total",
		Help:      "Store writes that failed and were rolled back.",
	}, []string{"backend"})
	storeRecords = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "chronos",
		Subsystem: "store",
		Name:      "records",
		Help:      "Records currently held by the store, by collection.",
	}, []string{"collection"})
)

func init() {
	prometheus.MustRegister(toolCalls, toolCallDuration, persistFailures, storeRecords)
}

// RecordToolCall counts one finished tool call and its latency.
func RecordToolCall(tool, outcome string, elapsed time.Duration) {
	toolCalls.WithLabelValues(tool, outcome).Inc()
	toolCallDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// RecordPersistFailure counts a failed store write.
func RecordPersistFailure(backend string) {
	persistFailures.WithLabelValues(backend).Inc()
}

// SetStoreRecords updates the record gauge for a collection.
func SetStoreRecords(collection string, n int) {
	storeRecords.WithLabelValues(collection).Set(float64(n))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
