// Package observability provides Prometheus metrics for the application.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics.
type Metrics struct {
	// Item metrics
	ItemsEnqueued  prometheus.Counter
	ItemsCompleted prometheus.Counter
	ItemsFailed    prometheus.Counter
	ItemsCancelled prometheus.Counter
	ItemsInFlight  prometheus.Gauge
	ItemDuration   prometheus.Histogram
	QueuePending   prometheus.Gauge

	// Stream metrics
	StreamRetries   *prometheus.CounterVec
	StreamFailures  *prometheus.CounterVec
	StreamCompleted *prometheus.CounterVec

	// Clipboard metrics
	ClipboardURLsDetected prometheus.Counter

	// History metrics
	HistoryEntries prometheus.Gauge
}

// New creates and registers all application metrics.
func New() *Metrics {
	return &Metrics{
		ItemsEnqueued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "clipdl",
			Subsystem: "items",
			Name:      "enqueued_total",
			Help:      "Total number of items enqueued",
		}),
		ItemsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "clipdl",
			Subsystem: "items",
			Name:      "completed_total",
			Help:      "Total number of items where at least one stream succeeded",
		}),
		ItemsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "clipdl",
			Subsystem: "items",
			Name:      "failed_total",
			Help:      "Total number of items where every requested stream failed",
		}),
		ItemsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "clipdl",
			Subsystem: "items",
			Name:      "cancelled_total",
			Help:      "Total number of items cancelled by the user",
		}),
		ItemsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "clipdl",
			Subsystem: "items",
			Name:      "in_flight",
			Help:      "Number of items currently downloading (0 or 1)",
		}),
		ItemDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clipdl",
			Subsystem: "items",
			Name:      "duration_seconds",
			Help:      "Histogram of full item download duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}),
		QueuePending: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "clipdl",
			Subsystem: "queue",
			Name:      "pending",
			Help:      "Number of items waiting in the queue",
		}),

		StreamRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clipdl",
			Subsystem: "streams",
			Name:      "retries_total",
			Help:      "Total number of stream retry attempts",
		}, []string{"kind"}),
		StreamFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clipdl",
			Subsystem: "streams",
			Name:      "failures_total",
			Help:      "Total number of streams that failed after all retries",
		}, []string{"kind"}),
		StreamCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clipdl",
			Subsystem: "streams",
			Name:      "completed_total",
			Help:      "Total number of streams transferred successfully",
		}, []string{"kind"}),

		ClipboardURLsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "clipdl",
			Subsystem: "clipboard",
			Name:      "urls_detected_total",
			Help:      "Total number of video URLs detected on the clipboard",
		}),

		HistoryEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "clipdl",
			Subsystem: "history",
			Name:      "entries_current",
			Help:      "Current number of history entries",
		}),
	}
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ItemTimer returns a function to record item duration.
func (m *Metrics) ItemTimer() func() {
	start := time.Now()

	return func() {
		m.ItemDuration.Observe(time.Since(start).Seconds())
	}
}

// RecordEnqueued increments the enqueued counter.
func (m *Metrics) RecordEnqueued() {
	m.ItemsEnqueued.Inc()
}

// RecordOutcome records an item's terminal state.
func (m *Metrics) RecordOutcome(ok, cancelled bool) {
	switch {
	case cancelled:
		m.ItemsCancelled.Inc()
	case ok:
		m.ItemsCompleted.Inc()
	default:
		m.ItemsFailed.Inc()
	}
}

// RecordRetry records one retry attempt for a stream.
func (m *Metrics) RecordRetry(kind string) {
	m.StreamRetries.WithLabelValues(kind).Inc()
}

// RecordStreamResult records the final outcome of one stream.
func (m *Metrics) RecordStreamResult(kind string, ok bool) {
	if ok {
		m.StreamCompleted.WithLabelValues(kind).Inc()
	} else {
		m.StreamFailures.WithLabelValues(kind).Inc()
	}
}

// RecordURLDetected increments the clipboard detection counter.
func (m *Metrics) RecordURLDetected() {
	m.ClipboardURLsDetected.Inc()
}

// SetQueuePending sets the pending queue depth.
func (m *Metrics) SetQueuePending(n int) {
	m.QueuePending.Set(float64(n))
}

// SetInFlight sets the in-flight gauge.
func (m *Metrics) SetInFlight(n int) {
	m.ItemsInFlight.Set(float64(n))
}

// SetHistoryEntries sets the history entry count.
func (m *Metrics) SetHistoryEntries(n int) {
	m.HistoryEntries.Set(float64(n))
}
