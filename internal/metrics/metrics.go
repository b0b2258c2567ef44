// Package metrics exposes Prometheus collectors for the record stream server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// StreamsActive counts open record streams
	StreamsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "filegraph_streams_active",
		Help: "Record streams currently open",
	})

	// StreamsTotal counts finished streams by status
	StreamsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filegraph_streams_total",
		Help: "Finished record streams by status",
	}, []string{"status"})

	// RecordsSent counts records written to clients by phase (scan or watch)
	RecordsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filegraph_records_sent_total",
		Help: "File records written to clients",
	}, []string{"phase"})

	// BytesScanned sums the size field of every record sent
	BytesScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filegraph_bytes_scanned_total",
		Help: "Sum of file sizes reported to clients",
	})

	// StatSkipped counts files dropped because stat failed
	StatSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filegraph_stat_skipped_total",
		Help: "Files skipped because stat failed",
	})

	// ScanDuration tracks the initial walk latency
	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "filegraph_scan_duration_seconds",
		Help:    "Initial walk duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
	})
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
