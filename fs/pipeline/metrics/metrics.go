// Package metrics exposes the prometheus instrumentation the pipeline
// driver updates at the points it makes scheduling decisions: how
// many events each consumer has applied, how full the dedup pool is,
// how deep each consumer's queue is, and how long a flush takes.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every collector the driver touches, registered
// against a caller-supplied registry so a test can use its own and
// never collide with package-level state.
type Metrics struct {
	FseventsProcessed *prometheus.CounterVec
	DedupPoolSize     prometheus.Gauge
	ConsumerQueueDepth *prometheus.GaugeVec
	FlushDuration     prometheus.Histogram
}

// New builds a Metrics and registers its collectors against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FseventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rbh_fsevents_processed_total",
			Help: "Number of fsevents applied to a backend, by consumer.",
		}, []string{"consumer"}),
		DedupPoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rbh_dedup_pool_size",
			Help: "Number of distinct ids currently held in the dedup pool.",
		}),
		ConsumerQueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rbh_consumer_queue_depth",
			Help: "Number of batches queued for a consumer awaiting apply.",
		}, []string{"consumer"}),
		FlushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rbh_flush_duration_seconds",
			Help:    "Time taken to flush a batch of events from the dedup pool to a backend.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.FseventsProcessed, m.DedupPoolSize, m.ConsumerQueueDepth, m.FlushDuration)
	return m
}

// NewUnregistered builds a Metrics whose collectors are registered
// only against a fresh private prometheus.Registry, for tests that
// want to read field values directly without touching shared state.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
