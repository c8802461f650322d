// Package metrics exposes Prometheus metrics for the clipfs daemon.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without a registry in tests.
package metrics

import (
	"net/http"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clipfs"

// Metrics groups every collector the daemon updates.
type Metrics struct {
	registry *prometheus.Registry

	swaps          *prometheus.CounterVec
	snapshotTypes  *prometheus.GaugeVec
	snapshotBytes  *prometheus.GaugeVec
	providerErrors *prometheus.CounterVec
	requests       *prometheus.CounterVec
	readBytes      prometheus.Counter
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		swaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_swaps_total",
			Help:      "Snapshots swapped in, by clipboard mode.",
		}, []string{"mode"}),
		snapshotTypes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_types",
			Help:      "MIME types held by the current snapshot.",
		}, []string{"mode"}),
		snapshotBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_bytes",
			Help:      "Total payload size of the current snapshot.",
		}, []string{"mode"}),
		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Clipboard provider failures while rebuilding a snapshot.",
		}, []string{"mode"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fs_requests_total",
			Help:      "Filesystem callbacks served, by operation and result.",
		}, []string{"op", "result"}),
		readBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fs_read_bytes_total",
			Help:      "Bytes returned by read callbacks.",
		}),
	}
	m.registry.MustRegister(
		m.swaps,
		m.snapshotTypes,
		m.snapshotBytes,
		m.providerErrors,
		m.requests,
		m.readBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SnapshotSwapped records a swap for mode with the new snapshot's shape.
func (m *Metrics) SnapshotSwapped(mode string, types, bytes int) {
	if m == nil {
		return
	}
	m.swaps.WithLabelValues(mode).Inc()
	m.snapshotTypes.WithLabelValues(mode).Set(float64(types))
	m.snapshotBytes.WithLabelValues(mode).Set(float64(bytes))
}

// ProviderError records a failed provider call for mode.
func (m *Metrics) ProviderError(mode string) {
	if m == nil {
		return
	}
	m.providerErrors.WithLabelValues(mode).Inc()
}

// Request records one filesystem callback and its errno (0 = success).
func (m *Metrics) Request(op string, errno syscall.Errno) {
	if m == nil {
		return
	}
	result := "ok"
	switch errno {
	case 0:
	case syscall.ENOENT:
		result = "not_found"
	case syscall.EACCES:
		result = "denied"
	default:
		result = "error"
	}
	m.requests.WithLabelValues(op, result).Inc()
}

// Read records bytes returned by a read callback.
func (m *Metrics) Read(n int) {
	if m == nil {
		return
	}
	m.readBytes.Add(float64(n))
}
