// Package metrics instruments download-and-install invocations with prometheus.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sideload"

// Result label values.
const (
	ResultOK              = "ok"
	ResultNeedsPermission = "needs_permission"
	ResultRejected        = "rejected"
)

// Metrics holds the collectors.
type Metrics struct {
	invocations      *prometheus.CounterVec
	redirects        prometheus.Counter
	downloadedBytes  prometheus.Counter
	downloadDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Download-and-install invocations by terminal result and rejection kind.",
		}, []string{"result", "kind"}),
		redirects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Redirect hops followed.",
		}),
		downloadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_bytes_total",
			Help:      "Bytes written to completed package files.",
		}),
		downloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_duration_seconds",
			Help:      "Time from first request to a flushed package file.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.invocations, m.redirects, m.downloadedBytes, m.downloadDuration)
	}
	return m
}

// ObserveResult counts one terminal result. kind is empty unless rejected.
func (m *Metrics) ObserveResult(result, kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "none"
	}
	m.invocations.WithLabelValues(result, kind).Inc()
}

// IncRedirects counts one followed redirect.
func (m *Metrics) IncRedirects() {
	if m == nil {
		return
	}
	m.redirects.Inc()
}

// AddDownloadedBytes adds n written bytes.
func (m *Metrics) AddDownloadedBytes(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.downloadedBytes.Add(float64(n))
}

// ObserveDownloadDuration records a completed download.
func (m *Metrics) ObserveDownloadDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.downloadDuration.Observe(d.Seconds())
}
