package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	Resolutions      *prometheus.CounterVec
	DirectoryEntries prometheus.Gauge
	DirectoryListed  prometheus.Gauge
	DownloadAttempts *prometheus.CounterVec
	ToolCalls        *prometheus.CounterVec
}

// New creates and registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UpstreamRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "opendart_upstream_requests_total",
			Help: "DART OpenAPI requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		UpstreamLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "opendart_upstream_request_duration_seconds",
			Help:    "DART OpenAPI request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "opendart_corpcode_resolutions_total",
			Help: "Identifier resolutions by query kind and outcome",
		}, []string{"kind", "outcome"}),
		DirectoryEntries: f.NewGauge(prometheus.GaugeOpts{
			Name: "opendart_corpcode_directory_entries",
			Help: "Entries in the loaded corp code directory",
		}),
		DirectoryListed: f.NewGauge(prometheus.GaugeOpts{
			Name: "opendart_corpcode_directory_listed_entries",
			Help: "Listed companies in the loaded corp code directory",
		}),
		DownloadAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "opendart_corpcode_download_attempts_total",
			Help: "Bulk directory download attempts by outcome",
		}, []string{"outcome"}),
		ToolCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "opendart_tool_calls_total",
			Help: "Tool invocations by tool and outcome",
		}, []string{"tool", "outcome"}),
	}
}

func (m *Metrics) ObserveUpstream(endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	m.UpstreamLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveResolution(kind, outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) SetDirectorySize(total, listed int) {
	if m == nil {
		return
	}
	m.DirectoryEntries.Set(float64(total))
	m.DirectoryListed.Set(float64(listed))
}

func (m *Metrics) ObserveDownloadAttempt(outcome string) {
	if m == nil {
		return
	}
	m.DownloadAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveToolCall(tool, outcome string) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
}
