package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GriffinCanCode/minicode/internal/domain/relay"
)

const namespace = "minicode"

// Metrics holds all Prometheus metrics on a private registry
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Preview pipeline metrics
	Runs             prometheus.Counter
	SandboxFailures  prometheus.Counter
	DebouncedCommits prometheus.Counter

	// Relay metrics
	RelayMessages     *prometheus.CounterVec
	StaleMessages     prometheus.Counter
	MalformedMessages prometheus.Counter

	// Persistence metrics
	Saves *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for the JSON health endpoint
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds running totals for the JSON health endpoint
type Snapshot struct {
	TotalRequests int64   `json:"total_requests"`
	TotalErrors   int64   `json:"total_errors"`
	AvgLatencyMS  float64 `json:"avg_latency_ms"`
	Runs          int64   `json:"runs"`
	UptimeSeconds float64 `json:"uptime_seconds"`

	totalDuration float64
}

// NewMetrics creates a metrics collector with its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		Runs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preview_runs_total",
			Help:      "Total number of preview runs started",
		}),
		SandboxFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sandbox_creation_failures_total",
			Help:      "Total number of sandboxes that could not be created",
		}),
		DebouncedCommits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debounced_commits_total",
			Help:      "Total number of edit bursts committed after the quiet period",
		}),

		RelayMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "relay_messages_total",
				Help:      "Relay messages accepted from the active sandbox",
			},
			[]string{"type"},
		),
		StaleMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_stale_dropped_total",
			Help:      "Relay messages dropped because their sandbox was replaced",
		}),
		MalformedMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_malformed_dropped_total",
			Help:      "Relay messages dropped because they did not match the protocol",
		}),

		Saves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persistence_saves_total",
				Help:      "Persistence writes by outcome",
			},
			[]string{"status"},
		),

		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Number of connected host UIs",
		}),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ws_messages_total",
				Help:      "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "uptime_seconds",
		Help:      "Server uptime in seconds",
	}, func() float64 { return time.Since(m.startTime).Seconds() })

	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// RunStarted counts a preview run
func (m *Metrics) RunStarted() {
	m.Runs.Inc()
	m.mu.Lock()
	m.snapshot.Runs++
	m.mu.Unlock()
}

// SandboxFailed counts a sandbox creation failure
func (m *Metrics) SandboxFailed() {
	m.SandboxFailures.Inc()
}

// RelayMessage counts an accepted relay message
func (m *Metrics) RelayMessage(t relay.Type) {
	m.RelayMessages.WithLabelValues(string(t)).Inc()
}

// StaleDropped counts a relay message from a replaced sandbox
func (m *Metrics) StaleDropped() {
	m.StaleMessages.Inc()
}

// MalformedDropped counts a relay message that failed validation
func (m *Metrics) MalformedDropped() {
	m.MalformedMessages.Inc()
}

// Saved counts a persistence write by outcome
func (m *Metrics) Saved(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.Saves.WithLabelValues(status).Inc()
}

// DebouncedCommit counts a committed edit burst
func (m *Metrics) DebouncedCommit() {
	m.DebouncedCommits.Inc()
}

// Snapshot returns the running totals
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.TotalRequests > 0 {
		s.AvgLatencyMS = s.totalDuration / float64(s.TotalRequests) * 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
