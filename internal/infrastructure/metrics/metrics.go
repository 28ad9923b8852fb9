package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Image MCP metrics - using explicit registration
var (
	// HTTP request counters (SSE transport only)
	RequestsTotal *prometheus.CounterVec

	// Tool call counters
	ToolCallsTotal *prometheus.CounterVec

	// Tool duration histogram
	ToolDuration *prometheus.HistogramVec

	// External provider latency
	ExternalProviderLatency *prometheus.HistogramVec

	// Open transport sessions
	ActiveSessions *prometheus.GaugeVec
)

// init creates and registers all metrics with the default registry
func init() {
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "image_mcp",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "image_mcp",
			Name:      "tool_calls_total",
			Help:      "Total tool invocations",
		},
		[]string{"tool_name", "provider", "status"},
	)

	ToolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "image_mcp",
			Name:      "tool_duration_seconds",
			Help:      "Tool execution duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"tool_name", "provider"},
	)

	ExternalProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "image_mcp",
			Name:      "external_provider_latency_seconds",
			Help:      "External provider response time in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "operation"},
	)

	ActiveSessions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "jan",
			Subsystem: "image_mcp",
			Name:      "active_sessions",
			Help:      "Currently open MCP transport sessions",
		},
		[]string{"transport"},
	)

	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(ToolCallsTotal)
	prometheus.MustRegister(ToolDuration)
	prometheus.MustRegister(ExternalProviderLatency)
	prometheus.MustRegister(ActiveSessions)
}

// RecordRequest records an HTTP request
func RecordRequest(method, path, status string) {
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordToolCall records a tool invocation
func RecordToolCall(toolName, provider, status string, durationSec float64) {
	if provider == "" {
		provider = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	ToolCallsTotal.WithLabelValues(toolName, provider, status).Inc()
	ToolDuration.WithLabelValues(toolName, provider).Observe(durationSec)
}

// RecordExternalProviderLatency records external provider response time
func RecordExternalProviderLatency(provider, operation string, durationSec float64) {
	ExternalProviderLatency.WithLabelValues(provider, operation).Observe(durationSec)
}

// SessionOpened increments the open session gauge for a transport
func SessionOpened(transport string) {
	ActiveSessions.WithLabelValues(transport).Inc()
}

// SessionClosed decrements the open session gauge for a transport
func SessionClosed(transport string) {
	ActiveSessions.WithLabelValues(transport).Dec()
}
