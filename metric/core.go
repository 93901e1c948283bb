package metric

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains process-level metrics shared by all sources and handlers.
// Per-buffer instruments live with the buffer (see ringbuffer.WithMetrics).
type Metrics struct {
	LinesReceived   *prometheus.CounterVec
	SourceErrors    *prometheus.CounterVec
	SourceConnected *prometheus.GaugeVec
	HTTPRequests    *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		LinesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ringkit",
				Subsystem: "source",
				Name:      "lines_received_total",
				Help:      "Total number of lines received from a source",
			},
			[]string{"source"},
		),

		SourceErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ringkit",
				Subsystem: "source",
				Name:      "errors_total",
				Help:      "Total number of source errors",
			},
			[]string{"source", "type"},
		),

		SourceConnected: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "ringkit",
				Subsystem: "source",
				Name:      "connected",
				Help:      "Source connection status (0=disconnected, 1=connected)",
			},
			[]string{"source"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ringkit",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"handler", "code"},
		),
	}
}

// RecordLineReceived increments the received line counter
func (c *Metrics) RecordLineReceived(source string) {
	c.LinesReceived.WithLabelValues(source).Inc()
}

// RecordSourceError increments the source error counter
func (c *Metrics) RecordSourceError(source, errorType string) {
	c.SourceErrors.WithLabelValues(source, errorType).Inc()
}

// RecordSourceConnected updates the source connection status
func (c *Metrics) RecordSourceConnected(source string, connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.SourceConnected.WithLabelValues(source).Set(value)
}

// RecordHTTPRequest increments the request counter for a handler
func (c *Metrics) RecordHTTPRequest(handler string, code int) {
	c.HTTPRequests.WithLabelValues(handler, strconv.Itoa(code)).Inc()
}
