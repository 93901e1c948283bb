package ringbuffer

import (
	"github.com/c360/ringkit/metric"
)

// Option configures a RingBuffer using the functional options pattern.
type Option[T any] func(*bufferOptions[T])

// bufferOptions holds construction-time configuration.
// Stats are always collected and are not an option.
type bufferOptions[T any] struct {
	policy    Policy
	evictFunc func(T)

	// metricsReg is optional; when set the buffer statistics are also exported to Prometheus
	metricsReg *metric.MetricsRegistry

	// metricsPrefix is used as the component label for Prometheus metrics
	metricsPrefix string
}

// WithPolicy sets the overflow policy. Defaults to Overwrite.
func WithPolicy[T any](policy Policy) Option[T] {
	return func(opts *bufferOptions[T]) {
		opts.policy = policy
	}
}

// WithEvictFunc sets a function called with every element the buffer discards
// on its own: elements evicted by an Overwrite push and elements released by Clear.
// It runs after the buffer is back in a consistent state and must not call into
// the buffer.
func WithEvictFunc[T any](fn func(T)) Option[T] {
	return func(opts *bufferOptions[T]) {
		opts.evictFunc = fn
	}
}

// WithMetrics enables Prometheus export of buffer statistics.
// It is ignored when registry is nil or prefix is empty.
func WithMetrics[T any](registry *metric.MetricsRegistry, prefix string) Option[T] {
	return func(opts *bufferOptions[T]) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

func applyOptions[T any](options ...Option[T]) *bufferOptions[T] {
	opts := &bufferOptions[T]{
		policy: Overwrite,
	}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
