package ringbuffer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/ringkit/metric"
)

// bufferMetrics mirrors Statistics as Prometheus instruments.
type bufferMetrics struct {
	pushes     prometheus.Counter
	pops       prometheus.Counter
	evictions  prometheus.Counter
	rejections prometheus.Counter

	size        prometheus.Gauge
	utilization prometheus.Gauge
}

func newCounter(prefix, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "ringkit",
		Subsystem:   "buffer",
		Name:        name,
		ConstLabels: prometheus.Labels{"component": prefix},
		Help:        help,
	})
}

func newGauge(prefix, name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "ringkit",
		Subsystem:   "buffer",
		Name:        name,
		ConstLabels: prometheus.Labels{"component": prefix},
		Help:        help,
	})
}

// newBufferMetrics creates buffer instruments and registers them under prefix.
func newBufferMetrics(registry *metric.MetricsRegistry, prefix string) (*bufferMetrics, error) {
	m := &bufferMetrics{
		pushes:      newCounter(prefix, "pushes_total", "Total number of elements stored"),
		pops:        newCounter(prefix, "pops_total", "Total number of elements removed"),
		evictions:   newCounter(prefix, "evictions_total", "Total number of elements discarded by overwrite or clear"),
		rejections:  newCounter(prefix, "rejections_total", "Total number of pushes refused on a full buffer"),
		size:        newGauge(prefix, "size", "Current number of elements in buffer"),
		utilization: newGauge(prefix, "utilization", "Buffer fill level (0.0 to 1.0)"),
	}

	// A failed registration unwinds the ones before it so the prefix can be retried.
	var registered []string
	register := func(name string, err error) error {
		if err != nil {
			for _, n := range registered {
				registry.Unregister(prefix, n)
			}
			return err
		}
		registered = append(registered, name)
		return nil
	}

	if err := register("buffer_pushes", registry.RegisterCounter(prefix, "buffer_pushes", m.pushes)); err != nil {
		return nil, err
	}
	if err := register("buffer_pops", registry.RegisterCounter(prefix, "buffer_pops", m.pops)); err != nil {
		return nil, err
	}
	if err := register("buffer_evictions", registry.RegisterCounter(prefix, "buffer_evictions", m.evictions)); err != nil {
		return nil, err
	}
	if err := register("buffer_rejections", registry.RegisterCounter(prefix, "buffer_rejections", m.rejections)); err != nil {
		return nil, err
	}
	if err := register("buffer_size", registry.RegisterGauge(prefix, "buffer_size", m.size)); err != nil {
		return nil, err
	}
	if err := register("buffer_utilization", registry.RegisterGauge(prefix, "buffer_utilization", m.utilization)); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *bufferMetrics) recordPush(size, capacity int) {
	m.pushes.Inc()
	m.updateSize(size, capacity)
}

func (m *bufferMetrics) recordPop(size, capacity int) {
	m.pops.Inc()
	m.updateSize(size, capacity)
}

func (m *bufferMetrics) recordEviction() {
	m.evictions.Inc()
}

func (m *bufferMetrics) recordRejection() {
	m.rejections.Inc()
}

func (m *bufferMetrics) updateSize(size, capacity int) {
	m.size.Set(float64(size))
	m.utilization.Set(float64(size) / float64(capacity))
}
