package metric

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ringkit/errors"
)

func gatheredNames(t *testing.T, registry *MetricsRegistry) map[string]bool {
	t.Helper()
	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range metricFamilies {
		names[mf.GetName()] = true
	}
	return names
}

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	assert.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
	assert.NotNil(t, registry.CoreMetrics())
}

func TestMetricsRegistry_RegisterCounter(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter",
		Help: "A test counter",
	})

	err := registry.RegisterCounter("test-service", "test_counter", counter)
	require.NoError(t, err)

	counter.Inc()

	assert.True(t, gatheredNames(t, registry)["test_counter"],
		"Counter should be registered in Prometheus registry")
	assert.Equal(t, 1.0, testutil.ToFloat64(counter))
}

func TestMetricsRegistry_RegisterGauge(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_gauge",
		Help: "A test gauge",
	})

	err := registry.RegisterGauge("test-service", "test_gauge", gauge)
	require.NoError(t, err)

	gauge.Set(42.0)

	assert.True(t, gatheredNames(t, registry)["test_gauge"])
}

func TestMetricsRegistry_RegisterVectors(t *testing.T) {
	registry := NewMetricsRegistry()

	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_counter_vec",
		Help: "A test counter vector",
	}, []string{"kind"})
	gaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "test_gauge_vec",
		Help: "A test gauge vector",
	}, []string{"kind"})

	require.NoError(t, registry.RegisterCounterVec("test-service", "test_counter_vec", counterVec))
	require.NoError(t, registry.RegisterGaugeVec("test-service", "test_gauge_vec", gaugeVec))

	counterVec.WithLabelValues("a").Inc()
	gaugeVec.WithLabelValues("a").Set(3)

	names := gatheredNames(t, registry)
	assert.True(t, names["test_counter_vec"])
	assert.True(t, names["test_gauge_vec"])
}

func TestMetricsRegistry_PreventDuplicateRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	counter1 := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_counter",
		Help: "First counter",
	})
	counter2 := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_counter",
		Help: "First counter",
	})

	err := registry.RegisterCounter("service1", "duplicate_counter", counter1)
	require.NoError(t, err)

	// Same key: caught by the registry's own bookkeeping
	err = registry.RegisterCounter("service1", "duplicate_counter", counter2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate metric registration")
	assert.True(t, errors.IsInvalid(err))

	// Different key, same Prometheus name: caught by Prometheus
	err = registry.RegisterCounter("service2", "duplicate_counter", counter2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prometheus conflict")
	assert.True(t, errors.IsInvalid(err))
}

func TestMetricsRegistry_UnregisterMetric(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "unregister_counter",
		Help: "A counter to unregister",
	})

	require.NoError(t, registry.RegisterCounter("test-service", "unregister_counter", counter))
	assert.True(t, gatheredNames(t, registry)["unregister_counter"])

	assert.True(t, registry.Unregister("test-service", "unregister_counter"))
	assert.False(t, gatheredNames(t, registry)["unregister_counter"])

	assert.False(t, registry.Unregister("test-service", "unregister_counter"))

	// Freed key can be registered again
	require.NoError(t, registry.RegisterCounter("test-service", "unregister_counter", counter))
}

func TestMetricsRegistry_ThreadSafety(t *testing.T) {
	registry := NewMetricsRegistry()

	var wg sync.WaitGroup
	numGoroutines := 10

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			counter := prometheus.NewCounter(prometheus.CounterOpts{
				Name: fmt.Sprintf("concurrent_counter_%d", id),
				Help: "A concurrent counter",
			})

			err := registry.RegisterCounter("concurrent-service",
				fmt.Sprintf("concurrent_counter_%d", id), counter)
			assert.NoError(t, err)
		}(i)
	}

	wg.Wait()

	counterCount := 0
	for name := range gatheredNames(t, registry) {
		if strings.HasPrefix(name, "concurrent_counter_") {
			counterCount++
		}
	}

	assert.Equal(t, numGoroutines, counterCount,
		"All concurrent counters should be registered")
}

func TestMetricsRegistrar_Interface(t *testing.T) {
	var registrar MetricsRegistrar = NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "interface_counter",
		Help: "Counter registered through interface",
	})

	require.NoError(t, registrar.RegisterCounter("interface-service", "interface_counter", counter))
}

func TestCoreMetrics_RecordMethods(t *testing.T) {
	registry := NewMetricsRegistry()
	core := registry.CoreMetrics()

	core.RecordLineReceived("file")
	core.RecordLineReceived("file")
	core.RecordSourceError("nats", "subscribe")
	core.RecordSourceConnected("nats", true)
	core.RecordHTTPRequest("/lines", 200)

	assert.Equal(t, 2.0, testutil.ToFloat64(core.LinesReceived.WithLabelValues("file")))
	assert.Equal(t, 1.0, testutil.ToFloat64(core.SourceErrors.WithLabelValues("nats", "subscribe")))
	assert.Equal(t, 1.0, testutil.ToFloat64(core.SourceConnected.WithLabelValues("nats")))
	assert.Equal(t, 1.0, testutil.ToFloat64(core.HTTPRequests.WithLabelValues("/lines", "200")))

	core.RecordSourceConnected("nats", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(core.SourceConnected.WithLabelValues("nats")))

	names := gatheredNames(t, registry)
	for _, expected := range []string{
		"ringkit_source_lines_received_total",
		"ringkit_source_errors_total",
		"ringkit_source_connected",
		"ringkit_http_requests_total",
		"go_goroutines",
	} {
		assert.True(t, names[expected], "metric %s should be gathered", expected)
	}
}
