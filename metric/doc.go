// Package metric provides Prometheus-based metrics collection and an HTTP server
// for ringkit observability.
//
// The package offers a centralized registry managing both core metrics (line
// sources, HTTP requests) and component-specific metrics such as the per-buffer
// instruments registered by ringbuffer.WithMetrics. The registry wraps a private
// prometheus.Registry, never the global default, so tests and multiple processes
// in one binary do not collide.
//
// # Architecture
//
//  1. Core Metrics: process-level counters and gauges (Metrics type)
//  2. Component Registry: keyed registration for component metrics (MetricsRegistrar interface)
//  3. HTTP Server: /metrics, /health and extra handlers (Server type); a handler
//     registered for /health replaces the plain "OK" one
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//	server.Handle("/lines", linesHandler)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        logger.Error("metrics server failed", "error", err)
//	    }
//	}()
//
//	registry.CoreMetrics().RecordLineReceived("file")
//
// # Component Metrics
//
// Components register their own instruments under a service name. Keys are
// "service.metric"; registering the same key twice is an Invalid error:
//
//	err := registry.RegisterCounter("ringtail", "buffer_pushes", pushes)
//
// # Thread Safety
//
// All registry operations are protected by a sync.RWMutex. Prometheus instruments
// are safe for concurrent use.
package metric
