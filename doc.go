// Package ringkit is a small toolkit built around a fixed-capacity ring buffer.
//
// # Packages
//
//   - pkg/ringbuffer: generic double-ended ring buffer with overwrite or reject
//     overflow policies, index access, iterators, statistics and optional
//     Prometheus instruments
//   - pkg/ringsync: a mutex-guarded wrapper for sharing one buffer between
//     goroutines, with context-aware blocking push and pop
//   - input: line sources (files with follow, stdin, NATS subjects, WebSocket streams)
//   - config: layered JSON/YAML configuration with RINGTAIL_* environment overrides
//   - metric: Prometheus registry and the HTTP server for /metrics and friends
//   - health: component health tracking served on /health
//   - errors: classified errors (transient, invalid, fatal) shared by all packages
//   - pkg/retry: exponential backoff used when sources dial remote endpoints
//
// # Quick Start
//
//	rb, err := ringbuffer.New[string](3)
//	if err != nil {
//	    return err
//	}
//	for _, line := range lines {
//	    _ = rb.PushBack(line) // overwrite policy: the oldest line is evicted
//	}
//	for v := range rb.Values() {
//	    fmt.Println(v) // the last three lines, oldest first
//	}
//
// # ringtail
//
// cmd/ringtail wires the packages together: it reads lines from a source into a
// ringsync.Buffer, optionally serves /lines, /stats, /metrics and /health while
// running, and prints the retained lines when the source ends. The overwrite
// policy behaves like tail -n, reject like head -n.
package ringkit
