// Package ringbuffer provides a fixed-capacity, double-ended ring buffer with a
// configurable overflow policy, always-on statistics and optional Prometheus metrics.
//
// # Overview
//
// A RingBuffer allocates its backing slice once in New and never grows. Elements
// are pushed and popped at both ends in O(1); the logical view wraps around the
// end of the slice using modular indices.
//
//	rb, err := ringbuffer.New[string](3)
//	if err != nil {
//		return err
//	}
//
//	for _, s := range []string{"A", "B", "C", "D"} {
//		_ = rb.PushBack(s) // D evicts A
//	}
//
//	v, _ := rb.PopFront() // "B"
//
// # Overflow Policies
//
// The policy decides what a push does on a full buffer:
//
//   - Overwrite: make room by evicting. PushBack evicts the front, PushFront evicts the back (default)
//   - Reject: fail with ErrBufferFull and leave the buffer unchanged
//
// The policy is fixed at construction:
//
//	rb, err := ringbuffer.New[int](100,
//		ringbuffer.WithPolicy[int](ringbuffer.Reject),
//	)
//
// # Errors
//
// Operations return the sentinel errors of this package wrapped in an
// errors.ClassifiedError. Empty and full conditions are transient; a bad capacity
// or index is invalid input. Failed operations leave the buffer unchanged.
//
//	if _, err := rb.PopFront(); errors.Is(err, ringbuffer.ErrBufferEmpty) {
//		// nothing buffered yet
//	}
//
// # Iteration
//
// All, Values and Backward return range-over-func sequences; Iterator and
// ReverseIterator return explicit cursors. Each covers exactly the elements present
// when iteration starts. Mutating the buffer while iterating panics with
// ErrConcurrentModification on the next step.
//
// # Observability
//
// Every buffer carries a Statistics value with pushes, pops, evictions, rejections
// and size history. WithMetrics additionally exports them to Prometheus under
// ringkit_buffer_* with a component label:
//
//	rb, err := ringbuffer.New[[]byte](5000,
//		ringbuffer.WithMetrics[[]byte](registry, "ingest"),
//	)
//
// # Thread Safety
//
// A RingBuffer must be used from one goroutine at a time. Statistics counters are
// atomic and may be read concurrently; that is the only exception. Use the ringsync
// package to share a buffer between goroutines.
package ringbuffer
