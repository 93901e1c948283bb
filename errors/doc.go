// Package errors provides standardized error handling patterns for ringkit.
//
// # Overview
//
// The package implements a three-class error classification: Transient (temporary,
// retryable), Invalid (bad input, do not retry) and Fatal (stop processing).
// Ring buffers, the synchronized adapter, the line sources and the ringtail command all
// report failures through it, so callers can decide what to do without matching strings.
//
// # Error Wrapping Pattern
//
// All error wrapping follows the format:
//
//	"component.method: action failed: %w"
//
// Three wrappers attach a classification while keeping the chain intact:
//
//	errors.WrapTransient(err, "RingBuffer", "PopFront", "remove element")
//	errors.WrapInvalid(err, "RingBuffer", "At", "index lookup")
//	errors.WrapFatal(err, "Server", "Start", "listen")
//
// A classified error unwraps to its cause, so domain sentinels stay visible:
//
//	_, err := rb.PopFront()
//	if errors.Is(err, ringbuffer.ErrBufferEmpty) && errors.IsTransient(err) {
//	    // wait for a producer
//	}
//
// # Standard Error Variables
//
//   - Lifecycle: ErrAlreadyStarted, ErrAlreadyStopped
//   - Connection: ErrNoConnection, ErrConnectionLost, ErrConnectionTimeout, ErrSubscriptionFailed
//   - Data: ErrInvalidData, ErrParsingFailed
//   - Configuration: ErrInvalidConfig, ErrMissingConfig, ErrConfigNotFound
//   - Retry: ErrMaxRetriesExceeded
//
// # Classified Retry
//
// Retry runs a call under a retry.Config and stops at the first error that is
// not transient, so callers classify their own failures and let the loop decide:
//
//	conn, err := errors.Retry(ctx, retry.Quick(), func() (*nats.Conn, error) {
//	    nc, err := nats.Connect(url)
//	    if err != nil {
//	        return nil, classifyConnect(err) // auth failures come back invalid
//	    }
//	    return nc, nil
//	})
//
// When every attempt fails transiently the last error is returned wrapped in
// ErrMaxRetriesExceeded.
//
// Context errors (context.DeadlineExceeded, context.Canceled) classify as Transient.
//
// # Thread Safety
//
// Classification and wrapping are safe for concurrent use. ClassifiedError values are
// immutable after creation.
package errors
