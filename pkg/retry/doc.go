// Package retry provides simple exponential backoff retry logic for transient failures.
//
// # Overview
//
// ringkit uses it when a line source dials a remote endpoint (NATS, WebSocket) and
// through errors.Retry, which stops early on errors that are not transient.
//
// # Core Functions
//
//   - Do: Execute function with retry and exponential backoff
//   - DoWithResult: Execute function with retry, returns both result and error
//   - NonRetryable: Mark an error so Do returns it without further attempts
//
// # Configuration Presets
//
//   - DefaultConfig(): 3 attempts, 100ms-5s delay
//   - Quick(): 10 attempts, 50ms-1s delay (source startup)
//
// # Usage Examples
//
//	conn, err := retry.DoWithResult(ctx, retry.Quick(), func() (*nats.Conn, error) {
//	    return nats.Connect(url)
//	})
//
// # Context Cancellation
//
// Do stops as soon as the context is cancelled, either after an attempt or during the
// backoff delay.
//
// # Thread Safety
//
// All functions are safe for concurrent use. Jitter uses a mutex-guarded random source.
package retry
