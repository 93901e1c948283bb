// Package ringsync shares a ringbuffer.RingBuffer between goroutines.
//
// Buffer guards a ring buffer with one mutex and adds two blocking operations:
//
//   - PushBackWait waits for room when the policy is Reject (Overwrite never waits)
//   - PopFrontWait waits for an element
//
// Both return when the context is done or the Buffer is closed:
//
//	buf, err := ringsync.New[string](1024,
//		ringsync.WithBufferOptions(ringbuffer.WithPolicy[string](ringbuffer.Reject)),
//	)
//
//	go func() {
//		for {
//			line, err := buf.PopFrontWait(ctx)
//			if err != nil {
//				return
//			}
//			process(line)
//		}
//	}()
//
// Iterating a shared buffer directly is not supported; take a Snapshot instead.
package ringsync
