package ringsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	cerrors "github.com/c360/ringkit/errors"
	"github.com/c360/ringkit/pkg/ringbuffer"
)

const component = "ringsync.Buffer"

// ErrClosed is returned by operations on a closed Buffer. It wraps
// errors.ErrAlreadyStopped.
var ErrClosed = fmt.Errorf("ring buffer closed: %w", cerrors.ErrAlreadyStopped)

// Buffer is a ring buffer that is safe for concurrent use. Every operation
// takes a single mutex; PushBackWait and PopFrontWait additionally block on
// condition variables until they can proceed, the buffer is closed, or the
// context is done.
type Buffer[T any] struct {
	mu       sync.Mutex
	rb       *ringbuffer.RingBuffer[T]
	notEmpty *sync.Cond
	notFull  *sync.Cond
	closed   bool

	onEvict func(T)
	pending []T // evicted under the lock, delivered after unlock
}

// Option configures a Buffer.
type Option[T any] func(*options[T])

type options[T any] struct {
	bufferOpts []ringbuffer.Option[T]
	onEvict    func(T)
}

// WithBufferOptions passes options through to the underlying ring buffer.
// A ringbuffer.WithEvictFunc given here is ignored; use WithEvictFunc.
func WithBufferOptions[T any](opts ...ringbuffer.Option[T]) Option[T] {
	return func(o *options[T]) {
		o.bufferOpts = append(o.bufferOpts, opts...)
	}
}

// WithEvictFunc sets a function called with every evicted or cleared element.
// It runs after the lock is released, so it may call back into the Buffer.
func WithEvictFunc[T any](fn func(T)) Option[T] {
	return func(o *options[T]) {
		o.onEvict = fn
	}
}

// New creates a concurrent ring buffer holding at most capacity elements.
func New[T any](capacity int, opts ...Option[T]) (*Buffer[T], error) {
	o := &options[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	b := &Buffer[T]{onEvict: o.onEvict}

	bufferOpts := o.bufferOpts
	if b.onEvict != nil {
		bufferOpts = append(bufferOpts, ringbuffer.WithEvictFunc(func(v T) {
			b.pending = append(b.pending, v)
		}))
	} else {
		bufferOpts = append(bufferOpts, ringbuffer.WithEvictFunc[T](nil))
	}

	rb, err := ringbuffer.New[T](capacity, bufferOpts...)
	if err != nil {
		return nil, err
	}

	b.rb = rb
	b.notEmpty = sync.NewCond(&b.mu)
	b.notFull = sync.NewCond(&b.mu)
	return b, nil
}

// lock and unlock bracket every operation. unlock delivers evictions collected
// while the lock was held.
func (b *Buffer[T]) lock() {
	b.mu.Lock()
}

func (b *Buffer[T]) unlock() {
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, v := range pending {
		b.onEvict(v)
	}
}

func errClosed(method string) error {
	return cerrors.WrapInvalid(ErrClosed, component, method, "buffer closed")
}

// PushBack appends v according to the buffer's overflow policy. It never waits.
func (b *Buffer[T]) PushBack(v T) error {
	b.lock()
	defer b.unlock()

	if b.closed {
		return errClosed("PushBack")
	}
	if err := b.rb.PushBack(v); err != nil {
		return err
	}
	b.notEmpty.Signal()
	return nil
}

// PushFront inserts v at the front according to the buffer's overflow policy.
func (b *Buffer[T]) PushFront(v T) error {
	b.lock()
	defer b.unlock()

	if b.closed {
		return errClosed("PushFront")
	}
	if err := b.rb.PushFront(v); err != nil {
		return err
	}
	b.notEmpty.Signal()
	return nil
}

// PopFront removes and returns the front element.
func (b *Buffer[T]) PopFront() (T, error) {
	b.lock()
	defer b.unlock()

	if b.closed {
		var zero T
		return zero, errClosed("PopFront")
	}
	v, err := b.rb.PopFront()
	if err == nil {
		b.notFull.Signal()
	}
	return v, err
}

// PopBack removes and returns the back element.
func (b *Buffer[T]) PopBack() (T, error) {
	b.lock()
	defer b.unlock()

	if b.closed {
		var zero T
		return zero, errClosed("PopBack")
	}
	v, err := b.rb.PopBack()
	if err == nil {
		b.notFull.Signal()
	}
	return v, err
}

// PopFrontN removes up to limit elements from the front.
func (b *Buffer[T]) PopFrontN(limit int) ([]T, error) {
	b.lock()
	defer b.unlock()

	if b.closed {
		return nil, errClosed("PopFrontN")
	}
	out := b.rb.PopFrontN(limit)
	if len(out) > 0 {
		b.notFull.Broadcast()
	}
	return out, nil
}

// PushBackWait appends v, waiting for room when the buffer is full and the
// policy is Reject. Under Overwrite it behaves like PushBack.
func (b *Buffer[T]) PushBackWait(ctx context.Context, v T) error {
	b.lock()
	defer b.unlock()

	if b.rb.Policy() == ringbuffer.Reject {
		if err := b.wait(ctx, b.notFull, func() bool { return !b.rb.IsFull() }); err != nil {
			return b.waitError("PushBackWait", "wait for space", err)
		}
	}
	if b.closed {
		return errClosed("PushBackWait")
	}
	if err := b.rb.PushBack(v); err != nil {
		return err
	}
	b.notEmpty.Signal()
	return nil
}

// PopFrontWait removes and returns the front element, waiting until one is
// available.
func (b *Buffer[T]) PopFrontWait(ctx context.Context) (T, error) {
	b.lock()
	defer b.unlock()

	var zero T
	if err := b.wait(ctx, b.notEmpty, func() bool { return !b.rb.IsEmpty() }); err != nil {
		return zero, b.waitError("PopFrontWait", "wait for element", err)
	}
	v, err := b.rb.PopFront()
	if err != nil {
		return zero, err
	}
	b.notFull.Signal()
	return v, nil
}

// wait blocks on cond until ready reports true, the buffer is closed, or ctx
// is done. The caller holds b.mu.
func (b *Buffer[T]) wait(ctx context.Context, cond *sync.Cond, ready func() bool) error {
	if b.closed {
		return ErrClosed
	}
	if ready() {
		return nil
	}

	stop := context.AfterFunc(ctx, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		cond.Broadcast()
	})
	defer stop()

	for !ready() {
		if b.closed {
			return ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		cond.Wait()
	}
	return nil
}

func (b *Buffer[T]) waitError(method, action string, err error) error {
	if errors.Is(err, ErrClosed) {
		return errClosed(method)
	}
	return cerrors.WrapTransient(err, component, method, action)
}

// Front returns the front element without removing it.
func (b *Buffer[T]) Front() (T, error) {
	b.lock()
	defer b.unlock()

	if b.closed {
		var zero T
		return zero, errClosed("Front")
	}
	return b.rb.Front()
}

// Back returns the back element without removing it.
func (b *Buffer[T]) Back() (T, error) {
	b.lock()
	defer b.unlock()

	if b.closed {
		var zero T
		return zero, errClosed("Back")
	}
	return b.rb.Back()
}

// At returns the element at logical index i.
func (b *Buffer[T]) At(i int) (T, error) {
	b.lock()
	defer b.unlock()

	if b.closed {
		var zero T
		return zero, errClosed("At")
	}
	return b.rb.At(i)
}

// Set replaces the element at logical index i.
func (b *Buffer[T]) Set(i int, v T) error {
	b.lock()
	defer b.unlock()

	if b.closed {
		return errClosed("Set")
	}
	return b.rb.Set(i, v)
}

// Snapshot returns a copy of the elements front to back. It is the way to
// iterate a Buffer that other goroutines may be mutating.
func (b *Buffer[T]) Snapshot() []T {
	b.lock()
	defer b.unlock()
	return b.rb.ToSlice()
}

// Clear removes all elements and wakes goroutines waiting for space.
func (b *Buffer[T]) Clear() {
	b.lock()
	defer b.unlock()

	b.rb.Clear()
	b.notFull.Broadcast()
}

// Size returns the number of elements.
func (b *Buffer[T]) Size() int {
	b.lock()
	defer b.unlock()
	return b.rb.Size()
}

// Capacity returns the fixed maximum number of elements.
func (b *Buffer[T]) Capacity() int {
	return b.rb.Capacity() // immutable
}

// IsEmpty reports whether the buffer holds no elements.
func (b *Buffer[T]) IsEmpty() bool {
	b.lock()
	defer b.unlock()
	return b.rb.IsEmpty()
}

// IsFull reports whether the buffer is at capacity.
func (b *Buffer[T]) IsFull() bool {
	b.lock()
	defer b.unlock()
	return b.rb.IsFull()
}

// Policy returns the overflow policy.
func (b *Buffer[T]) Policy() ringbuffer.Policy {
	return b.rb.Policy() // immutable
}

// Stats returns the underlying buffer statistics. Its counters are safe to
// read without the lock.
func (b *Buffer[T]) Stats() *ringbuffer.Statistics {
	return b.rb.Stats()
}

// Close marks the buffer closed and wakes every waiting goroutine. Further
// operations that can fail return an error wrapping ErrClosed. Elements already
// buffered stay readable through Snapshot. Close is idempotent.
func (b *Buffer[T]) Close() error {
	b.lock()
	defer b.unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.notEmpty.Broadcast()
	b.notFull.Broadcast()
	return nil
}

// IsClosed reports whether Close has been called.
func (b *Buffer[T]) IsClosed() bool {
	b.lock()
	defer b.unlock()
	return b.closed
}
