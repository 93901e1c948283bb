package ringbuffer

import (
	"fmt"
	"strings"

	cerrors "github.com/c360/ringkit/errors"
)

// RingBuffer is a fixed-capacity double-ended queue backed by a single slice
// allocated in New. Elements can be added and removed at both ends in O(1).
//
// RingBuffer is not safe for concurrent use. Wrap it with ringsync.Buffer to
// share it between goroutines.
type RingBuffer[T any] struct {
	items []T // len(items) is the capacity
	head  int // physical index of the front element
	size  int
	gen   uint64 // bumped on every mutation; checked by iterators

	policy Policy

	// makeRoomBack and makeRoomFront free one slot on a full buffer for
	// PushBack and PushFront respectively. Resolved from the policy in New.
	makeRoomBack  func() (evicted T, err error)
	makeRoomFront func() (evicted T, err error)

	onEvict func(T)
	stats   *Statistics
	metrics *bufferMetrics
}

// New creates a ring buffer holding at most capacity elements.
// It returns an error wrapping ErrInvalidCapacity when capacity <= 0.
func New[T any](capacity int, options ...Option[T]) (*RingBuffer[T], error) {
	if capacity <= 0 {
		return nil, invalidCapacity(capacity)
	}

	opts := applyOptions(options...)
	if !opts.policy.valid() {
		return nil, cerrors.WrapInvalid(
			fmt.Errorf("%w: unknown overflow policy %d", cerrors.ErrInvalidConfig, int(opts.policy)),
			component, "New", "validate policy")
	}

	var metrics *bufferMetrics
	if opts.metricsReg != nil {
		var err error
		metrics, err = newBufferMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, cerrors.Wrap(err, component, "New", "metrics registration")
		}
	}

	r := &RingBuffer[T]{
		items:   make([]T, capacity),
		policy:  opts.policy,
		onEvict: opts.evictFunc,
		stats:   NewStatistics(),
		metrics: metrics,
	}

	switch opts.policy {
	case Reject:
		r.makeRoomBack = r.rejectBack
		r.makeRoomFront = r.rejectFront
	default:
		r.makeRoomBack = r.evictFront
		r.makeRoomFront = r.evictBack
	}

	return r, nil
}

// PushBack appends v after the back element. On a full buffer the Overwrite
// policy evicts the front element first; Reject returns ErrBufferFull and
// leaves the buffer unchanged.
func (r *RingBuffer[T]) PushBack(v T) error {
	if r.size < len(r.items) {
		r.items[r.index(r.size)] = v
		r.size++
		r.pushed()
		return nil
	}

	evicted, err := r.makeRoomBack()
	if err != nil {
		return err
	}
	r.items[r.index(r.size)] = v
	r.size++
	r.pushed()
	r.evicted(evicted)
	return nil
}

// PushFront inserts v before the front element. On a full buffer the Overwrite
// policy evicts the back element first; Reject returns ErrBufferFull and leaves
// the buffer unchanged.
func (r *RingBuffer[T]) PushFront(v T) error {
	if r.size < len(r.items) {
		r.head = r.prev(r.head)
		r.items[r.head] = v
		r.size++
		r.pushed()
		return nil
	}

	evicted, err := r.makeRoomFront()
	if err != nil {
		return err
	}
	r.head = r.prev(r.head)
	r.items[r.head] = v
	r.size++
	r.pushed()
	r.evicted(evicted)
	return nil
}

// PopFront removes and returns the front element.
func (r *RingBuffer[T]) PopFront() (T, error) {
	if r.size == 0 {
		var zero T
		return zero, errPopFrontEmpty
	}
	v := r.takeFront()
	r.popped()
	return v, nil
}

// PopBack removes and returns the back element.
func (r *RingBuffer[T]) PopBack() (T, error) {
	if r.size == 0 {
		var zero T
		return zero, errPopBackEmpty
	}
	v := r.takeBack()
	r.popped()
	return v, nil
}

// PopFrontN removes up to limit elements from the front and returns them in
// front-to-back order. It returns nil when the buffer is empty or limit <= 0.
func (r *RingBuffer[T]) PopFrontN(limit int) []T {
	n := min(limit, r.size)
	if n <= 0 {
		return nil
	}

	out := make([]T, n)
	for i := range out {
		out[i] = r.takeFront()
		r.popped()
	}
	return out
}

// At returns the element at logical index i, where 0 is the front.
func (r *RingBuffer[T]) At(i int) (T, error) {
	if i < 0 || i >= r.size {
		var zero T
		return zero, indexOutOfRange("At", i, r.size)
	}
	r.peeked()
	return r.items[r.index(i)], nil
}

// Ref returns a pointer to the element at logical index i. The pointer is only
// valid until the next mutation of the buffer.
func (r *RingBuffer[T]) Ref(i int) (*T, error) {
	if i < 0 || i >= r.size {
		return nil, indexOutOfRange("Ref", i, r.size)
	}
	r.peeked()
	return &r.items[r.index(i)], nil
}

// Set replaces the element at logical index i. The extent is unchanged, so
// iterators in progress stay valid and see v if they have not passed i yet.
func (r *RingBuffer[T]) Set(i int, v T) error {
	if i < 0 || i >= r.size {
		return indexOutOfRange("Set", i, r.size)
	}
	r.items[r.index(i)] = v
	return nil
}

// Front returns the front element without removing it.
func (r *RingBuffer[T]) Front() (T, error) {
	if r.size == 0 {
		var zero T
		return zero, errFrontEmpty
	}
	r.peeked()
	return r.items[r.head], nil
}

// Back returns the back element without removing it.
func (r *RingBuffer[T]) Back() (T, error) {
	if r.size == 0 {
		var zero T
		return zero, errBackEmpty
	}
	r.peeked()
	return r.items[r.index(r.size-1)], nil
}

// Size returns the number of elements in the buffer.
func (r *RingBuffer[T]) Size() int { return r.size }

// Capacity returns the fixed maximum number of elements.
func (r *RingBuffer[T]) Capacity() int { return len(r.items) }

// IsEmpty reports whether the buffer holds no elements.
func (r *RingBuffer[T]) IsEmpty() bool { return r.size == 0 }

// IsFull reports whether the buffer holds Capacity elements.
func (r *RingBuffer[T]) IsFull() bool { return r.size == len(r.items) }

// Policy returns the overflow policy the buffer was created with.
func (r *RingBuffer[T]) Policy() Policy { return r.policy }

// Stats returns the buffer statistics. It is never nil.
func (r *RingBuffer[T]) Stats() *Statistics { return r.stats }

// Clear removes all elements. Released elements are passed to the evict func,
// front to back, after the buffer is already empty.
func (r *RingBuffer[T]) Clear() {
	head, size := r.head, r.size
	r.head, r.size = 0, 0
	r.gen++
	r.stats.UpdateSize(0)
	if r.metrics != nil {
		r.metrics.updateSize(0, len(r.items))
	}

	var zero T
	for i := 0; i < size; i++ {
		idx := head + i
		if idx >= len(r.items) {
			idx -= len(r.items)
		}
		v := r.items[idx]
		r.items[idx] = zero
		r.evicted(v)
	}
}

// AppendTo appends the elements front to back to dst and returns the result.
func (r *RingBuffer[T]) AppendTo(dst []T) []T {
	if r.size == 0 {
		return dst
	}
	end := r.head + r.size
	if end <= len(r.items) {
		return append(dst, r.items[r.head:end]...)
	}
	dst = append(dst, r.items[r.head:]...)
	return append(dst, r.items[:end-len(r.items)]...)
}

// ToSlice returns a copy of the elements front to back.
func (r *RingBuffer[T]) ToSlice() []T {
	return r.AppendTo(make([]T, 0, r.size))
}

// Rendering limits for String: buffers with stringFull or more elements show
// the first stringHead, an ellipsis and the back element.
const (
	stringFull = 7
	stringHead = 4
)

// String implements fmt.Stringer. Elements are listed front to back, for example
// "RingBuffer[1, 2, 3, 4, ...., 9](size=9, capacity=16, policy=overwrite)".
// It does not count as a read in the statistics.
func (r *RingBuffer[T]) String() string {
	var b strings.Builder
	b.WriteString("RingBuffer[")

	write := func(i int) {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprint(&b, r.items[r.index(i)])
	}
	if r.size < stringFull {
		for i := 0; i < r.size; i++ {
			write(i)
		}
	} else {
		for i := 0; i < stringHead; i++ {
			write(i)
		}
		b.WriteString(", ....")
		write(r.size - 1)
	}

	fmt.Fprintf(&b, "](size=%d, capacity=%d, policy=%s)", r.size, len(r.items), r.policy)
	return b.String()
}

// index maps a logical offset in [0, capacity] to a physical slot.
func (r *RingBuffer[T]) index(offset int) int {
	i := r.head + offset
	if i >= len(r.items) {
		i -= len(r.items)
	}
	return i
}

func (r *RingBuffer[T]) prev(i int) int {
	if i == 0 {
		return len(r.items) - 1
	}
	return i - 1
}

// takeFront and takeBack remove an element without touching statistics.
// The buffer must not be empty.
func (r *RingBuffer[T]) takeFront() T {
	var zero T
	v := r.items[r.head]
	r.items[r.head] = zero
	r.head = r.index(1)
	r.size--
	return v
}

func (r *RingBuffer[T]) takeBack() T {
	var zero T
	idx := r.index(r.size - 1)
	v := r.items[idx]
	r.items[idx] = zero
	r.size--
	return v
}

func (r *RingBuffer[T]) evictFront() (T, error) {
	return r.takeFront(), nil
}

func (r *RingBuffer[T]) evictBack() (T, error) {
	return r.takeBack(), nil
}

func (r *RingBuffer[T]) rejectBack() (T, error) {
	var zero T
	r.rejected()
	return zero, errPushBackFull
}

func (r *RingBuffer[T]) rejectFront() (T, error) {
	var zero T
	r.rejected()
	return zero, errPushFrontFull
}

func (r *RingBuffer[T]) pushed() {
	r.gen++
	r.stats.Push()
	r.stats.UpdateSize(int64(r.size))
	if r.metrics != nil {
		r.metrics.recordPush(r.size, len(r.items))
	}
}

func (r *RingBuffer[T]) popped() {
	r.gen++
	r.stats.Pop()
	r.stats.UpdateSize(int64(r.size))
	if r.metrics != nil {
		r.metrics.recordPop(r.size, len(r.items))
	}
}

func (r *RingBuffer[T]) peeked() {
	r.stats.Peek()
}

func (r *RingBuffer[T]) evicted(v T) {
	r.stats.Evict()
	if r.metrics != nil {
		r.metrics.recordEviction()
	}
	if r.onEvict != nil {
		r.onEvict(v)
	}
}

func (r *RingBuffer[T]) rejected() {
	r.stats.Reject()
	if r.metrics != nil {
		r.metrics.recordRejection()
	}
}
