package ringbuffer

import (
	"errors"
	"fmt"

	cerrors "github.com/c360/ringkit/errors"
)

const component = "RingBuffer"

// Sentinel errors. Operations return them wrapped in a *errors.ClassifiedError,
// so match with errors.Is.
var (
	// ErrInvalidCapacity is returned by New when capacity <= 0.
	ErrInvalidCapacity = errors.New("capacity must be positive")

	// ErrBufferEmpty is returned when removing or reading from an empty buffer.
	ErrBufferEmpty = errors.New("ring buffer empty")

	// ErrBufferFull is returned by a push on a full buffer under the Reject policy.
	ErrBufferFull = errors.New("ring buffer full")

	// ErrIndexOutOfRange is returned by At, Ref and Set for an index outside [0, Size()).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrConcurrentModification is the panic value raised when a buffer is mutated
	// while one of its iterators is in progress.
	ErrConcurrentModification = errors.New("ring buffer modified during iteration")
)

// Empty and full conditions are recoverable and carry no per-call data, so their
// classified forms are built once.
var (
	errPushBackFull  = cerrors.WrapTransient(ErrBufferFull, component, "PushBack", "insert element")
	errPushFrontFull = cerrors.WrapTransient(ErrBufferFull, component, "PushFront", "insert element")
	errPopBackEmpty  = cerrors.WrapTransient(ErrBufferEmpty, component, "PopBack", "remove element")
	errPopFrontEmpty = cerrors.WrapTransient(ErrBufferEmpty, component, "PopFront", "remove element")
	errFrontEmpty    = cerrors.WrapTransient(ErrBufferEmpty, component, "Front", "read element")
	errBackEmpty     = cerrors.WrapTransient(ErrBufferEmpty, component, "Back", "read element")
)

func invalidCapacity(capacity int) error {
	return cerrors.WrapInvalid(fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity),
		component, "New", "validate capacity")
}

func indexOutOfRange(method string, index, size int) error {
	return cerrors.WrapInvalid(fmt.Errorf("%w: index %d, size %d", ErrIndexOutOfRange, index, size),
		component, method, "index lookup")
}
