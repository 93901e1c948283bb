package ringbuffer

import "iter"

// Iterator walks a snapshot of the buffer's extent taken when it was created.
// Mutating the buffer while an iterator is in progress is a programming error:
// the next call to Next panics with ErrConcurrentModification.
type Iterator[T any] struct {
	r         *RingBuffer[T]
	pos       int // physical index of the next element
	remaining int
	backward  bool
	gen       uint64
}

// Iterator returns a cursor over the elements front to back.
func (r *RingBuffer[T]) Iterator() *Iterator[T] {
	return &Iterator[T]{r: r, pos: r.head, remaining: r.size, gen: r.gen}
}

// ReverseIterator returns a cursor over the elements back to front.
func (r *RingBuffer[T]) ReverseIterator() *Iterator[T] {
	pos := r.head
	if r.size > 0 {
		pos = r.index(r.size - 1)
	}
	return &Iterator[T]{r: r, pos: pos, remaining: r.size, backward: true, gen: r.gen}
}

// Next returns the next element and true, or the zero value and false once
// every element has been visited.
func (it *Iterator[T]) Next() (T, bool) {
	if it.remaining == 0 {
		var zero T
		return zero, false
	}
	if it.gen != it.r.gen {
		panic(ErrConcurrentModification)
	}

	v := it.r.items[it.pos]
	if it.backward {
		it.pos = it.r.prev(it.pos)
	} else {
		it.pos++
		if it.pos == len(it.r.items) {
			it.pos = 0
		}
	}
	it.remaining--
	return v, true
}

// Len returns the number of elements not yet visited.
func (it *Iterator[T]) Len() int { return it.remaining }

// All returns a sequence of logical index and element pairs, front to back.
//
//	for i, v := range rb.All() {
//		fmt.Println(i, v)
//	}
func (r *RingBuffer[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		it := r.Iterator()
		for i := 0; ; i++ {
			v, ok := it.Next()
			if !ok || !yield(i, v) {
				return
			}
		}
	}
}

// Values returns a sequence of the elements, front to back.
func (r *RingBuffer[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		it := r.Iterator()
		for {
			v, ok := it.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Backward returns a sequence of logical index and element pairs, back to front.
// Indices count down from Size()-1.
func (r *RingBuffer[T]) Backward() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		it := r.ReverseIterator()
		for i := it.Len() - 1; ; i-- {
			v, ok := it.Next()
			if !ok || !yield(i, v) {
				return
			}
		}
	}
}
