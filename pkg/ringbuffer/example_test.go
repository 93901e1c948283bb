package ringbuffer_test

import (
	"errors"
	"fmt"

	"github.com/c360/ringkit/pkg/ringbuffer"
)

func Example() {
	rb, err := ringbuffer.New[string](3)
	if err != nil {
		panic(err)
	}

	for _, s := range []string{"A", "B", "C", "D"} {
		_ = rb.PushBack(s)
	}
	fmt.Println(rb.ToSlice())

	v, _ := rb.PopFront()
	fmt.Println(v, rb.ToSlice(), rb.Size())
	// Output:
	// [B C D]
	// B [C D] 2
}

func ExampleWithPolicy() {
	rb, err := ringbuffer.New[string](2, ringbuffer.WithPolicy[string](ringbuffer.Reject))
	if err != nil {
		panic(err)
	}

	_ = rb.PushBack("X")
	_ = rb.PushBack("Y")
	err = rb.PushBack("Z")

	fmt.Println(errors.Is(err, ringbuffer.ErrBufferFull))
	fmt.Println(rb.ToSlice())
	// Output:
	// true
	// [X Y]
}

func ExampleRingBuffer_Backward() {
	rb, _ := ringbuffer.New[int](4)
	for i := 1; i <= 4; i++ {
		_ = rb.PushBack(i * 10)
	}

	for i, v := range rb.Backward() {
		fmt.Println(i, v)
	}
	// Output:
	// 3 40
	// 2 30
	// 1 20
	// 0 10
}

func ExampleWithEvictFunc() {
	rb, _ := ringbuffer.New[int](2, ringbuffer.WithEvictFunc(func(v int) {
		fmt.Println("evicted", v)
	}))

	for i := 1; i <= 3; i++ {
		_ = rb.PushBack(i)
	}
	_ = rb.PushFront(0)
	// Output:
	// evicted 1
	// evicted 3
}

func ExampleRingBuffer_String() {
	rb, _ := ringbuffer.New[float64](10)
	for i := 1; i <= 5; i++ {
		_ = rb.PushBack(float64(i) / 2)
	}
	fmt.Println(rb)

	for i := 6; i <= 12; i++ {
		_ = rb.PushBack(float64(i) / 2)
	}
	_ = rb.Set(0, 99)
	fmt.Println(rb)
	// Output:
	// RingBuffer[0.5, 1, 1.5, 2, 2.5](size=5, capacity=10, policy=overwrite)
	// RingBuffer[99, 2, 2.5, 3, ...., 6](size=10, capacity=10, policy=overwrite)
}
