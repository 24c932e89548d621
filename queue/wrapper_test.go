package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// sliceQueue is a minimal, non-thread-safe PlainQueue used only to
// exercise Wrapper; Wrapper supplies all the synchronization.
type sliceQueue[T any] struct {
	items []T
}

func (s *sliceQueue[T]) Offer(v T) bool {
	s.items = append(s.items, v)
	return true
}

func (s *sliceQueue[T]) Poll() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	v := s.items[0]
	s.items = s.items[1:]
	return v, true
}

func (s *sliceQueue[T]) Peek() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	return s.items[0], true
}

func (s *sliceQueue[T]) Len() int { return len(s.items) }

type WrapperTestSuite struct {
	suite.Suite
}

func TestWrapperTestSuite(t *testing.T) {
	suite.Run(t, new(WrapperTestSuite))
}

func (ts *WrapperTestSuite) TestFIFOThroughWrapper() {
	w := NewWrapper[int](&sliceQueue[int]{}, 2)
	ts.True(w.Offer(1))
	ts.True(w.Offer(2))
	ts.False(w.Offer(3)) // bounded to 2

	v, ok := w.Poll()
	ts.True(ok)
	ts.Equal(1, v)
}

func (ts *WrapperTestSuite) TestTakeBlocksUntilOffer() {
	w := NewWrapper[int](&sliceQueue[int]{}, 0)
	result := make(chan int, 1)
	go func() {
		v, err := w.Take(context.Background())
		ts.NoError(err)
		result <- v
	}()

	time.Sleep(20 * time.Millisecond)
	w.Offer(9)

	select {
	case v := <-result:
		ts.Equal(9, v)
	case <-time.After(time.Second):
		ts.Fail("Take never unblocked")
	}
}

func (ts *WrapperTestSuite) TestRemoveAndDrainPreserveOrder() {
	w := NewWrapper[int](&sliceQueue[int]{}, 0)
	for _, v := range []int{1, 2, 3, 4} {
		w.Offer(v)
	}
	ts.True(w.Remove(2, func(a, b int) bool { return a == b }))

	drained := w.Drain(5, nil)
	ts.Equal([]int{1, 3, 4}, drained)
}
