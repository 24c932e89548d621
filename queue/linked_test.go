package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type LinkedQueueTestSuite struct {
	suite.Suite
}

func TestLinkedQueueTestSuite(t *testing.T) {
	suite.Run(t, new(LinkedQueueTestSuite))
}

func (ts *LinkedQueueTestSuite) TestOfferPollFIFO() {
	q := NewLinked[int](0)
	for _, v := range []int{1, 2, 3} {
		ts.True(q.Offer(v))
	}
	for _, want := range []int{1, 2, 3} {
		v, ok := q.Poll()
		ts.True(ok)
		ts.Equal(want, v)
	}
	_, ok := q.Poll()
	ts.False(ok)
}

func (ts *LinkedQueueTestSuite) TestBoundedOfferFailsWhenFull() {
	q := NewLinked[int](1)
	ts.True(q.Offer(1))
	ts.False(q.Offer(2))
	ts.Equal(0, q.RemainingCapacity())
}

func (ts *LinkedQueueTestSuite) TestTakeBlocksUntilOffer() {
	q := NewLinked[int](0)
	ctx := context.Background()

	result := make(chan int, 1)
	go func() {
		v, err := q.Take(ctx)
		ts.NoError(err)
		result <- v
	}()

	time.Sleep(20 * time.Millisecond)
	ts.True(q.Offer(42))

	select {
	case v := <-result:
		ts.Equal(42, v)
	case <-time.After(time.Second):
		ts.Fail("Take did not unblock after Offer")
	}
}

func (ts *LinkedQueueTestSuite) TestCapacityOneSerializesProducerConsumer() {
	q := NewLinked[int](1)
	ctx := context.Background()
	const n = 50

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			ts.NoError(q.Put(ctx, i))
		}
	}()

	got := make([]int, 0, n)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			v, err := q.Take(ctx)
			ts.NoError(err)
			got = append(got, v)
		}
	}()

	wg.Wait()
	ts.Len(got, n)
	for i, v := range got {
		ts.Equal(i, v)
	}
}

func (ts *LinkedQueueTestSuite) TestBreakWakesWaitersAndFailsPut() {
	q := NewLinked[int](1)
	ctx := context.Background()
	ts.True(q.Offer(1)) // fill the queue

	errCh := make(chan error, 1)
	go func() {
		errCh <- q.Put(ctx, 2)
	}()

	time.Sleep(20 * time.Millisecond)
	q.Break()

	select {
	case err := <-errCh:
		ts.ErrorIs(err, ErrQueueBroken)
	case <-time.After(time.Second):
		ts.Fail("Put blocked past Break")
	}

	// Take still drains the remaining item...
	v, err := q.Take(ctx)
	ts.NoError(err)
	ts.Equal(1, v)

	// ...then fails once empty.
	_, err = q.Take(ctx)
	ts.ErrorIs(err, ErrQueueBroken)
}

func (ts *LinkedQueueTestSuite) TestTakeContextCancelReturnsInterruption() {
	q := NewLinked[int](0)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Take(ctx)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		ts.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		ts.Fail("Take did not observe context cancellation")
	}
}

func (ts *LinkedQueueTestSuite) TestRemoveAndDrain() {
	q := NewLinked[int](0)
	for _, v := range []int{1, 2, 3, 4} {
		q.Offer(v)
	}
	ts.True(q.Remove(3, func(a, b int) bool { return a == b }))
	ts.False(q.Remove(99, func(a, b int) bool { return a == b }))

	drained := q.Drain(10, func(v int) bool { return v%2 == 0 })
	ts.Equal([]int{2, 4}, drained)
	ts.Equal(1, q.Len())
}
