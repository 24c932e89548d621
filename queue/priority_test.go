package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
)

type PriorityQueueTestSuite struct {
	suite.Suite
}

func TestPriorityQueueTestSuite(t *testing.T) {
	suite.Run(t, new(PriorityQueueTestSuite))
}

func (ts *PriorityQueueTestSuite) TestNaturalOrderPops() {
	q := NewPriorityOrdered[int]()
	for _, v := range []int{5, 1, 3} {
		ts.True(q.Offer(v))
	}
	for _, want := range []int{1, 3, 5} {
		v, ok := q.Poll()
		ts.True(ok)
		ts.Equal(want, v)
	}
}

func (ts *PriorityQueueTestSuite) TestCustomComparatorDescending() {
	q := NewPriority[int](func(a, b int) bool { return a > b })
	for _, v := range []int{5, 1, 3} {
		q.Offer(v)
	}
	for _, want := range []int{5, 3, 1} {
		v, ok := q.Poll()
		ts.True(ok)
		ts.Equal(want, v)
	}
}

func (ts *PriorityQueueTestSuite) TestRemoveInterior() {
	q := NewPriorityOrdered[int]()
	for _, v := range []int{9, 4, 7, 1, 5} {
		q.Offer(v)
	}
	ts.True(q.Remove(7, func(a, b int) bool { return a == b }))
	ts.False(q.Remove(42, func(a, b int) bool { return a == b }))

	var got []int
	for {
		v, ok := q.Poll()
		if !ok {
			break
		}
		got = append(got, v)
	}
	ts.Equal([]int{1, 4, 5, 9}, got)
}

func (ts *PriorityQueueTestSuite) TestUnboundedNeverBlocks() {
	q := NewPriorityOrdered[int]()
	ok, err := q.OfferContext(context.Background(), 1)
	ts.True(ok)
	ts.NoError(err)
	ts.Greater(q.RemainingCapacity(), 0)
}

func (ts *PriorityQueueTestSuite) TestDrainPopsInPriorityOrder() {
	q := NewPriorityOrdered[int]()
	for _, v := range []int{8, 2, 6, 4} {
		q.Offer(v)
	}
	out := q.Drain(2, nil)
	ts.Equal([]int{2, 4}, out)
	ts.Equal(2, q.Len())
}
