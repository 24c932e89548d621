package queue

import (
	"cmp"
	"context"
	"errors"
	"math"
	"sync"

	"github.com/go-foundations/conc/internal/condch"
)

// PriorityBlockingQueue is an unbounded array-backed binary min-heap
// ordered by a comparator: Offer/Put never block or fail for capacity
// reasons. Insertion sifts up, head removal sifts down, and an interior
// removal re-settles the heap in both directions from the vacated slot.
type PriorityBlockingQueue[T any] struct {
	mu       sync.Mutex
	items    []T
	less     func(a, b T) bool
	notEmpty *condch.Cond
}

// NewPriority constructs a PriorityBlockingQueue ordered by less, where
// less(a, b) reports whether a sorts before b (min-heap root == smallest
// per less).
func NewPriority[T any](less func(a, b T) bool) *PriorityBlockingQueue[T] {
	return &PriorityBlockingQueue[T]{less: less, notEmpty: condch.New()}
}

// NewPriorityOrdered constructs a PriorityBlockingQueue using the natural
// order of an ordered type.
func NewPriorityOrdered[T cmp.Ordered]() *PriorityBlockingQueue[T] {
	return NewPriority[T](func(a, b T) bool { return a < b })
}

// caller holds q.mu
func (q *PriorityBlockingQueue[T]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if q.less(q.items[i], q.items[parent]) {
			q.items[i], q.items[parent] = q.items[parent], q.items[i]
			i = parent
		} else {
			break
		}
	}
}

// caller holds q.mu
func (q *PriorityBlockingQueue[T]) siftDown(i int) {
	n := len(q.items)
	for {
		l, r := 2*i+1, 2*i+2
		smallest := i
		if l < n && q.less(q.items[l], q.items[smallest]) {
			smallest = l
		}
		if r < n && q.less(q.items[r], q.items[smallest]) {
			smallest = r
		}
		if smallest == i {
			break
		}
		q.items[i], q.items[smallest] = q.items[smallest], q.items[i]
		i = smallest
	}
}

// removeAt pops the element at index i, replacing it with the heap's last
// element and re-settling the heap property in both directions. Caller
// holds q.mu and i is a valid index.
func (q *PriorityBlockingQueue[T]) removeAt(i int) T {
	n := len(q.items)
	v := q.items[i]
	last := n - 1
	q.items[i] = q.items[last]
	var zero T
	q.items[last] = zero
	q.items = q.items[:last]
	if i < len(q.items) {
		q.siftDown(i)
		q.siftUp(i)
	}
	return v
}

func (q *PriorityBlockingQueue[T]) push(v T) {
	q.items = append(q.items, v)
	q.siftUp(len(q.items) - 1)
}

func (q *PriorityBlockingQueue[T]) Offer(v T) bool {
	q.mu.Lock()
	q.push(v)
	q.mu.Unlock()
	q.notEmpty.Broadcast()
	return true
}

func (q *PriorityBlockingQueue[T]) OfferContext(ctx context.Context, v T) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return q.Offer(v), nil
}

func (q *PriorityBlockingQueue[T]) Put(ctx context.Context, v T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.Offer(v)
	return nil
}

func (q *PriorityBlockingQueue[T]) Poll() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	return q.removeAt(0), true
}

func (q *PriorityBlockingQueue[T]) PollContext(ctx context.Context) (T, bool, error) {
	q.mu.Lock()
	var zero T
	for len(q.items) == 0 {
		if err := q.notEmpty.Wait(ctx, &q.mu); err != nil {
			q.mu.Unlock()
			if errors.Is(err, context.DeadlineExceeded) {
				return zero, false, nil
			}
			return zero, false, err
		}
	}
	v := q.removeAt(0)
	q.mu.Unlock()
	return v, true, nil
}

func (q *PriorityBlockingQueue[T]) Take(ctx context.Context) (T, error) {
	q.mu.Lock()
	var zero T
	for len(q.items) == 0 {
		if err := q.notEmpty.Wait(ctx, &q.mu); err != nil {
			q.mu.Unlock()
			return zero, err
		}
	}
	v := q.removeAt(0)
	q.mu.Unlock()
	return v, nil
}

func (q *PriorityBlockingQueue[T]) Peek() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	return q.items[0], true
}

func (q *PriorityBlockingQueue[T]) Remove(v T, eq func(a, b T) bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, item := range q.items {
		if eq(item, v) {
			q.removeAt(i)
			return true
		}
	}
	return false
}

func (q *PriorityBlockingQueue[T]) Drain(max int, match func(T) bool) []T {
	if max <= 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	var out, kept []T
	for len(q.items) > 0 {
		v := q.removeAt(0)
		if len(out) < max && (match == nil || match(v)) {
			out = append(out, v)
		} else {
			kept = append(kept, v)
		}
	}
	for _, v := range kept {
		q.push(v)
	}
	return out
}

func (q *PriorityBlockingQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *PriorityBlockingQueue[T]) RemainingCapacity() int {
	return math.MaxInt
}

var _ BlockingQueue[int] = (*PriorityBlockingQueue[int])(nil)
