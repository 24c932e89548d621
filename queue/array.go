package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/go-foundations/conc/internal/condch"
)

// ArrayBlockingQueue is a fixed-capacity circular-buffer FIFO queue guarded
// by a single lock, with separate not-empty/not-full conditions.
type ArrayBlockingQueue[T any] struct {
	mu sync.Mutex

	items     []T
	takeIndex int
	putIndex  int
	count     int

	notEmpty *condch.Cond
	notFull  *condch.Cond
}

// NewArray constructs an ArrayBlockingQueue with the given fixed capacity.
// capacity must be positive.
func NewArray[T any](capacity int) *ArrayBlockingQueue[T] {
	if capacity <= 0 {
		panic("queue: array capacity must be positive")
	}
	return &ArrayBlockingQueue[T]{
		items:    make([]T, capacity),
		notEmpty: condch.New(),
		notFull:  condch.New(),
	}
}

// caller holds q.mu
func (q *ArrayBlockingQueue[T]) enqueue(v T) {
	q.items[q.putIndex] = v
	q.putIndex++
	if q.putIndex == len(q.items) {
		q.putIndex = 0
	}
	q.count++
	q.notEmpty.Broadcast()
}

// caller holds q.mu, count > 0
func (q *ArrayBlockingQueue[T]) dequeue() T {
	v := q.items[q.takeIndex]
	var zero T
	q.items[q.takeIndex] = zero
	q.takeIndex++
	if q.takeIndex == len(q.items) {
		q.takeIndex = 0
	}
	q.count--
	q.notFull.Broadcast()
	return v
}

func (q *ArrayBlockingQueue[T]) Offer(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == len(q.items) {
		return false
	}
	q.enqueue(v)
	return true
}

func (q *ArrayBlockingQueue[T]) OfferContext(ctx context.Context, v T) (bool, error) {
	q.mu.Lock()
	for q.count == len(q.items) {
		if err := q.notFull.Wait(ctx, &q.mu); err != nil {
			q.mu.Unlock()
			if errors.Is(err, context.DeadlineExceeded) {
				return false, nil
			}
			return false, err
		}
	}
	q.enqueue(v)
	q.mu.Unlock()
	return true, nil
}

func (q *ArrayBlockingQueue[T]) Put(ctx context.Context, v T) error {
	q.mu.Lock()
	for q.count == len(q.items) {
		if err := q.notFull.Wait(ctx, &q.mu); err != nil {
			q.mu.Unlock()
			return err
		}
	}
	q.enqueue(v)
	q.mu.Unlock()
	return nil
}

func (q *ArrayBlockingQueue[T]) Poll() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if q.count == 0 {
		return zero, false
	}
	return q.dequeue(), true
}

func (q *ArrayBlockingQueue[T]) PollContext(ctx context.Context) (T, bool, error) {
	q.mu.Lock()
	var zero T
	for q.count == 0 {
		if err := q.notEmpty.Wait(ctx, &q.mu); err != nil {
			q.mu.Unlock()
			if errors.Is(err, context.DeadlineExceeded) {
				return zero, false, nil
			}
			return zero, false, err
		}
	}
	v := q.dequeue()
	q.mu.Unlock()
	return v, true, nil
}

func (q *ArrayBlockingQueue[T]) Take(ctx context.Context) (T, error) {
	q.mu.Lock()
	var zero T
	for q.count == 0 {
		if err := q.notEmpty.Wait(ctx, &q.mu); err != nil {
			q.mu.Unlock()
			return zero, err
		}
	}
	v := q.dequeue()
	q.mu.Unlock()
	return v, nil
}

func (q *ArrayBlockingQueue[T]) Peek() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if q.count == 0 {
		return zero, false
	}
	return q.items[q.takeIndex], true
}

func (q *ArrayBlockingQueue[T]) Remove(v T, eq func(a, b T) bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	i := q.takeIndex
	for k := 0; k < q.count; k++ {
		if eq(q.items[i], v) {
			q.removeAt(i)
			return true
		}
		i = (i + 1) % n
	}
	return false
}

// removeAt shifts elements after index i back by one slot inside the
// ring, closing the gap. Caller holds q.mu.
func (q *ArrayBlockingQueue[T]) removeAt(i int) {
	n := len(q.items)
	var zero T
	if i == q.takeIndex {
		q.items[q.takeIndex] = zero
		q.takeIndex = (q.takeIndex + 1) % n
		q.count--
		q.notFull.Broadcast()
		return
	}
	for {
		next := (i + 1) % n
		if next == q.putIndex {
			break
		}
		q.items[i] = q.items[next]
		i = next
	}
	q.items[i] = zero
	q.putIndex = i
	q.count--
	q.notFull.Broadcast()
}

func (q *ArrayBlockingQueue[T]) Drain(max int, match func(T) bool) []T {
	if max <= 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	var out, kept []T
	i := q.takeIndex
	for k := 0; k < q.count; k++ {
		v := q.items[i]
		if len(out) < max && (match == nil || match(v)) {
			out = append(out, v)
		} else {
			kept = append(kept, v)
		}
		i = (i + 1) % n
	}
	if len(out) == 0 {
		return nil
	}

	var zero T
	for idx := range q.items {
		q.items[idx] = zero
	}
	q.takeIndex = 0
	for idx, v := range kept {
		q.items[idx] = v
	}
	q.putIndex = len(kept) % n
	q.count = len(kept)
	q.notFull.Broadcast()
	return out
}

func (q *ArrayBlockingQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

func (q *ArrayBlockingQueue[T]) RemainingCapacity() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.count
}

var _ BlockingQueue[int] = (*ArrayBlockingQueue[int])(nil)
