package queue

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/go-foundations/conc/internal/condch"
)

// PlainQueue is the minimal non-blocking queue capability Wrapper needs
// from whatever it wraps.
type PlainQueue[T any] interface {
	Offer(v T) bool
	Poll() (T, bool)
	Peek() (T, bool)
	Len() int
}

// Wrapper lifts any PlainQueue to the full BlockingQueue interface using a
// single reentrant-in-spirit lock (a plain sync.Mutex; Go mutexes are not
// re-entrant, and none of Wrapper's methods call back into themselves
// while holding it) with not-empty/not-full conditions, giving it
// semantics identical to ArrayBlockingQueue.
//
// Fairness caveat: the
// underlying PlainQueue.Offer and this wrapper's Broadcast are two
// separate steps; a waiter unblocked by Broadcast still has to win the
// mutex and re-check the predicate like any other goroutine, so under
// contention a later arrival can be served before an earlier one. This
// wrapper does not attempt FIFO fairness among waiters — documented
// non-guarantee, not a bug.
type Wrapper[T any] struct {
	mu       sync.Mutex
	q        PlainQueue[T]
	capacity int

	notEmpty *condch.Cond
	notFull  *condch.Cond
}

// NewWrapper wraps q, treating capacity <= 0 as unbounded.
func NewWrapper[T any](q PlainQueue[T], capacity int) *Wrapper[T] {
	if capacity <= 0 {
		capacity = math.MaxInt
	}
	return &Wrapper[T]{
		q:        q,
		capacity: capacity,
		notEmpty: condch.New(),
		notFull:  condch.New(),
	}
}

func (w *Wrapper[T]) Offer(v T) bool {
	w.mu.Lock()
	if w.q.Len() >= w.capacity {
		w.mu.Unlock()
		return false
	}
	ok := w.q.Offer(v)
	w.mu.Unlock()
	if ok {
		w.notEmpty.Broadcast()
	}
	return ok
}

func (w *Wrapper[T]) OfferContext(ctx context.Context, v T) (bool, error) {
	w.mu.Lock()
	for w.q.Len() >= w.capacity {
		if err := w.notFull.Wait(ctx, &w.mu); err != nil {
			w.mu.Unlock()
			if errors.Is(err, context.DeadlineExceeded) {
				return false, nil
			}
			return false, err
		}
	}
	ok := w.q.Offer(v)
	w.mu.Unlock()
	if ok {
		w.notEmpty.Broadcast()
	}
	return ok, nil
}

func (w *Wrapper[T]) Put(ctx context.Context, v T) error {
	w.mu.Lock()
	for w.q.Len() >= w.capacity {
		if err := w.notFull.Wait(ctx, &w.mu); err != nil {
			w.mu.Unlock()
			return err
		}
	}
	ok := w.q.Offer(v)
	w.mu.Unlock()
	if ok {
		w.notEmpty.Broadcast()
	}
	return nil
}

func (w *Wrapper[T]) Poll() (T, bool) {
	w.mu.Lock()
	v, ok := w.q.Poll()
	w.mu.Unlock()
	if ok {
		w.notFull.Broadcast()
	}
	return v, ok
}

func (w *Wrapper[T]) PollContext(ctx context.Context) (T, bool, error) {
	w.mu.Lock()
	var zero T
	for w.q.Len() == 0 {
		if err := w.notEmpty.Wait(ctx, &w.mu); err != nil {
			w.mu.Unlock()
			if errors.Is(err, context.DeadlineExceeded) {
				return zero, false, nil
			}
			return zero, false, err
		}
	}
	v, ok := w.q.Poll()
	w.mu.Unlock()
	if ok {
		w.notFull.Broadcast()
	}
	return v, ok, nil
}

func (w *Wrapper[T]) Take(ctx context.Context) (T, error) {
	w.mu.Lock()
	var zero T
	for w.q.Len() == 0 {
		if err := w.notEmpty.Wait(ctx, &w.mu); err != nil {
			w.mu.Unlock()
			return zero, err
		}
	}
	v, ok := w.q.Poll()
	w.mu.Unlock()
	if ok {
		w.notFull.Broadcast()
	}
	if !ok {
		return zero, errors.New("queue: wrapped queue reported non-empty but Poll failed")
	}
	return v, nil
}

func (w *Wrapper[T]) Peek() (T, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.q.Peek()
}

// Remove drains the wrapped queue, removing at most one element equal to
// v per eq and reinserting the rest in their original relative order.
func (w *Wrapper[T]) Remove(v T, eq func(a, b T) bool) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := w.q.Len()
	found := false
	var kept []T
	for i := 0; i < n; i++ {
		item, ok := w.q.Poll()
		if !ok {
			break
		}
		if !found && eq(item, v) {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	for _, item := range kept {
		w.q.Offer(item)
	}
	if found {
		w.notFull.Broadcast()
	}
	return found
}

func (w *Wrapper[T]) Drain(max int, match func(T) bool) []T {
	if max <= 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	n := w.q.Len()
	var out, kept []T
	for i := 0; i < n; i++ {
		item, ok := w.q.Poll()
		if !ok {
			break
		}
		if len(out) < max && (match == nil || match(item)) {
			out = append(out, item)
		} else {
			kept = append(kept, item)
		}
	}
	for _, item := range kept {
		w.q.Offer(item)
	}
	if len(out) > 0 {
		w.notFull.Broadcast()
	}
	return out
}

func (w *Wrapper[T]) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.q.Len()
}

func (w *Wrapper[T]) RemainingCapacity() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.capacity == math.MaxInt {
		return math.MaxInt
	}
	return w.capacity - w.q.Len()
}

var _ BlockingQueue[int] = (*Wrapper[int])(nil)
