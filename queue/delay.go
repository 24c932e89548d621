package queue

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/go-foundations/conc/internal/condch"
)

// Delayed is implemented by elements stored in a DelayBlockingQueue.
// Delay reports the remaining time before the element becomes eligible
// for removal; values <= 0 mean "ready now".
type Delayed interface {
	Delay() time.Duration
}

// DelayBlockingQueue is a priority queue of Delayed items: the head is
// always the item expiring soonest, and Take waits exactly
// that item's remaining delay (or indefinitely if the queue is empty).
type DelayBlockingQueue[T Delayed] struct {
	mu       sync.Mutex
	items    []T
	notEmpty *condch.Cond
}

// NewDelay constructs an empty DelayBlockingQueue.
func NewDelay[T Delayed]() *DelayBlockingQueue[T] {
	return &DelayBlockingQueue[T]{notEmpty: condch.New()}
}

func less[T Delayed](a, b T) bool { return a.Delay() < b.Delay() }

// caller holds q.mu
func (q *DelayBlockingQueue[T]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if less(q.items[i], q.items[parent]) {
			q.items[i], q.items[parent] = q.items[parent], q.items[i]
			i = parent
		} else {
			break
		}
	}
}

// caller holds q.mu
func (q *DelayBlockingQueue[T]) siftDown(i int) {
	n := len(q.items)
	for {
		l, r := 2*i+1, 2*i+2
		smallest := i
		if l < n && less(q.items[l], q.items[smallest]) {
			smallest = l
		}
		if r < n && less(q.items[r], q.items[smallest]) {
			smallest = r
		}
		if smallest == i {
			break
		}
		q.items[i], q.items[smallest] = q.items[smallest], q.items[i]
		i = smallest
	}
}

// caller holds q.mu
func (q *DelayBlockingQueue[T]) removeAt(i int) T {
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

func (q *DelayBlockingQueue[T]) push(v T) {
	q.items = append(q.items, v)
	q.siftUp(len(q.items) - 1)
}

// Offer is unbounded and always succeeds; a newly inserted item that
// supersedes the current head (sooner expiry) is handled conservatively
// by always waking waiters, so they re-derive their wait against the new
// head.
func (q *DelayBlockingQueue[T]) Offer(v T) bool {
	q.mu.Lock()
	q.push(v)
	q.mu.Unlock()
	q.notEmpty.Broadcast()
	return true
}

func (q *DelayBlockingQueue[T]) OfferContext(ctx context.Context, v T) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return q.Offer(v), nil
}

func (q *DelayBlockingQueue[T]) Put(ctx context.Context, v T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.Offer(v)
	return nil
}

func (q *DelayBlockingQueue[T]) Poll() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) == 0 || q.items[0].Delay() > 0 {
		return zero, false
	}
	return q.removeAt(0), true
}

func (q *DelayBlockingQueue[T]) Take(ctx context.Context) (T, error) {
	q.mu.Lock()
	var zero T
	for {
		if len(q.items) == 0 {
			if err := q.notEmpty.Wait(ctx, &q.mu); err != nil {
				q.mu.Unlock()
				return zero, err
			}
			continue
		}
		if d := q.items[0].Delay(); d <= 0 {
			v := q.removeAt(0)
			q.mu.Unlock()
			return v, nil
		} else {
			waitCtx, cancel := context.WithTimeout(ctx, d)
			err := q.notEmpty.Wait(waitCtx, &q.mu)
			cancel()
			if err != nil && (ctx.Err() != nil || !errors.Is(err, context.DeadlineExceeded)) {
				q.mu.Unlock()
				return zero, err
			}
			// either the head's delay elapsed, or we were woken by a
			// Broadcast (new head, new item, Offer); re-check from the top.
		}
	}
}

func (q *DelayBlockingQueue[T]) PollContext(ctx context.Context) (T, bool, error) {
	q.mu.Lock()
	var zero T
	for {
		if len(q.items) > 0 {
			if d := q.items[0].Delay(); d <= 0 {
				v := q.removeAt(0)
				q.mu.Unlock()
				return v, true, nil
			} else {
				waitCtx, cancel := context.WithTimeout(ctx, d)
				err := q.notEmpty.Wait(waitCtx, &q.mu)
				cancel()
				if err != nil {
					if errors.Is(err, context.DeadlineExceeded) {
						if ctx.Err() != nil {
							q.mu.Unlock()
							return zero, false, nil
						}
						continue
					}
					q.mu.Unlock()
					return zero, false, err
				}
				continue
			}
		}
		if err := q.notEmpty.Wait(ctx, &q.mu); err != nil {
			q.mu.Unlock()
			if errors.Is(err, context.DeadlineExceeded) {
				return zero, false, nil
			}
			return zero, false, err
		}
	}
}

func (q *DelayBlockingQueue[T]) Peek() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	return q.items[0], true
}

func (q *DelayBlockingQueue[T]) Remove(v T, eq func(a, b T) bool) bool {
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

// Drain removes up to max ready (Delay() <= 0) items matching match,
// leaving not-yet-ready items in the queue untouched.
func (q *DelayBlockingQueue[T]) Drain(max int, match func(T) bool) []T {
	if max <= 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	var out, kept []T
	for len(out) < max && len(q.items) > 0 && q.items[0].Delay() <= 0 {
		v := q.removeAt(0)
		if match != nil && !match(v) {
			kept = append(kept, v)
			continue
		}
		out = append(out, v)
	}
	for _, v := range kept {
		q.push(v)
	}
	return out
}

func (q *DelayBlockingQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *DelayBlockingQueue[T]) RemainingCapacity() int {
	return math.MaxInt
}

var _ BlockingQueue[delayedInt] = (*DelayBlockingQueue[delayedInt])(nil)

// delayedInt exists solely to let the compiler check DelayBlockingQueue's
// interface conformance above; it is not part of the public API.
type delayedInt int

func (delayedInt) Delay() time.Duration { return 0 }
