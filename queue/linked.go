package queue

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"

	"github.com/go-foundations/conc/internal/condch"
)

type linkedNode[T any] struct {
	val  T
	next *linkedNode[T]
}

// LinkedBlockingQueue is a FIFO queue backed by a singly-linked list of
// nodes, using the two-lock hand-off pattern: a put-lock
// serializes producers appending to the tail, a take-lock serializes
// consumers removing from the head, and a shared atomic count lets each
// side decide when to cross over and wake the other.
//
// A capacity of 0 or less means unbounded.
type LinkedBlockingQueue[T any] struct {
	capacity int
	count    atomic.Int64

	takeLock sync.Mutex
	notEmpty *condch.Cond
	head     *linkedNode[T]

	putLock sync.Mutex
	notFull *condch.Cond
	tail    *linkedNode[T]

	broken atomic.Bool
}

// NewLinked constructs a LinkedBlockingQueue with the given capacity.
// capacity <= 0 means unbounded.
func NewLinked[T any](capacity int) *LinkedBlockingQueue[T] {
	if capacity <= 0 {
		capacity = math.MaxInt
	}
	sentinel := &linkedNode[T]{}
	return &LinkedBlockingQueue[T]{
		capacity: capacity,
		head:     sentinel,
		tail:     sentinel,
		notEmpty: condch.New(),
		notFull:  condch.New(),
	}
}

func (q *LinkedBlockingQueue[T]) fullyLock() {
	q.putLock.Lock()
	q.takeLock.Lock()
}

func (q *LinkedBlockingQueue[T]) fullyUnlock() {
	q.takeLock.Unlock()
	q.putLock.Unlock()
}

// enqueue appends node under putLock; caller holds putLock.
func (q *LinkedBlockingQueue[T]) enqueue(node *linkedNode[T]) {
	q.tail.next = node
	q.tail = node
}

// dequeue removes and returns the head value under takeLock; caller holds
// takeLock and has verified count > 0.
func (q *LinkedBlockingQueue[T]) dequeue() T {
	first := q.head.next
	q.head = first
	val := first.val
	var zero T
	first.val = zero
	return val
}

func (q *LinkedBlockingQueue[T]) signalNotEmpty() {
	q.takeLock.Lock()
	q.notEmpty.Broadcast()
	q.takeLock.Unlock()
}

func (q *LinkedBlockingQueue[T]) signalNotFull() {
	q.putLock.Lock()
	q.notFull.Broadcast()
	q.putLock.Unlock()
}

// Break closes the queue for producers until Clear is called: subsequent
// Put/OfferContext fail with ErrQueueBroken (Offer returns false), and
// Take drains remaining items before also failing with ErrQueueBroken.
// All current waiters are woken.
func (q *LinkedBlockingQueue[T]) Break() {
	q.broken.Store(true)
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}

// IsBroken reports whether Break has been called (and Clear has not since
// reset the queue).
func (q *LinkedBlockingQueue[T]) IsBroken() bool {
	return q.broken.Load()
}

// Clear empties the queue and reverses a prior Break, restoring normal
// operation.
func (q *LinkedBlockingQueue[T]) Clear() {
	q.fullyLock()
	defer q.fullyUnlock()
	q.head = &linkedNode[T]{}
	q.tail = q.head
	old := q.count.Swap(0)
	q.broken.Store(false)
	if old > 0 {
		q.notFull.Broadcast()
	}
}

func (q *LinkedBlockingQueue[T]) Offer(v T) bool {
	if q.count.Load() >= int64(q.capacity) {
		return false
	}
	node := &linkedNode[T]{val: v}
	c := int64(-1)
	q.putLock.Lock()
	if !q.broken.Load() && q.count.Load() < int64(q.capacity) {
		q.enqueue(node)
		c = q.count.Add(1) - 1
		if c+1 < int64(q.capacity) {
			q.notFull.Broadcast()
		}
	}
	q.putLock.Unlock()
	if c == 0 {
		q.signalNotEmpty()
	}
	return c >= 0
}

func (q *LinkedBlockingQueue[T]) OfferContext(ctx context.Context, v T) (bool, error) {
	node := &linkedNode[T]{val: v}
	q.putLock.Lock()
	for q.count.Load() == int64(q.capacity) {
		if q.broken.Load() {
			q.putLock.Unlock()
			return false, ErrQueueBroken
		}
		if err := q.notFull.Wait(ctx, &q.putLock); err != nil {
			q.putLock.Unlock()
			if errors.Is(err, context.DeadlineExceeded) {
				return false, nil
			}
			return false, err
		}
	}
	if q.broken.Load() {
		q.putLock.Unlock()
		return false, ErrQueueBroken
	}
	q.enqueue(node)
	c := q.count.Add(1) - 1
	if c+1 < int64(q.capacity) {
		q.notFull.Broadcast()
	}
	q.putLock.Unlock()
	if c == 0 {
		q.signalNotEmpty()
	}
	return true, nil
}

func (q *LinkedBlockingQueue[T]) Put(ctx context.Context, v T) error {
	node := &linkedNode[T]{val: v}
	q.putLock.Lock()
	for q.count.Load() == int64(q.capacity) {
		if q.broken.Load() {
			q.putLock.Unlock()
			return ErrQueueBroken
		}
		if err := q.notFull.Wait(ctx, &q.putLock); err != nil {
			q.putLock.Unlock()
			return err
		}
	}
	if q.broken.Load() {
		q.putLock.Unlock()
		return ErrQueueBroken
	}
	q.enqueue(node)
	c := q.count.Add(1) - 1
	if c+1 < int64(q.capacity) {
		q.notFull.Broadcast()
	}
	q.putLock.Unlock()
	if c == 0 {
		q.signalNotEmpty()
	}
	return nil
}

func (q *LinkedBlockingQueue[T]) Poll() (T, bool) {
	var zero T
	if q.count.Load() == 0 {
		return zero, false
	}
	c := int64(-1)
	q.takeLock.Lock()
	if q.count.Load() > 0 {
		val := q.dequeue()
		c = q.count.Add(-1) + 1
		if c > 1 {
			q.notEmpty.Broadcast()
		}
		q.takeLock.Unlock()
		if c == int64(q.capacity) {
			q.signalNotFull()
		}
		return val, true
	}
	q.takeLock.Unlock()
	return zero, false
}

func (q *LinkedBlockingQueue[T]) PollContext(ctx context.Context) (T, bool, error) {
	var zero T
	q.takeLock.Lock()
	for q.count.Load() == 0 {
		if q.broken.Load() {
			q.takeLock.Unlock()
			return zero, false, ErrQueueBroken
		}
		if err := q.notEmpty.Wait(ctx, &q.takeLock); err != nil {
			q.takeLock.Unlock()
			if errors.Is(err, context.DeadlineExceeded) {
				return zero, false, nil
			}
			return zero, false, err
		}
	}
	val := q.dequeue()
	c := q.count.Add(-1) + 1
	if c > 1 {
		q.notEmpty.Broadcast()
	}
	q.takeLock.Unlock()
	if c == int64(q.capacity) {
		q.signalNotFull()
	}
	return val, true, nil
}

func (q *LinkedBlockingQueue[T]) Take(ctx context.Context) (T, error) {
	var zero T
	q.takeLock.Lock()
	for q.count.Load() == 0 {
		if q.broken.Load() {
			q.takeLock.Unlock()
			return zero, ErrQueueBroken
		}
		if err := q.notEmpty.Wait(ctx, &q.takeLock); err != nil {
			q.takeLock.Unlock()
			return zero, err
		}
	}
	val := q.dequeue()
	c := q.count.Add(-1) + 1
	if c > 1 {
		q.notEmpty.Broadcast()
	}
	q.takeLock.Unlock()
	if c == int64(q.capacity) {
		q.signalNotFull()
	}
	return val, nil
}

func (q *LinkedBlockingQueue[T]) Peek() (T, bool) {
	q.takeLock.Lock()
	defer q.takeLock.Unlock()
	var zero T
	if q.head.next == nil {
		return zero, false
	}
	return q.head.next.val, true
}

func (q *LinkedBlockingQueue[T]) Remove(v T, eq func(a, b T) bool) bool {
	q.fullyLock()
	defer q.fullyUnlock()

	trail := q.head
	p := q.head.next
	for p != nil {
		if eq(p.val, v) {
			q.unlink(p, trail)
			return true
		}
		trail = p
		p = p.next
	}
	return false
}

// unlink removes node p, whose predecessor is trail; caller holds both
// locks.
func (q *LinkedBlockingQueue[T]) unlink(p, trail *linkedNode[T]) {
	var zero T
	p.val = zero
	trail.next = p.next
	if q.tail == p {
		q.tail = trail
	}
	if q.count.Add(-1)+1 == int64(q.capacity) {
		q.notFull.Broadcast()
	}
}

func (q *LinkedBlockingQueue[T]) Drain(max int, match func(T) bool) []T {
	if max <= 0 {
		return nil
	}
	q.fullyLock()
	defer q.fullyUnlock()

	var out []T
	trail := q.head
	p := q.head.next
	for p != nil && len(out) < max {
		if match == nil || match(p.val) {
			out = append(out, p.val)
			next := p.next
			trail.next = next
			if q.tail == p {
				q.tail = trail
			}
			q.count.Add(-1)
			p = next
			continue
		}
		trail = p
		p = p.next
	}
	if len(out) > 0 {
		q.notFull.Broadcast()
	}
	return out
}

func (q *LinkedBlockingQueue[T]) Len() int {
	return int(q.count.Load())
}

func (q *LinkedBlockingQueue[T]) RemainingCapacity() int {
	if q.capacity == math.MaxInt {
		return math.MaxInt
	}
	return q.capacity - int(q.count.Load())
}

var _ BlockingQueue[int] = (*LinkedBlockingQueue[int])(nil)
