// Package queue implements the blocking-queue family: a linked FIFO queue
// (bounded or unbounded), an array-backed bounded FIFO queue, a priority
// heap queue, a delay queue, and a generic wrapper that lifts any plain
// queue to the same blocking interface.
//
// Queues store values of an arbitrary element type T. Go has no
// universal "null" for an arbitrary T, so callers that need an
// absent-element sentinel should use a pointer or a comparable wrapper
// type; this package enforces nothing beyond what T allows.
package queue

import (
	"context"
	"errors"
)

// ErrQueueBroken is returned by put-family operations once a
// LinkedBlockingQueue has been closed via Break, and by take once the
// broken queue has drained; Clear returns the queue to normal operation.
var ErrQueueBroken = errors.New("queue: broken")

// BlockingQueue is the uniform capability set every queue in this package
// implements.
type BlockingQueue[T any] interface {
	// Offer inserts v without blocking, returning false if the queue is
	// bounded and full.
	Offer(v T) bool
	// OfferContext inserts v, waiting until space is available or ctx is
	// done. Callers pass a ctx derived with a deadline for the
	// "offer(e, deadline)" contract: a bounded queue returns (false, nil)
	// when that deadline passes while it is full, and (false, err) when
	// ctx is cancelled for another reason. Unbounded queues never wait and
	// return (false, ctx.Err()) only if ctx is already done.
	OfferContext(ctx context.Context, v T) (bool, error)
	// Put inserts v, blocking indefinitely until space is available or ctx
	// is cancelled (the "interrupt" signal, see package future and
	// executor for how cancellation is propagated).
	Put(ctx context.Context, v T) error
	// Poll removes and returns the head without blocking.
	Poll() (T, bool)
	// PollContext removes and returns the head, waiting until an element
	// arrives or ctx is done.
	PollContext(ctx context.Context) (T, bool, error)
	// Take removes and returns the head, blocking indefinitely until an
	// element arrives or ctx is cancelled.
	Take(ctx context.Context) (T, error)
	// Peek inspects the head without removing it.
	Peek() (T, bool)
	// Remove deletes the first element equal to v per eq, scanning
	// linearly; it reports whether an element was removed.
	Remove(v T, eq func(a, b T) bool) bool
	// Drain atomically moves up to max elements matching match out of the
	// queue (match == nil matches everything) and returns them in FIFO
	// (or priority) order.
	Drain(max int, match func(T) bool) []T
	// Len reports the current element count.
	Len() int
	// RemainingCapacity reports how many more elements may be Offer'd
	// before the queue reports full; unbounded queues return
	// math.MaxInt.
	RemainingCapacity() int
}
