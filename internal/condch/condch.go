// Package condch provides a channel-based condition variable that can be
// waited on alongside a context.Context, without leaking a goroutine per
// call the way a naive sync.Cond-plus-spawned-waiter does.
//
// The obvious recipe bridges a sync.Cond into a select by spawning a
// fresh goroutine per Wait() call that parks in cond.Wait() and closes a
// done channel; if the context fires first and no further Broadcast ever
// arrives, that goroutine blocks forever. Cond here swaps the condition
// variable for a version channel that is closed (and replaced) on every
// Broadcast, so a waiter can select on it directly with no helper
// goroutine.
package condch

import (
	"context"
	"sync"
)

// Cond is a broadcast-only condition variable, safe for concurrent use.
// The zero value is not usable; use New.
type Cond struct {
	mu sync.Mutex
	ch chan struct{}
}

// New returns a ready-to-use Cond.
func New() *Cond {
	return &Cond{ch: make(chan struct{})}
}

// Broadcast wakes every goroutine currently blocked in Wait. It does not
// require any external lock to be held, but callers typically hold the
// lock protecting the predicate Wait's caller re-checks after waking.
func (c *Cond) Broadcast() {
	c.mu.Lock()
	old := c.ch
	c.ch = make(chan struct{})
	c.mu.Unlock()
	close(old)
}

// Ready returns a channel closed by the next Broadcast. For waiters whose
// predicate is not guarded by the same lock the broadcaster holds (e.g. an
// atomic state word), the race-free pattern is snapshot-then-check:
//
//	for {
//	    ch := cond.Ready()
//	    if predicate() {
//	        return nil
//	    }
//	    select {
//	    case <-ch:
//	    case <-ctx.Done():
//	        return ctx.Err()
//	    }
//	}
//
// A Broadcast after the snapshot closes ch; a Broadcast before it is
// observed by the predicate check. Either way no wakeup is lost.
func (c *Cond) Ready() <-chan struct{} {
	c.mu.Lock()
	ch := c.ch
	c.mu.Unlock()
	return ch
}

// Wait blocks until either Broadcast is called or ctx is done, returning
// ctx.Err() in the latter case. The caller must hold the external lock
// protecting its predicate before calling Wait, and holds it again when
// Wait returns; the usual pattern is:
//
//	mu.Lock()
//	for !predicate() {
//	    if err := cond.Wait(ctx, &mu); err != nil {
//	        return err
//	    }
//	}
//	... mu still held ...
//	mu.Unlock()
//
// where Wait unlocks mu before blocking and relocks it before returning,
// mirroring sync.Cond.Wait's contract.
func (c *Cond) Wait(ctx context.Context, mu sync.Locker) error {
	c.mu.Lock()
	ch := c.ch
	c.mu.Unlock()

	mu.Unlock()
	defer mu.Lock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
