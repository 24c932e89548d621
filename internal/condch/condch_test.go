package condch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type CondTestSuite struct {
	suite.Suite
}

func TestCondTestSuite(t *testing.T) {
	suite.Run(t, new(CondTestSuite))
}

func (ts *CondTestSuite) TestBroadcastWakesWaiter() {
	var mu sync.Mutex
	cond := New()

	woke := make(chan error, 1)
	go func() {
		mu.Lock()
		err := cond.Wait(context.Background(), &mu)
		mu.Unlock()
		woke <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cond.Broadcast()

	select {
	case err := <-woke:
		ts.NoError(err)
	case <-time.After(time.Second):
		ts.Fail("waiter was not woken by Broadcast")
	}
}

func (ts *CondTestSuite) TestContextCancelUnblocksWaiter() {
	var mu sync.Mutex
	cond := New()

	ctx, cancel := context.WithCancel(context.Background())

	woke := make(chan error, 1)
	go func() {
		mu.Lock()
		err := cond.Wait(ctx, &mu)
		mu.Unlock()
		woke <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-woke:
		ts.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		ts.Fail("waiter was not woken by context cancellation")
	}
}

func (ts *CondTestSuite) TestLockHeldAfterWait() {
	var mu sync.Mutex
	cond := New()

	done := make(chan struct{})
	held := false
	go func() {
		mu.Lock()
		_ = cond.Wait(context.Background(), &mu)
		// mu must be held here, so TryLock on it fails.
		held = !mu.TryLock()
		close(done)
		mu.Unlock()
	}()

	time.Sleep(10 * time.Millisecond)
	cond.Broadcast()
	<-done
	ts.True(held)
}

func (ts *CondTestSuite) TestReadySnapshotObservesLaterBroadcast() {
	cond := New()

	ch := cond.Ready()
	select {
	case <-ch:
		ts.Fail("channel closed before any Broadcast")
	default:
	}

	cond.Broadcast()

	select {
	case <-ch:
	case <-time.After(time.Second):
		ts.Fail("snapshotted channel was not closed by Broadcast")
	}

	// A fresh snapshot after the Broadcast must be open again.
	select {
	case <-cond.Ready():
		ts.Fail("post-broadcast snapshot should be a new, open channel")
	default:
	}
}
