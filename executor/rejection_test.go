package executor

import (
	"context"
	"testing"
	"time"

	"github.com/go-foundations/conc/queue"
	"github.com/stretchr/testify/suite"
)

type RejectionTestSuite struct {
	suite.Suite
}

func TestRejectionTestSuite(t *testing.T) {
	suite.Run(t, new(RejectionTestSuite))
}

// saturatedPool builds a pool whose single worker is parked on block and
// whose one queue slot is occupied by a task that closes queuedRan when
// it eventually runs, so the next Execute must go through the rejection
// policy.
func (ts *RejectionTestSuite) saturatedPool(policy RejectionPolicy) (p *Pool, block, queuedRan chan struct{}) {
	cfg := DefaultConfig()
	cfg.CoreSize, cfg.MaxSize = 1, 1
	cfg.WorkQueue = queue.NewArray[*TaskEnvelope](1)
	cfg.RejectionPolicy = policy
	p, err := New(cfg)
	ts.Require().NoError(err)

	block = make(chan struct{})
	queuedRan = make(chan struct{})
	ts.Require().NoError(p.Execute(func(ctx context.Context) { <-block }))
	ts.Require().NoError(p.Execute(func(ctx context.Context) { close(queuedRan) }))
	return p, block, queuedRan
}

func (ts *RejectionTestSuite) TestDiscardDropsTaskSilently() {
	p, block, queuedRan := ts.saturatedPool(Discard())

	dropped := make(chan struct{})
	err := p.Execute(func(ctx context.Context) { close(dropped) })
	ts.NoError(err)
	ts.Equal(1, p.WorkQueue().Len())

	close(block)
	select {
	case <-queuedRan:
	case <-time.After(time.Second):
		ts.Fail("queued task never ran after the worker was released")
	}

	// The discarded task must never run, even once the pool is idle.
	select {
	case <-dropped:
		ts.Fail("discarded task should never run")
	case <-time.After(50 * time.Millisecond):
	}
}

func (ts *RejectionTestSuite) TestDiscardOldestEvictsQueueHead() {
	p, block, queuedRan := ts.saturatedPool(DiscardOldest())

	newRan := make(chan struct{})
	err := p.Execute(func(ctx context.Context) { close(newRan) })
	ts.NoError(err)
	ts.Equal(1, p.WorkQueue().Len()) // head evicted, replacement queued

	close(block)
	select {
	case <-newRan:
	case <-time.After(time.Second):
		ts.Fail("replacement task never ran")
	}

	// The evicted head must never run.
	select {
	case <-queuedRan:
		ts.Fail("evicted queue head should never run")
	default:
	}
}

func (ts *RejectionTestSuite) TestCustomPolicyReceivesTaskAndPool() {
	invoked := make(chan Runnable, 1)
	var seenPool *Pool
	policy := Custom(func(task Runnable, p *Pool) error {
		seenPool = p
		invoked <- task
		return ErrRejected
	})
	p, block, _ := ts.saturatedPool(policy)

	marker := make(chan struct{})
	err := p.Execute(func(ctx context.Context) { close(marker) })
	ts.ErrorIs(err, ErrRejected)

	select {
	case task := <-invoked:
		ts.Require().NotNil(task)
		// The policy got the actual rejected task, not a stand-in.
		task(context.Background())
		select {
		case <-marker:
		default:
			ts.Fail("custom policy received a different task than the rejected one")
		}
	default:
		ts.Fail("custom policy was not invoked")
	}
	ts.Same(p, seenPool)
	close(block)
}
