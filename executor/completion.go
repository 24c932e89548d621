package executor

import (
	"context"

	"github.com/go-foundations/conc/future"
	"github.com/go-foundations/conc/queue"
)

// CompletionService submits Work[T] to a Pool and hands finished Tasks
// back in completion order rather than submission order.
type CompletionService[T any] struct {
	pool      *Pool
	completed queue.BlockingQueue[*future.Task[T]]
}

// NewCompletionService builds a CompletionService backed by pool, using
// an unbounded linked queue to hold completed tasks.
func NewCompletionService[T any](pool *Pool) *CompletionService[T] {
	return &CompletionService[T]{
		pool:      pool,
		completed: queue.NewLinked[*future.Task[T]](0),
	}
}

// Submit wraps work in a Task, arranges for it to be enqueued onto the
// completion queue the instant it finishes, and hands it to the pool.
func (cs *CompletionService[T]) Submit(work future.Work[T]) (*future.Task[T], error) {
	task := future.New(work)
	task.OnDone(func(t *future.Task[T]) {
		cs.completed.Put(context.Background(), t)
	})
	if err := cs.pool.Execute(func(ctx context.Context) { task.Run(ctx) }); err != nil {
		return nil, err
	}
	return task, nil
}

// Take blocks until a submitted task has completed, then returns it in
// completion order.
func (cs *CompletionService[T]) Take(ctx context.Context) (*future.Task[T], error) {
	return cs.completed.Take(ctx)
}

// Poll returns the next completed task without blocking.
func (cs *CompletionService[T]) Poll() (*future.Task[T], bool) {
	return cs.completed.Poll()
}

// PollContext waits up to ctx's deadline for a completed task, returning
// ok == false if none completed in time.
func (cs *CompletionService[T]) PollContext(ctx context.Context) (*future.Task[T], bool, error) {
	return cs.completed.PollContext(ctx)
}
