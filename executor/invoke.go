package executor

import (
	"context"
	"errors"

	"github.com/go-foundations/conc/future"
	"golang.org/x/sync/errgroup"
)

// ErrNoTasks is returned by InvokeAny when given an empty task list, or
// when none of the tasks could be submitted to the pool. When tasks were
// submitted and every one failed, InvokeAny returns the last failure.
var ErrNoTasks = errors.New("executor: no tasks given")

// Go lacks generic methods, so the bulk-invoke algorithms are free
// functions parameterized over the result type rather than methods on
// Pool.

// Submit wraps work in a Task and hands it to pool, returning the Task
// handle immediately so the caller can Cancel or Get it later.
func Submit[T any](pool *Pool, work future.Work[T]) (*future.Task[T], error) {
	task := future.New(work)
	if err := pool.Execute(func(ctx context.Context) { task.Run(ctx) }); err != nil {
		return nil, err
	}
	return task, nil
}

// InvokeAll submits every work item and waits for all of them to reach a
// terminal state, returning one Task per input in input order regardless
// of individual success or failure. Only ctx
// being cancelled externally aborts the wait early; individual task
// failures are left on the Task for the caller to inspect via Get.
func InvokeAll[T any](ctx context.Context, pool *Pool, works []future.Work[T]) ([]*future.Task[T], error) {
	tasks := make([]*future.Task[T], len(works))
	for i, w := range works {
		t, err := Submit(pool, w)
		if err != nil {
			cancelAll(tasks[:i])
			return nil, err
		}
		tasks[i] = t
	}

	for _, t := range tasks {
		_, err := t.Get(ctx)
		if err != nil && ctx.Err() != nil {
			cancelAll(tasks)
			return tasks, ctx.Err()
		}
	}
	return tasks, nil
}

func cancelAll[T any](tasks []*future.Task[T]) {
	for _, t := range tasks {
		if t != nil {
			t.Cancel(true)
		}
	}
}

// InvokeAny submits every work item and returns the value of whichever
// finishes first successfully, cancelling the rest. It returns an error
// if ctx is done first, or if every task fails/cancels before one
// succeeds.
func InvokeAny[T any](ctx context.Context, pool *Pool, works []future.Work[T]) (T, error) {
	var zero T
	if len(works) == 0 {
		return zero, ErrNoTasks
	}

	type outcome struct {
		val T
		err error
	}
	results := make(chan outcome, len(works))
	tasks := make([]*future.Task[T], len(works))

	submitted := 0
	for i, w := range works {
		t, err := Submit(pool, w)
		if err != nil {
			results <- outcome{err: err}
			continue
		}
		tasks[i] = t
		submitted++
		go func(t *future.Task[T]) {
			v, err := t.Get(ctx)
			results <- outcome{val: v, err: err}
		}(t)
	}

	var lastErr error
	for i := 0; i < len(works); i++ {
		select {
		case r := <-results:
			if r.err == nil {
				cancelAll(tasks)
				return r.val, nil
			}
			lastErr = r.err
		case <-ctx.Done():
			cancelAll(tasks)
			return zero, ctx.Err()
		}
	}
	if submitted == 0 || lastErr == nil {
		lastErr = ErrNoTasks
	}
	return zero, lastErr
}

// InvokeAllOrFail submits every work item and waits for all to succeed,
// cancelling every sibling the instant any one task fails. errgroup.Group
// supplies exactly this fail-fast/cancel-on-first-error shape.
func InvokeAllOrFail[T any](ctx context.Context, pool *Pool, works []future.Work[T]) ([]T, error) {
	results := make([]T, len(works))
	tasks := make([]*future.Task[T], len(works))

	g, gctx := errgroup.WithContext(ctx)
	for i, w := range works {
		t, err := Submit(pool, w)
		if err != nil {
			cancelAll(tasks[:i])
			return nil, err
		}
		tasks[i] = t
		i := i
		g.Go(func() error {
			v, err := t.Get(gctx)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		cancelAll(tasks)
		return nil, err
	}
	return results, nil
}
