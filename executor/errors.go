package executor

import "errors"

// Sentinel errors for the executor-level failure modes. Task
// cancellation/interruption/execution-failure errors live in package
// future since they are reported through Task.Get, not through Execute.
var (
	// ErrRejected is returned by Execute/Submit when the pool cannot
	// accept a task: it is shut down, or its queue and worker bound are
	// both saturated under the abort rejection policy.
	ErrRejected = errors.New("executor: task rejected")

	// ErrPoolClosed names the TERMINATED state of a pool. No operation in
	// this package returns it: Execute on a shut-down or terminated pool
	// goes through the rejection policy, which reports ErrRejected.
	ErrPoolClosed = errors.New("executor: pool is terminated")

	// ErrInvalidConfig is returned by New when a Config's bounds are
	// inconsistent (e.g. MaxSize < CoreSize).
	ErrInvalidConfig = errors.New("executor: invalid config")
)
