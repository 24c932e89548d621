package executor

import "context"

// RejectionKind names one of the built-in rejection behaviors.
type RejectionKind int

const (
	RejectAbort RejectionKind = iota
	RejectCallerRuns
	RejectDiscard
	RejectDiscardOldest
	RejectCustom
)

// RejectionPolicy decides what happens to a task that Execute could not
// hand to a worker or queue. Construct one with Abort, CallerRuns,
// Discard, DiscardOldest, or Custom.
type RejectionPolicy struct {
	kind RejectionKind
	fn   func(task Runnable, p *Pool) error
}

// Abort rejects with ErrRejected. This is the default policy.
func Abort() RejectionPolicy { return RejectionPolicy{kind: RejectAbort} }

// CallerRuns runs the task synchronously on the submitting goroutine,
// unless the pool is shut down, in which case it rejects.
func CallerRuns() RejectionPolicy { return RejectionPolicy{kind: RejectCallerRuns} }

// Discard silently drops the task and reports success.
func Discard() RejectionPolicy { return RejectionPolicy{kind: RejectDiscard} }

// DiscardOldest evicts the current queue head to make room, then retries
// the submission once. If the pool is not running, it rejects instead.
func DiscardOldest() RejectionPolicy { return RejectionPolicy{kind: RejectDiscardOldest} }

// Custom delegates the decision to fn.
func Custom(fn func(task Runnable, p *Pool) error) RejectionPolicy {
	return RejectionPolicy{kind: RejectCustom, fn: fn}
}

func (r RejectionPolicy) reject(task Runnable, p *Pool) error {
	switch r.kind {
	case RejectAbort:
		return ErrRejected
	case RejectCallerRuns:
		if !isRunning(p.ctl.Load()) {
			return ErrRejected
		}
		task(context.Background())
		return nil
	case RejectDiscard:
		return nil
	case RejectDiscardOldest:
		if !isRunning(p.ctl.Load()) {
			return ErrRejected
		}
		p.workQueue.Poll()
		if p.workQueue.Offer(&TaskEnvelope{fn: task}) {
			return nil
		}
		return ErrRejected
	case RejectCustom:
		return r.fn(task, p)
	default:
		return ErrRejected
	}
}
