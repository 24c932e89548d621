package executor

import "context"

// Carrier restores ambient values (request-scoped IDs, trace spans,
// deadlines captured from the submitting goroutine) onto a freshly
// derived worker context. A worker's own context is not the submitter's
// context; a Carrier is how values cross that boundary.
type Carrier interface {
	Restore(ctx context.Context) context.Context
}

// ContextCarrierFactory produces one Carrier per submitted task. A Pool
// calls Create() on the submitting goroutine inside Execute, capturing
// whatever ambient state the factory cares about at that moment; the
// worker later calls Restore on the context it is about to run the task
// with.
type ContextCarrierFactory interface {
	Create() Carrier
}
