// Package executor implements a worker-pool executor with a multi-state
// lifecycle and pluggable rejection policies, a completion service, and
// bulk-invoke algorithms, built on package queue and package future.
package executor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-foundations/conc/internal/condch"
	"github.com/go-foundations/conc/queue"
)

// Runnable is a unit of work accepted by Execute; it is not expected to
// return a value (tasks that do go through Submit/future.Task instead).
type Runnable func(ctx context.Context)

// TaskEnvelope boxes a queued Runnable. Function values are not
// comparable in Go, so the work queue holds pointer envelopes instead;
// pointer identity is what lets Execute pull a just-offered task back
// out of the queue when it loses a race with shutdown.
type TaskEnvelope struct {
	fn Runnable
}

// Run invokes the wrapped task.
func (e *TaskEnvelope) Run(ctx context.Context) { e.fn(ctx) }

// sameEnvelope is pointer identity on queued task envelopes.
func sameEnvelope(a, b *TaskEnvelope) bool { return a == b }

// Packed control word layout: the high bits hold the monotonic run
// state, the low 29 bits hold the live worker count. A single
// atomic.Int32 lets every transition of either field happen via one
// CompareAndSwap.
const (
	countBits    = 29
	capacityMask = 1<<countBits - 1

	runStateRunning    int32 = -1 << countBits
	runStateShutdown   int32 = 0
	runStateStop       int32 = 1 << countBits
	runStateTidying    int32 = 2 << countBits
	runStateTerminated int32 = 3 << countBits
)

func runStateOf(c int32) int32    { return c &^ capacityMask }
func workerCountOf(c int32) int32 { return c & capacityMask }
func ctlOf(rs, wc int32) int32    { return rs | wc }

func isRunning(c int32) bool { return runStateOf(c) < runStateShutdown }

// worker is one live worker goroutine record. Its lifecycle context is
// the Go stand-in for a thread interrupt:
// cancelling it unblocks a pending get_task() wait and, since every
// per-task context is derived from it, also interrupts whatever task the
// worker happens to be running.
type worker struct {
	pool      *Pool
	firstTask Runnable
	completed atomic.Int64

	busy sync.Mutex // held while running a task; TryLock from outside == "is idle"

	lifecycle       context.Context
	lifecycleCancel context.CancelFunc
}

// Pool is the worker-pool executor: a fixed/elastic set of
// workers consuming a shared blocking queue, with a CAS-driven lifecycle
// and pluggable rejection policy.
type Pool struct {
	ctl atomic.Int32

	mainMu             sync.Mutex
	workers            map[*worker]struct{}
	largestPoolSize    int
	completedTaskCount int64

	termCond *condch.Cond

	coreSize         atomic.Int32
	maxSize          atomic.Int32
	keepAliveNanos   atomic.Int64
	allowCoreTimeout atomic.Bool

	workQueue       queue.BlockingQueue[*TaskEnvelope]
	threadFactory   ThreadFactory
	rejectionPolicy atomic.Pointer[RejectionPolicy]
	carrierFactory  ContextCarrierFactory

	beforeExecute func(task Runnable)
	afterExecute  func(task Runnable, err any)
	onShutdown    func()
	terminated    func()

	// ThreadException is where uncaught panics from hooks and user work
	// surface: a buffered channel the user drains, rather than a
	// callback invoked under any lock.
	ThreadException chan error
}

// New constructs a Pool from cfg. See Config/DefaultConfig.
func New(cfg Config) (*Pool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	p := &Pool{
		workers:         make(map[*worker]struct{}),
		termCond:        condch.New(),
		workQueue:       cfg.WorkQueue,
		threadFactory:   cfg.ThreadFactory,
		carrierFactory:  cfg.ContextCarrierFactory,
		beforeExecute:   cfg.BeforeExecute,
		afterExecute:    cfg.AfterExecute,
		onShutdown:      cfg.OnShutdown,
		terminated:      cfg.Terminated,
		ThreadException: make(chan error, 64),
	}
	p.ctl.Store(ctlOf(runStateRunning, 0))
	p.coreSize.Store(int32(cfg.CoreSize))
	p.maxSize.Store(int32(cfg.MaxSize))
	p.keepAliveNanos.Store(int64(cfg.KeepAlive))
	p.allowCoreTimeout.Store(cfg.AllowCoreTimeout)
	rp := cfg.RejectionPolicy
	p.rejectionPolicy.Store(&rp)
	return p, nil
}

func (p *Pool) rejection() RejectionPolicy {
	return *p.rejectionPolicy.Load()
}

// SetRejectionPolicy replaces the policy used for future rejections.
func (p *Pool) SetRejectionPolicy(rp RejectionPolicy) {
	p.rejectionPolicy.Store(&rp)
}

// SetThreadFactory replaces the factory used to spawn future workers.
func (p *Pool) SetThreadFactory(tf ThreadFactory) {
	p.mainMu.Lock()
	p.threadFactory = tf
	p.mainMu.Unlock()
}

// Execute places a task: grow the pool while below core size, else hand
// the task to the work queue, else grow up to max size, else reject.
func (p *Pool) Execute(task Runnable) error {
	if task == nil {
		panic("executor: nil task")
	}

	// Snapshot ambient context now, on the submitting goroutine; the
	// worker restores it onto its own context right before running.
	if p.carrierFactory != nil {
		carrier := p.carrierFactory.Create()
		inner := task
		task = func(ctx context.Context) { inner(carrier.Restore(ctx)) }
	}

	c := p.ctl.Load()

	// Step 1: below core size, always grow.
	if workerCountOf(c) < p.coreSize.Load() {
		if p.addWorker(task, true) {
			return nil
		}
		c = p.ctl.Load()
	}

	// Step 2: queue it if running. If the pool transitioned out of
	// RUNNING while we were offering, pull our envelope back out and
	// reject instead of silently accepting after shutdown.
	if isRunning(c) {
		env := &TaskEnvelope{fn: task}
		if p.workQueue.Offer(env) {
			recheck := p.ctl.Load()
			if !isRunning(recheck) && p.workQueue.Remove(env, sameEnvelope) {
				return p.reject(task)
			}
			if workerCountOf(recheck) == 0 {
				p.addWorker(nil, false)
			}
			return nil
		}
	}

	// Step 3: try to grow past core, bounded by max size.
	if !p.addWorker(task, false) {
		return p.reject(task)
	}
	return nil
}

func (p *Pool) reject(task Runnable) error {
	return p.rejection().reject(task, p)
}

// addWorker attempts to create a new worker, CAS-incrementing the packed
// worker count first. firstTask may be nil ("dummy" worker that goes
// straight to get_task()). core selects which bound (core vs max) to
// respect.
func (p *Pool) addWorker(firstTask Runnable, core bool) bool {
	for {
		c := p.ctl.Load()
		rs := runStateOf(c)

		if rs >= runStateStop {
			return false
		}
		if rs == runStateShutdown && !(firstTask == nil && p.workQueue.Len() > 0) {
			return false
		}

		for {
			wc := workerCountOf(c)
			bound := p.maxSize.Load()
			if core {
				bound = p.coreSize.Load()
			}
			if wc >= capacityMask || wc >= bound {
				return false
			}
			if p.ctl.CompareAndSwap(c, c+1) {
				goto committed
			}
			c = p.ctl.Load()
			if runStateOf(c) != rs {
				break // run state changed underneath us, re-check outer loop
			}
		}
	}

committed:
	w := &worker{firstTask: firstTask}
	w.pool = p
	w.lifecycle, w.lifecycleCancel = context.WithCancel(context.Background())

	p.mainMu.Lock()
	c := p.ctl.Load()
	if runStateOf(c) >= runStateStop ||
		(runStateOf(c) == runStateShutdown && firstTask != nil) {
		p.mainMu.Unlock()
		p.decrementWorkerCount()
		p.tryTerminate()
		return false
	}
	p.workers[w] = struct{}{}
	if len(p.workers) > p.largestPoolSize {
		p.largestPoolSize = len(p.workers)
	}
	tf := p.threadFactory
	p.mainMu.Unlock()

	started := tf.NewThread(func() { p.runWorker(w) })
	if !started {
		p.removeWorker(w)
		p.decrementWorkerCount()
		p.tryTerminate()
		return false
	}
	return true
}

func (p *Pool) decrementWorkerCount() {
	for {
		c := p.ctl.Load()
		if p.ctl.CompareAndSwap(c, c-1) {
			return
		}
	}
}

func (p *Pool) removeWorker(w *worker) {
	p.mainMu.Lock()
	delete(p.workers, w)
	p.mainMu.Unlock()
}

// runWorker is the body spawned by the thread factory for a worker.
func (p *Pool) runWorker(w *worker) {
	task := w.firstTask
	w.firstTask = nil
	completedAbruptly := true
	defer func() {
		if r := recover(); r != nil {
			select {
			case p.ThreadException <- panicToError(r):
			default:
			}
		}
		p.workerExit(w, completedAbruptly)
	}()

	for {
		if task == nil {
			var ok bool
			task, ok = p.getTask(w)
			if !ok {
				completedAbruptly = false
				return
			}
		}

		w.busy.Lock()
		func() {
			defer w.busy.Unlock()
			ctx := w.lifecycle

			if p.beforeExecute != nil {
				p.beforeExecute(task)
			}

			var panicVal any
			func() {
				defer func() { panicVal = recover() }()
				task(ctx)
			}()

			if p.afterExecute != nil {
				p.afterExecute(task, panicVal)
			}
			if panicVal != nil {
				select {
				case p.ThreadException <- panicToError(panicVal):
				default:
				}
			}
		}()

		w.completed.Add(1)
		task = nil
	}
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &panicError{value: r}
}

type panicError struct{ value any }

func (e *panicError) Error() string { return "executor: task panicked" }

// getTask decides between an indefinite Take and a timed PollContext
// based on whether this worker is above core size or core timeout is
// enabled. Returning ok == false tells runWorker to exit, after
// CAS-decrementing the worker count.
func (p *Pool) getTask(w *worker) (Runnable, bool) {
	for {
		c := p.ctl.Load()
		rs := runStateOf(c)

		if rs >= runStateStop || (rs == runStateShutdown && p.workQueue.Len() == 0) {
			p.decrementWorkerCount()
			return nil, false
		}

		wc := workerCountOf(c)
		timed := p.allowCoreTimeout.Load() || wc > p.coreSize.Load()

		if timed {
			keepAlive := time.Duration(p.keepAliveNanos.Load())
			ctx, cancel := context.WithTimeout(w.lifecycle, keepAlive)
			env, ok, err := p.workQueue.PollContext(ctx)
			cancel()
			if !ok && err == nil {
				p.decrementWorkerCount()
				return nil, false
			}
			if err != nil {
				p.decrementWorkerCount()
				return nil, false
			}
			return env.fn, true
		}

		env, err := p.workQueue.Take(w.lifecycle)
		if err != nil {
			p.decrementWorkerCount()
			return nil, false
		}
		return env.fn, true
	}
}

func (p *Pool) workerExit(w *worker, completedAbruptly bool) {
	if completedAbruptly {
		p.decrementWorkerCount()
	}

	p.mainMu.Lock()
	p.completedTaskCount += w.completed.Load()
	delete(p.workers, w)
	p.mainMu.Unlock()

	p.tryTerminate()

	c := p.ctl.Load()
	if runStateOf(c) < runStateStop {
		if completedAbruptly {
			p.addWorker(nil, false)
		} else {
			min := p.coreSize.Load()
			if p.allowCoreTimeout.Load() {
				min = 0
			}
			if min == 0 && p.workQueue.Len() > 0 {
				min = 1
			}
			if workerCountOf(p.ctl.Load()) < min {
				p.addWorker(nil, false)
			}
		}
	}
}

// Shutdown stops accepting new tasks but lets queued tasks run to
// completion.
func (p *Pool) Shutdown() {
	for {
		c := p.ctl.Load()
		if runStateOf(c) >= runStateShutdown {
			break
		}
		if p.ctl.CompareAndSwap(c, ctlOf(runStateShutdown, workerCountOf(c))) {
			break
		}
	}
	p.interruptIdleWorkers()
	if p.onShutdown != nil {
		p.onShutdown()
	}
	p.tryTerminate()
}

// ShutdownNow stops accepting new tasks, interrupts every worker, and
// drains the work queue, returning exactly the tasks that were queued
// but not yet started.
func (p *Pool) ShutdownNow() []Runnable {
	for {
		c := p.ctl.Load()
		if runStateOf(c) >= runStateStop {
			break
		}
		if p.ctl.CompareAndSwap(c, ctlOf(runStateStop, workerCountOf(c))) {
			break
		}
	}
	p.interruptAllWorkers()
	drained := p.workQueue.Drain(int(^uint(0)>>1), nil)
	p.tryTerminate()
	tasks := make([]Runnable, len(drained))
	for i, env := range drained {
		tasks[i] = env.fn
	}
	return tasks
}

func (p *Pool) interruptIdleWorkers() {
	p.mainMu.Lock()
	defer p.mainMu.Unlock()
	for w := range p.workers {
		if w.busy.TryLock() {
			w.lifecycleCancel()
			w.busy.Unlock()
		}
	}
}

func (p *Pool) interruptAllWorkers() {
	p.mainMu.Lock()
	defer p.mainMu.Unlock()
	for w := range p.workers {
		w.lifecycleCancel()
	}
}

// tryTerminate advances SHUTDOWN or STOP through TIDYING to TERMINATED
// once the pool is eligible: no live workers, and (for SHUTDOWN) an
// empty queue.
func (p *Pool) tryTerminate() {
	for {
		c := p.ctl.Load()
		if isRunning(c) ||
			runStateOf(c) >= runStateTidying ||
			(runStateOf(c) == runStateShutdown && p.workQueue.Len() > 0) {
			return
		}
		if workerCountOf(c) != 0 {
			p.interruptOneIdleWorker()
			return
		}

		if p.ctl.CompareAndSwap(c, ctlOf(runStateTidying, 0)) {
			if p.terminated != nil {
				p.terminated()
			}
			p.ctl.Store(ctlOf(runStateTerminated, 0))
			p.termCond.Broadcast()
			return
		}
	}
}

func (p *Pool) interruptOneIdleWorker() {
	p.mainMu.Lock()
	defer p.mainMu.Unlock()
	for w := range p.workers {
		if w.busy.TryLock() {
			w.lifecycleCancel()
			w.busy.Unlock()
			return
		}
	}
}

// AwaitTermination blocks until the pool reaches TERMINATED or ctx is
// done, returning whether it terminated in time. The control word is
// atomic, not lock-guarded, so the wait snapshots the termination channel
// before re-checking state; see condch.Cond.Ready.
func (p *Pool) AwaitTermination(ctx context.Context) bool {
	for {
		ch := p.termCond.Ready()
		if runStateOf(p.ctl.Load()) == runStateTerminated {
			return true
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return false
		}
	}
}

func (p *Pool) IsShutdown() bool { return runStateOf(p.ctl.Load()) >= runStateShutdown }

// IsTerminating reports whether the pool has begun shutting down but has
// not yet reached TERMINATED.
func (p *Pool) IsTerminating() bool {
	c := p.ctl.Load()
	return !isRunning(c) && runStateOf(c) < runStateTerminated
}

func (p *Pool) IsTerminated() bool { return runStateOf(p.ctl.Load()) == runStateTerminated }

// PoolSize reports the current number of live workers.
func (p *Pool) PoolSize() int {
	return int(workerCountOf(p.ctl.Load()))
}

// ActiveCount reports an estimate of workers currently running a task.
func (p *Pool) ActiveCount() int {
	p.mainMu.Lock()
	defer p.mainMu.Unlock()
	n := 0
	for w := range p.workers {
		if !w.busy.TryLock() {
			n++
		} else {
			w.busy.Unlock()
		}
	}
	return n
}

// LargestPoolSize reports the largest number of workers ever live at
// once.
func (p *Pool) LargestPoolSize() int {
	p.mainMu.Lock()
	defer p.mainMu.Unlock()
	return p.largestPoolSize
}

// CompletedTaskCount reports an approximation of the total tasks
// completed by the pool.
func (p *Pool) CompletedTaskCount() int64 {
	p.mainMu.Lock()
	defer p.mainMu.Unlock()
	total := p.completedTaskCount
	for w := range p.workers {
		total += w.completed.Load()
	}
	return total
}

// TaskCount approximates the total number of tasks ever scheduled
// (completed, in-flight, or queued).
func (p *Pool) TaskCount() int64 {
	return p.CompletedTaskCount() + int64(p.ActiveCount()) + int64(p.workQueue.Len())
}

// QueueView is the read-only handle to the work queue exposed by
// WorkQueue.
type QueueView interface {
	Len() int
	RemainingCapacity() int
	Peek() (*TaskEnvelope, bool)
}

// WorkQueue returns a read-only view of the pool's pending-task queue.
func (p *Pool) WorkQueue() QueueView { return p.workQueue }

// Stats is a single snapshot of the observability getters, taken under
// the main lock so the numbers are mutually consistent.
type Stats struct {
	PoolSize           int
	ActiveCount        int
	LargestPoolSize    int
	TaskCount          int64
	CompletedTaskCount int64
}

// Stats returns a consistent snapshot of pool statistics.
func (p *Pool) Stats() Stats {
	p.mainMu.Lock()
	defer p.mainMu.Unlock()
	active := 0
	completed := p.completedTaskCount
	for w := range p.workers {
		completed += w.completed.Load()
		if !w.busy.TryLock() {
			active++
		} else {
			w.busy.Unlock()
		}
	}
	return Stats{
		PoolSize:           len(p.workers),
		ActiveCount:        active,
		LargestPoolSize:    p.largestPoolSize,
		CompletedTaskCount: completed,
		TaskCount:          completed + int64(active) + int64(p.workQueue.Len()),
	}
}

// SetCoreSize changes the minimum kept-alive worker count. Lowering it
// interrupts idle workers so the pool can shrink toward the new bound;
// raising it may pre-spawn workers to start draining the backlog
// immediately.
func (p *Pool) SetCoreSize(n int) {
	old := p.coreSize.Swap(int32(n))
	delta := int(old) - n
	if delta > 0 {
		p.interruptIdleWorkers()
	} else if delta < 0 {
		toStart := -delta
		remaining := p.workQueue.Len()
		for i := 0; i < toStart && i < remaining; i++ {
			if !p.addWorker(nil, true) {
				break
			}
		}
	}
}

// SetMaxSize changes the ceiling on concurrent workers. Lowering it
// interrupts idle workers.
func (p *Pool) SetMaxSize(n int) {
	p.maxSize.Store(int32(n))
	if int(workerCountOf(p.ctl.Load())) > n {
		p.interruptIdleWorkers()
	}
}

// SetKeepAlive changes the idle timeout applied to workers above core
// size (or all workers, if AllowCoreTimeout).
func (p *Pool) SetKeepAlive(d time.Duration) {
	p.keepAliveNanos.Store(int64(d))
}

// SetAllowCoreTimeout toggles whether core workers are also subject to
// the keep-alive timeout.
func (p *Pool) SetAllowCoreTimeout(allow bool) {
	p.allowCoreTimeout.Store(allow)
}

func (p *Pool) CoreSize() int            { return int(p.coreSize.Load()) }
func (p *Pool) MaxSize() int             { return int(p.maxSize.Load()) }
func (p *Pool) KeepAlive() time.Duration { return time.Duration(p.keepAliveNanos.Load()) }
func (p *Pool) AllowCoreTimeout() bool   { return p.allowCoreTimeout.Load() }
