package kernel

import (
	"sync/atomic"
)

// Priority is a small scheduling tier; lower numbers are scheduled first
// within the round-robin policy (see scheduler.go).
type Priority uint8

// DefaultPriority is assigned to threads that do not request one.
const DefaultPriority Priority = 0

// Affinity constrains which Processor may select a thread. AnyCPU means any
// Processor may run it; otherwise only the Processor with the matching id
// may select it. Affinity is advisory, not a hard pin.
type Affinity int32

// AnyCPU indicates a thread has no CPU affinity.
const AnyCPU Affinity = -1

// Process is the opaque back-reference to the owning process: address-space
// handle, fd table, and signal state are outside this core's scope and are
// carried only as opaque fields.
type Process struct {
	Pid uint32

	// ParentPid identifies the process that should observe this process's
	// threads exiting via Wait4. Zero means no parent.
	ParentPid uint32

	// ClearChildTid, when non-zero, is a userspace address that the futex
	// table wakes (via FutexWake) when this thread exits, matching
	// clear_child_tid semantics.
	ClearChildTid uintptr

	// AddressSpace, Files, and Signals are opaque to the scheduler core;
	// callers may attach whatever process-layer state they need here.
	AddressSpace any
	Files        any
	Signals      any
}

// Thread is the scheduler's unit of execution: a Tid, its saved Context, its
// ThreadState, priority, affinity, and an optional Process back-reference.
//
// A Thread is created by ThreadPool.Add and destroyed once it has Exited
// and no ThreadHandle still references it.
type Thread struct {
	tid   Tid
	state *threadStateCell

	// ctx is this thread's saved resumption point. Its identity never
	// changes once set by newThread: exclusive ownership (a thread runs on
	// at most one CPU at a time) is enforced by the goroutine rendezvous in
	// context.go itself, not by nil-ing this field while Running.
	ctx *Context

	priority  atomic.Uint32 // Priority, aged by the scheduler over time
	basePrio  Priority      // priority as last set by SetPriority
	affinity  atomic.Int32  // Affinity
	lastCPU   atomic.Int32  // scheduling hint, -1 if never run
	sliceLeft atomic.Int32  // remaining time-slice ticks
	waitTicks atomic.Int32  // ticks spent Ready without being scheduled, for aging

	proc *Process
	pool *ThreadPool

	exitCode atomic.Int32
	exited   atomic.Bool

	// wakePending is the single-token park/unpark flag: set by Wakeup,
	// cleared by the next Sleep, so a wakeup delivered just before a thread
	// parks is never lost.
	wakePending atomic.Bool

	refs atomic.Int32 // live ThreadHandle count; see handle.go

	// refsZero is set once refs has dropped to zero while the thread had
	// not yet Exited (destruction requires Exited AND no handle references
	// remaining — refs alone is not sufficient). finalizeExit consults it to
	// reap immediately if the last handle already dropped before exit
	// happened to run.
	refsZero atomic.Bool
}

func newThread(tid Tid, proc *Process, entry func(self *Context), prio Priority, affinity Affinity) *Thread {
	t := &Thread{
		tid:      tid,
		state:    newThreadStateCell(Ready),
		proc:     proc,
		basePrio: prio,
	}
	t.priority.Store(uint32(prio))
	t.affinity.Store(int32(affinity))
	t.lastCPU.Store(-1)
	t.ctx = newContext(entry)
	return t
}

// Tid returns the thread's identifier.
func (t *Thread) Tid() Tid { return t.tid }

// State returns the thread's current ThreadState.
func (t *Thread) State() ThreadState { return t.state.Load() }

// Priority returns the thread's current (possibly aged) priority.
func (t *Thread) Priority() Priority { return Priority(t.priority.Load()) }

// Affinity returns the thread's CPU affinity.
func (t *Thread) Affinity() Affinity { return Affinity(t.affinity.Load()) }

// Process returns the thread's opaque Process back-reference, or nil.
func (t *Thread) Process() *Process { return t.proc }

// context returns the thread's own Context. Yield, park, and Nanosleep read
// t.ctx directly rather than calling this accessor.
func (t *Thread) context() *Context { return t.ctx }

// ExitCode returns the exit code recorded by exit, and whether the thread
// has exited. The low 8 bits are significant.
func (t *Thread) ExitCode() (int32, bool) {
	return t.exitCode.Load(), t.exited.Load()
}

// Yield cooperatively gives up the CPU without blocking: the thread stays
// Ready and will be requeued by the owning Processor's next Stop call, but
// control returns here the next time the scheduler selects it again.
func (t *Thread) Yield() {
	yieldTo(t.ctx)
}

// Park suspends the thread until a matching Wakeup, unless a wakeup was
// already delivered since the last Park (the single-token park/unpark
// semantics) — in which case Park consumes that token and returns
// immediately without yielding the goroutine at all.
func (t *Thread) Park() {
	t.park(nil)
}

// park is the "park with action" primitive: action runs after the
// ThreadPool has transitioned this thread to
// Sleeping (so it is already wake-able) but before control leaves this
// goroutine's stack — exactly where a blocking primitive drops the locks
// and guards it held while checking its predicate, closing the lost-wakeup
// window. action may be nil.
func (t *Thread) park(action func()) {
	slept := t.pool.sleep(t.tid)
	if action != nil {
		action()
	}
	if slept {
		yieldTo(t.ctx)
	}
}
