package kernel

// ThreadHandle is a shared, reference-counted reference to a Thread, used by
// wait queues (Condvar, Semaphore, the futex table) to park and unpark a
// specific thread.
//
// Handles extend a Thread's lifetime past Exit but do not own its
// scheduling lifecycle: a wait queue holding a handle on an already-Exited
// thread can still safely call Unpark, which is simply a no-op.
//
// Grounded on registry.go's table-of-handles shape; unlike registry.go
// (which tracks its promises via weak.Pointer, relying on GC to eventually
// notice a dead entry), ThreadHandle uses an explicit atomic refcount so the
// underlying Tid slot is freed deterministically the instant the last
// handle drops, not whenever the garbage collector gets around to it — see
// DESIGN.md's "ThreadHandle lifetime: weak pointer vs. refcount" decision.
type ThreadHandle struct {
	pool   *ThreadPool
	thread *Thread
}

// newThreadHandle wraps thread with an initial reference count of one. The
// caller becomes the first owner. Only valid when thread has no other live
// handles yet (refs starts at zero) — pool.add is the sole caller.
func newThreadHandle(pool *ThreadPool, thread *Thread) *ThreadHandle {
	thread.refs.Store(1)
	return &ThreadHandle{pool: pool, thread: thread}
}

// additionalThreadHandle wraps thread with a new reference on a Thread that
// may already have live handles outstanding (e.g. from Clone), incrementing
// refs rather than overwriting it. Wait queues (Condvar.Wait/WaitAny,
// futexTable.FutexWait) must use this, not newThreadHandle, since the
// thread handed to them may already be referenced by a caller-held
// ThreadHandle that this enqueue/park/release cycle must not clobber.
func additionalThreadHandle(pool *ThreadPool, thread *Thread) *ThreadHandle {
	thread.refs.Add(1)
	return &ThreadHandle{pool: pool, thread: thread}
}

// Clone returns a new ThreadHandle referencing the same Thread, incrementing
// its reference count.
func (h *ThreadHandle) Clone() *ThreadHandle {
	h.thread.refs.Add(1)
	return &ThreadHandle{pool: h.pool, thread: h.thread}
}

// Tid returns the handle's underlying thread id. Valid even after the
// thread has exited.
func (h *ThreadHandle) Tid() Tid {
	return h.thread.tid
}

// Unpark transitions the underlying thread from Sleeping to Ready. It is
// always safe to call, regardless of the thread's current state, including
// after the thread has already exited.
func (h *ThreadHandle) Unpark() {
	h.pool.Wakeup(h.thread.tid)
}

// Release drops this reference. Once the last reference to a Thread drops,
// and the Thread has Exited, its Tid is returned to the pool's free-list.
// If the last reference drops before the thread has Exited, the reap is
// deferred until it does: destruction requires both Exited and no handle
// references remaining, not either alone. Release is idempotent-safe to
// call at most once per Clone/creation; it is the caller's responsibility
// not to double-release a single handle value, exactly as a single owned
// pointer must not be freed twice.
func (h *ThreadHandle) Release() {
	if h.thread.refs.Add(-1) == 0 {
		h.pool.releaseLastHandle(h.thread)
	}
}
