package kernel

// handleNode is one link in a Condvar's FIFO wait queue — the same singly
// linked, pop-from-front shape as runQueue's chunks, sized down to one
// entry per node since condvar contention is nowhere near the scheduler's
// hot path and does not warrant chunk-batched allocation.
type handleNode struct {
	handle *ThreadHandle
	next   *handleNode
}

// Condvar is a FIFO wait queue of ThreadHandle, guarded by a SpinNoIrqLock.
// Wait is the "park with action" primitive: it enqueues the
// caller, releases the supplied NoIrqGuard (for whatever lock protects the
// caller's predicate), and parks, all before the queue lock itself is
// released, so a concurrent NotifyOne/NotifyAll can never miss a waiter
// that is logically already asleep.
type Condvar struct {
	lock    SpinNoIrqLock
	head    *handleNode
	tail    *handleNode
	pending int
}

// NewCondvar returns an empty Condvar.
func NewCondvar() *Condvar {
	return &Condvar{}
}

func (c *Condvar) enqueue(h *ThreadHandle) {
	n := &handleNode{handle: h}
	if c.tail == nil {
		c.head, c.tail = n, n
	} else {
		c.tail.next = n
		c.tail = n
	}
	c.pending++
}

func (c *Condvar) dequeue() (*ThreadHandle, bool) {
	if c.head == nil {
		return nil, false
	}
	h := c.head.handle
	c.head = c.head.next
	if c.head == nil {
		c.tail = nil
	}
	c.pending--
	return h, true
}

// Wait atomically enqueues t on this Condvar, releases guard (the lock
// protecting whatever predicate the caller just re-checked), and parks.
// It re-acquires the same lock before returning, handing back a fresh
// guard. The caller must re-check its predicate in a loop, since a
// condvar is memoryless: a notify that happens-before this Wait does not
// wake it.
func (c *Condvar) Wait(t *Thread, guard NoIrqGuard) NoIrqGuard {
	// The queue owns this reference; whichever NotifyN dequeues it releases
	// it.
	h := additionalThreadHandle(t.pool, t)

	qg := c.lock.Lock(nil)
	c.enqueue(h)
	// The thread transitions to Sleeping, and only then is the queue lock
	// (and the caller's predicate lock) released: by the time anyone else
	// can observe the queue or the predicate, this waiter is already
	// asleep, so a concurrent notify correctly wakes it instead of racing
	// ahead of the park.
	t.park(func() {
		qg.Unlock()
		guard.Unlock()
	})

	return guard.lock.Lock(guard.ic)
}

// WaitAny atomically enqueues t on every listed Condvar, releases guard,
// and parks once. On wake, the caller is responsible for re-examining all
// of its predicates, since a single unpark gives no indication of which
// condvar's condition actually changed.
func WaitAny(t *Thread, guard NoIrqGuard, cvs ...*Condvar) NoIrqGuard {
	guards := make([]NoIrqGuard, len(cvs))
	for i, cv := range cvs {
		guards[i] = cv.lock.Lock(nil)
		// One reference per queue, each released by that queue's NotifyN.
		cv.enqueue(additionalThreadHandle(t.pool, t))
	}

	t.park(func() {
		for i := len(guards) - 1; i >= 0; i-- {
			guards[i].Unlock()
		}
		guard.Unlock()
	})

	return guard.lock.Lock(guard.ic)
}

// NotifyOne wakes at most one waiter, FIFO order.
func (c *Condvar) NotifyOne() {
	c.NotifyN(1)
}

// NotifyAll wakes every current waiter.
func (c *Condvar) NotifyAll() {
	c.NotifyN(c.Len())
}

// NotifyN wakes up to n waiters, FIFO order. Unparking a handle whose
// thread has not yet actually parked (it was still running the release
// side of Wait's action) is not a race: Unpark arms the single-token
// wakeup flag thread.go's Park consumes, so a park that has not happened
// yet simply returns immediately instead of blocking.
func (c *Condvar) NotifyN(n int) {
	g := c.lock.Lock(nil)
	defer g.Unlock()
	for i := 0; i < n; i++ {
		h, ok := c.dequeue()
		if !ok {
			return
		}
		h.Unpark()
		h.Release()
	}
}

// Len returns the number of threads currently waiting.
func (c *Condvar) Len() int {
	g := c.lock.Lock(nil)
	defer g.Unlock()
	return c.pending
}
