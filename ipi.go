package kernel

// ipiEvent is one pending inter-processor function invocation, queued onto
// a target Processor's pending-event list (processor.go's ipi field) and
// drained on that Processor's own goroutine at the top of its next loop
// iteration. done, if non-nil, is released once after fn returns, letting
// InvokeOnAllCPU's wait=true caller join on every target.
//
// A real interrupt controller dispatches by a numeric vector looked up in
// an IDT; there is no hosted equivalent of that indirection, so fn is
// carried directly instead of a vector number — see
// original_source/kernel/src/arch/x86_64/ipi.rs for the vector-table
// version this collapses.
type ipiEvent struct {
	fn   func(arg any)
	arg  any
	done *Semaphore
}

// InvokeOnAllCPU fans fn(arg) out to every Processor currently registered
// on pool. If wait, the calling thread t blocks until every target has run
// fn, via a Semaphore released once per target; otherwise InvokeOnAllCPU
// returns immediately after enqueueing, with no delivery confirmation —
// fire-and-forget, with no guarantee a torn-down target ever drains its
// queue (see DESIGN.md).
func InvokeOnAllCPU(pool *ThreadPool, t *Thread, fn func(arg any), arg any, wait bool) {
	targets := pool.processorsSnapshot()
	if len(targets) == 0 {
		return
	}

	var done *Semaphore
	if wait {
		done = NewSemaphore(0)
	}

	for _, proc := range targets {
		proc.enqueueIPI(ipiEvent{fn: fn, arg: arg, done: done})
		pool.metrics.recordIPISent(1)
	}

	if wait {
		for range targets {
			done.Acquire(t)
			pool.metrics.recordIPICompleted()
		}
	}
}
