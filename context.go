package kernel

import "sync"

// Context is the architecture-opaque saved state needed to resume a thread.
//
// On bare metal this would be a saved register frame and stack pointer; in
// this hosted implementation it is a goroutine parked on a rendezvous
// channel. Go already gives every thread its own stack (the goroutine
// stack) and a resumable execution point (blocking on a channel receive),
// so switchTo rides on the host scheduler instead of hand-rolling register
// save/restore — see DESIGN.md's "Context = raw register frame vs.
// goroutine+channel" open question.
//
// Exactly one goroutine may be blocked waiting on resume at a time, and
// exactly one caller may be blocked waiting on yielded — ownership of a
// Context is exclusive: it lives in the ThreadPool's table, or in a
// Processor's running slot, never both.
type Context struct {
	resume  chan struct{}
	yielded chan struct{}

	// entry is the thread's trampoline; it runs once, the first time this
	// Context is switched into, on the Context's own goroutine. Nil for a
	// Processor's loop context, which is never started this way.
	entry func(self *Context)

	mu      sync.Mutex
	started bool

	// caller is the Context that most recently switched into this one. It
	// is written by switchTo immediately before resuming/starting the
	// target, and read only by the target's own goroutine afterward — the
	// channel operation between the two establishes the happens-before
	// edge, so no separate synchronization is needed for this field.
	// yieldTo uses it to know who to hand control back to, so a thread
	// does not need to be told its current Processor explicitly even
	// though it may run on a different one after every sleep/wake cycle.
	caller *Context
}

// newContext builds a Context for a freshly created thread. The first
// switchTo into it starts entry on a new goroutine; entry stands in for the
// architecture trampoline a real kernel would resume into — here, simply
// the thread's Go closure, invoked with its own Context so it can call
// yieldTo.
func newContext(entry func(self *Context)) *Context {
	return &Context{
		resume:  make(chan struct{}),
		yielded: make(chan struct{}),
		entry:   entry,
	}
}

// loopContext builds a Context representing a Processor's scheduler loop.
// It has no entry trampoline: the loop goroutine itself calls switchTo
// directly rather than being started by it.
func loopContext() *Context {
	return &Context{
		resume:  make(chan struct{}),
		yielded: make(chan struct{}),
	}
}

// switchTo saves the caller's resumption point in from, transfers control to
// to, and blocks until to yields back. Must only be called by the goroutine
// that currently owns from (either a Processor's loop goroutine, or a
// thread goroutine parked after a prior switchTo into it).
//
// On the very first switchTo into a thread Context, this starts the
// thread's entry trampoline on a new goroutine instead of signaling resume
// (there is nothing parked to wake yet).
func switchTo(from, to *Context) {
	to.mu.Lock()
	first := !to.started
	to.started = true
	to.caller = from
	to.mu.Unlock()

	if first {
		go to.entry(to)
	} else {
		to.resume <- struct{}{}
	}

	<-from.yielded
}

// yieldTo parks self's goroutine: it signals self.caller's yielded channel
// (handing control back to whichever Context last switched into self, e.g.
// a Processor's loop context) and then blocks until someone calls
// switchTo(_, self) again.
func yieldTo(self *Context) {
	self.mu.Lock()
	caller := self.caller
	self.mu.Unlock()

	caller.yielded <- struct{}{}
	<-self.resume
}

// yieldFinal hands control back to self.caller exactly like yieldTo, but
// does not block waiting for a subsequent resume: it is used once, by a
// thread's trampoline after the thread has exited, since an Exited thread's
// Context is never switched into again.
func yieldFinal(self *Context) {
	self.mu.Lock()
	caller := self.caller
	self.mu.Unlock()

	caller.yielded <- struct{}{}
}
