package kernel

import "sync/atomic"

// InterruptFlags is the saved "were interrupts enabled" bit returned by
// disableAndStore and consumed by restore — the hosted equivalent of the
// EFLAGS.IF snapshot a real interrupt::disable_and_store() returns.
type InterruptFlags struct {
	enabled bool
}

// wakeSource is the host primitive behind enableAndWFI: something a Processor
// can block on until another goroutine rings it. Modeled on eventloop's
// per-GOOS wake pipe (wakeup_linux.go and friends) — ring() is the doorbell
// write, wait() the blocking read.
type wakeSource interface {
	wait()
	ring()
	close()
}

// chanWake is the portable wakeSource fallback: a buffered channel makes
// ring() a non-blocking send-or-coalesce, matching an eventfd's "already
// signaled" semantics without a real fd.
type chanWake struct {
	ch chan struct{}
}

func newChanWake() *chanWake {
	return &chanWake{ch: make(chan struct{}, 1)}
}

func (w *chanWake) wait() { <-w.ch }

func (w *chanWake) ring() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

func (w *chanWake) close() {}

// interruptController is the per-Processor realization of an
// architecture-layer interrupt interface. There is no real interrupt line to
// model on a hosted Go process, so "disabled" is tracked as a plain flag
// (only ever touched by the owning Processor's single goroutine, since each
// Processor is single-threaded by construction) and enableAndWFI blocks on
// a wakeSource instead of halting the CPU.
type interruptController struct {
	enabled atomic.Bool
	wake    wakeSource
}

func newInterruptController() *interruptController {
	c := &interruptController{wake: newWakeSource()}
	c.enabled.Store(true)
	return c
}

// disableAndStore disables interrupt delivery on this CPU and returns the
// previous state, for a matching restore.
func (c *interruptController) disableAndStore() InterruptFlags {
	prev := c.enabled.Swap(false)
	return InterruptFlags{enabled: prev}
}

// restore re-applies a previously saved InterruptFlags.
func (c *interruptController) restore(flags InterruptFlags) {
	c.enabled.Store(flags.enabled)
}

// enableAndWFI enables interrupt delivery and blocks until rung — the
// hosted stand-in for "enable interrupts, halt". Returns with interrupts
// still enabled; Processor.Run does not disable them again before its next
// scheduling pass.
func (c *interruptController) enableAndWFI() {
	c.enabled.Store(true)
	c.wake.wait()
}

// ring wakes a Processor parked in enableAndWFI, or primes its next call to
// return immediately if none is currently parked. Called by anything that
// makes a CPU's idle wait stale: ThreadPool.Wakeup, the timer wheel firing,
// and IPI delivery.
func (c *interruptController) ring() {
	c.wake.ring()
}

func (c *interruptController) closeController() {
	c.wake.close()
}
