package kernel

import (
	"runtime"
	"sync/atomic"
)

// SpinLock is an ordinary test-and-set spinlock: Lock/Unlock never touch
// interrupt state. Safe to use from thread context only — never from a
// path that can also run in interrupt context on the same CPU, or see
// SpinNoIrqLock instead.
//
// Cache-line padded on both sides to avoid false sharing with neighboring
// fields, matching the padding discipline thread_state.go and align.go
// carry forward from eventloop's FastState/FastPoller.
type SpinLock struct { // betteralign:ignore
	_     [sizeOfCacheLine]byte
	state atomic.Bool
	_     [sizeOfCacheLine - 1]byte
}

// Lock spins (with a runtime.Gosched back-off) until the lock is acquired.
func (l *SpinLock) Lock() {
	for !l.state.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

// TryLock attempts to acquire the lock without spinning.
func (l *SpinLock) TryLock() bool {
	return l.state.CompareAndSwap(false, true)
}

// Unlock releases the lock. Unlocking an already-unlocked SpinLock is a
// caller error, mirroring a real spinlock's undefined behavior in that case.
func (l *SpinLock) Unlock() {
	l.state.Store(false)
}

// SpinNoIrqLock is a SpinLock that additionally saves and disables the
// current CPU's interrupts on acquire and restores them on release; it
// must be used for any data accessed from both thread context and
// interrupt context on the same CPU. ic is the owning
// Processor's interruptController; nil is accepted for structures shared
// by multiple CPUs with no single owning controller (the ThreadPool itself
// uses a plain SpinLock-free sync.Mutex instead, see pool.go).
type SpinNoIrqLock struct { // betteralign:ignore
	_     [sizeOfCacheLine]byte
	state atomic.Bool
	_     [sizeOfCacheLine - 1]byte
}

// NoIrqGuard is the token returned by Lock, carrying the saved interrupt
// flags needed to restore them correctly on Unlock — required because
// SpinNoIrqLock may be acquired recursively across different controllers,
// or because the interrupt state at acquire time cannot otherwise be
// recovered at release time.
type NoIrqGuard struct {
	lock  *SpinNoIrqLock
	ic    *interruptController
	flags InterruptFlags
}

// Lock disables ic's interrupts, saving the prior state, then spins for the
// lock itself.
func (l *SpinNoIrqLock) Lock(ic *interruptController) NoIrqGuard {
	var flags InterruptFlags
	if ic != nil {
		flags = ic.disableAndStore()
	}
	for !l.state.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
	return NoIrqGuard{lock: l, ic: ic, flags: flags}
}

// Unlock releases the lock and restores the interrupt state saved at Lock.
func (g NoIrqGuard) Unlock() {
	g.lock.state.Store(false)
	if g.ic != nil {
		g.ic.restore(g.flags)
	}
}
