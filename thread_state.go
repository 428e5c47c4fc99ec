package kernel

import "sync/atomic"

// ThreadState is a thread's position in the scheduler's state machine.
//
//	spawn       → Ready
//	Ready       → Running   (scheduler picks the thread)
//	Running     → Ready     (yield or preemption)
//	Running     → Sleeping  (park)
//	Sleeping    → Ready     (unpark; idempotent, a no-op if not Sleeping)
//	Running     → Exited    (exit)
//	Exited      → (removed, once the last handle drops)
//
// State Transition Rules:
//   - Use TryTransition (CAS) for the reversible transitions above.
//   - Use Store only for Exited, which is irreversible and never fails.
type ThreadState uint32

const (
	// Ready indicates the thread may be selected by a Processor.
	Ready ThreadState = iota
	// Running indicates the thread's Context is held by a Processor.
	Running
	// Sleeping indicates the thread parked on some primitive and is not
	// runqueued; only unpark moves it back to Ready.
	Sleeping
	// Exited indicates the thread ran to completion or called exit.
	Exited
)

// String returns a human-readable state name.
func (s ThreadState) String() string {
	switch s {
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Sleeping:
		return "Sleeping"
	case Exited:
		return "Exited"
	default:
		return "Unknown"
	}
}

// threadStateCell is a lock-free state cell with cache-line padding to avoid
// false sharing between cores polling different threads' states.
//
// Grounded directly on eventloop's FastState: pure atomic CAS, no mutex,
// no transition validation (the ThreadPool enforces transition legality;
// the cell itself just stores a value).
type threadStateCell struct { // betteralign:ignore
	_ [sizeOfCacheLine]byte
	v atomic.Uint32
	_ [sizeOfCacheLine - 4]byte
}

func newThreadStateCell(initial ThreadState) *threadStateCell {
	c := &threadStateCell{}
	c.v.Store(uint32(initial))
	return c
}

// Load returns the current state atomically.
func (c *threadStateCell) Load() ThreadState {
	return ThreadState(c.v.Load())
}

// Store atomically stores a new state, bypassing CAS validation. Used only
// for the Exited transition, reachable from Running unconditionally — exit
// never needs to fail, so there is nothing to CAS against.
func (c *threadStateCell) Store(s ThreadState) {
	c.v.Store(uint32(s))
}

// TryTransition attempts to atomically move from "from" to "to". Returns
// false if the cell was not in "from" — the caller's operation becomes a
// no-op rather than a panic.
func (c *threadStateCell) TryTransition(from, to ThreadState) bool {
	return c.v.CompareAndSwap(uint32(from), uint32(to))
}
