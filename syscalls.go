package kernel

import (
	"sync/atomic"
	"time"
)

// pidCounter is the process-wide pid allocator backing Fork, mirroring
// tidAllocator's monotonic counter but without a free-list: pids are never
// reused once allocated, so a conflict-free counter is sufficient and no
// free-list bookkeeping is needed.
var pidCounter atomic.Uint32

func allocPid() uint32 { return pidCounter.Add(1) }

// Syscalls is the thin dispatch layer translating the process/thread
// syscall surface — fork, clone, wait4, exec, exit, exit_group, kill,
// yield, nanosleep, set_priority, getpid, gettid, getppid — onto
// ThreadPool/Processor operations. Every method is infallible on valid
// arguments and returns a *KernelError for the rest, never a panic.
//
// Exit-code/status plumbing grounded on
// original_source/kernel/src/syscall/proc.rs.
type Syscalls struct {
	pool           *ThreadPool
	ticksPerSecond int64
}

// NewSyscalls returns a Syscalls dispatcher over pool. ticksPerSecond
// converts Nanosleep's wall-clock duration into the pool's tick count; it
// should match whatever frequency drives Processor.Tick (a regular
// frequency of at least 100 Hz is typical). Values <= 0 default to 100.
func NewSyscalls(pool *ThreadPool, ticksPerSecond int64) *Syscalls {
	if ticksPerSecond <= 0 {
		ticksPerSecond = 100
	}
	return &Syscalls{pool: pool, ticksPerSecond: ticksPerSecond}
}

// Fork creates a new Process as a child of caller's (or a parentless
// process if caller has none), and spawns entry as that process's first
// Thread — POSIX fork(2) semantics, restricted to the scheduling half: the
// address-space/fd-table copy-on-write semantics real fork(2) also
// performs are left to the process layer via Process.AddressSpace/Files,
// which this call leaves nil for the caller to fill in.
func (s *Syscalls) Fork(caller *Thread, entry func(t *Thread), prio Priority, affinity Affinity) *ThreadHandle {
	var parentPid uint32
	if caller.proc != nil {
		parentPid = caller.proc.Pid
	}
	child := &Process{Pid: allocPid(), ParentPid: parentPid}
	return s.pool.Add(child, entry, prio, affinity)
}

// Clone creates a new Thread sharing caller's Process — POSIX clone(2) /
// pthread_create, depending on flags the (out-of-scope) process layer
// would otherwise interpret. The new thread is independently scheduled
// (its own Tid, state, priority, affinity) but shares caller's Process
// back-reference, matching a thread-group member in Process's Pid.
func (s *Syscalls) Clone(caller *Thread, entry func(t *Thread), prio Priority, affinity Affinity) *ThreadHandle {
	return s.pool.Add(caller.proc, entry, prio, affinity)
}

// Wait4 implements wait4(2)'s non-blocking half: it returns the first
// still-pending exited child of callerPid's process, if any — a parent's
// wait4 always observes a child's exit exactly once. A caller that wants
// blocking semantics loops: check, Yield, check again — a dedicated
// per-process "child exited" Condvar would let it park instead of spin,
// but wiring that up is a process-layer decision this core does not make
// for its caller.
func (s *Syscalls) Wait4(callerPid uint32) (tid Tid, code int32, ok bool) {
	return s.pool.Wait4(callerPid)
}

// Exec replaces the calling thread's program image. ELF loading and
// address-space management are outside this package's scope, so this is a
// no-op hook the process layer overrides: the scheduler's view of the
// thread (its Tid, state, priority) is unaffected by an exec, only its
// address space and entry point, neither of which this package models.
func (s *Syscalls) Exec(*Thread) {}

// Exit terminates the calling thread with the low-8-bits-significant code.
func (s *Syscalls) Exit(t *Thread, code int32) {
	s.pool.Exit(t.tid, code)
}

// ExitGroup terminates every thread sharing the calling thread's process,
// with the same code — POSIX exit_group(2).
func (s *Syscalls) ExitGroup(t *Thread, code int32) {
	var pid uint32
	if t.proc != nil {
		pid = t.proc.Pid
	}
	s.pool.ExitGroup(pid, code)
}

// Kill requests termination of the thread identified by target, carrying
// sig in the low bits of the recorded exit code as 128+sig (the shell
// convention for "killed by signal N"). Real signal disposition (handlers,
// blocking, SIGSTOP/SIGCONT semantics) is out of scope for this core; this
// call only performs the one disposition it can always enact
// unconditionally: termination.
func (s *Syscalls) Kill(target Tid, sig int32) {
	s.pool.Exit(target, 128+sig)
}

// Yield gives up the calling thread's remaining time slice voluntarily.
func (s *Syscalls) Yield(t *Thread) {
	t.Yield()
}

// Nanosleep parks the calling thread for approximately d, implemented by
// parking on a timer wheel entry; timer expiry unparks it. Durations
// shorter than one tick still yield once, so Nanosleep never returns to its
// caller without giving up the CPU at least once. Like any Sleeping thread,
// a sleeper here remains a valid Wakeup target: an explicit unpark (e.g.
// simulating signal delivery, or any other cancellation at a syscall
// boundary) still wakes it early.
func (s *Syscalls) Nanosleep(t *Thread, d time.Duration) {
	ticks := s.ticksForDuration(d)
	if ticks <= 0 {
		t.Yield()
		return
	}
	t.pool.SleepTicks(t.tid, ticks)
	yieldTo(t.ctx)
}

func (s *Syscalls) ticksForDuration(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return d.Nanoseconds() * s.ticksPerSecond / time.Second.Nanoseconds()
}

// SetPriority updates the target thread's base priority tier.
func (s *Syscalls) SetPriority(target Tid, prio Priority) error {
	return s.pool.SetPriority(target, prio)
}

// Getpid returns the calling thread's owning process id, or 0 if it has no
// Process back-reference (a kernel-only thread).
func (s *Syscalls) Getpid(t *Thread) uint32 {
	if t.proc == nil {
		return 0
	}
	return t.proc.Pid
}

// Gettid returns the calling thread's own Tid.
func (s *Syscalls) Gettid(t *Thread) Tid {
	return t.tid
}

// Getppid returns the calling thread's parent process id, or 0 if it has
// no Process back-reference or no recorded parent.
func (s *Syscalls) Getppid(t *Thread) uint32 {
	if t.proc == nil {
		return 0
	}
	return t.proc.ParentPid
}
