package kernel

import (
	"sync"

	"github.com/joeycumines/logiface"
)

// exitRecord is one entry in a parent process's list of exited children,
// consumed at most once by Wait4, grounded on
// original_source's kernel/src/syscall/proc.rs.
type exitRecord struct {
	tid  Tid
	pid  uint32
	code int32
}

// ThreadPool owns every thread's table entry and the scheduling policy that
// picks among them. It is the only lock crossed by every CPU: a single
// mutex guards the table, the scheduler's ready queues, and the timer
// wheel, held only briefly per operation.
//
// Grounded on loop.go's Loop struct (separating mutex-guarded substructures
// behind a handful of top-level methods) and registry.go's scavenge-on-drop
// table, generalized from a promise/task registry to a thread table.
type ThreadPool struct {
	mu sync.Mutex

	tids  *tidAllocator
	table map[Tid]*Thread
	sched *scheduler
	timer *timerWheel
	tick  int64

	exited map[uint32][]exitRecord

	processors map[int32]*Processor

	metrics *Metrics
	logger  *logiface.Logger[logiface.Event]
}

// NewThreadPool creates an empty ThreadPool ready to accept Add calls.
func NewThreadPool(opts ...Option) *ThreadPool {
	cfg := resolvePoolOptions(opts)
	p := &ThreadPool{
		tids:       newTidAllocator(),
		table:      make(map[Tid]*Thread),
		sched:      newScheduler(cfg.timeSliceTicks, cfg.agingTicks),
		timer:      newTimerWheel(),
		exited:     make(map[uint32][]exitRecord),
		processors: make(map[int32]*Processor),
		logger:     cfg.logger,
	}
	if cfg.metricsEnabled {
		p.metrics = &Metrics{}
	}
	return p
}

// Metrics returns a snapshot of this pool's counters, or a zero value if
// metrics were not enabled via WithMetrics.
func (p *ThreadPool) Metrics() MetricsSnapshot {
	return p.metrics.Snapshot()
}

// Add creates a new Thread running entry, in the Ready state, and returns a
// ThreadHandle the caller owns. proc may be nil for a kernel-only thread
// with no process back-reference.
func (p *ThreadPool) Add(proc *Process, entry func(t *Thread), prio Priority, affinity Affinity) *ThreadHandle {
	p.mu.Lock()
	defer p.mu.Unlock()

	tid := p.tids.alloc()
	var th *Thread
	th = newThread(tid, proc, func(self *Context) {
		entry(th)
		if !th.exited.Load() {
			p.Exit(tid, 0)
		}
		yieldFinal(self)
	}, prio, affinity)
	th.pool = p
	p.table[tid] = th
	p.sched.enqueue(tid, prio, p.sched.timeSliceTicks, -1)
	p.metrics.recordSpawn()
	p.ringAll()

	p.logger.Debug().Int("tid", int(tid)).Log("thread added")
	return newThreadHandle(p, th)
}

// attachProcessor registers proc under its own cpu id so Wakeup, timer
// expiry, and IPI delivery can reach it. Called once by NewProcessor.
func (p *ThreadPool) attachProcessor(cpu int32, proc *Processor) {
	p.mu.Lock()
	p.processors[cpu] = proc
	p.mu.Unlock()
}

// ringCPU wakes cpu if it is currently idle in enableAndWFI. No-op if cpu is
// not a registered Processor (e.g. it has not started yet).
func (p *ThreadPool) ringCPU(cpu int32) {
	if proc, ok := p.processors[cpu]; ok {
		proc.ring()
	}
}

// ringAll wakes every registered Processor, used after an operation that
// could have made work available to any idle CPU (a new thread, a wakeup
// with no affinity, a timer expiry).
func (p *ThreadPool) ringAll() {
	for _, proc := range p.processors {
		proc.ring()
	}
}

// processorsSnapshot returns every currently registered Processor, used by
// InvokeOnAllCPU to fan a closure out to each one.
func (p *ThreadPool) processorsSnapshot() []*Processor {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Processor, 0, len(p.processors))
	for _, proc := range p.processors {
		out = append(out, proc)
	}
	return out
}

// Run selects the next runnable thread for cpu, transitioning it to
// Running, and returns its Tid and Context. ok is false if no thread is
// eligible to run on cpu right now.
func (p *ThreadPool) Run(cpu int32) (tid Tid, ctx *Context, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, found := p.sched.pick(cpu, func(tid Tid) Affinity {
		if t, ok := p.table[tid]; ok {
			return t.Affinity()
		}
		return AnyCPU
	})
	if !found {
		p.metrics.setRunqueueDepth(p.sched.len())
		return 0, nil, false
	}

	t, live := p.table[entry.tid]
	if !live {
		// Thread was reaped between enqueue and dispatch (exited and its
		// last handle already dropped); just tell the caller to retry.
		return 0, nil, false
	}
	if !t.state.TryTransition(Ready, Running) {
		// Raced with an exit or an explicit state change; drop the stale
		// entry rather than dispatching a thread that is not Ready.
		return 0, nil, false
	}

	t.sliceLeft.Store(entry.sliceLeft)
	t.lastCPU.Store(cpu)
	t.waitTicks.Store(0)

	ctx = t.ctx
	p.metrics.recordContextSwitch()
	p.metrics.setRunqueueDepth(p.sched.len())
	return entry.tid, ctx, true
}

// Stop reports that a Processor's switchTo into tid's Context has returned
// control, either because the thread yielded, parked, or exited. ctx is the
// same Context Run handed out for tid, kept as a parameter to mirror the
// switch_to/stop pairing a real scheduler loop uses, even though this
// hosted Context's identity never changes across a sleep/wake or migration
// cycle. If the thread is still Running (it yielded without blocking or
// exiting), it is requeued Ready; if Exited, it is finalized now.
func (p *ThreadPool) Stop(tid Tid, ctx *Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked(tid, ctx)
}

func (p *ThreadPool) stopLocked(tid Tid, ctx *Context) {
	t, ok := p.table[tid]
	if !ok {
		return
	}

	switch t.state.Load() {
	case Running:
		if t.state.TryTransition(Running, Ready) {
			p.sched.enqueue(tid, t.Priority(), t.sliceLeft.Load(), t.lastCPU.Load())
		}
	case Exited:
		p.finalizeExit(t)
	}
}

// Tick advances cpu's local notion of time by one tick, ages every Ready
// thread, wakes any timer deadlines that have elapsed, and reports whether
// the Processor should preempt runningTid — either because its slice has
// been exhausted, or because a strictly higher-priority thread is now Ready
// (spec.md §4.3: "Higher-priority ready threads preempt lower ones on the
// next tick", a requirement distinct from slice exhaustion). runningTid of 0
// means the CPU is currently idle.
func (p *ThreadPool) Tick(cpu int32, runningTid Tid) (preempt bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tick++

	woken := p.timer.expired(p.tick)
	for _, tid := range woken {
		p.wakeupLocked(tid)
	}
	if len(woken) > 0 {
		p.ringAll()
	}

	p.ageLocked()

	if runningTid == 0 {
		return false
	}
	t, ok := p.table[runningTid]
	if !ok {
		return false
	}

	if best, any := p.sched.bestReadyTier(); any && best < t.Priority() {
		p.metrics.recordPreemption()
		return true
	}

	left := t.sliceLeft.Add(-1)
	if left <= 0 {
		p.metrics.recordPreemption()
		return true
	}
	return false
}

// ageLocked bumps the effective priority tier of every Ready thread that
// has waited longer than the scheduler's aging threshold. It walks the
// table rather than the ready queues themselves, since waitTicks lives on
// Thread and tier membership only needs to change at the next enqueue.
func (p *ThreadPool) ageLocked() {
	for _, t := range p.table {
		if t.state.Load() != Ready {
			continue
		}
		waited := t.waitTicks.Add(1)
		if p.sched.shouldAge(waited) && t.priority.Load() > 0 {
			t.priority.Add(^uint32(0)) // decrement: lower number == higher priority
			t.waitTicks.Store(0)
		}
	}
}

// sleep parks tid: Running/Ready -> Sleeping, and reports whether it
// actually did so. If tid already has a pending wakeup token (Wakeup was
// called before sleep), the transition is skipped entirely, the thread is
// left Ready, and sleep returns false: park/unpark behave like a
// single-token binary flag per thread, set by unpark and cleared by park.
// Thread.Park uses the return value to decide whether to actually yield
// the calling goroutine.
func (p *ThreadPool) sleep(tid Tid) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.table[tid]
	if !ok {
		return false
	}
	if t.wakePending.CompareAndSwap(true, false) {
		return false
	}
	if t.state.TryTransition(Running, Sleeping) {
		return true
	}
	return t.state.TryTransition(Ready, Sleeping)
}

// Wakeup arms tid's wakeup token and, if it is currently Sleeping, moves it
// back to Ready and re-enqueues it. Always safe to call, including for an
// already-exited or unknown tid, which is a silent no-op.
func (p *ThreadPool) Wakeup(tid Tid) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.wakeupLocked(tid)
	if cpu := p.affinityCPULocked(tid); cpu == int32(AnyCPU) {
		p.ringAll()
	} else {
		p.ringCPU(cpu)
	}
}

func (p *ThreadPool) wakeupLocked(tid Tid) {
	t, ok := p.table[tid]
	if !ok {
		return
	}
	t.wakePending.Store(true)
	if t.state.TryTransition(Sleeping, Ready) {
		t.waitTicks.Store(0)
		p.sched.enqueue(tid, t.Priority(), p.sched.timeSliceTicks, t.lastCPU.Load())
	}
}

func (p *ThreadPool) affinityCPULocked(tid Tid) int32 {
	if t, ok := p.table[tid]; ok {
		return int32(t.Affinity())
	}
	return int32(AnyCPU)
}

// SleepTicks parks tid and arms a timer deadline ticks from now, the
// scheduling half of the nanosleep syscall (syscalls.go handles the
// duration-to-ticks conversion).
func (p *ThreadPool) SleepTicks(tid Tid, ticks int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.table[tid]
	if !ok {
		return
	}
	if t.state.TryTransition(Running, Sleeping) || t.state.TryTransition(Ready, Sleeping) {
		p.timer.schedule(p.tick+ticks, tid)
	}
}

// SetPriority updates tid's base priority tier, resetting any aging bonus
// accrued under the old tier.
func (p *ThreadPool) SetPriority(tid Tid, prio Priority) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.table[tid]
	if !ok {
		return newError("ThreadPool.SetPriority", NoSuchResource, nil)
	}
	t.basePrio = prio
	t.priority.Store(uint32(prio))
	return nil
}

// Exit marks tid as Exited with the given low-8-bits-significant code. If
// the thread was Running (it called this from its own goroutine, or another
// thread is killing it mid-run), finalization (recording the exit for
// Wait4, clearing clear_child_tid) is deferred to Stop, since the entry
// trampoline still needs to unwind via yieldFinal before anyone else may
// touch the thread. If it was Ready or Sleeping, it is finalized
// immediately.
func (p *ThreadPool) Exit(tid Tid, code int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.table[tid]
	if !ok || t.state.Load() == Exited {
		return
	}
	wasRunning := t.state.Load() == Running
	t.exitCode.Store(code & 0xff)
	t.exited.Store(true)
	t.state.Store(Exited)
	if !wasRunning {
		p.finalizeExit(t)
	}
}

// finalizeExit records tid's exit status for Wait4 and wakes any futex
// waiter parked on its clear_child_tid address. Called with mu held, either
// from Exit (thread was not Running) or Stop (thread just yielded from its
// own trampoline after exiting).
func (p *ThreadPool) finalizeExit(t *Thread) {
	p.metrics.recordExit()
	if t.proc != nil {
		code, _ := t.ExitCode()
		p.exited[t.proc.ParentPid] = append(p.exited[t.proc.ParentPid], exitRecord{
			tid:  t.tid,
			pid:  t.proc.Pid,
			code: code,
		})
		if t.proc.ClearChildTid != 0 {
			// On its own goroutine: waking a waiter goes through Wakeup,
			// which takes p.mu, and the caller already holds it.
			go globalFutexTable.wake(t.proc.ClearChildTid, 1)
		}
	}
	if t.refsZero.Load() {
		p.reapLocked(t)
	}
}

// ExitGroup exits every live thread belonging to pid with the same code —
// the scheduling half of exit_group(2) (syscalls.go handles the syscall
// surface). Unlike Exit, which targets one Tid, this walks the whole table,
// since a process's thread-group membership is not otherwise indexed.
func (p *ThreadPool) ExitGroup(pid uint32, code int32) {
	p.mu.Lock()
	var targets []*Thread
	for _, t := range p.table {
		if t.proc != nil && t.proc.Pid == pid && t.state.Load() != Exited {
			targets = append(targets, t)
		}
	}
	p.mu.Unlock()

	for _, t := range targets {
		p.Exit(t.tid, code)
	}
}

// Wait4 consumes (removes and returns) one exited child record belonging to
// parent pid, if any are available. ok is false if no child of pid has
// exited yet.
func (p *ThreadPool) Wait4(parentPid uint32) (tid Tid, code int32, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	records := p.exited[parentPid]
	if len(records) == 0 {
		return 0, 0, false
	}
	r := records[0]
	p.exited[parentPid] = records[1:]
	return r.tid, r.code, true
}

// releaseLastHandle is called once a Thread's ThreadHandle refcount has
// dropped to zero. Destruction requires both Exited and zero references:
// if the thread has already exited, its slot is reaped right away;
// otherwise the reap is deferred, and finalizeExit performs it once the
// thread actually exits.
func (p *ThreadPool) releaseLastHandle(t *Thread) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t.state.Load() == Exited {
		p.reapLocked(t)
	} else {
		t.refsZero.Store(true)
	}
}

// reapLocked removes t from the table and returns its Tid to the
// allocator's free-list. Callers must hold p.mu.
func (p *ThreadPool) reapLocked(t *Thread) {
	delete(p.table, t.tid)
	p.tids.release(t.tid)
}

// Lookup returns tid's Thread, if it is still live in the table.
func (p *ThreadPool) Lookup(tid Tid) (*Thread, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.table[tid]
	return t, ok
}
