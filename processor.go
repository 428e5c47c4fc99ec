package kernel

import "runtime"

// Processor is a per-CPU executor: "while true { switch_to the next
// runnable thread; when it yields, stop it; if nothing is runnable, enable
// interrupts and wait }", realized as one goroutine pinned to its own OS
// thread.
//
// Grounded on loop.go's Run/run pairing (a blocking driver loop owning its
// own goroutine identity) and wakeup_linux.go's idle-wait doorbell, adapted
// from a single-loop event dispatcher to one loop per CPU, coordinated
// through a shared ThreadPool.
type Processor struct {
	cpu  int32
	pool *ThreadPool
	ic   *interruptController
	self *Context

	ipiLock SpinNoIrqLock
	ipi     []ipiEvent

	stop chan struct{}
	done chan struct{}
}

// NewProcessor creates a Processor for the given logical CPU id. cpu must be
// unique among Processors sharing pool; it is both the scheduling affinity
// value threads may request and the key IPI delivery and interrupt
// registration use to address this CPU.
func NewProcessor(cpu int32, pool *ThreadPool) *Processor {
	p := &Processor{
		cpu:  cpu,
		pool: pool,
		ic:   newInterruptController(),
		self: loopContext(),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	pool.attachProcessor(cpu, p)
	return p
}

// Run pins the calling goroutine to its OS thread and executes the
// scheduler loop until Shutdown is called. It is meant to be run on its own
// goroutine (go proc.Run()); Shutdown is the only safe way to stop it from
// elsewhere.
func (p *Processor) Run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(p.done)

	for {
		select {
		case <-p.stop:
			return
		default:
		}

		p.drainIPI()

		tid, ctx, ok := p.pool.Run(p.cpu)
		if !ok {
			p.idle()
			continue
		}

		switchTo(p.self, ctx)
		p.pool.Stop(tid, ctx)
	}
}

// idle enables interrupt delivery and blocks until rung by a wakeup, a
// timer expiry, or an IPI: "enable interrupts, halt" for when the
// run queue is empty. It also returns promptly if Shutdown was called while
// idle, via the controller's own wake source being rung by Shutdown.
func (p *Processor) idle() {
	p.ic.enableAndWFI()
}

// Tick drives one timer tick for this Processor's CPU: called from
// whatever host timer source the embedder wires up (there is no hosted
// equivalent of a hardware timer interrupt, so this is a plain method
// rather than a signal handler). runningTid is 0 if the Processor is
// currently idle. If the pool reports that the running thread should be
// preempted, Tick rings this Processor's wake source. That does not
// interrupt the running thread: it keeps the CPU until it next yields,
// parks, or exits.
func (p *Processor) Tick(runningTid Tid) {
	if p.pool.Tick(p.cpu, runningTid) {
		p.ic.ring()
	}
}

// Shutdown stops the Processor's loop after its current thread (if any)
// next yields, and waits for Run to return. Safe to call once, from any
// goroutine.
func (p *Processor) Shutdown() {
	close(p.stop)
	p.ic.ring()
	<-p.done
}

// CPU returns the Processor's logical CPU id.
func (p *Processor) CPU() int32 { return p.cpu }

// ring wakes this Processor if it is idle — used by ipi.go to deliver an
// inter-processor interrupt.
func (p *Processor) ring() {
	p.ic.ring()
}

// enqueueIPI appends ev to this Processor's pending-event list and rings
// it: enqueues f(arg) onto this CPU's pending-event list and sends an
// inter-processor interrupt. If this Processor has already been shut down,
// the event would sit forever undrained — see DESIGN.md's "wait=false is
// fire-and-forget, with no delivery guarantee across CPU down/offline
// events" — so it is dropped instead of queued, with a rate-limited
// diagnostic instead of silent loss.
func (p *Processor) enqueueIPI(ev ipiEvent) {
	select {
	case <-p.stop:
		if diagAllowed("ipi-target-offline") {
			currentLogger().Warning().Int("cpu", int(p.cpu)).Log("dropped IPI: target processor is shut down")
		}
		if ev.done != nil {
			ev.done.Release()
		}
		return
	default:
	}

	g := p.ipiLock.Lock(nil)
	p.ipi = append(p.ipi, ev)
	g.Unlock()
	p.ring()
}

// drainIPI runs every currently queued IPI event, in the FIFO order it was
// enqueued: invocations on a given CPU run in FIFO order of enqueue.
// Called once per scheduler-loop iteration, so queued events
// always run on this Processor's own goroutine, never concurrently with
// whatever thread it is about to switch into.
func (p *Processor) drainIPI() {
	g := p.ipiLock.Lock(nil)
	events := p.ipi
	p.ipi = nil
	g.Unlock()

	for _, ev := range events {
		ev.fn(ev.arg)
		if ev.done != nil {
			ev.done.Release()
		}
	}
}
