package kernel

// numPriorityTiers matches Priority's uint8 range: tier 0 is scheduled
// before tier 1, and so on.
const numPriorityTiers = 256

// defaultTimeSliceTicks is the number of timer ticks a thread runs before
// tick() asks the Processor to preempt it; the default models one tick as
// roughly 10ms.
const defaultTimeSliceTicks = 10

// defaultAgingTicks is how many ticks a Ready thread can wait unscheduled
// before its effective priority tier is bumped by one, a starvation guard.
// Reset to zero the instant the thread is dispatched.
const defaultAgingTicks = 50

// scheduler is the scheduling policy object: per-tier ready
// queues, a fixed time-slice budget, and the aging state needed to bump a
// starved thread's effective tier. It holds no lock of its own — every
// method requires the caller to already hold the owning ThreadPool's
// mutex, exactly like runQueue.
//
// The pluggable-policy shape (a single object owning ready queues + slice
// budgets, exposing run/tick/setPriority) mirrors
// original_source/crate/thread/src/processor.rs's Scheduler trait.
type scheduler struct {
	tiers          [numPriorityTiers]runQueue
	timeSliceTicks int32
	agingTicks     int32
}

func newScheduler(timeSliceTicks, agingTicks int32) *scheduler {
	if timeSliceTicks <= 0 {
		timeSliceTicks = defaultTimeSliceTicks
	}
	if agingTicks <= 0 {
		agingTicks = defaultAgingTicks
	}
	return &scheduler{timeSliceTicks: timeSliceTicks, agingTicks: agingTicks}
}

// enqueue places tid into its priority tier's ready queue. sliceLeft is the
// budget the thread resumes with: ThreadPool.Stop passes the remainder of a
// thread that yielded mid-slice, and ThreadPool.Run restores that remainder
// on dispatch. A sliceLeft <= 0 (a new thread, a woken thread, or one whose
// slice ran out) is replaced by the full timeSliceTicks.
func (s *scheduler) enqueue(tid Tid, tier Priority, sliceLeft, lastCPU int32) {
	if sliceLeft <= 0 {
		sliceLeft = s.timeSliceTicks
	}
	s.tiers[tier].pushBack(runEntry{tid: tid, sliceLeft: sliceLeft, lastCPU: lastCPU})
}

// pick selects the next thread eligible to run on cpu. It scans tiers from
// highest priority (0) to lowest, and within a tier honors affinity: a
// thread affined to a different CPU is skipped and requeued at the tail of
// its tier so it is not lost, only passed over.
//
// affinityOf must return the live affinity of tid (the pool's table is the
// source of truth).
func (s *scheduler) pick(cpu int32, affinityOf func(Tid) Affinity) (runEntry, bool) {
	for tier := range s.tiers {
		q := &s.tiers[tier]
		scanned := 0
		n := q.len()
		for scanned < n {
			e, ok := q.popFront()
			if !ok {
				break
			}
			scanned++
			aff := affinityOf(e.tid)
			if aff == AnyCPU || int32(aff) == cpu {
				return e, true
			}
			q.pushBack(e)
		}
	}
	return runEntry{}, false
}

// bestReadyTier returns the lowest-numbered (highest-priority) tier that
// currently holds at least one ready thread, used by ThreadPool.Tick to
// decide whether a Ready thread should preempt a lower-priority Running
// one ahead of its slice expiring.
func (s *scheduler) bestReadyTier() (Priority, bool) {
	for tier := range s.tiers {
		if s.tiers[tier].len() > 0 {
			return Priority(tier), true
		}
	}
	return 0, false
}

// shouldAge reports whether a Ready thread that has waited waitTicks ticks
// has reached agingTicks and is due for a tier bump. The walk over Ready
// threads and the bump itself are done by ThreadPool.ageLocked; wait-time
// bookkeeping lives on Thread (waitTicks), since it must survive a thread
// moving between tiers.
func (s *scheduler) shouldAge(waitTicks int32) bool {
	return waitTicks >= s.agingTicks
}

// len returns the number of ready threads across all tiers.
func (s *scheduler) len() int {
	total := 0
	for i := range s.tiers {
		total += s.tiers[i].len()
	}
	return total
}
