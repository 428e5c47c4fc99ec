package kernel

import "container/heap"

// timerEntry is one pending sleep/nanosleep deadline: wake tid once the
// ThreadPool's tick counter reaches deadline. seq breaks ties between
// entries sharing a deadline in FIFO order of scheduling.
type timerEntry struct {
	deadline int64
	seq      uint64
	tid      Tid
}

// timerHeap is a min-heap of timerEntry ordered by deadline, grounded
// directly on loop.go's timerHeap (a container/heap min-heap of
// time.Time-ordered timers); here ordered by tick count instead of
// wall-clock time, since this scheduler's notion of time is the tick
// counter driven by Processor.Tick.
type timerHeap []timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) {
	*h = append(*h, x.(timerEntry))
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// timerWheel owns the pending-deadline heap for one ThreadPool. Like
// runQueue and scheduler, it holds no lock of its own: the ThreadPool's
// mutex is the caller's external lock.
type timerWheel struct {
	h   timerHeap
	seq uint64
}

func newTimerWheel() *timerWheel {
	return &timerWheel{}
}

// schedule arms a deadline for tid at the given absolute tick count.
//
// CALLER MUST HOLD THE THREADPOOL MUTEX.
func (w *timerWheel) schedule(deadline int64, tid Tid) {
	w.seq++
	heap.Push(&w.h, timerEntry{deadline: deadline, seq: w.seq, tid: tid})
}

// expired pops and returns every tid whose deadline is <= now, in deadline
// order, removing them from the wheel.
//
// CALLER MUST HOLD THE THREADPOOL MUTEX.
func (w *timerWheel) expired(now int64) []Tid {
	var woken []Tid
	for w.h.Len() > 0 && w.h[0].deadline <= now {
		e := heap.Pop(&w.h).(timerEntry)
		woken = append(woken, e.tid)
	}
	return woken
}

// nextDeadline returns the soonest pending deadline and true, or (0, false)
// if the wheel is empty. Processor's idle wait does not consult it; it
// blocks until rung.
//
// CALLER MUST HOLD THE THREADPOOL MUTEX.
func (w *timerWheel) nextDeadline() (int64, bool) {
	if w.h.Len() == 0 {
		return 0, false
	}
	return w.h[0].deadline, true
}

// len returns the number of pending deadlines.
//
// CALLER MUST HOLD THE THREADPOOL MUTEX.
func (w *timerWheel) len() int {
	return w.h.Len()
}
