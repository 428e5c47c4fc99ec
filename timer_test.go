package kernel

import (
	"container/heap"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimerHeapOrdersByDeadlineThenSeq(t *testing.T) {
	w := newTimerWheel()
	w.schedule(100, 1)
	w.schedule(50, 2)
	w.schedule(50, 3)
	w.schedule(75, 4)

	got := w.expired(100)
	require.Equal(t, []Tid{2, 3, 4, 1}, got)
}

func TestTimerHeapExpiredOnlyPopsDueEntries(t *testing.T) {
	w := newTimerWheel()
	w.schedule(10, 1)
	w.schedule(20, 2)
	w.schedule(30, 3)

	got := w.expired(15)
	require.Equal(t, []Tid{1}, got)
	require.Equal(t, 2, w.len())

	got = w.expired(30)
	require.Equal(t, []Tid{2, 3}, got)
	require.Zero(t, w.len())
}

func TestTimerWheelNextDeadline(t *testing.T) {
	w := newTimerWheel()
	_, ok := w.nextDeadline()
	require.False(t, ok, "nextDeadline on an empty wheel reported a deadline")

	w.schedule(40, 1)
	w.schedule(10, 2)
	got, ok := w.nextDeadline()
	require.True(t, ok)
	require.EqualValues(t, 10, got)
}

// TestTimerHeapSatisfiesHeapInterface is a sanity check that timerHeap can
// actually back container/heap directly, the way timerWheel relies on.
func TestTimerHeapSatisfiesHeapInterface(t *testing.T) {
	h := &timerHeap{}
	heap.Init(h)
	heap.Push(h, timerEntry{deadline: 5, seq: 1, tid: 9})
	heap.Push(h, timerEntry{deadline: 1, seq: 2, tid: 8})
	first := heap.Pop(h).(timerEntry)
	require.EqualValues(t, 8, first.tid, "lowest deadline should pop first")
}

// TestSleepBecomesReadyWithinExpectedTicks checks that a thread calling
// Nanosleep(100ms) on a 100Hz tick source becomes Ready again within 10-12
// ticks of the tick source, not immediately and not indefinitely.
func TestSleepBecomesReadyWithinExpectedTicks(t *testing.T) {
	pool := NewThreadPool()
	sys := NewSyscalls(pool, 100) // 100Hz: one tick == 10ms, so ticksForDuration(100ms) == 10

	woke := make(chan struct{})
	h := pool.Add(nil, func(t *Thread) {
		sys.Nanosleep(t, 100_000_000) // 100ms, expressed in nanoseconds
		close(woke)
	}, DefaultPriority, AnyCPU)

	proc := NewProcessor(0, pool)
	go proc.Run()
	defer proc.Shutdown()

	waitForState(t, pool, h.Tid(), Sleeping)

	// The deadline is armed at tick+10 (100ms at 100Hz) the moment Nanosleep
	// calls SleepTicks, which happens before any of these Tick calls: ticks
	// 1 through 9 must not observe it expired yet.
	for i := 1; i <= 9; i++ {
		proc.Tick(0)
		select {
		case <-woke:
			t.Fatalf("thread woke after only %d ticks, want 10-12 (100ms at 100Hz)", i)
		default:
		}
	}

	for i := 10; i <= 12; i++ {
		proc.Tick(0)
	}
	select {
	case <-woke:
	case <-time.After(2 * time.Second):
		t.Fatal("thread did not wake within 12 ticks of a 100Hz source sleeping for 100ms")
	}
	waitForState(t, pool, h.Tid(), Exited)
	h.Release()
}

// TestNanosleepSubTickDurationStillYieldsOnce covers the ticks<=0 branch:
// a duration shorter than one tick must still give up the CPU once rather
// than spin without ever yielding.
func TestNanosleepSubTickDurationStillYieldsOnce(t *testing.T) {
	pool := NewThreadPool()
	sys := NewSyscalls(pool, 100)

	done := make(chan struct{})
	h := pool.Add(nil, func(t *Thread) {
		sys.Nanosleep(t, 1) // 1ns, far below one 10ms tick
		close(done)
	}, DefaultPriority, AnyCPU)

	proc := NewProcessor(0, pool)
	go proc.Run()
	defer proc.Shutdown()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sub-tick Nanosleep never returned")
	}
	waitForState(t, pool, h.Tid(), Exited)
	h.Release()
}
