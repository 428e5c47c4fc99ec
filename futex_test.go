package kernel

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFutexWaitMismatchReturnsImmediately(t *testing.T) {
	pool := NewThreadPool()
	proc := NewProcessor(0, pool)
	go proc.Run()
	defer proc.Shutdown()

	var word atomic.Int32
	word.Store(5)

	result := make(chan bool, 1)
	h := pool.Add(nil, func(t *Thread) {
		result <- globalFutexTable.FutexWait(t, &word, 42) // mismatch: word is 5
	}, DefaultPriority, AnyCPU)

	select {
	case parked := <-result:
		require.False(t, parked, "FutexWait should not have parked on a mismatched value")
	case <-time.After(2 * time.Second):
		t.Fatal("FutexWait on a mismatch should return immediately, without blocking")
	}
	waitForState(t, pool, h.Tid(), Exited)
	h.Release()
}

func TestFutexWaitWakeRoundTrip(t *testing.T) {
	pool := NewThreadPool()
	proc := NewProcessor(0, pool)
	go proc.Run()
	defer proc.Shutdown()

	var word atomic.Int32
	woke := make(chan bool, 1)
	h := pool.Add(nil, func(t *Thread) {
		woke <- globalFutexTable.FutexWait(t, &word, 0)
	}, DefaultPriority, AnyCPU)

	// Give the waiter a chance to actually enqueue before waking it.
	time.Sleep(20 * time.Millisecond)
	globalFutexTable.FutexWake(&word, 1)

	select {
	case parked := <-woke:
		require.True(t, parked, "expected FutexWait to have parked and then been woken")
	case <-time.After(2 * time.Second):
		t.Fatal("FutexWake did not wake the waiter within the deadline")
	}
	waitForState(t, pool, h.Tid(), Exited)
	h.Release()
}

func TestFutexWakeOnEmptyAddressIsNoOp(t *testing.T) {
	var word atomic.Int32
	globalFutexTable.FutexWake(&word, 3) // nobody waiting; must not panic
}

func TestFutexWakeClearsChildTidOnExit(t *testing.T) {
	pool := NewThreadPool()
	proc := NewProcessor(0, pool)
	go proc.Run()
	defer proc.Shutdown()

	var clearTid atomic.Int32
	waiterWoke := make(chan struct{})
	waiterH := pool.Add(nil, func(t *Thread) {
		globalFutexTable.FutexWait(t, &clearTid, 0)
		close(waiterWoke)
	}, DefaultPriority, AnyCPU)

	time.Sleep(20 * time.Millisecond)

	childProc := &Process{Pid: 4242, ClearChildTid: addrOf(&clearTid)}
	childH := pool.Add(childProc, func(t *Thread) {}, DefaultPriority, AnyCPU)

	select {
	case <-waiterWoke:
	case <-time.After(2 * time.Second):
		t.Fatal("exiting thread did not futex-wake its clear_child_tid waiter")
	}
	waitForState(t, pool, waiterH.Tid(), Exited)
	waitForState(t, pool, childH.Tid(), Exited)
	waiterH.Release()
	childH.Release()
}
