package kernel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSemaphoreTryAcquireNeverBlocks(t *testing.T) {
	s := NewSemaphore(1)
	require.True(t, s.TryAcquire(), "TryAcquire should succeed with count=1")
	require.False(t, s.TryAcquire(), "TryAcquire should fail once count reaches 0")
	s.Release()
	require.EqualValues(t, 1, s.Count())
}

// TestBoundedConcurrencyAcrossCPUs spawns, on several CPUs, many threads
// each acquiring a global semaphore with initial count 3. At all times at
// most 3 are inside the critical section; all threads eventually complete.
func TestBoundedConcurrencyAcrossCPUs(t *testing.T) {
	pool := NewThreadPool()
	const cpus = 4
	procs := make([]*Processor, cpus)
	for i := range procs {
		procs[i] = NewProcessor(int32(i), pool)
		go procs[i].Run()
	}
	defer func() {
		for _, p := range procs {
			p.Shutdown()
		}
	}()

	const limit = 3
	sem := NewSemaphore(limit)
	var inside atomic.Int32
	var violations atomic.Int32
	var completed atomic.Int32

	const threads = 100
	handles := make([]*ThreadHandle, threads)
	for i := 0; i < threads; i++ {
		handles[i] = pool.Add(nil, func(t *Thread) {
			sem.Acquire(t)
			n := inside.Add(1)
			if n > limit {
				violations.Add(1)
			}
			t.Yield()
			inside.Add(-1)
			sem.Release()
			completed.Add(1)
		}, DefaultPriority, AnyCPU)
	}

	for _, h := range handles {
		waitForState(t, pool, h.Tid(), Exited)
	}
	require.Zero(t, violations.Load(), "observed threads exceeding the semaphore limit of %d", limit)
	require.EqualValues(t, threads, completed.Load())
	require.EqualValues(t, limit, sem.Count())
	for _, h := range handles {
		h.Release()
	}
}

func TestSemaphoreAcquireBlocksUntilRelease(t *testing.T) {
	pool := NewThreadPool()
	proc := NewProcessor(0, pool)
	go proc.Run()
	defer proc.Shutdown()

	sem := NewSemaphore(0)
	acquired := make(chan struct{})
	h := pool.Add(nil, func(t *Thread) {
		sem.Acquire(t)
		close(acquired)
	}, DefaultPriority, AnyCPU)

	select {
	case <-acquired:
		t.Fatal("Acquire returned before Release was ever called")
	default:
	}

	sem.Release()
	<-acquired
	waitForState(t, pool, h.Tid(), Exited)
	h.Release()
}
