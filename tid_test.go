package kernel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTidAllocatorMonotonic(t *testing.T) {
	a := newTidAllocator()
	first := a.alloc()
	second := a.alloc()
	require.NotZero(t, first, "tid 0 is reserved and must never be allocated")
	require.Greater(t, second, first, "expected monotonically increasing tids")
}

func TestTidAllocatorReleaseAndReuse(t *testing.T) {
	a := newTidAllocator()
	tid := a.alloc()
	a.release(tid)

	reused := a.alloc()
	require.Equal(t, tid, reused, "expected release to free the tid for reuse")
}

func TestTidAllocatorReleaseUnknownIsNoOp(t *testing.T) {
	a := newTidAllocator()
	a.release(Tid(12345)) // never allocated; must not panic or corrupt state
	tid := a.alloc()
	require.NotZero(t, tid, "allocator should still produce valid tids after a bogus release")
}

func TestTidAllocatorConcurrentAllocUnique(t *testing.T) {
	a := newTidAllocator()
	const n = 200
	ids := make([]Tid, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			ids[i] = a.alloc()
		}()
	}
	wg.Wait()

	seen := make(map[Tid]struct{}, n)
	for _, id := range ids {
		_, dup := seen[id]
		require.False(t, dup, "tid %d allocated twice", id)
		seen[id] = struct{}{}
	}
}
