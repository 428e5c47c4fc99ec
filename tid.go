package kernel

import "sync"

// Tid is a unique thread identifier. Zero is never a valid, live Tid.
type Tid uint32

// tidAllocator hands out monotonically increasing Tids, recycling freed ones
// through a free-list once a Thread's last handle drops.
//
// Grounded on registry.go's nextID counter, generalized with a free-list so
// ids can be reused after a thread fully drops.
type tidAllocator struct {
	mu    sync.Mutex
	next  Tid
	free  []Tid
	inUse map[Tid]struct{}
}

func newTidAllocator() *tidAllocator {
	return &tidAllocator{
		next:  1, // 0 reserved as "no tid"
		inUse: make(map[Tid]struct{}),
	}
}

// alloc returns a fresh or recycled Tid and marks it in-use.
func (a *tidAllocator) alloc() Tid {
	a.mu.Lock()
	defer a.mu.Unlock()

	var tid Tid
	if n := len(a.free); n > 0 {
		tid = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		tid = a.next
		a.next++
	}
	a.inUse[tid] = struct{}{}
	return tid
}

// release returns tid to the free-list. Called once the last ThreadHandle
// referencing it drops.
func (a *tidAllocator) release(tid Tid) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.inUse[tid]; !ok {
		return
	}
	delete(a.inUse, tid)
	a.free = append(a.free, tid)
}
