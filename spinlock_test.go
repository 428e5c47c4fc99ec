package kernel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpinLockMutualExclusion(t *testing.T) {
	var l SpinLock
	var counter int
	const n = 1000
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			l.Lock()
			counter++
			l.Unlock()
		}()
	}
	wg.Wait()
	require.Equal(t, n, counter)
}

func TestSpinLockTryLock(t *testing.T) {
	var l SpinLock
	require.True(t, l.TryLock(), "TryLock should succeed on an unheld lock")
	require.False(t, l.TryLock(), "TryLock should fail while already held")
	l.Unlock()
	require.True(t, l.TryLock(), "TryLock should succeed again after Unlock")
}

func TestSpinNoIrqLockRestoresInterruptState(t *testing.T) {
	ic := newInterruptController()
	defer ic.closeController()

	var l SpinNoIrqLock

	g := l.Lock(ic)
	require.False(t, ic.enabled.Load(), "interrupts should be disabled while SpinNoIrqLock is held via a controller")
	g.Unlock()
	require.True(t, ic.enabled.Load(), "interrupts should be restored to enabled after Unlock")
}

func TestSpinNoIrqLockNestedSaveRestore(t *testing.T) {
	ic := newInterruptController()
	defer ic.closeController()

	ic.disableAndStore() // simulate already-disabled caller context
	var l SpinNoIrqLock
	g := l.Lock(ic)
	g.Unlock()
	require.False(t, ic.enabled.Load(), "Unlock must restore the previously-disabled state, not force-enable")
}

func TestSpinNoIrqLockMutualExclusion(t *testing.T) {
	var l SpinNoIrqLock
	var counter int
	const n = 500
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			g := l.Lock(nil)
			counter++
			g.Unlock()
		}()
	}
	wg.Wait()
	require.Equal(t, n, counter)
}
