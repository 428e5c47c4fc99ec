package kernel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadStateString(t *testing.T) {
	cases := map[ThreadState]string{
		Ready:             "Ready",
		Running:           "Running",
		Sleeping:          "Sleeping",
		Exited:            "Exited",
		ThreadState(0xff): "Unknown",
	}
	for state, want := range cases {
		assert.Equal(t, want, state.String())
	}
}

func TestThreadStateCellTryTransition(t *testing.T) {
	c := newThreadStateCell(Ready)

	require.True(t, c.TryTransition(Ready, Running), "Ready -> Running should succeed")
	require.Equal(t, Running, c.Load())

	// A transition from the wrong starting state is a no-op, never a panic.
	require.False(t, c.TryTransition(Sleeping, Ready), "Sleeping -> Ready should fail when state is Running")
	require.Equal(t, Running, c.Load(), "state changed despite failed CAS")
}

func TestThreadStateCellStoreIsUnconditional(t *testing.T) {
	c := newThreadStateCell(Running)
	c.Store(Exited)
	require.Equal(t, Exited, c.Load())
}

// TestThreadStateCellConcurrentCAS exercises the cell under concurrent
// contention: exactly one of N racing TryTransition(Ready, Running) calls
// must win, so at most one CPU ever observes a thread as Running.
func TestThreadStateCellConcurrentCAS(t *testing.T) {
	c := newThreadStateCell(Ready)

	const n = 64
	var wg sync.WaitGroup
	wins := make([]bool, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			wins[i] = c.TryTransition(Ready, Running)
		}()
	}
	wg.Wait()

	count := 0
	for _, w := range wins {
		if w {
			count++
		}
	}
	require.Equal(t, 1, count, "expected exactly 1 winner")
}
