package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestContextSwitchToAndYield exercises a bare Context/switchTo/yieldTo
// round trip without any ThreadPool involved: a loop context switches into
// a fresh thread context, the thread runs until it yields, and control
// returns to exactly the point after switchTo.
func TestContextSwitchToAndYield(t *testing.T) {
	loop := loopContext()

	var ran bool
	var resumed bool
	thread := newContext(func(self *Context) {
		ran = true
		yieldTo(self)
		resumed = true
		yieldFinal(self)
	})

	switchTo(loop, thread)
	require.True(t, ran, "thread entry did not run after first switchTo")
	require.False(t, resumed, "thread should not have resumed past its own yieldTo yet")

	switchTo(loop, thread)
	require.True(t, resumed, "second switchTo should resume the thread past yieldTo")
}

// TestContextMultipleThreadsIndependent verifies that two Contexts switched
// into from the same loop context do not interfere with each other's
// resumption point.
func TestContextMultipleThreadsIndependent(t *testing.T) {
	loop := loopContext()

	order := make(chan string, 8)
	a := newContext(func(self *Context) {
		order <- "a1"
		yieldTo(self)
		order <- "a2"
		yieldFinal(self)
	})
	b := newContext(func(self *Context) {
		order <- "b1"
		yieldTo(self)
		order <- "b2"
		yieldFinal(self)
	})

	switchTo(loop, a)
	switchTo(loop, b)
	switchTo(loop, a)
	switchTo(loop, b)

	close(order)
	got := make([]string, 0, 4)
	for s := range order {
		got = append(got, s)
	}
	require.Equal(t, []string{"a1", "b1", "a2", "b2"}, got)
}

// TestContextSwitchToBlocksUntilYield verifies switchTo does not return
// until the target actually yields, even if that takes a little while.
func TestContextSwitchToBlocksUntilYield(t *testing.T) {
	loop := loopContext()
	started := make(chan struct{})
	thread := newContext(func(self *Context) {
		close(started)
		time.Sleep(20 * time.Millisecond)
		yieldFinal(self)
	})

	done := make(chan struct{})
	go func() {
		switchTo(loop, thread)
		close(done)
	}()

	<-started
	select {
	case <-done:
		t.Fatal("switchTo returned before the thread yielded")
	case <-time.After(5 * time.Millisecond):
	}
	<-done
}
