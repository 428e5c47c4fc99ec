package kernel

import "sync/atomic"

// Metrics holds plain atomic counters for a ThreadPool, enabled via
// WithMetrics. Unlike eventloop's LatencyMetrics (a P-Square streaming
// percentile estimator over task latencies), a scheduler core has no
// per-task latency to sample — what it has is counts of discrete scheduling
// events, so this tracks those directly instead of carrying a percentile
// estimator with nothing to feed it.
type Metrics struct {
	contextSwitches atomic.Int64
	preemptions     atomic.Int64
	threadsSpawned  atomic.Int64
	threadsExited   atomic.Int64
	futexWaits      atomic.Int64
	futexWakes      atomic.Int64
	ipiSent         atomic.Int64
	ipiCompleted    atomic.Int64
	runqueueDepth   atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of a Metrics' counters, safe to
// retain and print after the ThreadPool has moved on.
type MetricsSnapshot struct {
	ContextSwitches int64
	Preemptions     int64
	ThreadsSpawned  int64
	ThreadsExited   int64
	FutexWaits      int64
	FutexWakes      int64
	IPISent         int64
	IPICompleted    int64
	RunqueueDepth   int64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		ContextSwitches: m.contextSwitches.Load(),
		Preemptions:     m.preemptions.Load(),
		ThreadsSpawned:  m.threadsSpawned.Load(),
		ThreadsExited:   m.threadsExited.Load(),
		FutexWaits:      m.futexWaits.Load(),
		FutexWakes:      m.futexWakes.Load(),
		IPISent:         m.ipiSent.Load(),
		IPICompleted:    m.ipiCompleted.Load(),
		RunqueueDepth:   m.runqueueDepth.Load(),
	}
}

func (m *Metrics) recordContextSwitch() {
	if m != nil {
		m.contextSwitches.Add(1)
	}
}

func (m *Metrics) recordPreemption() {
	if m != nil {
		m.preemptions.Add(1)
	}
}

func (m *Metrics) recordSpawn() {
	if m != nil {
		m.threadsSpawned.Add(1)
	}
}

func (m *Metrics) recordExit() {
	if m != nil {
		m.threadsExited.Add(1)
	}
}

func (m *Metrics) recordFutexWait() {
	if m != nil {
		m.futexWaits.Add(1)
	}
}

func (m *Metrics) recordFutexWake(n int) {
	if m != nil && n > 0 {
		m.futexWakes.Add(int64(n))
	}
}

func (m *Metrics) recordIPISent(n int) {
	if m != nil && n > 0 {
		m.ipiSent.Add(int64(n))
	}
}

func (m *Metrics) recordIPICompleted() {
	if m != nil {
		m.ipiCompleted.Add(1)
	}
}

func (m *Metrics) setRunqueueDepth(n int) {
	if m != nil {
		m.runqueueDepth.Store(int64(n))
	}
}
