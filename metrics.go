package reactor

import (
	"sync/atomic"
)

// Metrics is a snapshot of reactor runtime counters, returned by
// [Reactor.Metrics]. Counters are cumulative since New.
//
// Example:
//
//	r, _ := New(WithMetrics(true))
//	go r.Run(ctx)
//	stats := r.Metrics()
//	fmt.Printf("iterations: %d, timers fired: %d\n",
//		stats.Iterations, stats.TimersFired)
type Metrics struct {
	// Iterations counts completed multiplexer waits.
	Iterations uint64
	// FDEvents counts readiness notifications delivered to registered descriptors.
	FDEvents uint64
	// Wakeups counts drains of the wake channel.
	Wakeups uint64
	// StaleEvents counts events dropped for a stale registration.
	StaleEvents uint64
	// TimersFired counts sleepers flagged resumable by their deadline.
	TimersFired uint64
}

// metricsCounters is the live, lock-free form of Metrics.
type metricsCounters struct {
	iterations  atomic.Uint64
	fdEvents    atomic.Uint64
	wakeups     atomic.Uint64
	staleEvents atomic.Uint64
	timersFired atomic.Uint64
}

func (m *metricsCounters) snapshot() *Metrics {
	return &Metrics{
		Iterations:  m.iterations.Load(),
		FDEvents:    m.fdEvents.Load(),
		Wakeups:     m.wakeups.Load(),
		StaleEvents: m.staleEvents.Load(),
		TimersFired: m.timersFired.Load(),
	}
}

// Metrics returns a copy of the current counters, or nil if metrics were
// not enabled with [WithMetrics]. Safe to call from any goroutine.
func (r *Reactor) Metrics() *Metrics {
	if r.metrics == nil {
		return nil
	}
	return r.metrics.snapshot()
}
