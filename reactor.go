// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package reactor

import (
	"context"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// Reactor multiplexes timers and descriptor readiness on a single loop
// goroutine, flagging parked tasks as resumable. It never runs tasks itself.
//
// A Reactor is safe for concurrent use. There is no implicit global
// instance; any number may coexist, each needing its own [Reactor.Run].
type Reactor struct { // betteralign:ignore
	// Prevent copying
	_ [0]func()

	registry     *registry
	logger       *logiface.Logger[logiface.Event]
	staleLimiter *catrate.Limiter
	dispatchFn   func(fd int, seq int32, events IOEvents)
	done         chan struct{}

	metrics *metricsCounters

	state  fastState
	timers timerQueue
	poller poller

	// Guards the wake channel and epoll descriptors against being closed
	// while terminate signals them
	fdMu sync.Mutex

	id     uint64
	wakeFd int

	// Wake-up deduplication
	wakePending atomic.Uint32

	lockOSThread bool
}

var reactorIDCounter atomic.Uint64

// New creates a reactor: an epoll instance, plus an eventfd wake channel
// registered with it. On failure, anything already acquired is released.
func New(opts ...Option) (*Reactor, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	r := &Reactor{
		id:           reactorIDCounter.Add(1),
		registry:     newRegistry(),
		logger:       cfg.logger,
		staleLimiter: cfg.staleLimiter,
		lockOSThread: cfg.lockOSThread,
		metrics:      cfg.newMetrics(),
		done:         make(chan struct{}),
		wakeFd:       -1,
	}
	r.dispatchFn = r.dispatch

	if err := r.poller.init(); err != nil {
		return nil, err
	}

	wakeFd, err := createWakeFd()
	if err != nil {
		_ = r.poller.close()
		return nil, err
	}
	r.wakeFd = wakeFd

	entry, err := r.registry.insert(wakeFd, entryWake, nil)
	if err == nil {
		err = r.poller.addWake(wakeFd, entry.seq)
	}
	if err != nil {
		_ = r.poller.close()
		_ = closeFD(wakeFd)
		return nil, err
	}

	return r, nil
}

// ID returns the process-unique identifier of the reactor.
func (r *Reactor) ID() uint64 {
	return r.id
}

// State returns the current reactor state.
func (r *Reactor) State() ReactorState {
	return r.state.Load()
}

// Done returns a channel closed once the reactor has terminated and
// released its resources.
func (r *Reactor) Done() <-chan struct{} {
	return r.done
}

// Pending returns the number of tasks parked in the sleep queue.
func (r *Reactor) Pending() int {
	return r.timers.Len()
}

// Run runs the event loop on the calling goroutine, and is intended to be
// the sole body of a dedicated goroutine:
//
//	go r.Run(context.Background())
//
// Each iteration blocks in the multiplexer until the next sleeper is due
// or an event arrives, applies descriptor readiness, then flags every due
// sleeper as resumable and recomputes the timeout.
//
// Run does not return in normal operation. It returns nil after Close,
// ctx.Err() once ctx is cancelled, or the multiplexer's error if waiting
// fails. In each case the reactor is terminated on return: parked tasks
// fail with ErrReactorTerminated, and the descriptors are closed.
func (r *Reactor) Run(ctx context.Context) error {
	if !r.state.TryTransition(StateAwake, StateRunning) {
		if r.state.IsClosing() {
			return ErrReactorTerminated
		}
		return ErrReactorRunning
	}

	defer close(r.done)

	if r.lockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	// Start context watcher goroutine to wake loop on cancellation
	ctxDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			r.terminate()
		case <-ctxDone:
		}
	}()
	defer close(ctxDone)

	r.logInfo(logCategoryLoop).Log("reactor started")

	err := r.loop(ctx)

	r.shutdown()

	r.logInfo(logCategoryLoop).
		Err(err).
		Log("reactor stopped")

	return err
}

// Close terminates the reactor. A running loop is woken and releases the
// reactor's resources as it exits; a reactor that was never run releases
// them immediately. Subsequent calls return ErrReactorTerminated.
func (r *Reactor) Close() error {
	for {
		current := r.state.Load()
		switch current {
		case StateTerminating, StateTerminated:
			return ErrReactorTerminated
		case StateAwake:
			if r.state.TryTransition(StateAwake, StateTerminated) {
				r.shutdown()
				close(r.done)
				return nil
			}
		default:
			if r.terminate() {
				return nil
			}
		}
	}
}

// terminate moves a running reactor to StateTerminating and wakes it,
// reporting whether this call made the transition.
func (r *Reactor) terminate() bool {
	r.fdMu.Lock()
	defer r.fdMu.Unlock()
	for {
		current := r.state.Load()
		if current != StateRunning && current != StateSleeping {
			return false
		}
		if r.state.TryTransition(current, StateTerminating) {
			// bypass deduplication, the loop must observe the new state
			_ = signalWakeFd(r.wakeFd)
			return true
		}
	}
}

// loop is the main loop body.
func (r *Reactor) loop(ctx context.Context) error {
	timeout := -1
	for {
		if r.state.Load() == StateTerminating {
			return ctx.Err()
		}

		if !r.state.TryTransition(StateRunning, StateSleeping) {
			continue
		}

		_, err := r.poller.wait(timeout, r.dispatchFn)
		if r.metrics != nil {
			r.metrics.iterations.Add(1)
		}

		r.state.TryTransition(StateSleeping, StateRunning)

		if err != nil {
			r.logError(logCategoryPoll).
				Err(err).
				Log("poll failed, terminating")
			r.state.Store(StateTerminating)
			return err
		}

		timeout = r.runTimers(time.Now())
	}
}

// dispatch routes one multiplexer event by its registry tag.
func (r *Reactor) dispatch(fd int, seq int32, events IOEvents) {
	e, ok := r.registry.lookup(fd, seq)
	if !ok {
		if r.metrics != nil {
			r.metrics.staleEvents.Add(1)
		}
		r.logStaleEvent(fd, seq, events)
		return
	}
	switch e.kind {
	case entryWake:
		// drain before resetting, see wake
		drainWakeFd(r.wakeFd)
		r.wakePending.Store(0)
		if r.metrics != nil {
			r.metrics.wakeups.Add(1)
		}
	case entryDescriptor:
		e.afd.notify(events)
		if r.metrics != nil {
			r.metrics.fdEvents.Add(1)
		}
	}
}

// runTimers flags every sleeper due at now as resumable, and returns the
// multiplexer timeout until the next one, in milliseconds (-1 if none).
func (r *Reactor) runTimers(now time.Time) int {
	next, ok := r.timers.popDue(now, func(e *timerEntry) {
		e.task.wake()
		if r.metrics != nil {
			r.metrics.timersFired.Add(1)
		}
	})
	if !ok {
		return -1
	}
	return timeoutMillis(next)
}

// timeoutMillis converts a delay to a multiplexer timeout, rounding up so
// a sleeper is never observed before its deadline, and so the loop does
// not spin on a sub-millisecond remainder.
func timeoutMillis(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	ms := d / time.Millisecond
	if d%time.Millisecond != 0 {
		ms++
	}
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(ms)
}

// wake forces a blocked multiplexer wait to return. Safe to call from any
// goroutine. Signals coalesce while the pending flag is set. The loop
// resets the flag only after draining the channel, so a signal is never
// drained while the flag still suppresses the next one; any state
// published before a coalesced call is observed, since timers are scanned
// after the drain.
func (r *Reactor) wake() {
	if r.state.Load() == StateTerminated {
		return
	}
	if r.wakePending.CompareAndSwap(0, 1) {
		if err := signalWakeFd(r.wakeFd); err != nil {
			r.wakePending.Store(0)
		}
	}
}

// shutdown fails every parked task and releases the descriptors.
func (r *Reactor) shutdown() {
	r.fdMu.Lock()
	defer r.fdMu.Unlock()

	r.state.Store(StateTerminated)

	r.timers.drainAll(func(e *timerEntry) {
		e.task.fail(ErrReactorTerminated)
	})

	for _, e := range r.registry.drain() {
		if e.kind == entryDescriptor {
			e.afd.abandon(ErrReactorTerminated)
		}
	}

	_ = r.poller.close()
	if r.wakeFd >= 0 {
		_ = closeFD(r.wakeFd)
	}
}
