package reactor

import (
	"sync/atomic"
)

// direction is the readiness state of one direction (read or write) of an
// AsyncFd: a count of readiness permits, and at most one parked waiter.
//
// The loop goroutine is the only producer of permits; the waiting task is
// the only consumer. Neither side takes a lock.
type direction struct {
	waiter  atomic.Pointer[Task]
	permits atomic.Int64
}

// grant adds one permit, and takes and wakes the parked waiter, if any.
// The increment must precede the swap, see park.
func (d *direction) grant() {
	d.permits.Add(1)
	if t := d.waiter.Swap(nil); t != nil {
		t.wake()
	}
}

// abandon fails the parked waiter, if any, with err.
func (d *direction) abandon(err error) {
	if t := d.waiter.Swap(nil); t != nil {
		t.fail(err)
	}
}

// fdAwaitable is a wait on one direction of an AsyncFd.
type fdAwaitable struct {
	d *direction
}

func (a fdAwaitable) ready() bool {
	return a.d.permits.Load() > 0
}

// park publishes t as the waiter, then re-checks the permit count. A permit
// granted between the failed ready check and the publish would otherwise
// find no waiter to wake; in that case the slot is reclaimed and t is woken
// here. The CAS against the loop's swap guarantees a single wake.
func (a fdAwaitable) park(t *Task) error {
	if !a.d.waiter.CompareAndSwap(nil, t) {
		return ErrWaiterBusy
	}
	if a.d.permits.Load() > 0 && a.d.waiter.CompareAndSwap(t, nil) {
		t.wake()
	}
	return nil
}

func (a fdAwaitable) unpark(t *Task) {
	a.d.waiter.CompareAndSwap(t, nil)
}

// complete consumes the permit that satisfied the wait.
func (a fdAwaitable) complete() {
	a.d.permits.Add(-1)
}

// AsyncFd tracks readiness of a non-blocking descriptor, for use with
// [Reactor.Register].
//
// Each direction carries a permit count, starting at one. A wait proceeds
// without suspending while permits are available, and consumes one when it
// completes. Every readiness notification from the reactor grants one
// permit. Since registration is edge triggered, a permit means "worth
// trying the syscall", not a guarantee: on EAGAIN, wait again.
//
// Only one task may wait on each direction at a time; a second waiter fails
// with ErrWaiterBusy.
type AsyncFd struct {
	read   direction
	write  direction
	fd     int
	closed atomic.Bool
}

// NewAsyncFd wraps fd, taking ownership of it. The descriptor should be in
// non-blocking mode.
func NewAsyncFd(fd int) *AsyncFd {
	f := &AsyncFd{fd: fd}
	f.read.permits.Store(1)
	f.write.permits.Store(1)
	return f
}

// Fd returns the raw descriptor.
func (f *AsyncFd) Fd() int {
	return f.fd
}

// WaitRead returns an awaitable satisfied when the descriptor may be read.
func (f *AsyncFd) WaitRead() Awaitable {
	return fdAwaitable{d: &f.read}
}

// WaitWrite returns an awaitable satisfied when the descriptor may be written.
func (f *AsyncFd) WaitWrite() Awaitable {
	return fdAwaitable{d: &f.write}
}

// ReadPermits returns the current read permit count.
func (f *AsyncFd) ReadPermits() int64 {
	return f.read.permits.Load()
}

// WritePermits returns the current write permit count.
func (f *AsyncFd) WritePermits() int64 {
	return f.write.permits.Load()
}

// Close closes the descriptor, failing any parked waiters with
// ErrAsyncFdClosed. Only the first call has any effect; later calls
// return nil.
//
// Deregister the descriptor first (or use [RegisteredAsyncFd]) to avoid
// events for a recycled descriptor number.
func (f *AsyncFd) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	f.abandon(ErrAsyncFdClosed)
	return wrapSyscallError("close", closeFD(f.fd))
}

// notify applies a readiness notification from the loop. Error and hangup
// conditions grant both directions, so waiters observe them from their next
// syscall.
func (f *AsyncFd) notify(events IOEvents) {
	if events&(EventError|EventHangup) != 0 {
		events |= EventRead | EventWrite
	}
	if events&EventRead != 0 {
		f.read.grant()
	}
	if events&EventWrite != 0 {
		f.write.grant()
	}
}

// abandon fails any parked waiters, used when the reactor shuts down.
func (f *AsyncFd) abandon(err error) {
	f.read.abandon(err)
	f.write.abandon(err)
}
