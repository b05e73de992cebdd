// Package reactor provides a single-threaded I/O reactor for driving
// suspendable tasks: a sleep timer queue and edge triggered descriptor
// readiness, multiplexed by one loop goroutine.
//
// # Architecture
//
// A [Task] wraps an async function ([Func]), run on a coroutine. The body
// suspends only by awaiting an [Awaitable] via [Co.Await]. A [Reactor]
// parks suspended tasks, and flags them as resumable once their wait is
// satisfied; it never runs task code itself. Resuming tasks is the job of
// a driver, typically a loop polling [Task.Resumable] and calling
// [Task.Resume]:
//
//	for !t.Done() {
//	    if t.Resumable() {
//	        _ = t.Resume()
//	    }
//	}
//
// The awaitables are:
//   - [Reactor.SleepFor] and [Reactor.SleepUntil]: resumable once the
//     monotonic clock reaches the deadline
//   - [AsyncFd.WaitRead] and [AsyncFd.WaitWrite]: resumable once the
//     descriptor reports readiness in that direction
//
// # Platform Support
//
// The multiplexer is epoll, with an eventfd wake channel. On other
// platforms [New] returns [ErrUnsupportedPlatform].
//
// # Thread Safety
//
// The reactor is designed for concurrent access:
//   - Parking and waking tasks is safe from any goroutine
//   - [Reactor.Register] and [Reactor.Deregister] are thread-safe
//   - Calls to [Task.Resume] and [Task.Close] on one task must be serialized
//     by the caller
//
// Readiness permits and the parked waiter of each [AsyncFd] direction are
// atomics, so a notification racing a task's suspension is never lost.
//
// # Usage
//
//	r, err := reactor.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go r.Run(context.Background())
//	defer r.Close()
//
//	t := reactor.Spawn(func(co *reactor.Co) error {
//	    co.Await(r.SleepFor(100 * time.Millisecond))
//	    fmt.Println("Hello after 100ms")
//	    return nil
//	})
//
//	for !t.Done() {
//	    if t.Resumable() {
//	        _ = t.Resume()
//	    }
//	}
//
// # Error Types
//
// Task bodies report failure by returning an error. Panics are recovered
// as [PanicError]. Either is available from [Task.Err], and never reaches
// the driver.
package reactor
