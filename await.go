package reactor

// Awaitable is a wait condition that a task can suspend on via [Co.Await].
//
// The implementations are provided by this package: [Reactor.SleepFor],
// [Reactor.SleepUntil], [AsyncFd.WaitRead] and [AsyncFd.WaitWrite].
//
// The methods split a wait into the same steps as the task state machine:
//   - ready is evaluated on the task's coroutine, before suspending
//   - park registers the suspended task with the waiting mechanism, and is
//     called by the driver after the coroutine has yielded
//   - unpark removes a parked task, used by Task.Close
//   - complete is evaluated on the task's coroutine, after resumption
type Awaitable interface {
	ready() bool
	park(t *Task) error
	unpark(t *Task)
	complete()
}

// awaitFailure carries a park error back onto the task's coroutine, where
// the task boundary converts it into the task's terminal error.
type awaitFailure struct {
	err error
}

// closeSignal unwinds a task's coroutine on Task.Close.
type closeSignal struct{}
