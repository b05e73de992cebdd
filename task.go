// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package reactor

import (
	"iter"
	"sync/atomic"
)

// TaskState represents the lifecycle state of a [Task].
//
// State Machine:
//
//	TaskCreated → TaskRunning               [Spawn]
//	TaskRunning → TaskSuspended             [Co.Await, condition not ready]
//	TaskSuspended → TaskRunning             [Task.Resume]
//	TaskRunning → TaskDone | TaskFailed     [body returns]
//	TaskSuspended → TaskFailed              [Task.Close]
//
// TaskDone and TaskFailed are terminal.
type TaskState uint32

const (
	TaskCreated TaskState = iota
	TaskRunning
	TaskSuspended
	TaskDone
	TaskFailed
)

// String returns a human-readable representation of the state.
func (s TaskState) String() string {
	switch s {
	case TaskCreated:
		return "Created"
	case TaskRunning:
		return "Running"
	case TaskSuspended:
		return "Suspended"
	case TaskDone:
		return "Done"
	case TaskFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Func is the body of an async function, run by [Spawn].
//
// The body suspends only via co.Await. Returning a non-nil error, or
// panicking, ends the task in [TaskFailed], with the cause available from
// [Task.Err].
type Func func(co *Co) error

// Co is the handle a task body uses to suspend itself.
// It must only be used from within the body it was passed to.
type Co struct {
	task  *Task
	yield func(Awaitable) bool
}

// Task wraps one suspendable computation, driven externally.
//
// The driver polls [Task.Resumable] and calls [Task.Resume] once the wake
// condition of the current suspension has been satisfied. Calls to Resume
// (and Close) on a single Task must be serialized by the caller; they may
// come from any goroutine. Done and Resumable are safe for concurrent use.
type Task struct {
	next    func() (Awaitable, bool)
	stop    func()
	pending Awaitable
	err     error

	failure   atomic.Pointer[error]
	id        uint64
	state     atomic.Uint32
	resumable atomic.Bool
}

var taskIDCounter atomic.Uint64

// Spawn starts fn on a new task. fn runs on the calling goroutine's behalf
// until its first suspension (or completion) before Spawn returns.
func Spawn(fn Func) *Task {
	t := &Task{id: taskIDCounter.Add(1)}
	co := &Co{task: t}
	t.next, t.stop = iter.Pull(func(yield func(Awaitable) bool) {
		co.yield = yield
		t.err = t.call(fn, co)
	})
	t.state.Store(uint32(TaskRunning))
	t.step()
	return t
}

// ID returns the process-unique identifier of the task.
func (t *Task) ID() uint64 {
	return t.id
}

// State returns the current lifecycle state.
func (t *Task) State() TaskState {
	return TaskState(t.state.Load())
}

// Done reports whether the task has reached a terminal state.
func (t *Task) Done() bool {
	state := t.State()
	return state == TaskDone || state == TaskFailed
}

// Resumable reports whether the task is suspended and its wake condition
// has been satisfied.
func (t *Task) Resumable() bool {
	return t.resumable.Load()
}

// Err returns the terminal error of a failed task. It returns nil while the
// task is still running or suspended, and for tasks that completed normally.
func (t *Task) Err() error {
	if t.State() != TaskFailed {
		return nil
	}
	return t.err
}

// Resume continues the task until its next suspension or completion.
//
// It returns ErrTaskDone if the task already finished, or
// ErrTaskNotResumable if the current wake condition has not fired yet.
// Faults inside the body never propagate out of Resume.
func (t *Task) Resume() error {
	if t.Done() {
		return ErrTaskDone
	}
	if t.State() != TaskSuspended || !t.resumable.Load() {
		return ErrTaskNotResumable
	}
	t.pending = nil
	t.resumable.Store(false)
	t.state.Store(uint32(TaskRunning))
	t.step()
	return nil
}

// Close releases the task. A parked task is first removed from the timer
// queue or descriptor slot it is waiting in, then its body is unwound
// (deferred calls run) and the task fails with ErrTaskClosed.
// Close on a finished task is a no-op.
func (t *Task) Close() error {
	if t.Done() {
		return nil
	}
	if t.pending != nil {
		t.pending.unpark(t)
		t.pending = nil
	}
	t.stop()
	if t.err == nil {
		t.err = ErrTaskClosed
	}
	t.finish()
	return nil
}

// step runs the coroutine to its next yield and parks it on the yielded
// awaitable, or records completion.
func (t *Task) step() {
	a, ok := t.next()
	if !ok {
		t.finish()
		return
	}
	t.pending = a
	t.state.Store(uint32(TaskSuspended))
	if err := a.park(t); err != nil {
		t.pending = nil
		t.fail(err)
	}
}

// fail records a wait failure and makes the task resumable, so the failure
// is raised on the task's coroutine at its suspension point. Safe to call
// from the loop goroutine.
func (t *Task) fail(err error) {
	t.failure.Store(&err)
	t.wake()
}

// wake flags the task as resumable. Called by the reactor, or by park when
// the wake condition was satisfied while registering.
func (t *Task) wake() {
	t.resumable.Store(true)
}

func (t *Task) finish() {
	t.resumable.Store(false)
	if t.err != nil {
		t.state.Store(uint32(TaskFailed))
	} else {
		t.state.Store(uint32(TaskDone))
	}
}

// call runs the body, converting panics into the task's terminal error.
func (t *Task) call(fn Func, co *Co) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case closeSignal:
				err = ErrTaskClosed
			case awaitFailure:
				err = v.err
			default:
				err = PanicError{Value: r}
			}
		}
	}()
	return fn(co)
}

// Task returns the task this handle belongs to.
func (co *Co) Task() *Task {
	return co.task
}

// Await suspends the task until a is satisfied. If a is already satisfied,
// Await returns without suspending.
//
// The resumable flag is cleared on every call, so a wake from a previous
// suspension never leaks into this one.
func (co *Co) Await(a Awaitable) {
	t := co.task
	t.resumable.Store(false)
	if a.ready() {
		a.complete()
		return
	}
	if !co.yield(a) {
		panic(closeSignal{})
	}
	if err := t.failure.Swap(nil); err != nil {
		panic(awaitFailure{err: *err})
	}
	a.complete()
}
