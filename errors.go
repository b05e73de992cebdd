package reactor

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrReactorRunning is returned when Run is called on a reactor that is already running.
	ErrReactorRunning = errors.New("reactor: reactor is already running")

	// ErrReactorTerminated is returned when operations are attempted on a closed reactor.
	ErrReactorTerminated = errors.New("reactor: reactor has been terminated")

	// ErrUnsupportedPlatform is returned by New on platforms without an epoll backend.
	ErrUnsupportedPlatform = errors.New("reactor: platform not supported")

	// ErrFDOutOfRange is returned when registering a negative or oversized descriptor.
	ErrFDOutOfRange = errors.New("reactor: fd out of range")

	// ErrFDAlreadyRegistered is returned when the descriptor already has a live registration.
	ErrFDAlreadyRegistered = errors.New("reactor: fd already registered")

	// ErrAsyncFdClosed is returned when registering an AsyncFd that has already
	// been closed, and fails tasks parked on an AsyncFd when it is closed.
	ErrAsyncFdClosed = errors.New("reactor: async fd is closed")

	// ErrWaiterBusy fails a task that attempts to wait on a descriptor
	// direction that already has a parked waiter.
	ErrWaiterBusy = errors.New("reactor: another task is already waiting on this direction")

	// ErrTaskDone is returned by Task.Resume once the task has finished.
	ErrTaskDone = errors.New("reactor: task is done")

	// ErrTaskNotResumable is returned by Task.Resume if the task's wake
	// condition has not been satisfied.
	ErrTaskNotResumable = errors.New("reactor: task is not resumable")

	// ErrTaskClosed is reported by Task.Err for tasks released via Task.Close
	// before they finished.
	ErrTaskClosed = errors.New("reactor: task was closed before completion")
)

// PanicError wraps a value recovered from a panicking task body.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e PanicError) Error() string {
	return fmt.Sprintf("reactor: task panicked: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value is an error type.
// This enables use with [errors.Is] and [errors.As] for error matching
// through the cause chain.
//
// If the panic Value is not an error (e.g., a string or other type),
// returns nil.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// wrapSyscallError annotates an OS error with the failing operation.
func wrapSyscallError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("reactor: %s: %w", op, err)
}
