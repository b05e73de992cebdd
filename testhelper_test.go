package reactor

import (
	"context"
	"errors"
	"testing"
	"time"
)

// startReactor creates a reactor and runs it on a new goroutine, closing it
// and waiting for the loop to exit on cleanup. It skips the test where the
// platform has no multiplexer.
func startReactor(t *testing.T, opts ...Option) *Reactor {
	t.Helper()
	r, err := New(opts...)
	if errors.Is(err, ErrUnsupportedPlatform) {
		t.Skip("reactor not supported on this platform")
	}
	if err != nil {
		t.Fatalf("failed to create reactor: %v", err)
	}
	runErr := make(chan error, 1)
	go func() {
		runErr <- r.Run(context.Background())
	}()
	waitReactorState(t, r, StateSleeping, time.Second)
	t.Cleanup(func() {
		_ = r.Close()
		select {
		case err := <-runErr:
			if err != nil {
				t.Errorf("Run returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("reactor did not exit")
		}
	})
	return r
}

// waitReactorState waits for a reactor to reach a specific state within a timeout.
func waitReactorState(t *testing.T, r *Reactor, expected ReactorState, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for r.State() != expected && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if state := r.State(); state != expected {
		t.Fatalf("Reactor failed to reach %v state (got %v)", expected, state)
	}
}

// driveTasks resumes the tasks until all are done, failing the test if that
// takes longer than timeout. It returns the number of resumptions per task.
func driveTasks(t *testing.T, timeout time.Duration, tasks ...*Task) []int {
	t.Helper()
	resumes := make([]int, len(tasks))
	deadline := time.Now().Add(timeout)
	for {
		done := true
		for i, task := range tasks {
			if task.Done() {
				continue
			}
			done = false
			if task.Resumable() {
				if err := task.Resume(); err != nil {
					t.Fatalf("task %d: resume failed: %v", i, err)
				}
				resumes[i]++
			}
		}
		if done {
			return resumes
		}
		if time.Now().After(deadline) {
			t.Fatalf("tasks not done after %v", timeout)
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// manualAwaitable is an Awaitable controlled by the test.
type manualAwaitable struct {
	parkErr   error
	parked    *Task
	isReady   bool
	unparked  int
	completed int
}

func (a *manualAwaitable) ready() bool { return a.isReady }

func (a *manualAwaitable) park(t *Task) error {
	if a.parkErr != nil {
		return a.parkErr
	}
	a.parked = t
	return nil
}

func (a *manualAwaitable) unpark(t *Task) {
	if a.parked == t {
		a.parked = nil
		a.unparked++
	}
}

func (a *manualAwaitable) complete() { a.completed++ }

// fire satisfies the wait, flagging the parked task.
func (a *manualAwaitable) fire() {
	a.isReady = true
	if t := a.parked; t != nil {
		a.parked = nil
		t.wake()
	}
}
