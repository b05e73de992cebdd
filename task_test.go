package reactor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawn_CompletesWithoutSuspending(t *testing.T) {
	ran := false
	task := Spawn(func(co *Co) error {
		ran = true
		return nil
	})

	assert.True(t, ran, "body must run synchronously within Spawn")
	assert.True(t, task.Done())
	assert.Equal(t, TaskDone, task.State())
	assert.False(t, task.Resumable())
	assert.NoError(t, task.Err())
	assert.ErrorIs(t, task.Resume(), ErrTaskDone)
}

func TestSpawn_UniqueIDs(t *testing.T) {
	a := Spawn(func(*Co) error { return nil })
	b := Spawn(func(*Co) error { return nil })
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestCoAwait_ReadySkipsSuspension(t *testing.T) {
	a := &manualAwaitable{isReady: true}
	task := Spawn(func(co *Co) error {
		co.Await(a)
		return nil
	})

	assert.True(t, task.Done())
	assert.Nil(t, a.parked, "ready awaitable must not be parked")
	assert.Equal(t, 1, a.completed)
}

func TestTask_SuspendAndResume(t *testing.T) {
	a := &manualAwaitable{}
	var steps []string
	task := Spawn(func(co *Co) error {
		steps = append(steps, "before")
		co.Await(a)
		steps = append(steps, "after")
		return nil
	})

	require.Equal(t, TaskSuspended, task.State())
	assert.Same(t, task, a.parked)
	assert.False(t, task.Resumable())
	assert.Equal(t, []string{"before"}, steps)

	assert.ErrorIs(t, task.Resume(), ErrTaskNotResumable)
	assert.Equal(t, []string{"before"}, steps)

	a.fire()
	require.True(t, task.Resumable())
	require.NoError(t, task.Resume())

	assert.Equal(t, []string{"before", "after"}, steps)
	assert.Equal(t, TaskDone, task.State())
	assert.Equal(t, 1, a.completed)
	assert.False(t, task.Resumable())
}

func TestTask_ResumableClearedOnNextAwait(t *testing.T) {
	first := &manualAwaitable{}
	second := &manualAwaitable{}
	task := Spawn(func(co *Co) error {
		co.Await(first)
		co.Await(second)
		return nil
	})

	first.fire()
	require.NoError(t, task.Resume())

	assert.Equal(t, TaskSuspended, task.State())
	assert.False(t, task.Resumable(), "wake of the first suspension leaked into the second")
	assert.Same(t, task, second.parked)

	second.fire()
	require.NoError(t, task.Resume())
	assert.True(t, task.Done())
}

func TestTask_NotResumableWhileRunning(t *testing.T) {
	a := &manualAwaitable{}
	var observed []bool
	task := Spawn(func(co *Co) error {
		observed = append(observed, co.Task().Resumable())
		co.Await(a)
		observed = append(observed, co.Task().Resumable(), co.Task().State() == TaskRunning)
		return nil
	})

	a.fire()
	require.True(t, task.Resumable())
	require.NoError(t, task.Resume())

	assert.Equal(t, []bool{false, false, true}, observed, "body must not observe itself as resumable")
	assert.True(t, task.Done())
}

func TestTask_ReturnedError(t *testing.T) {
	errBoom := errors.New("boom")
	a := &manualAwaitable{}
	task := Spawn(func(co *Co) error {
		co.Await(a)
		return errBoom
	})
	assert.NoError(t, task.Err(), "no error while suspended")

	a.fire()
	require.NoError(t, task.Resume())

	assert.Equal(t, TaskFailed, task.State())
	assert.True(t, task.Done())
	assert.ErrorIs(t, task.Err(), errBoom)
}

func TestTask_PanicIsContained(t *testing.T) {
	task := Spawn(func(co *Co) error {
		panic("test panic")
	})

	require.Equal(t, TaskFailed, task.State())
	var pe PanicError
	require.ErrorAs(t, task.Err(), &pe)
	assert.Equal(t, "test panic", pe.Value)
	assert.Nil(t, pe.Unwrap())
}

func TestTask_PanicWithErrorUnwraps(t *testing.T) {
	errBoom := errors.New("boom")
	a := &manualAwaitable{}
	task := Spawn(func(co *Co) error {
		co.Await(a)
		panic(errBoom)
	})

	a.fire()
	require.NoError(t, task.Resume(), "panics must not escape Resume")
	assert.ErrorIs(t, task.Err(), errBoom)
}

func TestTask_ParkFailure(t *testing.T) {
	errPark := errors.New("park failed")
	a := &manualAwaitable{parkErr: errPark}
	deferred := false
	reached := false
	task := Spawn(func(co *Co) error {
		defer func() { deferred = true }()
		co.Await(a)
		reached = true
		return nil
	})

	require.True(t, task.Resumable(), "park failure must make the task resumable")
	require.NoError(t, task.Resume())

	assert.False(t, reached)
	assert.True(t, deferred)
	assert.Equal(t, TaskFailed, task.State())
	assert.ErrorIs(t, task.Err(), errPark)
	assert.Zero(t, a.completed)
}

func TestTask_CloseWhileParked(t *testing.T) {
	a := &manualAwaitable{}
	deferred := false
	task := Spawn(func(co *Co) error {
		defer func() { deferred = true }()
		co.Await(a)
		t.Error("body continued after Close")
		return nil
	})

	require.NoError(t, task.Close())

	assert.True(t, deferred, "deferred calls must run on Close")
	assert.Equal(t, 1, a.unparked)
	assert.Nil(t, a.parked)
	assert.Equal(t, TaskFailed, task.State())
	assert.ErrorIs(t, task.Err(), ErrTaskClosed)
	assert.False(t, task.Resumable())

	assert.NoError(t, task.Close(), "Close must be idempotent")
	assert.ErrorIs(t, task.Resume(), ErrTaskDone)
}

func TestTask_CloseAfterDone(t *testing.T) {
	task := Spawn(func(*Co) error { return nil })
	require.NoError(t, task.Close())
	assert.Equal(t, TaskDone, task.State())
	assert.NoError(t, task.Err())
}

func TestTask_ResumeFromAnotherGoroutine(t *testing.T) {
	a := &manualAwaitable{}
	task := Spawn(func(co *Co) error {
		co.Await(a)
		return nil
	})
	a.fire()

	done := make(chan error, 1)
	go func() {
		done <- task.Resume()
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("resume did not return")
	}
	assert.True(t, task.Done())
}

func TestTaskState_String(t *testing.T) {
	for state, want := range map[TaskState]string{
		TaskCreated:   "Created",
		TaskRunning:   "Running",
		TaskSuspended: "Suspended",
		TaskDone:      "Done",
		TaskFailed:    "Failed",
		TaskState(99): "Unknown",
	} {
		assert.Equal(t, want, state.String())
	}
}
