package reactor

import (
	"sync/atomic"
)

// ReactorState represents the current state of a [Reactor].
//
// State Machine:
//
//	StateAwake → StateRunning                [Run()]
//	StateRunning → StateSleeping             [poll via CAS]
//	StateSleeping → StateRunning             [poll return via CAS]
//	StateAwake → StateTerminated             [Close() before Run()]
//	StateRunning/StateSleeping → StateTerminating [Close() or ctx done]
//	StateTerminating → StateTerminated       [loop exit]
//	StateTerminated → (terminal)
//
// Use TryTransition (CAS) for the temporary states, Store for StateTerminated.
type ReactorState uint64

const (
	// StateAwake indicates the reactor has been created but not started.
	StateAwake ReactorState = iota
	// StateRunning indicates the loop is dispatching events or timers.
	StateRunning
	// StateSleeping indicates the loop is blocked in the multiplexer.
	StateSleeping
	// StateTerminating indicates shutdown has been requested but the loop has not yet exited.
	StateTerminating
	// StateTerminated indicates the reactor has released its resources.
	StateTerminated
)

// String returns a human-readable representation of the state.
func (s ReactorState) String() string {
	switch s {
	case StateAwake:
		return "Awake"
	case StateRunning:
		return "Running"
	case StateSleeping:
		return "Sleeping"
	case StateTerminating:
		return "Terminating"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// fastState is a lock-free state cell with cache-line padding.
type fastState struct { // betteralign:ignore
	_ [64]byte      // Cache line padding //nolint:unused
	v atomic.Uint64 // State value
	_ [56]byte      // Pad to complete cache line //nolint:unused
}

func (s *fastState) Load() ReactorState {
	return ReactorState(s.v.Load())
}

// Store atomically stores a new state, without transition validation.
func (s *fastState) Store(state ReactorState) {
	s.v.Store(uint64(state))
}

// TryTransition attempts to atomically transition from one state to another.
func (s *fastState) TryTransition(from, to ReactorState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// IsClosing reports whether shutdown has started or completed.
func (s *fastState) IsClosing() bool {
	state := s.Load()
	return state == StateTerminating || state == StateTerminated
}
