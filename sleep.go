package reactor

import (
	"time"
)

// Sleep is the awaitable returned by [Reactor.SleepFor] and
// [Reactor.SleepUntil]. It is satisfied once the monotonic clock reaches
// its deadline.
//
// A Sleep is meant to be awaited once, by a single task.
type Sleep struct {
	reactor *Reactor
	entry   *timerEntry
	until   time.Time
}

// SleepFor returns an awaitable that resumes the awaiting task no earlier
// than d after the time of this call. Negative durations are treated as 0.
func (r *Reactor) SleepFor(d time.Duration) *Sleep {
	if d < 0 {
		d = 0
	}
	return r.SleepUntil(time.Now().Add(d))
}

// SleepUntil returns an awaitable that resumes the awaiting task no earlier
// than until. Deadlines should carry a monotonic reading (e.g. derived from
// time.Now), or the wait is subject to wall clock adjustments.
func (r *Reactor) SleepUntil(until time.Time) *Sleep {
	return &Sleep{reactor: r, until: until}
}

// Deadline returns the time the sleep resolves at.
func (s *Sleep) Deadline() time.Time {
	return s.until
}

func (s *Sleep) ready() bool {
	return !time.Now().Before(s.until)
}

// park queues the task and wakes the loop unconditionally so it can
// recompute its timeout, even if this entry is not the earliest. The wake
// happens under the queue lock, which shutdown takes before closing the
// wake channel.
func (s *Sleep) park(t *Task) error {
	r := s.reactor
	if r.state.IsClosing() {
		return ErrReactorTerminated
	}
	e := r.timers.push(s.until, t, r.wake)
	if e == nil {
		return ErrReactorTerminated
	}
	s.entry = e
	return nil
}

func (s *Sleep) unpark(*Task) {
	if s.entry != nil {
		s.reactor.timers.remove(s.entry)
		s.entry = nil
	}
}

func (s *Sleep) complete() {
	s.entry = nil
}
