package reactor

import (
	"container/heap"
	"sync"
	"time"
)

// timerEntry is a parked sleeper. index is the position in the heap, or -1
// once the entry has been popped or removed.
type timerEntry struct {
	when  time.Time
	task  *Task
	index int
}

// timerHeap is a min-heap of timer entries, earliest first.
type timerHeap []*timerEntry

// Implement heap.Interface for timerHeap
func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].when.Before(h[j].when) }

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// timerQueue is the sleep queue shared between the loop goroutine and
// any goroutine parking a sleeping task.
type timerQueue struct {
	h      timerHeap
	mu     sync.Mutex
	closed bool
}

// push adds a sleeper, returning the entry for later removal, or nil if the
// queue has been closed by drainAll. If non-nil, queued is called under the
// lock once the entry is in the heap, i.e. strictly before any drainAll.
func (q *timerQueue) push(when time.Time, t *Task, queued func()) *timerEntry {
	e := &timerEntry{when: when, task: t}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	heap.Push(&q.h, e)
	if queued != nil {
		queued()
	}
	return e
}

// remove deletes an entry that has not fired yet. It reports whether the
// entry was still queued.
func (q *timerQueue) remove(e *timerEntry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e.index < 0 || e.index >= len(q.h) || q.h[e.index] != e {
		return false
	}
	heap.Remove(&q.h, e.index)
	return true
}

// popDue pops every entry due at or before now, in non-decreasing wake time
// order, passing each to fn outside the lock. It returns the delay until the
// earliest remaining entry, with ok false if the queue is empty.
func (q *timerQueue) popDue(now time.Time, fn func(*timerEntry)) (next time.Duration, ok bool) {
	for {
		q.mu.Lock()
		if len(q.h) == 0 {
			q.mu.Unlock()
			return 0, false
		}
		head := q.h[0]
		if head.when.After(now) {
			q.mu.Unlock()
			return head.when.Sub(now), true
		}
		heap.Pop(&q.h)
		q.mu.Unlock()
		fn(head)
	}
}

// drainAll closes the queue, then removes every entry, passing each to fn
// outside the lock.
func (q *timerQueue) drainAll(fn func(*timerEntry)) {
	q.mu.Lock()
	q.closed = true
	entries := q.h
	q.h = nil
	for _, e := range entries {
		e.index = -1
	}
	q.mu.Unlock()
	for _, e := range entries {
		fn(e)
	}
}

// Len returns the number of queued sleepers.
func (q *timerQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.h)
}
