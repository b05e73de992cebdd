package reactor

import (
	"sync"
)

// entryKind tags a registry entry with how the loop dispatches its events.
type entryKind uint8

const (
	// entryWake is the reactor's own wake channel.
	entryWake entryKind = iota
	// entryDescriptor is a registered AsyncFd.
	entryDescriptor
)

// registryEntry is heap allocated and never moves while registered. The
// seq is carried through the multiplexer as event user data.
type registryEntry struct {
	afd  *AsyncFd
	fd   int
	seq  int32
	kind entryKind
}

// registry maps descriptor numbers to their live registration.
type registry struct {
	entries map[int]*registryEntry
	mu      sync.RWMutex
	nextSeq int32
	closed  bool
}

func newRegistry() *registry {
	return &registry{
		entries: make(map[int]*registryEntry),
	}
}

// insert adds an entry for fd, failing if fd is already registered.
func (r *registry) insert(fd int, kind entryKind, afd *AsyncFd) (*registryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrReactorTerminated
	}
	if _, ok := r.entries[fd]; ok {
		return nil, ErrFDAlreadyRegistered
	}

	r.nextSeq++
	if r.nextSeq <= 0 {
		// 0 is never issued, so a zeroed event never matches
		r.nextSeq = 1
	}

	e := &registryEntry{
		afd:  afd,
		fd:   fd,
		seq:  r.nextSeq,
		kind: kind,
	}
	r.entries[fd] = e
	return e, nil
}

// remove deletes e, if it is still the live entry for its descriptor. It
// reports whether anything was removed, which makes removal idempotent.
func (r *registry) remove(e *registryEntry) bool {
	if e == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.entries[e.fd]; !ok || cur != e {
		return false
	}
	delete(r.entries, e.fd)
	return true
}

// lookup returns the live entry for fd if its sequence matches seq.
func (r *registry) lookup(fd int, seq int32) (*registryEntry, bool) {
	r.mu.RLock()
	e, ok := r.entries[fd]
	r.mu.RUnlock()
	if !ok || e.seq != seq {
		return nil, false
	}
	return e, true
}

// drain removes every entry and rejects later inserts.
func (r *registry) drain() []*registryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	entries := make([]*registryEntry, 0, len(r.entries))
	for fd, e := range r.entries {
		entries = append(entries, e)
		delete(r.entries, fd)
	}
	return entries
}

// Len returns the number of live entries, including the wake channel.
func (r *registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
