//go:build linux

package reactor

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// poller wraps an epoll instance.
//
// Registrations carry a sequence number in the event's user data, so the
// loop can tell events for the live registration of a descriptor from
// events queued for a previous registration of the same number.
type poller struct { // betteralign:ignore
	eventBuf [maxEvents]unix.EpollEvent
	// Held for reading by epoll_ctl callers, so epfd cannot be closed (and
	// its number reused) underneath them
	mu     sync.RWMutex
	epfd   int
	closed atomic.Bool
}

// init creates the epoll instance.
func (p *poller) init() error {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return wrapSyscallError("epoll_create1", err)
	}
	p.epfd = epfd
	return nil
}

// close closes the epoll instance.
func (p *poller) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return unix.Close(p.epfd)
}

// addWake registers the wake channel, level triggered, read only.
func (p *poller) addWake(fd int, seq int32) error {
	ev := unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(fd),
		Pad:    seq,
	}
	return wrapSyscallError("epoll_ctl add", unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev))
}

// add registers a descriptor for both directions, edge triggered.
func (p *poller) add(fd int, seq int32) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return ErrReactorTerminated
	}
	ev := unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLOUT | unix.EPOLLRDHUP | unix.EPOLLET,
		Fd:     int32(fd),
		Pad:    seq,
	}
	return wrapSyscallError("epoll_ctl add", unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev))
}

// del removes a descriptor.
func (p *poller) del(fd int) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return nil
	}
	return wrapSyscallError("epoll_ctl del", unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil))
}

// wait blocks for up to timeoutMs (-1 blocks indefinitely) and passes each
// triggered event to fn. EINTR is reported as zero events.
func (p *poller) wait(timeoutMs int, fn func(fd int, seq int32, events IOEvents)) (int, error) {
	if p.closed.Load() {
		return 0, ErrReactorTerminated
	}

	n, err := unix.EpollWait(p.epfd, p.eventBuf[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, wrapSyscallError("epoll_wait", err)
	}

	for i := 0; i < n; i++ {
		ev := &p.eventBuf[i]
		fn(int(ev.Fd), ev.Pad, epollToEvents(ev.Events))
	}

	return n, nil
}

// epollToEvents converts epoll event flags to IOEvents.
func epollToEvents(epollEvents uint32) IOEvents {
	var events IOEvents
	if epollEvents&unix.EPOLLIN != 0 {
		events |= EventRead
	}
	if epollEvents&unix.EPOLLOUT != 0 {
		events |= EventWrite
	}
	if epollEvents&unix.EPOLLERR != 0 {
		events |= EventError
	}
	if epollEvents&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		events |= EventHangup
	}
	return events
}
