package reactor

// Registration binds an AsyncFd to a Reactor's multiplexer. Release it with
// Close (or [Reactor.Deregister]) before closing the descriptor.
type Registration struct {
	reactor *Reactor
	entry   *registryEntry
}

// AsyncFd returns the registered descriptor wrapper.
func (g *Registration) AsyncFd() *AsyncFd {
	return g.entry.afd
}

// Close deregisters the descriptor. It is idempotent and always returns nil.
func (g *Registration) Close() error {
	g.reactor.Deregister(g)
	return nil
}

// Register adds f to the reactor's multiplexer, interested in both
// directions, edge triggered. On failure nothing remains registered.
func (r *Reactor) Register(f *AsyncFd) (*Registration, error) {
	if r.state.IsClosing() {
		return nil, ErrReactorTerminated
	}
	if f.closed.Load() {
		return nil, ErrAsyncFdClosed
	}
	fd := f.Fd()
	if fd < 0 || fd >= maxFDLimit {
		return nil, ErrFDOutOfRange
	}

	entry, err := r.registry.insert(fd, entryDescriptor, f)
	if err != nil {
		return nil, err
	}

	if err := r.poller.add(fd, entry.seq); err != nil {
		r.registry.remove(entry) // Rollback
		r.logDebug(logCategoryRegistry).
			Int("fd", fd).
			Err(err).
			Log("register failed")
		return nil, err
	}

	r.logDebug(logCategoryRegistry).
		Int("fd", fd).
		Int64("seq", int64(entry.seq)).
		Log("registered fd")

	return &Registration{reactor: r, entry: entry}, nil
}

// Deregister removes a registration. Deregistering twice, or a registration
// belonging to another reactor, is a no-op. A failure to remove the
// descriptor from the multiplexer is logged, not reported.
func (r *Reactor) Deregister(reg *Registration) {
	if reg == nil || reg.reactor != r {
		return
	}
	if !r.registry.remove(reg.entry) {
		return
	}
	if err := r.poller.del(reg.entry.fd); err != nil {
		r.logWarning(logCategoryRegistry).
			Int("fd", reg.entry.fd).
			Err(err).
			Log("deregister failed")
		return
	}
	r.logDebug(logCategoryRegistry).
		Int("fd", reg.entry.fd).
		Log("deregistered fd")
}

// RegisteredAsyncFd is an AsyncFd registered with a reactor for its whole
// lifetime: Close deregisters, then closes the descriptor.
//
//	rfd, err := reactor.NewRegisteredAsyncFd(r, fd)
//	if err != nil {
//	    return err
//	}
//	defer rfd.Close()
type RegisteredAsyncFd struct {
	fd  *AsyncFd
	reg *Registration
}

// NewRegisteredAsyncFd takes ownership of fd and registers it with r. If
// registration fails, fd is closed and the error returned.
func NewRegisteredAsyncFd(r *Reactor, fd int) (*RegisteredAsyncFd, error) {
	f := NewAsyncFd(fd)
	reg, err := r.Register(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &RegisteredAsyncFd{fd: f, reg: reg}, nil
}

// AsyncFd returns the descriptor wrapper, for WaitRead and WaitWrite.
func (x *RegisteredAsyncFd) AsyncFd() *AsyncFd {
	return x.fd
}

// Registration returns the underlying registration.
func (x *RegisteredAsyncFd) Registration() *Registration {
	return x.reg
}

// Close deregisters and closes the descriptor.
func (x *RegisteredAsyncFd) Close() error {
	_ = x.reg.Close()
	return x.fd.Close()
}
