// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package reactor

import (
	"fmt"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// reactorOptions holds configuration options for Reactor creation.
type reactorOptions struct {
	logger       *logiface.Logger[logiface.Event]
	staleLimiter *catrate.Limiter
	lockOSThread bool
	metrics      bool
}

// newMetrics returns the counters for a new reactor, or nil if disabled.
func (o *reactorOptions) newMetrics() *metricsCounters {
	if !o.metrics {
		return nil
	}
	return new(metricsCounters)
}

// --- Reactor Options ---

// Option configures a Reactor instance.
type Option interface {
	applyReactor(*reactorOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyReactorFunc func(*reactorOptions) error
}

func (o *optionImpl) applyReactor(opts *reactorOptions) error {
	return o.applyReactorFunc(opts)
}

// WithLogger attaches a structured logger to the reactor. A nil logger
// disables logging, which is also the default.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *reactorOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithLockOSThread sets whether Run pins the loop goroutine to its OS
// thread for the duration of the loop. Enabled by default.
func WithLockOSThread(enabled bool) Option {
	return &optionImpl{func(opts *reactorOptions) error {
		opts.lockOSThread = enabled
		return nil
	}}
}

// WithMetrics enables the counters reported by [Reactor.Metrics].
// Disabled by default.
func WithMetrics(enabled bool) Option {
	return &optionImpl{func(opts *reactorOptions) error {
		opts.metrics = enabled
		return nil
	}}
}

// WithStaleEventRate configures how often the warning for events delivered
// to a no-longer-registered descriptor may be logged, per descriptor.
// The rates follow catrate semantics, e.g. {time.Second: 1, time.Minute: 10}.
// An empty map disables rate limiting.
func WithStaleEventRate(rates map[time.Duration]int) Option {
	return &optionImpl{func(opts *reactorOptions) error {
		if len(rates) == 0 {
			opts.staleLimiter = nil
			return nil
		}
		limiter, err := newLimiter(rates)
		if err != nil {
			return err
		}
		opts.staleLimiter = limiter
		return nil
	}}
}

// newLimiter converts catrate's panic on invalid rates into an error.
func newLimiter(rates map[time.Duration]int) (limiter *catrate.Limiter, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reactor: invalid stale event rate: %v", r)
		}
	}()
	return catrate.NewLimiter(rates), nil
}

// resolveOptions applies Option instances to reactorOptions.
func resolveOptions(opts []Option) (*reactorOptions, error) {
	cfg := &reactorOptions{
		lockOSThread: true,
		staleLimiter: catrate.NewLimiter(map[time.Duration]int{
			time.Second: 1,
			time.Minute: 10,
		}),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyReactor(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
