package reactor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBufferLogger returns a JSON logger writing to buf, at debug level.
func newBufferLogger(buf *bytes.Buffer) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(
			stumpy.WithWriter(buf),
			stumpy.WithTimeField(``),
		),
		stumpy.L.WithLevel(logiface.LevelDebug),
	).Logger()
}

func newTestReactor(t *testing.T, opts ...Option) *Reactor {
	t.Helper()
	r, err := New(opts...)
	if errors.Is(err, ErrUnsupportedPlatform) {
		t.Skip("reactor not supported on this platform")
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestResolveOptions_Defaults(t *testing.T) {
	cfg, err := resolveOptions(nil)
	require.NoError(t, err)
	assert.True(t, cfg.lockOSThread)
	assert.NotNil(t, cfg.staleLimiter)
	assert.Nil(t, cfg.logger)
}

func TestResolveOptions_SkipsNil(t *testing.T) {
	cfg, err := resolveOptions([]Option{nil, WithLockOSThread(false), nil})
	require.NoError(t, err)
	assert.False(t, cfg.lockOSThread)
}

func TestWithStaleEventRate(t *testing.T) {
	cfg, err := resolveOptions([]Option{WithStaleEventRate(nil)})
	require.NoError(t, err)
	assert.Nil(t, cfg.staleLimiter, "empty rates disable limiting")

	cfg, err = resolveOptions([]Option{WithStaleEventRate(map[time.Duration]int{time.Second: 5})})
	require.NoError(t, err)
	assert.NotNil(t, cfg.staleLimiter)
}

func TestWithStaleEventRate_Invalid(t *testing.T) {
	for name, rates := range map[string]map[time.Duration]int{
		"zero count":     {time.Second: 0},
		"negative":       {-time.Second: 1},
		"non monotonic":  {time.Second: 10, time.Minute: 5},
		"rate increases": {time.Second: 1, time.Minute: 120},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := resolveOptions([]Option{WithStaleEventRate(rates)})
			assert.ErrorContains(t, err, "invalid stale event rate")

			_, err = New(WithStaleEventRate(rates))
			assert.Error(t, err)
		})
	}
}

func TestWithLogger_LifecycleEvents(t *testing.T) {
	var buf bytes.Buffer
	r := newTestReactor(t, WithLogger(newBufferLogger(&buf)))

	runErr := make(chan error, 1)
	go func() { runErr <- r.Run(context.Background()) }()
	waitReactorState(t, r, StateSleeping, time.Second)

	require.NoError(t, r.Close())
	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("reactor did not exit")
	}
	<-r.Done()

	out := buf.String()
	assert.Contains(t, out, `"msg":"reactor started"`)
	assert.Contains(t, out, `"msg":"reactor stopped"`)
	assert.Contains(t, out, `"category":"loop"`)
	assert.Contains(t, out, `"lvl":"info"`)
}

func TestWithLogger_Nil(t *testing.T) {
	r := newTestReactor(t, WithLogger(nil))
	// logging is a no-op without a logger
	r.logStaleEvent(3, 1, EventRead)
	r.logInfo(logCategoryLoop).Log("ignored")
}

func TestLogStaleEvent_RateLimited(t *testing.T) {
	var buf bytes.Buffer
	r := newTestReactor(t, WithLogger(newBufferLogger(&buf)))

	for range 3 {
		r.dispatch(1000, 12345, EventRead)
	}

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "dropped event for stale registration"), out)
	assert.Contains(t, out, `"lvl":"warning"`)
	assert.Contains(t, out, `"events":"read"`)
}

func TestLogStaleEvent_Unlimited(t *testing.T) {
	var buf bytes.Buffer
	r := newTestReactor(t,
		WithLogger(newBufferLogger(&buf)),
		WithStaleEventRate(nil),
	)

	for range 3 {
		r.dispatch(1000, 12345, EventRead)
	}

	assert.Equal(t, 3, strings.Count(buf.String(), "dropped event for stale registration"))
}
