package reactor

import (
	"github.com/joeycumines/logiface"
)

// Log categories, attached to every event as the "category" field.
const (
	logCategoryLoop     = "loop"
	logCategoryPoll     = "poll"
	logCategoryRegistry = "registry"
)

// logBuilder starts a log event for the reactor, tagged with its id and
// the category. The result is nil (and so a no-op) when logging is
// disabled or the level is filtered.
func (r *Reactor) logBuilder(level logiface.Level, category string) *logiface.Builder[logiface.Event] {
	return r.logger.Build(level).
		Uint64("reactor", r.id).
		Str("category", category)
}

func (r *Reactor) logDebug(category string) *logiface.Builder[logiface.Event] {
	return r.logBuilder(logiface.LevelDebug, category)
}

func (r *Reactor) logInfo(category string) *logiface.Builder[logiface.Event] {
	return r.logBuilder(logiface.LevelInformational, category)
}

func (r *Reactor) logWarning(category string) *logiface.Builder[logiface.Event] {
	return r.logBuilder(logiface.LevelWarning, category)
}

func (r *Reactor) logError(category string) *logiface.Builder[logiface.Event] {
	return r.logBuilder(logiface.LevelError, category)
}

// logStaleEvent reports an event for a descriptor that no longer matches a
// live registration, rate limited per descriptor.
func (r *Reactor) logStaleEvent(fd int, seq int32, events IOEvents) {
	if _, ok := r.staleLimiter.Allow(fd); !ok {
		return
	}
	r.logWarning(logCategoryPoll).
		Int("fd", fd).
		Int64("seq", int64(seq)).
		Stringer("events", events).
		Log("dropped event for stale registration")
}
