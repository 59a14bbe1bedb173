package recurrence

import (
	"context"
	"log/slog"
	"time"
)

// TraceKind identifies an expansion event.
type TraceKind string

const (
	TraceEmit               TraceKind = "emit"
	TraceOutOfRange         TraceKind = "out_of_range"
	TraceWeeklyFallback     TraceKind = "weekly_fallback"
	TraceMissingWeekSkipped TraceKind = "missing_week_skipped"
	TraceMissingWeekStopped TraceKind = "missing_week_stopped"
	TraceHorizonReached     TraceKind = "horizon_reached"
	TraceCapReached         TraceKind = "cap_reached"
	TraceStepLimit          TraceKind = "step_limit"
	TraceCacheHit           TraceKind = "cache_hit"
	TraceCacheMiss          TraceKind = "cache_miss"
)

// TraceEvent describes one step of an expansion.
type TraceEvent struct {
	Kind    TraceKind
	Rule    Kind
	At      time.Time // candidate instant the event refers to, if any
	Steps   int       // step calls made so far
	Emitted int       // occurrences emitted so far
	Err     error
}

// TraceFunc receives expansion events. It must not retain the engine's slices.
type TraceFunc func(TraceEvent)

// SlogTrace adapts a structured logger into a TraceFunc. Emit and out-of-range events
// are logged at debug level, degradations at warn, the rest at info.
func SlogTrace(logger *slog.Logger) TraceFunc {
	if logger == nil {
		return nil
	}
	return func(ev TraceEvent) {
		level := slog.LevelInfo
		switch ev.Kind {
		case TraceEmit, TraceOutOfRange, TraceCacheHit, TraceCacheMiss:
			level = slog.LevelDebug
		case TraceWeeklyFallback, TraceMissingWeekSkipped, TraceMissingWeekStopped, TraceStepLimit:
			level = slog.LevelWarn
		}
		attrs := []slog.Attr{
			slog.String("rule", ev.Rule.String()),
			slog.Int("steps", ev.Steps),
			slog.Int("emitted", ev.Emitted),
		}
		if !ev.At.IsZero() {
			attrs = append(attrs, slog.Time("at", ev.At))
		}
		if ev.Err != nil {
			attrs = append(attrs, slog.String("error", ev.Err.Error()))
		}
		logger.LogAttrs(context.Background(), level, "recurrence "+string(ev.Kind), attrs...)
	}
}

// chain combines trace functions, skipping nils.
func chain(fns ...TraceFunc) TraceFunc {
	var live []TraceFunc
	for _, fn := range fns {
		if fn != nil {
			live = append(live, fn)
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}
	return func(ev TraceEvent) {
		for _, fn := range live {
			fn(ev)
		}
	}
}
