package recurrence

import (
	"time"
)

// MissingWeekPolicy decides what Expand does when a week-of-month step finds no
// matching week in the target month.
type MissingWeekPolicy int

const (
	// SkipMonth drops the month and continues with the next one.
	SkipMonth MissingWeekPolicy = iota
	// StopSeries ends expansion and returns the occurrences so far together with a
	// *MissingWeekError.
	StopSeries
)

// EngineConfig holds configuration options for the recurrence engine
type EngineConfig struct {
	// Cache configuration
	CacheEnabled bool
	CacheConfig  CacheConfig

	// HorizonYears bounds expansion of rules without a RangeEnd: occurrences must
	// start before the day HorizonYears calendar years after Clock().
	HorizonYears int
	// WeeklyScanDays is how many days per interval the weekly day-of-week scan may
	// look ahead before falling back to a plain interval-weeks step.
	WeeklyScanDays int
	// MaxSteps caps the number of step calls per expansion, independent of how many
	// occurrences are emitted. Zero means unlimited.
	MaxSteps int

	MissingWeek MissingWeekPolicy

	// Clock supplies "now" for the default horizon. Nil means time.Now.
	Clock func() time.Time
	// Trace receives expansion events for every call. Per-call traces set with
	// WithTrace are invoked in addition to this one.
	Trace TraceFunc
}

// DefaultEngineConfig provides sensible defaults for production use
var DefaultEngineConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig:  DefaultCacheConfig,

	HorizonYears:   1,
	WeeklyScanDays: 7,
	MaxSteps:       1 << 20,
	MissingWeek:    SkipMonth,
}

// HighPerformanceConfig is optimized for high-traffic scenarios
var HighPerformanceConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             30 * time.Minute, // Longer cache TTL
		MaxEntries:      5000,             // More cache entries
		CleanupInterval: 10 * time.Minute, // Less frequent cleanup
	},

	HorizonYears:   1,
	WeeklyScanDays: 7,
	MaxSteps:       1 << 16,
	MissingWeek:    SkipMonth,
}

// LowMemoryConfig is optimized for memory-constrained environments
var LowMemoryConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             5 * time.Minute, // Shorter cache TTL
		MaxEntries:      100,             // Fewer cache entries
		CleanupInterval: 2 * time.Minute, // More frequent cleanup
	},

	HorizonYears:   1,
	WeeklyScanDays: 7,
	MaxSteps:       1 << 20,
	MissingWeek:    SkipMonth,
}

// DisabledCacheConfig turns off caching entirely
var DisabledCacheConfig = EngineConfig{
	CacheEnabled: false,
	CacheConfig:  CacheConfig{}, // Not used

	HorizonYears:   1,
	WeeklyScanDays: 7,
	MaxSteps:       1 << 20,
	MissingWeek:    SkipMonth,
}

// NewEngineWithConfig creates a new recurrence engine with custom configuration
func NewEngineWithConfig(config EngineConfig) *Engine {
	if config.HorizonYears < 1 {
		config.HorizonYears = 1
	}
	if config.WeeklyScanDays < 1 {
		config.WeeklyScanDays = 7
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	var cache *RecurrenceCache
	if config.CacheEnabled {
		cache = NewRecurrenceCache(config.CacheConfig)
	}

	return &Engine{
		cache:  cache,
		config: config,
		step:   stepPolicy{weeklyScanDays: config.WeeklyScanDays},
	}
}
