package conflict

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/mo"
)

var (
	// ErrInvalidInterval is returned for intervals whose end is not after their start.
	ErrInvalidInterval = errors.New("invalid interval")
	// ErrDurationRequired is returned by ResolveEnd when the policy demands an
	// explicit end and none was given.
	ErrDurationRequired = errors.New("interval end required")
)

// DefaultTaskDuration is the length given to a task that has no end.
const DefaultTaskDuration = time.Hour

// Interval is a half-open time span [Start, End) with the data the detector needs.
type Interval struct {
	// ID identifies the interval itself; it is matched against ExcludeID.
	ID    string
	Start time.Time
	End   time.Time

	ParticipantIDs []string
	// ExcludeID names an existing interval to drop before checking, typically the
	// one being updated. Some("") excludes nothing.
	ExcludeID mo.Option[string]
	// Status is opaque to the detector and only read by cancellation predicates.
	Status string
}

// Validate checks that End is after Start.
func (iv Interval) Validate() error {
	if !iv.End.After(iv.Start) {
		return fmt.Errorf("%w: end %s is not after start %s", ErrInvalidInterval,
			iv.End.Format(time.RFC3339), iv.Start.Format(time.RFC3339))
	}
	return nil
}

// Excluded returns the ID named by ExcludeID, if it names one.
func (iv Interval) Excluded() (string, bool) {
	id, ok := iv.ExcludeID.Get()
	return id, ok && id != ""
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// DurationPolicy decides how ResolveEnd treats a missing end.
type DurationPolicy int

const (
	// DefaultDuration gives a missing end start + DefaultTaskDuration.
	DefaultDuration DurationPolicy = iota
	// RequireEnd rejects a missing end with ErrDurationRequired.
	RequireEnd
)

// ResolveEnd returns the end of an interval starting at start. An explicit end must
// be after start.
func ResolveEnd(start time.Time, end mo.Option[time.Time], policy DurationPolicy) (time.Time, error) {
	if e, ok := end.Get(); ok {
		if !e.After(start) {
			return time.Time{}, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidInterval,
				e.Format(time.RFC3339), start.Format(time.RFC3339))
		}
		return e, nil
	}
	if policy == RequireEnd {
		return time.Time{}, ErrDurationRequired
	}
	return start.Add(DefaultTaskDuration), nil
}
