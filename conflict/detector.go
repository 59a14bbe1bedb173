package conflict

import "strings"

// DetectorConfig holds configuration options for a Detector
type DetectorConfig struct {
	// TimeOnly ignores participants and status; any time overlap is a conflict.
	TimeOnly bool
	// IsCancelled marks existing intervals that never conflict with a candidate
	// that has participants. Nil means nothing is cancelled.
	IsCancelled func(Interval) bool
}

// Detector checks candidate intervals against existing ones. It holds no mutable
// state and never fails.
type Detector struct {
	config DetectorConfig
}

// NewDetector creates a detector with the given configuration.
func NewDetector(config DetectorConfig) *Detector {
	return &Detector{config: config}
}

// EventDetector reports any time overlap as a conflict.
func EventDetector() *Detector {
	return NewDetector(DetectorConfig{TimeOnly: true})
}

// TaskDetector gates conflicts on shared participants and skips intervals for which
// isCancelled returns true.
func TaskDetector(isCancelled func(Interval) bool) *Detector {
	return NewDetector(DetectorConfig{IsCancelled: isCancelled})
}

// StatusIn returns a predicate matching intervals whose Status equals one of
// statuses, ignoring case.
func StatusIn(statuses ...string) func(Interval) bool {
	return func(iv Interval) bool {
		for _, s := range statuses {
			if strings.EqualFold(iv.Status, s) {
				return true
			}
		}
		return false
	}
}

// HasConflict reports whether candidate conflicts with any interval in existing.
func (d *Detector) HasConflict(candidate Interval, existing []Interval) bool {
	for _, other := range existing {
		if d.conflicts(candidate, other) {
			return true
		}
	}
	return false
}

// FindConflicts returns the intervals in existing that conflict with candidate, in
// input order. The result is never nil.
func (d *Detector) FindConflicts(candidate Interval, existing []Interval) []Interval {
	found := make([]Interval, 0)
	for _, other := range existing {
		if d.conflicts(candidate, other) {
			found = append(found, other)
		}
	}
	return found
}

// IsFree is the negation of HasConflict.
func (d *Detector) IsFree(candidate Interval, existing []Interval) bool {
	return !d.HasConflict(candidate, existing)
}

func (d *Detector) conflicts(candidate, other Interval) bool {
	if id, ok := candidate.Excluded(); ok && other.ID == id {
		return false
	}
	if !Overlaps(candidate, other) {
		return false
	}
	if d.config.TimeOnly || len(candidate.ParticipantIDs) == 0 {
		return true
	}
	if d.config.IsCancelled != nil && d.config.IsCancelled(other) {
		return false
	}
	return SharesParticipant(candidate, other)
}
