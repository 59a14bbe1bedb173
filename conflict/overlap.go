package conflict

import (
	"time"

	"github.com/samber/mo"
)

// Overlaps reports whether a and b share any instant. Touching endpoints do not
// overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// OverlapDuration returns how long a and b overlap, or zero.
func OverlapDuration(a, b Interval) time.Duration {
	iv, ok := Intersection(a, b).Get()
	if !ok {
		return 0
	}
	return iv.Duration()
}

// Intersection returns the common span of a and b. Only Start and End are set.
func Intersection(a, b Interval) mo.Option[Interval] {
	if !Overlaps(a, b) {
		return mo.None[Interval]()
	}
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	return mo.Some(Interval{Start: start, End: end})
}

// SharesParticipant reports whether a and b have a participant in common.
func SharesParticipant(a, b Interval) bool {
	if len(a.ParticipantIDs) == 0 || len(b.ParticipantIDs) == 0 {
		return false
	}
	seen := make(map[string]struct{}, len(a.ParticipantIDs))
	for _, id := range a.ParticipantIDs {
		seen[id] = struct{}{}
	}
	for _, id := range b.ParticipantIDs {
		if _, ok := seen[id]; ok {
			return true
		}
	}
	return false
}
