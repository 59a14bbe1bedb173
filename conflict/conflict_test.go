package conflict

import (
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h, m int) time.Time {
	return time.Date(2024, 1, 15, h, m, 0, 0, time.UTC)
}

func span(id string, from, to time.Time, participants ...string) Interval {
	return Interval{ID: id, Start: from, End: to, ParticipantIDs: participants}
}

func TestOverlaps(t *testing.T) {
	base := span("a", at(10, 0), at(11, 0))

	tests := []struct {
		name  string
		other Interval
		want  bool
	}{
		{"touching before", span("b", at(9, 0), at(10, 0)), false},
		{"touching after", span("b", at(11, 0), at(12, 0)), false},
		{"partial start", span("b", at(9, 30), at(10, 30)), true},
		{"partial end", span("b", at(10, 59), at(12, 0)), true},
		{"contained", span("b", at(10, 15), at(10, 45)), true},
		{"containing", span("b", at(9, 0), at(12, 0)), true},
		{"identical", span("b", at(10, 0), at(11, 0)), true},
		{"disjoint", span("b", at(13, 0), at(14, 0)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(base, tt.other))
			assert.Equal(t, tt.want, Overlaps(tt.other, base), "overlap must be symmetric")
		})
	}
}

func TestIntersection(t *testing.T) {
	a := span("a", at(10, 0), at(11, 0))
	b := span("b", at(10, 30), at(12, 0))

	iv, ok := Intersection(a, b).Get()
	require.True(t, ok)
	assert.Equal(t, at(10, 30), iv.Start)
	assert.Equal(t, at(11, 0), iv.End)
	assert.Equal(t, 30*time.Minute, OverlapDuration(a, b))

	c := span("c", at(11, 0), at(12, 0))
	assert.True(t, Intersection(a, c).IsAbsent())
	assert.Zero(t, OverlapDuration(a, c))
}

func TestInterval_Validate(t *testing.T) {
	assert.NoError(t, span("a", at(10, 0), at(10, 1)).Validate())
	assert.ErrorIs(t, span("a", at(10, 0), at(10, 0)).Validate(), ErrInvalidInterval)
	assert.ErrorIs(t, span("a", at(11, 0), at(10, 0)).Validate(), ErrInvalidInterval)
}

func TestResolveEnd(t *testing.T) {
	start := at(10, 0)

	end, err := ResolveEnd(start, mo.None[time.Time](), DefaultDuration)
	require.NoError(t, err)
	assert.Equal(t, at(11, 0), end)

	end, err = ResolveEnd(start, mo.Some(at(10, 20)), RequireEnd)
	require.NoError(t, err)
	assert.Equal(t, at(10, 20), end)

	_, err = ResolveEnd(start, mo.None[time.Time](), RequireEnd)
	assert.ErrorIs(t, err, ErrDurationRequired)

	_, err = ResolveEnd(start, mo.Some(start), DefaultDuration)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestEventDetector(t *testing.T) {
	d := EventDetector()
	existing := []Interval{
		span("e1", at(9, 0), at(10, 0), "alice"),
		span("e2", at(10, 30), at(11, 30), "bob"),
		span("e3", at(10, 45), at(12, 0)),
		span("e4", at(13, 0), at(14, 0)),
	}
	candidate := span("", at(10, 0), at(11, 0), "carol")

	assert.True(t, d.HasConflict(candidate, existing))
	assert.False(t, d.IsFree(candidate, existing))

	got := d.FindConflicts(candidate, existing)
	require.Len(t, got, 2)
	assert.Equal(t, "e2", got[0].ID)
	assert.Equal(t, "e3", got[1].ID)
}

func TestTaskDetector(t *testing.T) {
	d := TaskDetector(StatusIn("cancelled"))
	existing := []Interval{
		span("t1", at(10, 0), at(11, 0), "alice"),
		span("t2", at(10, 0), at(11, 0), "bob", "dave"),
		{ID: "t3", Start: at(10, 0), End: at(11, 0), ParticipantIDs: []string{"carol"}, Status: "CANCELLED"},
	}

	tests := []struct {
		name      string
		candidate Interval
		want      []string
	}{
		{"shared participant", span("", at(10, 30), at(10, 45), "bob"), []string{"t2"}},
		{"no shared participant", span("", at(10, 30), at(10, 45), "erin"), []string{}},
		{"cancelled ignored", span("", at(10, 30), at(10, 45), "carol"), []string{}},
		{"no participants means time only", span("", at(10, 30), at(10, 45)), []string{"t1", "t2", "t3"}},
		{"touching", span("", at(11, 0), at(12, 0), "alice"), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.FindConflicts(tt.candidate, existing)
			ids := make([]string, 0, len(got))
			for _, iv := range got {
				ids = append(ids, iv.ID)
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, len(tt.want) > 0, d.HasConflict(tt.candidate, existing))
		})
	}
}

func TestDetector_Exclusion(t *testing.T) {
	existing := []Interval{
		span("self", at(10, 0), at(11, 0), "alice"),
		span("other", at(12, 0), at(13, 0), "alice"),
	}
	candidate := span("self", at(10, 15), at(11, 15), "alice")
	candidate.ExcludeID = mo.Some("self")

	for _, d := range []*Detector{EventDetector(), TaskDetector(nil)} {
		assert.True(t, d.IsFree(candidate, existing))
		assert.NotNil(t, d.FindConflicts(candidate, existing))
	}

	candidate.ExcludeID = mo.None[string]()
	assert.True(t, EventDetector().HasConflict(candidate, existing))
}

func TestDetector_EmptyExcludeID(t *testing.T) {
	existing := []Interval{
		span("", at(10, 0), at(11, 0), "alice"),
		span("named", at(10, 30), at(11, 30), "alice"),
	}
	candidate := span("", at(10, 15), at(11, 15), "alice")
	candidate.ExcludeID = mo.Some("")

	for _, d := range []*Detector{EventDetector(), TaskDetector(nil)} {
		assert.Len(t, d.FindConflicts(candidate, existing), 2)
	}

	_, ok := candidate.Excluded()
	assert.False(t, ok)
}

func TestDetector_EmptyPool(t *testing.T) {
	d := NewDetector(DetectorConfig{})
	candidate := span("", at(10, 0), at(11, 0), "alice")

	assert.True(t, d.IsFree(candidate, nil))
	assert.Empty(t, d.FindConflicts(candidate, nil))
}

func TestSharesParticipant(t *testing.T) {
	assert.True(t, SharesParticipant(span("", at(0, 0), at(1, 0), "a", "b"), span("", at(0, 0), at(1, 0), "c", "b")))
	assert.False(t, SharesParticipant(span("", at(0, 0), at(1, 0), "a"), span("", at(0, 0), at(1, 0))))
}
