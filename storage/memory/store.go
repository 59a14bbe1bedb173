// memory based implementation for testing purposes
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cyp0633/librecur/conflict"
	"github.com/cyp0633/librecur/storage"
	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Store implements storage.IntervalSource and storage.Reserver using an in-memory map
type Store struct {
	mu        sync.RWMutex
	intervals map[string]conflict.Interval // key: interval ID
}

var (
	_ storage.IntervalSource = (*Store)(nil)
	_ storage.Reserver       = (*Store)(nil)
)

// New creates a new in-memory store
func New() *Store {
	return &Store{
		intervals: make(map[string]conflict.Interval),
	}
}

// Add stores iv and returns it. An empty ID is replaced with a random UUID.
func (s *Store) Add(_ context.Context, iv conflict.Interval) (conflict.Interval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertLocked(iv)
}

func (s *Store) insertLocked(iv conflict.Interval) (conflict.Interval, error) {
	if err := iv.Validate(); err != nil {
		return conflict.Interval{}, &storage.Error{
			Type:    storage.ErrInvalidInput,
			Message: "invalid interval",
			Err:     err,
		}
	}
	if iv.ID == "" {
		iv.ID = uuid.NewString()
	}
	if _, exists := s.intervals[iv.ID]; exists {
		return conflict.Interval{}, &storage.Error{
			Type:    storage.ErrAlreadyExists,
			Message: "interval " + iv.ID + " already exists",
		}
	}

	stored := clone(iv)
	stored.ExcludeID = mo.None[string]()
	s.intervals[iv.ID] = stored
	return clone(stored), nil
}

// Get returns the interval with the given ID.
func (s *Store) Get(_ context.Context, id string) (conflict.Interval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	iv, ok := s.intervals[id]
	if !ok {
		return conflict.Interval{}, &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "interval not found",
		}
	}
	return clone(iv), nil
}

// Remove deletes the interval with the given ID.
func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.intervals[id]; !ok {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "interval not found",
		}
	}
	delete(s.intervals, id)
	return nil
}

// Len returns the number of stored intervals.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.intervals)
}

// Overlapping implements storage.IntervalSource.
func (s *Store) Overlapping(ctx context.Context, start, end time.Time) ([]conflict.Interval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.overlappingLocked(start, end), nil
}

func (s *Store) overlappingLocked(start, end time.Time) []conflict.Interval {
	window := conflict.Interval{Start: start, End: end}
	result := make([]conflict.Interval, 0)
	for _, iv := range s.intervals {
		if conflict.Overlaps(window, iv) {
			result = append(result, clone(iv))
		}
	}
	slices.SortFunc(result, func(a, b conflict.Interval) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return result
}

// Reserve implements storage.Reserver. The check and the insert happen under the
// same write lock. A candidate with ExcludeID replaces the excluded interval and
// inherits its ID when it has none.
func (s *Store) Reserve(ctx context.Context, candidate conflict.Interval, d *conflict.Detector) ([]conflict.Interval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := candidate.Validate(); err != nil {
		return nil, &storage.Error{Type: storage.ErrInvalidInput, Message: "invalid interval", Err: err}
	}
	if conflicts := d.FindConflicts(candidate, s.overlappingLocked(candidate.Start, candidate.End)); len(conflicts) > 0 {
		return conflicts, nil
	}
	if id, ok := candidate.Excluded(); ok {
		delete(s.intervals, id)
		if candidate.ID == "" {
			candidate.ID = id
		}
	}
	if _, err := s.insertLocked(candidate); err != nil {
		return nil, err
	}
	return nil, nil
}

func clone(iv conflict.Interval) conflict.Interval {
	iv.ParticipantIDs = slices.Clone(iv.ParticipantIDs)
	return iv
}
