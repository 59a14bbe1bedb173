// Package storage defines where existing intervals come from.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cyp0633/librecur/conflict"
)

// Error types
type ErrorType string

const (
	ErrNotFound      ErrorType = "not_found"
	ErrAlreadyExists ErrorType = "already_exists"
	ErrInvalidInput  ErrorType = "invalid_input"
	ErrUnavailable   ErrorType = "unavailable"
)

// Error represents a storage-related error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Type, so errors.Is(err, &Error{Type: ErrNotFound})
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// IntervalSource returns the existing intervals a candidate is checked against.
//
// Implementations only answer reads. A caller that checks and then writes must
// serialize both steps itself, see Reserver.
type IntervalSource interface {
	// Overlapping returns every stored interval with start < end' and end > start',
	// ordered by start then ID.
	Overlapping(ctx context.Context, start, end time.Time) ([]conflict.Interval, error)
}

// Reserver atomically checks a candidate and stores it when it is free.
type Reserver interface {
	// Reserve stores candidate unless d finds conflicts, in which case the
	// conflicting intervals are returned and nothing is written.
	Reserve(ctx context.Context, candidate conflict.Interval, d *conflict.Detector) ([]conflict.Interval, error)
}
