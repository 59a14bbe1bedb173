package storage

import (
	"context"
	"time"

	"github.com/cyp0633/librecur/conflict"
	"github.com/stretchr/testify/mock"
)

// MockSource implements IntervalSource and Reserver for testing
type MockSource struct {
	mock.Mock
}

// Overlapping implements the IntervalSource interface
func (m *MockSource) Overlapping(ctx context.Context, start, end time.Time) ([]conflict.Interval, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]conflict.Interval), args.Error(1)
}

// Reserve implements the Reserver interface
func (m *MockSource) Reserve(ctx context.Context, candidate conflict.Interval, d *conflict.Detector) ([]conflict.Interval, error) {
	args := m.Called(ctx, candidate, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]conflict.Interval), args.Error(1)
}
