package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cyp0633/librecur/conflict"
	"github.com/cyp0633/librecur/storage"
	"github.com/cyp0633/librecur/storage/memory"
	"github.com/cyp0633/librecur/storage/postgres"
)

// intervalRecord is the JSON form of an interval in --existing files and output.
type intervalRecord struct {
	ID           string    `json:"id"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Participants []string  `json:"participants,omitempty"`
	Status       string    `json:"status,omitempty"`
}

func toRecord(iv conflict.Interval) intervalRecord {
	return intervalRecord{
		ID:           iv.ID,
		Start:        iv.Start,
		End:          iv.End,
		Participants: iv.ParticipantIDs,
		Status:       iv.Status,
	}
}

func toRecords(ivs []conflict.Interval) []intervalRecord {
	out := make([]intervalRecord, 0, len(ivs))
	for _, iv := range ivs {
		out = append(out, toRecord(iv))
	}
	return out
}

func loadIntervals(path string) ([]conflict.Interval, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intervals: %w", err)
	}
	var records []intervalRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse intervals %s: %w", path, err)
	}

	out := make([]conflict.Interval, 0, len(records))
	for i, r := range records {
		iv := conflict.Interval{
			ID:             r.ID,
			Start:          r.Start,
			End:            r.End,
			ParticipantIDs: r.Participants,
			Status:         r.Status,
		}
		if err := iv.Validate(); err != nil {
			return nil, fmt.Errorf("interval %d (%s): %w", i, r.ID, err)
		}
		out = append(out, iv)
	}
	return out, nil
}

// source picks where existing intervals come from: the JSON file when given, else
// the configured database, else nothing. The returned func releases it.
func (a *app) source(ctx context.Context, existingPath string) (storage.IntervalSource, func(), error) {
	if existingPath != "" {
		ivs, err := loadIntervals(existingPath)
		if err != nil {
			return nil, nil, err
		}
		store := memory.New()
		for _, iv := range ivs {
			if _, err := store.Add(ctx, iv); err != nil {
				return nil, nil, err
			}
		}
		a.logger.Debug("loaded intervals", "path", existingPath, "count", store.Len())
		return store, func() {}, nil
	}

	if a.cfg.Database.URL != "" {
		pool, err := postgres.Connect(ctx, a.cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		if a.cfg.Database.Migrate {
			if err := postgres.Migrate(ctx, pool, a.logger); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		a.logger.Debug("using postgres interval source")
		return postgres.New(pool), pool.Close, nil
	}

	return memory.New(), func() {}, nil
}
