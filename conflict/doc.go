// Package conflict decides whether a candidate time interval collides with existing
// ones. Intervals are half-open, so back-to-back intervals never conflict.
//
// Two presets cover the common cases: EventDetector checks time overlap only, and
// TaskDetector additionally requires a shared participant and ignores cancelled
// intervals.
//
// A Detector only sees the slice it is given. Checking and then inserting is racy
// unless the caller serializes both steps, for example inside one SERIALIZABLE
// transaction (see storage/postgres).
package conflict
