// Package postgres stores intervals in PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cyp0633/librecur/conflict"
	"github.com/cyp0633/librecur/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	codeSerializationFailure = "40001"
	codeUniqueViolation      = "23505"

	// DefaultTxAttempts is how often WithSerializableTx runs fn before giving up on
	// serialization failures.
	DefaultTxAttempts = 3
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Source implements storage.IntervalSource and storage.Reserver on a pgx pool.
type Source struct {
	pool       *pgxpool.Pool
	txAttempts int
}

var (
	_ storage.IntervalSource = (*Source)(nil)
	_ storage.Reserver       = (*Source)(nil)
)

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Source {
	return &Source{pool: pool, txAttempts: DefaultTxAttempts}
}

// Connect opens a pool for dsn and checks that the server answers.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, &storage.Error{Type: storage.ErrInvalidInput, Message: "parse database url", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &storage.Error{Type: storage.ErrUnavailable, Message: "ping database", Err: err}
	}
	return pool, nil
}

// Overlapping implements storage.IntervalSource.
func (s *Source) Overlapping(ctx context.Context, start, end time.Time) ([]conflict.Interval, error) {
	return overlapping(ctx, s.pool, start, end)
}

func overlapping(ctx context.Context, q querier, start, end time.Time) ([]conflict.Interval, error) {
	query := `
		SELECT id, starts_at, ends_at, participant_ids, status
		FROM intervals
		WHERE starts_at < $2 AND ends_at > $1
		ORDER BY starts_at, id
	`

	rows, err := q.Query(ctx, query, start, end)
	if err != nil {
		return nil, &storage.Error{Type: storage.ErrUnavailable, Message: "query overlapping intervals", Err: err}
	}
	defer rows.Close()

	result := make([]conflict.Interval, 0)
	for rows.Next() {
		var iv conflict.Interval
		if err := rows.Scan(&iv.ID, &iv.Start, &iv.End, &iv.ParticipantIDs, &iv.Status); err != nil {
			return nil, fmt.Errorf("scan interval: %w", err)
		}
		result = append(result, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, &storage.Error{Type: storage.ErrUnavailable, Message: "iterate intervals", Err: err}
	}
	return result, nil
}

// Insert stores iv. An empty ID is replaced with a random UUID, which is returned.
func (s *Source) Insert(ctx context.Context, iv conflict.Interval) (string, error) {
	return insert(ctx, s.pool, iv)
}

func insert(ctx context.Context, q querier, iv conflict.Interval) (string, error) {
	if err := iv.Validate(); err != nil {
		return "", &storage.Error{Type: storage.ErrInvalidInput, Message: "invalid interval", Err: err}
	}
	if iv.ID == "" {
		iv.ID = uuid.NewString()
	}
	participants := iv.ParticipantIDs
	if participants == nil {
		participants = []string{}
	}

	query := `
		INSERT INTO intervals (id, starts_at, ends_at, participant_ids, status)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := q.Exec(ctx, query, iv.ID, iv.Start, iv.End, participants, iv.Status); err != nil {
		if pgCode(err) == codeUniqueViolation {
			return "", &storage.Error{Type: storage.ErrAlreadyExists, Message: "interval " + iv.ID + " already exists", Err: err}
		}
		return "", fmt.Errorf("insert interval: %w", err)
	}
	return iv.ID, nil
}

// Delete removes the interval with the given ID.
func (s *Source) Delete(ctx context.Context, id string) error {
	return remove(ctx, s.pool, id)
}

func remove(ctx context.Context, q querier, id string) error {
	tag, err := q.Exec(ctx, `DELETE FROM intervals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete interval: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &storage.Error{Type: storage.ErrNotFound, Message: "interval not found"}
	}
	return nil
}

// WithSerializableTx runs fn inside a SERIALIZABLE transaction and commits when it
// returns nil. Serialization failures are retried up to DefaultTxAttempts times.
func (s *Source) WithSerializableTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	var err error
	for attempt := 0; attempt < s.txAttempts; attempt++ {
		err = s.runTx(ctx, fn)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return &storage.Error{Type: storage.ErrUnavailable, Message: "transaction kept conflicting", Err: err}
}

func (s *Source) runTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return &storage.Error{Type: storage.ErrUnavailable, Message: "begin transaction", Err: err}
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Reserve implements storage.Reserver inside one SERIALIZABLE transaction. A
// candidate with ExcludeID replaces the excluded row and inherits its ID when it
// has none.
func (s *Source) Reserve(ctx context.Context, candidate conflict.Interval, d *conflict.Detector) ([]conflict.Interval, error) {
	if err := candidate.Validate(); err != nil {
		return nil, &storage.Error{Type: storage.ErrInvalidInput, Message: "invalid interval", Err: err}
	}

	var conflicts []conflict.Interval
	err := s.WithSerializableTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		existing, err := overlapping(ctx, tx, candidate.Start, candidate.End)
		if err != nil {
			return err
		}
		conflicts = d.FindConflicts(candidate, existing)
		if len(conflicts) > 0 {
			return nil
		}

		iv := candidate
		if id, ok := candidate.Excluded(); ok {
			if err := remove(ctx, tx, id); err != nil && !errors.Is(err, &storage.Error{Type: storage.ErrNotFound}) {
				return err
			}
			if iv.ID == "" {
				iv.ID = id
			}
		}
		_, err = insert(ctx, tx, iv)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(conflicts) == 0 {
		return nil, nil
	}
	return conflicts, nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isSerializationFailure(err error) bool {
	return pgCode(err) == codeSerializationFailure
}
