package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/disgoorg/quest-bot/questbot/config"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NotFoundError is returned when a lookup by key matched no row.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

// ConflictError is returned when a write violates a unique or foreign key constraint.
// Field holds the constraint name reported by postgres.
type ConflictError struct {
	Entity string
	Field  string
	Value  any
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflicts on %s (%v)", e.Entity, e.Field, e.Value)
}

// QueryError wraps any other driver failure with the operation that caused it.
type QueryError struct {
	Op     string
	Entity string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Entity, e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, config.DefaultQueryTimeout)
}

// handleError classifies a driver error. Class 23 (integrity violation) becomes a ConflictError.
func handleError(op, entity string, id any, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return &NotFoundError{Entity: entity, ID: id}
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
		return &ConflictError{Entity: entity, Field: pgErr.Field('n'), Value: id}
	}
	return &QueryError{Op: op, Entity: entity, Err: err}
}

func rowsAffected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	n, _ := res.RowsAffected()
	return n
}
