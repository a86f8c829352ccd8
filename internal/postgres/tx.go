package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx. Store
// methods run against whichever the context carries.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// QuerierFrom returns the transaction carried by ctx, or the pool when the
// caller did not open one.
func QuerierFrom(ctx context.Context, pool *pgxpool.Pool) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// Runner executes multi-store units of work inside a single transaction.
// Nested calls join the transaction already in the context.
type Runner struct {
	Pool *pgxpool.Pool
}

func (r *Runner) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return wrapConflict(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return wrapConflict(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapConflict(err)
	}
	return nil
}

// TxConflictError marks serialization and deadlock failures so callers can
// retry the whole unit of work with a fresh read.
type TxConflictError struct {
	err error
}

func (e *TxConflictError) Error() string { return fmt.Sprintf("transaction conflict: %v", e.err) }

func (e *TxConflictError) Unwrap() error { return e.err }

func (e *TxConflictError) TxConflict() bool { return true }

func wrapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		if pgErr.Code == "40001" || pgErr.Code == "40P01" {
			return &TxConflictError{err: err}
		}
	}
	return err
}

// IsUniqueViolation reports whether err is a violation of the named unique
// constraint. Empty constraint matches any.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
