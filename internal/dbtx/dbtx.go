// Package dbtx is the Store Adapter's transaction primitive: it opens a
// serializable transaction, stashes it on the context so repositories
// pick it up transparently, and guarantees commit-or-rollback on every
// exit path (spec.md §4.1). Grounded on the teacher repo's pkg/dbtx
// (preserved only as a test file in the retrieval pack; this is a
// from-scratch implementation against the contract that test describes).
package dbtx

import (
	"context"
	"database/sql"
)

// Executor is the subset of *sql.DB / *sql.Tx every repository needs.
// Repositories accept an Executor instead of a concrete *sql.DB so the
// same code runs standalone or inside a caller-supplied transaction.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txContextKey struct{}

// ContextWithTx stashes tx on ctx. A nil tx is stored as no value, so
// TxFromContext on the result still reports absence.
func ContextWithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}

	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFromContext returns the transaction stashed on ctx, or nil if none.
func TxFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txContextKey{}).(*sql.Tx)
	return tx
}

// GetExecutor returns the transaction in ctx if present, otherwise db
// itself. Every repository method starts by calling this.
//
//nolint:ireturn
func GetExecutor(ctx context.Context, db Executor) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}

	return db
}

// Beginner is satisfied by *sql.DB and by dbresolver.DB — anything that
// can start a transaction. Store.RunInTransaction always begins against
// the primary, never a read replica.
type Beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// RunInTransaction opens a transaction at the given isolation level,
// stashes it on ctx, runs fn, and commits on success or rolls back on
// any failure — including fn panicking or ctx being canceled mid-flight
// (spec.md §4.1: "a rollback path runs on every non-success exit").
func RunInTransaction(ctx context.Context, db Beginner, opts *sql.TxOptions, fn func(ctx context.Context) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ContextWithTx(ctx, tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	return nil
}
