// Package tx carries a database/sql transaction through a context so stores
// can join a caller's transaction without changing their signatures.
package tx

import (
	"context"
	"database/sql"
	"fmt"
)

type ctxKey struct{}

// With returns a context carrying the transaction.
func With(ctx context.Context, txn *sql.Tx) context.Context {
	if txn == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, txn)
}

// From extracts the transaction from the context, if one was attached.
func From(ctx context.Context) (*sql.Tx, bool) {
	txn, ok := ctx.Value(ctxKey{}).(*sql.Tx)
	return txn, ok
}

// Run opens a transaction, attaches it to the context, and commits when fn
// returns nil. A non-nil error rolls back and is returned wrapped.
func Run(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) error {
	txn, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(With(ctx, txn)); err != nil {
		_ = txn.Rollback()
		return err
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
