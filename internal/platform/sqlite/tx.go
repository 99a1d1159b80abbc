package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"cronls/pkg/retry"
)

// txKey is the context key under which the active transaction is stored.
type txKey struct{}

// ErrNestedTx is returned when WithinTx is called inside a transaction.
var ErrNestedTx = errors.New("nested transactions are not supported by SQLite")

// Querier is the query surface shared by *sql.DB and *sql.Tx, so writers
// work the same inside and outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// TxRunner runs callbacks inside a transaction that is committed when the
// callback succeeds and rolled back otherwise. Attempts that fail with
// SQLITE_BUSY are retried with backoff.
type TxRunner struct {
	DB    *sql.DB
	Retry retry.Config
}

// NewTxRunner creates a TxRunner with the default retry policy.
func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{DB: db, Retry: retry.DefaultConfig()}
}

// WithinTx executes fn inside a transaction. The transaction is available
// to fn through GetQuerier. fn may run more than once when the database is
// busy, so it must not have side effects outside the transaction.
func (r *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := SqlTx(ctx); ok {
		return ErrNestedTx
	}
	err := retry.DoWithRetryable(ctx, r.Retry, func(ctx context.Context) error {
		return r.executeTx(ctx, fn)
	}, IsBusyError)

	var exceeded *retry.RetriesExceededError
	if errors.As(err, &exceeded) {
		return exceeded.LastError
	}
	return err
}

// SqlTx returns the transaction stored in ctx, if any.
func SqlTx(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok
}

// GetQuerier returns the active transaction from ctx, or the database
// when there is none.
func (r *TxRunner) GetQuerier(ctx context.Context) Querier {
	if tx, ok := SqlTx(ctx); ok {
		return tx
	}
	return r.DB
}

// executeTx performs one attempt.
func (r *TxRunner) executeTx(ctx context.Context, fn func(context.Context) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	ctx = context.WithValue(ctx, txKey{}, tx)

	if err := fn(ctx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// IsBusyError reports whether err is SQLite's "database is locked"
// condition, which goes away once the other writer finishes.
func IsBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database table is locked")
}
