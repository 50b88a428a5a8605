package db

import (
	"context"
	"database/sql"
)

// Querier is the part of *sql.DB and *sql.Tx the repositories use.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Transactor runs fn so that every repository call made with the ctx it receives commits or rolls
// back together.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// SQLTransactor implements Transactor with a *sql.Tx carried in the context.
type SQLTransactor struct {
	db *sql.DB
}

func NewTransactor(conn *sql.DB) *SQLTransactor {
	return &SQLTransactor{db: conn}
}

// WithinTx begins a transaction, runs fn and commits if fn returns nil. A ctx that already carries a
// transaction joins it instead of starting a new one.
func (t *SQLTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Conn returns the transaction carried by ctx, or conn when there is none.
func Conn(ctx context.Context, conn *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return conn
}
