package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// txKey stores the open transaction of one pool. The remote pool and the cache pool
// can both have a transaction in the same context without seeing each other's.
type txKey struct {
	db *sql.DB
}

// Querier is the part of *sql.DB and *sql.Tx used by the stores.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxManager runs a unit of work atomically.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type sqlTxManager struct {
	db *sql.DB
}

// NewTxManager returns a TxManager for the pool.
func NewTxManager(db *sql.DB) TxManager {
	return &sqlTxManager{db: db}
}

// WithTx runs fn in one transaction on the pool. Store calls made with the context
// handed to fn join it through GetTx. A call nested in an open transaction of the same
// pool joins it instead of starting a new one. When fn fails the transaction is rolled
// back and fn's error is returned, joined with the rollback error if there is one.
func (m *sqlTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	key := txKey{db: m.db}
	if _, ok := ctx.Value(key).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, key, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back transaction: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type nopTxManager struct{}

// NopTxManager runs fn directly. It serves units of work whose stores share no pool,
// such as the in-memory pending queue.
func NopTxManager() TxManager {
	return nopTxManager{}
}

func (nopTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// GetTx returns the transaction open on db in ctx, or db itself.
func GetTx(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey{db: db}).(*sql.Tx); ok {
		return tx
	}
	return db
}
