package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/iho/pocketledger/internal/usecase"
)

type pgxPool interface {
	Begin(context.Context) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	pool    pgxPool
	retrier *Retrier
}

// NewTxManager creates a TxManager whose Run retries conflicts per retry.
func NewTxManager(pool *pgxpool.Pool, retry RetryConfig) *TxManager {
	return newTxManagerWithPool(pool, NewRetrier(retry))
}

func newTxManagerWithPool(pool pgxPool, retrier *Retrier) *TxManager {
	return &TxManager{pool: pool, retrier: retrier}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (*Tx, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	return &Tx{tx: tx}, nil
}

// Run executes fn inside a transaction. A deadlock or serialization
// failure reruns fn from a fresh transaction.
func (m *TxManager) Run(ctx context.Context, fn func(tx usecase.Transaction) error) error {
	return m.retrier.Retry(ctx, func() error {
		tx, err := m.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				zerolog.Ctx(ctx).Error().Err(rbErr).Msg("rollback failed")
			}
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	})
}

// Tx wraps a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback rolls back the transaction.
func (t *Tx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}
