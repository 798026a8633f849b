// internal/service/tx.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"bidmarket/internal/domain"
	"bidmarket/internal/metrics"
	"bidmarket/internal/repository"
	"bidmarket/internal/util"
	"bidmarket/pkg/db"
)

// IntentDispatcher receives notification intents once the change that produced them has committed.
type IntentDispatcher interface {
	Dispatch(ctx context.Context, intents []domain.NotificationIntent)
}

// TxDeps bundles what a service needs to run retried transactions.
type TxDeps struct {
	DBBeginner db.DBTxBeginner       // For starting transactions (e.g., *sqlx.DB)
	DBExecutor repository.DBExecutor // For non-transactional reads (e.g., *sqlx.DB)
	BeginTx    db.BeginTxFunc
	CommitTx   db.CommitTxFunc
	RollbackTx db.RollbackTxFunc
	Retry      db.RetryConfig
}

type txRunner struct {
	TxDeps
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// inTx runs fn inside a transaction, re-running the whole attempt on transient store faults.
// fn must start from a clean slate each time it is called. Business errors are returned as is;
// an exhausted conflict becomes util.ErrConflict and any other store fault util.ErrStoreFailure.
func (r *txRunner) inTx(ctx context.Context, op string, fn func(q repository.DBExecutor) error) error {
	retrier := db.NewTxRetrier(r.Retry, func(attempt int, err error) {
		r.logger.Warn("Retrying transaction", "operation", op, "attempt", attempt, "error", err)
		r.metrics.IncTxRetry(op)
	})

	err := retrier.Run(ctx, func() error {
		return r.attempt(ctx, op, fn)
	})
	if err == nil || util.IsBusinessError(err) {
		return err
	}
	if db.IsConflict(err) {
		return fmt.Errorf("%s: %w: %w", op, util.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w: %w", op, util.ErrStoreFailure, err)
}

func (r *txRunner) attempt(ctx context.Context, op string, fn func(q repository.DBExecutor) error) error {
	txController, err := r.BeginTx(ctx, r.DBBeginner)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer r.RollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return fmt.Errorf("%s: transaction controller does not implement DBExecutor", op)
	}

	if err := fn(txExecutor); err != nil {
		return err
	}

	if err := r.CommitTx(txController); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	return nil
}
