// pkg/db/transaction_manager.go
package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrStaleWrite is returned by repositories when an optimistic version check matched no row.
var ErrStaleWrite = errors.New("stale write: row version changed")

// TxController defines methods for controlling a database transaction.
// *sqlx.Tx implicitly implements this interface.
type TxController interface {
	Commit() error
	Rollback() error
}

// DBTxBeginner defines the interface for beginning transactions.
// *sqlx.DB implements this.
type DBTxBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// BeginTxFunc, CommitTxFunc and RollbackTxFunc are injected into services so tests can replace them.
type (
	BeginTxFunc    func(ctx context.Context, dbConn DBTxBeginner) (TxController, error)
	CommitTxFunc   func(tx TxController) error
	RollbackTxFunc func(tx TxController)
)

// BeginTx starts a new database transaction.
// It returns a TxController interface, which *sqlx.Tx implements.
func BeginTx(ctx context.Context, dbConn DBTxBeginner) (TxController, error) {
	tx, err := dbConn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// CommitTx commits the transaction.
func CommitTx(tx TxController) error {
	return tx.Commit()
}

// RollbackTx rolls back the transaction. It is safe to defer after a successful commit.
func RollbackTx(tx TxController) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.Default().Warn("Error rolling back transaction", "error", err)
	}
}

// PostgreSQL error codes that mean "try the whole transaction again".
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeAdminShutdown        = "57P01"
	classConnectionException = "08"
)

// IsConflict reports whether err came from two transactions racing for the same rows.
func IsConflict(err error) bool {
	if errors.Is(err, ErrStaleWrite) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == codeSerializationFailure || pqErr.Code == codeDeadlockDetected
	}
	return false
}

// IsTransient reports whether err is a store fault that may succeed if the transaction is re-run.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if IsConflict(err) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		return code == codeLockNotAvailable || code == codeAdminShutdown || strings.HasPrefix(code, classConnectionException)
	}
	return false
}

// RetryConfig bounds how often a transaction is re-run.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	Delay      time.Duration `yaml:"delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

// TxRetrier re-runs a complete transaction attempt when it fails with a transient store fault.
// Every attempt must begin its own transaction and repeat all reads and validation.
type TxRetrier struct {
	executor failsafe.Executor[any]
}

// NewTxRetrier builds a retrier; onRetry, if non-nil, is called before each re-run with the failure that caused it.
func NewTxRetrier(cfg RetryConfig, onRetry func(attempt int, err error)) *TxRetrier {
	if cfg.Delay <= 0 {
		cfg.Delay = 20 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.Delay {
		cfg.MaxDelay = cfg.Delay * 10
	}

	builder := retrypolicy.NewBuilder[any]().
		HandleIf(func(_ any, err error) bool {
			return IsTransient(err)
		}).
		WithBackoff(cfg.Delay, cfg.MaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		ReturnLastFailure()
	if onRetry != nil {
		builder = builder.OnRetry(func(e failsafe.ExecutionEvent[any]) {
			onRetry(e.Attempts(), e.LastError())
		})
	}

	return &TxRetrier{executor: failsafe.With[any](builder.Build())}
}

// Run executes attempt, re-running it on transient failures until the retry budget is spent.
func (r *TxRetrier) Run(ctx context.Context, attempt func() error) error {
	return r.executor.WithContext(ctx).Run(attempt)
}
