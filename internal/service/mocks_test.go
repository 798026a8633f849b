// internal/service/mocks_test.go
package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"bidmarket/internal/domain"
	"bidmarket/internal/repository"
	"bidmarket/pkg/db"
)

// MockDBExecutor is a mock implementation of repository.DBExecutor.
type MockDBExecutor struct {
	mock.Mock
}

func (m *MockDBExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, args)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

func (m *MockDBExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	m.Called(ctx, query, args)
	return &sql.Row{}
}

func (m *MockDBExecutor) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, arg)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListAdminIDs(ctx context.Context, q repository.DBExecutor) ([]uuid.UUID, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockUserRepository) IncrementSoldCount(ctx context.Context, q repository.DBExecutor, id uuid.UUID) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}

// MockListingRepository is a mock implementation of repository.ListingRepository.
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) CreateListing(ctx context.Context, q repository.DBExecutor, listing *domain.Listing) error {
	args := m.Called(ctx, q, listing)
	return args.Error(0)
}

func (m *MockListingRepository) GetListingByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Listing, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingRepository) GetListingForUpdate(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Listing, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingRepository) UpdateListing(ctx context.Context, q repository.DBExecutor, listing *domain.Listing) error {
	args := m.Called(ctx, q, listing)
	return args.Error(0)
}

func (m *MockListingRepository) DeleteListing(ctx context.Context, q repository.DBExecutor, id uuid.UUID) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}

func (m *MockListingRepository) ListListingsByStatus(ctx context.Context, q repository.DBExecutor, status domain.Status) ([]domain.Listing, error) {
	args := m.Called(ctx, q, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Listing), args.Error(1)
}

func (m *MockListingRepository) CountListingsByOwner(ctx context.Context, q repository.DBExecutor, ownerID uuid.UUID) (map[domain.Status]int, error) {
	args := m.Called(ctx, q, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.Status]int), args.Error(1)
}

func (m *MockListingRepository) ListListings(ctx context.Context, q repository.DBExecutor) ([]domain.ListingSummary, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ListingSummary), args.Error(1)
}

// MockLikeRepository is a mock implementation of repository.LikeRepository.
type MockLikeRepository struct {
	mock.Mock
}

func (m *MockLikeRepository) HasLike(ctx context.Context, q repository.DBExecutor, listingID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, q, listingID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLikeRepository) AddLike(ctx context.Context, q repository.DBExecutor, listingID, userID uuid.UUID) error {
	args := m.Called(ctx, q, listingID, userID)
	return args.Error(0)
}

func (m *MockLikeRepository) RemoveLike(ctx context.Context, q repository.DBExecutor, listingID, userID uuid.UUID) error {
	args := m.Called(ctx, q, listingID, userID)
	return args.Error(0)
}

func (m *MockLikeRepository) CountLikes(ctx context.Context, q repository.DBExecutor, listingID uuid.UUID) (int, error) {
	args := m.Called(ctx, q, listingID)
	return args.Int(0), args.Error(1)
}

// MockBidRepository is a mock implementation of repository.BidRepository.
type MockBidRepository struct {
	mock.Mock
}

func (m *MockBidRepository) ListBidsByListingID(ctx context.Context, q repository.DBExecutor, listingID uuid.UUID) ([]domain.Bid, error) {
	args := m.Called(ctx, q, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Bid), args.Error(1)
}

func (m *MockBidRepository) CreateBid(ctx context.Context, q repository.DBExecutor, listingID uuid.UUID, bid *domain.Bid) error {
	args := m.Called(ctx, q, listingID, bid)
	return args.Error(0)
}

// MockDBBeginner is a mock implementation of db.DBTxBeginner.
type MockDBBeginner struct {
	mock.Mock
}

func (m *MockDBBeginner) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	args := m.Called(ctx, opts)
	return &sqlx.Tx{}, args.Error(1)
}

// MockTxController is a mock implementation of db.TxController.
// It also satisfies repository.DBExecutor by embedding MockDBExecutor.
type MockTxController struct {
	mock.Mock
	MockDBExecutor
}

func (m *MockTxController) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTxController) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// recordingDispatcher captures dispatched intents.
type recordingDispatcher struct {
	mu      sync.Mutex
	batches [][]domain.NotificationIntent
}

func (d *recordingDispatcher) Dispatch(_ context.Context, intents []domain.NotificationIntent) {
	if len(intents) == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.batches = append(d.batches, intents)
}

func (d *recordingDispatcher) all() []domain.NotificationIntent {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []domain.NotificationIntent
	for _, b := range d.batches {
		out = append(out, b...)
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockTxDeps wires the transaction functions to tx so tests can assert commits and rollbacks.
// BeginTx counts every attempt in begins.
func mockTxDeps(beginner *MockDBBeginner, reader *MockDBExecutor, tx *MockTxController, begins *int) TxDeps {
	return TxDeps{
		DBBeginner: beginner,
		DBExecutor: reader,
		BeginTx: func(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
			if begins != nil {
				*begins++
			}
			return tx, nil
		},
		CommitTx: func(txc db.TxController) error {
			return tx.Commit()
		},
		RollbackTx: func(txc db.TxController) {
			_ = tx.Rollback()
		},
		Retry: db.RetryConfig{MaxRetries: 2, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	}
}
