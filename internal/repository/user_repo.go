// internal/repository/user_repo.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"bidmarket/internal/domain"
)

// UserRepository defines the operations the marketplace core needs on users.
// Balances are never written here.
type UserRepository interface {
	// GetUserByID retrieves a user by their ID using the provided DBExecutor.
	GetUserByID(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.User, error)
	// ListAdminIDs returns the ids of every administrator.
	ListAdminIDs(ctx context.Context, q DBExecutor) ([]uuid.UUID, error)
	// IncrementSoldCount adds one to the user's sold-listings counter.
	IncrementSoldCount(ctx context.Context, q DBExecutor, id uuid.UUID) error
}
