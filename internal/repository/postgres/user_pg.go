// internal/repository/postgres/user_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bidmarket/internal/domain"
	"bidmarket/internal/repository"
	"bidmarket/internal/util"
)

// UserRepository implements repository.UserRepository for PostgreSQL.
type UserRepository struct{}

// NewUserRepository creates a new UserRepository.
// The db parameter is not stored in the struct; methods receive a DBExecutor instead.
func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &UserRepository{}
}

// GetUserByID retrieves a user by their ID using the provided DBExecutor.
func (r *UserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, full_name, email, role, balance, currency, products_sold_count, created_at, updated_at FROM users WHERE id = $1`
	err := q.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// ListAdminIDs returns the ids of all administrators, oldest account first.
func (r *UserRepository) ListAdminIDs(ctx context.Context, q repository.DBExecutor) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `SELECT id FROM users WHERE role = $1 ORDER BY created_at`
	if err := q.SelectContext(ctx, &ids, query, domain.RoleAdmin); err != nil {
		return nil, fmt.Errorf("failed to list administrators: %w", err)
	}
	return ids, nil
}

// IncrementSoldCount bumps the user's sold-listings counter in place.
func (r *UserRepository) IncrementSoldCount(ctx context.Context, q repository.DBExecutor, id uuid.UUID) error {
	query := `UPDATE users SET products_sold_count = products_sold_count + 1, updated_at = $1 WHERE id = $2`
	result, err := q.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to increment sold count for user %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after incrementing sold count for user %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}
