// internal/repository/postgres/like_pg.go
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bidmarket/internal/repository"
)

// LikeRepository implements repository.LikeRepository for PostgreSQL.
type LikeRepository struct{}

// NewLikeRepository creates a new LikeRepository.
func NewLikeRepository(db *sqlx.DB) repository.LikeRepository {
	return &LikeRepository{}
}

// HasLike reports whether the user currently likes the listing.
func (r *LikeRepository) HasLike(ctx context.Context, q repository.DBExecutor, listingID, userID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM listing_likes WHERE listing_id = $1 AND user_id = $2)`
	if err := q.GetContext(ctx, &exists, query, listingID, userID); err != nil {
		return false, fmt.Errorf("failed to check like on listing %s: %w", listingID, err)
	}
	return exists, nil
}

// AddLike records a like. The primary key makes a repeated like a no-op.
func (r *LikeRepository) AddLike(ctx context.Context, q repository.DBExecutor, listingID, userID uuid.UUID) error {
	query := `INSERT INTO listing_likes (listing_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := q.ExecContext(ctx, query, listingID, userID); err != nil {
		return fmt.Errorf("failed to like listing %s: %w", listingID, err)
	}
	return nil
}

// RemoveLike deletes the user's like on the listing, if any.
func (r *LikeRepository) RemoveLike(ctx context.Context, q repository.DBExecutor, listingID, userID uuid.UUID) error {
	query := `DELETE FROM listing_likes WHERE listing_id = $1 AND user_id = $2`
	if _, err := q.ExecContext(ctx, query, listingID, userID); err != nil {
		return fmt.Errorf("failed to unlike listing %s: %w", listingID, err)
	}
	return nil
}

// CountLikes returns the number of users liking the listing.
func (r *LikeRepository) CountLikes(ctx context.Context, q repository.DBExecutor, listingID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM listing_likes WHERE listing_id = $1`
	if err := q.GetContext(ctx, &count, query, listingID); err != nil {
		return 0, fmt.Errorf("failed to count likes on listing %s: %w", listingID, err)
	}
	return count, nil
}
