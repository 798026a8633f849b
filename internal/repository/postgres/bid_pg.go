// internal/repository/postgres/bid_pg.go
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bidmarket/internal/domain"
	"bidmarket/internal/repository"
)

// BidRepository implements repository.BidRepository for PostgreSQL.
type BidRepository struct{}

// NewBidRepository creates a new BidRepository.
func NewBidRepository(db *sqlx.DB) repository.BidRepository {
	return &BidRepository{}
}

// ListBidsByListingID returns bids ordered by amount, highest first.
// Equal amounts keep the order they were placed in.
func (r *BidRepository) ListBidsByListingID(ctx context.Context, q repository.DBExecutor, listingID uuid.UUID) ([]domain.Bid, error) {
	bids := []domain.Bid{}
	query := `SELECT b.bidder_id, COALESCE(u.full_name, '') AS bidder_name, b.amount, b.currency, b.created_at
              FROM bids b
              LEFT JOIN users u ON u.id = b.bidder_id
              WHERE b.listing_id = $1
              ORDER BY b.amount DESC, b.seq ASC`
	if err := q.SelectContext(ctx, &bids, query, listingID); err != nil {
		return nil, fmt.Errorf("failed to list bids for listing %s: %w", listingID, err)
	}
	return bids, nil
}

// CreateBid appends a bid to the listing's ledger.
func (r *BidRepository) CreateBid(ctx context.Context, q repository.DBExecutor, listingID uuid.UUID, bid *domain.Bid) error {
	query := `INSERT INTO bids (listing_id, bidder_id, amount, currency, created_at)
              VALUES ($1, $2, $3, $4, $5)`
	_, err := q.ExecContext(ctx, query, listingID, bid.BidderID, bid.Amount, bid.Currency, bid.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bid on listing %s: %w", listingID, err)
	}
	return nil
}
