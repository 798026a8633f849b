// internal/repository/listing_repo.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"bidmarket/internal/domain"
)

// ListingRepository defines the interface for listing data operations.
type ListingRepository interface {
	// CreateListing inserts a new listing.
	CreateListing(ctx context.Context, q DBExecutor, listing *domain.Listing) error
	// GetListingByID reads a listing without locking it.
	GetListingByID(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.Listing, error)
	// GetListingForUpdate reads a listing and locks its row until the surrounding transaction ends.
	GetListingForUpdate(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.Listing, error)
	// UpdateListing writes every mutable field and bumps the version, failing on a stale version.
	UpdateListing(ctx context.Context, q DBExecutor, listing *domain.Listing) error
	// DeleteListing removes a listing and its bids.
	DeleteListing(ctx context.Context, q DBExecutor, id uuid.UUID) error
	// ListListingsByStatus returns listings in the given status, oldest first.
	ListListingsByStatus(ctx context.Context, q DBExecutor, status domain.Status) ([]domain.Listing, error)
	// CountListingsByOwner returns per-status listing counts for an owner.
	CountListingsByOwner(ctx context.Context, q DBExecutor, ownerID uuid.UUID) (map[domain.Status]int, error)
	// ListListings returns every listing, newest first, with its owner and like count resolved.
	ListListings(ctx context.Context, q DBExecutor) ([]domain.ListingSummary, error)
}

// LikeRepository records which users like which listings.
type LikeRepository interface {
	// HasLike reports whether userID likes listingID.
	HasLike(ctx context.Context, q DBExecutor, listingID, userID uuid.UUID) (bool, error)
	// AddLike records a like; adding an existing like is a no-op.
	AddLike(ctx context.Context, q DBExecutor, listingID, userID uuid.UUID) error
	// RemoveLike deletes a like if present.
	RemoveLike(ctx context.Context, q DBExecutor, listingID, userID uuid.UUID) error
	// CountLikes returns how many users like listingID.
	CountLikes(ctx context.Context, q DBExecutor, listingID uuid.UUID) (int, error)
}

// BidRepository defines the interface for the append-only bid ledger.
type BidRepository interface {
	// ListBidsByListingID returns a listing's bids, highest amount first, with bidder names resolved.
	ListBidsByListingID(ctx context.Context, q DBExecutor, listingID uuid.UUID) ([]domain.Bid, error)
	// CreateBid appends a bid to a listing.
	CreateBid(ctx context.Context, q DBExecutor, listingID uuid.UUID, bid *domain.Bid) error
}

// NotificationRepository persists notification intents.
type NotificationRepository interface {
	// InsertNotifications stores intents; already-stored ids are skipped so redelivery is harmless.
	InsertNotifications(ctx context.Context, q DBExecutor, intents []domain.NotificationIntent) error
}
