// internal/repository/postgres/listing_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"bidmarket/internal/domain"
	"bidmarket/internal/repository"
	"bidmarket/internal/util"
	"bidmarket/pkg/db"
)

const listingColumns = `id, title, description, image_urls, category, price, currency, quantity, owner_id,
	status, approved_by, approved_at, sold, buyer_id, sold_at, version, created_at, updated_at`

// listingRow adds the array column sqlx cannot map onto a plain []string.
type listingRow struct {
	domain.Listing
	ImageURLs pq.StringArray `db:"image_urls"`
}

func (r *listingRow) toDomain() *domain.Listing {
	l := r.Listing
	l.ImageURLs = []string(r.ImageURLs)
	return &l
}

// ListingRepository implements repository.ListingRepository for PostgreSQL.
type ListingRepository struct{}

// NewListingRepository creates a new ListingRepository.
func NewListingRepository(db *sqlx.DB) repository.ListingRepository {
	return &ListingRepository{}
}

// CreateListing inserts a new listing using the provided DBExecutor.
func (r *ListingRepository) CreateListing(ctx context.Context, q repository.DBExecutor, l *domain.Listing) error {
	query := `INSERT INTO listings (` + listingColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := q.ExecContext(ctx, query,
		l.ID, l.Title, l.Description, pq.Array(l.ImageURLs), l.Category, l.Price, l.Currency, l.Quantity, l.OwnerID,
		l.Status, l.ApprovedBy, l.ApprovedAt, l.Sold, l.BuyerID, l.SoldAt, l.Version, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

// GetListingByID retrieves a listing by its ID using the provided DBExecutor.
func (r *ListingRepository) GetListingByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Listing, error) {
	return r.get(ctx, q, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
}

// GetListingForUpdate retrieves a listing and holds its row lock until the transaction ends.
// Concurrent mutators of the same listing queue behind it.
func (r *ListingRepository) GetListingForUpdate(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Listing, error) {
	return r.get(ctx, q, `SELECT `+listingColumns+` FROM listings WHERE id = $1 FOR UPDATE`, id)
}

func (r *ListingRepository) get(ctx context.Context, q repository.DBExecutor, query string, id uuid.UUID) (*domain.Listing, error) {
	var row listingRow
	if err := q.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing by ID %s: %w", id, err)
	}
	return row.toDomain(), nil
}

// UpdateListing writes the listing back if nobody else changed it since it was read.
// On success the listing's Version and UpdatedAt reflect the stored row.
func (r *ListingRepository) UpdateListing(ctx context.Context, q repository.DBExecutor, l *domain.Listing) error {
	now := time.Now().UTC()
	query := `UPDATE listings SET title = $1, description = $2, image_urls = $3, category = $4, price = $5,
              currency = $6, quantity = $7, status = $8, approved_by = $9, approved_at = $10, sold = $11,
              buyer_id = $12, sold_at = $13, version = version + 1, updated_at = $14
              WHERE id = $15 AND version = $16`
	result, err := q.ExecContext(ctx, query,
		l.Title, l.Description, pq.Array(l.ImageURLs), l.Category, l.Price,
		l.Currency, l.Quantity, l.Status, l.ApprovedBy, l.ApprovedAt, l.Sold,
		l.BuyerID, l.SoldAt, now, l.ID, l.Version)
	if err != nil {
		return fmt.Errorf("failed to update listing %s: %w", l.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after updating listing %s: %w", l.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("listing %s at version %d: %w", l.ID, l.Version, db.ErrStaleWrite)
	}
	l.Version++
	l.UpdatedAt = now
	return nil
}

// DeleteListing removes a listing; its bids go with it through the foreign key.
func (r *ListingRepository) DeleteListing(ctx context.Context, q repository.DBExecutor, id uuid.UUID) error {
	result, err := q.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after deleting listing %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}

// ListListingsByStatus returns every listing in status, oldest first.
func (r *ListingRepository) ListListingsByStatus(ctx context.Context, q repository.DBExecutor, status domain.Status) ([]domain.Listing, error) {
	var rows []listingRow
	query := `SELECT ` + listingColumns + ` FROM listings WHERE status = $1 ORDER BY created_at ASC`
	if err := q.SelectContext(ctx, &rows, query, status); err != nil {
		return nil, fmt.Errorf("failed to list %s listings: %w", status, err)
	}
	listings := make([]domain.Listing, 0, len(rows))
	for i := range rows {
		listings = append(listings, *rows[i].toDomain())
	}
	return listings, nil
}

// CountListingsByOwner returns how many listings an owner has in each status.
// Statuses with no listings are absent from the map.
func (r *ListingRepository) CountListingsByOwner(ctx context.Context, q repository.DBExecutor, ownerID uuid.UUID) (map[domain.Status]int, error) {
	var rows []struct {
		Status domain.Status `db:"status"`
		Count  int           `db:"count"`
	}
	query := `SELECT status, COUNT(*) AS count FROM listings WHERE owner_id = $1 GROUP BY status`
	if err := q.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to count listings for owner %s: %w", ownerID, err)
	}
	counts := make(map[domain.Status]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// summaryRow is a listing joined with its owner and like count.
type summaryRow struct {
	listingRow
	OwnerFullName string `db:"owner_full_name"`
	OwnerEmail    string `db:"owner_email"`
	LikesCount    int    `db:"likes_count"`
}

// ListListings returns the whole catalogue, newest first.
// A listing whose owner row is missing is still returned with an empty name and email.
func (r *ListingRepository) ListListings(ctx context.Context, q repository.DBExecutor) ([]domain.ListingSummary, error) {
	var rows []summaryRow
	query := `SELECT ` + listingColumns + `,
              COALESCE((SELECT u.full_name FROM users u WHERE u.id = listings.owner_id), '') AS owner_full_name,
              COALESCE((SELECT u.email FROM users u WHERE u.id = listings.owner_id), '') AS owner_email,
              (SELECT COUNT(*) FROM listing_likes k WHERE k.listing_id = listings.id) AS likes_count
              FROM listings ORDER BY created_at DESC, id`
	if err := q.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	summaries := make([]domain.ListingSummary, 0, len(rows))
	for i := range rows {
		l := rows[i].toDomain()
		summaries = append(summaries, domain.ListingSummary{
			Listing: *l,
			Owner: domain.ListingOwner{
				ID:       l.OwnerID,
				FullName: rows[i].OwnerFullName,
				Email:    rows[i].OwnerEmail,
			},
			LikesCount: rows[i].LikesCount,
		})
	}
	return summaries, nil
}
