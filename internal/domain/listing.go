// internal/domain/listing.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bidmarket/internal/util"
)

// Status is the moderation state of a listing.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusSold     Status = "sold"
)

// ParseRequestedStatus validates a status supplied directly by an administrator.
// Only the three moderation states may be requested; sold is reachable through MarkSold alone.
func ParseRequestedStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(s), nil
	default:
		return "", util.NewDomainError(util.ErrInvalidInput, "Invalid status value.")
	}
}

// Listing is a sellable item moderated by administrators.
type Listing struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	ImageURLs   []string        `db:"-" json:"image_urls"`
	Category    string          `db:"category" json:"category,omitempty"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Currency    Currency        `db:"currency" json:"currency"`
	Quantity    int             `db:"quantity" json:"quantity"`
	OwnerID     uuid.UUID       `db:"owner_id" json:"owner_id"`
	Status      Status          `db:"status" json:"status"`
	ApprovedBy  *uuid.UUID      `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt  *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	Sold        bool            `db:"sold" json:"sold"`
	BuyerID     *uuid.UUID      `db:"buyer_id" json:"buyer_id,omitempty"`
	SoldAt      *time.Time      `db:"sold_at" json:"sold_at,omitempty"`
	Version     int64           `db:"version" json:"version"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
	Bids        []Bid           `db:"-" json:"bids"`
}

// ListingOwner is the public view of a listing's owner.
type ListingOwner struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
}

// ListingSummary is a listing as shown in the public catalogue.
type ListingSummary struct {
	Listing
	Owner      ListingOwner `json:"owner"`
	LikesCount int          `json:"likes_count"`
}

// Bid is a monetary offer recorded against a listing, in the listing's currency.
type Bid struct {
	BidderID   uuid.UUID       `db:"bidder_id" json:"bidder_id"`
	BidderName string          `db:"bidder_name" json:"bidder_name"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Currency   Currency        `db:"currency" json:"currency"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// IsOwnedBy reports whether userID owns the listing.
func (l *Listing) IsOwnedBy(userID uuid.UUID) bool {
	return l.OwnerID == userID
}

// DisplayTitle returns the title used in notification text.
func (l *Listing) DisplayTitle() string {
	if strings.TrimSpace(l.Title) == "" {
		return "Untitled"
	}
	return l.Title
}

// Approve records the approver and moves the listing to approved.
func (l *Listing) Approve(adminID uuid.UUID, at time.Time) {
	l.Status = StatusApproved
	l.ApprovedBy = &adminID
	l.ApprovedAt = &at
}

// ResetToPending clears the approval trail after a vendor edit.
func (l *Listing) ResetToPending() {
	l.Status = StatusPending
	l.ApprovedBy = nil
	l.ApprovedAt = nil
}

// MarkSold closes the listing for the given buyer.
func (l *Listing) MarkSold(buyerID uuid.UUID, at time.Time) {
	l.Status = StatusSold
	l.Sold = true
	l.BuyerID = &buyerID
	l.SoldAt = &at
	l.Quantity = 0
}

// Validate checks the field-level rules shared by create and update.
func (l *Listing) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return util.NewDomainError(util.ErrInvalidInput, "Title is required.")
	}
	if strings.TrimSpace(l.Description) == "" {
		return util.NewDomainError(util.ErrInvalidInput, "Description is required.")
	}
	if len(l.ImageURLs) == 0 {
		return util.NewDomainError(util.ErrInvalidInput, "Invalid image data.")
	}
	if l.Price.IsNegative() || !FitsAmountScale(l.Price) {
		return util.NewDomainError(util.ErrInvalidInput, "Invalid price format.")
	}
	if _, err := ParseCurrency(string(l.Currency)); err != nil {
		return err
	}
	if l.Status == StatusSold {
		if l.Quantity != 0 || l.BuyerID == nil {
			return fmt.Errorf("%w: sold listing must have zero quantity and a buyer", util.ErrInvalidInput)
		}
		return nil
	}
	if l.Quantity < 1 {
		return util.NewDomainError(util.ErrInvalidInput, "Invalid quantity format.")
	}
	return nil
}
