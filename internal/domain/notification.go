// internal/domain/notification.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// EventType identifies what a notification is about.
type EventType string

const (
	EventNewListingPending    EventType = "NEW_LISTING_PENDING"
	EventListingUpdatePending EventType = "LISTING_UPDATE_PENDING"
	EventListingApproved      EventType = "LISTING_APPROVED"
	EventListingRejected      EventType = "LISTING_REJECTED"
	EventNewBid               EventType = "NEW_BID"
	EventListingDeleted       EventType = "LISTING_DELETED"
)

// RelatedModelListing is the model name stored with listing-related notifications.
const RelatedModelListing = "Listing"

// NotificationIntent describes a notification the core wants delivered.
// The ULID id lets the emitter insert it idempotently when delivery is retried.
type NotificationIntent struct {
	ID           ulid.ULID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Type         EventType `json:"type"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	RelatedID    uuid.UUID `json:"related_id"`
	RelatedModel string    `json:"related_model"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewNotificationIntent builds an intent about a listing.
func NewNotificationIntent(userID uuid.UUID, eventType EventType, title, message string, listingID uuid.UUID) NotificationIntent {
	return NotificationIntent{
		ID:           ulid.Make(),
		UserID:       userID,
		Type:         eventType,
		Title:        title,
		Message:      message,
		RelatedID:    listingID,
		RelatedModel: RelatedModelListing,
		CreatedAt:    time.Now().UTC(),
	}
}

// NewListingPendingIntents fans a new vendor submission out to every administrator.
func NewListingPendingIntents(adminIDs []uuid.UUID, vendor Actor, listing *Listing) []NotificationIntent {
	intents := make([]NotificationIntent, 0, len(adminIDs))
	for _, adminID := range adminIDs {
		intents = append(intents, NewNotificationIntent(adminID, EventNewListingPending,
			"New Listing Pending Approval",
			fmt.Sprintf("Vendor %q submitted a new listing %q for approval.", vendor.DisplayName(), listing.DisplayTitle()),
			listing.ID))
	}
	return intents
}

// ListingUpdatePendingIntents tells every administrator an approved listing needs re-approval.
func ListingUpdatePendingIntents(adminIDs []uuid.UUID, vendor Actor, listing *Listing) []NotificationIntent {
	intents := make([]NotificationIntent, 0, len(adminIDs))
	for _, adminID := range adminIDs {
		intents = append(intents, NewNotificationIntent(adminID, EventListingUpdatePending,
			"Listing Update Requires Re-Approval",
			fmt.Sprintf("Vendor %q updated an approved listing %q. It is now pending re-approval.", vendor.DisplayName(), listing.DisplayTitle()),
			listing.ID))
	}
	return intents
}

// ListingApprovedIntent tells the owner their listing was approved.
func ListingApprovedIntent(admin Actor, listing *Listing) NotificationIntent {
	return NewNotificationIntent(listing.OwnerID, EventListingApproved,
		fmt.Sprintf("Listing Approved: %s", listing.DisplayTitle()),
		fmt.Sprintf("Congratulations! Your listing %q has been approved by administrator %q.", listing.DisplayTitle(), admin.DisplayName()),
		listing.ID)
}

// ListingRejectedIntent tells the owner their listing was rejected and why.
func ListingRejectedIntent(admin Actor, listing *Listing, reason string) NotificationIntent {
	return NewNotificationIntent(listing.OwnerID, EventListingRejected,
		fmt.Sprintf("Listing Rejected: %s", listing.DisplayTitle()),
		fmt.Sprintf("Unfortunately, your listing %q was rejected by administrator %q. Reason: %s", listing.DisplayTitle(), admin.DisplayName(), reason),
		listing.ID)
}

// ListingDeletedIntent tells the owner an administrator removed their listing.
func ListingDeletedIntent(admin Actor, listing *Listing, reason string) NotificationIntent {
	if reason == "" {
		reason = "No specific reason provided."
	}
	return NewNotificationIntent(listing.OwnerID, EventListingDeleted,
		fmt.Sprintf("Listing Deleted: %s", listing.DisplayTitle()),
		fmt.Sprintf("Your listing %q was deleted by administrator %q. Reason: %s", listing.DisplayTitle(), admin.DisplayName(), reason),
		listing.ID)
}

// NewBidIntent tells the owner someone bid on their listing.
func NewBidIntent(bidder Actor, listing *Listing, amount decimal.Decimal) NotificationIntent {
	return NewNotificationIntent(listing.OwnerID, EventNewBid,
		"New Bid Received!",
		fmt.Sprintf("User %q placed a bid of %s %s on your listing %q.", bidder.DisplayName(), amount.StringFixed(2), listing.Currency, listing.DisplayTitle()),
		listing.ID)
}
