// internal/service/listing_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bidmarket/internal/domain"
	"bidmarket/internal/metrics"
	"bidmarket/internal/repository"
	"bidmarket/internal/util"
)

// ListingService defines the interface for listing lifecycle operations.
type ListingService interface {
	CreateListing(ctx context.Context, actor domain.Actor, in CreateListingInput) (*domain.Listing, error)
	UpdateListing(ctx context.Context, actor domain.Actor, id uuid.UUID, in UpdateListingInput) (*domain.Listing, error)
	ApproveListing(ctx context.Context, admin domain.Actor, id uuid.UUID) (*domain.Listing, error)
	RejectListing(ctx context.Context, admin domain.Actor, id uuid.UUID, reason string) (*domain.Listing, error)
	MarkSold(ctx context.Context, seller domain.Actor, id uuid.UUID, buyerID uuid.UUID) (*domain.Listing, error)
	GetListing(ctx context.Context, id uuid.UUID) (*domain.Listing, error)
	ListPending(ctx context.Context, admin domain.Actor) ([]domain.Listing, error)
	CountByOwner(ctx context.Context, actor domain.Actor, ownerID uuid.UUID) (*ListingCounts, error)
	DeleteListing(ctx context.Context, actor domain.Actor, id uuid.UUID, reason string) error
	ListListings(ctx context.Context) ([]domain.ListingSummary, error)
	ToggleLike(ctx context.Context, actor domain.Actor, id uuid.UUID) (*LikeResult, error)
}

// CreateListingInput carries the fields of a new listing.
// OwnerID and Status are honoured for administrators only.
type CreateListingInput struct {
	Title       string
	Description string
	ImageURLs   []string
	Category    string
	Price       decimal.Decimal
	Currency    string
	Quantity    int
	OwnerID     *uuid.UUID
	Status      *string
}

// UpdateListingInput carries a partial update; nil fields are left unchanged.
type UpdateListingInput struct {
	Title       *string
	Description *string
	ImageURLs   []string
	Category    *string
	Price       *decimal.Decimal
	Currency    *string
	Quantity    *int
	OwnerID     *uuid.UUID
	Status      *string
}

// ListingCounts is the per-status summary of one owner's listings.
type ListingCounts struct {
	Approved int `json:"approvedCount"`
	Pending  int `json:"pendingCount"`
	Rejected int `json:"rejectedCount"`
}

// LikeResult reports a listing's like state after a toggle.
type LikeResult struct {
	LikesCount int  `json:"likesCount"`
	UserLiked  bool `json:"userLiked"`
}

var (
	errListingNotFound = util.NewDomainError(util.ErrNotFound, "Listing not found.")
	errNotListingOwner = util.NewDomainError(util.ErrForbidden, "Forbidden: you can only modify your own listings.")
	errAdminOnly       = util.NewDomainError(util.ErrForbidden, "Forbidden: only administrators can change listing status.")
)

// listingService implements the ListingService interface.
type listingService struct {
	tx          txRunner
	userRepo    repository.UserRepository
	listingRepo repository.ListingRepository
	bidRepo     repository.BidRepository
	likeRepo    repository.LikeRepository
	dispatcher  IntentDispatcher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewListingService creates a new instance of ListingService.
func NewListingService(
	deps TxDeps,
	userRepo repository.UserRepository,
	listingRepo repository.ListingRepository,
	bidRepo repository.BidRepository,
	likeRepo repository.LikeRepository,
	dispatcher IntentDispatcher,
	logger *slog.Logger,
	m *metrics.Metrics,
) ListingService {
	logger = logger.With("component", "listing_service")
	return &listingService{
		tx:          txRunner{TxDeps: deps, logger: logger, metrics: m},
		userRepo:    userRepo,
		listingRepo: listingRepo,
		bidRepo:     bidRepo,
		likeRepo:    likeRepo,
		dispatcher:  dispatcher,
		logger:      logger,
		metrics:     m,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateListing stores a new listing. Vendors always start pending and every administrator is told;
// administrators start approved unless they ask for another status.
func (s *listingService) CreateListing(ctx context.Context, actor domain.Actor, in CreateListingInput) (*domain.Listing, error) {
	ownerID := actor.UserID
	if in.OwnerID != nil && *in.OwnerID != actor.UserID {
		if !actor.IsAdmin() {
			return nil, util.NewDomainError(util.ErrUnauthorized, "Unauthorized: vendors can only create listings for themselves.")
		}
		ownerID = *in.OwnerID
	}

	status := domain.StatusPending
	if actor.IsAdmin() {
		status = domain.StatusApproved
	}
	if in.Status != nil {
		if !actor.IsAdmin() {
			return nil, util.NewDomainError(util.ErrUnauthorized, "Unauthorized: only administrators can set listing status.")
		}
		requested, err := domain.ParseRequestedStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		status = requested
	}

	currency := domain.BaseCurrency
	if in.Currency != "" {
		parsed, err := domain.ParseCurrency(in.Currency)
		if err != nil {
			return nil, err
		}
		currency = parsed
	}

	now := s.now()
	listing := &domain.Listing{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		ImageURLs:   in.ImageURLs,
		Category:    in.Category,
		Price:       in.Price,
		Currency:    currency,
		Quantity:    in.Quantity,
		OwnerID:     ownerID,
		Status:      status,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
		Bids:        []domain.Bid{},
	}
	if err := listing.Validate(); err != nil {
		return nil, err
	}
	if status == domain.StatusApproved {
		listing.Approve(actor.UserID, now)
	}

	var intents []domain.NotificationIntent
	err := s.tx.inTx(ctx, "create_listing", func(q repository.DBExecutor) error {
		intents = nil
		if ownerID != actor.UserID {
			if err := s.requireOwner(ctx, q, ownerID); err != nil {
				return fmt.Errorf("create listing: %w", err)
			}
		}
		if err := s.listingRepo.CreateListing(ctx, q, listing); err != nil {
			return fmt.Errorf("create listing: %w", err)
		}
		if !actor.IsAdmin() {
			adminIDs, err := s.userRepo.ListAdminIDs(ctx, q)
			if err != nil {
				return fmt.Errorf("create listing: %w", err)
			}
			intents = domain.NewListingPendingIntents(adminIDs, actor, listing)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, listing, "", intents)
	return listing, nil
}

// UpdateListing applies a partial update. A vendor editing an approved listing sends it back to pending;
// an administrator may also override the status.
func (s *listingService) UpdateListing(ctx context.Context, actor domain.Actor, id uuid.UUID, in UpdateListingInput) (*domain.Listing, error) {
	var requested domain.Status
	if in.Status != nil {
		if !actor.IsAdmin() {
			return nil, errAdminOnly
		}
		parsed, err := domain.ParseRequestedStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		requested = parsed
	}

	var (
		listing  *domain.Listing
		previous domain.Status
		intents  []domain.NotificationIntent
	)
	err := s.tx.inTx(ctx, "update_listing", func(q repository.DBExecutor) error {
		intents = nil
		var err error
		listing, err = s.lockListing(ctx, q, id)
		if err != nil {
			return err
		}
		if !listing.IsOwnedBy(actor.UserID) && !actor.IsAdmin() {
			return errNotListingOwner
		}
		if in.OwnerID != nil && *in.OwnerID != listing.OwnerID {
			if !actor.IsAdmin() {
				return util.NewDomainError(util.ErrForbidden, "Forbidden: only administrators can change a listing's owner.")
			}
			if err := s.requireOwner(ctx, q, *in.OwnerID); err != nil {
				return fmt.Errorf("update listing: %w", err)
			}
		}

		trigger := domain.TriggerEdit
		if requested != "" {
			if trigger, err = domain.OverrideTrigger(requested); err != nil {
				return err
			}
		}
		next, err := domain.NextStatus(listing.Status, trigger, actor.Role)
		if err != nil {
			return err
		}

		previous = listing.Status
		applyUpdate(listing, in)
		if in.Currency != nil {
			if listing.Currency, err = domain.ParseCurrency(*in.Currency); err != nil {
				return err
			}
		}

		switch {
		case trigger == domain.TriggerEdit && next == domain.StatusPending && previous == domain.StatusApproved:
			listing.ResetToPending()
			adminIDs, err := s.userRepo.ListAdminIDs(ctx, q)
			if err != nil {
				return fmt.Errorf("update listing: %w", err)
			}
			intents = domain.ListingUpdatePendingIntents(adminIDs, actor, listing)
		case next == domain.StatusApproved && previous != domain.StatusApproved:
			listing.Approve(actor.UserID, s.now())
		default:
			listing.Status = next
		}

		if err := listing.Validate(); err != nil {
			return err
		}
		if err := s.listingRepo.UpdateListing(ctx, q, listing); err != nil {
			return fmt.Errorf("update listing: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, listing, previous, intents)
	return listing, nil
}

func applyUpdate(listing *domain.Listing, in UpdateListingInput) {
	if in.Title != nil {
		listing.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		listing.Description = strings.TrimSpace(*in.Description)
	}
	if in.ImageURLs != nil {
		listing.ImageURLs = in.ImageURLs
	}
	if in.Category != nil {
		listing.Category = *in.Category
	}
	if in.Price != nil {
		listing.Price = *in.Price
	}
	if in.Quantity != nil {
		listing.Quantity = *in.Quantity
	}
	if in.OwnerID != nil {
		listing.OwnerID = *in.OwnerID
	}
}

// ApproveListing moves a pending listing to approved and tells its owner.
func (s *listingService) ApproveListing(ctx context.Context, admin domain.Actor, id uuid.UUID) (*domain.Listing, error) {
	if !admin.IsAdmin() {
		return nil, errAdminOnly
	}

	var (
		listing *domain.Listing
		intents []domain.NotificationIntent
	)
	err := s.tx.inTx(ctx, "approve_listing", func(q repository.DBExecutor) error {
		intents = nil
		var err error
		if listing, err = s.lockListing(ctx, q, id); err != nil {
			return err
		}
		if _, err := domain.NextStatus(listing.Status, domain.TriggerApprove, admin.Role); err != nil {
			return err
		}
		listing.Approve(admin.UserID, s.now())
		if err := s.listingRepo.UpdateListing(ctx, q, listing); err != nil {
			return fmt.Errorf("approve listing: %w", err)
		}
		if !listing.IsOwnedBy(admin.UserID) {
			intents = append(intents, domain.ListingApprovedIntent(admin, listing))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, listing, domain.StatusPending, intents)
	return listing, nil
}

// RejectListing moves a pending listing to rejected and tells its owner why.
func (s *listingService) RejectListing(ctx context.Context, admin domain.Actor, id uuid.UUID, reason string) (*domain.Listing, error) {
	if !admin.IsAdmin() {
		return nil, errAdminOnly
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, util.NewDomainError(util.ErrInvalidInput, "Rejection reason is required.")
	}

	var (
		listing *domain.Listing
		intents []domain.NotificationIntent
	)
	err := s.tx.inTx(ctx, "reject_listing", func(q repository.DBExecutor) error {
		intents = nil
		var err error
		if listing, err = s.lockListing(ctx, q, id); err != nil {
			return err
		}
		next, err := domain.NextStatus(listing.Status, domain.TriggerReject, admin.Role)
		if err != nil {
			return err
		}
		listing.Status = next
		if err := s.listingRepo.UpdateListing(ctx, q, listing); err != nil {
			return fmt.Errorf("reject listing: %w", err)
		}
		intents = append(intents, domain.ListingRejectedIntent(admin, listing, reason))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, listing, domain.StatusPending, intents)
	return listing, nil
}

// MarkSold closes an approved listing for buyerID. Only the listing's owner may sell it.
func (s *listingService) MarkSold(ctx context.Context, seller domain.Actor, id uuid.UUID, buyerID uuid.UUID) (*domain.Listing, error) {
	if buyerID == uuid.Nil {
		return nil, util.NewDomainError(util.ErrInvalidInput, "Buyer is required.")
	}
	if buyerID == seller.UserID {
		return nil, util.NewDomainError(util.ErrInvalidInput, "A listing cannot be sold to its own seller.")
	}

	var listing *domain.Listing
	err := s.tx.inTx(ctx, "mark_sold", func(q repository.DBExecutor) error {
		var err error
		if listing, err = s.lockListing(ctx, q, id); err != nil {
			return err
		}
		if !listing.IsOwnedBy(seller.UserID) {
			return util.NewDomainError(util.ErrForbidden, "Forbidden: only the seller can mark a listing as sold.")
		}
		if _, err := domain.NextStatus(listing.Status, domain.TriggerMarkSold, seller.Role); err != nil {
			return err
		}
		if _, err := s.userRepo.GetUserByID(ctx, q, buyerID); err != nil {
			if errors.Is(err, util.ErrNotFound) {
				return util.NewDomainError(util.ErrInvalidInput, "Buyer not found.")
			}
			return fmt.Errorf("mark sold: failed to get buyer %s: %w", buyerID, err)
		}
		listing.MarkSold(buyerID, s.now())
		if err := listing.Validate(); err != nil {
			return err
		}
		if err := s.listingRepo.UpdateListing(ctx, q, listing); err != nil {
			return fmt.Errorf("mark sold: %w", err)
		}
		if err := s.userRepo.IncrementSoldCount(ctx, q, listing.OwnerID); err != nil {
			return fmt.Errorf("mark sold: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, listing, domain.StatusApproved, nil)
	return listing, nil
}

// GetListing returns a listing with its bids, highest first.
func (s *listingService) GetListing(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	listing, err := s.listingRepo.GetListingByID(ctx, s.tx.DBExecutor, id)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, errListingNotFound
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	bids, err := s.bidRepo.ListBidsByListingID(ctx, s.tx.DBExecutor, id)
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	domain.SortBids(bids)
	listing.Bids = bids
	return listing, nil
}

// ListPending returns listings awaiting moderation, oldest first.
func (s *listingService) ListPending(ctx context.Context, admin domain.Actor) ([]domain.Listing, error) {
	if !admin.IsAdmin() {
		return nil, util.NewDomainError(util.ErrForbidden, "Forbidden: only administrators can view pending listings.")
	}
	listings, err := s.listingRepo.ListListingsByStatus(ctx, s.tx.DBExecutor, domain.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return listings, nil
}

// CountByOwner summarises an owner's listings. Vendors may only see their own counts.
func (s *listingService) CountByOwner(ctx context.Context, actor domain.Actor, ownerID uuid.UUID) (*ListingCounts, error) {
	if !actor.IsAdmin() && actor.UserID != ownerID {
		return nil, util.NewDomainError(util.ErrForbidden, "Forbidden: you can only view your own listing counts.")
	}
	counts, err := s.listingRepo.CountListingsByOwner(ctx, s.tx.DBExecutor, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count by owner: %w", err)
	}
	return &ListingCounts{
		Approved: counts[domain.StatusApproved],
		Pending:  counts[domain.StatusPending],
		Rejected: counts[domain.StatusRejected],
	}, nil
}

// DeleteListing removes a listing. When an administrator removes someone else's listing the owner is told why.
func (s *listingService) DeleteListing(ctx context.Context, actor domain.Actor, id uuid.UUID, reason string) error {
	var intents []domain.NotificationIntent
	err := s.tx.inTx(ctx, "delete_listing", func(q repository.DBExecutor) error {
		intents = nil
		listing, err := s.lockListing(ctx, q, id)
		if err != nil {
			return err
		}
		owned := listing.IsOwnedBy(actor.UserID)
		if !owned && !actor.IsAdmin() {
			return util.NewDomainError(util.ErrForbidden, "Forbidden: you can only delete your own listings.")
		}
		if err := s.listingRepo.DeleteListing(ctx, q, id); err != nil {
			return fmt.Errorf("delete listing: %w", err)
		}
		if !owned {
			intents = append(intents, domain.ListingDeletedIntent(actor, listing, strings.TrimSpace(reason)))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Listing deleted", "listing_id", id, "actor_id", actor.UserID)
	s.dispatcher.Dispatch(ctx, intents)
	return nil
}

// ListListings returns the public catalogue, newest first.
func (s *listingService) ListListings(ctx context.Context) ([]domain.ListingSummary, error) {
	listings, err := s.listingRepo.ListListings(ctx, s.tx.DBExecutor)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return listings, nil
}

// ToggleLike likes the listing for actor, or removes the like if it is already there.
func (s *listingService) ToggleLike(ctx context.Context, actor domain.Actor, id uuid.UUID) (*LikeResult, error) {
	var result LikeResult
	err := s.tx.inTx(ctx, "toggle_like", func(q repository.DBExecutor) error {
		result = LikeResult{}
		if _, err := s.lockListing(ctx, q, id); err != nil {
			return err
		}
		liked, err := s.likeRepo.HasLike(ctx, q, id, actor.UserID)
		if err != nil {
			return fmt.Errorf("toggle like: %w", err)
		}
		if liked {
			err = s.likeRepo.RemoveLike(ctx, q, id, actor.UserID)
		} else {
			err = s.likeRepo.AddLike(ctx, q, id, actor.UserID)
		}
		if err != nil {
			return fmt.Errorf("toggle like: %w", err)
		}
		count, err := s.likeRepo.CountLikes(ctx, q, id)
		if err != nil {
			return fmt.Errorf("toggle like: %w", err)
		}
		result = LikeResult{LikesCount: count, UserLiked: !liked}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Listing like toggled", "listing_id", id, "user_id", actor.UserID, "liked", result.UserLiked)
	return &result, nil
}

func (s *listingService) lockListing(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Listing, error) {
	listing, err := s.listingRepo.GetListingForUpdate(ctx, q, id)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, errListingNotFound
		}
		return nil, fmt.Errorf("failed to lock listing %s: %w", id, err)
	}
	return listing, nil
}

// requireOwner checks that a listing can be assigned to ownerID.
func (s *listingService) requireOwner(ctx context.Context, q repository.DBExecutor, ownerID uuid.UUID) error {
	if _, err := s.userRepo.GetUserByID(ctx, q, ownerID); err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return util.NewDomainError(util.ErrInvalidInput, "Owner not found.")
		}
		return fmt.Errorf("failed to get owner %s: %w", ownerID, err)
	}
	return nil
}

func (s *listingService) committed(ctx context.Context, listing *domain.Listing, previous domain.Status, intents []domain.NotificationIntent) {
	if listing.Status != previous {
		s.metrics.IncTransition(string(listing.Status))
		s.logger.Info("Listing status changed", "listing_id", listing.ID, "from", previous, "to", listing.Status)
	}
	s.dispatcher.Dispatch(ctx, intents)
}
