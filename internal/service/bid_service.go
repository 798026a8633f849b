// internal/service/bid_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bidmarket/internal/domain"
	"bidmarket/internal/metrics"
	"bidmarket/internal/repository"
	"bidmarket/internal/util"
)

// BidService defines the interface for bid placement and bid reads.
type BidService interface {
	PlaceBid(ctx context.Context, bidder domain.Actor, listingID uuid.UUID, amount decimal.Decimal) ([]domain.Bid, error)
	GetBids(ctx context.Context, listingID uuid.UUID) ([]domain.Bid, error)
}

// BidRules holds the configured bidding thresholds.
// A zero MinimumParticipationBalance disables the participation check.
type BidRules struct {
	MinimumParticipationBalance decimal.Decimal
}

// DefaultBidRules returns the marketplace's standard thresholds: 6 base-currency units to take part in bidding.
func DefaultBidRules() BidRules {
	return BidRules{MinimumParticipationBalance: decimal.NewFromInt(6)}
}

// bidService implements the BidService interface.
type bidService struct {
	tx          txRunner
	userRepo    repository.UserRepository
	listingRepo repository.ListingRepository
	bidRepo     repository.BidRepository
	converter   *domain.CurrencyConverter
	rules       BidRules
	dispatcher  IntentDispatcher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewBidService creates a new instance of BidService.
func NewBidService(
	deps TxDeps,
	userRepo repository.UserRepository,
	listingRepo repository.ListingRepository,
	bidRepo repository.BidRepository,
	converter *domain.CurrencyConverter,
	rules BidRules,
	dispatcher IntentDispatcher,
	logger *slog.Logger,
	m *metrics.Metrics,
) BidService {
	logger = logger.With("component", "bid_service")
	return &bidService{
		tx:          txRunner{TxDeps: deps, logger: logger, metrics: m},
		userRepo:    userRepo,
		listingRepo: listingRepo,
		bidRepo:     bidRepo,
		converter:   converter,
		rules:       rules,
		dispatcher:  dispatcher,
		logger:      logger,
		metrics:     m,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// PlaceBid records a bid as one atomic unit and returns the listing's bids, highest first.
// The returned error's util.UserMessage is safe to show to the bidder.
func (s *bidService) PlaceBid(ctx context.Context, bidder domain.Actor, listingID uuid.UUID, amount decimal.Decimal) ([]domain.Bid, error) {
	if !amount.IsPositive() {
		s.metrics.IncBidRejected("invalid_amount")
		return nil, util.NewDomainError(util.ErrInvalidInput, "Invalid bid amount specified (must be a positive number).")
	}
	if !domain.FitsAmountScale(amount) {
		s.metrics.IncBidRejected("invalid_amount")
		return nil, util.NewDomainError(util.ErrInvalidInput,
			fmt.Sprintf("Invalid bid amount specified (at most %d decimal places).", domain.AmountScale))
	}

	var (
		bids    []domain.Bid
		intents []domain.NotificationIntent
	)
	err := s.tx.inTx(ctx, "place_bid", func(q repository.DBExecutor) error {
		bids, intents = nil, nil

		listing, err := s.listingRepo.GetListingForUpdate(ctx, q, listingID)
		if err != nil {
			return fmt.Errorf("place bid: failed to get listing %s: %w", listingID, err)
		}
		user, err := s.userRepo.GetUserByID(ctx, q, bidder.UserID)
		if err != nil {
			return fmt.Errorf("place bid: failed to get bidder %s: %w", bidder.UserID, err)
		}

		if listing.IsOwnedBy(bidder.UserID) {
			return util.NewDomainError(util.ErrSelfBid, "You cannot bid on your own listing.")
		}
		if listing.Status != domain.StatusApproved {
			return util.NewDomainError(util.ErrListingNotBiddable, "Bids can only be placed on approved listings.")
		}

		minimum := s.rules.MinimumParticipationBalance
		if user.Balance.LessThan(minimum) {
			return util.NewDomainError(util.ErrInsufficientBalanceToParticipate,
				fmt.Sprintf("You need at least %s %s in your balance to place any bid.",
					minimum.StringFixed(2), user.CurrencyLabel(domain.BaseCurrency)))
		}

		amountBase, err := s.converter.ToBase(amount, listing.Currency)
		if err != nil {
			return err
		}
		if user.Balance.LessThan(amountBase) {
			return util.NewDomainError(util.ErrInsufficientBalance,
				fmt.Sprintf("Insufficient balance. You need %s %s to cover this %s %s bid, but you only have %s %s.",
					amountBase.StringFixed(2), domain.BaseCurrency,
					amount.StringFixed(2), listing.Currency,
					user.Balance.StringFixed(2), domain.BaseCurrency))
		}

		existing, err := s.bidRepo.ListBidsByListingID(ctx, q, listingID)
		if err != nil {
			return fmt.Errorf("place bid: failed to load bids for listing %s: %w", listingID, err)
		}
		listing.Bids = existing

		bidderName := user.FullName
		if bidderName == "" {
			bidderName = bidder.FullName
		}
		bid := domain.Bid{
			BidderID:   bidder.UserID,
			BidderName: bidderName,
			Amount:     amount,
			Currency:   listing.Currency,
			CreatedAt:  s.now(),
		}
		if err := domain.Admit(listing, bid); err != nil {
			return err
		}

		if err := s.bidRepo.CreateBid(ctx, q, listingID, &bid); err != nil {
			return fmt.Errorf("place bid: failed to create bid: %w", err)
		}
		// Advances version and updated_at.
		if err := s.listingRepo.UpdateListing(ctx, q, listing); err != nil {
			return fmt.Errorf("place bid: failed to touch listing %s: %w", listingID, err)
		}

		notifyBidder := bidder
		notifyBidder.FullName = bidderName
		intents = append(intents, domain.NewBidIntent(notifyBidder, listing, amount))
		bids = listing.Bids
		return nil
	})
	if err != nil {
		s.recordRejection(err)
		if util.IsBusinessError(err) {
			s.logger.Info("Bid rejected", "listing_id", listingID, "bidder_id", bidder.UserID, "reason", err.Error())
		} else {
			s.logger.Error("Failed to place bid", "listing_id", listingID, "bidder_id", bidder.UserID, "error", err)
		}
		return nil, err
	}

	s.metrics.IncBidPlaced()
	s.logger.Info("Bid placed", "listing_id", listingID, "bidder_id", bidder.UserID, "amount", amount.String())
	s.dispatcher.Dispatch(ctx, intents)
	return bids, nil
}

func (s *bidService) recordRejection(err error) {
	reason := "store_failure"
	switch {
	case errors.Is(err, util.ErrSelfBid):
		reason = "self_bid"
	case errors.Is(err, util.ErrListingNotBiddable):
		reason = "not_biddable"
	case errors.Is(err, util.ErrInsufficientBalanceToParticipate):
		reason = "below_participation_balance"
	case errors.Is(err, util.ErrInsufficientBalance):
		reason = "insufficient_balance"
	case errors.Is(err, util.ErrNotFound):
		reason = "not_found"
	case errors.Is(err, util.ErrInvalidInput):
		reason = "invalid_input"
	case errors.Is(err, util.ErrConflict):
		reason = "conflict"
	}
	s.metrics.IncBidRejected(reason)
}

// GetBids returns a listing's bids, highest amount first.
func (s *bidService) GetBids(ctx context.Context, listingID uuid.UUID) ([]domain.Bid, error) {
	if _, err := s.listingRepo.GetListingByID(ctx, s.tx.DBExecutor, listingID); err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.NewDomainError(util.ErrNotFound, "Listing not found.")
		}
		return nil, fmt.Errorf("get bids: failed to get listing %s: %w", listingID, err)
	}
	bids, err := s.bidRepo.ListBidsByListingID(ctx, s.tx.DBExecutor, listingID)
	if err != nil {
		return nil, fmt.Errorf("get bids: %w", err)
	}
	domain.SortBids(bids)
	return bids, nil
}
