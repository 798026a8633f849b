// internal/api/router_test.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bidmarket/internal/api/handler"
	"bidmarket/internal/api/types"
	"bidmarket/internal/domain"
	"bidmarket/internal/metrics"
	"bidmarket/internal/service"
	"bidmarket/internal/util"
)

// MockListingService is a mock implementation of service.ListingService.
type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) CreateListing(ctx context.Context, actor domain.Actor, in service.CreateListingInput) (*domain.Listing, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingService) UpdateListing(ctx context.Context, actor domain.Actor, id uuid.UUID, in service.UpdateListingInput) (*domain.Listing, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingService) ApproveListing(ctx context.Context, admin domain.Actor, id uuid.UUID) (*domain.Listing, error) {
	args := m.Called(ctx, admin, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingService) RejectListing(ctx context.Context, admin domain.Actor, id uuid.UUID, reason string) (*domain.Listing, error) {
	args := m.Called(ctx, admin, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingService) MarkSold(ctx context.Context, seller domain.Actor, id uuid.UUID, buyerID uuid.UUID) (*domain.Listing, error) {
	args := m.Called(ctx, seller, id, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingService) GetListing(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingService) ListPending(ctx context.Context, admin domain.Actor) ([]domain.Listing, error) {
	args := m.Called(ctx, admin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Listing), args.Error(1)
}

func (m *MockListingService) CountByOwner(ctx context.Context, actor domain.Actor, ownerID uuid.UUID) (*service.ListingCounts, error) {
	args := m.Called(ctx, actor, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListingCounts), args.Error(1)
}

func (m *MockListingService) DeleteListing(ctx context.Context, actor domain.Actor, id uuid.UUID, reason string) error {
	args := m.Called(ctx, actor, id, reason)
	return args.Error(0)
}

func (m *MockListingService) ListListings(ctx context.Context) ([]domain.ListingSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ListingSummary), args.Error(1)
}

func (m *MockListingService) ToggleLike(ctx context.Context, actor domain.Actor, id uuid.UUID) (*service.LikeResult, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LikeResult), args.Error(1)
}

// MockBidService is a mock implementation of service.BidService.
type MockBidService struct {
	mock.Mock
}

func (m *MockBidService) PlaceBid(ctx context.Context, bidder domain.Actor, listingID uuid.UUID, amount decimal.Decimal) ([]domain.Bid, error) {
	args := m.Called(ctx, bidder, listingID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Bid), args.Error(1)
}

func (m *MockBidService) GetBids(ctx context.Context, listingID uuid.UUID) ([]domain.Bid, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Bid), args.Error(1)
}

type routerFixture struct {
	listings *MockListingService
	bids     *MockBidService
	server   http.Handler
}

func newRouterFixture() *routerFixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &routerFixture{listings: new(MockListingService), bids: new(MockBidService)}
	reg := prometheus.NewRegistry()
	metrics.New(reg)
	f.server = NewRouter(
		handler.NewListingHandler(f.listings, logger),
		handler.NewBidHandler(f.bids, logger),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		logger,
	)
	return f
}

func (f *routerFixture) do(method, path, body string, actor *domain.Actor) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set(handler.HeaderUserID, actor.UserID.String())
		req.Header.Set(handler.HeaderUserRole, string(actor.Role))
		req.Header.Set(handler.HeaderUserName, actor.FullName)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body types.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHealthAndMetrics(t *testing.T) {
	f := newRouterFixture()

	rec := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = f.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bidmarket_bids_placed_total")
}

func TestActorMiddleware(t *testing.T) {
	f := newRouterFixture()

	t.Run("MissingHeaders", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/listings/", `{}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		actor := domain.Actor{UserID: uuid.New(), Role: domain.Role("Buyer")}
		rec := f.do(http.MethodPost, "/listings/", `{}`, &actor)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Unauthorized: unrecognized role.", decodeError(t, rec))
	})

	f.listings.AssertNotCalled(t, "CreateListing", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceBidEndpoint(t *testing.T) {
	bidder := domain.Actor{UserID: uuid.New(), Role: domain.RoleVendor, FullName: "Sami"}
	listingID := uuid.New()

	t.Run("Created", func(t *testing.T) {
		f := newRouterFixture()
		bids := []domain.Bid{{BidderID: bidder.UserID, BidderName: "Sami", Amount: decimal.NewFromInt(5), Currency: domain.CurrencyUSD}}
		f.bids.On("PlaceBid", mock.Anything, bidder, listingID, mock.MatchedBy(func(d decimal.Decimal) bool {
			return d.Equal(decimal.NewFromInt(5))
		})).Return(bids, nil).Once()

		rec := f.do(http.MethodPost, fmt.Sprintf("/listings/%s/bids", listingID), `{"amount": 5}`, &bidder)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var body types.BidsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Bids, 1)
		assert.Equal(t, "Sami", body.Bids[0].BidderName)
		f.bids.AssertExpectations(t)
	})

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"SelfBid", util.NewDomainError(util.ErrSelfBid, "You cannot bid on your own listing."), http.StatusBadRequest, "You cannot bid on your own listing."},
		{"NotBiddable", util.NewDomainError(util.ErrListingNotBiddable, "Bids can only be placed on approved listings."), http.StatusBadRequest, "Bids can only be placed on approved listings."},
		{"BelowThreshold", util.NewDomainError(util.ErrInsufficientBalanceToParticipate, "You need at least 6.00 TND in your balance to place any bid."), http.StatusPaymentRequired, "You need at least 6.00 TND in your balance to place any bid."},
		{"Insufficient", util.NewDomainError(util.ErrInsufficientBalance, "Insufficient balance."), http.StatusPaymentRequired, "Insufficient balance."},
		{"NotFound", fmt.Errorf("place bid: %w", util.ErrNotFound), http.StatusNotFound, util.BidFailureMessage},
		{"Conflict", fmt.Errorf("place_bid: %w: stale", util.ErrConflict), http.StatusConflict, util.BidFailureMessage},
		{"StoreFailure", fmt.Errorf("place_bid: %w: pq: connection refused", util.ErrStoreFailure), http.StatusInternalServerError, util.BidFailureMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRouterFixture()
			f.bids.On("PlaceBid", mock.Anything, bidder, listingID, mock.Anything).Return(nil, tc.err).Once()

			rec := f.do(http.MethodPost, fmt.Sprintf("/listings/%s/bids", listingID), `{"amount": "5.00"}`, &bidder)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantMsg, decodeError(t, rec))
			assert.NotContains(t, rec.Body.String(), "pq:")
		})
	}

	t.Run("MalformedBody", func(t *testing.T) {
		f := newRouterFixture()

		rec := f.do(http.MethodPost, fmt.Sprintf("/listings/%s/bids", listingID), `{"amount": "lots"}`, &bidder)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.bids.AssertNotCalled(t, "PlaceBid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("BadListingID", func(t *testing.T) {
		f := newRouterFixture()

		rec := f.do(http.MethodPost, "/listings/not-a-uuid/bids", `{"amount": 5}`, &bidder)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid listing id format.", decodeError(t, rec))
	})
}

func TestGetBidsEndpointIsPublic(t *testing.T) {
	f := newRouterFixture()
	listingID := uuid.New()
	f.bids.On("GetBids", mock.Anything, listingID).Return([]domain.Bid{}, nil).Once()

	rec := f.do(http.MethodGet, fmt.Sprintf("/listings/%s/bids", listingID), "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	f.bids.AssertExpectations(t)
}

func TestListingEndpoints(t *testing.T) {
	vendor := domain.Actor{UserID: uuid.New(), Role: domain.RoleVendor, FullName: "Vera"}
	admin := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin, FullName: "Ada"}
	listingID := uuid.New()

	t.Run("CreatePending", func(t *testing.T) {
		f := newRouterFixture()
		f.listings.On("CreateListing", mock.Anything, vendor, mock.MatchedBy(func(in service.CreateListingInput) bool {
			return in.Title == "Camera" && in.Currency == "USD" && in.Quantity == 1 && in.Status == nil
		})).Return(&domain.Listing{ID: listingID, Status: domain.StatusPending}, nil).Once()

		rec := f.do(http.MethodPost, "/listings/", `{"title":"Camera","description":"d","image_urls":["u"],"price":"10","currency":"USD","quantity":1}`, &vendor)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var body types.ListingResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Listing submitted for approval.", body.Message)
		f.listings.AssertExpectations(t)
	})

	t.Run("VendorStatusRejectedAsUnauthorized", func(t *testing.T) {
		f := newRouterFixture()
		f.listings.On("CreateListing", mock.Anything, vendor, mock.Anything).
			Return(nil, util.NewDomainError(util.ErrUnauthorized, "Unauthorized: only administrators can set listing status.")).Once()

		rec := f.do(http.MethodPost, "/listings/", `{"title":"Camera","status":"approved"}`, &vendor)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("UpdateForbidden", func(t *testing.T) {
		f := newRouterFixture()
		f.listings.On("UpdateListing", mock.Anything, vendor, listingID, mock.Anything).
			Return(nil, util.NewDomainError(util.ErrForbidden, "Forbidden: you can only modify your own listings.")).Once()

		rec := f.do(http.MethodPatch, fmt.Sprintf("/listings/%s", listingID), `{"title":"x"}`, &vendor)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Forbidden: you can only modify your own listings.", decodeError(t, rec))
	})

	t.Run("ApproveAlreadyProcessed", func(t *testing.T) {
		f := newRouterFixture()
		f.listings.On("ApproveListing", mock.Anything, admin, listingID).
			Return(nil, util.NewDomainError(util.ErrInvalidTransition, "Listing is already processed (current status: approved).")).Once()

		rec := f.do(http.MethodPost, fmt.Sprintf("/listings/%s/approve", listingID), "", &admin)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Listing is already processed (current status: approved).", decodeError(t, rec))
	})

	t.Run("StoreFailureUsesNeutralMessage", func(t *testing.T) {
		f := newRouterFixture()
		f.listings.On("ApproveListing", mock.Anything, admin, listingID).
			Return(nil, fmt.Errorf("approve_listing: %w: pq: connection refused", util.ErrStoreFailure)).Once()

		rec := f.do(http.MethodPost, fmt.Sprintf("/listings/%s/approve", listingID), "", &admin)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Something went wrong. Please try again later.", decodeError(t, rec))
	})

	t.Run("RejectPassesReason", func(t *testing.T) {
		f := newRouterFixture()
		f.listings.On("RejectListing", mock.Anything, admin, listingID, "Blurry").
			Return(&domain.Listing{ID: listingID, Status: domain.StatusRejected}, nil).Once()

		rec := f.do(http.MethodPost, fmt.Sprintf("/listings/%s/reject", listingID), `{"reason":"Blurry"}`, &admin)

		assert.Equal(t, http.StatusOK, rec.Code)
		f.listings.AssertExpectations(t)
	})

	t.Run("MarkSold", func(t *testing.T) {
		f := newRouterFixture()
		buyer := uuid.New()
		f.listings.On("MarkSold", mock.Anything, vendor, listingID, buyer).
			Return(&domain.Listing{ID: listingID, Status: domain.StatusSold}, nil).Once()

		rec := f.do(http.MethodPost, fmt.Sprintf("/listings/%s/sold", listingID), fmt.Sprintf(`{"buyer_id":%q}`, buyer.String()), &vendor)

		assert.Equal(t, http.StatusOK, rec.Code)
		f.listings.AssertExpectations(t)
	})

	t.Run("PendingRouteIsNotAnID", func(t *testing.T) {
		f := newRouterFixture()
		f.listings.On("ListPending", mock.Anything, admin).Return([]domain.Listing{{ID: listingID}}, nil).Once()

		rec := f.do(http.MethodGet, "/listings/pending", "", &admin)

		assert.Equal(t, http.StatusOK, rec.Code)
		var body types.ListResponse[domain.Listing]
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Count)
	})

	t.Run("DeleteWithReason", func(t *testing.T) {
		f := newRouterFixture()
		f.listings.On("DeleteListing", mock.Anything, admin, listingID, "spam").Return(nil).Once()

		rec := f.do(http.MethodDelete, fmt.Sprintf("/listings/%s?reason=spam", listingID), "", &admin)

		assert.Equal(t, http.StatusOK, rec.Code)
		f.listings.AssertExpectations(t)
	})

	t.Run("CountByOwner", func(t *testing.T) {
		f := newRouterFixture()
		f.listings.On("CountByOwner", mock.Anything, vendor, vendor.UserID).
			Return(&service.ListingCounts{Approved: 1, Pending: 2}, nil).Once()

		rec := f.do(http.MethodGet, fmt.Sprintf("/users/%s/listing-counts", vendor.UserID), "", &vendor)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"approvedCount":1,"pendingCount":2,"rejectedCount":0}`, rec.Body.String())
	})

	t.Run("CatalogueIsPublic", func(t *testing.T) {
		f := newRouterFixture()
		owner := domain.ListingOwner{ID: vendor.UserID, FullName: "Vera", Email: "vera@example.com"}
		f.listings.On("ListListings", mock.Anything).Return([]domain.ListingSummary{
			{Listing: domain.Listing{ID: listingID, OwnerID: vendor.UserID}, Owner: owner, LikesCount: 2},
		}, nil).Once()

		rec := f.do(http.MethodGet, "/listings", "", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		var body types.ListResponse[domain.ListingSummary]
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, 1, body.Count)
		assert.Equal(t, "Vera", body.Data[0].Owner.FullName)
		assert.Equal(t, 2, body.Data[0].LikesCount)
		f.listings.AssertExpectations(t)
	})

	t.Run("ToggleLike", func(t *testing.T) {
		f := newRouterFixture()
		f.listings.On("ToggleLike", mock.Anything, vendor, listingID).
			Return(&service.LikeResult{LikesCount: 1, UserLiked: true}, nil).Once()

		rec := f.do(http.MethodPost, fmt.Sprintf("/listings/%s/like", listingID), "", &vendor)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Listing liked.","likesCount":1,"userLiked":true}`, rec.Body.String())
	})

	t.Run("ToggleLikeRequiresActor", func(t *testing.T) {
		f := newRouterFixture()

		rec := f.do(http.MethodPost, fmt.Sprintf("/listings/%s/like", listingID), "", nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		f.listings.AssertNotCalled(t, "ToggleLike", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("GetListingNotFound", func(t *testing.T) {
		f := newRouterFixture()
		f.listings.On("GetListing", mock.Anything, listingID).
			Return(nil, util.NewDomainError(util.ErrNotFound, "Listing not found.")).Once()

		rec := f.do(http.MethodGet, fmt.Sprintf("/listings/%s", listingID), "", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Listing not found.", decodeError(t, rec))
	})
}
