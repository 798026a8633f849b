// internal/api/handler/listing.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bidmarket/internal/api/types"
	"bidmarket/internal/domain"
	"bidmarket/internal/service"
)

// ListingHandler handles HTTP requests related to listing moderation.
type ListingHandler struct {
	responder
	service service.ListingService
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(svc service.ListingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{
		responder: responder{logger: logger},
		service:   svc,
	}
}

// CreateListingRequest represents the request body for creating a listing.
type CreateListingRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ImageURLs   []string        `json:"image_urls"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Quantity    int             `json:"quantity"`
	OwnerID     *uuid.UUID      `json:"owner_id"`
	Status      *string         `json:"status"`
}

// UpdateListingRequest represents the request body for a partial listing update.
type UpdateListingRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	ImageURLs   []string         `json:"image_urls"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Currency    *string          `json:"currency"`
	Quantity    *int             `json:"quantity"`
	OwnerID     *uuid.UUID       `json:"owner_id"`
	Status      *string          `json:"status"`
}

// RejectListingRequest represents the request body for rejecting a listing.
type RejectListingRequest struct {
	Reason string `json:"reason"`
}

// MarkSoldRequest represents the request body for closing a sale.
type MarkSoldRequest struct {
	BuyerID uuid.UUID `json:"buyer_id"`
}

// CreateListing handles listing creation.
// POST /listings
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, invalidInput("Invalid request body."))
		return
	}

	listing, err := h.service.CreateListing(r.Context(), actor, service.CreateListingInput{
		Title:       req.Title,
		Description: req.Description,
		ImageURLs:   req.ImageURLs,
		Category:    req.Category,
		Price:       req.Price,
		Currency:    req.Currency,
		Quantity:    req.Quantity,
		OwnerID:     req.OwnerID,
		Status:      req.Status,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	message := "Listing submitted for approval."
	if listing.Status == domain.StatusApproved {
		message = "Listing created and approved."
	}
	h.respondWithJSON(w, http.StatusCreated, types.ListingResponse{Message: message, Listing: listing})
}

// GetListing returns a listing with its bids.
// GET /listings/{listingID}
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	listingID, ok := h.listingID(w, r)
	if !ok {
		return
	}
	listing, err := h.service.GetListing(r.Context(), listingID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, listing)
}

// UpdateListing applies a partial update.
// PATCH /listings/{listingID}
func (h *ListingHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	listingID, ok := h.listingID(w, r)
	if !ok {
		return
	}
	var req UpdateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, invalidInput("Invalid request body."))
		return
	}

	listing, err := h.service.UpdateListing(r.Context(), actor, listingID, service.UpdateListingInput{
		Title:       req.Title,
		Description: req.Description,
		ImageURLs:   req.ImageURLs,
		Category:    req.Category,
		Price:       req.Price,
		Currency:    req.Currency,
		Quantity:    req.Quantity,
		OwnerID:     req.OwnerID,
		Status:      req.Status,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	message := "Listing updated."
	if listing.Status == domain.StatusPending && !actor.IsAdmin() {
		message = "Listing updated and pending approval."
	}
	h.respondWithJSON(w, http.StatusOK, types.ListingResponse{Message: message, Listing: listing})
}

// DeleteListing removes a listing. Administrators may pass ?reason= for the owner's notification.
// DELETE /listings/{listingID}
func (h *ListingHandler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	listingID, ok := h.listingID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteListing(r.Context(), actor, listingID, r.URL.Query().Get("reason")); err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Listing deleted."})
}

// ListListings returns the public catalogue, newest first.
// GET /listings
func (h *ListingHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.service.ListListings(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.ListResponse[domain.ListingSummary]{Data: listings, Count: len(listings)})
}

// ToggleLike likes or unlikes a listing for the caller.
// POST /listings/{listingID}/like
func (h *ListingHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	listingID, ok := h.listingID(w, r)
	if !ok {
		return
	}
	res, err := h.service.ToggleLike(r.Context(), actor, listingID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	message := "Listing unliked."
	if res.UserLiked {
		message = "Listing liked."
	}
	h.respondWithJSON(w, http.StatusOK, types.LikeResponse{Message: message, LikesCount: res.LikesCount, UserLiked: res.UserLiked})
}

// ListPending returns listings awaiting moderation.
// GET /listings/pending
func (h *ListingHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	listings, err := h.service.ListPending(r.Context(), actor)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.ListResponse[domain.Listing]{Data: listings, Count: len(listings)})
}

// ApproveListing approves a pending listing.
// POST /listings/{listingID}/approve
func (h *ListingHandler) ApproveListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	listingID, ok := h.listingID(w, r)
	if !ok {
		return
	}
	listing, err := h.service.ApproveListing(r.Context(), actor, listingID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.ListingResponse{Message: "Listing approved.", Listing: listing})
}

// RejectListing rejects a pending listing with a reason.
// POST /listings/{listingID}/reject
func (h *ListingHandler) RejectListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	listingID, ok := h.listingID(w, r)
	if !ok {
		return
	}
	var req RejectListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, invalidInput("Invalid request body."))
		return
	}
	listing, err := h.service.RejectListing(r.Context(), actor, listingID, req.Reason)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.ListingResponse{Message: "Listing rejected.", Listing: listing})
}

// MarkSold closes the sale of an approved listing.
// POST /listings/{listingID}/sold
func (h *ListingHandler) MarkSold(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	listingID, ok := h.listingID(w, r)
	if !ok {
		return
	}
	var req MarkSoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, invalidInput("Invalid listing or buyer id format."))
		return
	}
	listing, err := h.service.MarkSold(r.Context(), actor, listingID, req.BuyerID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.ListingResponse{Message: "Listing marked as sold.", Listing: listing})
}

// CountByOwner returns an owner's per-status listing counts.
// GET /users/{userID}/listing-counts
func (h *ListingHandler) CountByOwner(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	ownerID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		h.respondWithError(w, invalidInput("Invalid user id format."))
		return
	}
	counts, err := h.service.CountByOwner(r.Context(), actor, ownerID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, counts)
}

func (h responder) actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		h.respondWithJSON(w, http.StatusUnauthorized, types.ErrorResponse{Error: "Unauthorized."})
	}
	return actor, ok
}

func (h responder) listingID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "listingID"))
	if err != nil {
		h.respondWithError(w, invalidInput("Invalid listing id format."))
		return uuid.Nil, false
	}
	return id, true
}
