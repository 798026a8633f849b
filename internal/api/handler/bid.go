// internal/api/handler/bid.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"bidmarket/internal/api/types"
	"bidmarket/internal/service"
	"bidmarket/internal/util"
)

// BidHandler handles HTTP requests related to bidding.
type BidHandler struct {
	responder
	service service.BidService
}

// NewBidHandler creates a new BidHandler.
func NewBidHandler(svc service.BidService, logger *slog.Logger) *BidHandler {
	return &BidHandler{
		responder: responder{logger: logger},
		service:   svc,
	}
}

// PlaceBidRequest represents the request body for placing a bid.
type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// PlaceBid handles a bid on a listing.
// POST /listings/{listingID}/bids
func (h *BidHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	listingID, ok := h.listingID(w, r)
	if !ok {
		return
	}
	var req PlaceBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, invalidInput("Invalid bid amount specified (must be a positive number)."))
		return
	}

	bids, err := h.service.PlaceBid(r.Context(), actor, listingID, req.Amount)
	if err != nil {
		h.respondWithErrorOr(w, err, util.BidFailureMessage)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, types.BidsResponse{Message: "Bid placed successfully!", Bids: bids})
}

// GetBids returns a listing's bids, highest first.
// GET /listings/{listingID}/bids
func (h *BidHandler) GetBids(w http.ResponseWriter, r *http.Request) {
	listingID, ok := h.listingID(w, r)
	if !ok {
		return
	}
	bids, err := h.service.GetBids(r.Context(), listingID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.BidsResponse{Bids: bids})
}
