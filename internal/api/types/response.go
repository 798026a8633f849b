// internal/api/types/response.go
package types

import "bidmarket/internal/domain"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListingResponse wraps a single listing with a status message.
type ListingResponse struct {
	Message string          `json:"message"`
	Listing *domain.Listing `json:"listing"`
}

// BidsResponse wraps a listing's bids, highest amount first.
type BidsResponse struct {
	Message string       `json:"message,omitempty"`
	Bids    []domain.Bid `json:"bids"`
}

// LikeResponse reports a listing's like state after a toggle.
type LikeResponse struct {
	Message    string `json:"message"`
	LikesCount int    `json:"likesCount"`
	UserLiked  bool   `json:"userLiked"`
}

// ListResponse defines a generic structure for list responses.
// T represents the type of data contained in the 'Data' slice.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}
