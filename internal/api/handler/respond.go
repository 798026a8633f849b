// internal/api/handler/respond.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"bidmarket/internal/api/types"
	"bidmarket/internal/util"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 30 * time.Second

type responder struct {
	logger *slog.Logger
}

// Helper function to send JSON responses.
func (h responder) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
// Rule rejections carry their own user-facing message; anything else is reported generically.
func (h responder) respondWithError(w http.ResponseWriter, err error) {
	h.respondWithErrorOr(w, err, util.GenericFailureMessage)
}

// respondWithErrorOr reports non-business failures with fallback instead of the generic text.
func (h responder) respondWithErrorOr(w http.ResponseWriter, err error, fallback string) {
	statusCode := StatusFor(err)
	if statusCode == http.StatusInternalServerError {
		h.logger.Error("Unhandled service error", "error", err)
	}
	h.respondWithJSON(w, statusCode, types.ErrorResponse{Error: util.UserMessageOr(err, fallback)})
}

// StatusFor maps a service error onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case util.IsError(err, util.ErrInvalidInput),
		util.IsError(err, util.ErrInvalidTransition),
		util.IsError(err, util.ErrSelfBid),
		util.IsError(err, util.ErrListingNotBiddable):
		return http.StatusBadRequest
	case util.IsError(err, util.ErrUnauthorized):
		return http.StatusUnauthorized
	case util.IsError(err, util.ErrInsufficientBalance),
		util.IsError(err, util.ErrInsufficientBalanceToParticipate):
		return http.StatusPaymentRequired // 402 Payment Required
	case util.IsError(err, util.ErrForbidden):
		return http.StatusForbidden
	case util.IsError(err, util.ErrNotFound):
		return http.StatusNotFound
	case util.IsError(err, util.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func invalidInput(message string) error {
	return util.NewDomainError(util.ErrInvalidInput, message)
}
