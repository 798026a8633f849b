// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrNotFound                         = errors.New("resource not found")
	ErrInvalidInput                     = errors.New("invalid input provided")
	ErrUnauthorized                     = errors.New("unauthorized")
	ErrForbidden                        = errors.New("forbidden")
	ErrInvalidTransition                = errors.New("invalid listing status transition")
	ErrSelfBid                          = errors.New("cannot bid on own listing")
	ErrListingNotBiddable               = errors.New("listing is not open for bids")
	ErrInsufficientBalanceToParticipate = errors.New("balance below participation threshold")
	ErrInsufficientBalance              = errors.New("insufficient balance")
	ErrConflict                         = errors.New("concurrent update conflict")
	ErrStoreFailure                     = errors.New("store failure")
)

// Fallback texts for failures that are not business rule rejections.
const (
	GenericFailureMessage = "Something went wrong. Please try again later."
	BidFailureMessage     = "Failed to place bid. Please try again later."
)

// DomainError carries a caller-facing message alongside one of the sentinel errors above.
// errors.Is(err, ErrInsufficientBalance) keeps working through it.
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Kind
}

// NewDomainError builds a DomainError of the given kind.
func NewDomainError(kind error, message string) error {
	return &DomainError{Kind: kind, Message: message}
}

// IsError reports whether err matches target anywhere in its chain.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// IsBusinessError reports whether err is a deterministic rule rejection.
// Business errors are never retried.
func IsBusinessError(err error) bool {
	for _, target := range []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrUnauthorized,
		ErrForbidden,
		ErrInvalidTransition,
		ErrSelfBid,
		ErrListingNotBiddable,
		ErrInsufficientBalanceToParticipate,
		ErrInsufficientBalance,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// UserMessage returns the text a caller may show to an end user.
// Business rule rejections surface their own message; anything else gets the generic retry text.
func UserMessage(err error) string {
	return UserMessageOr(err, GenericFailureMessage)
}

// UserMessageOr is UserMessage with an operation-specific fallback.
func UserMessageOr(err error, fallback string) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return fallback
}
