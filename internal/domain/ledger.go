// internal/domain/ledger.go
package domain

import (
	"slices"

	"bidmarket/internal/util"
)

// Admit appends bid to the listing's bid list and restores the descending-amount order.
// Equal amounts keep insertion order. Any positive amount is admissible: there is no outbid rule
// and a bidder may hold several bids on the same listing.
func Admit(listing *Listing, bid Bid) error {
	if !bid.Amount.IsPositive() {
		return util.NewDomainError(util.ErrInvalidInput, "Invalid bid amount specified (must be a positive number).")
	}
	listing.Bids = append(listing.Bids, bid)
	SortBids(listing.Bids)
	return nil
}

// SortBids orders bids by amount, highest first, keeping insertion order among equal amounts.
func SortBids(bids []Bid) {
	slices.SortStableFunc(bids, func(a, b Bid) int {
		return b.Amount.Cmp(a.Amount)
	})
}
