// internal/domain/user.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// User is the subset of a marketplace account the bidding core reads.
// Balance is always held in the base currency; Currency is a display label only.
type User struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	FullName          string          `db:"full_name" json:"full_name"`
	Email             string          `db:"email" json:"email"`
	Role              Role            `db:"role" json:"role"`
	Balance           decimal.Decimal `db:"balance" json:"balance"`
	Currency          string          `db:"currency" json:"currency"`
	ProductsSoldCount int             `db:"products_sold_count" json:"products_sold_count"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// CurrencyLabel returns the user's preferred currency label, or fallback when none is set.
func (u *User) CurrencyLabel(fallback Currency) string {
	if u.Currency == "" {
		return string(fallback)
	}
	return u.Currency
}
