// internal/domain/currency.go
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bidmarket/internal/util"
)

// Currency is the closed set of currencies a listing can be priced in.
type Currency string

const (
	CurrencyTND Currency = "TND" // base ledger currency; balances are held in it
	CurrencyUSD Currency = "USD"
)

// BaseCurrency is the currency every balance comparison happens in.
const BaseCurrency = CurrencyTND

// DefaultUSDToBaseRate is the fixed conversion rate used when none is configured.
var DefaultUSDToBaseRate = decimal.NewFromInt(3)

// AmountScale is the number of decimal places stored for prices, balances and bid amounts.
const AmountScale int32 = 4

// FitsAmountScale reports whether amount can be stored without rounding.
func FitsAmountScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(AmountScale))
}

// ParseCurrency validates a currency label.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(s) {
	case CurrencyTND, CurrencyUSD:
		return Currency(s), nil
	default:
		return "", util.NewDomainError(util.ErrInvalidInput, fmt.Sprintf("Unsupported currency %q.", s))
	}
}

// CurrencyConverter converts listing amounts into the base currency using a fixed rate table.
// It holds no mutable state after construction and is safe for concurrent use.
type CurrencyConverter struct {
	rates map[Currency]decimal.Decimal
}

// NewCurrencyConverter builds a converter where one unit of the alternate currency is worth usdRate base units.
func NewCurrencyConverter(usdRate decimal.Decimal) *CurrencyConverter {
	return &CurrencyConverter{
		rates: map[Currency]decimal.Decimal{
			CurrencyTND: decimal.NewFromInt(1),
			CurrencyUSD: usdRate,
		},
	}
}

// ToBase converts amount from currency into the base currency at full precision.
func (c *CurrencyConverter) ToBase(amount decimal.Decimal, currency Currency) (decimal.Decimal, error) {
	if currency == BaseCurrency {
		return amount, nil
	}
	rate, ok := c.rates[currency]
	if !ok {
		return decimal.Zero, util.NewDomainError(util.ErrInvalidInput, fmt.Sprintf("Unsupported currency %q.", currency))
	}
	return amount.Mul(rate), nil
}

// Rate returns the configured rate for currency.
func (c *CurrencyConverter) Rate(currency Currency) (decimal.Decimal, bool) {
	rate, ok := c.rates[currency]
	return rate, ok
}
