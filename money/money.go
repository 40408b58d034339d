// Package money represents monetary quantities exchanged in a swap. Amounts
// are exact decimals because the two legs settle on backends with different
// denominations.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNonPositiveAmount is returned when trying to create an Amount that is
// zero or negative.
var ErrNonPositiveAmount = errors.New("amount must be positive")

// Amount is a strictly positive decimal quantity of some asset.
type Amount struct {
	value decimal.Decimal
}

func New(value decimal.Decimal) (Amount, error) {
	if !value.IsPositive() {
		return Amount{}, ErrNonPositiveAmount
	}

	return Amount{value: value}, nil
}

func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

func (a Amount) String() string {
	return a.value.String()
}
