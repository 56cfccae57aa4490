package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a signed monetary quantity. Arithmetic is exact.
type Amount struct {
	value decimal.Decimal
}

// ZeroAmount is the additive identity.
var ZeroAmount = Amount{value: decimal.Zero}

// NewAmountFromInt is a convenience for whole units.
func NewAmountFromInt(v int64) Amount {
	return Amount{value: decimal.NewFromInt(v)}
}

// ParseAmount accepts a plain decimal string such as "-12.50".
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("%w: amount is required", ErrValidation)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: invalid amount %q", ErrValidation, s)
	}
	return Amount{value: d}, nil
}

func (a Amount) Add(other Amount) Amount {
	return Amount{value: a.value.Add(other.value)}
}

func (a Amount) Sub(other Amount) Amount {
	return Amount{value: a.value.Sub(other.value)}
}

func (a Amount) Neg() Amount {
	return Amount{value: a.value.Neg()}
}

func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

func (a Amount) IsNegative() bool {
	return a.value.IsNegative()
}

// Equals compares numerically, so "1.0" equals "1".
func (a Amount) Equals(other Amount) bool {
	return a.value.Equal(other.value)
}

func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

func (a Amount) String() string {
	return a.value.String()
}

// Abs returns the magnitude.
func (a Amount) Abs() Amount {
	return Amount{value: a.value.Abs()}
}

// SumAmounts adds up amounts.
func SumAmounts(amounts ...Amount) Amount {
	total := ZeroAmount
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
