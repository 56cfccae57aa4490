package domain

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
)

// Currency is an ISO 4217 code.
type Currency struct {
	code string
}

// ParseCurrency normalizes s to upper case and checks it against the ISO 4217 table.
func ParseCurrency(s string) (Currency, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if money.GetCurrency(code) == nil {
		return Currency{}, fmt.Errorf("%w: %q is not a valid ISO 4217 currency code", ErrValidation, s)
	}
	return Currency{code: code}, nil
}

// MustParseCurrency panics on invalid input. Intended for tests and constants.
func MustParseCurrency(s string) Currency {
	c, err := ParseCurrency(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Currency) Code() string {
	return c.code
}

func (c Currency) String() string {
	return c.code
}

func (c Currency) Equals(other Currency) bool {
	return c.code == other.code
}

func (c Currency) IsZero() bool {
	return c.code == ""
}

// Fraction is the number of minor-unit digits, e.g. 2 for USD and 0 for JPY.
func (c Currency) Fraction() int {
	if cur := money.GetCurrency(c.code); cur != nil {
		return cur.Fraction
	}
	return 0
}
