// Package money holds the fixed-point helpers used for every ledger amount.
// Amounts are shopspring decimals; binary floating point never enters the ledger.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Scale is the internal working precision of stored amounts.
	Scale int32 = 6
	// CurrencyScale is the precision of member-facing and tax-reported amounts.
	CurrencyScale int32 = 2
	// ShareScale is the precision of member ownership ratios.
	ShareScale int32 = 10
)

var (
	ErrEmptyAmount     = errors.New("amount cannot be empty")
	ErrTooManyDecimals = fmt.Errorf("amount cannot have more than %d fractional digits", Scale)
)

// Zero is the additive identity, exposed for readability at call sites.
var Zero = decimal.Zero

// RoundHalfToEven rounds value to places using banker's rounding: ties go to the even digit.
func RoundHalfToEven(value decimal.Decimal, places int32) decimal.Decimal {
	return value.RoundBank(places)
}

// Quantize collapses value to the internal working precision.
func Quantize(value decimal.Decimal) decimal.Decimal {
	return RoundHalfToEven(value, Scale)
}

// ToCurrency collapses value to two fractional digits.
func ToCurrency(value decimal.Decimal) decimal.Decimal {
	return RoundHalfToEven(value, CurrencyScale)
}

// FitsScale reports whether value can be stored without losing digits.
func FitsScale(value decimal.Decimal) bool {
	return value.Equal(value.Truncate(Scale))
}

// Parse converts an exact decimal string such as "100.00" into an amount.
func Parse(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if !FitsScale(d) {
		return decimal.Zero, ErrTooManyDecimals
	}
	return d, nil
}

// MustParse is Parse for constants and tests.
func MustParse(raw string) decimal.Decimal {
	d, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return d
}

// FromMinorUnits builds an amount from integer cents.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -CurrencyScale)
}

// Format renders value with two fractional digits using banker's rounding.
func Format(value decimal.Decimal) string {
	return value.StringFixedBank(CurrencyScale)
}

// FormatExact renders value at the internal working precision.
func FormatExact(value decimal.Decimal) string {
	return value.StringFixedBank(Scale)
}
