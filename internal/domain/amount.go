package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrMalformedAmount   = errors.New("amount is not a decimal number")
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrSubCentAmount     = errors.New("amount has more than two fractional digits")
	ErrAmountOverflow    = errors.New("amount exceeds the supported range")
)

const (
	centsExponent = 2
	// maxAmountLength bounds the accepted text; int64 cents need at most 20 characters.
	maxAmountLength = 32
	// Exponents outside this range are rejected before any rescaling.
	minExponent = -64
	maxExponent = 64
)

var maxCents = decimal.NewFromInt(math.MaxInt64)

// ParseAmount parses a major-unit decimal string such as "14.5".
func ParseAmount(amount string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(amount)
	if len(trimmed) > maxAmountLength {
		return decimal.Zero, fmt.Errorf("%w: longer than %d characters", ErrMalformedAmount, maxAmountLength)
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedAmount, amount)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNonPositiveAmount, amount)
	}
	if _, err := ToCents(d); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", err, amount)
	}
	return d, nil
}

// ParseAmountCents parses a major-unit decimal string into minor units.
func ParseAmountCents(amount string) (int64, error) {
	d, err := ParseAmount(amount)
	if err != nil {
		return 0, err
	}
	return ToCents(d)
}

// ToCents converts a major-unit amount into minor units without rounding.
func ToCents(amount decimal.Decimal) (int64, error) {
	switch exp := amount.Exponent(); {
	case amount.IsZero():
		return 0, nil
	case exp < minExponent:
		return 0, ErrSubCentAmount
	case exp > maxExponent:
		return 0, ErrAmountOverflow
	}
	cents := amount.Shift(centsExponent)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, ErrSubCentAmount
	}
	if cents.Abs().GreaterThan(maxCents) {
		return 0, ErrAmountOverflow
	}
	return cents.IntPart(), nil
}
