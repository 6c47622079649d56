package valueobject

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxQuantityScale is the number of fractional digits a stored quantity may carry
const MaxQuantityScale = 4

// MaxRateScale is the number of fractional digits an exchange rate or unit cost may carry
const MaxRateScale = 8

var (
	ErrEmptyDecimal     = errors.New("value is required")
	ErrMalformedDecimal = errors.New("value is not a valid decimal number")
	ErrNegativeDecimal  = errors.New("value cannot be negative")
	ErrDecimalScale     = errors.New("value has too many decimal places")
)

// ParseQuantity turns caller input into a validated quantity.
// It is the only place raw quantity text is interpreted; values already
// persisted are decimals and are never parsed again.
func ParseQuantity(raw string) (decimal.Decimal, error) {
	return parseNonNegative(raw, MaxQuantityScale)
}

// ParseRate parses an exchange rate or a unit cost
func ParseRate(raw string) (decimal.Decimal, error) {
	return parseNonNegative(raw, MaxRateScale)
}

// ParseOptionalRate parses a rate, returning fallback when raw is blank
func ParseOptionalRate(raw string, fallback decimal.Decimal) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	return ParseRate(raw)
}

func parseNonNegative(raw string, maxScale int32) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, ErrEmptyDecimal
	}
	// decimal.NewFromString accepts exponents; caller input must be plain notation.
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedDecimal, raw)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedDecimal, raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNegativeDecimal, s)
	}
	if -d.Exponent() > maxScale && !d.Equal(d.Truncate(maxScale)) {
		return decimal.Zero, fmt.Errorf("%w: %s (max %d)", ErrDecimalScale, s, maxScale)
	}
	return d, nil
}

// MinDecimal returns the smaller of a and b
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// FloorZero clamps negative values to zero
func FloorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
