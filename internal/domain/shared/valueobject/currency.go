package valueobject

import (
	"fmt"
	"strings"
)

// Currency is an ISO 4217 alphabetic code
type Currency string

// ParseCurrency normalises and validates a currency code
func ParseCurrency(raw string) (Currency, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 3 {
		return "", fmt.Errorf("currency code must be 3 letters, got %q", raw)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("currency code must be 3 letters, got %q", raw)
		}
	}
	return Currency(code), nil
}

func (c Currency) String() string {
	return string(c)
}

// IsZero reports whether no currency was set
func (c Currency) IsZero() bool {
	return c == ""
}
