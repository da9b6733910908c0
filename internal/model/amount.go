package model

import (
	"fmt"

	"github.com/holiman/uint256"
)

// MaxAmountBits bounds every ledger amount to 128 bits. The product of two
// in-range amounts then fits a uint256 exactly, so constant-product math never
// needs intermediate overflow checks.
const MaxAmountBits = 128

// ValidateAmount reports whether x is a well-formed ledger amount: non-nil,
// strictly positive, and representable in 128 bits.
func ValidateAmount(x *uint256.Int) bool {
	return x != nil && !x.IsZero() && x.BitLen() <= MaxAmountBits
}

// ParseAmount parses a decimal string into a ledger amount.
func ParseAmount(s string) (*uint256.Int, error) {
	x, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if x.BitLen() > MaxAmountBits {
		return nil, fmt.Errorf("amount %s exceeds %d bits", s, MaxAmountBits)
	}
	return x, nil
}

// FormatAmount renders an amount as a decimal string for records and display.
func FormatAmount(x *uint256.Int) string {
	if x == nil {
		return "0"
	}
	return x.Dec()
}
