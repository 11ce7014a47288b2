package rent

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CreditPolicy decides what happens to over-payments on PARTIAL records.
type CreditPolicy string

const (
	// CreditSurface keeps negative shortfalls, so an over-paid PARTIAL record
	// reduces the partial due amount and may drive it below zero.
	CreditSurface CreditPolicy = "surface"

	// CreditClamp floors each PARTIAL record's shortfall at zero.
	CreditClamp CreditPolicy = "clamp"
)

// ParseCreditPolicy maps a config value onto a policy. Empty means surface.
func ParseCreditPolicy(s string) (CreditPolicy, error) {
	switch CreditPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", CreditSurface:
		return CreditSurface, nil
	case CreditClamp:
		return CreditClamp, nil
	}
	return "", fmt.Errorf("unknown credit policy %q (want %q or %q)", s, CreditSurface, CreditClamp)
}

func (c CreditPolicy) apply(shortfall decimal.Decimal) decimal.Decimal {
	if c == CreditClamp && shortfall.IsNegative() {
		return decimal.Zero
	}
	return shortfall
}
