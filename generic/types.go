/*
Package generic provides the domain-agnostic primitives of the rent engine.

PURPOSE:
  Calendar dates, billing periods, identifiers, decimal helpers and the
  error taxonomy shared by the engine (package rent), its stores, the JSON
  boundary (package factory) and the HTTP API.

KEY CONCEPTS:
  - TimePoint: A calendar date; all comparisons are day-granular
  - Period: A closed [Start, End] interval that may arrive malformed
  - MonthsBetween: Calendar-field month arithmetic (year/month only)
  - TenantID / PaymentID: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: Money is decimal.Decimal, never float64
  2. Explicit time: Nothing below the API layer reads the clock
  3. Type Safety: Strong typing for IDs prevents mixing tenant/payment IDs

SEE ALSO:
  - time.go: TimePoint and month arithmetic
  - period.go: Period and coverage checks
  - errors.go: Sentinel and structured errors
*/
package generic

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TenantID string
type PaymentID string

// NewTenantID returns a fresh random tenant identifier.
func NewTenantID() TenantID { return TenantID(uuid.NewString()) }

// NewPaymentID returns a fresh random payment identifier.
func NewPaymentID() PaymentID { return PaymentID(uuid.NewString()) }

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseDecimal parses a decimal amount. The empty string is zero.
func ParseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Value: s, Err: ErrInvalidAmount}
	}
	return d, nil
}

// Sum adds up amounts; an empty list is zero.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
