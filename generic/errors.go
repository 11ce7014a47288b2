/*
errors.go - Centralized error types for the rent engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The engine itself never returns errors (it always produces a best-effort
  result); these errors belong to the boundary: JSON parsing, stores and
  the HTTP API.

ERROR CATEGORIES:
  1. Not found - Tenant lookups in a store
  2. Validation - Malformed statuses, dates, amounts, buckets
  3. Conflict - Duplicate identifiers on insert

USAGE:
  if generic.IsNotFound(err) {
      writeError(w, http.StatusNotFound, "Tenant not found", err)
  }

SEE ALSO:
  - factory/snapshot.go: Wraps validation errors with field context
  - store/sqlite/sqlite.go: Maps SQL failures onto these errors
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrTenantNotFound is returned when a referenced tenant doesn't exist.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrInvalidStatus is returned for a payment status outside the known enum.
	ErrInvalidStatus = errors.New("invalid payment status")

	// ErrInvalidDate is returned when a date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidAmount is returned when an amount is not a decimal number.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidBucket is returned for an unknown classification bucket.
	ErrInvalidBucket = errors.New("invalid bucket")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	// Only reported by validation; the engine treats such periods as covering nothing.
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrDuplicateID is returned when inserting a record whose ID already exists.
	ErrDuplicateID = errors.New("duplicate id")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field and value.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidBucket) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrDuplicateID)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTenantNotFound)
}
